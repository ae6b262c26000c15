package cell

import (
	"bytes"
	"sort"

	"github.com/certen/ledgercore/pkg/cellerr"
)

// mapEntry is one key/value pair inside a MapLeaf, indexed by the key
// cell's own content hash.
type mapEntry struct {
	keyHash Hash
	key     *Ref
	val     *Ref
}

// mapNode is implemented by MapLeaf and MapTree, the two physical
// variants of HashMap (§4.3). asSet, when true, changes only the root's
// own Tag()/Encode() to the Set variant; it is never propagated into
// children, which always encode as ordinary map nodes.
type mapNode interface {
	Cell
	entryCount() int
	get(hash Hash, key Cell, shift uint8, res Resolver) (*Ref, bool, error)
	assoc(hash Hash, key, val *Ref, shift uint8, res Resolver) (mapNode, error)
	dissoc(hash Hash, key Cell, shift uint8, res Resolver) (mapNode, error)
	collectEntries(out *[]mapEntry, res Resolver) error
	asSetForm(isSet bool) mapNode
}

func nibbleAt(h Hash, shift uint8) int {
	byteIdx := int(shift / 8)
	if byteIdx >= len(h) {
		return 0
	}
	b := h[byteIdx]
	if shift%8 == 0 {
		return int(b >> 4)
	}
	return int(b & 0x0F)
}

// MapLeaf is the small-map physical variant: up to MapLeafMax entries
// sorted ascending by key hash, or — past HashBits of routing depth — an
// unbounded collision list sharing a common hash prefix.
type MapLeaf struct {
	encCache
	entries []mapEntry
	asSet   bool
}

// NewEmptyMap returns the canonical empty HashMap value.
func NewEmptyMap() Cell { return &MapLeaf{} }

func (m *MapLeaf) entryCount() int { return len(m.entries) }

func (m *MapLeaf) Tag() Tag {
	if m.asSet {
		return TagSetLeaf
	}
	return TagMapLeaf
}

func (m *MapLeaf) Encode(buf []byte) []byte {
	buf = append(buf, byte(m.Tag()))
	return m.EncodeRaw(buf)
}
func (m *MapLeaf) EncodeRaw(buf []byte) []byte {
	buf = appendVLC(buf, uint64(len(m.entries)))
	for _, e := range m.entries {
		buf = encodeChildSlot(buf, e.key)
		buf = encodeChildSlot(buf, e.val)
	}
	return buf
}
func (m *MapLeaf) EstimatedEncodingSize() int {
	size := 1 + vlcLen(uint64(len(m.entries)))
	for _, e := range m.entries {
		size += childSlotLen(e.key) + childSlotLen(e.val)
	}
	return size
}
func (m *MapLeaf) Hash() Hash {
	return m.hashOf(m.encodingOf(func() []byte { return m.Encode(nil) }))
}
func (m *MapLeaf) IsEmbedded() bool {
	return isEmbeddedEncoding(m.encodingOf(func() []byte { return m.Encode(nil) }))
}
func (m *MapLeaf) MemorySize() uint64 { return memorySize(m) }
func (m *MapLeaf) Children() []*Ref {
	out := make([]*Ref, 0, len(m.entries)*2)
	for _, e := range m.entries {
		out = append(out, e.key, e.val)
	}
	return out
}
func (m *MapLeaf) WithChildren(children []*Ref) Cell {
	if len(children) != len(m.entries)*2 {
		panic("cell: MapLeaf.WithChildren given wrong child count")
	}
	entries := make([]mapEntry, len(m.entries))
	for i := range m.entries {
		entries[i] = mapEntry{keyHash: m.entries[i].keyHash, key: children[2*i], val: children[2*i+1]}
	}
	return &MapLeaf{entries: entries, asSet: m.asSet}
}
func (m *MapLeaf) Equal(other Cell) bool { return equalCells(m, other) }

func (m *MapLeaf) asSetForm(isSet bool) mapNode {
	if m.asSet == isSet {
		return m
	}
	entries := append([]mapEntry(nil), m.entries...)
	return &MapLeaf{entries: entries, asSet: isSet}
}

func (m *MapLeaf) collectEntries(out *[]mapEntry, res Resolver) error {
	*out = append(*out, m.entries...)
	return nil
}

func (m *MapLeaf) findIndex(hash Hash) (int, bool) {
	i := sort.Search(len(m.entries), func(i int) bool {
		return bytes.Compare(m.entries[i].keyHash[:], hash[:]) >= 0
	})
	if i < len(m.entries) && m.entries[i].keyHash == hash {
		return i, true
	}
	return i, false
}

func (m *MapLeaf) get(hash Hash, key Cell, shift uint8, res Resolver) (*Ref, bool, error) {
	if i, ok := m.findIndex(hash); ok {
		return m.entries[i].val, true, nil
	}
	return nil, false, nil
}

func (m *MapLeaf) assoc(hash Hash, key, val *Ref, shift uint8, res Resolver) (mapNode, error) {
	idx, found := m.findIndex(hash)
	if found {
		entries := append([]mapEntry(nil), m.entries...)
		entries[idx] = mapEntry{keyHash: hash, key: key, val: val}
		return &MapLeaf{entries: entries}, nil
	}

	collision := shift >= HashBits
	if collision || len(m.entries) < MapLeafMax {
		entries := make([]mapEntry, 0, len(m.entries)+1)
		entries = append(entries, m.entries[:idx]...)
		entries = append(entries, mapEntry{keyHash: hash, key: key, val: val})
		entries = append(entries, m.entries[idx:]...)
		return &MapLeaf{entries: entries}, nil
	}

	// Split into a tree distributing the existing entries plus the new one.
	all := append(append([]mapEntry(nil), m.entries...), mapEntry{keyHash: hash, key: key, val: val})
	return buildMapTree(all, shift)
}

func (m *MapLeaf) dissoc(hash Hash, key Cell, shift uint8, res Resolver) (mapNode, error) {
	idx, found := m.findIndex(hash)
	if !found {
		return m, nil
	}
	entries := make([]mapEntry, 0, len(m.entries)-1)
	entries = append(entries, m.entries[:idx]...)
	entries = append(entries, m.entries[idx+1:]...)
	return &MapLeaf{entries: entries}, nil
}

func decodeMapLeaf(asSet bool, data []byte, pos int) (*MapLeaf, int, error) {
	n, pos2, err := readVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	entries := make([]mapEntry, 0, n)
	cur := pos2
	for i := uint64(0); i < n; i++ {
		keyRef, next, err := decodeChildSlot(data, cur)
		if err != nil {
			return nil, 0, err
		}
		cur = next
		valRef, next2, err := decodeChildSlot(data, cur)
		if err != nil {
			return nil, 0, err
		}
		cur = next2
		entries = append(entries, mapEntry{keyHash: keyRef.Hash(), key: keyRef, val: valRef})
	}
	if !sort.SliceIsSorted(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].keyHash[:], entries[j].keyHash[:]) < 0
	}) {
		return nil, 0, cellerr.NewBadFormat(pos, "map leaf entries not in canonical hash order")
	}
	return &MapLeaf{entries: entries, asSet: asSet}, cur, nil
}

// MapTree is the branch physical variant: a 16-way bitmap-indexed trie
// node routing by 4-bit fragments of the key hash starting at shift.
type MapTree struct {
	encCache
	shift    uint8
	bitmap   uint16
	children []*Ref // ascending nibble order; each a mapNode (MapLeaf or MapTree)
	asSet    bool
}

func (t *MapTree) entryCount() int {
	total := 0
	for _, c := range t.children {
		if n, ok := c.PeekCell().(mapNode); ok {
			total += n.entryCount()
		}
	}
	return total
}

func (t *MapTree) Tag() Tag {
	if t.asSet {
		return TagSetTree
	}
	return TagMapTree
}

func (t *MapTree) Encode(buf []byte) []byte {
	buf = append(buf, byte(t.Tag()))
	return t.EncodeRaw(buf)
}
func (t *MapTree) EncodeRaw(buf []byte) []byte {
	buf = appendVLC(buf, uint64(t.bitmap))
	buf = appendVLC(buf, uint64(t.shift))
	for _, child := range t.children {
		buf = encodeChildSlot(buf, child)
	}
	return buf
}
func (t *MapTree) EstimatedEncodingSize() int {
	size := 1 + vlcLen(uint64(t.bitmap)) + vlcLen(uint64(t.shift))
	for _, child := range t.children {
		size += childSlotLen(child)
	}
	return size
}
func (t *MapTree) Hash() Hash {
	return t.hashOf(t.encodingOf(func() []byte { return t.Encode(nil) }))
}
func (t *MapTree) IsEmbedded() bool {
	return isEmbeddedEncoding(t.encodingOf(func() []byte { return t.Encode(nil) }))
}
func (t *MapTree) MemorySize() uint64 { return memorySize(t) }
func (t *MapTree) Children() []*Ref   { return t.children }
func (t *MapTree) WithChildren(children []*Ref) Cell {
	if len(children) != len(t.children) {
		panic("cell: MapTree.WithChildren given wrong child count")
	}
	return &MapTree{shift: t.shift, bitmap: t.bitmap, children: children, asSet: t.asSet}
}
func (t *MapTree) Equal(other Cell) bool { return equalCells(t, other) }

func (t *MapTree) asSetForm(isSet bool) mapNode {
	if t.asSet == isSet {
		return t
	}
	return &MapTree{shift: t.shift, bitmap: t.bitmap, children: t.children, asSet: isSet}
}

func (t *MapTree) collectEntries(out *[]mapEntry, res Resolver) error {
	for _, c := range t.children {
		child, err := c.GetValue(res)
		if err != nil {
			return err
		}
		node, ok := child.(mapNode)
		if !ok {
			return cellerr.NewInvalidData("map tree child is not a map node")
		}
		if err := node.collectEntries(out, res); err != nil {
			return err
		}
	}
	return nil
}

func (t *MapTree) slotIndex(nib int) (int, bool) {
	bit := uint16(1) << uint(nib)
	if t.bitmap&bit == 0 {
		return 0, false
	}
	idx := popcount16(t.bitmap & (bit - 1))
	return idx, true
}

func popcount16(v uint16) int {
	n := 0
	for v != 0 {
		v &= v - 1
		n++
	}
	return n
}

func (t *MapTree) get(hash Hash, key Cell, shift uint8, res Resolver) (*Ref, bool, error) {
	nib := nibbleAt(hash, t.shift)
	idx, ok := t.slotIndex(nib)
	if !ok {
		return nil, false, nil
	}
	child, err := t.children[idx].GetValue(res)
	if err != nil {
		return nil, false, err
	}
	node, ok := child.(mapNode)
	if !ok {
		return nil, false, cellerr.NewInvalidData("map tree child is not a map node")
	}
	return node.get(hash, key, t.shift+4, res)
}

func (t *MapTree) assoc(hash Hash, key, val *Ref, shift uint8, res Resolver) (mapNode, error) {
	nib := nibbleAt(hash, t.shift)
	idx, present := t.slotIndex(nib)
	if !present {
		leaf := &MapLeaf{entries: []mapEntry{{keyHash: hash, key: key, val: val}}}
		insertAt := popcount16(t.bitmap & ((uint16(1) << uint(nib)) - 1))
		children := make([]*Ref, 0, len(t.children)+1)
		children = append(children, t.children[:insertAt]...)
		children = append(children, NewRef(leaf))
		children = append(children, t.children[insertAt:]...)
		return &MapTree{shift: t.shift, bitmap: t.bitmap | (uint16(1) << uint(nib)), children: children}, nil
	}
	child, err := t.children[idx].GetValue(res)
	if err != nil {
		return nil, err
	}
	node, ok := child.(mapNode)
	if !ok {
		return nil, cellerr.NewInvalidData("map tree child is not a map node")
	}
	newChild, err := node.assoc(hash, key, val, t.shift+4, res)
	if err != nil {
		return nil, err
	}
	children := append([]*Ref(nil), t.children...)
	children[idx] = NewRef(newChild)
	return &MapTree{shift: t.shift, bitmap: t.bitmap, children: children}, nil
}

func (t *MapTree) dissoc(hash Hash, key Cell, shift uint8, res Resolver) (mapNode, error) {
	nib := nibbleAt(hash, t.shift)
	idx, present := t.slotIndex(nib)
	if !present {
		return t, nil
	}
	child, err := t.children[idx].GetValue(res)
	if err != nil {
		return nil, err
	}
	node, ok := child.(mapNode)
	if !ok {
		return nil, cellerr.NewInvalidData("map tree child is not a map node")
	}
	newChild, err := node.dissoc(hash, key, t.shift+4, res)
	if err != nil {
		return nil, err
	}

	var children []*Ref
	bitmap := t.bitmap
	if newChild.entryCount() == 0 {
		children = make([]*Ref, 0, len(t.children)-1)
		children = append(children, t.children[:idx]...)
		children = append(children, t.children[idx+1:]...)
		bitmap &^= uint16(1) << uint(nib)
	} else {
		children = append([]*Ref(nil), t.children...)
		children[idx] = NewRef(newChild)
	}

	if len(children) == 0 {
		return &MapLeaf{}, nil
	}

	total := 0
	for _, c := range children {
		cell, err := c.GetValue(res)
		if err != nil {
			return nil, err
		}
		n, ok := cell.(mapNode)
		if !ok {
			return nil, cellerr.NewInvalidData("map tree child is not a map node")
		}
		total += n.entryCount()
	}
	if total <= MapLeafMax {
		var all []mapEntry
		for _, c := range children {
			cell, err := c.GetValue(res)
			if err != nil {
				return nil, err
			}
			if err := cell.(mapNode).collectEntries(&all, res); err != nil {
				return nil, err
			}
		}
		sort.Slice(all, func(i, j int) bool { return bytes.Compare(all[i].keyHash[:], all[j].keyHash[:]) < 0 })
		return &MapLeaf{entries: all}, nil
	}
	if len(children) == 1 {
		cell, err := children[0].GetValue(res)
		if err != nil {
			return nil, err
		}
		return cell.(mapNode), nil
	}
	return &MapTree{shift: t.shift, bitmap: bitmap, children: children}, nil
}

func decodeMapTree(asSet bool, data []byte, pos int) (*MapTree, int, error) {
	bitmap, pos2, err := readVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	shift, pos3, err := readVLC(data, pos2)
	if err != nil {
		return nil, 0, err
	}
	count := popcount16(uint16(bitmap))
	children := make([]*Ref, 0, count)
	cur := pos3
	for i := 0; i < count; i++ {
		ref, next, err := decodeChildSlot(data, cur)
		if err != nil {
			return nil, 0, err
		}
		children = append(children, ref)
		cur = next
	}
	return &MapTree{shift: uint8(shift), bitmap: uint16(bitmap), children: children, asSet: asSet}, cur, nil
}

// buildMapTree distributes entries (which no longer fit one leaf) into a
// freshly built MapTree rooted at shift.
func buildMapTree(entries []mapEntry, shift uint8) (mapNode, error) {
	buckets := make(map[int][]mapEntry)
	for _, e := range entries {
		nib := nibbleAt(e.keyHash, shift)
		buckets[nib] = append(buckets[nib], e)
	}
	var bitmap uint16
	type slot struct {
		nib  int
		node mapNode
	}
	var slots []slot
	for nib, es := range buckets {
		var node mapNode
		if len(es) <= MapLeafMax || shift+4 >= HashBits {
			sorted := append([]mapEntry(nil), es...)
			sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i].keyHash[:], sorted[j].keyHash[:]) < 0 })
			node = &MapLeaf{entries: sorted}
		} else {
			built, err := buildMapTree(es, shift+4)
			if err != nil {
				return nil, err
			}
			node = built
		}
		bitmap |= uint16(1) << uint(nib)
		slots = append(slots, slot{nib: nib, node: node})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].nib < slots[j].nib })
	children := make([]*Ref, len(slots))
	for i, s := range slots {
		children[i] = NewRef(s.node)
	}
	return &MapTree{shift: shift, bitmap: bitmap, children: children}, nil
}

// MapGet looks up key in root, which must be a MapLeaf or MapTree.
func MapGet(root Cell, key Cell, res Resolver) (Cell, bool, error) {
	node, ok := root.(mapNode)
	if !ok {
		return nil, false, cellerr.NewUnsupported("map-get", "root is not a map")
	}
	ref, found, err := node.get(key.Hash(), key, 0, res)
	if err != nil || !found {
		return nil, false, err
	}
	val, err := ref.GetValue(res)
	return val, true, err
}

// MapAssoc returns root with key bound to value.
func MapAssoc(root Cell, key, value Cell, res Resolver) (Cell, error) {
	node, ok := root.(mapNode)
	if !ok {
		return nil, cellerr.NewUnsupported("map-assoc", "root is not a map")
	}
	keyRef := NewRef(key)
	valRef := NewRef(value)
	out, err := node.assoc(key.Hash(), keyRef, valRef, 0, res)
	if err != nil {
		return nil, err
	}
	return out.asSetForm(false), nil
}

// MapDissoc returns root with key removed, collapsing to the canonical
// shape for the remaining entries.
func MapDissoc(root Cell, key Cell, res Resolver) (Cell, error) {
	node, ok := root.(mapNode)
	if !ok {
		return nil, cellerr.NewUnsupported("map-dissoc", "root is not a map")
	}
	out, err := node.dissoc(key.Hash(), key, 0, res)
	if err != nil {
		return nil, err
	}
	return out.asSetForm(false), nil
}

// MapCount returns the number of entries in root.
func MapCount(root Cell) (int, error) {
	node, ok := root.(mapNode)
	if !ok {
		return 0, cellerr.NewUnsupported("map-count", "root is not a map")
	}
	return node.entryCount(), nil
}

// MapMergeWith merges b into a, resolving conflicting keys with combine,
// which returns the merged value and whether the key should be kept.
func MapMergeWith(a, b Cell, combine func(a, b Cell) (Cell, bool), res Resolver) (Cell, error) {
	bNode, ok := b.(mapNode)
	if !ok {
		return nil, cellerr.NewUnsupported("map-merge", "b is not a map")
	}
	var entries []mapEntry
	if err := bNode.collectEntries(&entries, res); err != nil {
		return nil, err
	}
	result := a
	for _, e := range entries {
		key, err := e.key.GetValue(res)
		if err != nil {
			return nil, err
		}
		bVal, err := e.val.GetValue(res)
		if err != nil {
			return nil, err
		}
		existing, found, err := MapGet(result, key, res)
		if err != nil {
			return nil, err
		}
		var newVal Cell
		keep := true
		if found {
			newVal, keep = combine(existing, bVal)
		} else {
			newVal = bVal
		}
		if !keep {
			result, err = MapDissoc(result, key, res)
		} else {
			result, err = MapAssoc(result, key, newVal, res)
		}
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}
