package cell

import "github.com/certen/ledgercore/pkg/cellerr"

// Vector is the radix-balanced sequence type: a tree of VectorBranching-way
// chunks holding every element except the most recent (up to
// VectorBranching), which sit in an editable tail for amortized append
// (§3). Every non-rightmost subtree at a given tree depth is completely
// full; only the rightmost may be short.
type Vector struct {
	encCache
	count        int
	tailLen      int
	tail         []*Ref
	treeCount    int
	treeChildren []*Ref // each resolves to a *VectorNode
}

// NewEmptyVector returns the canonical empty Vector value.
func NewEmptyVector() *Vector { return &Vector{} }

// NewVector builds a vector holding elements, in order, via repeated
// Append. Not the most efficient possible bulk constructor, but always
// correct and deterministic.
func NewVector(elements []Cell) (*Vector, error) {
	v := NewEmptyVector()
	for _, e := range elements {
		next, err := v.Append(e)
		if err != nil {
			return nil, err
		}
		v = next
	}
	return v, nil
}

func (v *Vector) Len() int { return v.count }
func (v *Vector) Tag() Tag { return TagVector }

func (v *Vector) Encode(buf []byte) []byte {
	buf = append(buf, byte(TagVector))
	return v.EncodeRaw(buf)
}
func (v *Vector) EncodeRaw(buf []byte) []byte {
	buf = appendVLC(buf, uint64(v.count))
	buf = appendVLC(buf, uint64(v.tailLen))
	for _, t := range v.tail {
		buf = encodeChildSlot(buf, t)
	}
	buf = appendVLC(buf, uint64(len(v.treeChildren)))
	for _, c := range v.treeChildren {
		buf = encodeChildSlot(buf, c)
	}
	return buf
}
func (v *Vector) EstimatedEncodingSize() int {
	size := 1 + vlcLen(uint64(v.count)) + vlcLen(uint64(v.tailLen))
	for _, t := range v.tail {
		size += childSlotLen(t)
	}
	size += vlcLen(uint64(len(v.treeChildren)))
	for _, c := range v.treeChildren {
		size += childSlotLen(c)
	}
	return size
}
func (v *Vector) Hash() Hash {
	return v.hashOf(v.encodingOf(func() []byte { return v.Encode(nil) }))
}
func (v *Vector) IsEmbedded() bool {
	return isEmbeddedEncoding(v.encodingOf(func() []byte { return v.Encode(nil) }))
}
func (v *Vector) MemorySize() uint64 { return memorySize(v) }
func (v *Vector) Children() []*Ref {
	out := make([]*Ref, 0, len(v.tail)+len(v.treeChildren))
	out = append(out, v.tail...)
	out = append(out, v.treeChildren...)
	return out
}
func (v *Vector) WithChildren(children []*Ref) Cell {
	if len(children) != len(v.tail)+len(v.treeChildren) {
		panic("cell: Vector.WithChildren given wrong child count")
	}
	tail := append([]*Ref(nil), children[:len(v.tail)]...)
	tree := append([]*Ref(nil), children[len(v.tail):]...)
	return &Vector{count: v.count, tailLen: v.tailLen, tail: tail, treeCount: v.treeCount, treeChildren: tree}
}
func (v *Vector) Equal(other Cell) bool { return equalCells(v, other) }

func decodeVector(data []byte, pos int) (*Vector, int, error) {
	count, pos2, err := readVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	tailLen, pos3, err := readVLC(data, pos2)
	if err != nil {
		return nil, 0, err
	}
	tail := make([]*Ref, 0, tailLen)
	cur := pos3
	for i := uint64(0); i < tailLen; i++ {
		ref, next, err := decodeChildSlot(data, cur)
		if err != nil {
			return nil, 0, err
		}
		tail = append(tail, ref)
		cur = next
	}
	childCount, pos4, err := readVLC(data, cur)
	if err != nil {
		return nil, 0, err
	}
	cur = pos4
	children := make([]*Ref, 0, childCount)
	for i := uint64(0); i < childCount; i++ {
		ref, next, err := decodeChildSlot(data, cur)
		if err != nil {
			return nil, 0, err
		}
		children = append(children, ref)
		cur = next
	}
	treeCount := int(count) - int(tailLen)
	if treeCount < 0 {
		return nil, 0, cellerr.NewBadFormat(pos, "vector tail length exceeds count")
	}
	return &Vector{count: int(count), tailLen: int(tailLen), tail: tail, treeCount: treeCount, treeChildren: children}, cur, nil
}

// VectorNode is an internal branch of a Vector's tree: count (elements in
// this subtree) plus up to VectorBranching children, each either raw
// elements (if this node's own derived shift is 0) or further VectorNode
// subtrees.
type VectorNode struct {
	encCache
	count    int
	children []*Ref
}

func (n *VectorNode) Tag() Tag { return TagVectorNode }
func (n *VectorNode) Encode(buf []byte) []byte {
	buf = append(buf, byte(TagVectorNode))
	return n.EncodeRaw(buf)
}
func (n *VectorNode) EncodeRaw(buf []byte) []byte {
	buf = appendVLC(buf, uint64(n.count))
	buf = appendVLC(buf, uint64(len(n.children)))
	for _, c := range n.children {
		buf = encodeChildSlot(buf, c)
	}
	return buf
}
func (n *VectorNode) EstimatedEncodingSize() int {
	size := 1 + vlcLen(uint64(n.count)) + vlcLen(uint64(len(n.children)))
	for _, c := range n.children {
		size += childSlotLen(c)
	}
	return size
}
func (n *VectorNode) Hash() Hash {
	return n.hashOf(n.encodingOf(func() []byte { return n.Encode(nil) }))
}
func (n *VectorNode) IsEmbedded() bool {
	return isEmbeddedEncoding(n.encodingOf(func() []byte { return n.Encode(nil) }))
}
func (n *VectorNode) MemorySize() uint64 { return memorySize(n) }
func (n *VectorNode) Children() []*Ref   { return n.children }
func (n *VectorNode) WithChildren(children []*Ref) Cell {
	if len(children) != len(n.children) {
		panic("cell: VectorNode.WithChildren given wrong child count")
	}
	return &VectorNode{count: n.count, children: children}
}
func (n *VectorNode) Equal(other Cell) bool { return equalCells(n, other) }

func decodeVectorNode(data []byte, pos int) (*VectorNode, int, error) {
	count, pos2, err := readVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	childCount, pos3, err := readVLC(data, pos2)
	if err != nil {
		return nil, 0, err
	}
	children := make([]*Ref, 0, childCount)
	cur := pos3
	for i := uint64(0); i < childCount; i++ {
		ref, next, err := decodeChildSlot(data, cur)
		if err != nil {
			return nil, 0, err
		}
		children = append(children, ref)
		cur = next
	}
	return &VectorNode{count: int(count), children: children}, cur, nil
}

// capacityAt returns the number of elements a subtree whose children live
// at the given shift can fully hold. shift 0 means "a leaf node directly
// holding up to VectorBranching raw elements"; shift 4 means its children
// are such leaves, and so on.
func capacityAt(shift uint8) int {
	c := VectorBranching
	for i := uint8(0); i < shift/4; i++ {
		c *= VectorBranching
	}
	return c
}

// treeShiftFor returns the shift describing the children of a tree root
// holding n elements, or 0 for an empty tree.
func treeShiftFor(n int) uint8 {
	if n == 0 {
		return 0
	}
	shift := uint8(4)
	for capacityAt(shift) < n {
		shift += 4
	}
	return shift
}

func vectorNodeOf(ref *Ref, res Resolver) (*VectorNode, error) {
	c, err := ref.GetValue(res)
	if err != nil {
		return nil, err
	}
	n, ok := c.(*VectorNode)
	if !ok {
		return nil, cellerr.NewInvalidData("vector tree child is not a VectorNode")
	}
	return n, nil
}

// Get returns the element ref at index.
func (v *Vector) Get(index int, res Resolver) (*Ref, error) {
	if index < 0 || index >= v.count {
		return nil, cellerr.NewIndexOutOfBounds(index, v.count)
	}
	if index >= v.treeCount {
		return v.tail[index-v.treeCount], nil
	}
	shift := treeShiftFor(v.treeCount)
	return descendGet(v.treeChildren, shift, index, res)
}

func descendGet(children []*Ref, shift uint8, index int, res Resolver) (*Ref, error) {
	cap := capacityAt(shift - 4)
	idx := index / cap
	rem := index % cap
	if shift == 4 {
		leaf, err := vectorNodeOf(children[idx], res)
		if err != nil {
			return nil, err
		}
		return leaf.children[rem], nil
	}
	child, err := vectorNodeOf(children[idx], res)
	if err != nil {
		return nil, err
	}
	return descendGet(child.children, shift-4, rem, res)
}

// Update returns v with index replaced by newVal.
func (v *Vector) Update(index int, newVal Cell, res Resolver) (*Vector, error) {
	if index < 0 || index >= v.count {
		return nil, cellerr.NewIndexOutOfBounds(index, v.count)
	}
	newRef := NewRef(newVal)
	if index >= v.treeCount {
		tail := append([]*Ref(nil), v.tail...)
		tail[index-v.treeCount] = newRef
		return &Vector{count: v.count, tailLen: v.tailLen, tail: tail, treeCount: v.treeCount, treeChildren: v.treeChildren}, nil
	}
	shift := treeShiftFor(v.treeCount)
	newChildren, err := updateAt(v.treeChildren, shift, index, newRef, res)
	if err != nil {
		return nil, err
	}
	return &Vector{count: v.count, tailLen: v.tailLen, tail: v.tail, treeCount: v.treeCount, treeChildren: newChildren}, nil
}

func updateAt(children []*Ref, shift uint8, index int, newRef *Ref, res Resolver) ([]*Ref, error) {
	cap := capacityAt(shift - 4)
	idx := index / cap
	rem := index % cap
	out := append([]*Ref(nil), children...)
	if shift == 4 {
		leaf, err := vectorNodeOf(children[idx], res)
		if err != nil {
			return nil, err
		}
		newLeafChildren := append([]*Ref(nil), leaf.children...)
		newLeafChildren[rem] = newRef
		out[idx] = NewRef(&VectorNode{count: leaf.count, children: newLeafChildren})
		return out, nil
	}
	child, err := vectorNodeOf(children[idx], res)
	if err != nil {
		return nil, err
	}
	newChildChildren, err := updateAt(child.children, shift-4, rem, newRef, res)
	if err != nil {
		return nil, err
	}
	out[idx] = NewRef(&VectorNode{count: child.count, children: newChildChildren})
	return out, nil
}

// Append returns v with elem added at the end.
func (v *Vector) Append(elem Cell) (*Vector, error) {
	elemRef := NewRef(elem)
	if v.tailLen < VectorBranching {
		tail := append(append([]*Ref(nil), v.tail...), elemRef)
		return &Vector{count: v.count + 1, tailLen: v.tailLen + 1, tail: tail, treeCount: v.treeCount, treeChildren: v.treeChildren}, nil
	}

	leaf := &VectorNode{count: v.tailLen, children: append([]*Ref(nil), v.tail...)}
	oldTreeCount := v.treeCount
	newTreeCount := oldTreeCount + v.tailLen
	oldShift := treeShiftFor(oldTreeCount)
	newShift := treeShiftFor(newTreeCount)

	var newChildren []*Ref
	switch {
	case oldTreeCount == 0:
		newChildren = []*Ref{NewRef(leaf)}
	case newShift > oldShift:
		wrapped := &VectorNode{count: oldTreeCount, children: v.treeChildren}
		path := buildVectorPath(newShift-4, leaf)
		newChildren = []*Ref{NewRef(wrapped), path}
	default:
		nc, err := pushVectorLeaf(oldShift, v.treeChildren, oldTreeCount, leaf)
		if err != nil {
			return nil, err
		}
		newChildren = nc
	}

	return &Vector{
		count:        v.count + 1,
		tailLen:      1,
		tail:         []*Ref{elemRef},
		treeCount:    newTreeCount,
		treeChildren: newChildren,
	}, nil
}

func buildVectorPath(shift uint8, leaf *VectorNode) *Ref {
	if shift == 0 {
		return NewRef(leaf)
	}
	return NewRef(&VectorNode{count: leaf.count, children: []*Ref{buildVectorPath(shift-4, leaf)}})
}

// pushVectorLeaf inserts leaf as the new rightmost leaf of a subtree whose
// children live at shift (always >= 4 — leaves only ever live directly
// under a shift-4 node).
func pushVectorLeaf(shift uint8, children []*Ref, count int, leaf *VectorNode) ([]*Ref, error) {
	if shift == 4 {
		if len(children) >= VectorBranching {
			return nil, cellerr.NewInvalidData("vector tree shift-4 level is full")
		}
		return append(append([]*Ref(nil), children...), NewRef(leaf)), nil
	}
	childCap := capacityAt(shift - 4)
	lastIdx := len(children) - 1
	countBeforeLast := lastIdx * childCap
	countInLast := count - countBeforeLast
	if countInLast < childCap {
		lastNode, err := vectorNodeOf(children[lastIdx], nil)
		if err != nil {
			return nil, err
		}
		nc, err := pushVectorLeaf(shift-4, lastNode.children, countInLast, leaf)
		if err != nil {
			return nil, err
		}
		newLast := &VectorNode{count: countInLast + leaf.count, children: nc}
		out := append(append([]*Ref(nil), children[:lastIdx]...), NewRef(newLast))
		return out, nil
	}
	if len(children) >= VectorBranching {
		return nil, cellerr.NewInvalidData("vector tree level is full")
	}
	return append(append([]*Ref(nil), children...), buildVectorPath(shift-4, leaf)), nil
}
