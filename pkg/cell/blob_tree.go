package cell

import "github.com/certen/ledgercore/pkg/cellerr"

// blobTreeBranching is the fan-out of a chunked blob's internal nodes.
// The spec does not mandate a specific branching factor for blobs; 16 is
// chosen for consistency with the HashMap and Vector fan-out.
const blobTreeBranching = 16

// BlobTree is the chunked physical variant of Blob: a balanced tree of
// ChunkSize-byte leaf chunks, used whenever content exceeds one chunk.
// Every subtree's length is an exact multiple of ChunkSize except
// possibly the rightmost, which may be short.
type BlobTree struct {
	encCache
	count    int
	children []*Ref // each resolves to a *Blob (leaf chunk) or *BlobTree (branch)
}

func (t *BlobTree) Len() int { return t.count }
func (t *BlobTree) Tag() Tag { return TagBlobTree }

func (t *BlobTree) Encode(buf []byte) []byte {
	buf = append(buf, byte(TagBlobTree))
	return t.EncodeRaw(buf)
}
func (t *BlobTree) EncodeRaw(buf []byte) []byte {
	buf = appendVLC(buf, uint64(t.count))
	buf = appendVLC(buf, uint64(len(t.children)))
	for _, child := range t.children {
		buf = encodeChildSlot(buf, child)
	}
	return buf
}
func (t *BlobTree) EstimatedEncodingSize() int {
	size := 1 + vlcLen(uint64(t.count)) + vlcLen(uint64(len(t.children)))
	for _, child := range t.children {
		size += childSlotLen(child)
	}
	return size
}
func (t *BlobTree) Hash() Hash { return t.hashOf(t.encodingOf(func() []byte { return t.Encode(nil) })) }
func (t *BlobTree) IsEmbedded() bool {
	return isEmbeddedEncoding(t.encodingOf(func() []byte { return t.Encode(nil) }))
}
func (t *BlobTree) MemorySize() uint64 { return memorySize(t) }
func (t *BlobTree) Children() []*Ref   { return t.children }
func (t *BlobTree) WithChildren(children []*Ref) Cell {
	if len(children) != len(t.children) {
		panic("cell: BlobTree.WithChildren given wrong child count")
	}
	return &BlobTree{count: t.count, children: children}
}
func (t *BlobTree) Equal(other Cell) bool { return equalCells(t, other) }

func decodeBlobTree(data []byte, pos int) (*BlobTree, int, error) {
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
	if count <= ChunkSize {
		return nil, 0, cellerr.NewBadFormat(pos, "blob tree used for content that fits a flat blob")
	}
	return &BlobTree{count: int(count), children: children}, cur, nil
}

// splitChunks partitions data into ChunkSize-byte pieces, the last
// possibly short.
func splitChunks(data []byte) [][]byte {
	var chunks [][]byte
	for off := 0; off < len(data); off += ChunkSize {
		end := off + ChunkSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[off:end])
	}
	return chunks
}

// buildBlobTree builds the canonical balanced chunk tree for data, which
// must be longer than one chunk.
func buildBlobTree(data []byte) *BlobTree {
	chunks := splitChunks(data)
	level := make([]nodeWithLen, len(chunks))
	for i, c := range chunks {
		level[i] = nodeWithLen{cell: NewBlob(c), length: len(c)}
	}
	for len(level) > 1 {
		level = groupBlobLevel(level)
	}
	root := level[0].cell.(*BlobTree)
	return root
}

type nodeWithLen struct {
	cell   Cell
	length int
}

// groupBlobLevel groups up to blobTreeBranching siblings at a time into
// parent BlobTree nodes, left to right, leaving at most one group short.
func groupBlobLevel(level []nodeWithLen) []nodeWithLen {
	var next []nodeWithLen
	for i := 0; i < len(level); i += blobTreeBranching {
		end := i + blobTreeBranching
		if end > len(level) {
			end = len(level)
		}
		group := level[i:end]
		children := make([]*Ref, len(group))
		total := 0
		for j, n := range group {
			children[j] = NewRef(n.cell)
			total += n.length
		}
		next = append(next, nodeWithLen{cell: &BlobTree{count: total, children: children}, length: total})
	}
	return next
}

// ReadRange returns the bytes in [start, end) of t, resolving chunks
// through res as needed.
func (t *BlobTree) ReadRange(start, end int, res Resolver) ([]byte, error) {
	if start < 0 || end > t.count || start > end {
		return nil, cellerr.NewIndexOutOfBounds(start, t.count)
	}
	out := make([]byte, 0, end-start)
	var err error
	out, err = readBlobRange(t, start, end, res, out)
	return out, err
}

func readBlobRange(c Cell, start, end int, res Resolver, out []byte) ([]byte, error) {
	if start >= end {
		return out, nil
	}
	switch v := c.(type) {
	case *Blob:
		return append(out, v.data[start:end]...), nil
	case *BlobTree:
		offset := 0
		for _, child := range v.children {
			childCell, err := child.GetValue(res)
			if err != nil {
				return nil, err
			}
			childLen := blobCellLen(childCell)
			childStart := offset
			childEnd := offset + childLen
			offset = childEnd
			if childEnd <= start || childStart >= end {
				continue
			}
			lo := maxInt(start, childStart) - childStart
			hi := minInt(end, childEnd) - childStart
			var err2 error
			out, err2 = readBlobRange(childCell, lo, hi, res, out)
			if err2 != nil {
				return nil, err2
			}
		}
		return out, nil
	default:
		return nil, cellerr.NewInvalidData("blob tree child is neither Blob nor BlobTree")
	}
}

func blobCellLen(c Cell) int {
	switch v := c.(type) {
	case *Blob:
		return v.Len()
	case *BlobTree:
		return v.Len()
	default:
		return 0
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Slice returns the canonical Blob/BlobTree value for content[start:end).
// The result is always rebuilt from scratch so it takes exactly the shape
// a fresh construction of that sub-range would take (§4.4 canonicality).
func Slice(c Cell, start, end int, res Resolver) (Cell, error) {
	total := blobCellLen(c)
	if start < 0 || end > total || start > end {
		return nil, cellerr.NewIndexOutOfBounds(start, total)
	}
	if blob, ok := c.(*Blob); ok {
		return NewBlobFromBytes(blob.data[start:end]), nil
	}
	tree, ok := c.(*BlobTree)
	if !ok {
		return nil, cellerr.NewUnsupported("slice", "not a blob")
	}
	data, err := tree.ReadRange(start, end, res)
	if err != nil {
		return nil, err
	}
	return NewBlobFromBytes(data), nil
}

// Append returns the canonical value for the concatenation of c's content
// with more, resolving any dehydrated chunks through res.
func Append(c Cell, more []byte, res Resolver) (Cell, error) {
	total := blobCellLen(c)
	data, err := readAllBlob(c, total, res)
	if err != nil {
		return nil, err
	}
	combined := append(data, more...)
	return NewBlobFromBytes(combined), nil
}

// ReplaceSlice returns the canonical value for c with [start,end) replaced
// by replacement.
func ReplaceSlice(c Cell, start, end int, replacement []byte, res Resolver) (Cell, error) {
	total := blobCellLen(c)
	if start < 0 || end > total || start > end {
		return nil, cellerr.NewIndexOutOfBounds(start, total)
	}
	data, err := readAllBlob(c, total, res)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(data)-(end-start)+len(replacement))
	out = append(out, data[:start]...)
	out = append(out, replacement...)
	out = append(out, data[end:]...)
	return NewBlobFromBytes(out), nil
}

func readAllBlob(c Cell, total int, res Resolver) ([]byte, error) {
	if blob, ok := c.(*Blob); ok {
		return append([]byte(nil), blob.data...), nil
	}
	tree, ok := c.(*BlobTree)
	if !ok {
		return nil, cellerr.NewUnsupported("blob-read", "not a blob")
	}
	return tree.ReadRange(0, total, res)
}
