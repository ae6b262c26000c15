package cell

import (
	"encoding/binary"

	"github.com/certen/ledgercore/pkg/cellerr"
)

// Blob is the flat physical variant of the Blob type: tag + VLC(length) +
// raw bytes. Blobs no larger than ChunkSize are always represented this
// way; larger blobs must use BlobTree (§4.4 invariant — never both).
type Blob struct {
	encCache
	data []byte
}

// NewBlob wraps data as a flat Blob. Panics if len(data) > ChunkSize —
// callers building large blobs should go through NewBlobFromBytes, which
// dispatches to BlobTree automatically.
func NewBlob(data []byte) *Blob {
	if len(data) > ChunkSize {
		panic("cell: NewBlob given data larger than ChunkSize; use NewBlobFromBytes")
	}
	cp := append([]byte(nil), data...)
	return &Blob{data: cp}
}

// NewLongBlob builds the 8-byte physical variant of Blob used internally
// to represent a 64-bit value reinterpreted as bytes (e.g. for Address
// backing storage). Its encoding and hash are identical to a flat Blob of
// the same 8 bytes — canonicality requires the two physical forms never
// diverge in wire representation.
func NewLongBlob(v uint64) *Blob {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return NewBlob(tmp[:])
}

func (b *Blob) Bytes() []byte { return b.data }
func (b *Blob) Len() int      { return len(b.data) }
func (b *Blob) Tag() Tag      { return TagBlob }

func (b *Blob) Encode(buf []byte) []byte {
	buf = append(buf, byte(TagBlob))
	return b.EncodeRaw(buf)
}
func (b *Blob) EncodeRaw(buf []byte) []byte {
	buf = appendVLC(buf, uint64(len(b.data)))
	return append(buf, b.data...)
}
func (b *Blob) EstimatedEncodingSize() int {
	return 1 + vlcLen(uint64(len(b.data))) + len(b.data)
}
func (b *Blob) Hash() Hash { return b.hashOf(b.encodingOf(func() []byte { return b.Encode(nil) })) }
func (b *Blob) IsEmbedded() bool {
	return isEmbeddedEncoding(b.encodingOf(func() []byte { return b.Encode(nil) }))
}
func (b *Blob) MemorySize() uint64 { return memorySize(b) }
func (b *Blob) Children() []*Ref   { return nil }
func (b *Blob) WithChildren(children []*Ref) Cell {
	if len(children) != 0 {
		panic("cell: Blob.WithChildren given non-empty children")
	}
	return b
}
func (b *Blob) Equal(other Cell) bool { return equalCells(b, other) }

func decodeBlob(data []byte, pos int) (*Blob, int, error) {
	n, pos2, err := readVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	end := pos2 + int(n)
	if end < pos2 || end > len(data) {
		return nil, 0, cellerr.NewBadFormat(pos, "truncated blob payload")
	}
	if n > ChunkSize {
		return nil, 0, cellerr.NewBadFormat(pos, "flat blob exceeds chunk size; must be a blob tree")
	}
	return NewBlob(data[pos2:end]), end, nil
}

// NewBlobFromBytes builds the canonical Blob value for data, regardless of
// size: a flat Blob if it fits in one chunk, a balanced BlobTree otherwise.
func NewBlobFromBytes(data []byte) Cell {
	if len(data) <= ChunkSize {
		return NewBlob(data)
	}
	return buildBlobTree(data)
}
