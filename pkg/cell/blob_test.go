package cell

import (
	"bytes"
	"testing"
)

type memResolver struct {
	byHash map[Hash][]byte
}

func newMemResolver() *memResolver { return &memResolver{byHash: map[Hash][]byte{}} }

func (r *memResolver) Resolve(h Hash) ([]byte, bool, error) {
	enc, ok := r.byHash[h]
	return enc, ok, nil
}

// put registers a cell's canonical encoding under its own hash, simulating
// dehydration to a store and back.
func (r *memResolver) put(c Cell) *Ref {
	enc := c.Encode(nil)
	h := HashBytes(enc)
	r.byHash[h] = enc
	return NewDehydratedRef(h, StatusStored)
}

func TestFlatBlobRoundTrip(t *testing.T) {
	data := []byte("hello, content-addressed world")
	c := NewBlobFromBytes(data)
	blob, ok := c.(*Blob)
	if !ok {
		t.Fatalf("expected flat Blob, got %T", c)
	}
	got, err := Decode(blob.Encode(nil))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got.(*Blob).Bytes(), data) {
		t.Errorf("round trip mismatch")
	}
}

func TestLargeBlobBuildsChunkTree(t *testing.T) {
	data := make([]byte, 8193)
	for i := range data {
		data[i] = byte(i)
	}
	c := NewBlobFromBytes(data)
	tree, ok := c.(*BlobTree)
	if !ok {
		t.Fatalf("expected BlobTree for %d bytes, got %T", len(data), c)
	}
	if tree.Len() != len(data) {
		t.Errorf("tree length: got %d, want %d", tree.Len(), len(data))
	}
	if len(tree.children) != 3 {
		t.Errorf("expected 3 leaf chunks for 8193 bytes (4096+4096+1), got %d", len(tree.children))
	}

	res := newMemResolver()
	out, err := tree.ReadRange(0, len(data), res)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Errorf("ReadRange full range mismatch")
	}
}

func TestBlobSliceAcrossChunkBoundary(t *testing.T) {
	data := make([]byte, 8193)
	for i := range data {
		data[i] = byte(i)
	}
	c := NewBlobFromBytes(data)
	sliced, err := Slice(c, 4095, 4098, nil)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	blob, ok := sliced.(*Blob)
	if !ok {
		t.Fatalf("expected flat Blob result, got %T", sliced)
	}
	if !bytes.Equal(blob.Bytes(), data[4095:4098]) {
		t.Errorf("slice content mismatch: got %x, want %x", blob.Bytes(), data[4095:4098])
	}
}

func TestBlobAppendAndReplaceSlice(t *testing.T) {
	c := NewBlobFromBytes([]byte("abcdef"))
	appended, err := Append(c, []byte("ghi"), nil)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !bytes.Equal(appended.(*Blob).Bytes(), []byte("abcdefghi")) {
		t.Errorf("append result: got %q", appended.(*Blob).Bytes())
	}

	replaced, err := ReplaceSlice(appended, 2, 4, []byte("XY"), nil)
	if err != nil {
		t.Fatalf("ReplaceSlice: %v", err)
	}
	if !bytes.Equal(replaced.(*Blob).Bytes(), []byte("abXYefghi")) {
		t.Errorf("replace result: got %q", replaced.(*Blob).Bytes())
	}
}

func TestDecodeRejectsOversizedFlatBlob(t *testing.T) {
	var buf []byte
	buf = append(buf, byte(TagBlob))
	buf = appendVLC(buf, uint64(ChunkSize+1))
	buf = append(buf, make([]byte, ChunkSize+1)...)
	if _, err := Decode(buf); err == nil {
		t.Error("expected error decoding a flat blob tag with payload exceeding ChunkSize")
	}
}

func TestDecodeRejectsTreeForSmallContent(t *testing.T) {
	small := NewBlob([]byte("x"))
	tree := &BlobTree{count: 1, children: []*Ref{NewRef(small)}}
	if _, err := Decode(tree.Encode(nil)); err == nil {
		t.Error("expected error decoding a BlobTree whose count fits a flat blob")
	}
}
