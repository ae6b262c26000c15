package cell

import (
	"bytes"
	"testing"
)

func TestEmptyMapEncoding(t *testing.T) {
	m := NewEmptyMap()
	enc := m.Encode(nil)
	want := []byte{byte(TagMapLeaf), 0x00}
	if !bytes.Equal(enc, want) {
		t.Errorf("empty map encoding: got %x, want %x", enc, want)
	}
}

func TestMapAssocGetRoundTrip(t *testing.T) {
	m := NewEmptyMap()
	var err error
	for i := 0; i < 20; i++ {
		m, err = MapAssoc(m, NewLong(int64(i)), NewString(keyLabel(i)), nil)
		if err != nil {
			t.Fatalf("assoc %d: %v", i, err)
		}
	}
	count, err := MapCount(m)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 20 {
		t.Errorf("map count: got %d, want 20", count)
	}
	for i := 0; i < 20; i++ {
		v, found, err := MapGet(m, NewLong(int64(i)), nil)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if !found {
			t.Fatalf("key %d not found", i)
		}
		if v.(*StringCell).Value() != keyLabel(i) {
			t.Errorf("value for key %d: got %q, want %q", i, v.(*StringCell).Value(), keyLabel(i))
		}
	}
}

func keyLabel(i int) string {
	return string(rune('a' + i%26))
}

func TestMapTreeCollapsesCanonically(t *testing.T) {
	// Build a map with 9 entries, forcing a leaf-to-tree split, then remove
	// two to bring it back to 7 entries and confirm the result matches a
	// fresh 7-entry map built directly (§4.3 canonical collapse).
	build := func(n int) (Cell, error) {
		m := NewEmptyMap()
		var err error
		for i := 0; i < n; i++ {
			m, err = MapAssoc(m, NewLong(int64(i)), NewLong(int64(i*10)), nil)
			if err != nil {
				return nil, err
			}
		}
		return m, nil
	}

	nine, err := build(9)
	if err != nil {
		t.Fatalf("build nine: %v", err)
	}
	if _, ok := nine.(*MapTree); !ok {
		t.Fatalf("expected a 9-entry map to be a MapTree, got %T", nine)
	}

	shrunk, err := MapDissoc(nine, NewLong(7), nil)
	if err != nil {
		t.Fatalf("dissoc 7: %v", err)
	}
	shrunk, err = MapDissoc(shrunk, NewLong(8), nil)
	if err != nil {
		t.Fatalf("dissoc 8: %v", err)
	}

	leaf, ok := shrunk.(*MapLeaf)
	if !ok {
		t.Fatalf("expected collapse to MapLeaf, got %T", shrunk)
	}
	if len(leaf.entries) != 7 {
		t.Errorf("collapsed leaf entry count: got %d, want 7", len(leaf.entries))
	}

	fresh, err := build(7)
	if err != nil {
		t.Fatalf("build fresh seven: %v", err)
	}
	if shrunk.Hash() != fresh.Hash() {
		t.Errorf("collapsed map hash %x does not match fresh 7-entry map hash %x", shrunk.Hash(), fresh.Hash())
	}
}

func TestMapDissocAbsentKeyIsNoOp(t *testing.T) {
	m := NewEmptyMap()
	m, _ = MapAssoc(m, NewLong(1), NewLong(2), nil)
	out, err := MapDissoc(m, NewLong(99), nil)
	if err != nil {
		t.Fatalf("dissoc: %v", err)
	}
	if out.Hash() != m.Hash() {
		t.Error("dissoc of an absent key must be a no-op")
	}
}

func TestMapLeafDecodeRejectsUnsortedEntries(t *testing.T) {
	m := NewEmptyMap()
	m, _ = MapAssoc(m, NewLong(1), NewLong(10), nil)
	m, _ = MapAssoc(m, NewLong(2), NewLong(20), nil)
	leaf := m.(*MapLeaf)
	if len(leaf.entries) < 2 {
		t.Fatal("need at least two entries to test ordering")
	}
	// Swap encoding order to violate canonical ascending-hash order.
	var buf []byte
	buf = append(buf, byte(TagMapLeaf))
	buf = appendVLC(buf, uint64(len(leaf.entries)))
	buf = encodeChildSlot(buf, leaf.entries[1].key)
	buf = encodeChildSlot(buf, leaf.entries[1].val)
	buf = encodeChildSlot(buf, leaf.entries[0].key)
	buf = encodeChildSlot(buf, leaf.entries[0].val)
	if _, err := Decode(buf); err == nil {
		t.Error("expected error decoding a map leaf with out-of-order entries")
	}
}

func TestSetEncodingAndOps(t *testing.T) {
	s := NewEmptySet()
	s, err := SetInclude(s, NewBool(true), nil)
	if err != nil {
		t.Fatalf("SetInclude: %v", err)
	}
	if s.Tag() != TagSetLeaf {
		t.Errorf("set tag: got %v, want TagSetLeaf", s.Tag())
	}
	enc := s.Encode(nil)
	if enc[0] == byte(TagMapLeaf) || enc[0] == byte(TagMapTree) {
		t.Error("a set's encoding must not start with the map tag")
	}
	count0, err := SetCount(s)
	if err != nil || count0 != 1 {
		t.Errorf("SetCount after one include: got %d, %v, want 1", count0, err)
	}
	in, err := SetContains(s, NewBool(true), nil)
	if err != nil || !in {
		t.Errorf("SetContains(true): got %v, %v", in, err)
	}
	in, err = SetContains(s, NewBool(false), nil)
	if err != nil || in {
		t.Errorf("SetContains(false): got %v, %v", in, err)
	}
	s, err = SetExclude(s, NewBool(true), nil)
	if err != nil {
		t.Fatalf("SetExclude: %v", err)
	}
	count, _ := SetCount(s)
	if count != 0 {
		t.Errorf("set count after exclude: got %d, want 0", count)
	}
}

func TestMapAssocNeverProducesSetTag(t *testing.T) {
	s := NewEmptySet()
	s, _ = SetInclude(s, NewLong(1), nil)
	upgraded, err := MapAssoc(s, NewLong(2), NewLong(3), nil)
	if err != nil {
		t.Fatalf("MapAssoc on a set root: %v", err)
	}
	if upgraded.Tag() == TagSetLeaf || upgraded.Tag() == TagSetTree {
		t.Error("MapAssoc must never produce a set-tagged root")
	}
}
