package cell

import "testing"

func buildVector(t *testing.T, n int) *Vector {
	t.Helper()
	v := NewEmptyVector()
	for i := 0; i < n; i++ {
		next, err := v.Append(NewLong(int64(i)))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		v = next
	}
	return v
}

func TestVectorAppendAndGet(t *testing.T) {
	for _, n := range []int{0, 1, 15, 16, 17, 200, 256, 257, 4096} {
		v := buildVector(t, n)
		if v.Len() != n {
			t.Fatalf("n=%d: Len() = %d", n, v.Len())
		}
		for i := 0; i < n; i++ {
			ref, err := v.Get(i, nil)
			if err != nil {
				t.Fatalf("n=%d: Get(%d): %v", n, i, err)
			}
			c, err := ref.GetValue(nil)
			if err != nil {
				t.Fatalf("n=%d: GetValue(%d): %v", n, i, err)
			}
			if c.(*Long).Value() != int64(i) {
				t.Fatalf("n=%d: element %d = %d, want %d", n, i, c.(*Long).Value(), i)
			}
		}
	}
}

func TestVectorGetOutOfBounds(t *testing.T) {
	v := buildVector(t, 5)
	if _, err := v.Get(5, nil); err == nil {
		t.Error("expected IndexOutOfBounds for Get(5) on a 5-element vector")
	}
	if _, err := v.Get(-1, nil); err == nil {
		t.Error("expected IndexOutOfBounds for Get(-1)")
	}
}

func TestVectorUpdate(t *testing.T) {
	v := buildVector(t, 300)
	updated, err := v.Update(150, NewString("replaced"), nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	ref, err := updated.Get(150, nil)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	c, _ := ref.GetValue(nil)
	if c.(*StringCell).Value() != "replaced" {
		t.Errorf("updated element: got %v", c)
	}

	// Original vector must be untouched (structural sharing, not mutation).
	origRef, _ := v.Get(150, nil)
	origCell, _ := origRef.GetValue(nil)
	if origCell.(*Long).Value() != 150 {
		t.Errorf("original vector was mutated by Update")
	}
}

func TestVectorRoundTripEncoding(t *testing.T) {
	v := buildVector(t, 50)
	// The 48 tree elements sit in three 16-Long leaf nodes whose encodings
	// exceed EmbedThreshold, so the decoded vector refers to them by hash;
	// register them in a resolver so the decoded vector can load them.
	res := newMemResolver()
	for _, leaf := range v.treeChildren {
		res.put(leaf.PeekCell())
	}
	enc := v.Encode(nil)
	got, err := Decode(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	decoded := got.(*Vector)
	if decoded.Len() != 50 {
		t.Fatalf("decoded length: got %d, want 50", decoded.Len())
	}
	if decoded.Hash() != v.Hash() {
		t.Error("decoded vector hash mismatch")
	}
	for i := 0; i < 50; i++ {
		ref, err := decoded.Get(i, res)
		if err != nil {
			t.Fatalf("Get(%d) on decoded vector: %v", i, err)
		}
		c, err := ref.GetValue(res)
		if err != nil {
			t.Fatalf("GetValue(%d) on decoded vector: %v", i, err)
		}
		if c.(*Long).Value() != int64(i) {
			t.Errorf("decoded element %d = %d", i, c.(*Long).Value())
		}
	}
}

func TestEmptyVectorEncoding(t *testing.T) {
	v := NewEmptyVector()
	enc := v.Encode(nil)
	// tag + count(0) + tailLen(0) + tree child count(0)
	want := []byte{byte(TagVector), 0x00, 0x00, 0x00}
	if string(enc) != string(want) {
		t.Errorf("empty vector encoding: got %x, want %x", enc, want)
	}
}
