package cell

import "testing"

func TestRefEmbeddedVsHashRef(t *testing.T) {
	small := NewLong(5)
	ref := NewRef(small)
	if ref.Status() != StatusEmbedded {
		t.Errorf("a Long ref should start EMBEDDED, got %v", ref.Status())
	}

	large := NewBlobFromBytes(make([]byte, 1000))
	largeRef := NewRef(large)
	if largeRef.Status() != StatusUnknown {
		t.Errorf("a non-embeddable ref should start UNKNOWN until stored, got %v", largeRef.Status())
	}
}

func TestRefGetValueViaResolver(t *testing.T) {
	res := newMemResolver()
	target := NewString("resolved via store")
	hashRef := res.put(target)

	dehydrated := NewDehydratedRef(hashRef.Hash(), StatusStored)
	got, err := dehydrated.GetValue(res)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if got.(*StringCell).Value() != "resolved via store" {
		t.Errorf("resolved value mismatch: got %v", got)
	}
	if dehydrated.Status() < StatusStored {
		t.Errorf("status should be raised to at least STORED after resolution, got %v", dehydrated.Status())
	}
}

func TestRefGetValueMissingData(t *testing.T) {
	var h Hash
	h[0] = 0xAB
	ref := NewDehydratedRef(h, StatusStored)
	if _, err := ref.GetValue(nil); err == nil {
		t.Error("expected MissingData error resolving a dehydrated ref with a nil resolver")
	}
}

func TestStatusMonotone(t *testing.T) {
	ref := NewDehydratedRef(Hash{}, StatusStored)
	ref.RaiseStatus(StatusPersisted)
	if ref.Status() != StatusPersisted {
		t.Fatalf("expected PERSISTED after raise, got %v", ref.Status())
	}
	ref.RaiseStatus(StatusStored)
	if ref.Status() != StatusPersisted {
		t.Error("RaiseStatus to a lower status must be a no-op")
	}
}
