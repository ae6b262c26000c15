package cell

import "testing"

func TestRecordRoundTrip(t *testing.T) {
	schema, err := RegisterSchema([]string{"owner", "balance"})
	if err != nil {
		t.Fatalf("RegisterSchema: %v", err)
	}
	rec, err := NewRecord(schema, []Cell{NewAddress(7), NewLong(1000)})
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}

	enc := rec.Encode(nil)
	got, err := Decode(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	decoded, ok := got.(*Record)
	if !ok {
		t.Fatalf("expected *Record, got %T", got)
	}
	if decoded.Hash() != rec.Hash() {
		t.Error("decoded record hash mismatch")
	}

	ownerRef, err := decoded.Get("owner")
	if err != nil {
		t.Fatalf("Get(owner): %v", err)
	}
	owner, err := ownerRef.GetValue(nil)
	if err != nil {
		t.Fatalf("GetValue(owner): %v", err)
	}
	if owner.(*Address).Value() != 7 {
		t.Errorf("owner: got %d, want 7", owner.(*Address).Value())
	}
}

func TestRegisterSchemaIsIdempotentByKeyset(t *testing.T) {
	s1, err := RegisterSchema([]string{"a", "b"})
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	s2, err := RegisterSchema([]string{"a", "b"})
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if s1.Tag != s2.Tag {
		t.Error("registering the same keyset twice should return the same schema/tag")
	}
}

func TestRecordAssocKnownField(t *testing.T) {
	schema, _ := RegisterSchema([]string{"x", "y"})
	rec, _ := NewRecord(schema, []Cell{NewLong(1), NewLong(2)})
	updated, err := rec.Assoc("x", NewLong(99), nil)
	if err != nil {
		t.Fatalf("Assoc: %v", err)
	}
	updatedRec, ok := updated.(*Record)
	if !ok {
		t.Fatalf("expected Assoc on a known field to stay a Record, got %T", updated)
	}
	ref, _ := updatedRec.Get("x")
	val, _ := ref.GetValue(nil)
	if val.(*Long).Value() != 99 {
		t.Errorf("updated field x: got %d, want 99", val.(*Long).Value())
	}
}

func TestRecordAssocUnknownFieldUpgradesToMap(t *testing.T) {
	schema, _ := RegisterSchema([]string{"p", "q"})
	rec, _ := NewRecord(schema, []Cell{NewLong(1), NewLong(2)})
	upgraded, err := rec.Assoc("new-field", NewLong(3), nil)
	if err != nil {
		t.Fatalf("Assoc unknown field: %v", err)
	}
	if upgraded.Tag() == schema.Tag {
		t.Error("Assoc on an unknown field must not keep the record's schema tag")
	}
	count, err := MapCount(upgraded)
	if err != nil {
		t.Fatalf("MapCount on upgraded record: %v", err)
	}
	if count != 3 {
		t.Errorf("upgraded map entry count: got %d, want 3", count)
	}
	v, found, err := MapGet(upgraded, NewKeyword("new-field"), nil)
	if err != nil || !found {
		t.Fatalf("MapGet(new-field): found=%v err=%v", found, err)
	}
	if v.(*Long).Value() != 3 {
		t.Errorf("new-field value: got %d, want 3", v.(*Long).Value())
	}
}

func TestRecordWrongFieldCount(t *testing.T) {
	schema, _ := RegisterSchema([]string{"one-field-schema-unique"})
	if _, err := NewRecord(schema, []Cell{NewLong(1), NewLong(2)}); err == nil {
		t.Error("expected error constructing a record with the wrong field count")
	}
}
