package cell

import (
	"sort"
	"strings"
	"sync"

	"github.com/certen/ledgercore/pkg/cellerr"
)

// Schema describes a fixed-shape record type: an ordered list of field
// names and the tag byte registered for it. Two records are only
// comparable (and only ever produced) under the same schema; Assoc on a
// key outside the schema upgrades the value into a general HashMap rather
// than silently growing the schema (§4.6).
type Schema struct {
	Keys []string
	Tag  Tag
}

var (
	schemaMu       sync.Mutex
	schemaByTag    = map[Tag]*Schema{}
	schemaByKeyset = map[string]*Schema{}
	nextRecordTag  = TagRecordBase
)

func keysetID(keys []string) string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

// RegisterSchema returns the Schema for this exact set of field names,
// registering a new tag the first time it is seen. Field order given here
// is the record's canonical field order; callers must use the same order
// on every call for a given keyset's first registration.
func RegisterSchema(keys []string) (*Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()
	id := keysetID(keys)
	if s, ok := schemaByKeyset[id]; ok {
		return s, nil
	}
	if nextRecordTag > TagRecordMax {
		return nil, cellerr.NewUnsupported("register-schema", "record schema tag space exhausted")
	}
	s := &Schema{Keys: append([]string(nil), keys...), Tag: nextRecordTag}
	nextRecordTag++
	schemaByKeyset[id] = s
	schemaByTag[s.Tag] = s
	return s, nil
}

func schemaForTag(tag Tag) (*Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()
	s, ok := schemaByTag[tag]
	if !ok {
		return nil, cellerr.NewBadFormat(0, "unregistered record schema tag")
	}
	return s, nil
}

func (s *Schema) indexOf(key string) int {
	for i, k := range s.Keys {
		if k == key {
			return i
		}
	}
	return -1
}

// Record is a fixed-schema tuple of named fields (§4.6): same physical
// shape as a plain array of child refs, but its tag identifies the schema
// and therefore the field names and order.
type Record struct {
	encCache
	schema *Schema
	fields []*Ref
}

// NewRecord builds a Record for schema with fields given in schema.Keys
// order. len(values) must equal len(schema.Keys).
func NewRecord(schema *Schema, values []Cell) (*Record, error) {
	if len(values) != len(schema.Keys) {
		return nil, cellerr.NewInvalidData("record value count does not match schema field count")
	}
	fields := make([]*Ref, len(values))
	for i, v := range values {
		fields[i] = NewRef(v)
	}
	return &Record{schema: schema, fields: fields}, nil
}

func (r *Record) Schema() *Schema { return r.schema }
func (r *Record) Tag() Tag        { return r.schema.Tag }

// Get returns the ref for key, or an error if key is not in this record's
// schema.
func (r *Record) Get(key string) (*Ref, error) {
	i := r.schema.indexOf(key)
	if i < 0 {
		return nil, cellerr.NewUnsupported("record-get", "key not in schema: "+key)
	}
	return r.fields[i], nil
}

// Assoc returns a new Record with key's field replaced if key is in this
// record's schema. If key is outside the schema, the record is upgraded
// into a general HashMap (keyed by Keyword(name)) containing its existing
// fields plus the new one — records never grow a schema in place.
func (r *Record) Assoc(key string, value Cell, res Resolver) (Cell, error) {
	i := r.schema.indexOf(key)
	if i >= 0 {
		newFields := append([]*Ref(nil), r.fields...)
		newFields[i] = NewRef(value)
		return &Record{schema: r.schema, fields: newFields}, nil
	}
	asMap, err := r.ToMap(res)
	if err != nil {
		return nil, err
	}
	return MapAssoc(asMap, NewKeyword(key), value, res)
}

// ToMap converts r into an equivalent general HashMap keyed by
// Keyword(fieldName).
func (r *Record) ToMap(res Resolver) (Cell, error) {
	m := NewEmptyMap()
	var err error
	for i, key := range r.schema.Keys {
		val, e := r.fields[i].GetValue(res)
		if e != nil {
			return nil, e
		}
		m, err = MapAssoc(m, NewKeyword(key), val, res)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (r *Record) Encode(buf []byte) []byte {
	buf = append(buf, byte(r.schema.Tag))
	return r.EncodeRaw(buf)
}
func (r *Record) EncodeRaw(buf []byte) []byte {
	for _, f := range r.fields {
		buf = encodeChildSlot(buf, f)
	}
	return buf
}
func (r *Record) EstimatedEncodingSize() int {
	size := 1
	for _, f := range r.fields {
		size += childSlotLen(f)
	}
	return size
}
func (r *Record) Hash() Hash {
	return r.hashOf(r.encodingOf(func() []byte { return r.Encode(nil) }))
}
func (r *Record) IsEmbedded() bool {
	return isEmbeddedEncoding(r.encodingOf(func() []byte { return r.Encode(nil) }))
}
func (r *Record) MemorySize() uint64 { return memorySize(r) }
func (r *Record) Children() []*Ref   { return r.fields }
func (r *Record) WithChildren(children []*Ref) Cell {
	if len(children) != len(r.fields) {
		panic("cell: Record.WithChildren given wrong child count")
	}
	return &Record{schema: r.schema, fields: children}
}
func (r *Record) Equal(other Cell) bool { return equalCells(r, other) }

func decodeRecord(tag Tag, data []byte, pos int) (*Record, int, error) {
	schema, err := schemaForTag(tag)
	if err != nil {
		return nil, 0, err
	}
	fields := make([]*Ref, len(schema.Keys))
	cur := pos
	for i := range schema.Keys {
		ref, next, err := decodeChildSlot(data, cur)
		if err != nil {
			return nil, 0, err
		}
		fields[i] = ref
		cur = next
	}
	return &Record{schema: schema, fields: fields}, cur, nil
}
