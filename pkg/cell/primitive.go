package cell

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/certen/ledgercore/pkg/cellerr"
)

// Bool is the canonical boolean cell: tag-only, no payload.
type Bool struct {
	encCache
	value bool
}

var (
	cellFalse = &Bool{value: false}
	cellTrue  = &Bool{value: true}
)

// NewBool returns the canonical Bool cell for v (one of two singletons).
func NewBool(v bool) *Bool {
	if v {
		return cellTrue
	}
	return cellFalse
}

func (b *Bool) Value() bool { return b.value }

func (b *Bool) Tag() Tag {
	if b.value {
		return TagTrue
	}
	return TagFalse
}

func (b *Bool) Encode(buf []byte) []byte    { return append(buf, byte(b.Tag())) }
func (b *Bool) EncodeRaw(buf []byte) []byte { return buf }

func (b *Bool) EstimatedEncodingSize() int { return 1 }
func (b *Bool) Hash() Hash                 { return b.hashOf(b.encodingOf(func() []byte { return b.Encode(nil) })) }
func (b *Bool) IsEmbedded() bool           { return true }
func (b *Bool) MemorySize() uint64         { return 0 }
func (b *Bool) Children() []*Ref           { return nil }
func (b *Bool) WithChildren(children []*Ref) Cell {
	if len(children) != 0 {
		panic("cell: Bool.WithChildren given non-empty children")
	}
	return b
}
func (b *Bool) Equal(other Cell) bool { return equalCells(b, other) }

func decodeBool(value bool) (*Bool, int) {
	return NewBool(value), 1
}

// Long is a fixed-width 64-bit signed integer cell: tag + 8 bytes
// big-endian two's complement. Fixed width (not VLC) keeps negative values
// canonical without a sign-magnitude or zigzag convention.
type Long struct {
	encCache
	value int64
}

func NewLong(v int64) *Long { return &Long{value: v} }

func (l *Long) Value() int64 { return l.value }
func (l *Long) Tag() Tag     { return TagLong }

func (l *Long) Encode(buf []byte) []byte {
	buf = append(buf, byte(TagLong))
	return l.EncodeRaw(buf)
}
func (l *Long) EncodeRaw(buf []byte) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(l.value))
	return append(buf, tmp[:]...)
}
func (l *Long) EstimatedEncodingSize() int { return 9 }
func (l *Long) Hash() Hash                 { return l.hashOf(l.encodingOf(func() []byte { return l.Encode(nil) })) }
func (l *Long) IsEmbedded() bool           { return true }
func (l *Long) MemorySize() uint64         { return 0 }
func (l *Long) Children() []*Ref           { return nil }
func (l *Long) WithChildren(children []*Ref) Cell {
	if len(children) != 0 {
		panic("cell: Long.WithChildren given non-empty children")
	}
	return l
}
func (l *Long) Equal(other Cell) bool { return equalCells(l, other) }

func decodeLong(data []byte, pos int) (*Long, int, error) {
	if pos+8 > len(data) {
		return nil, 0, cellerr.NewBadFormat(pos, "truncated long")
	}
	v := int64(binary.BigEndian.Uint64(data[pos : pos+8]))
	return NewLong(v), pos + 8, nil
}

// Char is a Unicode scalar value cell: tag + VLC(code point).
type Char struct {
	encCache
	value rune
}

func NewChar(v rune) *Char { return &Char{value: v} }

func (c *Char) Value() rune { return c.value }
func (c *Char) Tag() Tag    { return TagChar }

func (c *Char) Encode(buf []byte) []byte {
	buf = append(buf, byte(TagChar))
	return c.EncodeRaw(buf)
}
func (c *Char) EncodeRaw(buf []byte) []byte { return appendVLC(buf, uint64(c.value)) }
func (c *Char) EstimatedEncodingSize() int  { return 1 + vlcLen(uint64(c.value)) }
func (c *Char) Hash() Hash                  { return c.hashOf(c.encodingOf(func() []byte { return c.Encode(nil) })) }
func (c *Char) IsEmbedded() bool            { return true }
func (c *Char) MemorySize() uint64          { return 0 }
func (c *Char) Children() []*Ref            { return nil }
func (c *Char) WithChildren(children []*Ref) Cell {
	if len(children) != 0 {
		panic("cell: Char.WithChildren given non-empty children")
	}
	return c
}
func (c *Char) Equal(other Cell) bool { return equalCells(c, other) }

func decodeChar(data []byte, pos int) (*Char, int, error) {
	v, newPos, err := readVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	return NewChar(rune(v)), newPos, nil
}

// textCell is the shared representation for String, Keyword, and Symbol:
// tag + VLC(byte length) + raw UTF-8 bytes.
type textCell struct {
	encCache
	tag  Tag
	text string
}

func (t *textCell) Tag() Tag { return t.tag }
func (t *textCell) Encode(buf []byte) []byte {
	buf = append(buf, byte(t.tag))
	return t.EncodeRaw(buf)
}
func (t *textCell) EncodeRaw(buf []byte) []byte {
	buf = appendVLC(buf, uint64(len(t.text)))
	return append(buf, t.text...)
}
func (t *textCell) EstimatedEncodingSize() int {
	return 1 + vlcLen(uint64(len(t.text))) + len(t.text)
}
func (t *textCell) Children() []*Ref { return nil }

func decodeText(tag Tag, data []byte, pos int) (string, int, error) {
	n, pos2, err := readVLC(data, pos)
	if err != nil {
		return "", 0, err
	}
	end := pos2 + int(n)
	if end < pos2 || end > len(data) {
		return "", 0, cellerr.NewBadFormat(pos, "truncated text payload")
	}
	s := string(data[pos2:end])
	if !utf8.ValidString(s) {
		return "", 0, cellerr.NewBadFormat(pos, "invalid UTF-8 in text payload")
	}
	return s, end, nil
}

// StringCell is a UTF-8 string value.
type StringCell struct{ textCell }

func NewString(s string) *StringCell {
	return &StringCell{textCell{tag: TagString, text: s}}
}
func (s *StringCell) Value() string { return s.text }
func (s *StringCell) Hash() Hash {
	return s.hashOf(s.encodingOf(func() []byte { return s.Encode(nil) }))
}
func (s *StringCell) IsEmbedded() bool { return isEmbeddedEncoding(s.encodingOf(func() []byte { return s.Encode(nil) })) }
func (s *StringCell) MemorySize() uint64 { return memorySize(s) }
func (s *StringCell) WithChildren(children []*Ref) Cell {
	if len(children) != 0 {
		panic("cell: StringCell.WithChildren given non-empty children")
	}
	return s
}
func (s *StringCell) Equal(other Cell) bool { return equalCells(s, other) }

func decodeString(data []byte, pos int) (*StringCell, int, error) {
	s, newPos, err := decodeText(TagString, data, pos)
	if err != nil {
		return nil, 0, err
	}
	return NewString(s), newPos, nil
}

// Keyword is an interned-style name cell, distinct from Symbol only by tag.
type Keyword struct{ textCell }

func NewKeyword(name string) *Keyword {
	return &Keyword{textCell{tag: TagKeyword, text: name}}
}
func (k *Keyword) Name() string { return k.text }
func (k *Keyword) Hash() Hash {
	return k.hashOf(k.encodingOf(func() []byte { return k.Encode(nil) }))
}
func (k *Keyword) IsEmbedded() bool { return isEmbeddedEncoding(k.encodingOf(func() []byte { return k.Encode(nil) })) }
func (k *Keyword) MemorySize() uint64 { return memorySize(k) }
func (k *Keyword) WithChildren(children []*Ref) Cell {
	if len(children) != 0 {
		panic("cell: Keyword.WithChildren given non-empty children")
	}
	return k
}
func (k *Keyword) Equal(other Cell) bool { return equalCells(k, other) }

func decodeKeyword(data []byte, pos int) (*Keyword, int, error) {
	s, newPos, err := decodeText(TagKeyword, data, pos)
	if err != nil {
		return nil, 0, err
	}
	return NewKeyword(s), newPos, nil
}

// Symbol is an unqualified name cell, used for record schema keys among
// other things.
type Symbol struct{ textCell }

func NewSymbol(name string) *Symbol {
	return &Symbol{textCell{tag: TagSymbol, text: name}}
}
func (s *Symbol) Name() string { return s.text }
func (s *Symbol) Hash() Hash {
	return s.hashOf(s.encodingOf(func() []byte { return s.Encode(nil) }))
}
func (s *Symbol) IsEmbedded() bool { return isEmbeddedEncoding(s.encodingOf(func() []byte { return s.Encode(nil) })) }
func (s *Symbol) MemorySize() uint64 { return memorySize(s) }
func (s *Symbol) WithChildren(children []*Ref) Cell {
	if len(children) != 0 {
		panic("cell: Symbol.WithChildren given non-empty children")
	}
	return s
}
func (s *Symbol) Equal(other Cell) bool { return equalCells(s, other) }

func decodeSymbol(data []byte, pos int) (*Symbol, int, error) {
	s, newPos, err := decodeText(TagSymbol, data, pos)
	if err != nil {
		return nil, 0, err
	}
	return NewSymbol(s), newPos, nil
}

// Address is a non-negative 64-bit account index: tag + VLC(value). It is
// conceptually a long-blob (an 8-byte value reinterpreted, always
// embedded) but its wire encoding is the variable-length form given in
// §6, distinct from the fixed-width Long primitive.
type Address struct {
	encCache
	value uint64
}

// NewAddress constructs an Address. v must be representable as a
// non-negative int64; callers passing a value from untrusted input should
// check that invariant first.
func NewAddress(v uint64) *Address { return &Address{value: v} }

func (a *Address) Value() uint64 { return a.value }
func (a *Address) Tag() Tag      { return TagAddress }

func (a *Address) Encode(buf []byte) []byte {
	buf = append(buf, byte(TagAddress))
	return a.EncodeRaw(buf)
}
func (a *Address) EncodeRaw(buf []byte) []byte    { return appendVLC(buf, a.value) }
func (a *Address) EstimatedEncodingSize() int      { return 1 + vlcLen(a.value) }
func (a *Address) Hash() Hash { return a.hashOf(a.encodingOf(func() []byte { return a.Encode(nil) })) }
func (a *Address) IsEmbedded() bool { return true }
func (a *Address) MemorySize() uint64 { return 0 }
func (a *Address) Children() []*Ref   { return nil }
func (a *Address) WithChildren(children []*Ref) Cell {
	if len(children) != 0 {
		panic("cell: Address.WithChildren given non-empty children")
	}
	return a
}
func (a *Address) Equal(other Cell) bool { return equalCells(a, other) }

func decodeAddress(data []byte, pos int) (*Address, int, error) {
	v, newPos, err := readVLC(data, pos)
	if err != nil {
		return nil, 0, err
	}
	return NewAddress(v), newPos, nil
}
