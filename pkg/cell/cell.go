// Copyright 2025 Certen Protocol
//
// Package cell implements the immutable, content-addressed data model: the
// family of primitive and structured values (booleans, longs, blobs,
// addresses, maps, sets, vectors, records) together with their canonical
// binary encoding and SHA3-256 content hash.
//
// Every cell is deeply immutable once constructed. Operations that look
// like mutation (Assoc, Append, Dissoc, ...) return a new cell that shares
// unchanged structure with the old one. Two cells are equal iff their
// canonical encodings are byte-identical iff their hashes are equal.
package cell

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Tag identifies a cell's kind. The byte ranges below are the core's
// public wire contract — never renumber an assigned tag.
type Tag byte

const (
	TagFalse     Tag = 0x00
	TagTrue      Tag = 0x01
	TagLong      Tag = 0x02
	TagChar      Tag = 0x03
	TagString    Tag = 0x04
	TagBlob      Tag = 0x05 // flat blob; also used for the LongBlob physical variant
	TagBlobTree  Tag = 0x06 // chunked blob branch node
	TagAddress   Tag = 0x07
	TagKeyword   Tag = 0x08
	TagSymbol    Tag = 0x09
	TagMapLeaf   Tag = 0x0A
	TagMapTree   Tag = 0x0B
	TagSetLeaf   Tag = 0x0C
	TagSetTree   Tag = 0x0D
	TagVector    Tag = 0x0E
	TagVectorNode Tag = 0x0F
	TagRef       Tag = 0x10

	// TagRecordBase..TagRecordMax: one tag per registered record schema.
	// A record's tag is implicit evidence of its schema; two records with
	// different schemas are never equal regardless of field content.
	TagRecordBase Tag = 0x20
	TagRecordMax  Tag = 0x3F
)

// EmbedThreshold is the maximum canonical-encoding length, in bytes, for a
// cell to be inlined into its parent rather than referenced by hash. See
// spec §9: this constant must match the reference implementation exactly
// — an off-by-one here changes every downstream hash. Do not change it.
const EmbedThreshold = 140

// ChunkSize is the fixed leaf size, in bytes, for chunked blobs.
const ChunkSize = 4096

// MapLeafMax is the maximum entry count for a HashMap leaf before it must
// split into a tree (except collision leaves beyond HashBits of shift).
const MapLeafMax = 8

// MapBranching is the fan-out of a HashMap tree node (4 bits per level).
const MapBranching = 16

// VectorBranching is the fan-out of a Vector's radix tree.
const VectorBranching = 16

// HashSize is the content hash width in bytes (SHA3-256).
const HashSize = 32

// HashBits is the number of hash bits consulted for HashMap trie routing
// before collisions fall back to an unbounded collision leaf.
const HashBits = 64

// Hash is the 32-byte SHA3-256 digest of a cell's canonical encoding. It
// doubles as the cell's identity and its key in the content-addressed
// store.
type Hash [HashSize]byte

// IsZero reports whether h is the zero hash (never a valid content hash;
// used as a sentinel for "no hash computed").
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String hex-encodes h, for logging and CLI output.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// HashBytes computes the content hash of an arbitrary canonical encoding.
func HashBytes(encoding []byte) Hash {
	return Hash(sha3.Sum256(encoding))
}

// Cell is the universal interface implemented by every kind of immutable
// value in the data model. See spec §3.
type Cell interface {
	// Tag identifies this cell's kind for encoding/decoding dispatch.
	Tag() Tag

	// Encode appends this cell's canonical encoding (tag byte followed by
	// payload) to buf and returns the extended slice.
	Encode(buf []byte) []byte

	// EncodeRaw appends this cell's payload only (no tag byte) to buf.
	// Used when the tag is known from context, as when a set's root
	// reuses its underlying map's payload under a different outer tag.
	EncodeRaw(buf []byte) []byte

	// EstimatedEncodingSize returns the exact length of Encode(nil), for
	// buffer pre-sizing. It is recomputed on every call, not cached.
	EstimatedEncodingSize() int

	// Hash returns the SHA3-256 digest of Encode(nil). Cached after first
	// computation; a hash never changes once computed (hash stability).
	Hash() Hash

	// IsEmbedded reports whether this cell's encoding fits within
	// EmbedThreshold and should therefore be inlined into a parent's
	// encoding rather than referenced by hash.
	IsEmbedded() bool

	// MemorySize estimates in-memory footprint: zero if embedded, else
	// the encoding length plus the recursive sum of children's memory
	// sizes, each unique hash counted once.
	MemorySize() uint64

	// Children returns this cell's direct child references, in the order
	// they appear in the canonical encoding. A leaf cell (Bool, Long,
	// Char, String, Blob, Address, Keyword, Symbol) returns nil.
	Children() []*Ref

	// WithChildren returns a structurally-equal cell with its direct
	// children replaced. len(children) must equal len(c.Children()).
	WithChildren(children []*Ref) Cell

	// Equal reports whether two cells are canonically equal (same hash).
	Equal(other Cell) bool
}

// encCache is embedded by every concrete cell type to provide the
// monotone, atomically-published caches for encoding bytes and hash. A
// race between two goroutines computing the same cache is benign —
// redundant work, never a torn read (§5).
type encCache struct {
	enc  cachedBytes
	hash cachedHash
}

// encodingOf returns c's cached canonical encoding, computing it via
// encodeFn on first use.
func (c *encCache) encodingOf(encodeFn func() []byte) []byte {
	if b, ok := c.enc.load(); ok {
		return b
	}
	b := encodeFn()
	c.enc.store(b)
	return b
}

// hashOf returns c's cached hash, computing it from enc on first use.
func (c *encCache) hashOf(enc []byte) Hash {
	if h, ok := c.hash.load(); ok {
		return h
	}
	h := HashBytes(enc)
	c.hash.store(h)
	return h
}

// isEmbeddedEncoding reports whether enc fits within EmbedThreshold.
func isEmbeddedEncoding(enc []byte) bool {
	return len(enc) <= EmbedThreshold
}

// equalCells reports whether two cells have the same hash — the
// canonicality invariant makes this equivalent to byte-identical
// encodings.
func equalCells(a, b Cell) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Hash() == b.Hash()
}

// memorySize implements the Cell.MemorySize contract shared by every
// container kind: zero if embedded, else encoding length plus the
// recursive sum of children's memory sizes, each unique hash counted once.
func memorySize(self Cell) uint64 {
	if self.IsEmbedded() {
		return 0
	}
	seen := make(map[Hash]bool)
	var walk func(Cell) uint64
	walk = func(c Cell) uint64 {
		h := c.Hash()
		if seen[h] {
			return 0
		}
		seen[h] = true
		size := uint64(c.EstimatedEncodingSize())
		for _, ref := range c.Children() {
			if ref == nil {
				continue
			}
			if child := ref.PeekCell(); child != nil {
				size += walk(child)
			}
		}
		return size
	}
	return walk(self)
}
