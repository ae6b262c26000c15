package store

import (
	"strings"
	"testing"

	"github.com/certen/ledgercore/pkg/cell"
)

func TestMemoryBackendPutGetHas(t *testing.T) {
	b := NewMemoryBackend()
	s := New(b)
	defer s.Close()

	long := cell.NewLong(42)
	hash, err := s.StoreTopRef(long)
	if err != nil {
		t.Fatalf("StoreTopRef: %v", err)
	}

	has, err := b.Has(hash)
	if err != nil || !has {
		t.Fatalf("backend.Has after store: %v, %v", has, err)
	}

	enc, found, err := s.Resolve(hash)
	if err != nil || !found {
		t.Fatalf("Resolve: found=%v err=%v", found, err)
	}
	decoded, err := cell.Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Hash() != long.Hash() {
		t.Errorf("round-tripped hash mismatch: got %x, want %x", decoded.Hash(), long.Hash())
	}
}

func TestStoreWriteIsDeduped(t *testing.T) {
	b := NewMemoryBackend()
	s := New(b)
	defer s.Close()

	v := cell.NewString("hello")
	if _, err := s.StoreTopRef(v); err != nil {
		t.Fatalf("first store: %v", err)
	}
	if _, err := s.StoreTopRef(v); err != nil {
		t.Fatalf("second store: %v", err)
	}
	if b.Len() != 1 {
		t.Errorf("backend entry count after duplicate store: got %d, want 1", b.Len())
	}
}

func TestStoreRefClosureProperty(t *testing.T) {
	b := NewMemoryBackend()
	s := New(b)
	defer s.Close()

	// A long string doesn't embed, so the vector holding it must carry a
	// hash ref, and storing the vector must transitively store the string.
	big := strings.Repeat("x", 200)
	bigStr := cell.NewString(big)
	if bigStr.IsEmbedded() {
		t.Fatal("test fixture expected a non-embedded string")
	}

	vec, err := cell.NewEmptyVector().Append(bigStr)
	if err != nil {
		t.Fatalf("vector append: %v", err)
	}

	vecHash, err := s.StoreTopRef(vec)
	if err != nil {
		t.Fatalf("StoreTopRef: %v", err)
	}

	has, err := b.Has(vecHash)
	if err != nil || !has {
		t.Fatalf("vector not stored: %v, %v", has, err)
	}
	hasChild, err := b.Has(bigStr.Hash())
	if err != nil || !hasChild {
		t.Fatalf("closure property violated: child string not stored: %v, %v", hasChild, err)
	}
}

func TestStoreNoveltyHandlerFiresOnce(t *testing.T) {
	b := NewMemoryBackend()
	var seen []cell.Hash
	s := New(b, WithNoveltyHandler(func(h cell.Hash, _ []byte) {
		seen = append(seen, h)
	}))
	defer s.Close()

	v := cell.NewString("novelty target")
	if _, err := s.StoreTopRef(v); err != nil {
		t.Fatalf("first store: %v", err)
	}
	if _, err := s.StoreTopRef(v); err != nil {
		t.Fatalf("second store: %v", err)
	}
	if len(seen) != 1 {
		t.Errorf("novelty handler fire count: got %d, want 1", len(seen))
	}
}

func TestResolveUsesCacheOnSecondLookup(t *testing.T) {
	b := NewMemoryBackend()
	writer := New(b)
	defer writer.Close()

	v := cell.NewString("cached value")
	hash, err := writer.StoreTopRef(v)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	// A fresh Store over the same backend starts with an empty cache, so
	// only its own Resolve can populate it.
	s := New(b, WithCacheSize(8))
	if _, ok := s.cache.get(hash); ok {
		t.Fatal("a fresh Store should start with an empty cache")
	}
	first, _, err := s.Resolve(hash)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if _, ok := s.cache.get(hash); !ok {
		t.Error("expected hash to be cached after a successful Resolve")
	}
	// MemoryBackend.Get returns a fresh copy on every call, so a second
	// result sharing the first one's backing array came from the cache.
	second, _, err := s.Resolve(hash)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if &second[0] != &first[0] {
		t.Error("expected the second Resolve to be served from the cache")
	}
}

func TestLoadRootMissingHash(t *testing.T) {
	b := NewMemoryBackend()
	s := New(b)
	defer s.Close()

	if _, err := s.LoadRoot(cell.Hash{0xFF}); err == nil {
		t.Error("expected an error loading a hash never stored")
	}
}

func TestRefForHashReturnsNilOnMiss(t *testing.T) {
	b := NewMemoryBackend()
	s := New(b)
	defer s.Close()

	ref, err := s.RefForHash(cell.Hash{0xAB})
	if err != nil {
		t.Fatalf("RefForHash on miss: %v", err)
	}
	if ref != nil {
		t.Errorf("expected nil ref for a hash never stored, got %v", ref)
	}
}

func TestRefForHashReturnsStoredRefOnHit(t *testing.T) {
	b := NewMemoryBackend()
	s := New(b)
	defer s.Close()

	v := cell.NewString("ref target")
	hash, err := s.StoreTopRef(v)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	ref, err := s.RefForHash(hash)
	if err != nil {
		t.Fatalf("RefForHash on hit: %v", err)
	}
	if ref == nil {
		t.Fatal("expected a non-nil ref for a stored hash")
	}
	if ref.Hash() != hash {
		t.Errorf("ref hash mismatch: got %x, want %x", ref.Hash(), hash)
	}
	if ref.Status() != cell.StatusStored {
		t.Errorf("ref status: got %v, want StatusStored", ref.Status())
	}
}

func TestZeroCacheSizeDisablesCaching(t *testing.T) {
	b := NewMemoryBackend()
	s := New(b, WithCacheSize(0))
	defer s.Close()

	v := cell.NewLong(7)
	hash, err := s.StoreTopRef(v)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, _, err := s.Resolve(hash); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, ok := s.cache.get(hash); ok {
		t.Error("expected no caching with WithCacheSize(0)")
	}
}
