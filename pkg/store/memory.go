// Copyright 2025 Certen Protocol

package store

import (
	"sync"

	"github.com/certen/ledgercore/pkg/cell"
)

// MemoryBackend is an in-process, non-durable Backend over a guarded map.
// It is the Backend used by this package's own tests and by callers that
// only need a scratch store (e.g. a one-shot encode/decode CLI invocation).
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[cell.Hash][]byte
}

// NewMemoryBackend builds an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[cell.Hash][]byte)}
}

func (b *MemoryBackend) Get(hash cell.Hash) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	enc, ok := b.entries[hash]
	if !ok {
		return nil, false, nil
	}
	// Return a copy: callers must never be able to mutate our store's
	// backing bytes through a returned slice.
	out := make([]byte, len(enc))
	copy(out, enc)
	return out, true, nil
}

func (b *MemoryBackend) Put(hash cell.Hash, encoding []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.entries[hash]; exists {
		return nil
	}
	stored := make([]byte, len(encoding))
	copy(stored, encoding)
	b.entries[hash] = stored
	return nil
}

func (b *MemoryBackend) Has(hash cell.Hash) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.entries[hash]
	return ok, nil
}

func (b *MemoryBackend) Close() error { return nil }

// Len reports how many distinct hashes this backend currently holds, for
// tests asserting on dedup behavior.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
