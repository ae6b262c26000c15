package ledgerindex

import (
	"sync"
	"testing"

	"github.com/certen/ledgercore/pkg/cell"
	"github.com/certen/ledgercore/pkg/store"
)

type memKV struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemKV() *memKV { return &memKV{entries: make(map[string][]byte)} }

func (m *memKV) Get(key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[string(key)], nil
}

func (m *memKV) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.entries[string(key)] = cp
	return nil
}

func TestCommitAndRootAt(t *testing.T) {
	idx := New(newMemKV(), store.New(store.NewMemoryBackend()))

	root := cell.NewLong(100)
	hash, err := idx.Commit(1, root)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if hash != root.Hash() {
		t.Errorf("commit hash mismatch: got %x, want %x", hash, root.Hash())
	}

	got, err := idx.RootAt(1)
	if err != nil {
		t.Fatalf("RootAt: %v", err)
	}
	if got.Hash() != root.Hash() {
		t.Errorf("RootAt hash mismatch: got %x, want %x", got.Hash(), root.Hash())
	}
}

func TestLatestHeightAdvancesMonotonically(t *testing.T) {
	idx := New(newMemKV(), store.New(store.NewMemoryBackend()))

	for h := uint64(0); h < 5; h++ {
		if _, err := idx.Commit(h, cell.NewLong(int64(h))); err != nil {
			t.Fatalf("commit %d: %v", h, err)
		}
	}
	latest, err := idx.LatestHeight()
	if err != nil {
		t.Fatalf("LatestHeight: %v", err)
	}
	if latest != 4 {
		t.Errorf("latest height: got %d, want 4", latest)
	}

	root, err := idx.LatestRoot()
	if err != nil {
		t.Fatalf("LatestRoot: %v", err)
	}
	if root.(*cell.Long).Value() != 4 {
		t.Errorf("latest root value: got %v, want 4", root)
	}
}

func TestRootAtMissingHeight(t *testing.T) {
	idx := New(newMemKV(), store.New(store.NewMemoryBackend()))
	if _, err := idx.RootAt(99); err == nil {
		t.Error("expected an error for a height never committed")
	}
}

func TestLatestHeightBeforeAnyCommit(t *testing.T) {
	idx := New(newMemKV(), store.New(store.NewMemoryBackend()))
	if _, err := idx.LatestHeight(); err == nil {
		t.Error("expected ErrMetaNotFound before any commit")
	}
}
