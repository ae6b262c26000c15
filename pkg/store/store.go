// Copyright 2025 Certen Protocol
//
// Package store implements the content-addressable Store: the durable
// half of the core data model, mapping cell hashes to their canonical
// encodings and deciding what "novel" means for a write (§4.5, §5).
package store

import (
	"time"

	"github.com/certen/ledgercore/internal/logging"
	"github.com/certen/ledgercore/pkg/cell"
	"github.com/certen/ledgercore/pkg/cellerr"
)

// Backend is the durable key/value substrate a Store is built on: hash in,
// encoding out. Implementations (memory, GoLevelDB, Postgres) differ only
// in durability and deployment shape, never in semantics.
type Backend interface {
	// Get returns the encoding stored under hash, or found=false if absent.
	Get(hash cell.Hash) (encoding []byte, found bool, err error)

	// Put durably writes encoding under hash. A successful return
	// guarantees the write is durable (§1's transactional write
	// guarantee) — callers never need a separate fsync/commit step.
	Put(hash cell.Hash, encoding []byte) error

	// Has reports whether hash is present without fetching its encoding.
	Has(hash cell.Hash) (bool, error)

	Close() error
}

// NoveltyFunc is called exactly once per hash the first time a Store
// observes it being written — never on a write of a hash that was already
// present. A hook for downstream consumers (gossip, indexing) that react
// to genuinely new content rather than every write attempt.
type NoveltyFunc func(hash cell.Hash, encoding []byte)

// Store is the content-addressable store described in §4.5/§5: every cell
// reachable from a stored root is itself stored (the closure property),
// lookups are by hash, and every write is idempotent.
type Store struct {
	backend Backend
	cache   *cellCache
	novelty NoveltyFunc
	metrics *storeMetrics
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithCacheSize sets the maximum entry count of the Store's cache of
// canonical encodings. Zero disables caching entirely.
func WithCacheSize(n int) Option {
	return func(s *Store) { s.cache = newCellCache(n) }
}

// WithNoveltyHandler installs fn to be called on every hash newly observed
// by this Store.
func WithNoveltyHandler(fn NoveltyFunc) Option {
	return func(s *Store) { s.novelty = fn }
}

// New builds a Store over backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, cache: newCellCache(1024), metrics: newStoreMetrics()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve implements cell.Resolver, letting the core decode dehydrated
// refs by fetching their encoding from this Store.
func (s *Store) Resolve(hash cell.Hash) ([]byte, bool, error) {
	if enc, ok := s.cache.get(hash); ok {
		s.metrics.cacheHits.Inc()
		return enc, true, nil
	}
	s.metrics.cacheMisses.Inc()
	enc, found, err := s.backend.Get(hash)
	if err != nil {
		s.metrics.backendErrors.Inc()
		return nil, false, err
	}
	if found {
		s.cache.put(hash, enc)
	}
	return enc, found, nil
}

// storeOne writes a single cell's own encoding (not its children) if not
// already present, firing the novelty handler on first write.
func (s *Store) storeOne(c cell.Cell) (cell.Hash, error) {
	start := time.Now()
	enc := c.Encode(nil)
	h := cell.HashBytes(enc)
	has, err := s.backend.Has(h)
	if err != nil {
		s.metrics.backendErrors.Inc()
		return h, err
	}
	if has {
		s.metrics.writesDeduped.Inc()
		logging.GetGlobalLogger().LogStoreWrite(h.String(), false, time.Since(start))
		return h, nil
	}
	if err := s.backend.Put(h, enc); err != nil {
		s.metrics.backendErrors.Inc()
		return h, err
	}
	s.cache.put(h, enc)
	s.metrics.writesNovel.Inc()
	logging.GetGlobalLogger().LogStoreWrite(h.String(), true, time.Since(start))
	if s.novelty != nil {
		s.novelty(h, enc)
	}
	return h, nil
}

// StoreRef ensures every cell reachable from ref is durably written (the
// closure property, §4.5): for an embedded ref this is a no-op (nothing to
// store — the value lives inline in its parent), otherwise ref's own cell
// and, recursively, every non-embedded child are persisted before ref
// itself, and ref's status is raised to PERSISTED.
func (s *Store) StoreRef(ref *cell.Ref) error {
	if ref.Status() == cell.StatusEmbedded {
		return nil
	}
	target := ref.PeekCell()
	if target == nil {
		// Already dehydrated with nothing resident: either it is already
		// durable (status >= STORED) or there is nothing this call can
		// persist.
		if ref.Status() >= cell.StatusStored {
			return nil
		}
		err := cellerr.NewInvalidData("cannot store a ref with neither a resident cell nor a known-durable status")
		logging.GetGlobalLogger().WithHash(ref.Hash()).WithError(err).Error("store ref")
		return err
	}
	for _, child := range target.Children() {
		if err := s.StoreRef(child); err != nil {
			return err
		}
	}
	if _, err := s.storeOne(target); err != nil {
		return err
	}
	ref.RaiseStatus(cell.StatusPersisted)
	return nil
}

// StoreTopRef is StoreRef for a value known to be a top-level root: it
// additionally refuses to treat an embedded value as "nothing to do",
// since a root must always be independently addressable by hash even if
// it happens to be small enough to embed inside some other would-be
// parent.
func (s *Store) StoreTopRef(root cell.Cell) (cell.Hash, error) {
	for _, child := range root.Children() {
		if err := s.StoreRef(child); err != nil {
			return cell.Hash{}, err
		}
	}
	return s.storeOne(root)
}

// RefForHash builds a dehydrated ref for hash at STORED status, suitable
// as a starting point for traversal via Resolve. Returns nil, nil on a
// miss rather than a ref for content that was never written.
func (s *Store) RefForHash(hash cell.Hash) (*cell.Ref, error) {
	has, err := s.backend.Has(hash)
	if err != nil {
		s.metrics.backendErrors.Inc()
		return nil, err
	}
	if !has {
		return nil, nil
	}
	return cell.NewDehydratedRef(hash, cell.StatusStored), nil
}

// LoadRoot fetches and decodes the cell at hash directly, failing fast if
// it is absent rather than deferring to a lazy Ref.
func (s *Store) LoadRoot(hash cell.Hash) (cell.Cell, error) {
	enc, found, err := s.Resolve(hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, cellerr.NewMissingData(hash)
	}
	return cell.Decode(enc)
}

// Close releases the underlying backend.
func (s *Store) Close() error { return s.backend.Close() }
