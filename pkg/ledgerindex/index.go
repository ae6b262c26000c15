// Copyright 2025 Certen Protocol
//
// Package ledgerindex demonstrates how an external consensus layer — out
// of scope for this core, per §1 — commits and recovers state roots
// through the core's Store/Ref API: one height maps to one root cell
// hash, written on commit and read back on recovery.
package ledgerindex

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/certen/ledgercore/pkg/cell"
	"github.com/certen/ledgercore/pkg/store"
)

// ErrMetaNotFound is returned when no commit has ever been recorded.
var ErrMetaNotFound = errors.New("ledgerindex: metadata not found")

// KV is the minimal key-value interface Index needs from its backing
// store, narrower than store.Backend since index records are keyed by
// height rather than by content hash.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

var (
	keyMeta         = []byte("ledgerindex:meta")
	keyHeightPrefix = []byte("ledgerindex:height:")
)

func heightKey(height uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, height)
	return append(append([]byte{}, keyHeightPrefix...), b...)
}

// meta tracks the single fact recovery needs beyond the per-height
// records themselves: which height is latest.
type meta struct {
	LatestHeight uint64
}

func encodeMeta(m meta) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, m.LatestHeight)
	return b
}

func decodeMeta(b []byte) (meta, error) {
	if len(b) != 8 {
		return meta{}, fmt.Errorf("ledgerindex: corrupt meta record: expected 8 bytes, got %d", len(b))
	}
	return meta{LatestHeight: binary.BigEndian.Uint64(b)}, nil
}

// Index maps block heights to the content-addressed root cell committed
// at that height, backed by a Store for the cell data itself and a KV for
// the height->hash index.
type Index struct {
	kv  KV
	str *store.Store
}

// New builds an Index over kv (the height index) and str (the cell
// store the root cells themselves live in).
func New(kv KV, str *store.Store) *Index {
	return &Index{kv: kv, str: str}
}

// Commit stores root (and, transitively, every non-embedded cell it
// reaches) and records it as the root for height, advancing the latest
// height if height is new.
func (idx *Index) Commit(height uint64, root cell.Cell) (cell.Hash, error) {
	hash, err := idx.str.StoreTopRef(root)
	if err != nil {
		return cell.Hash{}, fmt.Errorf("ledgerindex: store root for height %d: %w", height, err)
	}
	if err := idx.kv.Set(heightKey(height), hash[:]); err != nil {
		return cell.Hash{}, fmt.Errorf("ledgerindex: record height %d: %w", height, err)
	}

	m, err := idx.loadMeta()
	if err != nil {
		if errors.Is(err, ErrMetaNotFound) {
			m = meta{LatestHeight: height}
		} else {
			return cell.Hash{}, fmt.Errorf("ledgerindex: load meta: %w", err)
		}
	} else if height > m.LatestHeight {
		m.LatestHeight = height
	}
	if err := idx.kv.Set(keyMeta, encodeMeta(m)); err != nil {
		return cell.Hash{}, fmt.Errorf("ledgerindex: save meta: %w", err)
	}
	return hash, nil
}

// RootAt returns the decoded root cell committed at height, for recovery
// or historical queries.
func (idx *Index) RootAt(height uint64) (cell.Cell, error) {
	hash, err := idx.RootHashAt(height)
	if err != nil {
		return nil, err
	}
	return idx.str.LoadRoot(hash)
}

// RootHashAt returns the root hash committed at height without decoding
// it, for callers that only need to compare or forward the hash.
func (idx *Index) RootHashAt(height uint64) (cell.Hash, error) {
	b, err := idx.kv.Get(heightKey(height))
	if err != nil {
		return cell.Hash{}, fmt.Errorf("ledgerindex: get height %d: %w", height, err)
	}
	if len(b) == 0 {
		return cell.Hash{}, fmt.Errorf("ledgerindex: no root committed at height %d", height)
	}
	if len(b) != cell.HashSize {
		return cell.Hash{}, fmt.Errorf("ledgerindex: corrupt root hash at height %d: expected %d bytes, got %d", height, cell.HashSize, len(b))
	}
	var h cell.Hash
	copy(h[:], b)
	return h, nil
}

// LatestHeight returns the highest height ever committed.
func (idx *Index) LatestHeight() (uint64, error) {
	m, err := idx.loadMeta()
	if err != nil {
		return 0, err
	}
	return m.LatestHeight, nil
}

// LatestRoot returns the root cell at LatestHeight, for recovery on
// restart.
func (idx *Index) LatestRoot() (cell.Cell, error) {
	height, err := idx.LatestHeight()
	if err != nil {
		return nil, err
	}
	return idx.RootAt(height)
}

func (idx *Index) loadMeta() (meta, error) {
	b, err := idx.kv.Get(keyMeta)
	if err != nil {
		return meta{}, fmt.Errorf("ledgerindex: get meta: %w", err)
	}
	if len(b) == 0 {
		return meta{}, ErrMetaNotFound
	}
	return decodeMeta(b)
}
