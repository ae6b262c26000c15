// Copyright 2025 Certen Protocol

package store

import (
	dbm "github.com/cometbft/cometbft-db"

	"github.com/certen/ledgercore/pkg/cell"
)

// GoLevelDBBackend wraps a cometbft-db dbm.DB (backed by goleveldb) as a
// Backend. Keys are raw hash bytes; there is no key prefixing since a
// GoLevelDB instance opened for this package holds nothing else.
type GoLevelDBBackend struct {
	db dbm.DB
}

// OpenGoLevelDB opens (creating if absent) a GoLevelDB-backed Backend at
// dir/name.db.
func OpenGoLevelDB(name, dir string) (*GoLevelDBBackend, error) {
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, err
	}
	return &GoLevelDBBackend{db: db}, nil
}

// NewGoLevelDBBackend wraps an already-open dbm.DB, for callers that share
// one database handle across several keyspaces.
func NewGoLevelDBBackend(db dbm.DB) *GoLevelDBBackend {
	return &GoLevelDBBackend{db: db}
}

func (b *GoLevelDBBackend) Get(hash cell.Hash) ([]byte, bool, error) {
	v, err := b.db.Get(hash[:])
	if err != nil {
		return nil, false, err
	}
	if v == nil {
		return nil, false, nil
	}
	return v, true, nil
}

// Put uses SetSync: a Store write must be durable before it returns,
// matching the pack's established "commit means fsync'd" convention.
func (b *GoLevelDBBackend) Put(hash cell.Hash, encoding []byte) error {
	return b.db.SetSync(hash[:], encoding)
}

func (b *GoLevelDBBackend) Has(hash cell.Hash) (bool, error) {
	return b.db.Has(hash[:])
}

func (b *GoLevelDBBackend) Close() error {
	return b.db.Close()
}
