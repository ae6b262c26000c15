// Copyright 2025 Certen Protocol

package main

import (
	"fmt"

	"github.com/certen/ledgercore/pkg/store"
)

// openStore builds a Store over the backend named by the --backend flag.
func openStore() (*store.Store, error) {
	switch backend {
	case "memory":
		return store.New(store.NewMemoryBackend()), nil
	case "goleveldb":
		b, err := store.OpenGoLevelDB("cellctl", dataDir)
		if err != nil {
			return nil, fmt.Errorf("open goleveldb at %s: %w", dataDir, err)
		}
		return store.New(b), nil
	default:
		return nil, fmt.Errorf("unsupported --backend %q (want memory or goleveldb)", backend)
	}
}
