// Copyright 2025 Certen Protocol

package main

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"github.com/certen/ledgercore/internal/logging"
	"github.com/certen/ledgercore/pkg/cell"
	"github.com/certen/ledgercore/pkg/ledgerindex"
)

var (
	persistHeight uint64
	persistCount  int
)

// memKV is an in-process KV for the index demo, the cellctl equivalent of
// a consensus layer's own commit-height bookkeeping.
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
	m.entries[string(key)] = append([]byte{}, value...)
	return nil
}

var persistCmd = &cobra.Command{
	Use:   "persist",
	Short: "Build a sample vector root, commit it at --height, and read it back",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		root := cell.NewEmptyVector()
		for i := 0; i < persistCount; i++ {
			root, err = root.Append(cell.NewString("entry-" + strconv.Itoa(i)))
			if err != nil {
				return fmt.Errorf("append entry %d: %w", i, err)
			}
		}

		idx := ledgerindex.New(newMemKV(), s)
		hash, err := idx.Commit(persistHeight, root)
		if err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		logging.GetGlobalLogger().WithHash(hash).Info("persist",
			logging.Field{Key: "height", Value: persistHeight},
			logging.Field{Key: "entries", Value: persistCount},
		)
		fmt.Printf("committed height=%d root=%s entries=%d\n", persistHeight, hash, persistCount)

		got, err := idx.RootAt(persistHeight)
		if err != nil {
			return fmt.Errorf("read back: %w", err)
		}
		fmt.Println(describe(got))
		return nil
	},
}

func init() {
	persistCmd.Flags().Uint64Var(&persistHeight, "height", 0, "height to commit the sample root at")
	persistCmd.Flags().IntVar(&persistCount, "count", 3, "number of string entries in the sample vector")
}
