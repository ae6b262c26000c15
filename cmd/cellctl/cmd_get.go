// Copyright 2025 Certen Protocol

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/certen/ledgercore/internal/logging"
	"github.com/certen/ledgercore/pkg/cell"
)

var getHash string

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch a cell by hash from the backend and describe it",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := hex.DecodeString(getHash)
		if err != nil {
			return fmt.Errorf("decode --hash: %w", err)
		}
		if len(raw) != cell.HashSize {
			return fmt.Errorf("--hash must be %d bytes, got %d", cell.HashSize, len(raw))
		}
		var h cell.Hash
		copy(h[:], raw)

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		c, err := s.LoadRoot(h)
		if err != nil {
			logging.GetGlobalLogger().WithHash(h).WithError(err).Error("get")
			return fmt.Errorf("load %s: %w", h, err)
		}
		logging.GetGlobalLogger().WithHash(h).Info("get", logging.Field{Key: "backend", Value: backend})
		fmt.Println(describe(c))
		return nil
	},
}

func init() {
	getCmd.Flags().StringVar(&getHash, "hash", "", "content hash, hex-encoded")
	getCmd.MarkFlagRequired("hash")
}
