// Copyright 2025 Certen Protocol

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/certen/ledgercore/internal/logging"
)

var (
	putKind  string
	putValue string
)

var putCmd = &cobra.Command{
	Use:   "put",
	Short: "Store a literal value in the backend and print its hash",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildLiteral(putKind, putValue)
		if err != nil {
			return err
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		hash, err := s.StoreTopRef(c)
		if err != nil {
			return fmt.Errorf("store: %w", err)
		}
		logging.GetGlobalLogger().WithHash(hash).Info("put", logging.Field{Key: "kind", Value: putKind}, logging.Field{Key: "backend", Value: backend})
		fmt.Println(hash)
		return nil
	},
}

func init() {
	putCmd.Flags().StringVar(&putKind, "kind", "", "bool, long, char, string, keyword, symbol, address, or blob")
	putCmd.Flags().StringVar(&putValue, "value", "", "the literal value")
	putCmd.MarkFlagRequired("kind")
	putCmd.MarkFlagRequired("value")
}
