// Copyright 2025 Certen Protocol

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/certen/ledgercore/internal/logging"
)

var (
	hashKind  string
	hashValue string
)

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Print a literal value's content hash",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildLiteral(hashKind, hashValue)
		if err != nil {
			return err
		}
		hash := c.Hash()
		logging.GetGlobalLogger().WithHash(hash).Info("hash", logging.Field{Key: "kind", Value: hashKind})
		fmt.Println(hash)
		return nil
	},
}

func init() {
	hashCmd.Flags().StringVar(&hashKind, "kind", "", "bool, long, char, string, keyword, symbol, address, or blob")
	hashCmd.Flags().StringVar(&hashValue, "value", "", "the literal value")
	hashCmd.MarkFlagRequired("kind")
	hashCmd.MarkFlagRequired("value")
}
