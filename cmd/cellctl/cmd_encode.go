// Copyright 2025 Certen Protocol

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/certen/ledgercore/internal/logging"
)

var (
	encodeKind  string
	encodeValue string
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Print a literal value's canonical encoding as hex",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildLiteral(encodeKind, encodeValue)
		if err != nil {
			return err
		}
		enc := c.Encode(nil)
		logging.GetGlobalLogger().Info("encode",
			logging.Field{Key: "kind", Value: encodeKind},
			logging.Field{Key: "bytes", Value: len(enc)},
		)
		fmt.Println(hex.EncodeToString(enc))
		return nil
	},
}

func init() {
	encodeCmd.Flags().StringVar(&encodeKind, "kind", "", "bool, long, char, string, keyword, symbol, address, or blob")
	encodeCmd.Flags().StringVar(&encodeValue, "value", "", "the literal value")
	encodeCmd.MarkFlagRequired("kind")
	encodeCmd.MarkFlagRequired("value")
}
