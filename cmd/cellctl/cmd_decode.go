// Copyright 2025 Certen Protocol

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/certen/ledgercore/internal/logging"
	"github.com/certen/ledgercore/pkg/cell"
)

var decodeHex string

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a canonical encoding (given as hex) and describe it",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := hex.DecodeString(decodeHex)
		if err != nil {
			return fmt.Errorf("decode hex: %w", err)
		}
		c, err := cell.Decode(raw)
		if err != nil {
			return err
		}
		hash := c.Hash()
		logging.GetGlobalLogger().WithHash(hash).Info("decode", logging.Field{Key: "bytes", Value: len(raw)})
		fmt.Println(describe(c))
		fmt.Printf("hash: %s\n", hash)
		return nil
	},
}

func init() {
	decodeCmd.Flags().StringVar(&decodeHex, "hex", "", "canonical encoding, hex-encoded")
	decodeCmd.MarkFlagRequired("hex")
}

// describe renders a short, human-readable summary of a cell's kind and
// immediate content, without attempting to resolve any hash-ref children.
func describe(c cell.Cell) string {
	switch v := c.(type) {
	case *cell.Bool:
		return fmt.Sprintf("Bool(%v)", v.Value())
	case *cell.Long:
		return fmt.Sprintf("Long(%d)", v.Value())
	case *cell.Char:
		return fmt.Sprintf("Char(%q)", v.Value())
	case *cell.StringCell:
		return fmt.Sprintf("String(%q)", v.Value())
	case *cell.Keyword:
		return fmt.Sprintf("Keyword(%s)", v.Name())
	case *cell.Symbol:
		return fmt.Sprintf("Symbol(%s)", v.Name())
	case *cell.Address:
		return fmt.Sprintf("Address(%d)", v.Value())
	default:
		return fmt.Sprintf("%T (tag 0x%02X, %d children)", c, byte(c.Tag()), len(c.Children()))
	}
}
