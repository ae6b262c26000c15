// Copyright 2025 Certen Protocol

package main

import (
	"fmt"
	"strconv"

	"github.com/certen/ledgercore/pkg/cell"
)

// buildLiteral constructs a primitive Cell from a --kind/--value flag
// pair, the common input shape for encode/hash/put.
func buildLiteral(kind, value string) (cell.Cell, error) {
	switch kind {
	case "bool":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("parse bool %q: %w", value, err)
		}
		return cell.NewBool(v), nil
	case "long":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse long %q: %w", value, err)
		}
		return cell.NewLong(v), nil
	case "char":
		runes := []rune(value)
		if len(runes) != 1 {
			return nil, fmt.Errorf("char value must be exactly one rune, got %q", value)
		}
		return cell.NewChar(runes[0]), nil
	case "string":
		return cell.NewString(value), nil
	case "keyword":
		return cell.NewKeyword(value), nil
	case "symbol":
		return cell.NewSymbol(value), nil
	case "address":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse address %q: %w", value, err)
		}
		return cell.NewAddress(v), nil
	case "blob":
		return cell.NewBlobFromBytes([]byte(value)), nil
	default:
		return nil, fmt.Errorf("unknown --kind %q (want bool, long, char, string, keyword, symbol, address, or blob)", kind)
	}
}
