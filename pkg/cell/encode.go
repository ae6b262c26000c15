package cell

import "github.com/certen/ledgercore/pkg/cellerr"

// Decode parses the canonical encoding of a single top-level cell. Trailing
// bytes after the encoding are an error — Decode is used for whole stored
// values, never for parsing a stream.
func Decode(data []byte) (Cell, error) {
	c, pos, err := decodeAt(data, 0)
	if err != nil {
		return nil, err
	}
	if pos != len(data) {
		return nil, cellerr.NewBadFormat(pos, "trailing bytes after cell encoding")
	}
	return c, nil
}

// decodeAt parses one cell's tag + payload starting at data[pos] and
// returns the position just past it. Used both by Decode and recursively
// by decodeChildSlot for cells written inline.
func decodeAt(data []byte, pos int) (Cell, int, error) {
	if pos >= len(data) {
		return nil, 0, cellerr.NewBadFormat(pos, "truncated cell: missing tag byte")
	}
	tag := Tag(data[pos])
	body := pos + 1
	switch tag {
	case TagFalse:
		c, n := decodeBool(false)
		return c, pos + n, nil
	case TagTrue:
		c, n := decodeBool(true)
		return c, pos + n, nil
	case TagLong:
		return decodeLong(data, body)
	case TagChar:
		return decodeChar(data, body)
	case TagString:
		return decodeString(data, body)
	case TagBlob:
		return decodeBlob(data, body)
	case TagBlobTree:
		return decodeBlobTree(data, body)
	case TagAddress:
		return decodeAddress(data, body)
	case TagKeyword:
		return decodeKeyword(data, body)
	case TagSymbol:
		return decodeSymbol(data, body)
	case TagMapLeaf:
		return decodeMapLeaf(false, data, body)
	case TagMapTree:
		return decodeMapTree(false, data, body)
	case TagSetLeaf:
		return decodeMapLeaf(true, data, body)
	case TagSetTree:
		return decodeMapTree(true, data, body)
	case TagVector:
		return decodeVector(data, body)
	case TagVectorNode:
		return decodeVectorNode(data, body)
	default:
		if tag >= TagRecordBase && tag <= TagRecordMax {
			return decodeRecord(tag, data, body)
		}
		return nil, 0, cellerr.NewBadFormat(pos, "unknown tag")
	}
}
