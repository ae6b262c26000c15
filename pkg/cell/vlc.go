package cell

import "github.com/certen/ledgercore/pkg/cellerr"

// appendVLC appends v as a variable-length code: 7 data bits per byte, most
// significant group first, with the continuation bit (0x80) set on every
// byte except the last. This is the canonical encoding for every
// count/length field in the wire format — e.g. Address(128) encodes as
// 0x81 0x00 (§8).
func appendVLC(buf []byte, v uint64) []byte {
	// Collect 7-bit groups from least to most significant, then emit
	// most-significant first.
	var groups [10]byte // ceil(64/7) = 10
	n := 0
	for {
		groups[n] = byte(v & 0x7F)
		v >>= 7
		n++
		if v == 0 {
			break
		}
	}
	for i := n - 1; i > 0; i-- {
		buf = append(buf, groups[i]|0x80)
	}
	return append(buf, groups[0])
}

// vlcLen returns the number of bytes appendVLC(nil, v) would produce.
func vlcLen(v uint64) int {
	n := 1
	v >>= 7
	for v != 0 {
		n++
		v >>= 7
	}
	return n
}

// readVLC decodes a variable-length code starting at data[pos]. It returns
// the decoded value and the position just past the encoding.
func readVLC(data []byte, pos int) (uint64, int, error) {
	var v uint64
	start := pos
	count := 0
	for {
		if pos >= len(data) {
			return 0, 0, cellerr.NewBadFormat(start, "truncated VLC")
		}
		b := data[pos]
		pos++
		count++
		if count > 10 {
			return 0, 0, cellerr.NewBadFormat(start, "VLC overflow")
		}
		v = (v << 7) | uint64(b&0x7F)
		if b&0x80 == 0 {
			return v, pos, nil
		}
	}
}
