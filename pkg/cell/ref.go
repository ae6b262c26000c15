package cell

import (
	"sync"

	"github.com/certen/ledgercore/pkg/cellerr"
)

// Status is the monotone confidence lattice a Ref's target cell progresses
// through: UNKNOWN < EMBEDDED < STORED < PERSISTED < ANNOUNCED < VERIFIED.
// A ref's status only ever increases (§4.2).
type Status int

const (
	StatusUnknown Status = iota
	StatusEmbedded
	StatusStored
	StatusPersisted
	StatusAnnounced
	StatusVerified
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "UNKNOWN"
	case StatusEmbedded:
		return "EMBEDDED"
	case StatusStored:
		return "STORED"
	case StatusPersisted:
		return "PERSISTED"
	case StatusAnnounced:
		return "ANNOUNCED"
	case StatusVerified:
		return "VERIFIED"
	default:
		return "UNKNOWN"
	}
}

// Resolver fetches the canonical encoding for a hash from whatever storage
// a caller has available. pkg/store.Store implements this; pkg/cell stays
// free of any storage dependency so the core never blocks implicitly.
type Resolver interface {
	Resolve(hash Hash) (encoding []byte, found bool, err error)
}

// Ref is a reference to a cell: the target's hash always, an optional
// in-memory pointer to the decoded cell, and a status recording what the
// holder currently knows about the target's durability. Refs are the only
// mutable-looking value in this package — their internal state is a cache,
// never part of any cell's canonical identity (§4.2).
type Ref struct {
	mu     sync.Mutex
	hash   Hash
	hashOK bool
	cell   Cell
	status Status
}

// NewEmbeddedRef wraps a cell known to be embeddable as an EMBEDDED ref.
// Panics if the cell does not actually fit the embedding threshold —
// callers should use NewRef for the general case.
func NewEmbeddedRef(c Cell) *Ref {
	if !c.IsEmbedded() {
		panic("cell: NewEmbeddedRef given a non-embeddable cell")
	}
	return &Ref{cell: c, hash: c.Hash(), hashOK: true, status: StatusEmbedded}
}

// NewRef builds a ref around an in-memory cell, choosing EMBEDDED or
// UNKNOWN status according to whether the cell fits inline.
func NewRef(c Cell) *Ref {
	if c.IsEmbedded() {
		return NewEmbeddedRef(c)
	}
	return &Ref{cell: c, status: StatusUnknown}
}

// NewDehydratedRef builds a ref that carries only a hash — no cell value
// loaded yet — at the given initial status (typically STORED or higher,
// since the hash must have come from somewhere that vouches for it).
func NewDehydratedRef(hash Hash, status Status) *Ref {
	return &Ref{hash: hash, hashOK: true, status: status}
}

// Hash returns the target's content hash, computing and caching it from
// the held cell on first call if necessary.
func (r *Ref) Hash() Hash {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hashOK {
		return r.hash
	}
	r.hash = r.cell.Hash()
	r.hashOK = true
	return r.hash
}

// Status returns the ref's current confidence level.
func (r *Ref) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// PeekCell returns the target cell if it is already resident in memory,
// or nil without attempting any I/O.
func (r *Ref) PeekCell() Cell {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cell
}

// RaiseStatus advances the ref's status to s, a no-op if s is not an
// improvement. Used by pkg/store as writes and verifications complete.
func (r *Ref) RaiseStatus(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s > r.status {
		r.status = s
	}
}

// GetValue returns the target cell, resolving it via res if it is not
// already resident. A nil res with no resident cell fails fast with
// MissingData rather than blocking forever.
func (r *Ref) GetValue(res Resolver) (Cell, error) {
	r.mu.Lock()
	if r.cell != nil {
		c := r.cell
		r.mu.Unlock()
		return c, nil
	}
	h := r.hash
	hashOK := r.hashOK
	r.mu.Unlock()

	if !hashOK {
		return nil, cellerr.NewInvalidData("ref has neither a cell nor a hash")
	}
	if res == nil {
		return nil, cellerr.NewMissingData(h)
	}
	enc, found, err := res.Resolve(h)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, cellerr.NewMissingData(h)
	}
	c, err := Decode(enc)
	if err != nil {
		return nil, err
	}
	if c.Hash() != h {
		return nil, cellerr.NewInvalidData("resolved encoding does not hash to the requested ref")
	}

	r.mu.Lock()
	if r.cell == nil {
		r.cell = c
	}
	if r.status < StatusStored {
		r.status = StatusStored
	}
	r.mu.Unlock()
	return c, nil
}

// MapRefs walks c and every resident descendant, replacing each direct
// child ref with fn(ref), rebuilding any cell whose children actually
// changed. Cells that are not resident (dehydrated refs with no loaded
// cell) are left untouched by the recursion — fn itself may still choose
// to replace such a ref without inspecting its target.
func MapRefs(c Cell, fn func(*Ref) *Ref) Cell {
	children := c.Children()
	if len(children) == 0 {
		return c
	}
	newChildren := make([]*Ref, len(children))
	changed := false
	for i, ref := range children {
		mapped := fn(ref)
		if mapped == nil {
			mapped = ref
		}
		if target := mapped.PeekCell(); target != nil {
			rebuilt := MapRefs(target, fn)
			if rebuilt != target {
				mapped = NewRef(rebuilt)
			}
		}
		newChildren[i] = mapped
		if mapped != ref {
			changed = true
		}
	}
	if !changed {
		return c
	}
	return c.WithChildren(newChildren)
}

// encodeChildSlot writes ref as a child of some container: inline if the
// target is embedded, else as a ref-tag followed by the 32-byte hash. This
// is the "embedded-or-hash-ref" pattern used by every container kind.
func encodeChildSlot(buf []byte, ref *Ref) []byte {
	if ref.Status() == StatusEmbedded {
		if c := ref.PeekCell(); c != nil {
			return c.Encode(buf)
		}
	}
	buf = append(buf, byte(TagRef))
	h := ref.Hash()
	return append(buf, h[:]...)
}

// childSlotLen returns the exact length encodeChildSlot would append.
func childSlotLen(ref *Ref) int {
	if ref.Status() == StatusEmbedded {
		if c := ref.PeekCell(); c != nil {
			return c.EstimatedEncodingSize()
		}
	}
	return 1 + HashSize
}

// decodeChildSlot reads one child slot starting at data[pos]: either a
// ref-tag plus raw hash, or the full tag+payload of an embeddable cell.
func decodeChildSlot(data []byte, pos int) (*Ref, int, error) {
	if pos >= len(data) {
		return nil, 0, cellerr.NewBadFormat(pos, "truncated child slot")
	}
	if Tag(data[pos]) == TagRef {
		pos++
		if pos+HashSize > len(data) {
			return nil, 0, cellerr.NewBadFormat(pos, "truncated ref hash")
		}
		var h Hash
		copy(h[:], data[pos:pos+HashSize])
		pos += HashSize
		return NewDehydratedRef(h, StatusUnknown), pos, nil
	}
	c, newPos, err := decodeAt(data, pos)
	if err != nil {
		return nil, 0, err
	}
	if !c.IsEmbedded() {
		return nil, 0, cellerr.NewBadFormat(pos, "non-embeddable cell written inline as a child")
	}
	return NewEmbeddedRef(c), newPos, nil
}
