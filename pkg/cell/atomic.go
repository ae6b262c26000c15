package cell

import "sync/atomic"

// cachedBytes is a write-once-in-practice, read-mostly byte slice cache.
// A torn race just recomputes the same bytes twice; never observed
// partially written since atomic.Pointer publishes the whole slice header.
type cachedBytes struct {
	p atomic.Pointer[[]byte]
}

func (c *cachedBytes) load() ([]byte, bool) {
	if p := c.p.Load(); p != nil {
		return *p, true
	}
	return nil, false
}

func (c *cachedBytes) store(b []byte) {
	c.p.Store(&b)
}

// cachedHash is the analogous cache for a computed Hash.
type cachedHash struct {
	p atomic.Pointer[Hash]
}

func (c *cachedHash) load() (Hash, bool) {
	if p := c.p.Load(); p != nil {
		return *p, true
	}
	return Hash{}, false
}

func (c *cachedHash) store(h Hash) {
	c.p.Store(&h)
}
