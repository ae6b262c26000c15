// Copyright 2025 Certen Protocol

package store

import (
	"sync"

	"github.com/certen/ledgercore/pkg/cell"
)

// cellCache is a bounded LRU cache from hash to canonical encoding, used to
// avoid round-tripping a Backend for hot cells. Cells are immutable
// forever once written, so unlike the teacher's account cache this one has
// no TTL or expiration — only a capacity bound and access-order eviction.
type cellCache struct {
	mu          sync.RWMutex
	entries     map[cell.Hash][]byte
	accessOrder []cell.Hash // least recently used at index 0
	maxEntries  int
}

func newCellCache(maxEntries int) *cellCache {
	return &cellCache{
		entries:     make(map[cell.Hash][]byte),
		accessOrder: make([]cell.Hash, 0, maxEntries),
		maxEntries:  maxEntries,
	}
}

func (c *cellCache) get(h cell.Hash) ([]byte, bool) {
	if c.maxEntries == 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	enc, ok := c.entries[h]
	if ok {
		c.touch(h)
	}
	return enc, ok
}

func (c *cellCache) put(h cell.Hash, enc []byte) {
	if c.maxEntries == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[h]; !exists {
		c.evictIfFull()
	}
	c.entries[h] = enc
	c.touch(h)
}

// touch moves h to the most-recently-used end of accessOrder.
func (c *cellCache) touch(h cell.Hash) {
	for i, existing := range c.accessOrder {
		if existing == h {
			c.accessOrder = append(c.accessOrder[:i], c.accessOrder[i+1:]...)
			break
		}
	}
	c.accessOrder = append(c.accessOrder, h)
}

func (c *cellCache) evictIfFull() {
	for len(c.entries) >= c.maxEntries && len(c.accessOrder) > 0 {
		lru := c.accessOrder[0]
		c.accessOrder = c.accessOrder[1:]
		delete(c.entries, lru)
	}
}
