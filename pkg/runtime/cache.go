package runtime

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/lemonberrylabs/timecalc/pkg/types"
)

// cacheEntry is one memoized evaluation. Errors are cached as well: the
// calculator is a pure function of its input.
type cacheEntry struct {
	input string
	value types.Value
	err   error
}

// resultCache is a bounded FIFO cache of evaluation results keyed by the
// xxhash of the input. Entries store the input to rule out hash collisions.
type resultCache struct {
	mu      sync.Mutex
	size    int
	entries map[uint64]cacheEntry
	order   []uint64
}

func newResultCache(size int) *resultCache {
	if size < 1 {
		return nil
	}
	return &resultCache{
		size:    size,
		entries: make(map[uint64]cacheEntry, size),
	}
}

func (c *resultCache) get(input string) (cacheEntry, bool) {
	if c == nil {
		return cacheEntry{}, false
	}
	key := xxhash.Sum64String(input)

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.input != input {
		return cacheEntry{}, false
	}
	return e, true
}

func (c *resultCache) put(input string, v types.Value, err error) {
	if c == nil {
		return
	}
	key := xxhash.Sum64String(input)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{input: input, value: v, err: err}

	for len(c.order) > c.size {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
}

func (c *resultCache) len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
