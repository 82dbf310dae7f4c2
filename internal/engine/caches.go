package engine

import "github.com/funvibe/runic/internal/module"

// fnResolutionEntry is one memoized lookup. A nil fn records a definitive
// "not found" so repeated failing lookups also skip the module-chain scan.
type fnResolutionEntry struct {
	fn     *module.Func
	source string
}

// fnResolutionCache memoizes hash → resolution within one evaluation run.
// A hash is cached only on its second encounter: "one-hit wonders" (hashes
// resolved exactly once and never reused) never occupy memory.
type fnResolutionCache struct {
	entries map[uint64]*fnResolutionEntry
	seen    map[uint64]struct{}
}

func newFnResolutionCache() *fnResolutionCache {
	return &fnResolutionCache{
		entries: make(map[uint64]*fnResolutionEntry),
		seen:    make(map[uint64]struct{}),
	}
}

// lookup returns the memoized entry, if the hash was resolved before.
func (c *fnResolutionCache) lookup(hash uint64) (*fnResolutionEntry, bool) {
	e, ok := c.entries[hash]
	return e, ok
}

// record stores the result of a resolution. Only the second encounter of
// a hash is stored; the first just marks the hash as seen.
func (c *fnResolutionCache) record(hash uint64, e *fnResolutionEntry) {
	if _, ok := c.seen[hash]; ok {
		c.entries[hash] = e
		return
	}
	c.seen[hash] = struct{}{}
}

// Caches bundles the per-run system caches. Native re-entry pushes a new
// resolution cache when the visible module chain changes.
type Caches struct {
	stack []*fnResolutionCache
}

func newCaches() *Caches { return &Caches{} }

func (c *Caches) fnResolution() *fnResolutionCache {
	if len(c.stack) == 0 {
		c.stack = append(c.stack, newFnResolutionCache())
	}
	return c.stack[len(c.stack)-1]
}

func (c *Caches) pushFnResolution() { c.stack = append(c.stack, newFnResolutionCache()) }

func (c *Caches) rewindFnResolution(n int) {
	if n < len(c.stack) {
		c.stack = c.stack[:n]
	}
}

func (c *Caches) len() int { return len(c.stack) }
