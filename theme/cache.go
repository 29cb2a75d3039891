package theme

import (
	"slices"
	"sync"
)

const (
	// MaxCacheSize is the number of themes retained before eviction kicks in.
	MaxCacheSize = 20
	// MaxCacheOffset is the number of extra themes tolerated above
	// MaxCacheSize, also the number evicted at once on overflow.
	MaxCacheOffset = 5
)

type cacheValue struct {
	theme  *Theme
	access uint64
}

type cacheNode struct {
	children map[*Derivative]*cacheNode
	value    *cacheValue
}

func (n *cacheNode) empty() bool {
	return n.value == nil && len(n.children) == 0
}

// Cache maps ordered derivative lists to themes. The key is the exact list of
// derivative pointers, content equal functions never match.
type Cache struct {
	mu    sync.Mutex
	root  *cacheNode
	keys  [][]*Derivative
	calls uint64
}

// NewCache creates empty theme cache.
func NewCache() *Cache {
	return &Cache{root: &cacheNode{}}
}

// Size returns number of cached themes.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}

func (c *Cache) lookup(list []*Derivative) *cacheNode {
	n := c.root
	for _, d := range list {
		if n = n.children[d]; n == nil {
			return nil
		}
	}
	return n
}

// Get returns theme cached for list and marks it recently used.
func (c *Cache) Get(list []*Derivative) (*Theme, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.lookup(list)
	if n == nil || n.value == nil {
		return nil, false
	}
	c.calls++
	n.value.access = c.calls
	return n.value.theme, true
}

// Has reports whether list has a cached theme without touching its recency.
func (c *Cache) Has(list []*Derivative) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.lookup(list)
	return n != nil && n.value != nil
}

// Set stores theme for list. When the cache would grow above
// MaxCacheSize+MaxCacheOffset the MaxCacheOffset least recently used themes
// are evicted in one go.
func (c *Cache) Set(list []*Derivative, t *Theme) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := c.lookup(list); n == nil || n.value == nil {
		if len(c.keys)+1 > MaxCacheSize+MaxCacheOffset {
			c.evict(MaxCacheOffset)
		}
		c.keys = append(c.keys, slices.Clone(list))
	}

	n := c.root
	for _, d := range list {
		next := n.children[d]
		if next == nil {
			next = &cacheNode{}
			if n.children == nil {
				n.children = make(map[*Derivative]*cacheNode)
			}
			n.children[d] = next
		}
		n = next
	}
	c.calls++
	n.value = &cacheValue{theme: t, access: c.calls}
}

func (c *Cache) evict(count int) {
	type candidate struct {
		key    []*Derivative
		access uint64
	}
	candidates := make([]candidate, 0, len(c.keys))
	for _, k := range c.keys {
		candidates = append(candidates, candidate{key: k, access: c.lookup(k).value.access})
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		switch {
		case a.access < b.access:
			return -1
		case a.access > b.access:
			return 1
		}
		return 0
	})
	for i := 0; i < count && i < len(candidates); i++ {
		c.delete(candidates[i].key)
	}
}

// Delete removes theme cached for list and prunes nodes left empty.
func (c *Cache) Delete(list []*Derivative) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delete(list)
}

func (c *Cache) delete(list []*Derivative) bool {
	if n := c.lookup(list); n == nil || n.value == nil {
		return false
	}
	c.keys = slices.DeleteFunc(c.keys, func(k []*Derivative) bool {
		return slices.Equal(k, list)
	})

	trail := []*cacheNode{c.root}
	n := c.root
	for _, d := range list {
		n = n.children[d]
		trail = append(trail, n)
	}
	n.value = nil
	for i := len(list); i > 0; i-- {
		if !trail[i].empty() {
			break
		}
		delete(trail[i-1].children, list[i-1])
	}
	return true
}

// Reset drops everything.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.root = &cacheNode{}
	c.keys = nil
	c.calls = 0
}
