package engine

import (
	"slices"

	"go.uber.org/zap"

	"cssinjs/cache"
)

// Cache key prefixes, one per kind of registration.
const (
	PrefixStyle  = "style"
	PrefixToken  = "token"
	PrefixCSSVar = "cssVar"
)

// entry is a single registration made during render. It is turned into a
// cache reference on commit.
type entry struct {
	path  []string
	value any
	order int
	// effect writes value to the sink, runs when the first reference is taken
	effect func(value any)
	// remove cleans up after the last reference is dropped
	remove func(value any)
}

func (e *entry) key() string {
	return cache.PathKey(e.path)
}

// fullPath prepends prefix to key path.
func fullPath(prefix string, keyPath []string) []string {
	return append([]string{prefix}, keyPath...)
}

// memo returns value cached at path computing it with build when missing.
// build runs without holding the cache lock so it may use the cache itself.
// Reference count is not touched.
func (sc *Context) memo(path []string, build func() any) any {
	if e, ok := sc.cache.Get(path); ok {
		return e.Value
	}
	value := build()

	var result any
	sc.cache.Update(path, func(prev *cache.Entry) *cache.Entry {
		if prev != nil {
			// somebody else computed the same content meanwhile
			result = prev.Value
			return prev
		}
		result = value
		return &cache.Entry{Value: value}
	})
	return result
}

// acquire takes a reference on entry. Effect runs when entry had no
// references. Entry dropped from cache between render and commit is put back.
func (sc *Context) acquire(e *entry) {
	first := false
	value := e.value
	sc.cache.Update(e.path, func(prev *cache.Entry) *cache.Entry {
		if prev == nil {
			first = true
			return &cache.Entry{Refs: 1, Value: value}
		}
		if prev.Refs == 0 {
			first = true
		}
		value = prev.Value
		prev.Refs++
		return prev
	})
	if first && e.effect != nil {
		e.effect(value)
	}
}

// release drops a reference on entry removing it from cache when it was the
// last one.
func (sc *Context) release(e *entry) {
	removed := false
	var value any
	sc.cache.Update(e.path, func(prev *cache.Entry) *cache.Entry {
		if prev == nil {
			return nil
		}
		value = prev.Value
		if prev.Refs <= 1 {
			removed = true
			return nil
		}
		prev.Refs--
		return prev
	})
	if removed {
		sc.log.Debug("Cache entry removed", zap.Strings("path", e.path))
		if e.remove != nil {
			e.remove(value)
		}
	}
}

// sortEntries orders entries by order keeping registration order for equal
// ones.
func sortEntries(entries []*entry) []*entry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b *entry) int {
		return a.order - b.order
	})
	return sorted
}
