// Package cache implements the hierarchical, reference counted store every
// style registration lives in.
package cache

import (
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Separator joins path segments into a flat key.
const Separator = "%"

// Entry is a cached value together with the number of committed consumers.
type Entry struct {
	Refs  int
	Value any
}

type node struct {
	children map[string]*node
	entry    *Entry
	seq      uint64
}

func (n *node) empty() bool {
	return n.entry == nil && len(n.children) == 0
}

// Entity is a tree of cache entries keyed by path segments. Every style
// context owns one entity, nested contexts may share it.
type Entity struct {
	mu         sync.Mutex
	instanceID string
	root       *node
	seq        uint64
	extracted  map[string]struct{}
}

// New creates an empty cache. When instanceID is empty a new unique id is
// generated, it is attached to every sink node the cache owns.
func New(instanceID string) *Entity {
	if instanceID == "" {
		if id, err := uuid.NewV7(); err == nil {
			instanceID = id.String()
		} else {
			instanceID = uuid.NewString()
		}
	}
	return &Entity{
		instanceID: instanceID,
		root:       &node{},
		extracted:  make(map[string]struct{}),
	}
}

// InstanceID returns id of this cache instance.
func (e *Entity) InstanceID() string {
	return e.instanceID
}

// Get returns a copy of the entry stored at path.
func (e *Entity) Get(path []string) (Entry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.root
	for _, seg := range path {
		if n = n.children[seg]; n == nil {
			return Entry{}, false
		}
	}
	if n.entry == nil {
		return Entry{}, false
	}
	return *n.entry, true
}

// Update replaces entry at path with result of fn. fn receives nil when
// nothing is stored. Returning nil removes the entry and prunes intermediate
// nodes left empty. fn must not call back into the entity.
func (e *Entity) Update(path []string, fn func(prev *Entry) *Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	trail := make([]*node, 0, len(path)+1)
	n := e.root
	trail = append(trail, n)
	for _, seg := range path {
		next := n.children[seg]
		if next == nil {
			next = &node{}
			if n.children == nil {
				n.children = make(map[string]*node)
			}
			n.children[seg] = next
		}
		n = next
		trail = append(trail, n)
	}

	var prev *Entry
	if n.entry != nil {
		cp := *n.entry
		prev = &cp
	}

	next := fn(prev)
	switch {
	case next == nil:
		n.entry = nil
		delete(e.extracted, PathKey(path))
	case n.entry == nil:
		e.seq++
		n.seq = e.seq
		n.entry = next
	default:
		n.entry = next
	}

	// prune from the leaf up
	for i := len(path); i > 0; i-- {
		if !trail[i].empty() {
			break
		}
		delete(trail[i-1].children, path[i-1])
	}
}

// Keys returns paths of all stored entries in the order they were created.
func (e *Entity) Keys() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	type leaf struct {
		path []string
		seq  uint64
	}
	var leaves []leaf
	var walk func(n *node, path []string)
	walk = func(n *node, path []string) {
		if n.entry != nil {
			leaves = append(leaves, leaf{path: slices.Clone(path), seq: n.seq})
		}
		for seg, child := range n.children {
			walk(child, append(path, seg))
		}
	}
	walk(e.root, nil)

	slices.SortFunc(leaves, func(a, b leaf) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})

	keys := make([][]string, 0, len(leaves))
	for _, l := range leaves {
		keys = append(keys, l.path)
	}
	return keys
}

// Len returns number of stored entries.
func (e *Entity) Len() int {
	return len(e.Keys())
}

// MarkExtracted remembers that entry at path was already written out.
func (e *Entity) MarkExtracted(path []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.extracted[PathKey(path)] = struct{}{}
}

// Extracted reports whether entry at path was already written out.
func (e *Entity) Extracted(path []string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.extracted[PathKey(path)]
	return ok
}

// PathKey joins path segments into a flat key.
func PathKey(path []string) string {
	return strings.Join(path, Separator)
}

// Key formats a path segment. Numbers are formatted the shortest way which
// round trips, everything else through its string form.
func Key(v any) string {
	switch k := v.(type) {
	case string:
		return k
	case int:
		return strconv.Itoa(k)
	case int64:
		return strconv.FormatInt(k, 10)
	case uint64:
		return strconv.FormatUint(k, 10)
	case float64:
		return strconv.FormatFloat(k, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(k), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(k)
	case nil:
		return ""
	case interface{ String() string }:
		return k.String()
	}
	return ""
}
