package engine

import (
	"slices"
	"strings"
	"sync"

	"cssinjs/style"
)

// LayerComposer orders cascade layers. layers are in first seen order, deps
// maps layer to layers it must come after.
type LayerComposer func(layers []string, deps map[string][]string) []string

// DependencyOrder puts dependencies before dependents keeping first seen
// order otherwise. Cycles are broken at the first repeated layer.
func DependencyOrder(layers []string, deps map[string][]string) []string {
	out := make([]string, 0, len(layers))
	visited := make(map[string]bool, len(layers))
	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		for _, d := range deps[name] {
			visit(d)
		}
		out = append(out, name)
	}
	for _, l := range layers {
		visit(l)
	}
	return out
}

// LayerRegistry remembers every cascade layer used so a single ordering rule
// can be emitted for all of them.
type LayerRegistry struct {
	mu     sync.Mutex
	layers []string
	deps   map[string][]string
}

// NewLayerRegistry creates empty registry.
func NewLayerRegistry() *LayerRegistry {
	return &LayerRegistry{deps: make(map[string][]string)}
}

// Add records layer and its dependencies. Returns true when a new layer or
// dependency edge appeared and the ordering rule has to be emitted again.
func (r *LayerRegistry) Add(l *style.Layer) bool {
	if l == nil || l.Name == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	add := func(name string) {
		if !slices.Contains(r.layers, name) {
			r.layers = append(r.layers, name)
			changed = true
		}
	}
	add(l.Name)
	for _, d := range l.Dependencies {
		if d == "" || d == l.Name {
			continue
		}
		add(d)
		if !slices.Contains(r.deps[l.Name], d) {
			r.deps[l.Name] = append(r.deps[l.Name], d)
			changed = true
		}
	}
	return changed
}

// Order returns layers ordered by composer.
func (r *LayerRegistry) Order(composer LayerComposer) []string {
	r.mu.Lock()
	layers := slices.Clone(r.layers)
	deps := make(map[string][]string, len(r.deps))
	for k, v := range r.deps {
		deps[k] = slices.Clone(v)
	}
	r.mu.Unlock()

	if composer == nil {
		composer = DependencyOrder
	}
	return composer(layers, deps)
}

// Rule returns `@layer a,b;` ordering rule or empty string when no layer
// was used.
func (r *LayerRegistry) Rule(composer LayerComposer) string {
	order := r.Order(composer)
	if len(order) == 0 {
		return ""
	}
	return "@layer " + strings.Join(order, ",") + ";"
}

// Reset forgets all layers.
func (r *LayerRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layers = nil
	r.deps = make(map[string][]string)
}

// EffectRegistry remembers effects (keyframes) already written to a sink by
// a cache instance.
type EffectRegistry struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewEffectRegistry creates empty registry.
func NewEffectRegistry() *EffectRegistry {
	return &EffectRegistry{seen: make(map[string]bool)}
}

// Mark records effect key for owner, returns false when it was recorded
// before.
func (r *EffectRegistry) Mark(owner, key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := owner + "|" + key
	if r.seen[k] {
		return false
	}
	r.seen[k] = true
	return true
}

// Reset forgets all effects.
func (r *EffectRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = make(map[string]bool)
}
