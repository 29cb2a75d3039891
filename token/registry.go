package token

import (
	"slices"
	"sync"
)

// PurgePolicy decides whether zero referenced keys should be purged now.
// live is the number of keys still referenced, idle the number of keys whose
// reference count dropped to zero.
type PurgePolicy func(live, idle int) bool

// ThresholdPolicy purges once more than threshold keys are idle. Zero means
// purge immediately.
func ThresholdPolicy(threshold int) PurgePolicy {
	return func(_, idle int) bool {
		return idle > threshold
	}
}

// Registry counts committed users of every token key so styles generated for
// a token can be removed once nobody uses it. Removal is batched by policy.
type Registry struct {
	mu     sync.Mutex
	counts map[string]int
	order  []string
	policy PurgePolicy
}

// NewRegistry creates registry with the given purge policy, nil means
// ThresholdPolicy(0).
func NewRegistry(policy PurgePolicy) *Registry {
	if policy == nil {
		policy = ThresholdPolicy(0)
	}
	return &Registry{
		counts: make(map[string]int),
		policy: policy,
	}
}

// Record adds a user of key.
func (r *Registry) Record(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.counts[key]; !ok {
		r.order = append(r.order, key)
	}
	r.counts[key]++
}

// Release removes a user of key and returns keys which should be purged now,
// in the order they were first recorded. Returned keys are forgotten.
func (r *Registry) Release(key string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.counts[key]; !ok {
		r.order = append(r.order, key)
	}
	r.counts[key]--

	var idle []string
	for _, k := range r.order {
		if r.counts[k] <= 0 {
			idle = append(idle, k)
		}
	}
	if len(idle) == 0 || !r.policy(len(r.order)-len(idle), len(idle)) {
		return nil
	}

	for _, k := range idle {
		delete(r.counts, k)
	}
	r.order = slices.DeleteFunc(r.order, func(k string) bool {
		_, ok := r.counts[k]
		return !ok
	})
	return idle
}

// Count returns number of users of key.
func (r *Registry) Count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[key]
}

// Pending returns keys which have no users but were not purged yet.
func (r *Registry) Pending() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var idle []string
	for _, k := range r.order {
		if r.counts[k] <= 0 {
			idle = append(idle, k)
		}
	}
	return idle
}

// Reset forgets all keys.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = make(map[string]int)
	r.order = nil
}
