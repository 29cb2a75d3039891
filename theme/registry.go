package theme

import (
	"sync"

	"go.uber.org/zap"
)

// Registry creates themes, returning the same instance for the same ordered
// list of derivatives.
type Registry struct {
	mu    sync.Mutex
	cache *Cache
	log   *zap.Logger
}

// NewRegistry returns registry backed by a fresh Cache.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{cache: NewCache(), log: log.Named("theme")}
}

// Create returns cached theme for derivatives or constructs a new one.
func (r *Registry) Create(derivatives ...*Derivative) *Theme {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.cache.Get(derivatives); ok {
		return t
	}
	t := New(r.log, derivatives...)
	r.cache.Set(derivatives, t)
	r.log.Debug("Theme created", zap.Int("id", t.ID()), zap.Int("derivatives", len(derivatives)))
	return t
}

// Cache exposes the underlying theme cache.
func (r *Registry) Cache() *Cache {
	return r.cache
}

// Reset drops all cached themes.
func (r *Registry) Reset() {
	r.cache.Reset()
}
