// Package engine ties caches, themes, tokens and the style compiler together.
//
// Work is driven by units: a unit is a single consumer of styles which
// renders (computes everything it needs, possibly several times), commits
// (takes references and writes styles to the sink) and finally unmounts
// (drops references). Everything a render computes is memoized by content
// in the context cache so repeated renders are cheap and an abandoned render
// leaves nothing observable behind.
package engine

import (
	"sync"

	"go.uber.org/zap"

	"cssinjs/cache"
	"cssinjs/hydrate"
	"cssinjs/sink"
	"cssinjs/style"
	"cssinjs/style/lint"
	"cssinjs/theme"
	"cssinjs/token"
)

// Attributes set on style nodes in addition to sink attributes.
const (
	AttrToken = "data-token-hash"
	// AttrCachePath carries registration path of a style node in
	// development mode.
	AttrCachePath = "data-cache-path"
)

// Hash id prefixes.
const (
	DevHashPrefix  = "css-dev-only-do-not-override"
	ProdHashPrefix = "css"
)

// Side forces environment the context behaves as.
type Side int

const (
	// Auto is client side when context has a sink, server side otherwise.
	Auto Side = iota
	Server
	Client
)

// String implements fmt.Stringer.
func (s Side) String() string {
	switch s {
	case Server:
		return "server"
	case Client:
		return "client"
	default:
		return "auto"
	}
}

// Registries are process wide services shared by contexts derived from each
// other. All of them are safe for concurrent use.
type Registries struct {
	Themes  *theme.Registry
	Tokens  *token.Registry
	Layers  *LayerRegistry
	Hydrate *hydrate.State
	Effects *EffectRegistry
}

// NewRegistries creates fresh set of registries. Zero referenced token keys
// are purged once more than threshold of them accumulate.
func NewRegistries(log *zap.Logger, threshold int) *Registries {
	return &Registries{
		Themes:  theme.NewRegistry(log),
		Tokens:  token.NewRegistry(token.ThresholdPolicy(threshold)),
		Layers:  NewLayerRegistry(),
		Hydrate: hydrate.NewState(log),
		Effects: NewEffectRegistry(),
	}
}

// Reset returns every registry to initial state.
func (r *Registries) Reset() {
	r.Themes.Reset()
	r.Tokens.Reset()
	r.Layers.Reset()
	r.Hydrate.Reset()
	r.Effects.Reset()
}

// Context is the style context: cache, sink and compilation settings shared
// by units. Contexts are immutable once created, With derives new ones.
type Context struct {
	cache        *cache.Entity
	defaultCache bool
	sink         sink.Sink
	side         Side

	autoClear    bool
	hashPriority style.HashPriority
	container    string
	transformers []style.Transformer
	linters      []style.Linter
	layer        bool
	ssrInline    bool
	dev          bool
	composer     LayerComposer

	reg       *Registries
	threshold int
	log       *zap.Logger
}

// Option configures Context.
type Option func(*Context)

// WithCache makes context use provided cache instead of its own.
func WithCache(c *cache.Entity) Option {
	return func(sc *Context) {
		if c != nil {
			sc.cache = c
			sc.defaultCache = false
		}
	}
}

// WithSink sets the place styles are written to on the client side.
func WithSink(s sink.Sink) Option {
	return func(sc *Context) { sc.sink = s }
}

// WithSide forces server or client behavior.
func WithSide(side Side) Option {
	return func(sc *Context) { sc.side = side }
}

// WithAutoClear removes style nodes as soon as nobody uses them.
func WithAutoClear(on bool) Option {
	return func(sc *Context) { sc.autoClear = on }
}

// WithHashPriority selects how hash class is injected into selectors.
func WithHashPriority(p style.HashPriority) Option {
	return func(sc *Context) { sc.hashPriority = p }
}

// WithContainer names sink container styles are attached to.
func WithContainer(name string) Option {
	return func(sc *Context) { sc.container = name }
}

// WithTransformers replaces transformer pipeline.
func WithTransformers(t ...style.Transformer) Option {
	return func(sc *Context) { sc.transformers = t }
}

// WithLinters replaces linters used in development mode.
func WithLinters(l ...style.Linter) Option {
	return func(sc *Context) { sc.linters = l }
}

// WithLayer enables cascade layers.
func WithLayer(on bool) Option {
	return func(sc *Context) { sc.layer = on }
}

// WithSSRInline makes server side style registration emit inline style
// elements next to rendered nodes.
func WithSSRInline(on bool) Option {
	return func(sc *Context) { sc.ssrInline = on }
}

// WithDev switches development mode: linters run and hash ids are prefixed
// so they are not mistaken for stable class names.
func WithDev(on bool) Option {
	return func(sc *Context) { sc.dev = on }
}

// WithRegistries shares registries with other contexts.
func WithRegistries(r *Registries) Option {
	return func(sc *Context) {
		if r != nil {
			sc.reg = r
		}
	}
}

// WithLayerComposer replaces the strategy ordering cascade layers.
func WithLayerComposer(c LayerComposer) Option {
	return func(sc *Context) { sc.composer = c }
}

// WithTokenThreshold sets how many zero referenced token keys may accumulate
// before styles tagged with them are purged. Only used when context creates
// its own registries.
func WithTokenThreshold(n int) Option {
	return func(sc *Context) { sc.threshold = n }
}

// WithLogger sets logger.
func WithLogger(log *zap.Logger) Option {
	return func(sc *Context) {
		if log != nil {
			sc.log = log.Named("engine")
		}
	}
}

// New creates context with its own cache and registries unless options
// provide them.
func New(opts ...Option) *Context {
	sc := &Context{
		defaultCache: true,
		log:          zap.NewNop(),
	}
	for _, o := range opts {
		if o != nil {
			o(sc)
		}
	}
	if sc.reg == nil {
		sc.reg = NewRegistries(sc.log, sc.threshold)
	}
	if sc.cache == nil {
		sc.cache = NewCache(sc.sink)
	}
	if sc.IsClient() {
		// server cache map is read before anything renders
		sc.reg.Hydrate.Prepare(sc.sink)
	}
	return sc
}

// With derives nested context: options override settings, everything else
// (cache and registries included) is inherited.
func (sc *Context) With(opts ...Option) *Context {
	next := *sc
	next.transformers = append([]style.Transformer(nil), sc.transformers...)
	next.linters = append([]style.Linter(nil), sc.linters...)
	for _, o := range opts {
		if o != nil {
			o(&next)
		}
	}
	return &next
}

var (
	defaultOnce sync.Once
	defaultCtx  *Context
)

// Default returns process wide server side context.
func Default() *Context {
	defaultOnce.Do(func() {
		defaultCtx = New()
	})
	return defaultCtx
}

// NewCache creates cache instance. When sink can adopt server rendered
// styles they are taken over by the new instance.
func NewCache(s sink.Sink) *cache.Entity {
	c := cache.New("")
	if a, ok := s.(sink.Adopter); ok {
		a.Adopt(c.InstanceID())
	}
	return c
}

// Cache returns context cache.
func (sc *Context) Cache() *cache.Entity { return sc.cache }

// Sink returns context sink, may be nil.
func (sc *Context) Sink() sink.Sink { return sc.sink }

// Registries returns shared registries.
func (sc *Context) Registries() *Registries { return sc.reg }

// Log returns context logger.
func (sc *Context) Log() *zap.Logger { return sc.log }

// Dev reports development mode.
func (sc *Context) Dev() bool { return sc.dev }

// IsClient reports whether styles are written to sink.
func (sc *Context) IsClient() bool {
	switch sc.side {
	case Server:
		return false
	case Client:
		return sc.sink != nil
	}
	return sc.sink != nil
}

// HashPrefix returns prefix of generated hash ids.
func (sc *Context) HashPrefix() string {
	if sc.dev {
		return DevHashPrefix
	}
	return ProdHashPrefix
}

// Theme returns theme for derivatives from shared registry.
func (sc *Context) Theme(derivatives ...*theme.Derivative) *theme.Theme {
	return sc.reg.Themes.Create(derivatives...)
}

func (sc *Context) layerComposer() LayerComposer {
	if sc.composer == nil {
		return DependencyOrder
	}
	return sc.composer
}

func (sc *Context) activeLinters() []style.Linter {
	if !sc.dev {
		return nil
	}
	if len(sc.linters) == 0 {
		return lint.Defaults()
	}
	return sc.linters
}
