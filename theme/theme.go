// Package theme implements derivation pipelines turning seed tokens into
// derivative tokens, and the cache deduplicating them.
package theme

import (
	"sync/atomic"

	"go.uber.org/zap"

	"cssinjs/token"
)

// DerivativeFunc maps seed token into derivative token. prev holds result of
// derivatives applied before this one and is nil for the first function.
type DerivativeFunc func(seed, prev token.Token) token.Token

// Derivative is a named derivation step. Identity of the pointer is what
// themes are deduplicated by, so create derivatives once and reuse them.
type Derivative struct {
	name string
	fn   DerivativeFunc
}

// NewDerivative wraps fn.
func NewDerivative(name string, fn DerivativeFunc) *Derivative {
	return &Derivative{name: name, fn: fn}
}

// Name returns derivative name used in diagnostics.
func (d *Derivative) Name() string {
	return d.name
}

// Identity copies seed token over previous result.
var Identity = NewDerivative("identity", func(seed, prev token.Token) token.Token {
	return token.Merge(prev, seed)
})

var lastID atomic.Int64

// Theme is an ordered pipeline of derivatives.
type Theme struct {
	id          int
	derivatives []*Derivative
}

// New creates theme with a fresh id. Empty pipeline is a configuration error:
// a warning is logged and the theme degrades to identity.
func New(log *zap.Logger, derivatives ...*Derivative) *Theme {
	if len(derivatives) == 0 && log != nil {
		log.Warn("Theme created without derivatives, seed token will be used as is")
	}
	return &Theme{
		id:          int(lastID.Add(1)),
		derivatives: append([]*Derivative(nil), derivatives...),
	}
}

// ID returns stable numeric id of the theme.
func (t *Theme) ID() int {
	return t.id
}

// Derivatives returns copy of the pipeline.
func (t *Theme) Derivatives() []*Derivative {
	return append([]*Derivative(nil), t.derivatives...)
}

// DerivativeToken folds seed through the pipeline.
func (t *Theme) DerivativeToken(seed token.Token) token.Token {
	if len(t.derivatives) == 0 {
		return seed.Clone()
	}
	var result token.Token
	for _, d := range t.derivatives {
		result = d.fn(seed, result)
	}
	return result
}

// FormatFunc post-processes a merged derivative token.
type FormatFunc func(token.Token) token.Token

// ComputeToken derives token from seed, applies override on top and formats
// the result.
func ComputeToken(seed, override token.Token, t *Theme, format FormatFunc) token.Token {
	merged := token.Merge(t.DerivativeToken(seed), override)
	if format != nil {
		merged = format(merged)
	}
	return merged
}
