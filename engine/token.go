package engine

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cssinjs/sink"
	"cssinjs/theme"
	"cssinjs/token"
	"cssinjs/utils/murmur"
)

// CSSVarConfig turns token values into CSS variables.
type CSSVarConfig struct {
	// Key is the class variables are declared under. Generated from unit id
	// when empty.
	Key      string
	Prefix   string
	Unitless map[string]bool
	Ignore   map[string]bool
	Preserve map[string]bool
}

func (c *CSSVarConfig) flatten() string {
	if c == nil {
		return ""
	}
	return token.Flatten(map[string]any{
		"key":      c.Key,
		"prefix":   c.Prefix,
		"unitless": boolSet(c.Unitless),
		"ignore":   boolSet(c.Ignore),
		"preserve": boolSet(c.Preserve),
	})
}

func boolSet(m map[string]bool) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ComputeTokenFunc replaces default derivation of a token.
type ComputeTokenFunc func(seed, override token.Token, t *theme.Theme) token.Token

// TokenOptions controls UseCacheToken.
type TokenOptions struct {
	Salt             string
	Override         token.Token
	FormatToken      theme.FormatFunc
	GetComputedToken ComputeTokenFunc
	CSSVar           *CSSVarConfig
}

// cssVarPriority places variable declarations before any style.
const cssVarPriority = -999

// UseCacheToken derives token for theme from seed tokens merged left to
// right. Derivation happens once per distinct input. The first commit
// records the token in the context token registry and writes the CSS
// variable block, if any. Styles tagged with the token are purged once
// nobody references it.
func (u *Unit) UseCacheToken(t *theme.Theme, opts TokenOptions, tokens ...token.Token) (*token.Computed, error) {
	sc := u.sc
	if t == nil {
		t = sc.Theme()
	}

	cssVar := opts.CSSVar
	if cssVar != nil && cssVar.Key == "" {
		if u.id == "" {
			return nil, fmt.Errorf("css variables key: %w", ErrNoStableID)
		}
		cv := *cssVar
		cv.Key = "css-var-" + strings.ReplaceAll(u.id, ":", "")
		cssVar = &cv
	}

	merged := token.Merge(tokens...)
	path := fullPath(PrefixToken, []string{
		opts.Salt,
		fmt.Sprint(t.ID()),
		token.Flatten(merged),
		token.Flatten(opts.Override),
		cssVar.flatten(),
	})

	computed := sc.memo(path, func() any {
		return sc.computeToken(t, merged, opts, cssVar)
	}).(*token.Computed)

	u.register(&entry{
		path:   path,
		value:  computed,
		order:  cssVarPriority,
		effect: sc.tokenEffect,
		remove: sc.tokenRemove,
	})
	return computed, nil
}

func (sc *Context) computeToken(t *theme.Theme, merged token.Token, opts TokenOptions, cssVar *CSSVarConfig) *token.Computed {
	var derived token.Token
	if opts.GetComputedToken != nil {
		derived = opts.GetComputedToken(merged, opts.Override, t)
	} else {
		derived = theme.ComputeToken(merged, opts.Override, t, opts.FormatToken)
	}

	c := &token.Computed{
		Token:   derived,
		Real:    derived,
		RealKey: token.Key(derived, opts.Salt),
	}
	if cssVar != nil {
		c.Token, c.CSSVars = token.Transform(derived, cssVar.Key, token.TransformOptions{
			Prefix:   cssVar.Prefix,
			Ignore:   cssVar.Ignore,
			Unitless: cssVar.Unitless,
			Preserve: cssVar.Preserve,
		})
		c.CSSVarKey = cssVar.Key
	}
	c.Key = token.Key(c.Token, opts.Salt)
	c.ThemeKey = c.Key
	if cssVar != nil {
		c.ThemeKey = cssVar.Key
	}
	c.HashID = sc.HashPrefix() + "-" + murmur.Hash(c.Key)

	sc.log.Debug("Token computed", zap.String("key", c.Key), zap.String("hash", c.HashID))
	return c
}

// cssVarsID returns mark of token variable block.
func cssVarsID(themeKey string) string {
	return murmur.Hash("css-variables-" + themeKey)
}

func (sc *Context) tokenEffect(value any) {
	c := value.(*token.Computed)
	sc.reg.Tokens.Record(c.ThemeKey)

	if c.CSSVars == "" || sc.sink == nil {
		return
	}
	sc.sink.Insert(c.CSSVars, cssVarsID(c.ThemeKey), sink.InsertOptions{
		Prepend:  sink.Queue,
		Priority: cssVarPriority,
		AttachTo: sc.container,
		Owner:    sc.cache.InstanceID(),
		Attrs:    attrs(AttrToken, c.ThemeKey),
	})
}

func (sc *Context) tokenRemove(value any) {
	c := value.(*token.Computed)
	purged := sc.reg.Tokens.Release(c.ThemeKey)
	if len(purged) == 0 || sc.sink == nil {
		return
	}
	owner := sc.cache.InstanceID()
	for _, key := range purged {
		nodes := sc.sink.Query(sink.Selector{Attr: AttrToken, Value: key, Owner: owner})
		for _, n := range nodes {
			sc.sink.Detach(n)
		}
		sc.log.Debug("Token styles purged", zap.String("token", key), zap.Int("count", len(nodes)))
	}
}
