package engine

import (
	"fmt"
	"strings"

	"cssinjs/sink"
	"cssinjs/token"
	"cssinjs/utils/murmur"
)

// CSSVarInfo describes CSS variable registration.
type CSSVarInfo struct {
	Path []string
	// Key is the class variables are declared under. Generated from unit id
	// when empty.
	Key      string
	Token    *token.Computed
	Prefix   string
	Unitless map[string]bool
	Ignore   map[string]bool
	// Scope classes narrow the selector, empty ones are skipped.
	Scope []string
}

// CSSVarResult is the outcome of UseCSSVarRegister.
type CSSVarResult struct {
	// Token has values replaced with var() references.
	Token   token.Token
	CSSVars string
	StyleID string
	Key     string
}

// UseCSSVarRegister declares values of the token built by build as CSS
// variables under key class. The declaration block is written to the sink on
// commit and removed once nobody references it.
func (u *Unit) UseCSSVarRegister(info CSSVarInfo, build func() token.Token) (CSSVarResult, error) {
	sc := u.sc
	key := info.Key
	if key == "" {
		if u.id == "" {
			return CSSVarResult{}, fmt.Errorf("css variables key: %w", ErrNoStableID)
		}
		key = "css-var-" + strings.ReplaceAll(u.id, ":", "")
	}

	keyPath := append(append([]string(nil), info.Path...), key, strings.Join(info.Scope, " "), info.Token.TokenKey())
	path := fullPath(PrefixCSSVar, keyPath)

	v := sc.memo(path, func() any {
		var t token.Token
		if build != nil {
			t = build()
		}
		vt, vars := token.Transform(t, key, token.TransformOptions{
			Prefix:   info.Prefix,
			Ignore:   info.Ignore,
			Unitless: info.Unitless,
			Scope:    info.Scope,
		})
		return &CSSVarResult{
			Token:   vt,
			CSSVars: vars,
			StyleID: murmur.Hash(strings.Join(keyPath, "%") + vars),
			Key:     key,
		}
	}).(*CSSVarResult)

	u.register(&entry{
		path:   path,
		value:  v,
		order:  cssVarPriority,
		effect: func(value any) { sc.cssVarEffect(value.(*CSSVarResult)) },
		remove: func(value any) { sc.cssVarRemove(value.(*CSSVarResult)) },
	})
	return *v, nil
}

func (sc *Context) cssVarEffect(v *CSSVarResult) {
	if v.CSSVars == "" || sc.sink == nil || !sc.IsClient() {
		return
	}
	sc.sink.Insert(v.CSSVars, v.StyleID, sink.InsertOptions{
		Prepend:  sink.Queue,
		Priority: cssVarPriority,
		AttachTo: sc.container,
		Owner:    sc.cache.InstanceID(),
		Attrs:    attrs(AttrToken, v.Key),
	})
}

func (sc *Context) cssVarRemove(v *CSSVarResult) {
	if sc.sink == nil || !sc.IsClient() {
		return
	}
	sc.sink.Remove(v.StyleID, sink.RemoveOptions{AttachTo: sc.container, Owner: sc.cache.InstanceID()})
}
