package engine

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"cssinjs/hydrate"
	"cssinjs/sink"
	"cssinjs/style"
	"cssinjs/theme"
	"cssinjs/token"
	"cssinjs/utils/murmur"
)

// StyleInfo identifies a style registration.
type StyleInfo struct {
	Theme *theme.Theme
	Token *token.Computed
	// HashID scopes selectors, usually Token.HashID.
	HashID string
	Path   []string
	Layer  *style.Layer
	// Order is sink priority, lower is inserted first.
	Order      int
	ClientOnly bool
	Nonce      string
}

// styleValue is what a style registration caches.
type styleValue struct {
	css        string
	id         string
	tokenKey   string
	path       []string
	effects    []style.Effect
	clientOnly bool
	order      int
	// adopted holds server rendered node reused on the client
	adopted *sink.Node
	layer   bool
}

// Marks of auxiliary style nodes.
const (
	layerOrderID = "_layer-order"
	effectPrefix = "_effect-"
)

func attrs(kv ...string) []html.Attribute {
	out := make([]html.Attribute, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			continue
		}
		out = append(out, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return out
}

// stylePath returns registration path without type prefix.
func (sc *Context) stylePath(info StyleInfo) []string {
	var path []string
	if sc.layer && info.Layer != nil && info.Layer.Name != "" {
		path = append(path, "layer:"+info.Layer.Name)
	}
	path = append(path, info.Path...)
	if info.HashID != "" {
		return append(path, info.HashID)
	}
	return append(path, info.Token.TokenKey())
}

// UseStyleRegister compiles styles returned by build, at most once while the
// registration is cached, and writes them to the sink on commit. Returned
// function wraps rendered markup: on the server with inline rendering enabled
// it prepends the style element, otherwise markup is returned as is.
func (u *Unit) UseStyleRegister(info StyleInfo, build func() style.Interpolation) func(node string) string {
	sc := u.sc
	keyPath := sc.stylePath(info)
	path := fullPath(PrefixStyle, keyPath)

	v := sc.memo(path, func() any {
		return sc.compileStyle(info, keyPath, build)
	}).(*styleValue)

	u.register(&entry{
		path:   path,
		value:  v,
		order:  info.Order,
		effect: func(value any) { sc.styleEffect(value.(*styleValue), info.Nonce) },
		remove: func(value any) { sc.styleRemove(value.(*styleValue)) },
	})

	if !sc.ssrInline || sc.IsClient() || !sc.defaultCache {
		return func(node string) string { return node }
	}
	inline := sink.RenderStyle(v.css, attrs(AttrToken, v.tokenKey, sink.AttrMark, v.id))
	return func(node string) string { return inline + node }
}

func (sc *Context) compileStyle(info StyleInfo, keyPath []string, build func() style.Interpolation) *styleValue {
	v := &styleValue{
		tokenKey:   info.Token.TokenKey(),
		path:       keyPath,
		clientOnly: info.ClientOnly,
		order:      info.Order,
	}

	if sc.IsClient() {
		r := sc.reg.Hydrate.Lookup(sc.sink, hydrate.Key(keyPath))
		if r.Status == hydrate.Adopted {
			v.css, v.id, v.adopted = r.CSS, r.Hash, r.Node
			sc.log.Debug("Style adopted", zap.Strings("path", keyPath), zap.String("id", v.id))
			return v
		}
	}

	cfg := style.Config{
		HashID:       info.HashID,
		HashPriority: sc.hashPriority,
		Path:         strings.Join(info.Path, "-"),
		Transformers: sc.transformers,
		Linters:      sc.activeLinters(),
		Lint:         sc.dev,
		Log:          sc.log,
	}
	if sc.layer && info.Layer != nil && info.Layer.Name != "" {
		cfg.Layer = info.Layer
		v.layer = true
		sc.reg.Layers.Add(info.Layer)
	}

	var interp style.Interpolation
	if build != nil {
		interp = build()
	}
	res := style.Compile(interp, cfg)
	v.css = res.CSS
	v.effects = res.Effects
	v.id = murmur.Hash(strings.Join(keyPath, "%") + v.css)
	return v
}

func (sc *Context) styleEffect(v *styleValue, nonce string) {
	if sc.sink == nil || !sc.IsClient() || v.css == hydrate.CSSFileStyle {
		return
	}
	owner := sc.cache.InstanceID()

	if v.adopted != nil {
		sc.sink.Claim(v.adopted, owner)
		return
	}

	opts := sink.InsertOptions{
		Prepend:  sink.Queue,
		Priority: v.order,
		Nonce:    nonce,
		AttachTo: sc.container,
		Owner:    owner,
	}
	if v.layer {
		opts.Prepend, opts.Priority = sink.Append, 0
		if rule := sc.reg.Layers.Rule(sc.layerComposer()); rule != "" {
			first := opts
			first.Prepend = sink.PrependFirst
			sc.sink.Insert(rule, layerOrderID, first)
		}
	}

	styleOpts := opts
	styleOpts.Attrs = attrs(AttrToken, v.tokenKey)
	if sc.dev {
		styleOpts.Attrs = append(styleOpts.Attrs, attrs(AttrCachePath, hydrate.Key(v.path))...)
	}
	sc.sink.Insert(v.css, v.id, styleOpts)

	for _, e := range v.effects {
		if !sc.reg.Effects.Mark(owner, e.Key) {
			continue
		}
		sc.sink.Insert(e.CSS, effectPrefix+e.Key, opts)
	}
}

func (sc *Context) styleRemove(v *styleValue) {
	if !sc.autoClear || sc.sink == nil || !sc.IsClient() {
		return
	}
	if v.adopted != nil {
		sc.sink.Detach(v.adopted)
		return
	}
	sc.sink.Remove(v.id, sink.RemoveOptions{AttachTo: sc.container, Owner: sc.cache.InstanceID()})
}
