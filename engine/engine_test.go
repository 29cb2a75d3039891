package engine_test

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"cssinjs/engine"
	"cssinjs/sink"
	"cssinjs/style"
	"cssinjs/theme"
	"cssinjs/token"
	"cssinjs/utils/murmur"
)

func obj(kv ...any) style.Object {
	o := make(style.Object, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		o = append(o, style.Prop{Key: kv[i].(string), Value: kv[i+1]})
	}
	return o
}

func client(opts ...engine.Option) (*engine.Context, *sink.Document) {
	doc := sink.NewDocument(zap.NewNop())
	return engine.New(append([]engine.Option{engine.WithSink(doc)}, opts...)...), doc
}

func render(t *testing.T, u *engine.Unit, fn func() error) {
	t.Helper()
	if err := u.Render(fn); err != nil {
		t.Fatalf("render: %v", err)
	}
}

var seed = token.Token{"primaryColor": "#1890ff"}

// boxUnit registers token and a single style at path "box".
func boxUnit(t *testing.T, sc *engine.Context, id string, builds *int) (*engine.Unit, *token.Computed) {
	t.Helper()
	u := sc.NewUnit(id)
	var tok *token.Computed
	render(t, u, func() error {
		var err error
		tok, err = u.UseCacheToken(sc.Theme(theme.Identity), engine.TokenOptions{}, seed)
		if err != nil {
			return err
		}
		u.UseStyleRegister(engine.StyleInfo{Token: tok, Path: []string{"box"}}, func() style.Interpolation {
			if builds != nil {
				*builds++
			}
			return obj(".box", obj(
				"width", 93,
				"lineHeight", 1,
				"backgroundColor", tok.Get("primaryColor"),
			))
		})
		return nil
	})
	return u, tok
}

func TestScenario_Box(t *testing.T) {
	sc, doc := client()
	u, tok := boxUnit(t, sc, "box", nil)
	u.Commit()

	nodes := doc.Nodes(sink.Head)
	if len(nodes) != 1 {
		t.Fatalf("expected single style, got %d", len(nodes))
	}
	if got, want := nodes[0].CSS(), ".box{width:93px;line-height:1;background-color:#1890ff;}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if v, _ := nodes[0].Attr(engine.AttrToken); v != tok.Key {
		t.Errorf("token attribute %q, want %q", v, tok.Key)
	}
	if v, _ := nodes[0].Attr(sink.AttrOrder); v != "prependQueue" {
		t.Errorf("order attribute %q", v)
	}
	if nodes[0].Owner() != sc.Cache().InstanceID() {
		t.Errorf("owner %q", nodes[0].Owner())
	}
	if !strings.HasPrefix(tok.HashID, engine.ProdHashPrefix+"-") {
		t.Errorf("hash id %q", tok.HashID)
	}
}

func TestRender_Idempotent(t *testing.T) {
	sc, doc := client()
	var builds int
	u, _ := boxUnit(t, sc, "a", &builds)
	boxUnit(t, sc, "a", &builds)

	if builds != 1 {
		t.Errorf("style built %d times", builds)
	}
	if s := doc.Stats(); s.Inserted != 0 {
		t.Fatalf("render must not touch sink: %+v", s)
	}

	u.Commit()
	u.Commit()
	render(t, u, func() error { return nil })
	u2, _ := boxUnit(t, sc, "a", &builds)
	u2.Commit()

	if builds != 1 {
		t.Errorf("style built %d times", builds)
	}
	if s := doc.Stats(); s.Inserted != 1 || s.Updated != 0 {
		t.Errorf("stats %+v", s)
	}
}

func TestAbandonedRender(t *testing.T) {
	sc, doc := client()
	_, tok := boxUnit(t, sc, "a", nil)

	if s := doc.Stats(); s != (sink.Stats{}) {
		t.Errorf("sink touched: %+v", s)
	}
	if n := sc.Registries().Tokens.Count(tok.ThemeKey); n != 0 {
		t.Errorf("token counted %d times", n)
	}
	for _, path := range sc.Cache().Keys() {
		e, _ := sc.Cache().Get(path)
		if e.Refs != 0 {
			t.Errorf("%v has %d references", path, e.Refs)
		}
	}
}

func TestRefCount_AutoClear(t *testing.T) {
	sc, doc := client(engine.WithAutoClear(true), engine.WithTokenThreshold(10))
	u1, tok := boxUnit(t, sc, "a", nil)
	u2, _ := boxUnit(t, sc, "b", nil)
	u1.Commit()
	u2.Commit()

	path := []string{engine.PrefixStyle, "box", tok.Key}
	if e, ok := sc.Cache().Get(path); !ok || e.Refs != 2 {
		t.Fatalf("entry %+v %v", e, ok)
	}
	if n := sc.Registries().Tokens.Count(tok.ThemeKey); n != 1 {
		t.Errorf("token counted %d times", n)
	}

	u1.Unmount()
	if len(doc.Nodes(sink.Head)) != 1 {
		t.Fatal("style removed while still referenced")
	}
	u2.Unmount()
	if n := len(doc.Nodes(sink.Head)); n != 0 {
		t.Errorf("%d styles left", n)
	}
	if n := sc.Cache().Len(); n != 0 {
		t.Errorf("%d cache entries left", n)
	}
}

func TestTokenPurge(t *testing.T) {
	sc, doc := client()
	u, _ := boxUnit(t, sc, "a", nil)
	u.Commit()
	u.Unmount()
	if n := len(doc.Nodes(sink.Head)); n != 0 {
		t.Errorf("token styles not purged, %d left", n)
	}
}

func TestTokenPurge_Threshold(t *testing.T) {
	sc, doc := client(engine.WithTokenThreshold(1))

	mount := func(color string) *engine.Unit {
		u := sc.NewUnit(color)
		render(t, u, func() error {
			tok, err := u.UseCacheToken(sc.Theme(theme.Identity), engine.TokenOptions{}, token.Token{"color": color})
			if err != nil {
				return err
			}
			u.UseStyleRegister(engine.StyleInfo{Token: tok, Path: []string{"a"}}, func() style.Interpolation {
				return obj("a", obj("color", tok.Get("color")))
			})
			return nil
		})
		u.Commit()
		return u
	}

	red, blue := mount("red"), mount("blue")
	red.Unmount()
	if n := len(doc.Nodes(sink.Head)); n != 2 {
		t.Fatalf("purged below threshold, %d left", n)
	}
	if n := len(sc.Registries().Tokens.Pending()); n != 1 {
		t.Errorf("pending %d", n)
	}
	blue.Unmount()
	if n := len(doc.Nodes(sink.Head)); n != 0 {
		t.Errorf("%d left after threshold was exceeded", n)
	}
}

func TestInstanceIsolation(t *testing.T) {
	doc := sink.NewDocument(zap.NewNop())
	sc1 := engine.New(engine.WithSink(doc))
	sc2 := engine.New(engine.WithSink(doc))
	if sc1.Cache().InstanceID() == sc2.Cache().InstanceID() {
		t.Fatal("instances share id")
	}

	u1, _ := boxUnit(t, sc1, "a", nil)
	u1.Commit()

	u2 := sc2.NewUnit("b")
	render(t, u2, func() error {
		tok, err := u2.UseCacheToken(sc2.Theme(theme.Identity), engine.TokenOptions{}, seed)
		if err != nil {
			return err
		}
		u2.UseStyleRegister(engine.StyleInfo{Token: tok, Path: []string{"other"}}, func() style.Interpolation {
			return obj(".other", obj("color", "red"))
		})
		return nil
	})
	u2.Commit()

	if n := len(doc.Nodes(sink.Head)); n != 2 {
		t.Fatalf("got %d styles", n)
	}
	u1.Unmount()
	nodes := doc.Nodes(sink.Head)
	if len(nodes) != 1 || nodes[0].Owner() != sc2.Cache().InstanceID() {
		t.Errorf("purge touched styles of another instance")
	}
}

func TestInstanceIsolation_SameStyle(t *testing.T) {
	doc := sink.NewDocument(zap.NewNop())
	sc1 := engine.New(engine.WithSink(doc), engine.WithAutoClear(true))
	sc2 := engine.New(engine.WithSink(doc), engine.WithAutoClear(true))

	u1, _ := boxUnit(t, sc1, "a", nil)
	u1.Commit()
	u2, _ := boxUnit(t, sc2, "a", nil)
	u2.Commit()

	nodes := doc.Nodes(sink.Head)
	if len(nodes) != 2 || nodes[0].CSS() != nodes[1].CSS() {
		t.Fatalf("expected a node per instance, got %d", len(nodes))
	}

	u1.Unmount()
	nodes = doc.Nodes(sink.Head)
	if len(nodes) != 1 || nodes[0].Owner() != sc2.Cache().InstanceID() {
		t.Fatalf("unmount removed style of another instance")
	}
	u2.Unmount()
	if n := len(doc.Nodes(sink.Head)); n != 0 {
		t.Errorf("%d styles left", n)
	}
}

func TestCommit_SlotChange(t *testing.T) {
	sc, doc := client(engine.WithAutoClear(true))
	u := sc.NewUnit("a")

	register := func(name string) {
		render(t, u, func() error {
			u.UseStyleRegister(engine.StyleInfo{HashID: "h", Path: []string{name}}, func() style.Interpolation {
				return obj("."+name, obj("color", "red"))
			})
			return nil
		})
		u.Commit()
	}

	register("first")
	register("second")

	nodes := doc.Nodes(sink.Head)
	if len(nodes) != 1 || nodes[0].CSS() != ":where(.h) .second{color:red;}" {
		t.Fatalf("got %d nodes", len(nodes))
	}
	if _, ok := sc.Cache().Get([]string{engine.PrefixStyle, "first", "h"}); ok {
		t.Error("replaced registration still cached")
	}

	register("second")
	if s := doc.Stats(); s.Inserted != 2 || s.Removed != 1 {
		t.Errorf("stats %+v", s)
	}
}

func TestCommit_Order(t *testing.T) {
	sc, doc := client(engine.WithLayer(true))
	u := sc.NewUnit("a")
	render(t, u, func() error {
		u.UseStyleRegister(engine.StyleInfo{
			Path:  []string{"late"},
			Order: 1,
			Layer: &style.Layer{Name: "button", Dependencies: []string{"shared"}},
		}, func() style.Interpolation {
			return obj(".late", obj("color", "red"))
		})
		u.UseStyleRegister(engine.StyleInfo{
			Path:  []string{"early"},
			Layer: &style.Layer{Name: "shared"},
		}, func() style.Interpolation {
			return obj(".early", obj("color", "blue"))
		})
		return nil
	})
	u.Commit()

	var got []string
	for _, n := range doc.Nodes(sink.Head) {
		got = append(got, n.CSS())
	}
	want := []string{
		"@layer shared,button;",
		"@layer shared{.early{color:blue;}}",
		"@layer button{.late{color:red;}}",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("got\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestCommit_QueuePriority(t *testing.T) {
	sc, doc := client()
	u := sc.NewUnit("a")
	render(t, u, func() error {
		for i, name := range []string{"two", "zero", "one"} {
			order := []int{2, 0, 1}[i]
			u.UseStyleRegister(engine.StyleInfo{Path: []string{name}, Order: order}, func() style.Interpolation {
				return obj("."+name, obj("color", "red"))
			})
		}
		return nil
	})
	u.Commit()

	var got []string
	for _, n := range doc.Nodes(sink.Head) {
		got = append(got, n.CSS())
	}
	if want := ".zero{color:red;} .one{color:red;} .two{color:red;}"; strings.Join(got, " ") != want {
		t.Errorf("got %v", got)
	}
}

func TestCommit_Remount(t *testing.T) {
	sc, doc := client(engine.WithAutoClear(true), engine.WithTokenThreshold(10))
	u, tok := boxUnit(t, sc, "a", nil)

	u.Commit()
	u.Unmount()
	u.Commit()

	if n := len(doc.Nodes(sink.Head)); n != 1 {
		t.Errorf("got %d styles after remount", n)
	}
	if e, ok := sc.Cache().Get([]string{engine.PrefixStyle, "box", tok.Key}); !ok || e.Refs != 1 {
		t.Errorf("entry %+v %v", e, ok)
	}
}

func TestServer_CommitIsNoop(t *testing.T) {
	sc := engine.New()
	if sc.IsClient() {
		t.Fatal("context without sink must be server side")
	}
	u, tok := boxUnit(t, sc, "a", nil)
	u.Commit()
	if n := sc.Registries().Tokens.Count(tok.ThemeKey); n != 0 {
		t.Errorf("token counted on server")
	}
	if e, _ := sc.Cache().Get([]string{engine.PrefixStyle, "box", tok.Key}); e.Refs != 0 {
		t.Errorf("refs %d", e.Refs)
	}

	_, doc := client()
	forced := engine.New(engine.WithSink(doc), engine.WithSide(engine.Server))
	u, _ = boxUnit(t, forced, "a", nil)
	u.Commit()
	if s := doc.Stats(); s.Inserted != 0 {
		t.Errorf("forced server context wrote to sink: %+v", s)
	}
}

func TestDefer(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sc := engine.New(engine.WithLogger(zap.New(core)))
	u := sc.NewUnit("a")

	var calls []int
	u.Defer(func() { calls = append(calls, 1) })
	u.Defer(func() { calls = append(calls, 2) })
	u.Unmount()
	if len(calls) != 2 || calls[0] != 2 || calls[1] != 1 {
		t.Errorf("calls %v", calls)
	}

	u.Defer(func() { calls = append(calls, 3) })
	u.Unmount()
	if len(calls) != 2 {
		t.Errorf("cleanup registered after unmount was run")
	}
	if logs.Len() != 1 {
		t.Errorf("expected single warning, got %d", logs.Len())
	}
}

func TestDevMode(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sc, doc := client(engine.WithDev(true), engine.WithLogger(zap.New(core)))

	u := sc.NewUnit("a")
	var tok *token.Computed
	render(t, u, func() error {
		var err error
		if tok, err = u.UseCacheToken(nil, engine.TokenOptions{}, seed); err != nil {
			return err
		}
		u.UseStyleRegister(engine.StyleInfo{Token: tok, HashID: tok.HashID, Path: []string{"q"}}, func() style.Interpolation {
			return obj(".q::before", obj("content", "abc"))
		})
		return nil
	})
	u.Commit()

	if !strings.HasPrefix(tok.HashID, engine.DevHashPrefix+"-") {
		t.Errorf("hash id %q", tok.HashID)
	}
	nodes := doc.Nodes(sink.Head)
	if len(nodes) != 1 {
		t.Fatalf("got %d styles", len(nodes))
	}
	if v, _ := nodes[0].Attr(engine.AttrCachePath); v != "q|"+tok.HashID {
		t.Errorf("cache path attribute %q", v)
	}
	// theme without derivatives and the unquoted content
	if n := logs.FilterMessageSnippet("without quotes").Len(); n != 1 {
		t.Errorf("content lint warnings %d", n)
	}
	if n := logs.FilterMessageSnippet("without derivatives").Len(); n != 1 {
		t.Errorf("theme warnings %d", n)
	}
}

func TestCacheToken_CSSVar(t *testing.T) {
	sc, doc := client()
	u := sc.NewUnit("a")
	var tok *token.Computed
	render(t, u, func() error {
		var err error
		tok, err = u.UseCacheToken(sc.Theme(theme.Identity), engine.TokenOptions{
			CSSVar: &engine.CSSVarConfig{Key: "css-var-root", Prefix: "ant"},
		}, token.Token{"colorPrimary": "#1890ff", "borderRadius": 6})
		return err
	})
	u.Commit()

	if v := tok.Token["colorPrimary"]; v != "var(--ant-color-primary)" {
		t.Errorf("token value %v", v)
	}
	if v := tok.Real["borderRadius"]; v != 6 {
		t.Errorf("real value %v", v)
	}
	if tok.ThemeKey != "css-var-root" || tok.CSSVarKey != "css-var-root" {
		t.Errorf("keys %q %q", tok.ThemeKey, tok.CSSVarKey)
	}
	if tok.Key == tok.RealKey {
		t.Error("token key must depend on substituted values")
	}

	nodes := doc.Nodes(sink.Head)
	if len(nodes) != 1 {
		t.Fatalf("got %d styles", len(nodes))
	}
	if got, want := nodes[0].CSS(), ".css-var-root{--ant-border-radius:6px;--ant-color-primary:#1890ff;}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if v, _ := nodes[0].Attr(sink.AttrMark); v != murmur.Hash("css-variables-css-var-root") {
		t.Errorf("mark %q", v)
	}
	if v, _ := nodes[0].Attr(sink.AttrPriority); v != "-999" {
		t.Errorf("priority %q", v)
	}
	if v, _ := nodes[0].Attr(engine.AttrToken); v != "css-var-root" {
		t.Errorf("token attribute %q", v)
	}

	u.Unmount()
	if n := len(doc.Nodes(sink.Head)); n != 0 {
		t.Errorf("variables not purged, %d left", n)
	}
}

func TestCSSVar_NoStableID(t *testing.T) {
	sc := engine.New()
	u := sc.NewUnit("")

	_, err := u.UseCacheToken(nil, engine.TokenOptions{CSSVar: &engine.CSSVarConfig{}}, seed)
	if !errors.Is(err, engine.ErrNoStableID) {
		t.Errorf("token: %v", err)
	}
	_, err = u.UseCSSVarRegister(engine.CSSVarInfo{Path: []string{"x"}}, func() token.Token { return nil })
	if !errors.Is(err, engine.ErrNoStableID) {
		t.Errorf("css var: %v", err)
	}

	u = sc.NewUnit(":r1:")
	res, err := u.UseCSSVarRegister(engine.CSSVarInfo{Path: []string{"x"}}, func() token.Token {
		return token.Token{"size": 1}
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Key != "css-var-r1" || res.CSSVars != ".css-var-r1{--size:1px;}" {
		t.Errorf("result %+v", res)
	}
}

func TestUseCSSVarRegister(t *testing.T) {
	sc, doc := client()
	u := sc.NewUnit("a")
	var res engine.CSSVarResult
	var builds int
	for range 2 {
		render(t, u, func() error {
			var err error
			res, err = u.UseCSSVarRegister(engine.CSSVarInfo{
				Path:     []string{"Button"},
				Key:      "comp",
				Prefix:   "x",
				Scope:    []string{"", "dark"},
				Unitless: map[string]bool{"lineHeight": true},
			}, func() token.Token {
				builds++
				return token.Token{"fontSize": 14, "lineHeight": 1.5, "nested": token.Token{"a": 1}}
			})
			return err
		})
	}
	u.Commit()

	if builds != 1 {
		t.Errorf("built %d times", builds)
	}
	if res.CSSVars != ".comp.dark{--x-font-size:14px;--x-line-height:1.5;}" {
		t.Errorf("vars %q", res.CSSVars)
	}
	if res.Token["fontSize"] != "var(--x-font-size)" {
		t.Errorf("token %v", res.Token)
	}
	if _, ok := res.Token["nested"].(token.Token); !ok {
		t.Errorf("nested value must be kept as is")
	}
	if want := murmur.Hash("Button%comp% dark%" + res.CSSVars); res.StyleID != want {
		t.Errorf("style id %q, want %q", res.StyleID, want)
	}

	nodes := doc.Nodes(sink.Head)
	if len(nodes) != 1 || nodes[0].CSS() != res.CSSVars {
		t.Fatalf("got %d styles", len(nodes))
	}
	if v, _ := nodes[0].Attr(engine.AttrToken); v != "comp" {
		t.Errorf("token attribute %q", v)
	}

	u.Unmount()
	if n := len(doc.Nodes(sink.Head)); n != 0 {
		t.Errorf("%d left", n)
	}
}

func TestKeyframesOncePerSink(t *testing.T) {
	sc, doc := client()
	spin := style.NewKeyframes("spin", obj("to", obj("opacity", 0)))

	for _, name := range []string{"a", "b"} {
		u := sc.NewUnit(name)
		render(t, u, func() error {
			u.UseStyleRegister(engine.StyleInfo{HashID: "h", Path: []string{name}}, func() style.Interpolation {
				return obj("."+name, obj("animationName", spin))
			})
			return nil
		})
		u.Commit()
	}

	fx := doc.Query(sink.Selector{Attr: sink.AttrMark, Value: "_effect-h-spin"})
	if len(fx) != 1 || fx[0].CSS() != "@keyframes h-spin{to{opacity:0;}}" {
		t.Errorf("keyframes nodes %d", len(fx))
	}
	if s := doc.Stats(); s.Inserted != 3 {
		t.Errorf("stats %+v", s)
	}
}

func TestSSRInline(t *testing.T) {
	sc := engine.New(engine.WithSSRInline(true))
	u := sc.NewUnit("a")

	var wrap func(string) string
	render(t, u, func() error {
		wrap = u.UseStyleRegister(engine.StyleInfo{HashID: "h1", Path: []string{"box"}}, func() style.Interpolation {
			return obj(".box", obj("color", "red"))
		})
		return nil
	})

	css := ":where(.h1) .box{color:red;}"
	id := murmur.Hash("box%h1" + css)
	want := `<style data-css-hash="` + id + `">` + css + `</style><div></div>`
	if got := wrap("<div></div>"); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}

	nested := sc.With(engine.WithCache(engine.NewCache(nil)))
	u = nested.NewUnit("a")
	render(t, u, func() error {
		wrap = u.UseStyleRegister(engine.StyleInfo{HashID: "h1", Path: []string{"box"}}, func() style.Interpolation {
			return obj(".box", obj("color", "red"))
		})
		return nil
	})
	if got := wrap("<div></div>"); got != "<div></div>" {
		t.Errorf("custom cache must not inline, got %s", got)
	}
}

func TestDefault(t *testing.T) {
	if engine.Default() != engine.Default() {
		t.Error("default context must be shared")
	}
	if engine.Default().IsClient() {
		t.Error("default context must be server side")
	}
}

func TestWith_DoesNotMutateParent(t *testing.T) {
	parent := engine.New(engine.WithHashPriority(style.HashPriorityLow))
	child := parent.With(engine.WithHashPriority(style.HashPriorityHigh), engine.WithDev(true))

	if parent.Dev() || !child.Dev() {
		t.Error("dev flag leaked")
	}
	if parent.Cache() != child.Cache() || parent.Registries() != child.Registries() {
		t.Error("cache and registries must be inherited")
	}

	inline := func(sc *engine.Context, path string) string {
		u := sc.With(engine.WithSSRInline(true)).NewUnit("a")
		var wrap func(string) string
		render(t, u, func() error {
			wrap = u.UseStyleRegister(engine.StyleInfo{HashID: "h", Path: []string{path}}, func() style.Interpolation {
				return obj("a", obj("color", "red"))
			})
			return nil
		})
		return wrap("")
	}
	if got := inline(parent, "p"); !strings.Contains(got, ">:where(.h) a{color:red;}<") {
		t.Errorf("parent: %s", got)
	}
	if got := inline(child, "c"); !strings.Contains(got, ">.h a{color:red;}<") {
		t.Errorf("child: %s", got)
	}
}
