package style_test

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"

	"cssinjs/style"
)

func obj(kv ...any) style.Object {
	o := make(style.Object, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		o = append(o, style.Prop{Key: kv[i].(string), Value: kv[i+1]})
	}
	return o
}

func TestCompile_Nesting(t *testing.T) {
	in := obj(".parent", obj(
		".child", obj("background", "red"),
		"&:hover", obj("borderColor", "red"),
	))

	got := style.Compile(in, style.Config{}).CSS
	want := ".parent .child{background:red;}.parent:hover{border-color:red;}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompile_HashLowPriority(t *testing.T) {
	in := obj("a", obj("color", "red"))
	got := style.Compile(in, style.Config{HashID: "h1"}).CSS
	if want := ":where(.h1) a{color:red;}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompile_HashHighPriority(t *testing.T) {
	in := obj(
		"a", obj("color", "red"),
		"&", obj("color", "blue"),
		":hover", obj("color", "green"),
		"&.active", obj("color", "black"),
	)
	got := style.Compile(in, style.Config{HashID: "h1", HashPriority: style.HashPriorityHigh}).CSS
	want := ".h1 a{color:red;}.h1{color:blue;}.h1:hover{color:green;}.h1.active{color:black;}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompile_Units(t *testing.T) {
	in := obj(".box", obj(
		"width", 93,
		"lineHeight", 1,
		"margin", 0,
		"backgroundColor", "#1890ff",
	))
	got := style.Compile(in, style.Config{}).CSS
	want := ".box{width:93px;line-height:1;margin:0;background-color:#1890ff;}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompile_DeclarationsBeforeNested(t *testing.T) {
	in := obj(".a", obj(
		".b", obj("color", "red"),
		"color", "blue",
	))
	got := style.Compile(in, style.Config{}).CSS
	if want := ".a{color:blue;}.a .b{color:red;}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompile_EmptyRuleOmitted(t *testing.T) {
	in := obj(".a", obj(".b", obj("color", "red")))
	got := style.Compile(in, style.Config{}).CSS
	if want := ".a .b{color:red;}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompile_SelectorLists(t *testing.T) {
	in := obj(".a, .b", obj(
		".c, .d", obj("color", "red"),
	))
	got := style.Compile(in, style.Config{}).CSS
	if want := ".a .c,.a .d,.b .c,.b .d{color:red;}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	in = obj(".a", obj(":is(.x, .y)", obj("color", "red")))
	got = style.Compile(in, style.Config{}).CSS
	if want := ".a :is(.x, .y){color:red;}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompile_PseudoNesting(t *testing.T) {
	tests := []struct {
		name string
		in   style.Object
		want string
	}{
		{"ampersand", obj(".a", obj("&:hover", obj("color", "red"))), ".a:hover{color:red;}"},
		{"descendant", obj(".a", obj(":hover", obj("color", "red"))), ".a :hover{color:red;}"},
		{"pseudo element", obj(".a", obj("&::before", obj("color", "red"))), ".a::before{color:red;}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := style.Compile(tt.in, style.Config{}).CSS; got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompile_MediaInsideSelector(t *testing.T) {
	in := obj(".a", obj(
		"color", "red",
		"@media (max-width: 100px)", obj("color", "blue", ".b", obj("margin", 4)),
	))
	got := style.Compile(in, style.Config{}).CSS
	want := ".a{color:red;}@media (max-width: 100px){.a{color:blue;}.a .b{margin:4px;}}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompile_MediaOnTopLevelKeepsHash(t *testing.T) {
	in := obj("@media print", obj(".a", obj("display", "none")))
	got := style.Compile(in, style.Config{HashID: "h1"}).CSS
	if want := "@media print{:where(.h1) .a{display:none;}}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompile_FontFace(t *testing.T) {
	in := obj("@font-face", obj("fontFamily", "X", "src", "url(x.woff)"))
	got := style.Compile(in, style.Config{HashID: "h1"}).CSS
	if want := "@font-face{font-family:X;src:url(x.woff);}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompile_RawStringOnTopLevel(t *testing.T) {
	in := []any{".raw{color:red;}", obj(".a", obj("color", "blue"))}
	got := style.Compile(in, style.Config{}).CSS
	if want := ".raw{color:red;}.a{color:blue;}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompile_SkipsNilAndBool(t *testing.T) {
	in := []any{nil, false, obj(".a", obj("color", nil, "width", 1))}
	got := style.Compile(in, style.Config{}).CSS
	if want := ".a{width:1px;}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompile_MultiValue(t *testing.T) {
	in := obj(".a", obj("display", style.MultiValue("-webkit-box", "flex")))
	got := style.Compile(in, style.Config{}).CSS
	if want := ".a{display:-webkit-box;display:flex;}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompile_CustomPropertyName(t *testing.T) {
	in := obj(".a", obj("--myColor", "red"))
	got := style.Compile(in, style.Config{}).CSS
	if want := ".a{--myColor:red;}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompile_Keyframes(t *testing.T) {
	spin := style.NewKeyframes("spin", obj(
		"from", obj("transform", "rotate(0deg)"),
		"to", obj("transform", "rotate(360deg)"),
	))
	in := obj(
		".a", obj("animationName", spin),
		".b", obj("animationName", spin),
	)

	res := style.Compile(in, style.Config{HashID: "h1"})
	want := ":where(.h1) .a{animation-name:h1-spin;}:where(.h1) .b{animation-name:h1-spin;}"
	if res.CSS != want {
		t.Errorf("css: got %q, want %q", res.CSS, want)
	}
	if len(res.Effects) != 1 {
		t.Fatalf("expected single keyframes effect, got %d", len(res.Effects))
	}
	wantFx := "@keyframes h1-spin{from{transform:rotate(0deg);}to{transform:rotate(360deg);}}"
	if res.Effects[0].Key != "h1-spin" || res.Effects[0].CSS != wantFx {
		t.Errorf("effect: got %+v", res.Effects[0])
	}
}

func TestCompile_KeyframesList(t *testing.T) {
	spin := style.NewKeyframes("spin", obj("to", obj("transform", "rotate(360deg)")))
	fade := style.NewKeyframes("fade", obj("to", obj("opacity", 0)))

	res := style.Compile(obj(".a", obj("animationName", []any{spin, fade})), style.Config{HashID: "h1"})
	if want := ":where(.h1) .a{animation-name:h1-spin;animation-name:h1-fade;}"; res.CSS != want {
		t.Errorf("css: got %q, want %q", res.CSS, want)
	}
	if len(res.Effects) != 2 || res.Effects[0].Key != "h1-spin" || res.Effects[1].Key != "h1-fade" {
		t.Errorf("effects: %+v", res.Effects)
	}
}

func TestCompile_KeyframesWithoutHash(t *testing.T) {
	fade := style.NewKeyframes("fade", obj("0%, 50%", obj("opacity", 0), "100%", obj("opacity", 1)))
	res := style.Compile(obj(".a", obj("animationName", fade)), style.Config{})
	if res.CSS != ".a{animation-name:fade;}" {
		t.Errorf("got %q", res.CSS)
	}
	if len(res.Effects) != 1 || res.Effects[0].CSS != "@keyframes fade{0%,50%{opacity:0;}100%{opacity:1;}}" {
		t.Errorf("effects: %+v", res.Effects)
	}
}

func TestCompile_Layer(t *testing.T) {
	in := obj(".a", obj("color", "red"))
	got := style.Compile(in, style.Config{Layer: &style.Layer{Name: "button"}}).CSS
	if want := "@layer button{.a{color:red;}}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	got = style.Compile(obj(), style.Config{Layer: &style.Layer{Name: "button"}}).CSS
	if got != "" {
		t.Errorf("empty output must not be wrapped, got %q", got)
	}
}

func TestCompile_Transformers(t *testing.T) {
	var visited int
	upper := style.TransformerFunc(func(o style.Object) style.Object {
		visited++
		if v, ok := o.Get("color"); ok && v == "red" {
			return o.Set("color", "RED")
		}
		return o
	})
	in := obj(".a", obj("color", "red", ".b", obj("color", "red")))
	got := style.Compile(in, style.Config{Transformers: []style.Transformer{upper}}).CSS
	if want := ".a{color:RED;}.a .b{color:RED;}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if visited != 3 {
		t.Errorf("expected 3 visits, got %d", visited)
	}
}

func TestCompile_Linters(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	var seen []string
	linter := func(key string, value any, info style.LintInfo) {
		seen = append(seen, key)
		if key == "content" {
			info.Report("bad content")
		}
	}
	in := obj(".a", obj(
		"content", "x",
		"width", style.SkipCheck(1),
	))

	cfg := style.Config{Path: "btn", Linters: []style.Linter{linter}, Log: log}
	style.Compile(in, cfg)
	if len(seen) != 0 {
		t.Fatalf("linters must not run unless enabled, got %v", seen)
	}

	cfg.Lint = true
	got := style.Compile(in, cfg).CSS
	if got != ".a{content:x;width:1px;}" {
		t.Errorf("linters must not change output, got %q", got)
	}
	if len(seen) != 1 || seen[0] != "content" {
		t.Errorf("unexpected lint calls %v", seen)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected 1 warning, got %d", logs.Len())
	}
	msg := logs.All()[0].Message
	if !strings.Contains(msg, "Error in btn: bad content") || !strings.Contains(msg, "Selector: .a") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestCompile_FromYAML(t *testing.T) {
	doc := `
.box:
  width: 93
  lineHeight: 1.5
  "&:hover":
    color: red
  display: [-webkit-box, flex]
`
	var o style.Object
	if err := yaml.Unmarshal([]byte(doc), &o); err != nil {
		t.Fatal(err)
	}
	got := style.Compile(o, style.Config{}).CSS
	want := ".box{width:93px;line-height:1.5;display:-webkit-box;display:flex;}.box:hover{color:red;}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSplitSelector(t *testing.T) {
	got := style.SplitSelector(`a, b[title="x,y"], :not(.c, .d)`)
	want := []string{"a", `b[title="x,y"]`, ":not(.c, .d)"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("part %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHyphenate(t *testing.T) {
	tests := map[string]string{
		"backgroundColor": "background-color",
		"WebkitBoxFlex":   "-webkit-box-flex",
		"msFlex":          "-ms-flex",
		"--fooBar":        "--fooBar",
		"color":           "color",
	}
	for in, want := range tests {
		if got := style.Hyphenate(in); got != want {
			t.Errorf("Hyphenate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseHashPriority(t *testing.T) {
	if p, err := style.ParseHashPriority("HIGH"); err != nil || p != style.HashPriorityHigh {
		t.Errorf("got %v, %v", p, err)
	}
	if _, err := style.ParseHashPriority("medium"); err == nil {
		t.Error("expected error")
	}
}
