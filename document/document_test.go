package document_test

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"cssinjs/document"
	"cssinjs/engine"
	"cssinjs/sink"
	"cssinjs/theme"
)

const buttonDoc = `
salt: v1
theme: [default]
seed:
  colorPrimary: "#1890ff"
  fontSize: 14
keyframes:
  spin:
    to:
      transform: rotate(360deg)
units:
  - id: button
    styles:
      - path: [Button]
        style:
          .btn:
            color: "{{ .colorPrimary }}"
            fontSize: "{{ .fontSizeLG }}"
            padding: "{{ ((calc .fontSize).Mul 2).Equal }}"
            lineHeight: "{{ .lineHeight }}"
            margin: "{{ .fontSize }}px {{ .fontSizeSM }}px"
            animationName: spin
            "&:hover":
              color: "{{ .colorPrimary | upper }}"
`

func parse(t *testing.T, src string) *document.Document {
	t.Helper()
	d, err := document.Parse("test.yaml", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"not yaml", "units: [\n"},
		{"unknown field", "colour: red\nunits: [{id: a}]\n"},
		{"no units", "seed: {a: 1}\n"},
		{"unknown derivative", "theme: [sepia]\nunits: [{id: a}]\n"},
		{"style without path", "units:\n  - styles:\n      - style: {a: {color: red}}\n"},
		{"empty style", "units:\n  - styles:\n      - path: [a]\n"},
		{"css vars without token", "units:\n  - css_vars:\n      - path: [a]\n"},
		{"style not a mapping", "units:\n  - styles:\n      - path: [a]\n        style: [1, 2]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := document.Parse("bad.yaml", []byte(tt.src)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestResolveTheme(t *testing.T) {
	sc := engine.New()

	th, err := parse(t, minimalDoc).ResolveTheme(sc)
	if err != nil || len(th.Derivatives()) != 1 || th.Derivatives()[0] != theme.Identity {
		t.Fatalf("empty theme list: %v, %v", th, err)
	}

	d := parse(t, "theme: [default, dark]\n"+minimalDoc)
	first, err := d.ResolveTheme(sc)
	if err != nil {
		t.Fatal(err)
	}
	if names := []string{first.Derivatives()[0].Name(), first.Derivatives()[1].Name()}; names[0] != "default" || names[1] != "dark" {
		t.Errorf("derivatives %v", names)
	}
	if again, _ := d.ResolveTheme(sc); again != first {
		t.Error("same derivative list produced a new theme")
	}
}

func TestRender_Templates(t *testing.T) {
	sc := engine.New()
	r, err := parse(t, buttonDoc).Render(sc)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Units) != 1 || r.Units[0].ID() != "button" {
		t.Fatalf("units %v", r.Units)
	}
	if !strings.HasPrefix(r.Markup, `<div data-unit="button" class="css-`) {
		t.Errorf("markup %s", r.Markup)
	}

	out := engine.Extract(sc, engine.ExtractOptions{Plain: true})
	for _, want := range []string{
		" .btn{color:#1890ff;font-size:16px;padding:28px;line-height:1.5714285714285714;margin:14px 12px;animation-name:css-",
		"-spin;}",
		" .btn:hover{color:#1890FF;}",
		"-spin{to{transform:rotate(360deg);}}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("%q not found in\n%s", want, out)
		}
	}
}

func TestRender_CSSVar(t *testing.T) {
	d := parse(t, `
seed:
  colorPrimary: "#1890ff"
  fontSize: 14
css_var:
  key: root
  prefix: ant
units:
  - id: card
    css_vars:
      - path: [Card]
        key: card
        prefix: card
        token:
          headerHeight: "{{ real \"fontSize\" | mul 4 }}"
          accent: "{{ .colorPrimary }}"
    styles:
      - path: [Card]
        unhashed: true
        style:
          .card:
            color: "{{ .colorPrimary }}"
            padding: "{{ ((calc .fontSize).Mul 2).Equal }}"
            height: "var({{ varName \"headerHeight\" }})"
`)
	sc := engine.New()
	r, err := d.Render(sc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(r.Markup, `class="css-`) || !strings.Contains(r.Markup, ` root"`) {
		t.Errorf("markup %s", r.Markup)
	}

	out := engine.Extract(sc, engine.ExtractOptions{Plain: true})
	for _, want := range []string{
		".root{--ant-color-primary:#1890ff;--ant-font-size:14px;}",
		".card{--card-accent:var(--ant-color-primary);--card-header-height:56px;}",
		".card{color:var(--ant-color-primary);padding:calc(var(--ant-font-size) * 2);height:var(--ant-header-height);}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("%q not found in\n%s", want, out)
		}
	}
}

func TestRender_TemplateErrors(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"missing key", `"{{ .colorSecondary }}"`},
		{"bad syntax", `"{{ .colorPrimary "`},
		{"unknown function", `"{{ lighten .colorPrimary }}"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parse(t, "seed: {colorPrimary: red}\nunits:\n  - id: a\n    styles:\n      - path: [a]\n        style:\n          .a:\n            color: "+tt.value+"\n")
			if _, err := d.Render(engine.New()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRender_Client(t *testing.T) {
	doc := sink.NewDocument(zap.NewNop())
	sc := engine.New(engine.WithSink(doc), engine.WithAutoClear(true), engine.WithLayer(true))
	d := parse(t, `
seed: {colorPrimary: red}
units:
  - id: a
    markup: <button class="btn"></button>
    styles:
      - path: [btn]
        layer: {name: button, dependencies: [shared]}
        style: {.btn: {color: "{{ .colorPrimary }}"}}
  - id: b
    styles:
      - path: [base]
        layer: {name: shared}
        style: {a: {color: blue}}
`)
	r, err := d.Render(sc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(r.Markup, `<button class="btn"></button><div data-unit="b"`) {
		t.Errorf("markup %s", r.Markup)
	}

	nodes := doc.Nodes(sink.Head)
	if len(nodes) != 3 || nodes[0].CSS() != "@layer shared,button;" {
		t.Fatalf("got %d nodes", len(nodes))
	}

	r.Unmount()
	if n := len(doc.Nodes(sink.Head)); n != 1 {
		t.Errorf("%d nodes left after unmount", n)
	}
}

func TestRender_SSRInline(t *testing.T) {
	sc := engine.New(engine.WithSSRInline(true))
	r, err := parse(t, "units:\n  - id: a\n    styles:\n      - path: [a]\n        style: {.a: {color: red}}\n").Render(sc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(r.Markup, "<style") || !strings.Contains(r.Markup, `</style><div data-unit="a" class="css-`) {
		t.Errorf("markup %s", r.Markup)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

const minimalDoc = "units:\n  - id: a\n"

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "docs", "a.yaml"), minimalDoc)
	writeFile(t, filepath.Join(dir, "docs", "nested", "b.YML"), minimalDoc)
	writeFile(t, filepath.Join(dir, "docs", "notes.txt"), "not a document")

	zipPath := filepath.Join(dir, "styles.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for _, name := range []string{"themes/light.yaml", "themes/dark.yaml", "other/c.yaml"} {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(minimalDoc))
	}
	w.Close()
	f.Close()

	tests := []struct {
		name string
		src  string
		want int
	}{
		{"file", filepath.Join(dir, "docs", "a.yaml"), 1},
		{"directory", filepath.Join(dir, "docs"), 2},
		{"archive", zipPath, 3},
		{"path in archive", filepath.Join(zipPath, "themes"), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := document.Load(context.Background(), tt.src, zap.NewNop())
			if err != nil {
				t.Fatal(err)
			}
			if len(docs) != tt.want {
				t.Errorf("got %d documents, want %d", len(docs), tt.want)
			}
		})
	}

	if _, err := document.Load(context.Background(), filepath.Join(dir, "missing.yaml"), nil); err == nil {
		t.Error("expected error for missing source")
	}
	if _, err := document.Load(context.Background(), filepath.Join(dir, "docs", "a.yaml", "inner"), nil); err == nil {
		t.Error("expected error for path below a file")
	}
}

func TestLoad_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.yaml"), minimalDoc)
	writeFile(t, filepath.Join(dir, "bad.yaml"), "colour: red\n")
	writeFile(t, filepath.Join(dir, "worse.yaml"), "units: [\n")

	docs, err := document.Load(context.Background(), dir, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "bad.yaml") || !strings.Contains(err.Error(), "worse.yaml") {
		t.Errorf("expected both failures reported, got %v", err)
	}
	if len(docs) != 1 || filepath.Base(docs[0].Name) != "good.yaml" {
		t.Errorf("good document lost: %v", docs)
	}
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := document.Load(ctx, t.TempDir(), nil); err == nil {
		t.Error("expected error for canceled context")
	}
}
