package document

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"go.uber.org/multierr"

	"cssinjs/style"
	"cssinjs/theme/calc"
	"cssinjs/token"
)

// expander replaces templates in style values. Template data is the unit
// token, so with CSS variables enabled values are var() references and
// calc builds calc() expressions instead of computing numbers.
type expander struct {
	data      map[string]any
	funcs     template.FuncMap
	keyframes map[string]*style.Keyframes
}

func (d *Document) expander(tok *token.Computed) *expander {
	kind, prefix := calc.Numeric, ""
	var unitless []string
	if d.CSSVar != nil {
		kind, prefix, unitless = calc.CSS, d.CSSVar.Prefix, d.CSSVar.Unitless
	}
	gen := calc.Gen(kind, unitless...)

	funcs := sprig.FuncMap()
	funcs["calc"] = func(v any) calc.Calculator { return gen(v) }
	funcs["real"] = func(name string) any { return tok.Real[name] }
	funcs["varName"] = func(name string) string { return token.ToCSSVar(name, prefix) }

	return &expander{
		data:      map[string]any(tok.Token),
		funcs:     funcs,
		keyframes: d.keyframes,
	}
}

func (x *expander) object(o style.Object) (style.Object, error) {
	var errs error
	out := make(style.Object, 0, len(o))
	for _, p := range o {
		v, err := x.value(p.Key, p.Value)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", p.Key, err))
			continue
		}
		out = append(out, style.Prop{Key: p.Key, Value: v})
	}
	return out, errs
}

func (x *expander) token(t token.Token) (token.Token, error) {
	var errs error
	out := make(token.Token, len(t))
	for k, v := range t {
		s, ok := v.(string)
		if !ok {
			out[k] = v
			continue
		}
		expanded, err := x.text(s)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", k, err))
			continue
		}
		out[k] = expanded
	}
	return out, errs
}

func (x *expander) value(key string, v any) (any, error) {
	switch val := v.(type) {
	case style.Object:
		return x.object(val)
	case []any:
		var errs error
		out := make([]any, 0, len(val))
		for _, item := range val {
			expanded, err := x.value(key, item)
			errs = multierr.Append(errs, err)
			out = append(out, expanded)
		}
		return out, errs
	case string:
		if key == "animationName" {
			if kf, ok := x.keyframes[val]; ok {
				return kf, nil
			}
		}
		return x.text(val)
	}
	return v, nil
}

// text expands template in s. Value which is a single action producing a
// number becomes a number, so it gets units like numbers written directly.
func (x *expander) text(s string) (any, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}
	tmpl, err := template.New("value").Funcs(x.funcs).Option("missingkey=error").Parse(s)
	if err != nil {
		return nil, fmt.Errorf("unable to parse template: %w", err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, x.data); err != nil {
		return nil, fmt.Errorf("unable to expand template: %w", err)
	}
	res := sb.String()

	if !singleAction(s) {
		return res, nil
	}
	f, err := strconv.ParseFloat(res, 64)
	if err != nil {
		return res, nil
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int(f), nil
	}
	return f, nil
}

func singleAction(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{{") && strings.HasSuffix(s, "}}") && strings.Count(s, "{{") == 1
}
