package token

import (
	"maps"
	"regexp"
	"slices"
	"strings"
)

var (
	reLowerUpper = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	reUpperRun   = regexp.MustCompile(`([A-Z]+)([A-Z][a-z0-9]+)`)
	reLowerDigit = regexp.MustCompile(`([a-z])([A-Z0-9])`)
)

// ToCSSVar converts camel cased token name into custom property name,
// colorPrimary with prefix "ant" becomes --ant-color-primary.
func ToCSSVar(name, prefix string) string {
	s := "--" + name
	if prefix != "" {
		s = "--" + prefix + "-" + name
	}
	s = reLowerUpper.ReplaceAllString(s, "${1}-${2}")
	s = reUpperRun.ReplaceAllString(s, "${1}-${2}")
	s = reLowerDigit.ReplaceAllString(s, "${1}-${2}")
	return strings.ToLower(s)
}

// TransformOptions controls which token values become CSS variables.
type TransformOptions struct {
	Prefix string
	// Ignore keeps values as they are.
	Ignore map[string]bool
	// Unitless numbers are emitted without px.
	Unitless map[string]bool
	// Preserve keys are copied verbatim and never turned into variables.
	Preserve map[string]bool
	// Scope classes narrow the variable block selector, empty ones are
	// dropped.
	Scope []string
}

// Var is a single custom property declaration.
type Var struct {
	Name  string
	Value string
}

// Transform replaces every string or number value of t with a var()
// reference and returns the declaration block defining those variables under
// selector built from key and scopes. Keys are processed in sorted order.
func Transform(t Token, key string, opts TransformOptions) (Token, string) {
	result := make(Token, len(t))
	var vars []Var

	for _, k := range slices.Sorted(maps.Keys(t)) {
		v := t[k]
		switch {
		case opts.Preserve[k]:
			result[k] = v
		case opts.Ignore[k]:
			result[k] = v
		case IsNumber(v):
			name := ToCSSVar(k, opts.Prefix)
			value := FormatValue(v)
			if !opts.Unitless[k] {
				value += "px"
			}
			vars = append(vars, Var{Name: name, Value: value})
			result[k] = "var(" + name + ")"
		case isString(v):
			name := ToCSSVar(k, opts.Prefix)
			vars = append(vars, Var{Name: name, Value: FormatValue(v)})
			result[k] = "var(" + name + ")"
		default:
			result[k] = v
		}
	}
	return result, Serialize(vars, key, opts.Scope)
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

// Selector returns selector variables of key are declared under:
// ".key" or ".key.scope" for every non-empty scope.
func Selector(key string, scopes []string) string {
	base := "." + key
	var parts []string
	for _, s := range scopes {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, base+"."+s)
		}
	}
	if len(parts) == 0 {
		return base
	}
	return strings.Join(parts, ",")
}

// Serialize renders vars as a single rule. Returns empty string when there is
// nothing to declare.
func Serialize(vars []Var, key string, scopes []string) string {
	if len(vars) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(Selector(key, scopes))
	sb.WriteByte('{')
	for _, v := range vars {
		sb.WriteString(v.Name)
		sb.WriteByte(':')
		sb.WriteString(v.Value)
		sb.WriteByte(';')
	}
	sb.WriteByte('}')
	return sb.String()
}
