// Package transform provides style object transformers.
package transform

import (
	"fmt"
	"strings"

	"cssinjs/style"
)

type expansion struct {
	keys []string
	// whole value is copied to every key
	notSplit bool
}

func split(keys ...string) expansion { return expansion{keys: keys} }
func whole(keys ...string) expansion { return expansion{keys: keys, notSplit: true} }

var logicalKeys = map[string]expansion{
	"inset":            split("top", "right", "bottom", "left"),
	"insetBlock":       split("top", "bottom"),
	"insetBlockStart":  split("top"),
	"insetBlockEnd":    split("bottom"),
	"insetInline":      split("left", "right"),
	"insetInlineStart": split("left"),
	"insetInlineEnd":   split("right"),

	"marginBlock":       split("marginTop", "marginBottom"),
	"marginBlockStart":  split("marginTop"),
	"marginBlockEnd":    split("marginBottom"),
	"marginInline":      split("marginLeft", "marginRight"),
	"marginInlineStart": split("marginLeft"),
	"marginInlineEnd":   split("marginRight"),

	"paddingBlock":       split("paddingTop", "paddingBottom"),
	"paddingBlockStart":  split("paddingTop"),
	"paddingBlockEnd":    split("paddingBottom"),
	"paddingInline":      split("paddingLeft", "paddingRight"),
	"paddingInlineStart": split("paddingLeft"),
	"paddingInlineEnd":   split("paddingRight"),

	"borderBlock":       whole("borderTop", "borderBottom"),
	"borderBlockStart":  whole("borderTop"),
	"borderBlockEnd":    whole("borderBottom"),
	"borderInline":      whole("borderLeft", "borderRight"),
	"borderInlineStart": whole("borderLeft"),
	"borderInlineEnd":   whole("borderRight"),

	"borderBlockWidth":       split("borderTopWidth", "borderBottomWidth"),
	"borderBlockStartWidth":  split("borderTopWidth"),
	"borderBlockEndWidth":    split("borderBottomWidth"),
	"borderInlineWidth":      split("borderLeftWidth", "borderRightWidth"),
	"borderInlineStartWidth": split("borderLeftWidth"),
	"borderInlineEndWidth":   split("borderRightWidth"),

	"borderBlockStyle":       split("borderTopStyle", "borderBottomStyle"),
	"borderBlockStartStyle":  split("borderTopStyle"),
	"borderBlockEndStyle":    split("borderBottomStyle"),
	"borderInlineStyle":      split("borderLeftStyle", "borderRightStyle"),
	"borderInlineStartStyle": split("borderLeftStyle"),
	"borderInlineEndStyle":   split("borderRightStyle"),

	"borderBlockColor":       split("borderTopColor", "borderBottomColor"),
	"borderBlockStartColor":  split("borderTopColor"),
	"borderBlockEndColor":    split("borderBottomColor"),
	"borderInlineColor":      split("borderLeftColor", "borderRightColor"),
	"borderInlineStartColor": split("borderLeftColor"),
	"borderInlineEndColor":   split("borderRightColor"),

	"borderStartStartRadius": split("borderTopLeftRadius"),
	"borderStartEndRadius":   split("borderTopRightRadius"),
	"borderEndStartRadius":   split("borderBottomLeftRadius"),
	"borderEndEndRadius":     split("borderBottomRightRadius"),
}

// LegacyLogicalProperties rewrites logical properties (marginBlock,
// insetInlineStart, ...) into physical ones for browsers without logical
// properties support.
type LegacyLogicalProperties struct{}

// Visit implements style.Transformer.
func (LegacyLogicalProperties) Visit(o style.Object) style.Object {
	out := make(style.Object, 0, len(o))
	for _, p := range o {
		exp, ok := logicalKeys[p.Key]
		if !ok {
			out = append(out, p)
			continue
		}

		if exp.notSplit {
			for _, k := range exp.keys {
				out = append(out, style.Prop{Key: k, Value: p.Value})
			}
			continue
		}

		values, important := splitValues(p.Value)
		if len(values) == 0 {
			out = append(out, p)
			continue
		}
		// four side shorthand: missing values repeat the opposite side
		pick := func(i int) any {
			if i >= len(values) {
				i -= 2
			}
			if i < 0 || i >= len(values) {
				i = 0
			}
			return withImportant(values[i], important)
		}
		switch len(exp.keys) {
		case 1:
			out = append(out, style.Prop{Key: exp.keys[0], Value: withImportant(values[0], important)})
		case 2:
			for i, k := range exp.keys {
				if i >= len(values) {
					i = 0
				}
				out = append(out, style.Prop{Key: k, Value: withImportant(values[i], important)})
			}
		case 4:
			for i, k := range exp.keys {
				out = append(out, style.Prop{Key: k, Value: pick(i)})
			}
		default:
			out = append(out, p)
		}
	}
	return out
}

func withImportant(v any, important bool) any {
	if !important {
		return v
	}
	return fmt.Sprint(v) + " !important"
}

// splitValues splits shorthand value on spaces outside of brackets and
// detects trailing !important.
func splitValues(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	str, ok := v.(string)
	if !ok {
		return []any{v}, false
	}

	s := strings.TrimSpace(str)
	important := false
	if rest, ok := strings.CutSuffix(s, "!important"); ok {
		s = strings.TrimSpace(rest)
		important = true
	}

	var (
		out   []any
		depth int
		start = -1
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ' ' && depth == 0:
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out, important
}
