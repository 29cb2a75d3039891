// Package calc does arithmetic on token values. With CSS variables enabled
// token values are var() references and arithmetic has to be deferred to the
// browser through calc(), otherwise plain numbers are computed directly.
package calc

import (
	"strconv"
	"strings"

	"cssinjs/token"
)

// Calculator chains arithmetic on a token value.
type Calculator interface {
	Add(v any) Calculator
	Sub(v any) Calculator
	Mul(v any) Calculator
	Div(v any) Calculator
	// Equal returns the final value: string for CSS calculators, float64 for
	// numeric ones.
	Equal(opts ...Option) any
}

// Kind selects calculator implementation.
type Kind int

const (
	Numeric Kind = iota
	CSS
)

type options struct {
	unit    bool
	unitSet bool
}

// Option modifies Equal behavior.
type Option func(*options)

// WithUnit forces (or suppresses) px unit on numbers of a CSS calculation.
func WithUnit(unit bool) Option {
	return func(o *options) {
		o.unit = unit
		o.unitSet = true
	}
}

// Gen returns calculator constructor. unitless lists custom property names
// whose presence in a CSS calculation suppresses px units.
func Gen(kind Kind, unitless ...string) func(v any) Calculator {
	if kind == CSS {
		return func(v any) Calculator { return newCSS(v, unitless) }
	}
	return func(v any) Calculator { return newNum(v) }
}

const unitMark = "CALC_UNIT"

func withUnit(v any) string {
	if token.IsNumber(v) {
		return token.FormatValue(v) + unitMark
	}
	return token.FormatValue(v)
}

type cssCalc struct {
	result      string
	unitless    []string
	lowPriority bool
	touched     bool
}

func newCSS(v any, unitless []string) *cssCalc {
	c := &cssCalc{unitless: unitless}
	switch val := v.(type) {
	case *cssCalc:
		c.result = "(" + val.result + ")"
	default:
		c.result = withUnit(v)
	}
	return c
}

func (c *cssCalc) group(force bool) string {
	if c.lowPriority || force {
		return "(" + c.result + ")"
	}
	return c.result
}

func (c *cssCalc) additive(op string, v any) Calculator {
	if other, ok := v.(*cssCalc); ok {
		c.result += op + other.group(false)
	} else {
		c.result += op + withUnit(v)
	}
	c.lowPriority = true
	c.touched = true
	return c
}

func (c *cssCalc) multiplicative(op string, v any) Calculator {
	if c.lowPriority {
		c.result = "(" + c.result + ")"
	}
	if other, ok := v.(*cssCalc); ok {
		c.result += op + other.group(true)
	} else {
		c.result += op + token.FormatValue(v)
	}
	c.lowPriority = false
	c.touched = true
	return c
}

func (c *cssCalc) Add(v any) Calculator { return c.additive(" + ", v) }
func (c *cssCalc) Sub(v any) Calculator { return c.additive(" - ", v) }
func (c *cssCalc) Mul(v any) Calculator { return c.multiplicative(" * ", v) }
func (c *cssCalc) Div(v any) Calculator { return c.multiplicative(" / ", v) }

func (c *cssCalc) Equal(opts ...Option) any {
	o := options{unit: true}
	for _, set := range opts {
		set(&o)
	}
	unit := o.unit
	if !o.unitSet {
		for _, name := range c.unitless {
			if strings.Contains(c.result, name) {
				unit = false
				break
			}
		}
	}
	repl := ""
	if unit {
		repl = "px"
	}
	res := strings.ReplaceAll(c.result, unitMark, repl)
	if c.touched {
		return "calc(" + res + ")"
	}
	return res
}

type numCalc struct {
	result float64
}

func toFloat(v any) float64 {
	switch val := v.(type) {
	case *numCalc:
		return val.result
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case uint:
		return float64(val)
	case uint64:
		return float64(val)
	case uint32:
		return float64(val)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(val), "px"), 64)
		return f
	}
	return 0
}

func newNum(v any) *numCalc {
	return &numCalc{result: toFloat(v)}
}

func (n *numCalc) Add(v any) Calculator { n.result += toFloat(v); return n }
func (n *numCalc) Sub(v any) Calculator { n.result -= toFloat(v); return n }
func (n *numCalc) Mul(v any) Calculator { n.result *= toFloat(v); return n }
func (n *numCalc) Div(v any) Calculator { n.result /= toFloat(v); return n }

func (n *numCalc) Equal(...Option) any {
	return n.result
}
