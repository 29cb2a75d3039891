package transform

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"cssinjs/style"
	"cssinjs/token"
)

// Px2Rem converts pixel values into rem units.
type Px2Rem struct {
	// RootValue is the root font size in pixels, 16 when not set.
	RootValue float64
	// Precision is number of decimal places kept, 5 when not set.
	Precision int
	// MediaQuery enables conversion inside at-rule keys as well.
	MediaQuery bool
}

// Pixel values with this or smaller magnitude are kept as is: 1px hairlines
// must not collapse on small root sizes.
const minConvertedPx = 1

var pxRe = regexp.MustCompile(`url\([^)]+\)|var\([^)]+\)|(\d*\.?\d+)px`)

// NewPx2Rem returns transformer with default settings.
func NewPx2Rem() *Px2Rem {
	return &Px2Rem{RootValue: 16, Precision: 5}
}

func (t *Px2Rem) root() float64 {
	if t.RootValue <= 0 {
		return 16
	}
	return t.RootValue
}

func (t *Px2Rem) precision() int {
	if t.Precision <= 0 {
		return 5
	}
	return t.Precision
}

// toFixed truncates one digit past precision, then rounds.
func toFixed(v float64, precision int) float64 {
	multiplier := math.Pow(10, float64(precision+1))
	whole := math.Floor(v * multiplier)
	return math.Round(whole/10) * 10 / multiplier
}

func (t *Px2Rem) replace(s string) string {
	return pxRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := pxRe.FindStringSubmatch(m)
		if sub == nil || sub[1] == "" {
			return m
		}
		px, err := strconv.ParseFloat(sub[1], 64)
		if err != nil || px <= minConvertedPx {
			return m
		}
		return strconv.FormatFloat(toFixed(px/t.root(), t.precision()), 'f', -1, 64) + "rem"
	})
}

// Visit implements style.Transformer.
func (t *Px2Rem) Visit(o style.Object) style.Object {
	out := make(style.Object, 0, len(o))
	for _, p := range o {
		switch v := p.Value.(type) {
		case string:
			if strings.Contains(v, "px") {
				p.Value = t.replace(v)
			}
		default:
			if token.IsNumber(v) && !style.Unitless(p.Key) {
				if s := token.FormatValue(v); s != "0" {
					p.Value = t.replace(s + "px")
				}
			}
		}

		if key := strings.TrimSpace(p.Key); t.MediaQuery && strings.HasPrefix(key, "@") && strings.Contains(key, "px") {
			p.Key = t.replace(p.Key)
		}
		out = append(out, p)
	}
	return out
}
