package theme

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"cssinjs/theme/calc"
	"cssinjs/token"
)

// Built-in derivatives usable by name.
var (
	// Default derives size scales from fontSize, borderRadius and
	// controlHeight seeds.
	Default = NewDerivative("default", deriveDefault)
	// Compact shrinks paddings, margins and control heights of previous
	// result.
	Compact = NewDerivative("compact", deriveCompact)
	// Dark switches base colors unless seed sets them.
	Dark = NewDerivative("dark", deriveDark)
)

var presets = map[string]*Derivative{
	Identity.Name(): Identity,
	Default.Name():  Default,
	Compact.Name():  Compact,
	Dark.Name():     Dark,
}

// PresetNames lists names of built-in derivatives, sorted.
func PresetNames() []string {
	return slices.Sorted(maps.Keys(presets))
}

// Preset returns built-in derivative by name.
func Preset(name string) (*Derivative, error) {
	d, ok := presets[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown derivative %q", name)
	}
	return d, nil
}

const compactRatio = 0.75

func deriveDefault(seed, prev token.Token) token.Token {
	out := token.Merge(prev, seed)
	num := calc.Gen(calc.Numeric)

	if fs, ok := seed["fontSize"]; ok && token.IsNumber(fs) {
		out["fontSizeSM"] = num(fs).Sub(2).Equal()
		out["fontSizeLG"] = num(fs).Add(2).Equal()
		out["fontSizeXL"] = num(fs).Add(4).Equal()
		out["lineHeight"] = num(fs).Add(8).Div(fs).Equal()
	}
	if br, ok := seed["borderRadius"]; ok && token.IsNumber(br) {
		out["borderRadiusLG"] = num(br).Add(2).Equal()
		sm := num(br).Sub(2).Equal().(float64)
		out["borderRadiusSM"] = max(sm, 0)
	}
	if ch, ok := seed["controlHeight"]; ok && token.IsNumber(ch) {
		out["controlHeightSM"] = num(ch).Mul(0.75).Equal()
		out["controlHeightLG"] = num(ch).Mul(1.25).Equal()
	}
	return out
}

func deriveCompact(seed, prev token.Token) token.Token {
	out := token.Merge(prev)
	if prev == nil {
		out = token.Merge(seed)
	}
	num := calc.Gen(calc.Numeric)
	for k, v := range out {
		if !token.IsNumber(v) {
			continue
		}
		if strings.HasPrefix(k, "padding") || strings.HasPrefix(k, "margin") || strings.HasPrefix(k, "controlHeight") {
			out[k] = num(v).Mul(compactRatio).Equal()
		}
	}
	return out
}

var darkBase = token.Token{
	"colorBgBase":      "#000",
	"colorTextBase":    "#fff",
	"colorBgContainer": "#141414",
}

func deriveDark(seed, prev token.Token) token.Token {
	out := token.Merge(prev)
	if prev == nil {
		out = token.Merge(seed)
	}
	for k, v := range darkBase {
		if _, ok := seed[k]; !ok {
			out[k] = v
		}
	}
	return out
}
