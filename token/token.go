// Package token holds design token maps and the content hashing every cached
// style is keyed by.
package token

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"cssinjs/utils/murmur"
)

// Token is a flat or nested mapping of design values.
type Token map[string]any

// Identified values contribute their id instead of their content to a
// flattened token. Themes are the common case.
type Identified interface {
	ID() int
}

// Clone returns shallow copy of t.
func (t Token) Clone() Token {
	if t == nil {
		return Token{}
	}
	return maps.Clone(t)
}

// Merge shallow merges tokens left to right, later keys win.
func Merge(tokens ...Token) Token {
	out := Token{}
	for _, t := range tokens {
		maps.Copy(out, t)
	}
	return out
}

// Flatten renders v into a string which is a pure function of its content.
// Map keys are visited in sorted order so insertion order never matters.
func Flatten(v any) string {
	var sb strings.Builder
	flatten(&sb, v)
	return sb.String()
}

func flatten(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case Token:
		flattenMap(sb, val)
	case map[string]any:
		flattenMap(sb, val)
	default:
		sb.WriteString(FormatValue(v))
	}
}

func flattenMap(sb *strings.Builder, m map[string]any) {
	for _, k := range slices.Sorted(maps.Keys(m)) {
		sb.WriteString(k)
		switch val := m[k].(type) {
		case Identified:
			sb.WriteString(strconv.Itoa(val.ID()))
		case Token, map[string]any:
			flatten(sb, val)
		default:
			sb.WriteString(FormatValue(val))
		}
	}
}

// FormatValue formats primitive token values the way they end up in CSS text.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, FormatValue(item))
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(val, ",")
	case interface{ String() string }:
		return val.String()
	}
	return ""
}

// IsNumber reports whether v is one of the Go numeric kinds.
func IsNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// Key returns content hash of token combined with salt. Structurally equal
// tokens always produce the same key.
func Key(t Token, salt string) string {
	return murmur.Hash(salt + "_" + Flatten(t))
}

// Computed is a derivative token produced by a theme together with the keys
// every style registered for it is cached under.
type Computed struct {
	// Token is the derivative token. With CSS variables enabled values are
	// replaced with var() references.
	Token Token
	// Real is the derivative token before CSS variable substitution.
	Real Token
	// Key is the content hash of Token and salt.
	Key     string
	RealKey string
	// ThemeKey identifies style tags tagged with this token, CSS variable key
	// when variables are enabled, Key otherwise.
	ThemeKey string
	HashID   string
	// CSSVars is the serialized variable declaration block, if any.
	CSSVars   string
	CSSVarKey string
}

// Get returns value of token key name.
func (c *Computed) Get(name string) any {
	if c == nil {
		return nil
	}
	return c.Token[name]
}

// TokenKey returns Key or empty string for nil token.
func (c *Computed) TokenKey() string {
	if c == nil {
		return ""
	}
	return c.Key
}
