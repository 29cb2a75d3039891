package style

import (
	"maps"
	"slices"
)

// Interpolation is anything Compile accepts: nil, bool, number, string (raw
// CSS, top level only), Object, *Keyframes or a list of those.
type Interpolation = any

// Prop is a single entry of a style object: a declaration when Value is a
// primitive, a nested selector or at-rule when Value is an Object.
type Prop struct {
	Key   string
	Value any
}

// Object is an ordered style object. Order is preserved in generated CSS.
type Object []Prop

// Get returns value of the first prop with key.
func (o Object) Get(key string) (any, bool) {
	for _, p := range o {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Set replaces value of the first prop with key or appends a new prop.
// A new object is returned, o is left untouched.
func (o Object) Set(key string, value any) Object {
	out := slices.Clone(o)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Prop{Key: key, Value: value})
}

// FromMap converts unordered map into Object with keys sorted. Nested maps
// are converted as well.
func FromMap(m map[string]any) Object {
	out := make(Object, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		v := m[k]
		if nested, ok := v.(map[string]any); ok {
			v = FromMap(nested)
		}
		out = append(out, Prop{Key: k, Value: v})
	}
	return out
}

// Compound wraps a declaration value with processing markers.
type Compound struct {
	Value any
	// SkipCheck disables linting of this value.
	SkipCheck bool
	// Multi expands list Value into repeated declarations.
	Multi bool
}

// SkipCheck marks value as exempt from linting.
func SkipCheck(v any) Compound {
	return Compound{Value: v, SkipCheck: true}
}

// MultiValue emits one declaration per value, in order.
func MultiValue(values ...any) Compound {
	return Compound{Value: values, Multi: true}
}

// Keyframes is a named animation. Used as a declaration value it resolves to
// its (possibly hashed) name and makes sure the @keyframes block is emitted.
type Keyframes struct {
	Name  string
	Style Object
}

// NewKeyframes creates animation definition.
func NewKeyframes(name string, style Object) *Keyframes {
	return &Keyframes{Name: name, Style: style}
}

// GetName returns animation name namespaced by hashID.
func (k *Keyframes) GetName(hashID string) string {
	if hashID == "" {
		return k.Name
	}
	return hashID + "-" + k.Name
}

// String returns raw animation name.
func (k *Keyframes) String() string {
	return k.Name
}

// Layer places generated rules into a cascade layer.
type Layer struct {
	Name         string
	Dependencies []string
}
