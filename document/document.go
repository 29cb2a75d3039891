// Package document reads style documents: YAML files describing a theme, a
// seed token and units registering styles against the derived token. They
// let styles be rendered and extracted without writing Go code.
package document

import (
	"bytes"
	"fmt"

	"github.com/rupor-github/gencfg"
	yaml "gopkg.in/yaml.v3"

	"cssinjs/engine"
	"cssinjs/style"
	"cssinjs/token"
)

type (
	Layer struct {
		Name         string   `yaml:"name" validate:"required"`
		Dependencies []string `yaml:"dependencies,omitempty" validate:"dive,required"`
	}

	// Style is a single style registration. String values may be templates
	// expanded against the unit token.
	Style struct {
		Path       []string `yaml:"path" validate:"required,min=1,dive,required"`
		Order      int      `yaml:"order,omitempty"`
		Layer      *Layer   `yaml:"layer,omitempty"`
		ClientOnly bool     `yaml:"client_only,omitempty"`
		// Unhashed registers selectors without hash class scoping.
		Unhashed bool         `yaml:"unhashed,omitempty"`
		Style    style.Object `yaml:"style" validate:"required,min=1"`
	}

	// CSSVar declares token values as CSS variables under key class.
	CSSVar struct {
		Path     []string    `yaml:"path" validate:"required,min=1,dive,required"`
		Key      string      `yaml:"key,omitempty"`
		Prefix   string      `yaml:"prefix,omitempty"`
		Scope    []string    `yaml:"scope,omitempty"`
		Unitless []string    `yaml:"unitless,omitempty"`
		Ignore   []string    `yaml:"ignore,omitempty"`
		Token    token.Token `yaml:"token" validate:"required,min=1"`
	}

	Unit struct {
		ID      string   `yaml:"id"`
		CSSVars []CSSVar `yaml:"css_vars,omitempty" validate:"dive"`
		Styles  []Style  `yaml:"styles,omitempty" validate:"dive"`
		// Markup is what unit renders, a div carrying token classes when
		// empty.
		Markup string `yaml:"markup,omitempty"`
	}

	CSSVarOptions struct {
		Key      string   `yaml:"key,omitempty"`
		Prefix   string   `yaml:"prefix,omitempty"`
		Unitless []string `yaml:"unitless,omitempty"`
		Ignore   []string `yaml:"ignore,omitempty"`
		Preserve []string `yaml:"preserve,omitempty"`
	}

	Document struct {
		Name string `yaml:"-"`

		Salt string `yaml:"salt,omitempty"`
		// Theme lists built-in derivatives applied left to right, identity
		// when empty.
		Theme     []string                `yaml:"theme,omitempty" validate:"dive,oneof=identity default compact dark"`
		Seed      token.Token             `yaml:"seed"`
		Override  token.Token             `yaml:"override,omitempty"`
		CSSVar    *CSSVarOptions          `yaml:"css_var,omitempty"`
		Nonce     string                  `yaml:"nonce,omitempty"`
		Keyframes map[string]style.Object `yaml:"keyframes,omitempty"`
		Units     []Unit                  `yaml:"units" validate:"required,min=1,dive"`

		keyframes map[string]*style.Keyframes
	}
)

// Parse decodes and validates style document. Unknown fields are errors.
func Parse(name string, data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	d := &Document{}
	if err := dec.Decode(d); err != nil {
		return nil, fmt.Errorf("unable to decode style document %q: %w", name, err)
	}
	if err := gencfg.Validate(d); err != nil {
		return nil, fmt.Errorf("invalid style document %q: %w", name, err)
	}
	d.Name = name

	d.keyframes = make(map[string]*style.Keyframes, len(d.Keyframes))
	for k, obj := range d.Keyframes {
		d.keyframes[k] = style.NewKeyframes(k, obj)
	}
	return d, nil
}

func set(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

func (d *Document) cssVarConfig() *engine.CSSVarConfig {
	if d.CSSVar == nil {
		return nil
	}
	return &engine.CSSVarConfig{
		Key:      d.CSSVar.Key,
		Prefix:   d.CSSVar.Prefix,
		Unitless: set(d.CSSVar.Unitless),
		Ignore:   set(d.CSSVar.Ignore),
		Preserve: set(d.CSSVar.Preserve),
	}
}
