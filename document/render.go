package document

import (
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	"cssinjs/engine"
	"cssinjs/style"
	"cssinjs/theme"
	"cssinjs/token"
)

// Rendered holds committed units of a document and the markup they render.
type Rendered struct {
	Units  []*engine.Unit
	Markup string
}

// Unmount releases everything units hold.
func (r *Rendered) Unmount() {
	for _, u := range r.Units {
		u.Unmount()
	}
}

// ResolveTheme returns document theme from context registry.
func (d *Document) ResolveTheme(sc *engine.Context) (*theme.Theme, error) {
	if len(d.Theme) == 0 {
		return sc.Theme(theme.Identity), nil
	}
	derivatives := make([]*theme.Derivative, 0, len(d.Theme))
	for _, name := range d.Theme {
		dv, err := theme.Preset(name)
		if err != nil {
			return nil, err
		}
		derivatives = append(derivatives, dv)
	}
	return sc.Theme(derivatives...), nil
}

// Render renders and commits every unit of the document in sc. Rendering
// stops at the first unit which fails, units committed before stay mounted.
func (d *Document) Render(sc *engine.Context) (*Rendered, error) {
	th, err := d.ResolveTheme(sc)
	if err != nil {
		return nil, fmt.Errorf("document %q: %w", d.Name, err)
	}

	log := sc.Log().With(zap.String("document", d.Name))
	out := &Rendered{}
	var sb strings.Builder
	for i, def := range d.Units {
		u := sc.NewUnit(def.ID)
		var markup string
		err := u.Render(func() (err error) {
			markup, err = d.renderUnit(u, th, def)
			return err
		})
		if err != nil {
			return out, fmt.Errorf("document %q unit %d (%s): %w", d.Name, i, def.ID, err)
		}
		u.Commit()
		out.Units = append(out.Units, u)
		sb.WriteString(markup)
	}
	out.Markup = sb.String()

	log.Debug("Document rendered", zap.Int("units", len(out.Units)))
	return out, nil
}

func (d *Document) renderUnit(u *engine.Unit, th *theme.Theme, def Unit) (string, error) {
	tok, err := u.UseCacheToken(th, engine.TokenOptions{
		Salt:     d.Salt,
		Override: d.Override,
		CSSVar:   d.cssVarConfig(),
	}, d.Seed)
	if err != nil {
		return "", err
	}
	x := d.expander(tok)

	for _, cv := range def.CSSVars {
		values, err := x.token(cv.Token)
		if err != nil {
			return "", fmt.Errorf("css variables %v: %w", cv.Path, err)
		}
		_, err = u.UseCSSVarRegister(engine.CSSVarInfo{
			Path:     cv.Path,
			Key:      cv.Key,
			Token:    tok,
			Prefix:   cv.Prefix,
			Unitless: set(cv.Unitless),
			Ignore:   set(cv.Ignore),
			Scope:    cv.Scope,
		}, func() token.Token { return values })
		if err != nil {
			return "", fmt.Errorf("css variables %v: %w", cv.Path, err)
		}
	}

	markup := def.Markup
	if markup == "" {
		markup = defaultMarkup(def.ID, tok)
	}
	for _, sd := range def.Styles {
		obj, err := x.object(sd.Style)
		if err != nil {
			return "", fmt.Errorf("style %v: %w", sd.Path, err)
		}
		info := engine.StyleInfo{
			Theme:      th,
			Token:      tok,
			HashID:     tok.HashID,
			Path:       sd.Path,
			Order:      sd.Order,
			ClientOnly: sd.ClientOnly,
			Nonce:      d.Nonce,
		}
		if sd.Unhashed {
			info.HashID = ""
		}
		if sd.Layer != nil {
			info.Layer = &style.Layer{Name: sd.Layer.Name, Dependencies: sd.Layer.Dependencies}
		}
		wrap := u.UseStyleRegister(info, func() style.Interpolation { return obj })
		markup = wrap(markup)
	}
	return markup, nil
}

func defaultMarkup(id string, tok *token.Computed) string {
	classes := tok.HashID
	if tok.CSSVarKey != "" {
		classes += " " + tok.CSSVarKey
	}
	return fmt.Sprintf(`<div data-unit="%s" class="%s"></div>`, html.EscapeString(id), html.EscapeString(classes))
}
