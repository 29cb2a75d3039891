package engine

import (
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"cssinjs/hydrate"
	"cssinjs/sink"
	"cssinjs/token"
)

// ExtractOptions controls Extract.
type ExtractOptions struct {
	// Plain returns bare CSS text without style elements.
	Plain bool
	// Types limits extraction to registrations of listed kinds (PrefixStyle,
	// PrefixToken, PrefixCSSVar). Empty means all.
	Types []string
	// Once skips registrations extracted by previous calls.
	Once bool
}

type extracted struct {
	order int
	text  string
}

// extraction is the state of a single Extract call.
type extraction struct {
	plain   bool
	effects map[string]bool
	paths   []hydrate.Entry
}

func (x *extraction) tag(text string, order int, tokenKey, id string) string {
	if x.plain {
		return text
	}
	return sink.RenderStyle(text, attrs(
		sink.AttrOrder, sink.Queue.String(),
		sink.AttrPriority, strconv.Itoa(order),
		AttrToken, tokenKey,
		sink.AttrMark, id,
	))
}

// Extract renders everything registered in the context cache as markup for
// server output. Style elements are ordered by their order, the cascade
// layer ordering rule goes first and the cache map the client hydrates from
// goes last.
func Extract(sc *Context, opts ExtractOptions) string {
	types := opts.Types
	if len(types) == 0 {
		types = []string{PrefixStyle, PrefixToken, PrefixCSSVar}
	}

	x := &extraction{plain: opts.Plain, effects: make(map[string]bool)}
	var items []extracted
	for _, path := range sc.cache.Keys() {
		if len(path) == 0 || !slices.Contains(types, path[0]) {
			continue
		}
		if opts.Once && sc.cache.Extracted(path) {
			continue
		}
		e, ok := sc.cache.Get(path)
		if !ok {
			continue
		}

		var (
			item extracted
			keep bool
		)
		switch v := e.Value.(type) {
		case *styleValue:
			item, keep = x.style(v)
		case *token.Computed:
			item, keep = x.token(v)
		case *CSSVarResult:
			item, keep = x.cssVar(v)
		}
		if !keep {
			continue
		}
		sc.cache.MarkExtracted(path)
		items = append(items, item)
	}

	slices.SortStableFunc(items, func(a, b extracted) int {
		return a.order - b.order
	})

	var sb strings.Builder
	if sc.layer && slices.Contains(types, PrefixStyle) {
		if rule := sc.reg.Layers.Rule(sc.layerComposer()); rule != "" {
			if x.plain {
				sb.WriteString(rule)
			} else {
				sb.WriteString(sink.RenderStyle(rule, attrs(sink.AttrOrder, sink.PrependFirst.String(), sink.AttrMark, layerOrderID)))
			}
		}
	}
	for _, it := range items {
		sb.WriteString(it.text)
	}

	marker := hydrate.MarkerStyle(x.paths)
	if x.plain {
		sb.WriteString(marker)
	} else {
		sb.WriteString(sink.RenderStyle(marker, attrs(hydrate.AttrCachePath, hydrate.AttrCachePath)))
	}

	sc.log.Debug("Styles extracted", zap.Int("count", len(items)), zap.Int("paths", len(x.paths)))
	return sb.String()
}

func (x *extraction) style(v *styleValue) (extracted, bool) {
	if v.clientOnly {
		return extracted{}, false
	}
	var sb strings.Builder
	sb.WriteString(x.tag(v.css, v.order, v.tokenKey, v.id))
	for _, e := range v.effects {
		if x.effects[e.Key] {
			continue
		}
		x.effects[e.Key] = true
		sb.WriteString(x.tag(e.CSS, v.order, v.tokenKey, effectPrefix+e.Key))
	}
	x.paths = append(x.paths, hydrate.Entry{Path: hydrate.Key(v.path), Hash: v.id})
	return extracted{order: v.order, text: sb.String()}, true
}

func (x *extraction) token(c *token.Computed) (extracted, bool) {
	if c.CSSVars == "" {
		return extracted{}, false
	}
	return extracted{
		order: cssVarPriority,
		text:  x.tag(c.CSSVars, cssVarPriority, c.CSSVarKey, c.RealKey),
	}, true
}

func (x *extraction) cssVar(v *CSSVarResult) (extracted, bool) {
	if v.CSSVars == "" {
		return extracted{}, false
	}
	return extracted{
		order: cssVarPriority,
		text:  x.tag(v.CSSVars, cssVarPriority, v.Key, v.StyleID),
	}, true
}
