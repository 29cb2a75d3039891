// Package style compiles nested style objects into flat CSS text.
//
// Selector composition follows the usual nesting rules: a key containing &
// replaces it with the parent selector, a key starting with a pseudo class
// attaches to the parent, any other key becomes a descendant of the parent.
// Comma separated keys expand against every parent selector. Keys starting
// with @ open at-rule blocks whose content still resolves against the
// enclosing selector. Declarations of a selector are collected into a single
// rule which precedes rules of nested selectors.
package style

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cssinjs/token"
)

// HashPriority selects how hash class is injected into top level selectors.
type HashPriority int

const (
	// HashPriorityLow wraps hash class into :where() so it adds no specificity.
	HashPriorityLow HashPriority = iota
	// HashPriorityHigh uses plain hash class selector.
	HashPriorityHigh
)

// String implements fmt.Stringer.
func (p HashPriority) String() string {
	switch p {
	case HashPriorityHigh:
		return "high"
	default:
		return "low"
	}
}

// ParseHashPriority converts name into HashPriority.
func ParseHashPriority(name string) (HashPriority, error) {
	switch strings.ToLower(name) {
	case "", "low":
		return HashPriorityLow, nil
	case "high":
		return HashPriorityHigh, nil
	}
	return HashPriorityLow, fmt.Errorf("unknown hash priority %q", name)
}

// HashSelector returns selector hash class is injected as.
func HashSelector(hashID string, priority HashPriority) string {
	if hashID == "" {
		return ""
	}
	if priority == HashPriorityHigh {
		return "." + hashID
	}
	return ":where(." + hashID + ")"
}

// Config controls a single compilation.
type Config struct {
	HashID       string
	HashPriority HashPriority
	// Layer wraps output into @layer block when set.
	Layer *Layer
	// Path is the registration path used in lint messages.
	Path         string
	Transformers []Transformer
	// Linters run only when Lint is set.
	Linters []Linter
	Lint    bool
	Log     *zap.Logger
}

// Effect is an additional block required by compiled styles, keyed so it can
// be emitted once no matter how many registrations need it.
type Effect struct {
	Key string
	CSS string
}

// Result of a compilation.
type Result struct {
	CSS     string
	Effects []Effect
}

// Compile flattens interpolation into CSS text. It never fails: problems are
// reported by linters and compilation goes on with whatever can be produced.
func Compile(interpolation Interpolation, cfg Config) Result {
	c := &compiler{cfg: cfg, seen: make(map[string]bool)}
	if c.cfg.Log == nil {
		c.cfg.Log = zap.NewNop()
	}

	var items []*item
	c.walk(interpolation, &frame{root: true, injectHash: cfg.HashID != "", out: &items})

	var sb strings.Builder
	for _, it := range items {
		it.write(&sb)
	}
	css := sb.String()
	if cfg.Layer != nil && cfg.Layer.Name != "" && css != "" {
		css = "@layer " + cfg.Layer.Name + "{" + css + "}"
	}
	return Result{CSS: css, Effects: c.effects}
}

// item is either a rule set (selector + declarations), raw text or an
// at-rule block holding its own declarations and nested items.
type item struct {
	selector string
	bare     bool
	raw      string
	atRule   string
	decls    []string
	children []*item
}

func (it *item) write(sb *strings.Builder) {
	switch {
	case it.raw != "":
		sb.WriteString(it.raw)
	case it.atRule != "":
		var inner strings.Builder
		for _, d := range it.decls {
			inner.WriteString(d)
		}
		for _, child := range it.children {
			child.write(&inner)
		}
		if inner.Len() == 0 {
			return
		}
		sb.WriteString(it.atRule)
		sb.WriteByte('{')
		sb.WriteString(inner.String())
		sb.WriteByte('}')
	case len(it.decls) == 0:
	case it.bare:
		for _, d := range it.decls {
			sb.WriteString(d)
		}
	default:
		sb.WriteString(it.selector)
		sb.WriteByte('{')
		for _, d := range it.decls {
			sb.WriteString(d)
		}
		sb.WriteByte('}')
	}
}

type frame struct {
	// selectors resolved for this level, nil on top level
	selectors []string
	root      bool
	// injectHash is set on top level (and inside top level at-rules) when a
	// hash id is configured
	injectHash bool
	out        *[]*item
	rule       *item
	parents    []string
}

// target returns item declarations of this frame go to, creating it on
// first use.
func (f *frame) target() *item {
	if f.rule == nil {
		f.rule = &item{bare: f.selectors == nil, selector: strings.Join(f.selectors, ",")}
		*f.out = append(*f.out, f.rule)
	}
	return f.rule
}

type compiler struct {
	cfg     Config
	effects []Effect
	seen    map[string]bool
}

func flattenList(v any, out []any) []any {
	switch list := v.(type) {
	case []any:
		for _, item := range list {
			out = flattenList(item, out)
		}
	case []Object:
		for _, item := range list {
			out = append(out, item)
		}
	case nil:
	case bool:
		// conditional styles: `cond && style` leaves a bool behind
	default:
		out = append(out, v)
	}
	return out
}

func (c *compiler) walk(v Interpolation, f *frame) {
	for _, entry := range flattenList(v, nil) {
		switch val := entry.(type) {
		case string:
			if f.root && val != "" {
				*f.out = append(*f.out, &item{raw: val})
			}
		case *Keyframes:
			c.keyframes(val)
		case Object:
			c.object(val, f)
		case map[string]any:
			c.object(FromMap(val), f)
		}
	}
}

func (c *compiler) object(o Object, f *frame) {
	for _, t := range c.cfg.Transformers {
		if t == nil {
			continue
		}
		if next := t.Visit(o); next != nil {
			o = next
		}
	}

	// rule for this level is created before anything nested so declarations
	// precede nested rules in output
	if f.selectors != nil {
		f.target()
	}

	for _, p := range o {
		if isNested(p.Key, p.Value) {
			c.nested(strings.TrimSpace(p.Key), p.Value, f)
			continue
		}
		c.declaration(p.Key, p.Value, f)
	}
}

func isNested(key string, v any) bool {
	switch val := v.(type) {
	case Object, map[string]any, []Object:
		return true
	case []any:
		for _, item := range val {
			switch item.(type) {
			case Object, map[string]any, []any, []Object:
				return true
			case *Keyframes:
				if selectorKey(key) {
					return true
				}
			}
		}
		return false
	case *Keyframes:
		// keyframes under a selector key define the animation, under a
		// declaration key reference it
		return selectorKey(key)
	}
	return false
}

func selectorKey(key string) bool {
	return strings.HasPrefix(key, "@") || strings.ContainsAny(key, ".#&: ")
}

var declarationAtRules = []string{
	"@font-face", "@page", "@property", "@counter-style", "@font-feature-values",
	"@font-palette-values", "@viewport", "@-ms-viewport",
}

func atRuleName(key string) string {
	name, _, _ := strings.Cut(key, " ")
	name, _, _ = strings.Cut(name, "(")
	return strings.ToLower(name)
}

func (c *compiler) nested(key string, v any, f *frame) {
	parents := append(append([]string(nil), f.parents...), key)

	if strings.HasPrefix(key, "@") {
		block := &item{atRule: key}
		*f.out = append(*f.out, block)

		name := atRuleName(key)
		switch {
		case strings.HasSuffix(name, "keyframes"):
			c.walk(v, &frame{out: &block.children, parents: parents})
		case isDeclarationAtRule(name):
			c.walk(v, &frame{out: &block.children, rule: block, parents: parents})
		default:
			c.walk(v, &frame{
				selectors:  f.selectors,
				root:       f.root,
				injectHash: f.injectHash,
				out:        &block.children,
				parents:    parents,
			})
		}
		return
	}

	if f.selectors == nil && !f.injectHash && (key == "" || key == "&") {
		// transparent wrapper on top level
		c.walk(v, &frame{root: f.root, out: f.out, parents: parents})
		return
	}

	c.walk(v, &frame{
		selectors: c.compose(f, key),
		out:       f.out,
		parents:   parents,
	})
}

func isDeclarationAtRule(name string) bool {
	for _, n := range declarationAtRules {
		if name == n {
			return true
		}
	}
	return false
}

// compose resolves key against selectors of frame f.
func (c *compiler) compose(f *frame, key string) []string {
	parts := SplitSelector(key)

	if f.selectors == nil {
		if !f.injectHash {
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				out = append(out, strings.TrimSpace(strings.ReplaceAll(p, "&", "")))
			}
			return out
		}
		return injectHash(parts, HashSelector(c.cfg.HashID, c.cfg.HashPriority))
	}

	out := make([]string, 0, len(f.selectors)*len(parts))
	for _, parent := range f.selectors {
		for _, p := range parts {
			out = append(out, join(parent, p))
		}
	}
	return out
}

func injectHash(parts []string, hashSel string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.HasPrefix(p, ":") {
			// the hash joins the compound of a leading pseudo-class
			out = append(out, hashSel+p)
			continue
		}
		out = append(out, join(hashSel, p))
	}
	return out
}

func join(parent, child string) string {
	switch {
	case child == "" || child == "&":
		return parent
	case strings.Contains(child, "&"):
		return strings.ReplaceAll(child, "&", parent)
	default:
		return parent + " " + child
	}
}

// SplitSelector splits comma separated selector list ignoring commas nested
// in parentheses, brackets or quotes. Parts are trimmed.
func SplitSelector(key string) []string {
	var (
		parts []string
		depth int
		quote rune
		start int
	)
	for i, r := range key {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(' || r == '[':
			depth++
		case r == ')' || r == ']':
			if depth > 0 {
				depth--
			}
		case r == ',' && depth == 0:
			parts = append(parts, strings.TrimSpace(key[start:i]))
			start = i + 1
		}
	}
	return append(parts, strings.TrimSpace(key[start:]))
}

func (c *compiler) declaration(key string, v any, f *frame) {
	skipCheck := false
	values := []any{v}

	switch val := v.(type) {
	case Compound:
		skipCheck = val.SkipCheck
		if list, ok := val.Value.([]any); ok && val.Multi {
			values = list
		} else {
			values = []any{val.Value}
		}
	case []any:
		values = val
	case []string:
		values = make([]any, 0, len(val))
		for _, s := range val {
			values = append(values, s)
		}
	}

	for _, value := range values {
		if value == nil {
			continue
		}
		if c.cfg.Lint && !skipCheck {
			info := LintInfo{Path: c.cfg.Path, HashID: c.cfg.HashID, ParentSelectors: f.parents, log: c.cfg.Log}
			for _, l := range c.cfg.Linters {
				if l != nil {
					l(key, value, info)
				}
			}
		}

		var formatted string
		switch val := value.(type) {
		case *Keyframes:
			c.keyframes(val)
			formatted = val.GetName(c.cfg.HashID)
		default:
			formatted = token.FormatValue(value)
			if token.IsNumber(value) && !unitless[key] && formatted != "0" {
				formatted += "px"
			}
		}

		rule := f.target()
		rule.decls = append(rule.decls, Hyphenate(key)+":"+formatted+";")
	}
}

// keyframes emits @keyframes block once per compilation.
func (c *compiler) keyframes(k *Keyframes) {
	name := k.GetName(c.cfg.HashID)
	if c.seen[name] {
		return
	}
	c.seen[name] = true

	var items []*item
	c.walk(k.Style, &frame{out: &items, parents: []string{"@keyframes " + name}})

	var sb strings.Builder
	for _, it := range items {
		it.write(&sb)
	}
	c.effects = append(c.effects, Effect{Key: name, CSS: "@keyframes " + name + "{" + sb.String() + "}"})
}
