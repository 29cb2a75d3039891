package css

import (
	"fmt"
	"io"
	"strings"
)

// Declaration is a single property: value pair. Value is the raw text with
// whitespace runs collapsed to a single space.
type Declaration struct {
	Property string
	Value    string
}

// Rule represents a single CSS rule (selector list + declarations).
type Rule struct {
	Selectors    []string
	Declarations []Declaration
}

// Get returns value of the last declaration of property, later declarations
// win the same way they do in a browser.
func (r Rule) Get(property string) (string, bool) {
	for i := len(r.Declarations) - 1; i >= 0; i-- {
		if r.Declarations[i].Property == property {
			return r.Declarations[i].Value, true
		}
	}
	return "", false
}

// HasSelector reports whether selector is one of rule selectors.
func (r Rule) HasSelector(selector string) bool {
	for _, s := range r.Selectors {
		if s == selector {
			return true
		}
	}
	return false
}

// Block is an at-rule. Statement at-rules (@layer a,b;) have no body and
// Statement set. Declaration at-rules (@font-face) keep declarations,
// grouping at-rules (@media) keep nested items.
type Block struct {
	Name         string // at-keyword including @
	Prelude      string
	Statement    bool
	Declarations []Declaration
	Items        []Item
}

// Header returns at-rule text preceding the body.
func (b Block) Header() string {
	if b.Prelude == "" {
		return b.Name
	}
	return b.Name + " " + b.Prelude
}

// Item is a single stylesheet item. Exactly one of Rule or Block is non-nil.
type Item struct {
	Rule  *Rule
	Block *Block
}

// Stylesheet represents a parsed CSS stylesheet.
type Stylesheet struct {
	Items    []Item   // All top-level items in source order
	Warnings []string // Problems found while parsing
}

// Walk calls fn for every rule in source order descending into at-rule
// blocks. Enclosing blocks are passed outermost first.
func (s *Stylesheet) Walk(fn func(rule *Rule, parents []*Block)) {
	walk(s.Items, nil, fn)
}

func walk(items []Item, parents []*Block, fn func(*Rule, []*Block)) {
	for _, item := range items {
		switch {
		case item.Rule != nil:
			fn(item.Rule, parents)
		case item.Block != nil:
			walk(item.Block.Items, append(parents[:len(parents):len(parents)], item.Block), fn)
		}
	}
}

// RulesBySelector returns all rules (including nested ones) having selector
// in their selector list.
func (s *Stylesheet) RulesBySelector(selector string) []Rule {
	var matches []Rule
	s.Walk(func(r *Rule, _ []*Block) {
		if r.HasSelector(selector) {
			matches = append(matches, *r)
		}
	})
	return matches
}

// Content returns unquoted value of `content` property of the last rule
// selected by class name. This is how values embedded into stylesheets are
// read back.
func (s *Stylesheet) Content(class string) (string, bool) {
	var (
		value string
		found bool
	)
	s.Walk(func(r *Rule, _ []*Block) {
		if !r.HasSelector("." + class) {
			return
		}
		if v, ok := r.Get("content"); ok {
			value, found = unquote(v), true
		}
	})
	return value, found
}

// Selectors returns selectors of all rules in source order, rules nested in
// at-rules are prefixed by block headers.
func (s *Stylesheet) Selectors() []string {
	var out []string
	s.Walk(func(r *Rule, parents []*Block) {
		var prefix strings.Builder
		for _, b := range parents {
			prefix.WriteString(b.Header())
			prefix.WriteString(" > ")
		}
		out = append(out, prefix.String()+strings.Join(r.Selectors, ","))
	})
	return out
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
// Output is indented, one declaration per line.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, item := range s.Items {
		n, err := writeItem(w, item, "")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// Compact returns the stylesheet as minimal CSS text, the same form the style
// compiler produces.
func (s *Stylesheet) Compact() string {
	var sb strings.Builder
	writeCompact(&sb, s.Items)
	return sb.String()
}

func writeCompact(sb *strings.Builder, items []Item) {
	for _, item := range items {
		switch {
		case item.Rule != nil:
			sb.WriteString(strings.Join(item.Rule.Selectors, ","))
			sb.WriteByte('{')
			writeCompactDecls(sb, item.Rule.Declarations)
			sb.WriteByte('}')
		case item.Block != nil:
			sb.WriteString(item.Block.Header())
			if item.Block.Statement {
				sb.WriteByte(';')
				continue
			}
			sb.WriteByte('{')
			writeCompactDecls(sb, item.Block.Declarations)
			writeCompact(sb, item.Block.Items)
			sb.WriteByte('}')
		}
	}
}

func writeCompactDecls(sb *strings.Builder, decls []Declaration) {
	for _, d := range decls {
		sb.WriteString(d.Property)
		sb.WriteByte(':')
		sb.WriteString(d.Value)
		sb.WriteByte(';')
	}
}

func writeItem(w io.Writer, item Item, indent string) (int, error) {
	switch {
	case item.Rule != nil:
		return writeBody(w, indent, strings.Join(item.Rule.Selectors, ",\n"+indent), item.Rule.Declarations, nil)
	case item.Block != nil:
		if item.Block.Statement {
			return fmt.Fprintf(w, "%s%s;\n", indent, item.Block.Header())
		}
		return writeBody(w, indent, item.Block.Header(), item.Block.Declarations, item.Block.Items)
	}
	return 0, nil
}

func writeBody(w io.Writer, indent, header string, decls []Declaration, items []Item) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "%s%s {\n", indent, header)
	total += n
	if err != nil {
		return total, err
	}
	for _, d := range decls {
		n, err = fmt.Fprintf(w, "%s  %s: %s;\n", indent, d.Property, d.Value)
		total += n
		if err != nil {
			return total, err
		}
	}
	for _, item := range items {
		n, err = writeItem(w, item, indent+"  ")
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err = fmt.Fprintf(w, "%s}\n", indent)
	total += n
	return total, err
}
