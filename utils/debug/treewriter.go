// Package debug renders human readable dumps of engine state.
package debug

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"
)

type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes label with quoted value, empty values are left bare.
func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

type pathNode struct {
	children map[string]*pathNode
	leaf     bool
}

// Paths writes key paths as a tree sharing common prefixes. Siblings are
// sorted in natural order, complete paths are marked with "*". Lines for
// complete paths are extended by annotate when it is not nil.
func (tw TreeWriter) Paths(depth int, paths [][]string, annotate func(path []string) string) {
	root := &pathNode{}
	for _, p := range paths {
		n := root
		for _, part := range p {
			if n.children == nil {
				n.children = make(map[string]*pathNode)
			}
			next, ok := n.children[part]
			if !ok {
				next = &pathNode{}
				n.children[part] = next
			}
			n = next
		}
		n.leaf = true
	}
	tw.writeNode(depth, root, nil, annotate)
}

func (tw TreeWriter) writeNode(depth int, n *pathNode, prefix []string, annotate func([]string) string) {
	keys := slices.Collect(maps.Keys(n.children))
	sort.Sort(natural.StringSlice(keys))
	for _, k := range keys {
		child := n.children[k]
		path := append(slices.Clone(prefix), k)
		tw.indent(depth)
		tw.w.WriteString(encodeText(k))
		if child.leaf {
			tw.w.WriteString(" *")
			if annotate != nil {
				if note := annotate(path); note != "" {
					tw.w.WriteByte(' ')
					tw.w.WriteString(note)
				}
			}
		}
		tw.w.WriteByte('\n')
		tw.writeNode(depth+1, child, path, annotate)
	}
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
