package style

import (
	"strings"

	"go.uber.org/zap"
)

// Transformer rewrites style objects before they are compiled. Visit is
// called for every object, outer objects first, and must return a complete
// replacement.
type Transformer interface {
	Visit(Object) Object
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc func(Object) Object

// Visit calls f.
func (f TransformerFunc) Visit(o Object) Object {
	return f(o)
}

// Linter inspects a resolved declaration. Linters never change output, they
// report problems through info.
type Linter func(key string, value any, info LintInfo)

// LintInfo describes where a declaration was found.
type LintInfo struct {
	// Path is the logical registration path, for messages only.
	Path   string
	HashID string
	// ParentSelectors lists keys leading to the declaration, outermost first.
	ParentSelectors []string

	log *zap.Logger
}

// Report logs an authoring warning.
func (i LintInfo) Report(message string) {
	if i.log == nil {
		return
	}
	var sb strings.Builder
	sb.WriteString("[cssinjs] ")
	if i.Path != "" {
		sb.WriteString("Error in ")
		sb.WriteString(i.Path)
		sb.WriteString(": ")
	}
	sb.WriteString(message)
	if len(i.ParentSelectors) > 0 {
		sb.WriteString(" Selector: ")
		sb.WriteString(strings.Join(i.ParentSelectors, " | "))
	}
	i.log.Warn(sb.String())
}

// NewLintInfo builds info reporting to log, for use by linter tests.
func NewLintInfo(log *zap.Logger, path, hashID string, parents ...string) LintInfo {
	return LintInfo{Path: path, HashID: hashID, ParentSelectors: parents, log: log}
}
