// Package lint provides authoring linters for style objects. Linters only
// report, compiled output never depends on them.
package lint

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"

	"cssinjs/style"
)

// Names of built-in linters as used in configuration.
const (
	ContentQuotes     = "content-quotes"
	HashedAnimation   = "hashed-animation"
	LegacyNotSelector = "legacy-not-selector"
	LogicalProperties = "logical-properties"
	NaN               = "nan"
	ParentSelector    = "parent-selector"
)

var builtin = map[string]style.Linter{
	ContentQuotes:     ContentQuotesLinter,
	HashedAnimation:   HashedAnimationLinter,
	LegacyNotSelector: LegacyNotSelectorLinter,
	LogicalProperties: LogicalPropertiesLinter,
	NaN:               NaNLinter,
	ParentSelector:    ParentSelectorLinter,
}

// Names returns names of all built-in linters, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// ByName returns built-in linter.
func ByName(name string) (style.Linter, error) {
	l, ok := builtin[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown linter %q", name)
	}
	return l, nil
}

// Defaults returns linters enabled in development mode when nothing is
// configured explicitly.
func Defaults() []style.Linter {
	return []style.Linter{ContentQuotesLinter, HashedAnimationLinter}
}

var (
	contentKeywords = []string{"normal", "none", "initial", "inherit", "unset"}
	contentFuncRe   = regexp.MustCompile(`(attr|counters?|url|(((repeating-)?(linear|radial))|conic)-gradient)\(|(no-)?(open|close)-quote`)
)

// ContentQuotesLinter warns about `content` values which are missing quotes.
func ContentQuotesLinter(key string, value any, info style.LintInfo) {
	if key != "content" {
		return
	}
	s, ok := value.(string)
	if !ok || slices.Contains(contentKeywords, s) || contentFuncRe.MatchString(s) {
		return
	}
	if len(s) >= 2 && s[0] == s[len(s)-1] && (s[0] == '"' || s[0] == '\'') {
		return
	}
	info.Report(fmt.Sprintf("You seem to be using a value for 'content' without quotes, try replacing it with `content: '\"%s\"'`.", s))
}

// HashedAnimationLinter warns when `animation` shorthand is used in hashed
// styles: keyframe names get hashed and only animationName with Keyframes
// value picks that up.
func HashedAnimationLinter(key string, value any, info style.LintInfo) {
	if key != "animation" || info.HashID == "" || value == "none" {
		return
	}
	info.Report(fmt.Sprintf("You seem to be using hashed animation '%v', in which case 'animationName' with Keyframe as value is recommended.", value))
}

var (
	notRe      = regexp.MustCompile(`:not\([^)]*\)`)
	notInnerRe = regexp.MustCompile(`:not\(([^)]*)\)`)
)

// selectorPath joins parent selector keys the way nested selectors compose.
func selectorPath(parents []string) string {
	var path string
	for _, cur := range parents {
		switch {
		case path == "":
			path = cur
		case strings.Contains(cur, "&"):
			path = strings.ReplaceAll(cur, "&", path)
		default:
			path = path + " " + cur
		}
	}
	return path
}

// isConcatSelector reports whether :not() argument is a compound selector:
// several class, id or attribute selectors glued together.
func isConcatSelector(selector string) bool {
	m := notInnerRe.FindStringSubmatch(selector)
	if m == nil {
		return false
	}
	content := m[1]

	cells, open := 0, false
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '[':
			if open {
				cells++
				open = false
			}
			if j := strings.IndexByte(content[i:], ']'); j >= 0 {
				i += j
			} else {
				i = len(content)
			}
			cells++
		case '.', '#':
			if open {
				cells++
			}
			open = true
		default:
			open = true
		}
	}
	if open {
		cells++
	}
	return cells > 1
}

// LegacyNotSelectorLinter warns about `:not()` with compound argument which
// legacy browsers do not support.
func LegacyNotSelectorLinter(_ string, _ any, info style.LintInfo) {
	path := selectorPath(info.ParentSelectors)
	if slices.ContainsFunc(notRe.FindAllString(path, -1), isConcatSelector) {
		info.Report("Concat ':not' selector not support in legacy browsers.")
	}
}

const logicalDocs = "For more information: https://developer.mozilla.org/en-US/docs/Web/CSS/CSS_Logical_Properties."

var physicalProperties = []string{
	"marginLeft", "marginRight", "paddingLeft", "paddingRight", "left", "right",
	"borderLeft", "borderLeftWidth", "borderLeftStyle", "borderLeftColor",
	"borderRight", "borderRightWidth", "borderRightStyle", "borderRightColor",
	"borderTopLeftRadius", "borderTopRightRadius", "borderBottomLeftRadius", "borderBottomRightRadius",
}

// LogicalPropertiesLinter warns about physical properties and values which
// break in right-to-left mode.
func LogicalPropertiesLinter(key string, value any, info style.LintInfo) {
	switch {
	case slices.Contains(physicalProperties, key):
		info.Report(fmt.Sprintf("You seem to be using non-logical property '%s' which is not compatible with RTL mode. Please use logical properties and values instead. %s", key, logicalDocs))

	case key == "margin" || key == "padding" || key == "borderWidth" || key == "borderStyle":
		s, ok := value.(string)
		if !ok {
			return
		}
		parts := strings.Fields(s)
		if len(parts) == 4 && parts[1] != parts[3] {
			info.Report(fmt.Sprintf("You seem to be using '%s' property with different left %s and right %s, which is not compatible with RTL mode. Please use logical properties and values instead. %s", key, key, key, logicalDocs))
		}

	case key == "clear" || key == "textAlign":
		if value == "left" || value == "right" {
			info.Report(fmt.Sprintf("You seem to be using non-logical value '%v' of %s, which is not compatible with RTL mode. Please use logical properties and values instead. %s", value, key, logicalDocs))
		}

	case key == "borderRadius":
		s, ok := value.(string)
		if !ok {
			return
		}
		invalid := false
		for group := range strings.SplitSeq(s, "/") {
			parts := strings.Fields(group)
			// top-left / bottom-left differ from mirrored corners
			if len(parts) == 4 && (parts[0] != parts[1] || parts[2] != parts[3]) {
				invalid = true
			}
			if len(parts) == 3 && parts[0] != parts[1] {
				invalid = true
			}
		}
		if invalid {
			info.Report(fmt.Sprintf("You seem to be using non-logical value '%s' of %s, which is not compatible with RTL mode. Please use logical properties and values instead. %s", s, key, logicalDocs))
		}
	}
}

// NaNLinter warns about values that ended up as NaN after arithmetic.
func NaNLinter(key string, value any, info style.LintInfo) {
	nan := false
	switch v := value.(type) {
	case float64:
		nan = math.IsNaN(v)
	case float32:
		nan = math.IsNaN(float64(v))
	case string:
		nan = strings.Contains(v, "NaN")
	}
	if nan {
		info.Report(fmt.Sprintf("Unexpected 'NaN' in property '%s: %v'.", key, value))
	}
}

// ParentSelectorLinter warns about selectors referencing parent more than
// once.
func ParentSelectorLinter(_ string, _ any, info style.LintInfo) {
	for _, sel := range info.ParentSelectors {
		for part := range strings.SplitSeq(sel, ",") {
			if strings.Count(part, "&") > 1 {
				info.Report("Should not use more than one `&` in a selector.")
				return
			}
		}
	}
}
