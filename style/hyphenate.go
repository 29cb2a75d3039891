package style

import (
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
)

const hyphenateCacheSize = 1024

var hyphenated = func() *lru.Cache[string, string] {
	c, err := lru.New[string, string](hyphenateCacheSize)
	if err != nil {
		// only possible with non-positive size
		panic(err)
	}
	return c
}()

// Hyphenate converts camel cased property name into CSS property name:
// backgroundColor becomes background-color, WebkitBoxFlex -webkit-box-flex
// and msFlex -ms-flex.
// Custom properties are returned unchanged.
func Hyphenate(name string) string {
	if strings.HasPrefix(name, "--") {
		return name
	}
	if v, ok := hyphenated.Get(name); ok {
		return v
	}

	var sb strings.Builder
	sb.Grow(len(name) + 4)
	if strings.HasPrefix(name, "ms") {
		// vendor prefix, msGridRow is -ms-grid-row
		sb.WriteByte('-')
	}
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			sb.WriteByte('-')
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	out := sb.String()
	hyphenated.Add(name, out)
	return out
}
