// Package hydrate carries the map of registered style paths from server
// output to the client so styles rendered by server are reused instead of
// being inserted again.
package hydrate

import (
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"cssinjs/sink"
)

const (
	// AttrCachePath marks the element embedding the map. The same name is
	// used as class of the rule carrying the map in `content`.
	AttrCachePath = "data-cssinjs-cache-path"
	// CSSFileStyle is returned instead of style text when styles were
	// shipped in a separate CSS file and there is nothing to reuse.
	CSSFileStyle = "__FROM_CSS_FILE__"
)

// Entry is a single registered path.
type Entry struct {
	Path string
	Hash string
}

var keyEscaper = strings.NewReplacer("%", "%25", "|", "%7C")

// Key joins registration path components. Separators inside components are
// escaped so distinct paths never produce the same key.
func Key(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = keyEscaper.Replace(p)
	}
	return strings.Join(parts, "|")
}

// Serialize encodes entries in the given order.
func Serialize(entries []Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, url.QueryEscape(e.Path)+":"+e.Hash)
	}
	return strings.Join(parts, ";")
}

// Parse decodes serialized map. Malformed pairs are skipped.
func Parse(content string) map[string]string {
	out := make(map[string]string)
	for item := range strings.SplitSeq(content, ";") {
		path, hash, ok := strings.Cut(item, ":")
		if !ok || hash == "" {
			continue
		}
		p, err := url.QueryUnescape(path)
		if err != nil {
			continue
		}
		out[p] = hash
	}
	return out
}

// MarkerStyle returns the rule embedding serialized map.
func MarkerStyle(entries []Entry) string {
	return "." + AttrCachePath + `{content:"` + Serialize(entries) + `";}`
}

// Status of a path lookup.
type Status int

const (
	// Fresh paths are registered normally.
	Fresh Status = iota
	// Adopted paths reuse server output, nothing is inserted.
	Adopted
)

// Result of Lookup.
type Result struct {
	Status Status
	Hash   string
	// CSS is reused style text or CSSFileStyle.
	CSS string
	// Node holds server rendered style element in inline mode.
	Node *sink.Node
}

// State is the client side reconciliation state. The embedded map is read
// from the sink once, on first lookup.
type State struct {
	mu          sync.Mutex
	log         *zap.Logger
	prepared    bool
	fromCSSFile bool
	paths       map[string]string
}

// NewState creates state in unprepared condition.
func NewState(log *zap.Logger) *State {
	if log == nil {
		log = zap.NewNop()
	}
	return &State{log: log.Named("hydrate")}
}

func (s *State) prepare(sk sink.Sink) {
	if s.prepared {
		return
	}
	s.prepared = true
	s.fromCSSFile = true
	s.paths = make(map[string]string)

	if r, ok := sk.(sink.ContentResolver); ok {
		if content, ok := r.ComputedContent(AttrCachePath); ok {
			s.paths = Parse(content)
		}
	}
	if markers := sk.Query(sink.Selector{Attr: AttrCachePath}); len(markers) > 0 {
		s.fromCSSFile = false
		for _, m := range markers {
			sk.Detach(m)
		}
	}
	s.log.Debug("Cache map prepared", zap.Int("paths", len(s.paths)), zap.Bool("css-file", s.fromCSSFile))
}

// Prepare reads embedded map if it was not read yet.
func (s *State) Prepare(sk sink.Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prepare(sk)
}

// Lookup decides whether path registered by server can be reused.
func (s *State) Lookup(sk sink.Sink, path string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prepare(sk)

	hash, ok := s.paths[path]
	if !ok {
		return Result{Status: Fresh}
	}
	if s.fromCSSFile {
		return Result{Status: Adopted, Hash: hash, CSS: CSSFileStyle}
	}
	nodes := sk.Query(sink.Selector{Attr: sink.AttrMark, Value: hash})
	if len(nodes) == 0 {
		delete(s.paths, path)
		return Result{Status: Fresh}
	}
	return Result{Status: Adopted, Hash: hash, CSS: nodes[0].CSS(), Node: nodes[0]}
}

// Reset returns state to unprepared condition.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prepared = false
	s.fromCSSFile = false
	s.paths = nil
}

// Paths returns number of paths still known.
func (s *State) Paths() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}
