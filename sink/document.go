package sink

import (
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"cssinjs/css"
)

// Stats counts document mutations.
type Stats struct {
	Inserted int
	Updated  int
	Removed  int
}

// Document is an in-memory document holding style elements in named
// containers. It is safe for concurrent use.
type Document struct {
	mu         sync.Mutex
	log        *zap.Logger
	parser     *css.Parser
	containers map[string][]*Node
	names      []string
	linked     []string
	stats      Stats
}

// NewDocument creates empty document with head and body containers.
func NewDocument(log *zap.Logger) *Document {
	if log == nil {
		log = zap.NewNop()
	}
	return &Document{
		log:        log.Named("sink"),
		parser:     css.NewParser(log),
		containers: make(map[string][]*Node),
		names:      []string{Head, Body},
	}
}

func (d *Document) addContainer(name string) {
	if !slices.Contains(d.names, name) {
		d.names = append(d.names, name)
	}
}

// Containers returns names of all containers, head and body first.
func (d *Document) Containers() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.names)
}

// Stats returns mutation counters.
func (d *Document) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Nodes returns style nodes of container in order.
func (d *Document) Nodes(container string) []*Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.containers[container])
}

// Link adds external stylesheet to the document. Linked stylesheets take
// part in computed values only.
func (d *Document) Link(stylesheet string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.linked = append(d.linked, stylesheet)
}

// find returns node marked with id. With owner set only nodes of that owner
// or nodes nobody owns yet are considered, so cache instances sharing the
// document never update or remove each other's nodes.
func (d *Document) find(container, mark, id, owner string, unowned bool) *Node {
	for _, n := range d.containers[container] {
		if owner != "" && n.owner != owner && !(unowned && n.owner == "") {
			continue
		}
		if v, ok := n.attr(mark); ok && v == id {
			return n
		}
	}
	return nil
}

// Insert implements Sink.
func (d *Document) Insert(text, id string, opts InsertOptions) *Node {
	d.mu.Lock()
	defer d.mu.Unlock()

	name, mark := opts.container(), opts.mark()
	d.addContainer(name)

	if n := d.find(name, mark, id, opts.Owner, true); n != nil {
		if opts.Nonce != "" {
			if v, _ := n.attr(AttrNonce); v != opts.Nonce {
				n.setAttr(AttrNonce, opts.Nonce)
			}
		}
		if n.css != text {
			n.css = text
			d.stats.Updated++
		}
		for _, a := range opts.Attrs {
			n.setAttr(a.Key, a.Val)
		}
		if opts.Owner != "" {
			n.owner = opts.Owner
		}
		return n
	}

	n := &Node{doc: d, css: text, owner: opts.Owner, container: name}
	n.setAttr(AttrOrder, opts.Prepend.String())
	if opts.Prepend == Queue && opts.Priority != 0 {
		n.setAttr(AttrPriority, strconv.Itoa(opts.Priority))
	}
	if opts.Nonce != "" {
		n.setAttr(AttrNonce, opts.Nonce)
	}
	n.setAttr(mark, id)
	for _, a := range opts.Attrs {
		n.setAttr(a.Key, a.Val)
	}

	d.place(n, opts)
	d.stats.Inserted++
	d.log.Debug("Style inserted", zap.String("id", id), zap.String("container", name), zap.Int("priority", opts.Priority))
	return n
}

func (d *Document) place(n *Node, opts InsertOptions) {
	nodes := d.containers[n.container]
	switch opts.Prepend {
	case Append:
		nodes = append(nodes, n)
	case Queue:
		// after the last prepended node with priority not above ours
		at := -1
		for i, existing := range nodes {
			order, _ := existing.attr(AttrOrder)
			if !isPrepended(order) {
				continue
			}
			p, _ := existing.attr(AttrPriority)
			priority, _ := strconv.Atoi(p)
			if opts.Priority >= priority {
				at = i
			}
		}
		nodes = slices.Insert(nodes, at+1, n)
	default:
		nodes = slices.Insert(nodes, 0, n)
	}
	d.containers[n.container] = nodes
}

// Remove implements Sink.
func (d *Document) Remove(id string, opts RemoveOptions) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name := opts.AttachTo
	if name == "" {
		name = Head
	}
	mark := opts.Mark
	if mark == "" {
		mark = AttrMark
	}
	if n := d.find(name, mark, id, opts.Owner, false); n != nil {
		d.detach(n)
	}
}

// Query implements Sink.
func (d *Document) Query(sel Selector) []*Node {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []*Node
	for _, name := range d.names {
		for _, n := range d.containers[name] {
			if n.matches(sel) {
				out = append(out, n)
			}
		}
	}
	return out
}

// Detach implements Sink.
func (d *Document) Detach(n *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detach(n)
}

func (d *Document) detach(n *Node) {
	if n == nil || n.container == "" {
		return
	}
	nodes := d.containers[n.container]
	if i := slices.Index(nodes, n); i >= 0 {
		d.containers[n.container] = slices.Delete(nodes, i, i+1)
		d.stats.Removed++
		v, _ := n.attr(AttrMark)
		d.log.Debug("Style removed", zap.String("id", v), zap.String("container", n.container))
	}
	n.container = ""
}

// Claim implements Sink.
func (d *Document) Claim(n *Node, owner string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n.owner = owner
}

// Adopt implements Adopter. Marked styles rendered into body by server and
// not yet owned are moved to the top of head and assigned to owner, then
// duplicates (by mark) owned by owner are dropped.
func (d *Document) Adopt(owner string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var moved []*Node
	for _, n := range slices.Clone(d.containers[Body]) {
		if _, ok := n.attr(AttrMark); !ok {
			continue
		}
		if n.owner == "" {
			n.owner = owner
		}
		if n.owner != owner {
			continue
		}
		d.containers[Body] = slices.DeleteFunc(d.containers[Body], func(x *Node) bool { return x == n })
		n.container = Head
		moved = append(moved, n)
	}
	d.containers[Head] = append(moved, d.containers[Head]...)

	seen := make(map[string]bool)
	for _, name := range d.names {
		for _, n := range slices.Clone(d.containers[name]) {
			hash, ok := n.attr(AttrMark)
			if !ok {
				continue
			}
			if !seen[hash] {
				seen[hash] = true
				continue
			}
			if n.owner == owner {
				d.detach(n)
			}
		}
	}
	if len(moved) > 0 {
		d.log.Debug("Server styles adopted", zap.String("owner", owner), zap.Int("count", len(moved)))
	}
}

// ComputedContent implements ContentResolver: value of `content` property for
// element with class, looked up in linked stylesheets and then in style
// elements in document order.
func (d *Document) ComputedContent(class string) (string, bool) {
	d.mu.Lock()
	var sb strings.Builder
	for _, s := range d.linked {
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	for _, name := range d.names {
		for _, n := range d.containers[name] {
			sb.WriteString(n.css)
			sb.WriteByte('\n')
		}
	}
	d.mu.Unlock()

	return d.parser.Parse([]byte(sb.String()), "computed").Content(class)
}
