// Package sink defines the place compiled styles are written to and
// provides an in-memory document implementing it.
package sink

import (
	"slices"

	"golang.org/x/net/html"
)

// Attributes maintained by the sink itself.
const (
	AttrMark     = "data-css-hash"
	AttrOrder    = "data-rc-order"
	AttrPriority = "data-rc-priority"
	AttrNonce    = "nonce"
)

// Containers every document has.
const (
	Head = "head"
	Body = "body"
)

// Prepend selects where new style nodes are placed in their container.
type Prepend int

const (
	// Append places node after all existing ones.
	Append Prepend = iota
	// PrependFirst places node before all existing ones.
	PrependFirst
	// Queue places node after prepended nodes with lower or equal priority,
	// so prepended nodes stay sorted by priority and by insertion order
	// within the same priority.
	Queue
)

// String returns value of data-rc-order attribute for mode.
func (p Prepend) String() string {
	switch p {
	case PrependFirst:
		return "prepend"
	case Queue:
		return "prependQueue"
	default:
		return "append"
	}
}

func isPrepended(order string) bool {
	return order == "prepend" || order == "prependQueue"
}

// InsertOptions controls Insert.
type InsertOptions struct {
	// Mark is attribute identifying node, AttrMark when empty.
	Mark     string
	Prepend  Prepend
	Priority int
	Nonce    string
	// AttachTo names container, Head when empty.
	AttachTo string
	// Owner is cache instance id the node belongs to.
	Owner string
	// Attrs are set on the node in addition to sink attributes.
	Attrs []html.Attribute
}

func (o InsertOptions) mark() string {
	if o.Mark == "" {
		return AttrMark
	}
	return o.Mark
}

func (o InsertOptions) container() string {
	if o.AttachTo == "" {
		return Head
	}
	return o.AttachTo
}

// RemoveOptions controls Remove.
type RemoveOptions struct {
	Mark     string
	AttachTo string
	// Owner limits removal to nodes of cache instance, any node when empty.
	Owner string
}

// Selector filters nodes in Query. Empty fields match everything.
type Selector struct {
	// Attr requires attribute presence, with Value set its value too.
	Attr  string
	Value string
	// Owner requires node to belong to cache instance.
	Owner string
	// Unowned requires node without owner.
	Unowned   bool
	Container string
}

// Sink receives compiled styles.
type Sink interface {
	// Insert updates node marked with id or creates a new one. Nodes of
	// other owners are never updated.
	Insert(css, id string, opts InsertOptions) *Node
	// Remove deletes node marked with id.
	Remove(id string, opts RemoveOptions)
	// Query returns matching nodes in document order.
	Query(sel Selector) []*Node
	// Detach deletes node found by Query.
	Detach(n *Node)
	// Claim assigns node to cache instance.
	Claim(n *Node, owner string)
}

// ContentResolver is implemented by sinks able to compute `content` property
// of an element with class name from all stylesheets of the document.
type ContentResolver interface {
	ComputedContent(class string) (string, bool)
}

// Adopter is implemented by sinks which can take over server rendered styles
// when a new cache instance is created.
type Adopter interface {
	Adopt(owner string)
}

// Node is a style element.
type Node struct {
	doc       *Document
	css       string
	attrs     []html.Attribute
	owner     string
	container string
}

// CSS returns style text.
func (n *Node) CSS() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.css
}

// Attr returns attribute value.
func (n *Node) Attr(key string) (string, bool) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.attr(key)
}

// Attrs returns copy of node attributes in the order they were set.
func (n *Node) Attrs() []html.Attribute {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return slices.Clone(n.attrs)
}

// Owner returns cache instance id node belongs to.
func (n *Node) Owner() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.owner
}

// Container returns name of container holding node, empty when detached.
func (n *Node) Container() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.container
}

func (n *Node) attr(key string) (string, bool) {
	for _, a := range n.attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func (n *Node) setAttr(key, val string) {
	for i := range n.attrs {
		if n.attrs[i].Key == key {
			n.attrs[i].Val = val
			return
		}
	}
	n.attrs = append(n.attrs, html.Attribute{Key: key, Val: val})
}

func (n *Node) matches(sel Selector) bool {
	if sel.Attr != "" {
		v, ok := n.attr(sel.Attr)
		if !ok || (sel.Value != "" && v != sel.Value) {
			return false
		}
	}
	if sel.Owner != "" && n.owner != sel.Owner {
		return false
	}
	if sel.Unowned && n.owner != "" {
		return false
	}
	return sel.Container == "" || sel.Container == n.container
}
