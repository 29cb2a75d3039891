package sink

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML reads style elements of server rendered markup into a new
// document. Styles in head and body go into the matching containers, owner
// is left unset so a cache instance can adopt them.
func ParseHTML(r io.Reader, log *zap.Logger) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("unable to parse markup: %w", err)
	}

	d := NewDocument(log)
	var visit func(n *html.Node, container string)
	visit = func(n *html.Node, container string) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Head:
				container = Head
			case atom.Body:
				container = Body
			case atom.Style:
				d.appendParsed(n, container)
				return
			case atom.Link:
				// external stylesheets cannot be fetched here
				d.log.Debug("Linked stylesheet ignored", zap.String("href", attr(n, "href")))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c, container)
		}
	}
	visit(root, Head)
	return d, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func (d *Document) appendParsed(n *html.Node, container string) {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	node := &Node{doc: d, css: sb.String(), container: container}
	for _, a := range n.Attr {
		node.setAttr(a.Key, a.Val)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.addContainer(container)
	d.containers[container] = append(d.containers[container], node)
}

func styleElement(text string, attrs []html.Attribute) *html.Node {
	el := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style, Attr: attrs}
	el.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return el
}

// RenderStyle returns markup of a single style element.
func RenderStyle(text string, attrs []html.Attribute) string {
	var sb strings.Builder
	// writing into strings.Builder never fails
	_ = html.Render(&sb, styleElement(text, attrs))
	return sb.String()
}

// Render writes style elements of container as markup.
func (d *Document) Render(w io.Writer, container string) error {
	for _, n := range d.Nodes(container) {
		d.mu.Lock()
		el := styleElement(n.css, append([]html.Attribute(nil), n.attrs...))
		d.mu.Unlock()
		if err := html.Render(w, el); err != nil {
			return fmt.Errorf("unable to render style: %w", err)
		}
	}
	return nil
}

// String renders all containers, each wrapped into an element of the same
// name.
func (d *Document) String() string {
	var sb strings.Builder
	for _, name := range d.Containers() {
		fmt.Fprintf(&sb, "<%s>", name)
		_ = d.Render(&sb, name)
		fmt.Fprintf(&sb, "</%s>", name)
	}
	return sb.String()
}
