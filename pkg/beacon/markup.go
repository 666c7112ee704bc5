package beacon

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML page that the beacon can be started on.
type Document struct {
	root *html.Node
}

func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{root: root}, nil
}

// Scripts returns the <script> elements in document order. It satisfies
// Lookup.
func (d *Document) Scripts() []Element {
	var scripts []Element
	for n := range d.root.Descendants() {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script {
			scripts = append(scripts, element{n})
		}
	}
	return scripts
}

// ByID returns the element with the given id attribute.
func (d *Document) ByID(id string) (Node, bool) {
	for n := range d.root.Descendants() {
		if n.Type != html.ElementNode {
			continue
		}
		if v, ok := attr(n, "id"); ok && v == id {
			return element{n}, true
		}
	}
	return nil, false
}

type element struct {
	n *html.Node
}

func (e element) Attr(name string) (string, bool) {
	return attr(e.n, name)
}

func (e element) Parent() Node {
	p := e.n.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return element{p}
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
