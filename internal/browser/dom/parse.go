// internal/browser/dom/parse.go
package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse reads an HTML document and builds a Document located at rawURL.
// Nodes are inserted through the regular mutation path, so element behaviors
// observe the parse exactly as they observe scripted insertions.
func Parse(r io.Reader, rawURL string, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	d, err := NewDocument(rawURL, opts...)
	if err != nil {
		return nil, err
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := d.importHTML(c); n != nil {
			if err := d.root.AppendChild(n); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

// ParseString is Parse over an in-memory string.
func ParseString(markup, rawURL string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(markup), rawURL, opts...)
}

// ParseFragment parses markup in the context of the element contextNode and
// returns the resulting detached nodes owned by d.
func (d *Document) ParseFragment(markup string, contextNode *Node) ([]*Node, error) {
	var ctx *html.Node
	if contextNode != nil && contextNode.Type == ElementNode {
		ctx = &html.Node{Type: html.ElementNode, Data: contextNode.name, DataAtom: contextNode.atom}
	} else {
		ctx = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}

	parsed, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML fragment: %w", err)
	}
	nodes := make([]*Node, 0, len(parsed))
	for _, h := range parsed {
		if n := d.importHTML(h); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// importHTML converts a parsed subtree into nodes owned by d.
func (d *Document) importHTML(h *html.Node) *Node {
	var n *Node
	switch h.Type {
	case html.ElementNode:
		n = d.CreateElement(h.Data)
		n.attrs = make([]html.Attribute, len(h.Attr))
		copy(n.attrs, h.Attr)
	case html.TextNode:
		n = d.CreateTextNode(h.Data)
	case html.CommentNode:
		n = d.CreateComment(h.Data)
	case html.DoctypeNode:
		n = &Node{Type: DoctypeNode, name: h.Data, doc: d}
	default:
		return nil
	}

	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if child := d.importHTML(c); child != nil {
			_ = n.AppendChild(child)
		}
	}
	return n
}

// toHTML mirrors the subtree rooted at n into golang.org/x/net/html nodes.
// When index is non-nil it records the mirror-to-source mapping.
func toHTML(n *Node, index map[*html.Node]*Node) *html.Node {
	h := &html.Node{}
	switch n.Type {
	case ElementNode:
		h.Type = html.ElementNode
		h.Data = n.name
		h.DataAtom = n.atom
		h.Attr = n.Attributes()
	case TextNode:
		h.Type = html.TextNode
		h.Data = n.data
	case CommentNode:
		h.Type = html.CommentNode
		h.Data = n.data
	case DoctypeNode:
		h.Type = html.DoctypeNode
		h.Data = n.name
	case DocumentNode:
		h.Type = html.DocumentNode
	}
	if index != nil {
		index[h] = n
	}
	for c := n.firstChild; c != nil; c = c.nextSibling {
		h.AppendChild(toHTML(c, index))
	}
	return h
}

// Render writes the HTML serialization of the subtree rooted at n.
func Render(w io.Writer, n *Node) error {
	return html.Render(w, toHTML(n, nil))
}

// OuterHTML returns the serialization of n, or "" if rendering fails.
func OuterHTML(n *Node) string {
	var sb strings.Builder
	if err := Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}
