// internal/browser/dom/query.go
package dom

import (
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// QueryAll evaluates an XPath expression with n as the root and returns the
// matching nodes in document order. The expression runs against a mirror of
// the current tree, so results always reflect the latest mutations.
func (n *Node) QueryAll(expr string) ([]*Node, error) {
	index := make(map[*html.Node]*Node)
	top := toHTML(n, index)

	found, err := htmlquery.QueryAll(top, expr)
	if err != nil {
		return nil, &SyntaxError{Input: expr, Err: err}
	}

	out := make([]*Node, 0, len(found))
	for _, h := range found {
		// Attribute and text results have no element counterpart.
		if m, ok := index[h]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// Query returns the first node matching expr, or nil.
func (n *Node) Query(expr string) (*Node, error) {
	nodes, err := n.QueryAll(expr)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	return nodes[0], nil
}
