// internal/browser/dom/xpath.go
package dom

import (
	"fmt"
	"slices"
	"strings"
)

// XPathOf returns an XPath expression that selects n from its document.
// The nearest ancestor-or-self with a quotable id anchors the path; other
// steps are positional among same-named siblings.
func XPathOf(n *Node) string {
	if n == nil {
		return ""
	}
	var steps []string
	anchored := false
	for cur := n; cur != nil && cur.Type != DocumentNode; cur = cur.parent {
		if cur.Type != ElementNode {
			continue
		}
		if id := cur.AttributeOr("id", ""); id != "" && !strings.Contains(id, "'") {
			steps = append(steps, fmt.Sprintf(`//*[@id='%s']`, id))
			anchored = true
			break
		}
		index := 1
		for prev := cur.prevSibling; prev != nil; prev = prev.prevSibling {
			if prev.Type == ElementNode && prev.name == cur.name {
				index++
			}
		}
		steps = append(steps, fmt.Sprintf("%s[%d]", cur.name, index))
	}
	if len(steps) == 0 {
		return "/"
	}
	slices.Reverse(steps)
	path := strings.Join(steps, "/")
	if !anchored {
		path = "/" + path
	}
	return path
}
