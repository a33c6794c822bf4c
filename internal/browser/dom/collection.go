// internal/browser/dom/collection.go
package dom

import "iter"

// Collection is a live, read-only view over the element descendants of a
// root that satisfy a filter. Nothing is cached: every read walks the current
// tree, so mutations are visible on the next access without a refresh.
type Collection struct {
	root   *Node
	filter func(*Node) bool
}

// NewCollection creates a live collection of root's element descendants
// matching filter, in tree order.
func NewCollection(root *Node, filter func(*Node) bool) *Collection {
	return &Collection{root: root, filter: filter}
}

func (c *Collection) matches(n *Node) bool {
	return n.Type == ElementNode && (c.filter == nil || c.filter(n))
}

// Len returns the number of matching elements.
func (c *Collection) Len() int {
	count := 0
	for n := range Descendants(c.root) {
		if c.matches(n) {
			count++
		}
	}
	return count
}

// Item returns the element at index, or nil if the index is out of range.
func (c *Collection) Item(index int) *Node {
	if index < 0 {
		return nil
	}
	i := 0
	for n := range Descendants(c.root) {
		if !c.matches(n) {
			continue
		}
		if i == index {
			return n
		}
		i++
	}
	return nil
}

// NamedItem returns the first element whose id is name or, failing that,
// the first whose name attribute is name.
func (c *Collection) NamedItem(name string) *Node {
	if name == "" {
		return nil
	}
	var byName *Node
	for n := range Descendants(c.root) {
		if !c.matches(n) {
			continue
		}
		if n.AttributeOr("id", "") == name {
			return n
		}
		if byName == nil && n.AttributeOr("name", "") == name {
			byName = n
		}
	}
	return byName
}

// Slice returns a snapshot of the current members. Later mutations do not
// affect the returned slice.
func (c *Collection) Slice() []*Node {
	var out []*Node
	for n := range Descendants(c.root) {
		if c.matches(n) {
			out = append(out, n)
		}
	}
	return out
}

// All yields index/element pairs from a snapshot taken when iteration starts.
func (c *Collection) All() iter.Seq2[int, *Node] {
	return func(yield func(int, *Node) bool) {
		for i, n := range c.Slice() {
			if !yield(i, n) {
				return
			}
		}
	}
}
