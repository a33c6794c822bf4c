// internal/browser/dom/node.go
package dom

import (
	"iter"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NodeType identifies the kind of a Node.
type NodeType int

const (
	ElementNode NodeType = iota + 1
	TextNode
	CommentNode
	DoctypeNode
	DocumentNode
)

// Node is a single node of a document tree. Element attributes are stored in
// the same representation golang.org/x/net/html uses so trees can be moved in
// and out of the parser and renderer without conversion of attribute data.
//
// Nodes are not safe for concurrent use. A document and all of its nodes are
// owned by a single goroutine.
type Node struct {
	Type NodeType

	parent      *Node
	firstChild  *Node
	lastChild   *Node
	prevSibling *Node
	nextSibling *Node

	name  string
	atom  atom.Atom
	data  string
	attrs []html.Attribute

	doc       *Document
	behavior  any
	listeners map[string][]*listener
}

// DescendantObserver is implemented by element behaviors that want to observe
// subtree insertions and removals anywhere beneath their node. Implementations
// must finish by calling the node's BaseDescendantAdded/BaseDescendantRemoved
// so that ancestors keep receiving the notification.
type DescendantObserver interface {
	DescendantAdded(parent, child *Node)
	DescendantRemoved(parent, child *Node)
}

// -- Accessors --

func (n *Node) Parent() *Node            { return n.parent }
func (n *Node) FirstChild() *Node        { return n.firstChild }
func (n *Node) LastChild() *Node         { return n.lastChild }
func (n *Node) PrevSibling() *Node       { return n.prevSibling }
func (n *Node) NextSibling() *Node       { return n.nextSibling }
func (n *Node) OwnerDocument() *Document { return n.doc }
func (n *Node) DataAtom() atom.Atom      { return n.atom }
func (n *Node) Behavior() any            { return n.behavior }
func (n *Node) SetBehavior(behavior any) { n.behavior = behavior }
func (n *Node) IsElement() bool          { return n.Type == ElementNode }
func (n *Node) Is(a atom.Atom) bool      { return n.Type == ElementNode && n.atom == a }
func (n *Node) Data() string             { return n.data }
func (n *Node) SetData(data string)      { n.data = data }

// LocalName returns the lower-case tag name of an element, or "" for other node types.
func (n *Node) LocalName() string {
	if n.Type != ElementNode {
		return ""
	}
	return n.name
}

// NodeName mirrors the DOM nodeName property.
func (n *Node) NodeName() string {
	switch n.Type {
	case ElementNode:
		return strings.ToUpper(n.name)
	case TextNode:
		return "#text"
	case CommentNode:
		return "#comment"
	case DocumentNode:
		return "#document"
	case DoctypeNode:
		return n.name
	}
	return ""
}

// IsConnected reports whether the node is attached to its owner document's tree.
func (n *Node) IsConnected() bool {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return n.doc != nil && root == n.doc.root
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Children returns a snapshot of the node's direct children.
func (n *Node) Children() []*Node {
	var children []*Node
	for c := n.firstChild; c != nil; c = c.nextSibling {
		children = append(children, c)
	}
	return children
}

// TextContent returns the concatenated text of all descendant text nodes.
func (n *Node) TextContent() string {
	if n.Type == TextNode || n.Type == CommentNode {
		return n.data
	}
	var sb strings.Builder
	for d := range Descendants(n) {
		if d.Type == TextNode {
			sb.WriteString(d.data)
		}
	}
	return sb.String()
}

// SetTextContent replaces all children with a single text node.
func (n *Node) SetTextContent(text string) {
	if n.Type == TextNode || n.Type == CommentNode {
		n.data = text
		return
	}
	for c := n.firstChild; c != nil; {
		next := c.nextSibling
		_ = n.RemoveChild(c)
		c = next
	}
	if text != "" && n.doc != nil {
		_ = n.AppendChild(n.doc.CreateTextNode(text))
	}
}

// -- Attributes --

// GetAttribute returns the attribute value and whether it is present.
func (n *Node) GetAttribute(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, a := range n.attrs {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// AttributeOr returns the attribute value or fallback when it is absent.
func (n *Node) AttributeOr(name, fallback string) string {
	if v, ok := n.GetAttribute(name); ok {
		return v
	}
	return fallback
}

// HasAttribute reports whether the attribute is present.
func (n *Node) HasAttribute(name string) bool {
	_, ok := n.GetAttribute(name)
	return ok
}

// SetAttribute writes the value verbatim, adding the attribute if needed.
func (n *Node) SetAttribute(name, value string) {
	name = strings.ToLower(name)
	for i, a := range n.attrs {
		if a.Namespace == "" && a.Key == name {
			n.attrs[i].Val = value
			return
		}
	}
	n.attrs = append(n.attrs, html.Attribute{Key: name, Val: value})
}

// RemoveAttribute deletes the attribute if present.
func (n *Node) RemoveAttribute(name string) {
	name = strings.ToLower(name)
	for i, a := range n.attrs {
		if a.Namespace == "" && a.Key == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			return
		}
	}
}

// Attributes returns a copy of the attribute list in source order.
func (n *Node) Attributes() []html.Attribute {
	out := make([]html.Attribute, len(n.attrs))
	copy(out, n.attrs)
	return out
}

// -- Tree mutation --

// AppendChild inserts child as the last child of n.
func (n *Node) AppendChild(child *Node) error {
	return n.insertBefore("appendChild", child, nil)
}

// InsertBefore inserts child before ref. A nil ref appends.
func (n *Node) InsertBefore(child, ref *Node) error {
	return n.insertBefore("insertBefore", child, ref)
}

func (n *Node) insertBefore(op string, child, ref *Node) error {
	if child == nil {
		return &HierarchyRequestError{Op: op, Reason: "node is nil"}
	}
	switch n.Type {
	case TextNode, CommentNode, DoctypeNode:
		return &HierarchyRequestError{Op: op, Reason: "parent cannot have children"}
	}
	if child.Type == DocumentNode {
		return &HierarchyRequestError{Op: op, Reason: "a document cannot be inserted"}
	}
	if child.Contains(n) {
		return &HierarchyRequestError{Op: op, Reason: "the new child is an ancestor of the parent"}
	}
	if ref != nil && ref.parent != n {
		return &NotFoundError{Op: op, Reason: "the reference node is not a child of this node"}
	}
	if ref == child {
		ref = child.nextSibling
	}

	// Moving a node is a removal followed by an insertion, and observers see both.
	if child.parent != nil {
		if err := child.parent.RemoveChild(child); err != nil {
			return err
		}
	}

	child.parent = n
	if ref == nil {
		child.prevSibling = n.lastChild
		if n.lastChild != nil {
			n.lastChild.nextSibling = child
		} else {
			n.firstChild = child
		}
		n.lastChild = child
	} else {
		child.prevSibling = ref.prevSibling
		child.nextSibling = ref
		if ref.prevSibling != nil {
			ref.prevSibling.nextSibling = child
		} else {
			n.firstChild = child
		}
		ref.prevSibling = child
	}

	n.notifyDescendantAdded(n, child)
	return nil
}

// RemoveChild detaches child from n.
func (n *Node) RemoveChild(child *Node) error {
	if child == nil || child.parent != n {
		return &NotFoundError{Op: "removeChild", Reason: "the node to be removed is not a child of this node"}
	}

	if child.prevSibling != nil {
		child.prevSibling.nextSibling = child.nextSibling
	} else {
		n.firstChild = child.nextSibling
	}
	if child.nextSibling != nil {
		child.nextSibling.prevSibling = child.prevSibling
	} else {
		n.lastChild = child.prevSibling
	}
	child.parent, child.prevSibling, child.nextSibling = nil, nil, nil

	if n.doc != nil && n.doc.activeElement != nil && child.Contains(n.doc.activeElement) {
		n.doc.activeElement = nil
	}

	n.notifyDescendantRemoved(n, child)
	return nil
}

// Remove detaches n from its parent, if any.
func (n *Node) Remove() {
	if n.parent != nil {
		_ = n.parent.RemoveChild(n)
	}
}

// -- Mutation hooks --

func (n *Node) notifyDescendantAdded(parent, child *Node) {
	if obs, ok := n.behavior.(DescendantObserver); ok {
		obs.DescendantAdded(parent, child)
		return
	}
	n.BaseDescendantAdded(parent, child)
}

func (n *Node) notifyDescendantRemoved(parent, child *Node) {
	if obs, ok := n.behavior.(DescendantObserver); ok {
		obs.DescendantRemoved(parent, child)
		return
	}
	n.BaseDescendantRemoved(parent, child)
}

// BaseDescendantAdded is the default insertion hook: it forwards the
// notification to the next ancestor.
func (n *Node) BaseDescendantAdded(parent, child *Node) {
	if n.parent != nil {
		n.parent.notifyDescendantAdded(parent, child)
	}
}

// BaseDescendantRemoved is the default removal hook: it forwards the
// notification to the next ancestor.
func (n *Node) BaseDescendantRemoved(parent, child *Node) {
	if n.parent != nil {
		n.parent.notifyDescendantRemoved(parent, child)
	}
}

// -- Traversal --

// TreeIterator yields root and all of its descendants in tree order (pre-order).
func TreeIterator(root *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for n := root; n != nil; n = n.following(root) {
			if !yield(n) {
				return
			}
		}
	}
}

// Descendants yields the descendants of root in tree order, excluding root.
func Descendants(root *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for n := root.following(root); n != nil; n = n.following(root) {
			if !yield(n) {
				return
			}
		}
	}
}

// following returns the next node in pre-order without leaving root's subtree.
func (n *Node) following(root *Node) *Node {
	if n.firstChild != nil {
		return n.firstChild
	}
	for cur := n; cur != nil && cur != root; cur = cur.parent {
		if cur.nextSibling != nil {
			return cur.nextSibling
		}
	}
	return nil
}

// ClosestAncestor returns the nearest strict ancestor matching pred.
func (n *Node) ClosestAncestor(pred func(*Node) bool) *Node {
	for cur := n.parent; cur != nil; cur = cur.parent {
		if pred(cur) {
			return cur
		}
	}
	return nil
}
