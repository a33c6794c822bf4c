// internal/browser/dom/document.go
package dom

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html/atom"
)

// AboutBlank is the URL of a document created without one.
const AboutBlank = "about:blank"

// BehaviorFactory returns the behavior to attach to a newly created element,
// or nil for elements without one. Behaviors expose optional capabilities
// (descendant observers, form controls) through the interfaces they implement.
type BehaviorFactory func(n *Node) any

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used by the document and the behaviors attached to it.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithBehaviorFactory installs the factory consulted by CreateElement.
func WithBehaviorFactory(factory BehaviorFactory) Option {
	return func(d *Document) {
		d.factory = factory
	}
}

// Document owns a node tree and the per-document state that nodes consult:
// the document URL, the focused element and the element behavior factory.
type Document struct {
	id      string
	root    *Node
	url     *url.URL
	factory BehaviorFactory
	logger  *zap.Logger

	activeElement *Node
}

// NewDocument creates an empty document located at rawURL. An empty rawURL
// yields about:blank.
func NewDocument(rawURL string, opts ...Option) (*Document, error) {
	if rawURL == "" {
		rawURL = AboutBlank
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &SyntaxError{Input: rawURL, Err: err}
	}

	d := &Document{
		id:     uuid.New().String(),
		url:    u,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(zap.String("document_id", d.id))
	d.root = &Node{Type: DocumentNode, doc: d}
	return d, nil
}

// ID returns the unique identifier assigned to the document at creation.
func (d *Document) ID() string { return d.id }

// Root returns the document node.
func (d *Document) Root() *Node { return d.root }

// Logger returns the document's logger.
func (d *Document) Logger() *zap.Logger { return d.logger }

// URL returns the document's address.
func (d *Document) URL() string { return d.url.String() }

// DocumentElement returns the first element child of the document node.
func (d *Document) DocumentElement() *Node {
	for c := d.root.firstChild; c != nil; c = c.nextSibling {
		if c.Type == ElementNode {
			return c
		}
	}
	return nil
}

// Body returns the first body element in tree order.
func (d *Document) Body() *Node {
	for n := range Descendants(d.root) {
		if n.Is(atom.Body) {
			return n
		}
	}
	return nil
}

// BaseURL returns the document base URL: the href of the first base element
// that has one, resolved against the document URL, or the document URL itself.
func (d *Document) BaseURL() *url.URL {
	for n := range Descendants(d.root) {
		if !n.Is(atom.Base) {
			continue
		}
		href, ok := n.GetAttribute("href")
		if !ok {
			continue
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			break
		}
		return d.url.ResolveReference(ref)
	}
	return d.url
}

// ResolveURL resolves ref against the document base URL and returns the
// absolute URL as text.
func (d *Document) ResolveURL(ref string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", &SyntaxError{Input: ref, Err: err}
	}
	base := d.BaseURL()
	if base.Opaque != "" && !parsed.IsAbs() {
		return "", &SyntaxError{Input: ref, Err: fmt.Errorf("cannot resolve against %s", base)}
	}
	return base.ResolveReference(parsed).String(), nil
}

// CreateElement creates a detached element owned by d. The tag name is
// lower-cased and the behavior factory, when configured, attaches behavior.
func (d *Document) CreateElement(name string) *Node {
	name = strings.ToLower(name)
	n := &Node{
		Type: ElementNode,
		name: name,
		atom: atom.Lookup([]byte(name)),
		doc:  d,
	}
	if d.factory != nil {
		n.behavior = d.factory(n)
	}
	return n
}

// CreateTextNode creates a detached text node owned by d.
func (d *Document) CreateTextNode(data string) *Node {
	return &Node{Type: TextNode, data: data, doc: d}
}

// CreateComment creates a detached comment node owned by d.
func (d *Document) CreateComment(data string) *Node {
	return &Node{Type: CommentNode, data: data, doc: d}
}

// CreateEvent creates an untrusted event ready for dispatch.
func (d *Document) CreateEvent(eventType string, init EventInit) *Event {
	return NewEvent(eventType, init)
}

// AdoptNode detaches n and transfers its subtree to d.
func (d *Document) AdoptNode(n *Node) {
	if n.Type == DocumentNode {
		return
	}
	n.Remove()
	for desc := range TreeIterator(n) {
		desc.doc = d
	}
}

// ActiveElement returns the focused element, or nil.
func (d *Document) ActiveElement() *Node { return d.activeElement }

// Focus moves focus to n, firing blur on the previously focused element and
// focus on n. Neither event bubbles. It reports whether n received focus.
func (d *Document) Focus(n *Node) bool {
	if n == nil || n.doc != d || n.Type != ElementNode || !n.IsConnected() {
		return false
	}
	prev := d.activeElement
	if prev == n {
		return true
	}
	d.activeElement = n
	if prev != nil {
		prev.DispatchEvent(d.CreateEvent("blur", EventInit{}))
	}
	n.DispatchEvent(d.CreateEvent("focus", EventInit{}))
	d.logger.Debug("Focus moved", zap.String("element", n.LocalName()))
	return true
}

// GetElementByID returns the first element in tree order with the given id.
func (d *Document) GetElementByID(id string) *Node {
	if id == "" {
		return nil
	}
	for n := range Descendants(d.root) {
		if n.Type == ElementNode && n.AttributeOr("id", "") == id {
			return n
		}
	}
	return nil
}
