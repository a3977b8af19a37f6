// Package dom models a rendered document as an explicit tree: elements and
// text nodes carrying attributes, a computed-style subset, client geometry,
// and containment links (shadow roots, slot assignment, nested frame
// documents). The model is the substrate the extraction and overlay
// packages operate on; it is built either synthetically (parsed HTML plus
// programmatic geometry, used heavily in tests) or by decoding the capture
// snapshot a live page produces.
//
// Everything that depends on the host rendering engine — hit-testing order,
// listener enumeration — is expressed as a capability with a deterministic
// default, so documents without engine-provided data still behave sanely.
package dom

import (
	"strings"
)

// NodeType discriminates the tree node kinds.
type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
	ShadowRootNode
	DocumentNode
)

// Node is one tree node. Element nodes carry Tag/Attrs/Style/geometry;
// text nodes carry Text; shadow-root and document nodes are containers.
type Node struct {
	Type NodeType

	// Tag is the lower-cased element name. Empty for non-elements.
	Tag string

	// Text is the raw character data of a text node.
	Text string

	// Attrs holds the element's attributes, keys lower-cased.
	Attrs map[string]string

	Parent   *Node
	Children []*Node

	// Shadow is the element's shadow root, if it hosts one. Children of a
	// shadow host render through the shadow tree (light children appear
	// only where a <slot> assigns them).
	Shadow *Node

	// Host points back from a shadow root to its hosting element.
	Host *Node

	// ContentDoc is the document of a same-origin <iframe>. Nil when the
	// frame is empty or not observable. CrossOrigin marks frames whose
	// content access is denied; traversal skips them silently.
	ContentDoc  *Document
	CrossOrigin bool

	// Geometry, in the coordinate space of the node's own frame viewport.
	// ClientRects holds fragment rects (one per line box for wrapped
	// inline content); when empty, BoundingRect is the fallback.
	ClientRects  []Rect
	BoundingRect Rect

	// Scroll metrics for scrollability detection.
	ScrollWidth  float64
	ScrollHeight float64
	ClientWidth  float64
	ClientHeight float64

	Style Style

	// listeners holds handlers registered through AddEventListener,
	// keyed by event type.
	listeners map[string][]Listener

	// document is the owning Document, set when the tree is attached.
	document *Document
}

// Document is one frame's document: the top-level page or the content
// document of a same-origin iframe.
type Document struct {
	URL    string
	Origin string

	ViewportWidth  float64
	ViewportHeight float64

	// Root is the document node; its element child is <html>.
	Root *Node

	// Hits resolves elementFromPoint queries. Nil selects the built-in
	// paint-order tester.
	Hits HitTester

	// Listeners reports engine-observed handler registrations for nodes
	// where AddEventListener was not used (live captures). Nil means no
	// extra information.
	Listeners ListenerInspector
}

// NewDocument creates an empty document with the given viewport.
func NewDocument(w, h float64) *Document {
	d := &Document{ViewportWidth: w, ViewportHeight: h}
	d.Root = &Node{Type: DocumentNode, document: d}
	return d
}

// DocumentElement returns the <html> element, or nil.
func (d *Document) DocumentElement() *Node {
	if d == nil || d.Root == nil {
		return nil
	}
	for _, c := range d.Root.Children {
		if c.Type == ElementNode && c.Tag == "html" {
			return c
		}
	}
	return nil
}

// Body returns the <body> element, or nil.
func (d *Document) Body() *Node {
	html := d.DocumentElement()
	if html == nil {
		return nil
	}
	for _, c := range html.Children {
		if c.Type == ElementNode && c.Tag == "body" {
			return c
		}
	}
	return nil
}

// Document returns the owning document of a node, walking up through
// shadow roots if needed.
func (n *Node) Document() *Document {
	for cur := n; cur != nil; {
		if cur.document != nil {
			return cur.document
		}
		if cur.Parent != nil {
			cur = cur.Parent
		} else {
			cur = cur.Host
		}
	}
	return nil
}

// Attr returns the attribute value and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	if n.Attrs == nil {
		return "", false
	}
	v, ok := n.Attrs[strings.ToLower(name)]
	return v, ok
}

// HasAttr reports attribute presence regardless of value.
func (n *Node) HasAttr(name string) bool {
	_, ok := n.Attr(name)
	return ok
}

// SetAttr sets an attribute, lower-casing the name.
func (n *Node) SetAttr(name, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[strings.ToLower(name)] = value
}

// AppendChild attaches c as the last child of n, fixing parent links and
// propagating document ownership.
func (n *Node) AppendChild(c *Node) *Node {
	c.Parent = n
	c.adoptInto(n.Document())
	n.Children = append(n.Children, c)
	return c
}

// RemoveChild detaches c from n. Unknown children are ignored.
func (n *Node) RemoveChild(c *Node) {
	for i, cur := range n.Children {
		if cur == c {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			c.Parent = nil
			return
		}
	}
}

// AttachShadow creates and returns a shadow root on the element. Calling
// it twice returns the existing root.
func (n *Node) AttachShadow() *Node {
	if n.Shadow == nil {
		n.Shadow = &Node{Type: ShadowRootNode, Host: n, document: n.Document()}
	}
	return n.Shadow
}

func (n *Node) adoptInto(d *Document) {
	if d == nil {
		return
	}
	n.document = d
	for _, c := range n.Children {
		c.adoptInto(d)
	}
	if n.Shadow != nil {
		n.Shadow.adoptInto(d)
	}
}

// Rect returns the node's bounding rect.
func (n *Node) Rect() Rect { return n.BoundingRect }

// SetRect sets the bounding rect and scroll/client extents to match, the
// common case for non-scrolling test nodes.
func (n *Node) SetRect(r Rect) *Node {
	n.BoundingRect = r
	n.ClientWidth = r.Width()
	n.ClientHeight = r.Height()
	if n.ScrollWidth < n.ClientWidth {
		n.ScrollWidth = n.ClientWidth
	}
	if n.ScrollHeight < n.ClientHeight {
		n.ScrollHeight = n.ClientHeight
	}
	return n
}

// Rects returns the fragment client rects, falling back to the bounding
// rect when the element reports none (typical for shadow-hosted content).
func (n *Node) Rects() []Rect {
	if len(n.ClientRects) > 0 {
		return n.ClientRects
	}
	return []Rect{n.BoundingRect}
}

// Ancestors iterates parents upward from n (exclusive), crossing shadow
// boundaries host-ward, calling fn until it returns false.
func (n *Node) Ancestors(fn func(*Node) bool) {
	for cur := parentOrHost(n); cur != nil; cur = parentOrHost(cur) {
		if !fn(cur) {
			return
		}
	}
}

func parentOrHost(n *Node) *Node {
	if n.Parent != nil {
		return n.Parent
	}
	return n.Host
}

// Contains reports whether other is n or a descendant of n, crossing
// shadow boundaries the same way Ancestors does.
func (n *Node) Contains(other *Node) bool {
	for cur := other; cur != nil; cur = parentOrHost(cur) {
		if cur == n {
			return true
		}
	}
	return false
}

// Elements walks the element descendants of n in pre-order, including n
// itself when it is an element, staying within the node's own tree (no
// shadow or frame descent). fn returning false prunes the subtree.
func (n *Node) Elements(fn func(*Node) bool) {
	if n.Type == ElementNode && !fn(n) {
		return
	}
	for _, c := range n.Children {
		if c.Type == ElementNode || c.Type == DocumentNode {
			c.Elements(fn)
		}
	}
}

// AssignedNodes resolves slot assignment for a <slot> element: the light
// children of the enclosing shadow root's host whose slot attribute
// matches this slot's name (the default slot takes unnamed children).
// Non-slot nodes and slots outside a shadow tree get nil.
func (n *Node) AssignedNodes() []*Node {
	if n.Type != ElementNode || n.Tag != "slot" {
		return nil
	}
	root := n.enclosingShadowRoot()
	if root == nil || root.Host == nil {
		return nil
	}
	name, _ := n.Attr("name")
	var out []*Node
	for _, c := range root.Host.Children {
		switch c.Type {
		case ElementNode:
			slot, _ := c.Attr("slot")
			if slot == name {
				out = append(out, c)
			}
		case TextNode:
			if name == "" {
				out = append(out, c)
			}
		}
	}
	return out
}

func (n *Node) enclosingShadowRoot() *Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == ShadowRootNode {
			return cur
		}
	}
	return nil
}
