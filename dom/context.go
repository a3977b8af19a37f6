package dom

// ContextKind tags the containment scope a node was found in. Coordinates
// and hit-tests resolve against the context, not the global page, which is
// what makes shadow and frame content addressable at all.
type ContextKind int

const (
	// ContextMain is a document's own tree (the top page or the local
	// tree of a frame document).
	ContextMain ContextKind = iota
	// ContextShadow is the subtree under one shadow root.
	ContextShadow
	// ContextFrame is the content document of a nested iframe.
	ContextFrame
)

func (k ContextKind) String() string {
	switch k {
	case ContextMain:
		return "main"
	case ContextShadow:
		return "shadow"
	case ContextFrame:
		return "frame"
	default:
		return "unknown"
	}
}

// Context scopes one traversal step: which root owns the nodes being
// visited, which document they belong to, and how far the enclosing
// iframes have displaced their coordinate space from the top viewport.
type Context struct {
	Kind ContextKind

	// Doc is the document the context's nodes belong to.
	Doc *Document

	// Root is the scope root: the document node for main/frame contexts,
	// the shadow root node for shadow contexts.
	Root *Node

	// Offset is the accumulated displacement of this context's frame
	// relative to the top-level viewport. Shadow contexts inherit the
	// offset of the frame they live in.
	Offset Point

	// Parent is the enclosing context; nil for the top-level main context.
	Parent *Context
}

// MainContext returns the top-level context for a document.
func MainContext(d *Document) *Context {
	return &Context{Kind: ContextMain, Doc: d, Root: d.Root}
}

// ShadowContext derives a child context scoped to a shadow root. The
// coordinate space is unchanged: shadow content renders in its host's
// frame.
func (c *Context) ShadowContext(root *Node) *Context {
	return &Context{Kind: ContextShadow, Doc: c.Doc, Root: root, Offset: c.Offset, Parent: c}
}

// FrameContext derives a child context for an iframe's content document.
// The frame's viewport origin sits at the iframe element's border box, so
// the child offset is the parent offset plus the iframe's bounding origin.
func (c *Context) FrameContext(frame *Node, doc *Document) *Context {
	r := frame.BoundingRect
	return &Context{
		Kind: ContextFrame,
		Doc:  doc,
		Root: doc.Root,
		Offset: Point{
			X: c.Offset.X + r.Left,
			Y: c.Offset.Y + r.Top,
		},
		Parent: c,
	}
}

// Nested reports whether the context sits inside at least one iframe.
func (c *Context) Nested() bool {
	for cur := c; cur != nil; cur = cur.Parent {
		if cur.Kind == ContextFrame {
			return true
		}
	}
	return false
}

// RootElement returns the element that acts as the context's scan root:
// the body (or document element) for document-backed contexts, the shadow
// root for shadow contexts.
func (c *Context) RootElement() *Node {
	switch c.Kind {
	case ContextShadow:
		return c.Root
	default:
		if b := c.Doc.Body(); b != nil {
			return b
		}
		return c.Doc.DocumentElement()
	}
}

// IsContextRoot reports whether n is the context's own scan root or the
// document element above it. The page-level scroller is already known to
// the caller, so classification exempts it from the scrollable rule.
func (c *Context) IsContextRoot(n *Node) bool {
	if n == nil {
		return false
	}
	if c.Kind == ContextShadow {
		return n == c.Root
	}
	return n == c.Doc.Body() || n == c.Doc.DocumentElement()
}

