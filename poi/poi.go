// Package poi implements point-of-interest extraction: scanning a rendered
// document (shadow roots and same-origin frame documents included) for
// elements an agent could act on, resolving their true on-screen geometry,
// and emitting an indexed list of marks — one bounding box plus a
// description per visible rectangle — for overlaying on a screenshot.
//
// Extraction is a synchronous single pass over a settled document. It never
// fails outright: unreadable geometry fails open, inaccessible frames are
// skipped, and the result degrades to partial rather than erroring.
package poi

import (
	"errors"
	"log/slog"

	"github.com/yhl48/proxy-lite/dom"
)

// ErrNoDocument is returned when Extract is handed a nil document.
var ErrNoDocument = errors.New("poi: no document")

// Description is the attribute bag emitted per mark. Optional fields are
// nil when the underlying attribute is absent.
type Description struct {
	Tag         string  `json:"tag"`
	Text        string  `json:"text,omitempty"`
	Value       *string `json:"value,omitempty"`
	Placeholder *string `json:"placeholder,omitempty"`
	Type        *string `json:"type,omitempty"`
	AriaLabel   *string `json:"aria-label,omitempty"`
	Name        *string `json:"name,omitempty"`
	Required    *bool   `json:"required,omitempty"`
	Disabled    *bool   `json:"disabled,omitempty"`
	Pattern     *string `json:"pattern,omitempty"`
	Checked     *bool   `json:"checked,omitempty"`
	MinLength   *string `json:"minlength,omitempty"`
	MaxLength   *string `json:"maxlength,omitempty"`
	Role        *string `json:"role,omitempty"`
	Title       *string `json:"title,omitempty"`
	Scrollable  bool    `json:"scrollable,omitempty"`
}

// Centroid is a mark's position: center point plus the edge-clipped
// bounding box, all in top-level viewport coordinates.
type Centroid struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	dom.Rect
}

// Translate shifts the centroid and its box by (dx, dy), used when merging
// marks captured inside a frame into the outer page's coordinate space.
func (c Centroid) Translate(dx, dy float64) Centroid {
	return Centroid{X: c.X + dx, Y: c.Y + dy, Rect: c.Rect.Translate(dx, dy)}
}

// Result is one extraction pass: parallel slices aligned by mark index.
// Partial reports that some subtree was skipped (cross-origin frame or a
// read failure) — the marks present are still valid.
type Result struct {
	Descriptions []Description `json:"element_descriptions"`
	Centroids    []Centroid    `json:"element_centroids"`
	Partial      bool          `json:"-"`
}

// Len returns the number of marks.
func (r Result) Len() int { return len(r.Centroids) }

// Config configures an Extractor.
type Config struct {
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Extractor runs extraction passes and owns the index → element registry
// for the most recent pass. The registry is overwritten, never merged, on
// every call; indices from an earlier pass are invalid the moment a new
// one begins.
type Extractor struct {
	cfg    Config
	marked []*dom.Node
}

// New creates an Extractor.
func New(cfg Config) *Extractor {
	cfg.defaults()
	return &Extractor{cfg: cfg}
}

// MarkedNode resolves a mark index from the most recent pass back to its
// element.
func (e *Extractor) MarkedNode(index int) (*dom.Node, bool) {
	if index < 0 || index >= len(e.marked) {
		return nil, false
	}
	return e.marked[index], true
}

// candidate pairs an accepted element with the context it was found in.
type candidate struct {
	node *dom.Node
	ctx  *dom.Context
}

// Extract scans the document (or the subtree under root, when non-nil) and
// returns the mark list. Indices are contiguous from 0 in emission order.
func (e *Extractor) Extract(doc *dom.Document, root *dom.Node) (Result, error) {
	if doc == nil {
		return Result{}, ErrNoDocument
	}
	ctx := dom.MainContext(doc)
	start := root
	if start == nil {
		start = ctx.RootElement()
	}

	w := &walker{cfg: e.cfg}
	if start != nil {
		w.visit(start, ctx)
	}

	res := Result{Partial: w.partial}
	e.marked = e.marked[:0]
	stop := func(n *dom.Node) bool { return isInteractive(n, w.ctxOf(n)) }

	for _, c := range w.candidates {
		vw, vh := topViewport(c.ctx)
		for _, r := range markRects(c.node, c.ctx, vw, vh) {
			if r.Area() <= 0 {
				continue
			}
			center := r.Center()
			res.Centroids = append(res.Centroids, Centroid{X: center.X, Y: center.Y, Rect: r})
			res.Descriptions = append(res.Descriptions, e.describe(c.node, c.ctx, stop))
			e.marked = append(e.marked, c.node)
		}
	}

	e.cfg.Logger.Debug("poi: extraction pass complete",
		"marks", res.Len(), "candidates", len(w.candidates), "partial", res.Partial)
	return res, nil
}

// describe assembles the attribute bag for one candidate.
func (e *Extractor) describe(n *dom.Node, ctx *dom.Context, stop func(*dom.Node) bool) Description {
	d := Description{
		Tag:         n.Tag,
		Text:        flattenText(n, stop),
		Value:       attrPtr(n, "value"),
		Placeholder: attrPtr(n, "placeholder"),
		Type:        attrPtr(n, "type"),
		AriaLabel:   attrPtr(n, "aria-label"),
		Name:        attrPtr(n, "name"),
		Required:    boolAttrPtr(n, "required"),
		Disabled:    boolAttrPtr(n, "disabled"),
		Pattern:     attrPtr(n, "pattern"),
		Checked:     boolAttrPtr(n, "checked"),
		MinLength:   attrPtr(n, "minlength"),
		MaxLength:   attrPtr(n, "maxlength"),
		Role:        attrPtr(n, "role"),
		Title:       attrPtr(n, "title"),
	}
	if !ctx.IsContextRoot(n) && isScrollable(n) {
		d.Scrollable = true
	}
	return d
}

func attrPtr(n *dom.Node, name string) *string {
	if v, ok := n.Attr(name); ok {
		return &v
	}
	return nil
}

func boolAttrPtr(n *dom.Node, name string) *bool {
	if n.HasAttr(name) {
		t := true
		return &t
	}
	return nil
}

// topViewport resolves the top-level document's viewport dimensions, the
// space all emitted rects are clipped to.
func topViewport(ctx *dom.Context) (w, h float64) {
	top := ctx
	for top.Parent != nil {
		top = top.Parent
	}
	return top.Doc.ViewportWidth, top.Doc.ViewportHeight
}

// walker drives the depth-first pre-order traversal across containment
// kinds: light children, shadow trees, slot assignments, and same-origin
// frame documents.
type walker struct {
	cfg        Config
	candidates []candidate
	contexts   map[*dom.Node]*dom.Context
	partial    bool
}

func (w *walker) ctxOf(n *dom.Node) *dom.Context {
	return w.contexts[n]
}

func (w *walker) visit(n *dom.Node, ctx *dom.Context) {
	if n == nil {
		return
	}
	if n.Type == dom.ElementNode {
		if w.contexts == nil {
			w.contexts = make(map[*dom.Node]*dom.Context)
		}
		w.contexts[n] = ctx
		// A node can be both a mark and a container: record first, then
		// keep descending so nested interactive content gets its own marks.
		if isInteractive(n, ctx) && isVisible(n) && isTopmost(n, ctx) {
			w.candidates = append(w.candidates, candidate{node: n, ctx: ctx})
		}
	}

	switch {
	case n.Shadow != nil:
		shadowCtx := ctx.ShadowContext(n.Shadow)
		for _, c := range n.Shadow.Children {
			w.visit(c, shadowCtx)
		}
	case n.Type == dom.ElementNode && n.Tag == "slot":
		// Slotted content renders where the slot sits; the coordinate
		// context does not change.
		for _, a := range n.AssignedNodes() {
			w.visit(a, ctx)
		}
	case n.Type == dom.ElementNode && n.Tag == "iframe":
		w.visitFrame(n, ctx)
	default:
		for _, c := range n.Children {
			if c.Type == dom.ElementNode {
				w.visit(c, ctx)
			}
		}
	}
}

// visitFrame descends into a same-origin iframe's content document.
// Cross-origin and empty frames contribute nothing; the scan continues.
func (w *walker) visitFrame(n *dom.Node, ctx *dom.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.partial = true
			w.cfg.Logger.Debug("poi: frame not observable", "error", r)
		}
	}()
	if n.CrossOrigin {
		w.partial = true
		return
	}
	if n.ContentDoc == nil {
		return
	}
	frameCtx := ctx.FrameContext(n, n.ContentDoc)
	if body := frameCtx.RootElement(); body != nil {
		w.visit(body, frameCtx)
	}
}
