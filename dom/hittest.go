package dom

// HitTester answers occlusion probes for a document. Implementations may
// know more than the model does: a live capture records the engine's own
// elementFromPoint results, which fold in stacking contexts, transforms and
// clip paths the model cannot reproduce. Returning ok=false defers the
// probe to the built-in paint-order resolution.
type HitTester interface {
	// HitsNode reports whether a hit-test at (x, y) in the context
	// resolves to n or one of n's descendants.
	HitsNode(c *Context, n *Node, x, y float64) (hit bool, ok bool)
}

// HitCovers is the occlusion probe the extraction pipeline uses: does the
// topmost element at the point belong to n's subtree? The document's
// HitTester is consulted first; absent one (or for probes it has no data
// for), the built-in paint-order resolution answers. A probe that finds
// nothing at all reports false.
func (c *Context) HitCovers(n *Node, x, y float64) bool {
	if c.Doc != nil && c.Doc.Hits != nil {
		if hit, ok := c.Doc.Hits.HitsNode(c, n, x, y); ok {
			return hit
		}
	}
	target := paintOrderHit(c, x, y)
	if target == nil {
		return false
	}
	// Walk the ancestor chain of the hit result upward; accept if n is
	// reached before leaving the context scope.
	for cur := target; cur != nil; cur = parentOrHost(cur) {
		if cur == n {
			return true
		}
		if cur == c.Root {
			return false
		}
	}
	return false
}

// ElementFromPoint returns the topmost rendered element at a point in the
// context's local coordinate space, by the model's own paint-order
// resolution, or nil when nothing is there.
func (c *Context) ElementFromPoint(x, y float64) *Node {
	return paintOrderHit(c, x, y)
}

// paintOrderHit is the built-in hit-test: among rendered elements in the
// context scope whose border box contains the point and which accept
// pointer events, the winner is the latest in paint order. Paint order
// here means: higher effective z-index first, then later document order.
// That tie-break is this engine's documented resolution for fully
// overlapping marks; real engines may order stacking contexts differently.
func paintOrderHit(c *Context, x, y float64) *Node {
	scope := hitScope(c)
	if scope == nil {
		return nil
	}
	p := Point{X: x, Y: y}

	var best *Node
	bestZ := 0
	order := 0
	bestOrder := -1

	scope.Elements(func(n *Node) bool {
		order++
		if n.Display() == "none" {
			return false // display:none removes the whole subtree
		}
		if n.Visibility() == "hidden" || n.PointerEvents() == "none" {
			return true
		}
		if !n.BoundingRect.Contains(p) {
			return true
		}
		z := 0
		if n.Style.ZIndex != nil {
			z = *n.Style.ZIndex
		}
		if best == nil || z > bestZ || (z == bestZ && order > bestOrder) {
			best, bestZ, bestOrder = n, z, order
		}
		return true
	})
	return best
}

// hitScope picks the subtree a context's hit-tests see. Shadow contexts
// resolve within the shadow root only; document contexts resolve over the
// whole document tree.
func hitScope(c *Context) *Node {
	if c == nil {
		return nil
	}
	if c.Kind == ContextShadow {
		return c.Root
	}
	if c.Doc == nil {
		return nil
	}
	return c.Doc.Root
}

// RecordedHits is a HitTester backed by per-node hit outcomes measured in
// the source engine at capture time. Probes are keyed by the node and the
// probe point (rect centers computed from the same captured geometry, so
// lookups match exactly).
type RecordedHits struct {
	outcomes map[*Node]map[Point]bool
}

// NewRecordedHits creates an empty recorded hit table.
func NewRecordedHits() *RecordedHits {
	return &RecordedHits{outcomes: make(map[*Node]map[Point]bool)}
}

// Record stores the engine's verdict for a probe at p against n.
func (r *RecordedHits) Record(n *Node, p Point, hitSelf bool) {
	m := r.outcomes[n]
	if m == nil {
		m = make(map[Point]bool)
		r.outcomes[n] = m
	}
	m[p] = hitSelf
}

// HitsNode satisfies HitTester from the recorded table.
func (r *RecordedHits) HitsNode(_ *Context, n *Node, x, y float64) (bool, bool) {
	probes := r.outcomes[n]
	if probes == nil {
		return false, false
	}
	hit, ok := probes[Point{X: x, Y: y}]
	return hit, ok
}
