package poi

import "github.com/yhl48/proxy-lite/dom"

// markRects resolves the on-screen rectangles a candidate contributes:
// fragment client rects (falling back to the bounding rect), filtered by a
// center hit-test in the element's own context, translated into top-level
// viewport coordinates, and clipped to the viewport. Zero-area rects
// survive here; the assembler drops them. A panic while reading geometry
// keeps the rect (fail open).
func markRects(n *dom.Node, ctx *dom.Context, viewportW, viewportH float64) []dom.Rect {
	var out []dom.Rect
	for _, r := range n.Rects() {
		if !coveredAtCenter(n, ctx, r) {
			continue
		}
		r = r.Translate(ctx.Offset.X, ctx.Offset.Y)
		out = append(out, r.Clip(viewportW, viewportH))
	}
	return out
}

// coveredAtCenter probes the rect's center in the element's own context
// (frame-local coordinates, before any offset translation) and keeps the
// rect only when the topmost element there belongs to the candidate's
// subtree. Rects fully covered by unrelated overlays are discarded.
func coveredAtCenter(n *dom.Node, ctx *dom.Context, r dom.Rect) (hit bool) {
	defer func() {
		if recover() != nil {
			hit = true
		}
	}()
	c := r.Center()
	return ctx.HitCovers(n, c.X, c.Y)
}
