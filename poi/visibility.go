package poi

import "github.com/yhl48/proxy-lite/dom"

// isVisible requires a rendered box and a computed style that actually
// paints it.
func isVisible(n *dom.Node) bool {
	if n == nil {
		return false
	}
	r := n.BoundingRect
	if r.Width() <= 0 || r.Height() <= 0 {
		return false
	}
	return n.Visibility() != "hidden" && n.Display() != "none"
}

// hiddenByStyle is the descendant check the text flattener uses: style-level
// hiding only, so zero-sized inline wrappers still contribute their text.
func hiddenByStyle(n *dom.Node) bool {
	return n.Display() == "none" || n.Visibility() == "hidden"
}

// isTopmost reports whether the element is the genuine hit-test target at
// its own center. Frame-document elements are always treated as topmost:
// occlusion of a frame by the outer page is not modeled. Any failure while
// probing counts as topmost, so a node detached mid-scan is kept rather
// than dropped.
func isTopmost(n *dom.Node, ctx *dom.Context) (topmost bool) {
	defer func() {
		if recover() != nil {
			topmost = true
		}
	}()
	if ctx == nil {
		return true
	}
	if ctx.Kind == dom.ContextFrame || ctx.Nested() {
		return true
	}
	c := n.BoundingRect.Center()
	return ctx.HitCovers(n, c.X, c.Y)
}
