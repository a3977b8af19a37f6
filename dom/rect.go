package dom

import "math"

// Rect is an axis-aligned rectangle in viewport coordinates. Width and
// height are always derived from the edges, so a Rect clipped or translated
// through the helpers below can never disagree with itself.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// RectXYWH builds a Rect from an origin and a size.
func RectXYWH(x, y, w, h float64) Rect {
	return Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// Width returns Right - Left.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns Bottom - Top.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Area returns the rectangle's area, zero for degenerate rects.
func (r Rect) Area() float64 {
	if r.Right <= r.Left || r.Bottom <= r.Top {
		return 0
	}
	return r.Width() * r.Height()
}

// Center returns the midpoint.
func (r Rect) Center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// Contains reports whether the point lies inside the rectangle. Edges
// count as inside on the left/top and outside on the right/bottom, the
// same half-open convention hit-testing uses.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// Translate shifts the rectangle by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

// Clip intersects the rectangle with [0,w] x [0,h]. Edges are clamped
// with max/min; a rect entirely outside the viewport collapses to a
// zero-area sliver on the boundary rather than going negative.
func (r Rect) Clip(w, h float64) Rect {
	out := Rect{
		Left:   math.Min(math.Max(r.Left, 0), w),
		Top:    math.Min(math.Max(r.Top, 0), h),
		Right:  math.Min(math.Max(r.Right, 0), w),
		Bottom: math.Min(math.Max(r.Bottom, 0), h),
	}
	if out.Right < out.Left {
		out.Right = out.Left
	}
	if out.Bottom < out.Top {
		out.Bottom = out.Top
	}
	return out
}

// Point is a position in viewport coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
