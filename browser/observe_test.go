package browser

import (
	"testing"

	"github.com/yhl48/proxy-lite/dom"
	"github.com/yhl48/proxy-lite/poi"
)

func mark(tag string, x, y float64, rect dom.Rect) (poi.Description, poi.Centroid) {
	return poi.Description{Tag: tag}, poi.Centroid{X: x, Y: y, Rect: rect}
}

func TestMergeFrame_OffsetsApplied(t *testing.T) {
	var outer poi.Result
	d, c := mark("a", 50, 50, dom.RectXYWH(40, 40, 20, 20))
	outer.Descriptions = append(outer.Descriptions, d)
	outer.Centroids = append(outer.Centroids, c)

	var frame poi.Result
	fd, fc := mark("button", 30, 10, dom.RectXYWH(20, 5, 20, 10))
	frame.Descriptions = append(frame.Descriptions, fd)
	frame.Centroids = append(frame.Centroids, fc)

	got := MergeFrame(outer, frame, 100, 200)
	if got.Len() != 2 {
		t.Fatalf("marks: got %d, want 2", got.Len())
	}

	merged := got.Centroids[1]
	if merged.X != 130 || merged.Y != 210 {
		t.Fatalf("centroid: got (%g, %g), want (130, 210)", merged.X, merged.Y)
	}
	want := dom.RectXYWH(120, 205, 20, 10)
	if merged.Rect != want {
		t.Fatalf("rect: got %+v, want %+v", merged.Rect, want)
	}
	if got.Descriptions[1].Tag != "button" {
		t.Fatalf("description tag: got %q", got.Descriptions[1].Tag)
	}

	// Outer marks untouched.
	if got.Centroids[0].X != 50 || got.Centroids[0].Y != 50 {
		t.Fatalf("outer centroid moved: %+v", got.Centroids[0])
	}
}

func TestMergeFrame_OffsetsRounded(t *testing.T) {
	var frame poi.Result
	fd, fc := mark("a", 10, 10, dom.RectXYWH(0, 0, 20, 20))
	frame.Descriptions = append(frame.Descriptions, fd)
	frame.Centroids = append(frame.Centroids, fc)

	got := MergeFrame(poi.Result{}, frame, 99.6, 200.4)
	c := got.Centroids[0]
	if c.X != 110 || c.Y != 210 {
		t.Fatalf("centroid: got (%g, %g), want (110, 210)", c.X, c.Y)
	}
}

func TestMergeFrame_PartialPropagates(t *testing.T) {
	got := MergeFrame(poi.Result{}, poi.Result{Partial: true}, 0, 0)
	if !got.Partial {
		t.Fatal("partial flag not propagated from frame result")
	}

	got = MergeFrame(poi.Result{Partial: true}, poi.Result{}, 0, 0)
	if !got.Partial {
		t.Fatal("partial flag lost from outer result")
	}
}

func TestMergeFrame_EmptyFrame(t *testing.T) {
	var outer poi.Result
	d, c := mark("a", 5, 5, dom.RectXYWH(0, 0, 10, 10))
	outer.Descriptions = append(outer.Descriptions, d)
	outer.Centroids = append(outer.Centroids, c)

	got := MergeFrame(outer, poi.Result{}, 300, 300)
	if got.Len() != 1 || got.Partial {
		t.Fatalf("got %d marks, partial=%v", got.Len(), got.Partial)
	}
}

func TestCentroidsEqual(t *testing.T) {
	var a, b poi.Result
	d, c := mark("a", 10, 10, dom.RectXYWH(0, 0, 20, 20))
	a.Descriptions = append(a.Descriptions, d)
	a.Centroids = append(a.Centroids, c)
	b.Descriptions = append(b.Descriptions, d)
	b.Centroids = append(b.Centroids, c)

	if !centroidsEqual(a, b) {
		t.Fatal("identical results reported unequal")
	}

	b.Centroids[0].X += 1
	if centroidsEqual(a, b) {
		t.Fatal("moved centroid reported equal")
	}

	if centroidsEqual(a, poi.Result{}) {
		t.Fatal("length mismatch reported equal")
	}
}

func TestParseStealthLevel(t *testing.T) {
	if got := ParseStealthLevel("headful"); got != LevelHeadful {
		t.Fatalf("headful: got %v", got)
	}
	if got := ParseStealthLevel("headless"); got != LevelHeadless {
		t.Fatalf("headless: got %v", got)
	}
	if got := ParseStealthLevel(""); got != LevelHeadless {
		t.Fatalf("default: got %v", got)
	}
}
