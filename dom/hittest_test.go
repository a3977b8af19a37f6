package dom

import "testing"

func TestPaintOrderHit_DocumentOrder(t *testing.T) {
	doc, body := testDoc(1280, 720)
	a := body.AppendChild(NewElement("div", "id", "a"))
	a.SetRect(RectXYWH(0, 0, 100, 100))
	b := body.AppendChild(NewElement("div", "id", "b"))
	b.SetRect(RectXYWH(0, 0, 100, 100))

	ctx := MainContext(doc)
	if got := ctx.ElementFromPoint(50, 50); got != b {
		t.Fatalf("later sibling should win: got %v", got)
	}
}

func TestPaintOrderHit_ZIndex(t *testing.T) {
	doc, body := testDoc(1280, 720)
	a := body.AppendChild(NewElement("div"))
	a.SetRect(RectXYWH(0, 0, 100, 100))
	z := 10
	a.Style.ZIndex = &z
	b := body.AppendChild(NewElement("div"))
	b.SetRect(RectXYWH(0, 0, 100, 100))

	ctx := MainContext(doc)
	if got := ctx.ElementFromPoint(50, 50); got != a {
		t.Fatalf("higher z-index should win over document order: got %v", got)
	}
}

func TestPaintOrderHit_SkipsUnrenderable(t *testing.T) {
	doc, body := testDoc(1280, 720)
	target := body.AppendChild(NewElement("button"))
	target.SetRect(RectXYWH(0, 0, 100, 100))

	hidden := body.AppendChild(NewElement("div", "style", "visibility:hidden"))
	hidden.SetRect(RectXYWH(0, 0, 100, 100))
	noPointer := body.AppendChild(NewElement("div", "style", "pointer-events:none"))
	noPointer.SetRect(RectXYWH(0, 0, 100, 100))
	none := body.AppendChild(NewElement("div", "style", "display:none"))
	none.SetRect(RectXYWH(0, 0, 100, 100))

	ctx := MainContext(doc)
	if got := ctx.ElementFromPoint(50, 50); got != target {
		t.Fatalf("hidden/pointer-events:none/display:none should not capture hits: got %v", got)
	}
}

func TestPaintOrderHit_DisplayNonePrunesSubtree(t *testing.T) {
	doc, body := testDoc(1280, 720)
	wrap := body.AppendChild(NewElement("div", "style", "display:none"))
	inner := wrap.AppendChild(NewElement("button"))
	inner.SetRect(RectXYWH(0, 0, 100, 100))

	ctx := MainContext(doc)
	if got := ctx.ElementFromPoint(50, 50); got != nil {
		t.Fatalf("children of display:none should be unreachable: got %v", got)
	}
}

func TestHitCovers_DescendantCounts(t *testing.T) {
	doc, body := testDoc(1280, 720)
	link := body.AppendChild(NewElement("a"))
	link.SetRect(RectXYWH(0, 0, 200, 50))
	span := link.AppendChild(NewElement("span"))
	span.SetRect(RectXYWH(0, 0, 200, 50))

	ctx := MainContext(doc)
	if !ctx.HitCovers(link, 100, 25) {
		t.Fatal("a hit landing on a descendant should count for the ancestor")
	}
}

func TestHitCovers_UnrelatedOverlay(t *testing.T) {
	doc, body := testDoc(1280, 720)
	btn := body.AppendChild(NewElement("button"))
	btn.SetRect(RectXYWH(0, 0, 100, 40))
	cover := body.AppendChild(NewElement("div"))
	cover.SetRect(RectXYWH(0, 0, 1280, 720))

	ctx := MainContext(doc)
	if ctx.HitCovers(btn, 50, 20) {
		t.Fatal("a button under an unrelated overlay is not covered by itself")
	}
}

func TestHitScope_Shadow(t *testing.T) {
	doc, body := testDoc(1280, 720)
	overlay := body.AppendChild(NewElement("div"))
	overlay.SetRect(RectXYWH(0, 0, 1280, 720))

	host := body.AppendChild(NewElement("div"))
	shadow := host.AttachShadow()
	inner := &Node{Type: ElementNode, Tag: "button", Attrs: map[string]string{}}
	shadow.AppendChild(inner)
	inner.SetRect(RectXYWH(10, 10, 80, 30))

	ctx := MainContext(doc).ShadowContext(shadow)
	// Within the shadow root's local scope the outer overlay does not exist.
	if !ctx.HitCovers(inner, 50, 25) {
		t.Fatal("shadow-scoped hit-test should not see main-document overlays")
	}
}

func TestRecordedHits_TakePriority(t *testing.T) {
	doc, body := testDoc(1280, 720)
	btn := body.AppendChild(NewElement("button"))
	btn.SetRect(RectXYWH(0, 0, 100, 40))

	rec := NewRecordedHits()
	rec.Record(btn, Point{X: 50, Y: 20}, false)
	doc.Hits = rec

	ctx := MainContext(doc)
	if ctx.HitCovers(btn, 50, 20) {
		t.Fatal("recorded verdict should override paint-order resolution")
	}
	// Unrecorded probes fall back to paint order.
	if !ctx.HitCovers(btn, 10, 10) {
		t.Fatal("probe without recorded data should fall back to paint order")
	}
}
