package dom

import (
	"testing"
)

func testDoc(w, h float64) (*Document, *Node) {
	d := NewDocument(w, h)
	html := NewElement("html")
	body := NewElement("body")
	body.SetRect(RectXYWH(0, 0, w, h))
	d.Root.AppendChild(html)
	html.AppendChild(body)
	return d, body
}

func TestParseHTML_BasicTree(t *testing.T) {
	doc, err := ParseHTMLString(`<html><body><div id="Main"><a href="/x">Link</a></div></body></html>`, 1280, 720)
	if err != nil {
		t.Fatal(err)
	}
	body := doc.Body()
	if body == nil {
		t.Fatal("no body")
	}
	if len(body.Children) != 1 {
		t.Fatalf("body children: got %d, want 1", len(body.Children))
	}
	div := body.Children[0]
	if div.Tag != "div" {
		t.Fatalf("tag: got %q, want %q", div.Tag, "div")
	}
	if id, _ := div.Attr("ID"); id != "Main" {
		t.Fatalf("attr lookup should be case-insensitive: got %q", id)
	}
	a := div.Children[0]
	if a.Tag != "a" || a.Children[0].Text != "Link" {
		t.Fatalf("anchor: got %q/%q", a.Tag, a.Children[0].Text)
	}
	if a.Document() != doc {
		t.Fatal("node not adopted into document")
	}
}

func TestParseHTML_DeclarativeShadow(t *testing.T) {
	doc, err := ParseHTMLString(
		`<html><body><div id="host"><template shadowrootmode="open"><button>Go</button></template></div></body></html>`,
		1280, 720)
	if err != nil {
		t.Fatal(err)
	}
	host := doc.Body().Children[0]
	if host.Shadow == nil {
		t.Fatal("template with shadowrootmode should become a shadow root")
	}
	if len(host.Children) != 0 {
		t.Fatalf("host light children: got %d, want 0", len(host.Children))
	}
	btn := host.Shadow.Children[0]
	if btn.Tag != "button" {
		t.Fatalf("shadow child: got %q, want button", btn.Tag)
	}
	if btn.Host != nil {
		t.Fatal("only the shadow root itself should point at the host")
	}
	if host.Shadow.Host != host {
		t.Fatal("shadow root should point back at its host")
	}
}

func TestSlotAssignment(t *testing.T) {
	_, body := testDoc(1280, 720)
	host := body.AppendChild(NewElement("x-card"))
	named := host.AppendChild(NewElement("span", "slot", "title"))
	plain := host.AppendChild(NewElement("em"))

	shadow := host.AttachShadow()
	titleSlot := shadow.AppendChild(NewElement("slot", "name", "title"))
	defaultSlot := shadow.AppendChild(NewElement("slot"))

	got := titleSlot.AssignedNodes()
	if len(got) != 1 || got[0] != named {
		t.Fatalf("named slot assignment: got %v", got)
	}
	got = defaultSlot.AssignedNodes()
	if len(got) != 1 || got[0] != plain {
		t.Fatalf("default slot assignment: got %v", got)
	}
	if nodes := plain.AssignedNodes(); nodes != nil {
		t.Fatalf("non-slot AssignedNodes: got %v, want nil", nodes)
	}
}

func TestAttachShadow_Idempotent(t *testing.T) {
	n := NewElement("div")
	s1 := n.AttachShadow()
	s2 := n.AttachShadow()
	if s1 != s2 {
		t.Fatal("AttachShadow should return the existing root")
	}
}

func TestContains_AcrossShadow(t *testing.T) {
	_, body := testDoc(1280, 720)
	host := body.AppendChild(NewElement("div"))
	shadow := host.AttachShadow()
	inner := shadow.AppendChild(NewElement("button"))

	if !host.Contains(inner) {
		t.Fatal("host should contain shadow content")
	}
	if !body.Contains(inner) {
		t.Fatal("body should contain shadow content transitively")
	}
	if inner.Contains(host) {
		t.Fatal("containment is not symmetric")
	}
}

func TestParseInlineStyle(t *testing.T) {
	st := ParseInlineStyle("display: NONE; overflow: auto; z-index: 5; pointer-events:none")
	if st.Display != "none" {
		t.Errorf("display: got %q, want none", st.Display)
	}
	if st.OverflowX != "auto" || st.OverflowY != "auto" {
		t.Errorf("overflow: got %q/%q, want auto/auto", st.OverflowX, st.OverflowY)
	}
	if st.ZIndex == nil || *st.ZIndex != 5 {
		t.Errorf("z-index: got %v, want 5", st.ZIndex)
	}
	if st.PointerEvents != "none" {
		t.Errorf("pointer-events: got %q, want none", st.PointerEvents)
	}
}

func TestDisplay_Defaults(t *testing.T) {
	if got := NewElement("div").Display(); got != "block" {
		t.Errorf("div: got %q, want block", got)
	}
	if got := NewElement("span").Display(); got != "inline" {
		t.Errorf("span: got %q, want inline", got)
	}
	if got := NewElement("script").Display(); got != "none" {
		t.Errorf("script: got %q, want none", got)
	}
}

func TestRect_Clip(t *testing.T) {
	r := Rect{Left: -50, Top: 100, Right: 1400, Bottom: 800}
	c := r.Clip(1280, 720)
	want := Rect{Left: 0, Top: 100, Right: 1280, Bottom: 720}
	if c != want {
		t.Fatalf("clip: got %+v, want %+v", c, want)
	}

	// Fully offscreen collapses to a zero-area sliver, never negative.
	off := Rect{Left: -200, Top: -100, Right: -50, Bottom: -10}.Clip(1280, 720)
	if off.Width() != 0 || off.Height() != 0 {
		t.Fatalf("offscreen clip: got %+v, want zero area", off)
	}
}

func TestRect_CenterAndTranslate(t *testing.T) {
	r := RectXYWH(10, 20, 100, 40)
	if c := r.Center(); c.X != 60 || c.Y != 40 {
		t.Fatalf("center: got %+v", c)
	}
	tr := r.Translate(5, -5)
	if tr.Left != 15 || tr.Top != 15 || tr.Right != 115 || tr.Bottom != 35 {
		t.Fatalf("translate: got %+v", tr)
	}
}

func TestRects_Fallback(t *testing.T) {
	n := NewElement("div")
	n.BoundingRect = RectXYWH(0, 0, 10, 10)
	rs := n.Rects()
	if len(rs) != 1 || rs[0] != n.BoundingRect {
		t.Fatalf("fallback rects: got %v", rs)
	}
	n.ClientRects = []Rect{RectXYWH(0, 0, 5, 5), RectXYWH(0, 5, 5, 5)}
	if got := len(n.Rects()); got != 2 {
		t.Fatalf("fragment rects: got %d, want 2", got)
	}
}
