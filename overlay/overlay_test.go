package overlay

import (
	"testing"

	"github.com/yhl48/proxy-lite/dom"
)

func selectDoc(t *testing.T, multiple bool) (*dom.Document, *dom.Node) {
	t.Helper()
	d := dom.NewDocument(1280, 720)
	html := dom.NewElement("html")
	body := dom.NewElement("body")
	body.SetRect(dom.RectXYWH(0, 0, 1280, 720))
	d.Root.AppendChild(html)
	html.AppendChild(body)

	var sel *dom.Node
	if multiple {
		sel = dom.NewElement("select", "multiple", "")
	} else {
		sel = dom.NewElement("select")
	}
	sel.SetRect(dom.RectXYWH(10, 100, 150, 30))
	for _, v := range []string{"A", "B"} {
		opt := sel.AppendChild(dom.NewElement("option", "value", v))
		opt.AppendChild(dom.NewText(v))
	}
	body.AppendChild(sel)
	return d, sel
}

func mousedown(sel *dom.Node) *dom.Event {
	e := dom.NewEvent("mousedown")
	sel.DispatchEvent(e)
	return e
}

func TestController_OpenOnMousedown(t *testing.T) {
	doc, sel := selectDoc(t, false)
	c := NewController(doc, Config{})
	c.Instrument()

	e := mousedown(sel)
	if !e.DefaultPrevented() {
		t.Fatal("native popup must be suppressed")
	}
	if c.State() != Open {
		t.Fatalf("state: got %v, want open", c.State())
	}
	rows := c.ActiveRows()
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want one per option", len(rows))
	}
	// The overlay sits directly under the select's box.
	box := rows[0].Parent
	if box.BoundingRect.Top != sel.BoundingRect.Bottom {
		t.Fatalf("overlay top: got %g, want %g", box.BoundingRect.Top, sel.BoundingRect.Bottom)
	}
	if box.Parent != doc.Body() {
		t.Fatal("overlay should be attached to the body")
	}
}

func TestController_InstrumentIdempotent(t *testing.T) {
	doc, sel := selectDoc(t, false)
	c := NewController(doc, Config{})
	c.Instrument()
	c.Instrument()

	mousedown(sel)
	if got := len(c.ActiveRows()); got != 2 {
		t.Fatalf("rows after double instrument: got %d, want 2", got)
	}
}

func TestController_RespectsPriorPreventDefault(t *testing.T) {
	doc, sel := selectDoc(t, false)
	// A page handler registered before instrumentation claims the event.
	sel.AddEventListener("mousedown", func(e *dom.Event) { e.PreventDefault() })

	c := NewController(doc, Config{})
	c.Instrument()

	mousedown(sel)
	if c.State() != Idle {
		t.Fatal("a prevented mousedown must not open the overlay")
	}
}

func TestController_MultipleNeverInstrumented(t *testing.T) {
	doc, sel := selectDoc(t, true)
	c := NewController(doc, Config{})
	c.Instrument()

	e := mousedown(sel)
	if e.DefaultPrevented() {
		t.Fatal("multi-select mousedown must keep its default action")
	}
	if c.State() != Idle {
		t.Fatal("multi-select must not open the overlay")
	}
}

func TestController_PickRoundTrip(t *testing.T) {
	doc, sel := selectDoc(t, false)
	c := NewController(doc, Config{})
	c.Instrument()

	var fired []string
	for _, typ := range []string{"focus", "input", "change", "blur"} {
		typ := typ
		sel.AddEventListener(typ, func(*dom.Event) { fired = append(fired, typ) })
	}

	mousedown(sel)
	rows := c.ActiveRows()
	if len(rows) != 2 {
		t.Fatalf("rows: got %d", len(rows))
	}
	rows[1].DispatchEvent(dom.NewEvent("pointerdown"))

	if v, _ := sel.Attr("value"); v != "B" {
		t.Fatalf("select value: got %q, want B", v)
	}
	if c.State() != Idle {
		t.Fatal("pick must return the controller to idle")
	}
	if len(fired) != len(PickSequence) {
		t.Fatalf("events: got %v", fired)
	}
	for i, want := range PickSequence {
		if fired[i] != want {
			t.Fatalf("event order: got %v, want %v", fired, PickSequence)
		}
	}
	// Overlay removed from the tree.
	for _, child := range doc.Body().Children {
		if _, ok := child.Attr("data-synthetic-select"); ok {
			t.Fatal("overlay box should be detached after pick")
		}
	}
	// The picked option carries the selected attribute.
	if !sel.Children[1].HasAttr("selected") {
		t.Fatal("picked option should be selected")
	}
	if sel.Children[0].HasAttr("selected") {
		t.Fatal("other options should be deselected")
	}
}

func TestController_BlurCloses(t *testing.T) {
	doc, sel := selectDoc(t, false)
	c := NewController(doc, Config{})
	c.Instrument()

	mousedown(sel)
	if c.State() != Open {
		t.Fatal("precondition: open")
	}
	sel.DispatchEvent(dom.NewEvent("blur"))
	if c.State() != Idle {
		t.Fatal("blur must close the overlay")
	}
}

func TestController_NativeChangeCloses(t *testing.T) {
	doc, sel := selectDoc(t, false)
	c := NewController(doc, Config{})
	c.Instrument()

	mousedown(sel)
	sel.DispatchEvent(dom.NewEvent("change"))
	if c.State() != Idle {
		t.Fatal("a native change must close the overlay")
	}
}

func TestController_SecondOpenClosesFirst(t *testing.T) {
	doc, sel1 := selectDoc(t, false)
	sel2 := dom.NewElement("select")
	sel2.SetRect(dom.RectXYWH(10, 200, 150, 30))
	opt := sel2.AppendChild(dom.NewElement("option", "value", "X"))
	opt.AppendChild(dom.NewText("X"))
	doc.Body().AppendChild(sel2)

	c := NewController(doc, Config{})
	c.Instrument()

	mousedown(sel1)
	first := c.ActiveRows()
	mousedown(sel2)
	second := c.ActiveRows()

	if c.State() != Open {
		t.Fatal("second select should be open")
	}
	if len(second) != 1 || len(first) == len(second) {
		t.Fatalf("active rows should belong to the second select: %d", len(second))
	}
	// Only one synthetic overlay in the tree.
	count := 0
	for _, child := range doc.Body().Children {
		if _, ok := child.Attr("data-synthetic-select"); ok {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("overlay boxes in tree: got %d, want 1", count)
	}
}

func TestController_InstrumentsShadowAndFrames(t *testing.T) {
	doc, _ := selectDoc(t, false)

	host := doc.Body().AppendChild(dom.NewElement("div"))
	shadow := host.AttachShadow()
	shadowSel := shadow.AppendChild(dom.NewElement("select"))
	shadowSel.SetRect(dom.RectXYWH(0, 300, 100, 30))
	opt := shadowSel.AppendChild(dom.NewElement("option", "value", "S"))
	opt.AppendChild(dom.NewText("S"))

	c := NewController(doc, Config{})
	c.Instrument()

	e := mousedown(shadowSel)
	if !e.DefaultPrevented() {
		t.Fatal("shadow-hosted select should be instrumented")
	}
	if c.State() != Open {
		t.Fatal("shadow-hosted select should open the overlay")
	}
}

func TestController_OptgroupRows(t *testing.T) {
	doc, sel := selectDoc(t, false)
	group := sel.AppendChild(dom.NewElement("optgroup", "label", "More"))
	for _, v := range []string{"C", "D"} {
		opt := group.AppendChild(dom.NewElement("option", "value", v))
		opt.AppendChild(dom.NewText(v))
	}

	c := NewController(doc, Config{})
	c.Instrument()

	mousedown(sel)
	rows := c.ActiveRows()
	if len(rows) != 4 {
		t.Fatalf("rows: got %d, want grouped options included", len(rows))
	}
	for i, want := range []string{"A", "B", "C", "D"} {
		if v, _ := rows[i].Attr("data-value"); v != want {
			t.Fatalf("row %d value: got %q, want %q", i, v, want)
		}
	}

	// Picking a grouped option moves the selected attribute into the group.
	rows[3].DispatchEvent(dom.NewEvent("pointerdown"))
	if v, _ := sel.Attr("value"); v != "D" {
		t.Fatalf("select value: got %q, want D", v)
	}
	if !group.Children[1].HasAttr("selected") {
		t.Fatal("grouped option should be selected")
	}
	if sel.Children[0].HasAttr("selected") {
		t.Fatal("top-level options should be deselected")
	}
}

func TestController_RowText(t *testing.T) {
	doc, sel := selectDoc(t, false)
	spaced := sel.AppendChild(dom.NewElement("option", "value", "sp"))
	spaced.AppendChild(dom.NewText("  Spaced  "))
	sel.AppendChild(dom.NewElement("option", "value", "bare"))

	c := NewController(doc, Config{})
	c.Instrument()

	mousedown(sel)
	rows := c.ActiveRows()
	if len(rows) != 4 {
		t.Fatalf("rows: got %d", len(rows))
	}

	rowText := func(row *dom.Node) string {
		for _, child := range row.Children {
			if child.Type == dom.TextNode {
				return child.Text
			}
		}
		return ""
	}
	if got := rowText(rows[2]); got != "Spaced" {
		t.Fatalf("row text: got %q, want trimmed %q", got, "Spaced")
	}
	// A text-less option falls back to its value for the row label.
	if got := rowText(rows[3]); got != "bare" {
		t.Fatalf("row text: got %q, want value fallback %q", got, "bare")
	}
}
