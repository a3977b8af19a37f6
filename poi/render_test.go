package poi

import (
	"strings"
	"testing"
)

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func TestRenderMark_Basic(t *testing.T) {
	got := RenderMark(3, Description{Tag: "button", Text: "Submit", Type: strp("submit")})
	want := `- [3] <button type="submit">Submit</button>`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderMark_BoolAttrs(t *testing.T) {
	got := RenderMark(0, Description{
		Tag:      "input",
		Type:     strp("checkbox"),
		Checked:  boolp(true),
		Disabled: boolp(false),
	})
	if !strings.Contains(got, " checked") {
		t.Errorf("true bool attr should render bare: %q", got)
	}
	if strings.Contains(got, "disabled") {
		t.Errorf("false bool attr should be omitted: %q", got)
	}
}

func TestRenderMark_SelfContained(t *testing.T) {
	got := RenderMark(1, Description{Tag: "input", Type: strp("text"), Name: strp("q")})
	want := `- [1] <input type="text" name="q"/>`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderMark_SelfContainedWithTextFallsBack(t *testing.T) {
	got := RenderMark(1, Description{Tag: "img", Text: "odd"})
	if got != "- [1] <img>odd</img>" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderMark_LineBreaksSubstituted(t *testing.T) {
	got := RenderMark(2, Description{Tag: "a", Text: "line1\nline2\r\nline3"})
	if strings.ContainsAny(got, "\r\n") {
		t.Fatalf("raw line breaks leaked: %q", got)
	}
	if !strings.Contains(got, "line1⏎line2⏎line3") {
		t.Fatalf("substitution: got %q", got)
	}
}

func TestRenderMark_Truncation(t *testing.T) {
	long := strings.Repeat("x", 3000)
	got := RenderMark(0, Description{Tag: "a", Text: long})
	if !strings.Contains(got, "…") {
		t.Fatal("long text should be truncated with an ellipsis")
	}
	// 2499 kept runes plus the ellipsis.
	if n := strings.Count(got, "x"); n != maxAttrLen-1 {
		t.Fatalf("kept runes: got %d, want %d", n, maxAttrLen-1)
	}
}

func TestRenderMark_Scrollable(t *testing.T) {
	got := RenderMark(0, Description{Tag: "div", Scrollable: true})
	want := "- [0] <div scrollable></div>"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderResult(t *testing.T) {
	r := Result{Descriptions: []Description{
		{Tag: "button", Text: "A"},
		{Tag: "a", Text: "B"},
	}}
	got := RenderResult(r)
	want := "- [0] <button>A</button>\n- [1] <a>B</a>"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
