package pagetext

import (
	"strings"
	"testing"
)

func TestMarkdown_Basic(t *testing.T) {
	c := NewConverter()
	got, err := c.Markdown(`<h1>Title</h1><p>Some <strong>bold</strong> text.</p>`, "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "Title") {
		t.Fatalf("missing heading: %q", got)
	}
	if !strings.Contains(got, "**bold**") {
		t.Fatalf("missing emphasis: %q", got)
	}
}

func TestMarkdown_StripsScripts(t *testing.T) {
	c := NewConverter()
	got, err := c.Markdown(`<p>ok</p><script>alert(1)</script>`, "")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "alert") {
		t.Fatalf("script content leaked: %q", got)
	}
}

func TestMarkdown_ResolvesRelativeLinks(t *testing.T) {
	c := NewConverter()
	got, err := c.Markdown(`<a href="/about">About</a>`, "https://example.com/page")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "example.com") {
		t.Fatalf("relative link not resolved: %q", got)
	}
}
