package dom

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ParseHTML parses an HTML document into a Document with the given viewport.
// Inline style attributes populate the computed style fields the extraction
// pipeline consults; geometry is left zeroed for the caller to assign.
func ParseHTML(r io.Reader, width, height float64) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse html: %w", err)
	}
	doc := NewDocument(width, height)
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := convertNode(c); n != nil {
			doc.Root.AppendChild(n)
		}
	}
	return doc, nil
}

// ParseHTMLString is ParseHTML over an in-memory document.
func ParseHTMLString(s string, width, height float64) (*Document, error) {
	return ParseHTML(strings.NewReader(s), width, height)
}

func convertNode(src *html.Node) *Node {
	switch src.Type {
	case html.ElementNode:
		n := NewElement(strings.ToLower(src.Data))
		for _, a := range src.Attr {
			key := strings.ToLower(a.Key)
			if _, dup := n.Attrs[key]; dup {
				continue
			}
			n.Attrs[key] = a.Val
		}
		if css, ok := n.Attr("style"); ok {
			n.Style = ParseInlineStyle(css)
		}
		for c := src.FirstChild; c != nil; c = c.NextSibling {
			child := convertNode(c)
			if child == nil {
				continue
			}
			// Declarative shadow DOM: a template with shadowrootmode becomes
			// the host's shadow root instead of a light child.
			if child.Type == ElementNode && child.Tag == "template" {
				if _, ok := child.Attr("shadowrootmode"); ok {
					shadow := n.AttachShadow()
					for _, gc := range child.Children {
						shadow.AppendChild(gc)
					}
					continue
				}
			}
			n.AppendChild(child)
		}
		return n
	case html.TextNode:
		return NewText(src.Data)
	}
	return nil
}

// NewElement creates a detached element with optional attribute pairs, for
// assembling documents programmatically. Pairs with a missing value are
// treated as boolean attributes.
func NewElement(tag string, attrPairs ...string) *Node {
	n := &Node{Type: ElementNode, Tag: strings.ToLower(tag), Attrs: make(map[string]string)}
	for i := 0; i < len(attrPairs); i += 2 {
		key := strings.ToLower(attrPairs[i])
		if i+1 < len(attrPairs) {
			n.Attrs[key] = attrPairs[i+1]
		} else {
			n.Attrs[key] = ""
		}
	}
	if css, ok := n.Attr("style"); ok {
		n.Style = ParseInlineStyle(css)
	}
	return n
}

// NewText creates a detached text node.
func NewText(s string) *Node {
	return &Node{Type: TextNode, Text: s}
}

// ParseInlineStyle extracts the style properties the pipeline consults from a
// style attribute value. Unknown properties are ignored.
func ParseInlineStyle(css string) Style {
	var st Style
	for _, decl := range strings.Split(css, ";") {
		key, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}
		lower := strings.ToLower(val)
		switch key {
		case "display":
			st.Display = lower
		case "visibility":
			st.Visibility = lower
		case "overflow":
			st.OverflowX, st.OverflowY = lower, lower
		case "overflow-x":
			st.OverflowX = lower
		case "overflow-y":
			st.OverflowY = lower
		case "cursor":
			st.Cursor = lower
		case "position":
			st.Position = lower
		case "pointer-events":
			st.PointerEvents = lower
		case "z-index":
			if z, err := strconv.Atoi(val); err == nil {
				st.ZIndex = &z
			}
		}
	}
	return st
}
