package poi

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yhl48/proxy-lite/dom"
)

var whitespaceRuns = regexp.MustCompile(`\s{2,}`)

// flattenText produces the element's visible label: descendant text with
// block-level line breaks, media placeholders for images, and no text
// leaked from nested interactive elements. stop decides which descendants
// own their own label; their subtrees are skipped while their siblings are
// still visited.
func flattenText(n *dom.Node, stop func(*dom.Node) bool) string {
	if n == nil || hiddenByStyle(n) {
		return ""
	}
	var frags []string
	for _, c := range n.Children {
		collectText(c, stop, &frags)
	}
	joined := strings.Join(frags, " ")
	joined = whitespaceRuns.ReplaceAllStringFunc(joined, func(run string) string {
		if strings.ContainsRune(run, '\n') {
			return "\n"
		}
		return " "
	})
	return strings.TrimSpace(joined)
}

func collectText(n *dom.Node, stop func(*dom.Node) bool, frags *[]string) {
	switch n.Type {
	case dom.TextNode:
		if t := strings.TrimSpace(n.Text); t != "" {
			*frags = append(*frags, t)
		}
		return
	case dom.ElementNode:
	default:
		return
	}

	if n.Tag == "noscript" || hiddenByStyle(n) {
		return
	}
	if stop != nil && stop(n) {
		return
	}
	if n.Tag == "img" {
		if t := imageToken(n); t != "" {
			*frags = append(*frags, t)
		}
		return
	}

	block := n.BlockLevel()
	if block {
		*frags = append(*frags, "\n")
	}
	for _, c := range n.Children {
		collectText(c, stop, frags)
	}
	if block {
		*frags = append(*frags, "\n")
	}
}

// imageToken renders an image as a bracketed placeholder built from its
// descriptive attributes, or nothing when it has none.
func imageToken(n *dom.Node) string {
	var parts []string
	for _, attr := range []string{"alt", "title", "aria-label"} {
		if v, ok := n.Attr(attr); ok && v != "" {
			parts = append(parts, fmt.Sprintf("%s=%q", attr, v))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "[img - " + strings.Join(parts, " ") + "]"
}
