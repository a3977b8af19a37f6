package poi

import (
	"strings"

	"github.com/yhl48/proxy-lite/dom"
)

// interactiveTags are element names that count as actionable regardless of
// attributes or handlers. select is absent on purpose: single-choice
// selects belong to the overlay subsystem, which surfaces their options as
// synthetic rows; only multi-selects go through the marking path.
var interactiveTags = map[string]bool{
	"a":        true,
	"button":   true,
	"input":    true,
	"textarea": true,
	"option":   true,
	"optgroup": true,
	"details":  true,
	"summary":  true,
	"label":    true,
	"audio":    true,
	"video":    true,
	"embed":    true,
	"iframe":   true,
}

// interactiveRoles are the ARIA roles that declare an element actionable.
var interactiveRoles = map[string]bool{
	"button":           true,
	"link":             true,
	"textbox":          true,
	"checkbox":         true,
	"radio":            true,
	"combobox":         true,
	"listbox":          true,
	"menu":             true,
	"menuitem":         true,
	"menuitemcheckbox": true,
	"menuitemradio":    true,
	"option":           true,
	"tab":              true,
	"switch":           true,
	"slider":           true,
	"spinbutton":       true,
	"searchbox":        true,
	"gridcell":         true,
	"treeitem":         true,
}

// handlerAttrs are the attribute spellings of a pointer handler: inline
// handlers plus the common framework directives.
var handlerAttrs = []string{
	"onclick", "onmousedown", "onmouseup", "ontouchstart", "ontouchend",
	"ng-click", "@click", "v-on:click",
}

// ariaStateAttrs signal a widget that reacts to activation.
var ariaStateAttrs = []string{
	"aria-expanded", "aria-pressed", "aria-selected", "aria-checked",
}

// isInteractive reports whether an element is a candidate the agent could
// act on: known tag, declared role/state, an attached pointer handler, or
// scrollable content. The context's own root is exempt from the scrollable
// rule since the page scroller is already available to the caller.
func isInteractive(n *dom.Node, ctx *dom.Context) bool {
	if n == nil || n.Type != dom.ElementNode {
		return false
	}
	if interactiveTags[n.Tag] {
		return true
	}
	if n.Tag == "select" && n.HasAttr("multiple") {
		return true
	}
	if v, ok := n.Attr("contenteditable"); ok && strings.EqualFold(v, "true") {
		return true
	}
	if role, ok := n.Attr("role"); ok && interactiveRoles[strings.ToLower(role)] {
		return true
	}
	if role, ok := n.Attr("aria-role"); ok && interactiveRoles[strings.ToLower(role)] {
		return true
	}
	if ti, ok := n.Attr("tabindex"); ok && ti != "-1" {
		return true
	}
	// AMP action bindings: on="tap:menu.toggle".
	if v, ok := n.Attr("on"); ok && strings.Contains(v, "tap:") {
		return true
	}
	for _, a := range ariaStateAttrs {
		if n.HasAttr(a) {
			return true
		}
	}
	for _, a := range handlerAttrs {
		if n.HasAttr(a) {
			return true
		}
	}
	if ctx != nil && ctx.Doc.HasActionHandler(n) {
		return true
	}
	if ctx != nil && !ctx.IsContextRoot(n) && isScrollable(n) {
		return true
	}
	return false
}

// isScrollable reports content overflow on an axis whose computed overflow
// is scroll or auto.
func isScrollable(n *dom.Node) bool {
	x := n.OverflowX()
	y := n.OverflowY()
	scrollX := (x == "scroll" || x == "auto") && n.ScrollWidth > n.ClientWidth
	scrollY := (y == "scroll" || y == "auto") && n.ScrollHeight > n.ClientHeight
	return scrollX || scrollY
}
