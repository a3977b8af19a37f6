// Package overlay replaces native dropdown rendering with a synthetic,
// automatable options list. Engines driven over the wire do not expose the
// native <select> popup, so activation is intercepted and a DOM-built list
// is shown instead; picking a row writes the value back and replays the
// event sequence page listeners expect.
package overlay

import (
	"log/slog"
	"strings"

	"github.com/yhl48/proxy-lite/dom"
)

// State is the controller's dropdown state.
type State int

const (
	// Idle means no synthetic dropdown is showing.
	Idle State = iota
	// Open means exactly one synthetic dropdown is bound to a select.
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "idle"
}

// PickSequence is the event order replayed on the underlying select when a
// synthetic row is picked. Page listeners may depend on this exact order.
var PickSequence = []string{"focus", "input", "change", "blur"}

// rowHeight is the laid-out height of one synthetic option row.
const rowHeight = 24.0

// Config configures a Controller.
type Config struct {
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Controller instruments one document's single-choice selects and owns at
// most one open synthetic dropdown at a time. Multi-selects are left
// alone; the marking path handles them.
type Controller struct {
	cfg          Config
	doc          *dom.Document
	instrumented map[*dom.Node]bool
	active       *dropdown
}

type dropdown struct {
	sel  *dom.Node
	box  *dom.Node
	rows []*dom.Node
}

// NewController creates a controller for one document.
func NewController(doc *dom.Document, cfg Config) *Controller {
	cfg.defaults()
	return &Controller{
		cfg:          cfg,
		doc:          doc,
		instrumented: make(map[*dom.Node]bool),
	}
}

// State reports whether a synthetic dropdown is currently showing.
func (c *Controller) State() State {
	if c.active != nil {
		return Open
	}
	return Idle
}

// ActiveRows returns the rows of the open dropdown, nil when idle.
func (c *Controller) ActiveRows() []*dom.Node {
	if c.active == nil {
		return nil
	}
	return c.active.rows
}

// Instrument binds the interception listeners to every single-choice
// select in the document, descending through shadow roots and same-origin
// frame documents. Re-invocation is a no-op for already-bound elements, so
// it is safe to call on every observation cycle.
func (c *Controller) Instrument() {
	if c.doc == nil || c.doc.Root == nil {
		return
	}
	c.instrumentTree(c.doc.Root)
}

func (c *Controller) instrumentTree(n *dom.Node) {
	if n.Type == dom.ElementNode && n.Tag == "select" && !n.HasAttr("multiple") {
		c.bind(n)
	}
	if n.Shadow != nil {
		c.instrumentTree(n.Shadow)
	}
	if n.Type == dom.ElementNode && n.Tag == "iframe" && !n.CrossOrigin && n.ContentDoc != nil {
		c.instrumentTree(n.ContentDoc.Root)
	}
	for _, child := range n.Children {
		c.instrumentTree(child)
	}
}

func (c *Controller) bind(sel *dom.Node) {
	if c.instrumented[sel] {
		return
	}
	c.instrumented[sel] = true

	sel.AddEventListener("mousedown", func(e *dom.Event) {
		// Another handler already claimed the activation.
		if e.DefaultPrevented() {
			return
		}
		e.PreventDefault()
		c.open(sel)
	})
	sel.AddEventListener("blur", func(*dom.Event) {
		if c.active != nil && c.active.sel == sel {
			c.close()
		}
	})
	sel.AddEventListener("change", func(*dom.Event) {
		if c.active != nil && c.active.sel == sel {
			c.close()
		}
	})
}

// open shows the synthetic dropdown for sel, closing any dropdown already
// open elsewhere in the document.
func (c *Controller) open(sel *dom.Node) {
	if c.active != nil {
		c.close()
	}

	selRect := sel.BoundingRect
	box := dom.NewElement("div", "role", "listbox", "data-synthetic-select", "")
	box.Style.Position = "absolute"
	box.Style.Display = "block"

	options := selectOptions(sel)
	box.BoundingRect = dom.Rect{
		Left:   selRect.Left,
		Top:    selRect.Bottom,
		Right:  selRect.Right,
		Bottom: selRect.Bottom + rowHeight*float64(len(options)),
	}

	d := &dropdown{sel: sel, box: box}
	for i, opt := range options {
		// role=option makes the rows land in the next extraction pass.
		row := dom.NewElement("div", "role", "option", "data-value", opt.value)
		row.AppendChild(dom.NewText(opt.text))
		row.BoundingRect = dom.Rect{
			Left:   selRect.Left,
			Top:    selRect.Bottom + rowHeight*float64(i),
			Right:  selRect.Right,
			Bottom: selRect.Bottom + rowHeight*float64(i+1),
		}
		value := opt.value
		row.AddEventListener("pointerdown", func(*dom.Event) {
			c.pick(d, value)
		})
		box.AppendChild(row)
		d.rows = append(d.rows, row)
	}

	if body := c.doc.Body(); body != nil {
		body.AppendChild(box)
	}
	c.active = d
	c.cfg.Logger.Debug("overlay: dropdown opened", "options", len(options))
}

// pick writes the chosen value to the underlying select, replays the
// PickSequence, and returns to Idle. The dropdown is torn down before the
// events fire so the controller's own change listener sees Idle.
func (c *Controller) pick(d *dropdown, value string) {
	if c.active != d {
		return
	}
	c.close()

	sel := d.sel
	sel.SetAttr("value", value)
	for _, opt := range optionElements(sel) {
		if optionValue(opt) == value {
			opt.SetAttr("selected", "")
		} else if opt.HasAttr("selected") {
			delete(opt.Attrs, "selected")
		}
	}

	for _, typ := range PickSequence {
		sel.DispatchEvent(dom.NewEvent(typ))
	}
	c.cfg.Logger.Debug("overlay: option picked", "value", value)
}

func (c *Controller) close() {
	if c.active == nil {
		return
	}
	if parent := c.active.box.Parent; parent != nil {
		parent.RemoveChild(c.active.box)
	}
	c.active = nil
}

type option struct {
	text  string
	value string
}

func selectOptions(sel *dom.Node) []option {
	var out []option
	for _, opt := range optionElements(sel) {
		text := optionText(opt)
		value := optionValue(opt)
		// An empty label still needs a readable row; the value stands in.
		if text == "" {
			text = value
		}
		out = append(out, option{text: text, value: value})
	}
	return out
}

// optionElements collects the select's options in tree order, descending
// into optgroup wrappers the way the options collection does.
func optionElements(sel *dom.Node) []*dom.Node {
	var out []*dom.Node
	for _, child := range sel.Children {
		if child.Type != dom.ElementNode {
			continue
		}
		switch child.Tag {
		case "option":
			out = append(out, child)
		case "optgroup":
			out = append(out, optionElements(child)...)
		}
	}
	return out
}

func optionText(opt *dom.Node) string {
	var b []byte
	for _, c := range opt.Children {
		if c.Type == dom.TextNode {
			b = append(b, c.Text...)
		}
	}
	return strings.TrimSpace(string(b))
}

// optionValue follows the HTML rule: a value attribute wins, otherwise the
// option's text is its value.
func optionValue(opt *dom.Node) string {
	if v, ok := opt.Attr("value"); ok {
		return v
	}
	return optionText(opt)
}
