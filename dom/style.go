package dom

// Style is the computed-style subset the extraction algorithms consult.
// Zero values mean "not specified"; resolution against per-tag defaults
// happens in the Node accessors, so hand-built nodes behave like parsed
// ones without every test spelling out a full style.
type Style struct {
	Display       string `json:"display,omitempty"`
	Visibility    string `json:"visibility,omitempty"`
	OverflowX     string `json:"overflowX,omitempty"`
	OverflowY     string `json:"overflowY,omitempty"`
	Cursor        string `json:"cursor,omitempty"`
	Position      string `json:"position,omitempty"`
	PointerEvents string `json:"pointerEvents,omitempty"`
	ZIndex        *int   `json:"zIndex,omitempty"`
}

// defaultDisplay maps tags to their user-agent default display. Anything
// absent here defaults to inline.
var defaultDisplay = map[string]string{
	"html": "block", "body": "block", "div": "block", "p": "block",
	"h1": "block", "h2": "block", "h3": "block", "h4": "block", "h5": "block", "h6": "block",
	"ul": "block", "ol": "block", "li": "list-item", "dl": "block", "dt": "block", "dd": "block",
	"section": "block", "article": "block", "header": "block", "footer": "block",
	"nav": "block", "aside": "block", "main": "block", "form": "block",
	"fieldset": "block", "table": "table", "tr": "table-row", "td": "table-cell",
	"th": "table-cell", "thead": "table-header-group", "tbody": "table-row-group",
	"pre": "block", "blockquote": "block", "hr": "block", "address": "block",
	"figure": "block", "figcaption": "block", "details": "block", "summary": "block",
	"head": "none", "script": "none", "style": "none", "meta": "none",
	"link": "none", "title": "none", "template": "none",
}

// blockDisplays are the computed display values that break lines when
// flattening text.
var blockDisplays = map[string]bool{
	"block": true, "flex": true, "grid": true, "table": true,
	"list-item": true, "flow-root": true, "table-row": true,
	"table-caption": true, "table-row-group": true, "table-header-group": true,
	"table-footer-group": true,
}

// Display returns the node's computed display, falling back to the
// user-agent default for its tag.
func (n *Node) Display() string {
	if n.Style.Display != "" {
		return n.Style.Display
	}
	if d, ok := defaultDisplay[n.Tag]; ok {
		return d
	}
	return "inline"
}

// Visibility returns the computed visibility, defaulting to "visible".
func (n *Node) Visibility() string {
	if n.Style.Visibility != "" {
		return n.Style.Visibility
	}
	return "visible"
}

// OverflowX returns the computed overflow-x, defaulting to "visible".
func (n *Node) OverflowX() string {
	if n.Style.OverflowX != "" {
		return n.Style.OverflowX
	}
	return "visible"
}

// OverflowY returns the computed overflow-y, defaulting to "visible".
func (n *Node) OverflowY() string {
	if n.Style.OverflowY != "" {
		return n.Style.OverflowY
	}
	return "visible"
}

// PointerEvents returns the computed pointer-events, defaulting to "auto".
func (n *Node) PointerEvents() string {
	if n.Style.PointerEvents != "" {
		return n.Style.PointerEvents
	}
	return "auto"
}

// BlockLevel reports whether the node's computed display breaks lines.
func (n *Node) BlockLevel() bool {
	return blockDisplays[n.Display()]
}
