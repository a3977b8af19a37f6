package dom

// ActionEventTypes are the pointer event types whose presence makes an
// element count as interactive.
var ActionEventTypes = []string{"click", "mousedown", "mouseup", "touchstart", "touchend"}

// ListenerInspector reports engine-observed handler registrations that the
// model itself cannot see (listeners attached before a capture, inspected
// through whatever facility the host engine exposes). It is a best-effort
// capability: implementations must degrade to "no information" rather than
// fail, and absence of an inspector means no extra information.
type ListenerInspector interface {
	// HasActionListener reports whether the node has a registered
	// click/mouse/touch handler.
	HasActionListener(n *Node) bool
}

// RecordedListeners is a ListenerInspector backed by a capture-time set of
// nodes known to carry action handlers.
type RecordedListeners struct {
	nodes map[*Node]bool
}

// NewRecordedListeners creates an empty recorded listener set.
func NewRecordedListeners() *RecordedListeners {
	return &RecordedListeners{nodes: make(map[*Node]bool)}
}

// Record marks a node as carrying an action handler.
func (r *RecordedListeners) Record(n *Node) { r.nodes[n] = true }

// HasActionListener satisfies ListenerInspector.
func (r *RecordedListeners) HasActionListener(n *Node) bool { return r.nodes[n] }

// HasActionHandler combines every handler source the document knows about:
// listeners registered through AddEventListener and, when the document
// carries an inspector, engine-observed registrations.
func (d *Document) HasActionHandler(n *Node) bool {
	if n.HasListener(ActionEventTypes...) {
		return true
	}
	if d != nil && d.Listeners != nil {
		return d.Listeners.HasActionListener(n)
	}
	return false
}
