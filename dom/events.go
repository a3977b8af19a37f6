package dom

// Event is a synthetic DOM event. Only the parts the overlay machinery
// needs are modeled: type, target, bubbling, default suppression, and a
// pointer position for mouse events.
type Event struct {
	Type    string
	Bubbles bool
	Target  *Node

	// CurrentTarget is the node whose listeners are running.
	CurrentTarget *Node

	// X, Y carry the pointer position for mouse events, in the frame's
	// viewport coordinates.
	X, Y float64

	defaultPrevented bool
	stopped          bool
}

// Listener handles a dispatched event.
type Listener func(*Event)

// bubblingTypes mirrors which of the events this model dispatches bubble
// in a real engine. focus and blur do not.
var bubblingTypes = map[string]bool{
	"mousedown": true, "mouseup": true, "click": true,
	"input": true, "change": true,
	"pointerdown": true, "pointerup": true,
}

// NewEvent builds an event with engine-typical bubbling for its type.
func NewEvent(typ string) *Event {
	return &Event{Type: typ, Bubbles: bubblingTypes[typ]}
}

// PreventDefault suppresses the default action. DispatchEvent reports the
// suppression to the dispatching caller.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether any listener suppressed the default
// action.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation halts bubbling after the current node's listeners run.
func (e *Event) StopPropagation() { e.stopped = true }

// AddEventListener registers a handler for an event type. Handlers run in
// registration order.
func (n *Node) AddEventListener(typ string, fn Listener) {
	if n.listeners == nil {
		n.listeners = make(map[string][]Listener)
	}
	n.listeners[typ] = append(n.listeners[typ], fn)
}

// HasListener reports whether any of the given event types has a handler
// registered on this node.
func (n *Node) HasListener(types ...string) bool {
	for _, t := range types {
		if len(n.listeners[t]) > 0 {
			return true
		}
	}
	return false
}

// DispatchEvent delivers the event to n and, for bubbling events, up the
// parent chain (crossing shadow boundaries host-ward). It returns false
// when a listener called PreventDefault, matching the DOM contract.
func (n *Node) DispatchEvent(e *Event) bool {
	e.Target = n
	for cur := n; cur != nil; cur = parentOrHost(cur) {
		e.CurrentTarget = cur
		for _, fn := range cur.listeners[e.Type] {
			fn(e)
		}
		if !e.Bubbles || e.stopped {
			break
		}
	}
	return !e.defaultPrevented
}
