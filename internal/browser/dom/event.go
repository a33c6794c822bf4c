// internal/browser/dom/event.go
package dom

import "time"

// EventPhase represents the phase of event dispatch.
type EventPhase int

const (
	PhaseNone EventPhase = iota
	PhaseCapturing
	PhaseAtTarget
	PhaseBubbling
)

// EventInit carries the construction flags of an event.
type EventInit struct {
	Bubbles    bool
	Cancelable bool
}

// Event is a DOM event. Dispatch is synchronous: DispatchEvent returns only
// after every listener on the propagation path has run.
type Event struct {
	typ        string
	bubbles    bool
	cancelable bool

	target        *Node
	currentTarget *Node
	phase         EventPhase

	canceled        bool
	stopPropagation bool
	stopImmediate   bool
	dispatching     bool

	// IsTrusted is false for events created by scripts.
	IsTrusted bool
	TimeStamp time.Time
}

// NewEvent constructs an event that has not been dispatched yet.
func NewEvent(eventType string, init EventInit) *Event {
	return &Event{
		typ:        eventType,
		bubbles:    init.Bubbles,
		cancelable: init.Cancelable,
		TimeStamp:  time.Now(),
	}
}

func (e *Event) Type() string           { return e.typ }
func (e *Event) Bubbles() bool          { return e.bubbles }
func (e *Event) Cancelable() bool       { return e.cancelable }
func (e *Event) Target() *Node          { return e.target }
func (e *Event) CurrentTarget() *Node   { return e.currentTarget }
func (e *Event) Phase() EventPhase      { return e.phase }
func (e *Event) DefaultPrevented() bool { return e.canceled }

// PreventDefault cancels the event's default action. It has no effect on
// events that are not cancelable.
func (e *Event) PreventDefault() {
	if e.cancelable {
		e.canceled = true
	}
}

// StopPropagation prevents the event from reaching further nodes on the path.
func (e *Event) StopPropagation() {
	e.stopPropagation = true
}

// StopImmediatePropagation additionally skips the remaining listeners on the current node.
func (e *Event) StopImmediatePropagation() {
	e.stopPropagation = true
	e.stopImmediate = true
}

// Listener is an event callback.
type Listener func(ev *Event)

// ListenerOptions mirrors the addEventListener options dictionary.
type ListenerOptions struct {
	Capture bool
	Once    bool
}

type listener struct {
	fn      Listener
	capture bool
	once    bool
	removed bool
}

// AddEventListener registers fn for eventType and returns a function that
// unregisters it. Go funcs are not comparable, so the returned closure
// replaces removeEventListener.
func (n *Node) AddEventListener(eventType string, fn Listener, opts ...ListenerOptions) (remove func()) {
	var o ListenerOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if n.listeners == nil {
		n.listeners = make(map[string][]*listener)
	}
	l := &listener{fn: fn, capture: o.Capture, once: o.Once}
	n.listeners[eventType] = append(n.listeners[eventType], l)
	return func() { n.removeListener(eventType, l) }
}

// HasEventListeners reports whether any listener is registered for eventType.
func (n *Node) HasEventListeners(eventType string) bool {
	return len(n.listeners[eventType]) > 0
}

func (n *Node) removeListener(eventType string, l *listener) {
	l.removed = true
	ls := n.listeners[eventType]
	for i, existing := range ls {
		if existing == l {
			n.listeners[eventType] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// DispatchEvent dispatches ev with n as its target and returns true when the
// default action was not prevented. The propagation path is fixed before any
// listener runs, so listeners may mutate the tree freely. Re-dispatching an
// event that is still being dispatched is a no-op that reports its current outcome.
func (n *Node) DispatchEvent(ev *Event) bool {
	if ev.dispatching {
		return !ev.canceled
	}
	ev.dispatching = true
	ev.target = n
	ev.stopPropagation, ev.stopImmediate = false, false

	var path []*Node
	for cur := n.parent; cur != nil; cur = cur.parent {
		path = append(path, cur)
	}

	// Capture phase: outermost ancestor first.
	for i := len(path) - 1; i >= 0 && !ev.stopPropagation; i-- {
		path[i].invokeListeners(ev, PhaseCapturing)
	}

	if !ev.stopPropagation {
		n.invokeListeners(ev, PhaseAtTarget)
	}

	if ev.bubbles {
		for i := 0; i < len(path) && !ev.stopPropagation; i++ {
			path[i].invokeListeners(ev, PhaseBubbling)
		}
	}

	ev.phase = PhaseNone
	ev.currentTarget = nil
	ev.dispatching = false
	return !ev.canceled
}

func (n *Node) invokeListeners(ev *Event, phase EventPhase) {
	registered := n.listeners[ev.typ]
	if len(registered) == 0 {
		return
	}
	// Listeners added during dispatch do not run for this event.
	snapshot := make([]*listener, len(registered))
	copy(snapshot, registered)

	ev.currentTarget = n
	ev.phase = phase
	for _, l := range snapshot {
		if l.removed {
			continue
		}
		if phase == PhaseCapturing && !l.capture {
			continue
		}
		if phase == PhaseBubbling && l.capture {
			continue
		}
		if l.once {
			n.removeListener(ev.typ, l)
		}
		l.fn(ev)
		if ev.stopImmediate {
			return
		}
	}
}
