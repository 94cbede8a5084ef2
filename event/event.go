package event

import "slices"

// Type names the kind of user interaction carried by an Event.
type Type string

const (
	PointerUp Type = "pointerup"
	KeyUp     Type = "keyup"
	KeyDown   Type = "keydown"
	Click     Type = "click"
	Input     Type = "input"
)

// Page is the implicit outermost target. Every event which is not stopped
// reaches subscribers registered for it after its Path is exhausted.
const Page = "page"

// Event is a single interaction delivered by the Bus.
//
// Path lists targets innermost first: the element interacted with followed
// by its containers. Page is implied and must not be listed.
type Event struct {
	Type  Type
	Path  []string
	Key   string
	Value string

	stopped   bool
	prevented bool
}

// New creates event of the given type travelling along path.
func New(typ Type, path ...string) *Event {
	return &Event{Type: typ, Path: slices.Clone(path)}
}

// Target returns the innermost target, Page when event has no path.
func (e *Event) Target() string {
	if len(e.Path) == 0 {
		return Page
	}
	return e.Path[0]
}

// StopPropagation prevents delivery to targets further along the path.
// Remaining handlers of the current target still run.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Stopped reports whether StopPropagation was called.
func (e *Event) Stopped() bool {
	return e.stopped
}

// PreventDefault marks event as consumed so host does not apply its own
// default action (e.g. form submission on Enter).
func (e *Event) PreventDefault() {
	e.prevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool {
	return e.prevented
}

// targets returns full delivery order including Page.
func (e *Event) targets() []string {
	out := make([]string, 0, len(e.Path)+1)
	for _, t := range e.Path {
		if t != Page {
			out = append(out, t)
		}
	}
	return append(out, Page)
}
