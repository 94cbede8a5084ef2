package toolbar

import (
	"errors"
	"time"

	"inlinebar/event"
)

var (
	// ErrNoBlockAncestor is returned when walk from selection never reaches a
	// block level element. Host documents are expected to always have one.
	ErrNoBlockAncestor = errors.New("no block level ancestor")
	// ErrNoSelection is returned by operations requiring active selection.
	ErrNoSelection = errors.New("no active selection")
)

// TextKind is the kind reported for text nodes.
const TextKind = "#text"

// Node is the minimal host tree view the toolbar needs.
type Node interface {
	// Kind returns lower-case element kind or TextKind.
	Kind() string
	// Parent returns nil for the topmost node.
	Parent() Node
}

// Selection is a read-only view of current host selection.
type Selection interface {
	Text() string
	AnchorNode() Node
	Collapsed() bool
}

// Saved is an opaque selection snapshot produced by Selections.Save.
type Saved any

type Document interface {
	// Query returns elements matching selector in document order.
	Query(selector string) ([]Node, error)
	CreateElement(kind string) (Node, error)
	// CopyContents appends deep copies of all children of from to to.
	CopyContents(from, to Node) error
	SetAttr(n Node, name, value string) error
	// Replace puts repl in place of old inside old's parent.
	Replace(old, repl Node) error
	Remove(n Node) error
	// FirstChild returns nil when n has no children.
	FirstChild(n Node) Node
}

// Styles answers rendering questions about element kinds.
type Styles interface {
	IsBlockKind(kind string) bool
}

type Selections interface {
	// Current returns nil when there is no selection.
	Current() Selection
	Save() Saved
	Restore(s Saved)
	// Clear drops active selection, as happens when keyboard focus moves
	// from document into toolbar input.
	Clear()
	SelectContents(n Node) error
	// InsertProbe inserts an empty element at the start of current range.
	// The probe must be passed to Document.Remove before the document is
	// used for anything else.
	InsertProbe() (Node, error)
}

// Layout measures rendered position of nodes.
type Layout interface {
	Offset(n Node) (x, y int, err error)
}

// Commands executes formatting commands against current selection.
type Commands interface {
	Exec(cmd Command, arg string) error
}

// Task is a scheduled callback which could be cancelled.
type Task interface {
	// Stop returns false if task already fired or was stopped.
	Stop() bool
}

type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Task
}

// Host bundles all capabilities controller requires. A single value may
// implement several of them.
type Host struct {
	Doc       Document
	Styles    Styles
	Sel       Selections
	Layout    Layout
	Cmd       Commands
	Scheduler Scheduler
	Events    *event.Bus
}

func (h Host) validate() error {
	switch {
	case h.Doc == nil:
		return errors.New("host document is not set")
	case h.Styles == nil:
		return errors.New("host styles are not set")
	case h.Sel == nil:
		return errors.New("host selections are not set")
	case h.Layout == nil:
		return errors.New("host layout is not set")
	case h.Cmd == nil:
		return errors.New("host commands are not set")
	case h.Events == nil:
		return errors.New("host event bus is not set")
	}
	return nil
}

// anchorElement returns element selection is anchored in: parent for text
// nodes, node itself otherwise.
func anchorElement(n Node) Node {
	if n == nil {
		return nil
	}
	if n.Kind() == TextKind {
		return n.Parent()
	}
	return n
}
