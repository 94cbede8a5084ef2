package toolbar

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ButtonSpec describes single toolbar button.
type ButtonSpec struct {
	Action string
	Tag    string
	Label  string
}

// Options are fixed for controller lifetime.
type Options struct {
	// ID is used to build names of toolbar event targets so several
	// controllers could share one event bus.
	ID                     string
	ExcludedActions        []string
	AnchorInputPlaceholder string
	DiffLeft               int
	DiffTop                int
	DismissDelay           time.Duration
	Buttons                []ButtonSpec
}

// DefaultOptions returns options matching stock toolbar.
func DefaultOptions() Options {
	return Options{
		ID:                     "medium-editor",
		AnchorInputPlaceholder: "Paste or type a link",
		DiffLeft:               30,
		DiffTop:                30,
		DismissDelay:           300 * time.Millisecond,
		Buttons: []ButtonSpec{
			{Action: "bold", Tag: "b", Label: "B"},
			{Action: "italic", Tag: "i", Label: "I"},
			{Action: "underline", Tag: "u", Label: "S"},
			{Action: "anchor", Tag: "a", Label: "#"},
			{Action: "append-h3", Tag: "h3", Label: "h1"},
			{Action: "append-h4", Tag: "h4", Label: "h2"},
			{Action: "append-blockquote", Tag: "blockquote", Label: "\""},
		},
	}
}

// Button is a toolbar button. Buttons are created once with the toolbar.
type Button struct {
	ActionID string
	Tag      string
	Label    string
	Action   Action
	Active   bool
	Hidden   bool
}

// AnchorInput is state of the link input of anchor form.
type AnchorInput struct {
	Value       string
	Placeholder string
	Focused     bool
}

// Toolbar is presentation state shared by all editable regions of one
// controller. Actions and anchor form panels are derived from Mode, so only
// one of them is ever shown.
type Toolbar struct {
	Visible   bool
	Mode      Mode
	X, Y      int
	KeepAlive bool
	Buttons   []*Button
	Input     AnchorInput
}

func newToolbar(opts Options) (*Toolbar, error) {
	if len(opts.Buttons) == 0 {
		return nil, errors.New("toolbar has no buttons")
	}

	excluded := make(map[string]bool, len(opts.ExcludedActions))
	for _, tag := range opts.ExcludedActions {
		excluded[strings.ToLower(strings.TrimSpace(tag))] = true
	}

	tb := &Toolbar{
		Mode:  ModeActions,
		Input: AnchorInput{Placeholder: opts.AnchorInputPlaceholder},
	}
	seen := make(map[string]bool, len(opts.Buttons))
	for _, spec := range opts.Buttons {
		if seen[spec.Action] {
			return nil, fmt.Errorf("duplicate button '%s'", spec.Action)
		}
		seen[spec.Action] = true

		act, err := ParseAction(spec.Action)
		if err != nil {
			return nil, fmt.Errorf("unable to create button: %w", err)
		}
		tag := strings.ToLower(spec.Tag)
		tb.Buttons = append(tb.Buttons, &Button{
			ActionID: spec.Action,
			Tag:      tag,
			Label:    spec.Label,
			Action:   act,
			Hidden:   excluded[tag],
		})
	}
	return tb, nil
}

// Button returns button by its action id, nil if there is none.
func (tb *Toolbar) Button(actionID string) *Button {
	for _, b := range tb.Buttons {
		if b.ActionID == actionID {
			return b
		}
	}
	return nil
}

// ActionsShown reports whether actions panel is displayed.
func (tb *Toolbar) ActionsShown() bool {
	return tb.Visible && tb.Mode == ModeActions
}

// FormShown reports whether anchor form panel is displayed.
func (tb *Toolbar) FormShown() bool {
	return tb.Visible && tb.Mode == ModeAnchorForm
}

// setActive deactivates all buttons and activates every button whose tag
// matches one of kinds. Kinds without a button are skipped.
func (tb *Toolbar) setActive(kinds []string) {
	for _, b := range tb.Buttons {
		b.Active = false
	}
	for _, k := range kinds {
		for _, b := range tb.Buttons {
			if strings.EqualFold(b.Tag, k) {
				b.Active = true
			}
		}
	}
}

// State is serializable snapshot of toolbar.
type State struct {
	Visible   bool     `yaml:"visible"`
	Mode      string   `yaml:"mode"`
	X         int      `yaml:"x"`
	Y         int      `yaml:"y"`
	KeepAlive bool     `yaml:"keep_alive"`
	Active    []string `yaml:"active,omitempty"`
	Hidden    []string `yaml:"hidden,omitempty"`
	Input     string   `yaml:"input,omitempty"`
	Armed     bool     `yaml:"dismiss_armed"`
}

func (tb *Toolbar) state() State {
	st := State{
		Visible:   tb.Visible,
		Mode:      tb.Mode.String(),
		X:         tb.X,
		Y:         tb.Y,
		KeepAlive: tb.KeepAlive,
		Input:     tb.Input.Value,
	}
	for _, b := range tb.Buttons {
		if b.Active {
			st.Active = append(st.Active, b.ActionID)
		}
		if b.Hidden {
			st.Hidden = append(st.Hidden, b.ActionID)
		}
	}
	slices.Sort(st.Active)
	slices.Sort(st.Hidden)
	return st
}
