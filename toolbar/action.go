package toolbar

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownAction = errors.New("unknown action")

// Action is what a button does when clicked. Concrete values are
// InlineToggle, BlockConvert and LinkToggle.
type Action interface {
	fmt.Stringer
	isAction()
}

// InlineToggle executes inline formatting command on selection.
type InlineToggle struct {
	Command Command
}

// BlockConvert replaces enclosing block with element of Kind.
type BlockConvert struct {
	Kind string
}

// LinkToggle removes link around selection or switches anchor form.
type LinkToggle struct{}

func (InlineToggle) isAction() {}
func (BlockConvert) isAction() {}
func (LinkToggle) isAction()   {}

func (a InlineToggle) String() string { return a.Command.String() }
func (a BlockConvert) String() string { return blockPrefix + a.Kind }
func (LinkToggle) String() string     { return linkAction }

const (
	blockPrefix = "append-"
	linkAction  = "anchor"
)

// ParseAction resolves action identifier used in configuration: "anchor",
// "append-<kind>" or name of inline command.
func ParseAction(id string) (Action, error) {
	switch {
	case id == linkAction:
		return LinkToggle{}, nil
	case strings.HasPrefix(id, blockPrefix):
		kind := strings.ToLower(strings.TrimPrefix(id, blockPrefix))
		if kind == "" || strings.ContainsAny(kind, " \t<>/") {
			return nil, fmt.Errorf("bad block kind in '%s': %w", id, ErrUnknownAction)
		}
		return BlockConvert{Kind: kind}, nil
	}

	cmd, err := ParseCommand(id)
	if err != nil {
		return nil, fmt.Errorf("'%s': %w", id, ErrUnknownAction)
	}
	if cmd == CommandCreateLink {
		// requires argument, only reachable through anchor form
		return nil, fmt.Errorf("'%s' could not be bound to a button: %w", id, ErrUnknownAction)
	}
	return InlineToggle{Command: cmd}, nil
}
