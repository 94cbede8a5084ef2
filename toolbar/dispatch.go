package toolbar

import (
	"fmt"

	"go.uber.org/zap"
)

const linkKind = "a"

// Dispatcher performs button actions.
type Dispatcher struct {
	tb      *Toolbar
	sel     Selections
	cmd     Commands
	conv    *BlockConverter
	form    *AnchorForm
	refresh func()
	log     *zap.Logger
}

// Dispatch performs action bound to b and flips its Active flag on success.
func (d *Dispatcher) Dispatch(b *Button) error {
	var err error
	switch a := b.Action.(type) {
	case BlockConvert:
		err = d.convert(a.Kind)
	case LinkToggle:
		err = d.toggleLink()
	case InlineToggle:
		err = d.cmd.Exec(a.Command, "")
	default:
		err = fmt.Errorf("button '%s': %w", b.ActionID, ErrUnknownAction)
	}
	if err != nil {
		return err
	}
	b.Active = !b.Active
	d.log.Debug("Action performed", zap.Stringer("action", b.Action), zap.Bool("active", b.Active))
	return nil
}

func (d *Dispatcher) convert(kind string) error {
	cur := d.sel.Current()
	if cur == nil {
		return ErrNoSelection
	}
	if _, err := d.conv.Convert(cur.AnchorNode(), kind); err != nil {
		return err
	}
	d.refresh()
	return nil
}

func (d *Dispatcher) toggleLink() error {
	if cur := d.sel.Current(); cur != nil {
		if n := anchorElement(cur.AnchorNode()); n != nil && n.Kind() == linkKind {
			return d.cmd.Exec(CommandUnlink, "")
		}
	}

	if d.tb.Mode == ModeAnchorForm {
		d.form.Cancel()
		return nil
	}
	if d.sel.Current() == nil {
		return ErrNoSelection
	}
	d.form.Show()
	return nil
}
