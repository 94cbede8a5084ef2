package toolbar

import (
	"fmt"

	"go.uber.org/multierr"
)

// Positioner measures where toolbar should be placed for current selection.
type Positioner struct {
	doc    Document
	sel    Selections
	layout Layout
	dx, dy int
}

func NewPositioner(doc Document, sel Selections, layout Layout, diffLeft, diffTop int) *Positioner {
	return &Positioner{doc: doc, sel: sel, layout: layout, dx: diffLeft, dy: diffTop}
}

// Position returns toolbar coordinates. Document content and selection are
// left as they were.
func (p *Positioner) Position() (x, y int, err error) {
	saved := p.sel.Save()

	probe, err := p.sel.InsertProbe()
	if err != nil {
		return 0, 0, fmt.Errorf("unable to measure selection: %w", err)
	}

	x, y, err = p.layout.Offset(probe)
	err = multierr.Append(err, p.doc.Remove(probe))
	p.sel.Restore(saved)

	if err != nil {
		return 0, 0, fmt.Errorf("unable to measure selection: %w", err)
	}
	return x + p.dx, y + p.dy, nil
}
