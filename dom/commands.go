package dom

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"inlinebar/toolbar"
)

type inlineFormat struct {
	tag string
	// kinds recognized as already applying this format
	kinds map[string]bool
}

var inlineFormats = map[toolbar.Command]inlineFormat{
	toolbar.CommandBold:          {tag: "b", kinds: map[string]bool{"b": true, "strong": true}},
	toolbar.CommandItalic:        {tag: "i", kinds: map[string]bool{"i": true, "em": true}},
	toolbar.CommandUnderline:     {tag: "u", kinds: map[string]bool{"u": true, "ins": true}},
	toolbar.CommandStrikethrough: {tag: "s", kinds: map[string]bool{"s": true, "strike": true, "del": true}},
}

var linkKinds = map[string]bool{"a": true}

// Exec executes formatting command on current selection.
func (d *Document) Exec(cmd toolbar.Command, arg string) error {
	if f, ok := inlineFormats[cmd]; ok {
		return d.toggleInline(f)
	}
	switch cmd {
	case toolbar.CommandUnlink:
		return d.unlink()
	case toolbar.CommandCreateLink:
		return d.createLink(arg)
	}
	return fmt.Errorf("'%s': %w", cmd, ErrUnsupportedCommand)
}

// selected returns formattable parts of selected text. Whitespace between
// blocks is skipped.
func (d *Document) selected() ([]segment, error) {
	if d.Current() == nil {
		return nil, toolbar.ErrNoSelection
	}
	var out []segment
	for _, s := range d.segments(*d.sel) {
		if strings.TrimSpace(s.text()) == "" && d.styles.IsBlockKind(s.cd.Parent().Tag) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// enclosing returns nearest ancestor of t with one of kinds, stopping at
// block boundary.
func (d *Document) enclosing(t etree.Token, kinds map[string]bool) *etree.Element {
	start := t.Parent()
	if e, ok := t.(*etree.Element); ok {
		start = e
	}
	for p := start; p != nil && !isDocument(p); p = p.Parent() {
		k := strings.ToLower(p.Tag)
		if kinds[k] {
			return p
		}
		if d.styles.IsBlockKind(k) {
			return nil
		}
	}
	return nil
}

func (d *Document) toggleInline(f inlineFormat) error {
	segs, err := d.selected()
	if err != nil || len(segs) == 0 {
		return err
	}

	var formatted []*etree.Element
	for _, s := range segs {
		e := d.enclosing(s.cd, f.kinds)
		if e == nil {
			formatted = nil
			break
		}
		formatted = appendUnique(formatted, e)
	}

	if formatted != nil {
		for _, e := range formatted {
			unwrap(e)
		}
		d.log.Debug("Format removed", zap.String("tag", f.tag), zap.Int("elements", len(formatted)))
		return nil
	}

	d.wrapSegments(segs, func(s segment) bool {
		return d.enclosing(s.cd, f.kinds) != nil
	}, func() *etree.Element {
		return etree.NewElement(f.tag)
	})
	d.log.Debug("Format applied", zap.String("tag", f.tag), zap.Int("segments", len(segs)))
	return nil
}

func (d *Document) unlink() error {
	if d.Current() == nil {
		return toolbar.ErrNoSelection
	}
	segs, err := d.selected()
	if err != nil {
		return err
	}

	var links []*etree.Element
	if len(segs) == 0 {
		if a := d.enclosing(d.sel.Anchor.Node, linkKinds); a != nil {
			links = append(links, a)
		}
	}
	for _, s := range segs {
		if a := d.enclosing(s.cd, linkKinds); a != nil {
			links = appendUnique(links, a)
		}
	}
	for _, a := range links {
		unwrap(a)
	}
	d.log.Debug("Links removed", zap.Int("count", len(links)))
	return nil
}

func (d *Document) createLink(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyLink
	}
	segs, err := d.selected()
	if err != nil || len(segs) == 0 {
		return err
	}

	d.wrapSegments(segs, func(s segment) bool {
		if a := d.enclosing(s.cd, linkKinds); a != nil {
			a.CreateAttr("href", url)
			return true
		}
		return false
	}, func() *etree.Element {
		a := etree.NewElement("a")
		a.CreateAttr("href", url)
		return a
	})
	d.log.Debug("Link created", zap.String("href", url), zap.Int("segments", len(segs)))
	return nil
}

// wrapSegments wraps every segment not skipped into new element and makes
// the wrapped text current selection.
func (d *Document) wrapSegments(segs []segment, skip func(segment) bool, mk func() *etree.Element) {
	var first, last Point
	for i, s := range segs {
		from, to := Point{s.cd, s.from}, Point{s.cd, s.to}
		if !skip(s) {
			mid := isolate(s)
			e := mk()
			mid.Parent().InsertChildAt(mid.Index(), e)
			e.AddChild(mid)
			from, to = Point{mid, 0}, Point{mid, len(mid.Data)}
		}
		if i == 0 {
			first = from
		}
		last = to
	}
	d.sel = &Range{Anchor: first, Focus: last}
}

// isolate splits text node so that selected part is a separate node.
func isolate(s segment) *etree.CharData {
	cd, parent := s.cd, s.cd.Parent()
	if s.to < len(cd.Data) {
		parent.InsertChildAt(cd.Index()+1, etree.NewText(cd.Data[s.to:]))
		cd.Data = cd.Data[:s.to]
	}
	if s.from > 0 {
		mid := etree.NewText(cd.Data[s.from:])
		cd.Data = cd.Data[:s.from]
		parent.InsertChildAt(cd.Index()+1, mid)
		return mid
	}
	return cd
}

// unwrap replaces element with its children.
func unwrap(e *etree.Element) {
	parent := e.Parent()
	if parent == nil {
		return
	}
	idx := e.Index()
	for len(e.Child) > 0 {
		t := e.RemoveChildAt(0)
		parent.InsertChildAt(idx, t)
		idx++
	}
	parent.RemoveChild(e)
}

func appendUnique(list []*etree.Element, e *etree.Element) []*etree.Element {
	for _, cur := range list {
		if cur == e {
			return list
		}
	}
	return append(list, e)
}
