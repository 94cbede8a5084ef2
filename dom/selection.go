package dom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"inlinebar/toolbar"
)

// Point is a boundary position: byte offset inside text node or child index
// inside element.
type Point struct {
	Node   etree.Token
	Offset int
}

// Range is a selection range. Anchor is where selection started, Focus
// where it ended, so Focus could precede Anchor in document order.
type Range struct {
	Anchor Point
	Focus  Point
}

// Selection is a view of current document selection.
type Selection struct {
	d *Document
	r Range
}

func (s *Selection) Text() string {
	var sb strings.Builder
	for _, seg := range s.d.segments(s.r) {
		sb.WriteString(seg.text())
	}
	return sb.String()
}

func (s *Selection) AnchorNode() toolbar.Node {
	return wrap(s.r.Anchor.Node)
}

func (s *Selection) Collapsed() bool {
	a, _ := s.d.offsetOf(s.r.Anchor)
	f, _ := s.d.offsetOf(s.r.Focus)
	return a == f
}

// Range returns selection boundaries.
func (s *Selection) Range() Range {
	return s.r
}

// run is text node with its offset in concatenated document text.
type run struct {
	cd    *etree.CharData
	start int
}

func (r run) end() int {
	return r.start + len(r.cd.Data)
}

// segment is selected part of a text node.
type segment struct {
	cd       *etree.CharData
	from, to int
}

func (s segment) text() string {
	return s.cd.Data[s.from:s.to]
}

func collectRuns(root *etree.Element) []run {
	var (
		out []run
		pos int
	)
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.Child {
			switch v := c.(type) {
			case *etree.CharData:
				out = append(out, run{cd: v, start: pos})
				pos += len(v.Data)
			case *etree.Element:
				walk(v)
			}
		}
	}
	walk(root)
	return out
}

// offsetOf returns position of p in concatenated document text.
func (d *Document) offsetOf(p Point) (int, bool) {
	var (
		pos   int
		found bool
	)
	var walk func(e *etree.Element) bool
	walk = func(e *etree.Element) bool {
		for i, c := range e.Child {
			if p.Node == etree.Token(e) && i == p.Offset {
				found = true
				return true
			}
			switch v := c.(type) {
			case *etree.CharData:
				if p.Node == etree.Token(v) {
					pos += min(max(p.Offset, 0), len(v.Data))
					found = true
					return true
				}
				pos += len(v.Data)
			case *etree.Element:
				if walk(v) {
					return true
				}
			}
		}
		if p.Node == etree.Token(e) {
			found = true
			return true
		}
		return false
	}
	walk(&d.doc.Element)
	return pos, found
}

// bounds returns normalized range boundaries in document text coordinates and
// the point at which range starts.
func (d *Document) bounds(r Range) (start, end int, first Point, ok bool) {
	a, aok := d.offsetOf(r.Anchor)
	f, fok := d.offsetOf(r.Focus)
	if !aok || !fok {
		return 0, 0, Point{}, false
	}
	if f < a {
		return f, a, r.Focus, true
	}
	return a, f, r.Anchor, true
}

func (d *Document) segments(r Range) []segment {
	start, end, _, ok := d.bounds(r)
	if !ok || start == end {
		return nil
	}
	var out []segment
	for _, rn := range collectRuns(&d.doc.Element) {
		from, to := max(start, rn.start), min(end, rn.end())
		if from < to {
			out = append(out, segment{cd: rn.cd, from: from - rn.start, to: to - rn.start})
		}
	}
	return out
}

func attached(t etree.Token) bool {
	if t == nil {
		return false
	}
	if e, ok := t.(*etree.Element); ok && isDocument(e) {
		return true
	}
	for p := t.Parent(); p != nil; p = p.Parent() {
		if isDocument(p) {
			return true
		}
	}
	return false
}

// Current returns current selection or nil. Selection whose boundaries were
// removed from document is dropped.
func (d *Document) Current() toolbar.Selection {
	if d.sel == nil {
		return nil
	}
	if !attached(d.sel.Anchor.Node) || !attached(d.sel.Focus.Node) {
		d.log.Debug("Selection boundary detached, selection dropped")
		d.sel = nil
		return nil
	}
	return &Selection{d: d, r: *d.sel}
}

// Save returns snapshot of current selection, nil when there is none.
func (d *Document) Save() toolbar.Saved {
	if d.sel == nil {
		return nil
	}
	return *d.sel
}

func (d *Document) Restore(s toolbar.Saved) {
	r, ok := s.(Range)
	if !ok {
		d.sel = nil
		return
	}
	d.sel = &r
}

func (d *Document) Clear() {
	d.sel = nil
}

// SetRange makes r current selection.
func (d *Document) SetRange(r Range) {
	d.sel = &r
}

// SelectContents selects everything inside n.
func (d *Document) SelectContents(n toolbar.Node) error {
	t, err := tokenOf(n)
	if err != nil {
		return err
	}
	switch v := t.(type) {
	case *etree.CharData:
		d.sel = &Range{Anchor: Point{v, 0}, Focus: Point{v, len(v.Data)}}
	case *etree.Element:
		d.sel = &Range{Anchor: Point{v, 0}, Focus: Point{v, len(v.Child)}}
	default:
		return fmt.Errorf("unable to select contents of %s: %w", n.Kind(), ErrForeignNode)
	}
	return nil
}

// SelectText selects occurrence (1 based) of text inside within, or inside
// body when within is nil. Text could span several text nodes.
func (d *Document) SelectText(text string, occurrence int, within toolbar.Node) error {
	if text == "" {
		return errors.New("unable to select empty text")
	}
	if occurrence < 1 {
		occurrence = 1
	}

	root := d.Body()
	if within != nil {
		e, err := elementOf(within)
		if err != nil {
			return err
		}
		root = e
	}
	if root == nil {
		return errors.New("document is empty")
	}

	runs := collectRuns(root)
	var sb strings.Builder
	for _, rn := range runs {
		sb.WriteString(rn.cd.Data)
	}
	content := sb.String()

	start, from := -1, 0
	for range occurrence {
		i := strings.Index(content[from:], text)
		if i < 0 {
			return fmt.Errorf("occurrence %d of '%s' not found", occurrence, text)
		}
		start = from + i
		from = start + len(text)
	}
	end := start + len(text)

	var r Range
	for _, rn := range runs {
		if r.Anchor.Node == nil && start >= rn.start && start < rn.end() {
			r.Anchor = Point{rn.cd, start - rn.start}
		}
		if end > rn.start && end <= rn.end() {
			r.Focus = Point{rn.cd, end - rn.start}
			break
		}
	}
	d.sel = &r
	return nil
}

// probeTag is kind of zero size element used to measure selection.
const probeTag = "span"

// InsertProbe inserts empty element at the start of current range. Text node
// split by insertion is merged back by Remove.
func (d *Document) InsertProbe() (toolbar.Node, error) {
	if d.Current() == nil {
		return nil, toolbar.ErrNoSelection
	}
	_, _, at, ok := d.bounds(*d.sel)
	if !ok {
		return nil, toolbar.ErrNoSelection
	}

	probe := etree.NewElement(probeTag)
	split := false
	switch v := at.Node.(type) {
	case *etree.CharData:
		parent, idx := v.Parent(), v.Index()
		switch {
		case at.Offset <= 0:
			parent.InsertChildAt(idx, probe)
		case at.Offset >= len(v.Data):
			parent.InsertChildAt(idx+1, probe)
		default:
			rest := etree.NewText(v.Data[at.Offset:])
			v.Data = v.Data[:at.Offset]
			parent.InsertChildAt(idx+1, rest)
			parent.InsertChildAt(idx+1, probe)
			split = true
		}
	case *etree.Element:
		v.InsertChildAt(at.Offset, probe)
	default:
		return nil, fmt.Errorf("unable to insert probe: %w", ErrForeignNode)
	}
	d.probes[probe] = split
	return Node{tok: probe}, nil
}
