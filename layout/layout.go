// Package layout provides simple flow layout used to find where on the page
// document nodes are rendered.
package layout

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/beevik/etree"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"inlinebar/dom"
	"inlinebar/toolbar"
)

var ErrNotRendered = errors.New("node is not rendered")

// Metrics describe page geometry. Text is laid out on a grid of cells of
// CharWidth x LineHeight pixels, wide characters take two cells.
type Metrics struct {
	CharWidth      int
	LineHeight     int
	ViewportWidth  int
	OriginX        int
	OriginY        int
	EastAsianWidth bool
}

// DefaultMetrics returns metrics of a narrow monospace page.
func DefaultMetrics() Metrics {
	return Metrics{CharWidth: 8, LineHeight: 18, ViewportWidth: 640}
}

// Engine lays out document blocks one under another wrapping text at
// viewport width.
type Engine struct {
	doc     *dom.Document
	metrics Metrics
	cols    int
	cond    *runewidth.Condition
	log     *zap.Logger
}

func New(doc *dom.Document, m Metrics, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if m.CharWidth <= 0 {
		m.CharWidth = 1
	}
	if m.LineHeight <= 0 {
		m.LineHeight = 1
	}

	cond := runewidth.NewCondition()
	cond.EastAsianWidth = m.EastAsianWidth
	cond.StrictEmojiNeutral = !m.EastAsianWidth

	return &Engine{
		doc:     doc,
		metrics: m,
		cols:    max(1, m.ViewportWidth/m.CharWidth),
		cond:    cond,
		log:     log.Named("layout"),
	}
}

// Offset returns page coordinates of top left corner of n.
func (e *Engine) Offset(n toolbar.Node) (x, y int, err error) {
	dn, ok := n.(dom.Node)
	if !ok {
		return 0, 0, fmt.Errorf("%T: %w", n, dom.ErrForeignNode)
	}
	root := e.doc.Root()
	if root == nil {
		return 0, 0, ErrNotRendered
	}

	f := &flow{e: e, target: dn.Token()}
	if !f.visit(root) {
		return 0, 0, fmt.Errorf("%s: %w", dn, ErrNotRendered)
	}
	x = e.metrics.OriginX + f.x*e.metrics.CharWidth
	y = e.metrics.OriginY + f.y*e.metrics.LineHeight
	return x, y, nil
}

// flow tracks pen position in cells while walking the tree.
type flow struct {
	e      *Engine
	target etree.Token

	col, line int
	// collapsed whitespace waiting for next visible character
	space bool

	x, y int
}

func (f *flow) newline() {
	if f.col > 0 {
		f.line++
		f.col = 0
	}
	f.space = false
}

func (f *flow) advance(w int) {
	if f.col+w > f.e.cols && f.col > 0 {
		f.line++
		f.col = 0
	}
	f.col += w
}

func (f *flow) mark() {
	f.x, f.y = f.col, f.line
	if f.space {
		if f.col+1 > f.e.cols {
			f.x, f.y = 0, f.line+1
		} else {
			f.x++
		}
	}
}

func (f *flow) text(s string) {
	for _, r := range s {
		if unicode.IsSpace(r) {
			if f.col > 0 {
				f.space = true
			}
			continue
		}
		if f.space {
			f.space = false
			if f.col+1 <= f.e.cols {
				f.col++
			} else {
				f.newline()
			}
		}
		f.advance(f.e.cond.RuneWidth(r))
	}
}

// visit returns true when target was reached.
func (f *flow) visit(t etree.Token) bool {
	switch v := t.(type) {
	case *etree.CharData:
		if t == f.target {
			f.mark()
			return true
		}
		f.text(v.Data)

	case *etree.Element:
		kind := strings.ToLower(v.Tag)
		if f.e.doc.Display(kind) == "none" {
			return false
		}
		if kind == "br" {
			f.line++
			f.col = 0
			f.space = false
		}
		block := f.e.doc.IsBlockKind(kind)
		if block {
			f.newline()
		}
		if t == f.target {
			f.mark()
			return true
		}
		for _, c := range v.Child {
			if f.visit(c) {
				return true
			}
		}
		if block {
			f.newline()
		}
	}
	return false
}
