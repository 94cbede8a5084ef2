package dom

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"inlinebar/css"
	"inlinebar/toolbar"
)

// isPath reports whether selector is etree path rather than CSS selector.
func isPath(selector string) bool {
	return strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "./") || strings.HasPrefix(selector, "../")
}

// Query returns elements matching selector in document order. Selector is
// either etree path (starting with "/" or "./") or comma separated list of
// simple CSS selectors with optional descendant combinators.
func (d *Document) Query(selector string) ([]toolbar.Node, error) {
	elems, err := d.queryElements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]toolbar.Node, 0, len(elems))
	for _, e := range elems {
		out = append(out, Node{tok: e})
	}
	return out, nil
}

func (d *Document) queryElements(selector string) ([]*etree.Element, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, fmt.Errorf("empty selector: %w", ErrBadSelector)
	}

	if isPath(selector) {
		p, err := etree.CompilePath(selector)
		if err != nil {
			return nil, fmt.Errorf("'%s': %s: %w", selector, err.Error(), ErrBadSelector)
		}
		return d.doc.FindElementsPath(p), nil
	}

	selectors, warnings := d.parser.ParseSelectors(selector)
	if len(warnings) > 0 {
		return nil, fmt.Errorf("'%s': %s: %w", selector, strings.Join(warnings, "; "), ErrBadSelector)
	}
	if len(selectors) == 0 {
		return nil, fmt.Errorf("'%s': %w", selector, ErrBadSelector)
	}

	var out []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, s := range selectors {
			if matches(e, s) {
				out = append(out, e)
				break
			}
		}
		for _, c := range e.ChildElements() {
			walk(c)
		}
	}
	if root := d.doc.Root(); root != nil {
		walk(root)
	}
	return out, nil
}

// QueryOne returns first element matching selector.
func (d *Document) QueryOne(selector string) (toolbar.Node, error) {
	elems, err := d.queryElements(selector)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("nothing matches '%s'", selector)
	}
	return Node{tok: elems[0]}, nil
}

func matches(e *etree.Element, s css.Selector) bool {
	classes := strings.Fields(e.SelectAttrValue("class", ""))
	if !s.Matches(e.Tag, e.SelectAttrValue("id", ""), classes) {
		return false
	}
	if !s.IsDescendant() {
		return true
	}
	for p := e.Parent(); p != nil && !isDocument(p); p = p.Parent() {
		if matches(p, *s.Ancestor) {
			return true
		}
	}
	return false
}
