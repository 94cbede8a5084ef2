package dom

import (
	"strings"

	"inlinebar/css"
	"inlinebar/toolbar"
)

// Style returns declarations of element inline style.
func (d *Document) Style(n toolbar.Node) (map[string]css.Value, error) {
	e, err := elementOf(n)
	if err != nil {
		return nil, err
	}
	return d.parser.ParseDeclarations(e.SelectAttrValue("style", "")), nil
}

// SetStyle merges props into element inline style. Empty value removes
// property. Attribute is removed when no declarations are left.
func (d *Document) SetStyle(n toolbar.Node, props map[string]string) error {
	e, err := elementOf(n)
	if err != nil {
		return err
	}

	decl := d.parser.ParseDeclarations(e.SelectAttrValue("style", ""))
	for name, value := range props {
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		if value == "" {
			delete(decl, name)
			continue
		}
		parsed := d.parser.ParseDeclarations(name + ": " + value)
		if v, ok := parsed[name]; ok {
			decl[name] = v
		} else {
			decl[name] = css.Value{Raw: value}
		}
	}

	if len(decl) == 0 {
		e.RemoveAttr("style")
		return nil
	}
	e.CreateAttr("style", css.FormatDeclarations(decl))
	return nil
}
