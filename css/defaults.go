package css

import (
	_ "embed"
	"slices"
	"strings"

	"go.uber.org/zap"
)

//go:embed ua.css
var userAgentStylesheet []byte

// Display values which make element occupy its own line box.
var blockLevel = map[string]bool{
	"block":     true,
	"list-item": true,
	"table":     true,
	"flex":      true,
	"grid":      true,
	"flow-root": true,
}

// Defaults knows default rendering category of element kinds. It is built
// from the embedded user agent stylesheet optionally extended by additional
// stylesheets, later sheets win. Only rules with bare element selectors are
// considered - default display is a property of element kind, never of
// classes or inline styles.
type Defaults struct {
	display map[string]string
	log     *zap.Logger
}

// NewDefaults prepares defaults from user agent stylesheet and extra sheets.
func NewDefaults(log *zap.Logger, extra ...[]byte) *Defaults {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Defaults{display: make(map[string]string), log: log.Named("css-defaults")}

	p := NewParser(log)
	d.apply(p.Parse(userAgentStylesheet, "user-agent"))
	for _, data := range extra {
		d.apply(p.Parse(data, "user"))
	}
	return d
}

func (d *Defaults) apply(sheet *Stylesheet) {
	for _, w := range sheet.Warnings {
		d.log.Debug("Stylesheet warning", zap.String("warning", w))
	}
	for _, r := range sheet.Rules {
		if !r.Selector.IsElementOnly() {
			continue
		}
		v, ok := r.GetProperty("display")
		if !ok || !v.IsKeyword() {
			continue
		}
		d.display[r.Selector.Element] = v.Keyword
	}
}

// Display returns default display of the element kind. Unknown kinds render
// inline, as browsers do.
func (d *Defaults) Display(kind string) string {
	if v, ok := d.display[strings.ToLower(kind)]; ok {
		return v
	}
	return "inline"
}

// Stylesheet returns effective defaults, one rule per element kind in name
// order.
func (d *Defaults) Stylesheet() *Stylesheet {
	kinds := make([]string, 0, len(d.display))
	for k := range d.display {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)

	sheet := &Stylesheet{Rules: make([]Rule, 0, len(kinds))}
	for _, k := range kinds {
		v := d.display[k]
		sheet.Rules = append(sheet.Rules, Rule{
			Selector:   Selector{Raw: k, Element: k},
			Properties: map[string]Value{"display": {Raw: v, Keyword: v}},
		})
	}
	return sheet
}

// IsBlockKind reports whether element kind is block level by default.
func (d *Defaults) IsBlockKind(kind string) bool {
	return blockLevel[d.Display(kind)]
}
