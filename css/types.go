package css

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
)

// Value represents a parsed CSS property value.
type Value struct {
	Raw     string  // Original CSS value string (e.g., "1.2em", "block", "#ff0000")
	Value   float64 // Numeric value if applicable
	Unit    string  // Unit if applicable: "em", "px", "%", "pt", etc.
	Keyword string  // Keyword if applicable: "block", "inline", "none", etc.
}

// IsNumeric returns true if the value has a numeric component.
// This includes explicit zero values like "0" or "0px".
func (v Value) IsNumeric() bool {
	if v.Unit != "" {
		return true
	}
	if v.Value != 0 && v.Keyword == "" {
		return true
	}
	if v.Raw != "" && v.Keyword == "" {
		firstChar := rune(v.Raw[0])
		if unicode.IsDigit(firstChar) || firstChar == '.' || firstChar == '-' || firstChar == '+' {
			return true
		}
	}
	return false
}

// IsKeyword returns true if the value is a keyword (no numeric component).
func (v Value) IsKeyword() bool {
	return v.Keyword != "" && v.Unit == ""
}

// Selector represents a parsed CSS selector with its components.
type Selector struct {
	Raw      string    // Original selector string
	Element  string    // Element name (e.g., "p", "h1"), "*" or empty for class/id only
	Class    string    // Class name without dot or empty
	ID       string    // Id without hash or empty
	Ancestor *Selector // Ancestor selector for descendant selectors (e.g., "div p" -> Ancestor is "div")
}

// IsSimple returns true if this is a simple selector (element, class, id or
// their combination).
func (s Selector) IsSimple() bool {
	return s.Element != "" || s.Class != "" || s.ID != ""
}

// IsDescendant returns true if this is a descendant selector.
func (s Selector) IsDescendant() bool {
	return s.Ancestor != nil
}

// IsElementOnly returns true for selectors naming a bare element kind, which
// are the only ones contributing to element defaults.
func (s Selector) IsElementOnly() bool {
	return s.Element != "" && s.Element != "*" && s.Class == "" && s.ID == "" && s.Ancestor == nil
}

// Matches reports whether an element with given kind, classes and id
// satisfies the rightmost part of the selector. Ancestors are matched by the
// caller which knows how to walk its tree.
func (s Selector) Matches(kind, id string, classes []string) bool {
	if !s.IsSimple() {
		return false
	}
	if s.Element != "" && s.Element != "*" && !strings.EqualFold(s.Element, kind) {
		return false
	}
	if s.ID != "" && s.ID != id {
		return false
	}
	if s.Class != "" {
		found := false
		for _, c := range classes {
			if c == s.Class {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Rule represents a single CSS rule (selector + properties).
type Rule struct {
	Selector   Selector         // Parsed selector
	Properties map[string]Value // Property name -> value
}

// GetProperty returns the value for a property, or empty Value if not found.
func (r Rule) GetProperty(name string) (Value, bool) {
	v, ok := r.Properties[name]
	return v, ok
}

// Stylesheet represents a parsed CSS stylesheet.
type Stylesheet struct {
	Rules    []Rule   // All supported rules in source order
	Warnings []string // Warnings for unsupported features
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
// Property order within a rule is sorted alphabetically for deterministic output.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i := range s.Rules {
		n, err := fmt.Fprintf(w, "%s {\n", s.Rules[i].Selector.Raw)
		total += int64(n)
		if err != nil {
			return total, err
		}
		n, err = writeProperties(w, "  ", s.Rules[i].Properties)
		total += int64(n)
		if err != nil {
			return total, err
		}
		n, err = fmt.Fprint(w, "}\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// FormatDeclarations renders properties as inline style attribute value.
func FormatDeclarations(props map[string]Value) string {
	var sb strings.Builder
	writeProperties(&sb, "", props) //nolint:errcheck
	return strings.TrimSpace(strings.ReplaceAll(sb.String(), "\n", " "))
}

// writeProperties writes property declarations sorted alphabetically.
func writeProperties(w io.Writer, indent string, props map[string]Value) (int, error) {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	var total int
	for _, name := range names {
		n, err := fmt.Fprintf(w, "%s%s: %s;\n", indent, name, props[name].Raw)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
