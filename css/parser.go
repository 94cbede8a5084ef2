package css

import (
	"bytes"
	"maps"
	"strconv"
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets, inline style declarations and selector lists.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{
		Rules:    make([]Rule, 0),
		Warnings: make([]string, 0),
	}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			// End of input or error
			if parser.Err() != nil && parser.Err().Error() != "EOF" {
				p.log.Debug("CSS parse error", zap.Error(parser.Err()))
			}
			return sheet

		case css.BeginAtRuleGrammar:
			// none of @media, @font-face and friends affect element defaults
			p.log.Debug("Skipping @-rule", zap.String("rule", string(data)))
			p.skipAtRuleBlock(parser)

		case css.AtRuleGrammar:
			p.log.Debug("Skipping @-rule", zap.String("rule", string(data)))

		case css.BeginRulesetGrammar:
			selectors := splitSelectors(data, parser.Values())
			props := p.parseDeclarations(parser)

			// Create rules for each selector
			for _, selStr := range selectors {
				sel := p.parseSelector(selStr, sheet)
				if !sel.IsSimple() {
					continue
				}
				propsCopy := make(map[string]Value, len(props))
				maps.Copy(propsCopy, props)
				sheet.Rules = append(sheet.Rules, Rule{Selector: sel, Properties: propsCopy})
			}
		}
	}
}

// ParseSelectors parses comma separated selector list. Unsupported selectors
// are reported as warnings and left out of the result.
func (p *Parser) ParseSelectors(list string) ([]Selector, []string) {
	sheet := &Stylesheet{}
	var selectors []Selector
	for s := range strings.SplitSeq(list, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if sel := p.parseSelector(s, sheet); sel.IsSimple() {
			selectors = append(selectors, sel)
		}
	}
	return selectors, sheet.Warnings
}

// ParseDeclarations parses the content of a style attribute.
func (p *Parser) ParseDeclarations(style string) map[string]Value {
	parser := css.NewParser(parse.NewInputString(style), true)
	return p.parseDeclarations(parser)
}

// splitSelectors extracts selector strings from token data.
func splitSelectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}

	var selectors []string
	for s := range strings.SplitSeq(sb.String(), ",") {
		if s = strings.TrimSpace(s); s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

// parseDeclarations parses property declarations until the end of a ruleset
// (or end of input for inline styles).
func (p *Parser) parseDeclarations(parser *css.Parser) map[string]Value {
	props := make(map[string]Value)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return props

		case css.DeclarationGrammar:
			propName := strings.ToLower(string(data))
			if values := parser.Values(); len(values) > 0 {
				props[propName] = parsePropertyValue(values)
			}

		case css.CustomPropertyGrammar:
			continue
		}
	}
}

// parsePropertyValue converts CSS tokens to a Value.
func parsePropertyValue(tokens []css.Token) Value {
	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			rawParts = append(rawParts, " ")
		}
	}
	raw := strings.TrimSpace(strings.Join(rawParts, ""))

	val := Value{Raw: raw}

	if len(tokens) == 1 || (len(tokens) == 2 && tokens[1].TokenType == css.WhitespaceToken) {
		t := tokens[0]
		switch t.TokenType {
		case css.DimensionToken:
			val.Value, val.Unit = parseDimension(string(t.Data))
		case css.PercentageToken:
			val.Value, _ = strconv.ParseFloat(strings.TrimSuffix(string(t.Data), "%"), 64)
			val.Unit = "%"
		case css.NumberToken:
			val.Value, _ = strconv.ParseFloat(string(t.Data), 64)
		case css.IdentToken:
			val.Keyword = strings.ToLower(string(t.Data))
		case css.StringToken:
			val.Keyword = unquote(string(t.Data))
		case css.HashToken:
			val.Keyword = string(t.Data)
		}
		return val
	}

	// functions and multi-value properties are kept as raw keyword
	val.Keyword = raw
	return val
}

// parseDimension extracts numeric value and unit from dimension token.
func parseDimension(s string) (float64, string) {
	numEnd := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}
	if numEnd == 0 {
		return 0, ""
	}
	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	return num, strings.ToLower(s[numEnd:])
}

// parseSelector parses a single selector string into a Selector.
func (p *Parser) parseSelector(selStr string, sheet *Stylesheet) Selector {
	selStr = strings.TrimSpace(selStr)
	sel := Selector{Raw: selStr}

	if strings.ContainsAny(selStr, "+~>") {
		sheet.Warnings = append(sheet.Warnings, "unsupported combinator selector: "+selStr)
		p.log.Debug("Skipping combinator selector", zap.String("selector", selStr))
		return sel
	}
	if strings.ContainsAny(selStr, "[:") {
		sheet.Warnings = append(sheet.Warnings, "unsupported attribute or pseudo selector: "+selStr)
		p.log.Debug("Skipping attribute or pseudo selector", zap.String("selector", selStr))
		return sel
	}

	parts := strings.Fields(selStr)
	if len(parts) == 1 {
		return p.parseSimpleSelector(parts[0], sheet)
	}

	// descendant selector: rightmost part is the subject, the rest form an
	// ancestor chain
	sel = p.parseSimpleSelector(parts[len(parts)-1], sheet)
	sel.Raw = selStr
	if !sel.IsSimple() {
		return Selector{Raw: selStr}
	}
	anc := p.parseSelector(strings.Join(parts[:len(parts)-1], " "), sheet)
	if !anc.IsSimple() {
		return Selector{Raw: selStr}
	}
	sel.Ancestor = &anc
	return sel
}

// parseSimpleSelector parses element, .class, #id and their combinations.
func (p *Parser) parseSimpleSelector(selStr string, sheet *Stylesheet) Selector {
	sel := Selector{Raw: selStr}

	remaining := selStr
	if before, id, found := strings.Cut(remaining, "#"); found {
		remaining = before
		if cls, rest, ok := strings.Cut(id, "."); ok {
			id, remaining = cls, before+"."+rest
		}
		if id == "" {
			sheet.Warnings = append(sheet.Warnings, "empty id selector: "+selStr)
			return Selector{Raw: selStr}
		}
		sel.ID = id
	}
	if element, class, found := strings.Cut(remaining, "."); found {
		if strings.Contains(class, ".") {
			sheet.Warnings = append(sheet.Warnings, "unsupported compound class selector: "+selStr)
			p.log.Debug("Skipping compound class selector", zap.String("selector", selStr))
			return Selector{Raw: selStr}
		}
		sel.Element = strings.ToLower(element)
		sel.Class = class
	} else {
		sel.Element = strings.ToLower(remaining)
	}
	return sel
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
