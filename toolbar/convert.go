package toolbar

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	// ParagraphKind is used when conversion would be a no-op or when
	// selection sits in a generic container.
	ParagraphKind = "p"
	genericKind   = "span"
)

// BlockConverter replaces block enclosing selection with element of another
// kind keeping its content.
type BlockConverter struct {
	doc    Document
	sel    Selections
	styles Styles
	log    *zap.Logger
}

func NewBlockConverter(doc Document, sel Selections, styles Styles, log *zap.Logger) *BlockConverter {
	return &BlockConverter{doc: doc, sel: sel, styles: styles, log: log}
}

// Convert replaces nearest block ancestor of anchor with new element of kind
// and selects contents of its first child. Converting a block to its own kind
// turns it into a paragraph.
func (c *BlockConverter) Convert(anchor Node, kind string) (Node, error) {
	start := anchorElement(anchor)
	target, err := walkToBlock(start, c.styles, nil)
	if err != nil {
		return nil, err
	}

	resolved := strings.ToLower(kind)
	if strings.EqualFold(target.Kind(), resolved) || start.Kind() == genericKind || target.Kind() == genericKind {
		resolved = ParagraphKind
	}

	el, err := c.doc.CreateElement(resolved)
	if err != nil {
		return nil, fmt.Errorf("unable to create '%s': %w", resolved, err)
	}
	if err := c.doc.CopyContents(target, el); err != nil {
		return nil, fmt.Errorf("unable to copy '%s' content: %w", target.Kind(), err)
	}
	if err := c.doc.SetAttr(el, "contenteditable", "true"); err != nil {
		return nil, err
	}
	if err := c.doc.Replace(target, el); err != nil {
		return nil, fmt.Errorf("unable to replace '%s' with '%s': %w", target.Kind(), resolved, err)
	}

	c.log.Debug("Block converted", zap.String("from", target.Kind()), zap.String("to", resolved))

	first := c.doc.FirstChild(el)
	if first == nil {
		first = el
	}
	if err := c.sel.SelectContents(first); err != nil {
		return el, fmt.Errorf("unable to select converted content: %w", err)
	}
	return el, nil
}
