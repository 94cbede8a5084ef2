package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"inlinebar/css"
	"inlinebar/toolbar"
)

var (
	ErrBadSelector        = errors.New("bad selector")
	ErrUnsupportedCommand = errors.New("unsupported command")
	ErrEmptyLink          = errors.New("empty link address")
	ErrForeignNode        = errors.New("node does not belong to document")
	ErrDetached           = errors.New("node is not attached to document")
)

var (
	_ toolbar.Node       = Node{}
	_ toolbar.Document   = (*Document)(nil)
	_ toolbar.Styles     = (*Document)(nil)
	_ toolbar.Selections = (*Document)(nil)
	_ toolbar.Commands   = (*Document)(nil)
)

// Kind reported for tokens which are neither elements nor text.
const otherKind = "#other"

// Node wraps document token so it could be handed to toolbar.
type Node struct {
	tok etree.Token
}

func wrap(t etree.Token) toolbar.Node {
	if t == nil {
		return nil
	}
	if e, ok := t.(*etree.Element); ok && e == nil {
		return nil
	}
	return Node{tok: t}
}

// Token returns wrapped document token.
func (n Node) Token() etree.Token {
	return n.tok
}

// Element returns wrapped element, nil for other tokens.
func (n Node) Element() *etree.Element {
	e, _ := n.tok.(*etree.Element)
	return e
}

func (n Node) Kind() string {
	switch t := n.tok.(type) {
	case *etree.Element:
		return strings.ToLower(t.Tag)
	case *etree.CharData:
		return toolbar.TextKind
	}
	return otherKind
}

// Parent returns nil for root element.
func (n Node) Parent() toolbar.Node {
	p := n.tok.Parent()
	if p == nil || isDocument(p) {
		return nil
	}
	return Node{tok: p}
}

func (n Node) String() string {
	switch t := n.tok.(type) {
	case *etree.Element:
		return "<" + strings.ToLower(t.Tag) + ">"
	case *etree.CharData:
		return fmt.Sprintf("%q", t.Data)
	}
	return otherKind
}

// isDocument reports whether e is invisible document node holding root
// element, processing instructions and top level comments.
func isDocument(e *etree.Element) bool {
	return e.Tag == "" && e.Parent() == nil
}

func tokenOf(n toolbar.Node) (etree.Token, error) {
	dn, ok := n.(Node)
	if !ok || dn.tok == nil {
		return nil, fmt.Errorf("%T: %w", n, ErrForeignNode)
	}
	return dn.tok, nil
}

func elementOf(n toolbar.Node) (*etree.Element, error) {
	t, err := tokenOf(n)
	if err != nil {
		return nil, err
	}
	e, ok := t.(*etree.Element)
	if !ok {
		return nil, fmt.Errorf("%s is not an element: %w", n.Kind(), ErrForeignNode)
	}
	return e, nil
}

// Document is editable XHTML document. It implements every toolbar host
// capability except layout and scheduling.
type Document struct {
	doc    *etree.Document
	styles *css.Defaults
	parser *css.Parser
	log    *zap.Logger

	sel    *Range
	probes map[*etree.Element]bool
}

// New wraps already parsed document. Nil styles means user agent defaults.
func New(doc *etree.Document, styles *css.Defaults, log *zap.Logger) *Document {
	if log == nil {
		log = zap.NewNop()
	}
	if styles == nil {
		styles = css.NewDefaults(log)
	}
	return &Document{
		doc:    doc,
		styles: styles,
		parser: css.NewParser(log),
		log:    log.Named("dom"),
		probes: make(map[*etree.Element]bool),
	}
}

// Load reads XHTML document. Legacy encodings declared in XML prolog are
// converted and common HTML named entities are accepted.
func Load(r io.Reader, styles *css.Defaults, log *zap.Logger) (*Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Entity:        htmlEntities,
		Permissive:    true,
	}
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("unable to read document: %w", err)
	}
	if doc.Root() == nil {
		return nil, errors.New("document has no root element")
	}
	return New(doc, styles, log), nil
}

// Etree returns underlying document.
func (d *Document) Etree() *etree.Document {
	return d.doc
}

// Root returns root element.
func (d *Document) Root() *etree.Element {
	return d.doc.Root()
}

// Body returns body element or root when there is none.
func (d *Document) Body() *etree.Element {
	root := d.doc.Root()
	if root == nil {
		return nil
	}
	if strings.EqualFold(root.Tag, "body") {
		return root
	}
	for _, e := range root.ChildElements() {
		if strings.EqualFold(e.Tag, "body") {
			return e
		}
	}
	return root
}

// Title returns text of document title, empty when there is none.
func (d *Document) Title() string {
	root := d.doc.Root()
	if root == nil {
		return ""
	}
	for _, head := range root.ChildElements() {
		if !strings.EqualFold(head.Tag, "head") {
			continue
		}
		for _, e := range head.ChildElements() {
			if strings.EqualFold(e.Tag, "title") {
				return strings.TrimSpace(textContent(e))
			}
		}
	}
	return ""
}

// WriteTo serializes document.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	return d.doc.WriteTo(w)
}

// Display returns default display of element kind.
func (d *Document) Display(kind string) string {
	return d.styles.Display(kind)
}

func (d *Document) IsBlockKind(kind string) bool {
	return d.styles.IsBlockKind(kind)
}

func (d *Document) CreateElement(kind string) (toolbar.Node, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" || strings.ContainsAny(kind, " \t\r\n<>/=\"'") {
		return nil, fmt.Errorf("bad element kind '%s'", kind)
	}
	return Node{tok: etree.NewElement(kind)}, nil
}

// CopyContents appends deep copies of children of from to to.
func (d *Document) CopyContents(from, to toolbar.Node) error {
	src, err := elementOf(from)
	if err != nil {
		return err
	}
	dst, err := elementOf(to)
	if err != nil {
		return err
	}
	for _, t := range src.Child {
		if c := copyToken(t); c != nil {
			dst.AddChild(c)
		}
	}
	return nil
}

func copyToken(t etree.Token) etree.Token {
	switch v := t.(type) {
	case *etree.Element:
		return v.Copy()
	case *etree.CharData:
		if v.IsCData() {
			return etree.NewCData(v.Data)
		}
		return etree.NewText(v.Data)
	case *etree.Comment:
		return etree.NewComment(v.Data)
	case *etree.ProcInst:
		return etree.NewProcInst(v.Target, v.Inst)
	case *etree.Directive:
		return etree.NewDirective(v.Data)
	}
	return nil
}

func (d *Document) SetAttr(n toolbar.Node, name, value string) error {
	e, err := elementOf(n)
	if err != nil {
		return err
	}
	e.CreateAttr(name, value)
	return nil
}

// Replace puts repl at the place of old. Selection points inside old are
// lost.
func (d *Document) Replace(old, repl toolbar.Node) error {
	o, err := tokenOf(old)
	if err != nil {
		return err
	}
	r, err := tokenOf(repl)
	if err != nil {
		return err
	}
	parent := o.Parent()
	if parent == nil {
		return fmt.Errorf("%s: %w", old.Kind(), ErrDetached)
	}
	idx := o.Index()
	parent.RemoveChildAt(idx)
	parent.InsertChildAt(idx, r)
	return nil
}

// Remove detaches node. Text split by probe insertion is merged back.
func (d *Document) Remove(n toolbar.Node) error {
	t, err := tokenOf(n)
	if err != nil {
		return err
	}
	parent := t.Parent()
	if parent == nil {
		return fmt.Errorf("%s: %w", n.Kind(), ErrDetached)
	}
	idx := t.Index()
	parent.RemoveChildAt(idx)

	e, ok := t.(*etree.Element)
	if !ok {
		return nil
	}
	split, probe := d.probes[e]
	delete(d.probes, e)
	if !probe || !split || idx == 0 || idx >= len(parent.Child) {
		return nil
	}
	prev, pok := parent.Child[idx-1].(*etree.CharData)
	next, nok := parent.Child[idx].(*etree.CharData)
	if pok && nok {
		prev.Data += next.Data
		parent.RemoveChildAt(idx)
	}
	return nil
}

func (d *Document) FirstChild(n toolbar.Node) toolbar.Node {
	e, err := elementOf(n)
	if err != nil || len(e.Child) == 0 {
		return nil
	}
	return wrap(e.Child[0])
}

// textContent returns concatenated text of all descendants.
func textContent(t etree.Token) string {
	var sb strings.Builder
	var walk func(t etree.Token)
	walk = func(t etree.Token) {
		switch v := t.(type) {
		case *etree.CharData:
			sb.WriteString(v.Data)
		case *etree.Element:
			for _, c := range v.Child {
				walk(c)
			}
		}
	}
	walk(t)
	return sb.String()
}

// TextContent returns concatenated text of n and its descendants.
func TextContent(n toolbar.Node) string {
	t, err := tokenOf(n)
	if err != nil {
		return ""
	}
	return textContent(t)
}
