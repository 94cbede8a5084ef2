package toolbar

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"inlinebar/event"
)

// fakeNode is a tiny in-memory tree used instead of a real document.
type fakeNode struct {
	kind     string
	text     string
	attrs    map[string]string
	parent   *fakeNode
	children []*fakeNode
}

func (n *fakeNode) Kind() string { return n.kind }

func (n *fakeNode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *fakeNode) textContent() string {
	if n.kind == TextKind {
		return n.text
	}
	var sb strings.Builder
	for _, c := range n.children {
		sb.WriteString(c.textContent())
	}
	return sb.String()
}

func (n *fakeNode) clone() *fakeNode {
	out := &fakeNode{kind: n.kind, text: n.text}
	if n.attrs != nil {
		out.attrs = make(map[string]string, len(n.attrs))
		for k, v := range n.attrs {
			out.attrs[k] = v
		}
	}
	for _, c := range n.children {
		cc := c.clone()
		cc.parent = out
		out.children = append(out.children, cc)
	}
	return out
}

func el(kind string, children ...*fakeNode) *fakeNode {
	n := &fakeNode{kind: kind}
	for _, c := range children {
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

func withClass(n *fakeNode, class string) *fakeNode {
	if n.attrs == nil {
		n.attrs = map[string]string{}
	}
	n.attrs["class"] = class
	return n
}

func txt(s string) *fakeNode {
	return &fakeNode{kind: TextKind, text: s}
}

// find returns first node in document order whose text content equals s.
func find(root *fakeNode, kind, s string) *fakeNode {
	if root.kind == kind && root.textContent() == s {
		return root
	}
	for _, c := range root.children {
		if n := find(c, kind, s); n != nil {
			return n
		}
	}
	return nil
}

type fakeSelection struct {
	anchor *fakeNode
	text   string
}

func (s *fakeSelection) Text() string     { return s.text }
func (s *fakeSelection) AnchorNode() Node { return s.anchor }
func (s *fakeSelection) Collapsed() bool  { return s.text == "" }

func (s *fakeSelection) clone() *fakeSelection {
	cp := *s
	return &cp
}

// fakeHost implements every host capability over fakeNode tree.
type fakeHost struct {
	root   *fakeNode
	blocks map[string]bool
	cur    *fakeSelection

	x, y      int
	layoutErr error
	offsets   int
	probes    int
	removed   int

	execErr error
	calls   []string
	// selection text seen by Exec
	execSel []string
	onExec  func(cmd Command)
}

func newFakeHost(root *fakeNode) *fakeHost {
	return &fakeHost{
		root: root,
		blocks: map[string]bool{
			"body": true, "div": true, "p": true, "h3": true, "h4": true,
			"blockquote": true, "li": true,
		},
		x: 100, y: 50,
	}
}

func (h *fakeHost) host(bus *event.Bus, sched Scheduler) Host {
	return Host{Doc: h, Styles: h, Sel: h, Layout: h, Cmd: h, Scheduler: sched, Events: bus}
}

func (h *fakeHost) selectNode(n *fakeNode, text string) {
	h.cur = &fakeSelection{anchor: n, text: text}
}

var errFakeSelector = errors.New("bad selector")

func (h *fakeHost) Query(selector string) ([]Node, error) {
	if !strings.HasPrefix(selector, ".") {
		return nil, errFakeSelector
	}
	class := strings.TrimPrefix(selector, ".")
	var out []Node
	var walk func(n *fakeNode)
	walk = func(n *fakeNode) {
		if n.attrs["class"] == class {
			out = append(out, n)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(h.root)
	return out, nil
}

func (h *fakeHost) CreateElement(kind string) (Node, error) {
	if kind == "" {
		return nil, errors.New("empty kind")
	}
	return &fakeNode{kind: kind}, nil
}

func (h *fakeHost) CopyContents(from, to Node) error {
	src, dst := from.(*fakeNode), to.(*fakeNode)
	for _, c := range src.children {
		cc := c.clone()
		cc.parent = dst
		dst.children = append(dst.children, cc)
	}
	return nil
}

func (h *fakeHost) SetAttr(n Node, name, value string) error {
	fn := n.(*fakeNode)
	if fn.attrs == nil {
		fn.attrs = map[string]string{}
	}
	fn.attrs[name] = value
	return nil
}

func (h *fakeHost) Replace(old, repl Node) error {
	o, r := old.(*fakeNode), repl.(*fakeNode)
	p := o.parent
	if p == nil {
		return errors.New("no parent")
	}
	for i, c := range p.children {
		if c == o {
			p.children[i] = r
			r.parent = p
			o.parent = nil
			return nil
		}
	}
	return errors.New("not a child")
}

func (h *fakeHost) Remove(n Node) error {
	fn := n.(*fakeNode)
	p := fn.parent
	if p == nil {
		return errors.New("no parent")
	}
	for i, c := range p.children {
		if c == fn {
			p.children = append(p.children[:i], p.children[i+1:]...)
			fn.parent = nil
			h.removed++
			return nil
		}
	}
	return errors.New("not a child")
}

func (h *fakeHost) FirstChild(n Node) Node {
	fn := n.(*fakeNode)
	if len(fn.children) == 0 {
		return nil
	}
	return fn.children[0]
}

func (h *fakeHost) IsBlockKind(kind string) bool { return h.blocks[kind] }

func (h *fakeHost) Current() Selection {
	if h.cur == nil {
		return nil
	}
	return h.cur
}

func (h *fakeHost) Save() Saved {
	if h.cur == nil {
		return nil
	}
	return h.cur.clone()
}

func (h *fakeHost) Restore(s Saved) {
	if s == nil {
		h.cur = nil
		return
	}
	h.cur = s.(*fakeSelection).clone()
}

func (h *fakeHost) Clear() { h.cur = nil }

func (h *fakeHost) SelectContents(n Node) error {
	fn := n.(*fakeNode)
	h.cur = &fakeSelection{anchor: fn, text: fn.textContent()}
	return nil
}

func (h *fakeHost) InsertProbe() (Node, error) {
	if h.cur == nil {
		return nil, ErrNoSelection
	}
	parent, ok := anchorElement(h.cur.anchor).(*fakeNode)
	if !ok {
		return nil, errors.New("selection is not attached")
	}
	probe := el("span")
	probe.parent = parent
	parent.children = append([]*fakeNode{probe}, parent.children...)
	h.probes++
	// probing moves the live selection, Restore must bring it back
	h.cur = &fakeSelection{anchor: probe}
	return probe, nil
}

func (h *fakeHost) Offset(Node) (int, int, error) {
	h.offsets++
	if h.layoutErr != nil {
		return 0, 0, h.layoutErr
	}
	return h.x, h.y, nil
}

func (h *fakeHost) Exec(cmd Command, arg string) error {
	call := cmd.String()
	if arg != "" {
		call += ":" + arg
	}
	h.calls = append(h.calls, call)
	if h.cur != nil {
		h.execSel = append(h.execSel, h.cur.text)
	} else {
		h.execSel = append(h.execSel, "")
	}
	if h.onExec != nil {
		h.onExec(cmd)
	}
	return h.execErr
}

// fixture is a controller initialized over a small document:
//
//	<body><div class="editable"><p>plain <b><i>rich</i></b></p><h3>title</h3>
//	<p><a>link</a></p><p><span>spanned</span></p></div></body>
type fixture struct {
	h     *fakeHost
	bus   *event.Bus
	sched *ManualScheduler
	c     *Controller
}

func newFixture(t *testing.T, mod func(*Options)) *fixture {
	t.Helper()

	root := el("body", withClass(el("div",
		el("p", txt("plain "), el("b", el("i", txt("rich")))),
		el("h3", txt("title")),
		el("p", el("a", txt("link"))),
		el("p", el("span", txt("spanned"))),
	), "editable"))

	f := &fixture{
		h:     newFakeHost(root),
		bus:   event.NewBus(zaptest.NewLogger(t)),
		sched: NewManualScheduler(),
	}
	opts := DefaultOptions()
	if mod != nil {
		mod(&opts)
	}
	f.c = New(f.h.host(f.bus, f.sched), opts, zaptest.NewLogger(t))
	if err := f.c.Init(".editable"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() {
		if err := f.c.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return f
}

// selectText selects text node with content s and releases pointer.
func (f *fixture) selectText(t *testing.T, s string) {
	t.Helper()
	n := find(f.h.root, TextKind, s)
	if n == nil {
		t.Fatalf("no text node %q", s)
	}
	f.h.selectNode(n, s)
	f.bus.Publish(event.New(event.PointerUp))
}

func (f *fixture) click(path ...string) {
	f.bus.Publish(event.New(event.Click, path...))
}

func (f *fixture) clickButton(id string) {
	f.click(f.c.ButtonPath(id)...)
}
