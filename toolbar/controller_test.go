package toolbar

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"inlinebar/event"
)

func TestCheckSelection_ShowsToolbar(t *testing.T) {
	f := newFixture(t, nil)

	f.selectText(t, "rich")

	want := State{
		Visible: true,
		Mode:    "actions",
		X:       130,
		Y:       80,
		Active:  []string{"bold", "italic"},
	}
	if diff := cmp.Diff(want, f.c.State()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
	if f.h.probes != 1 || f.h.removed != 1 {
		t.Errorf("probes inserted = %d, removed = %d, want 1 and 1", f.h.probes, f.h.removed)
	}
	if f.h.cur == nil || f.h.cur.text != "rich" {
		t.Errorf("selection was not restored after measuring: %+v", f.h.cur)
	}
}

func TestCheckSelection_HidesOnBlank(t *testing.T) {
	f := newFixture(t, nil)

	f.selectText(t, "rich")
	if !f.c.Toolbar().Visible {
		t.Fatal("toolbar not shown")
	}

	f.h.selectNode(find(f.h.root, TextKind, "plain "), " \t\n")
	f.bus.Publish(event.New(event.KeyUp))
	if f.c.Toolbar().Visible {
		t.Error("toolbar visible for whitespace selection")
	}

	f.selectText(t, "rich")
	f.h.cur = nil
	f.bus.Publish(event.New(event.PointerUp))
	if f.c.Toolbar().Visible {
		t.Error("toolbar visible without selection")
	}
}

func TestCheckSelection_ReplacesActiveSet(t *testing.T) {
	f := newFixture(t, nil)

	f.selectText(t, "rich")
	f.selectText(t, "title")

	if diff := cmp.Diff([]string{"append-h3"}, f.c.State().Active); diff != "" {
		t.Errorf("active buttons mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckSelection_ExcludedStayHidden(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.ExcludedActions = []string{"B", "h4"}
	})

	f.selectText(t, "rich")

	st := f.c.State()
	if diff := cmp.Diff([]string{"append-h4", "bold"}, st.Hidden); diff != "" {
		t.Errorf("hidden buttons mismatch (-want +got):\n%s", diff)
	}
	b := f.c.Toolbar().Button("bold")
	if !b.Active || !b.Hidden {
		t.Errorf("bold active = %v, hidden = %v, want both true", b.Active, b.Hidden)
	}
}

func TestCheckSelection_PositionFailureKeepsPrevious(t *testing.T) {
	f := newFixture(t, nil)

	f.selectText(t, "rich")
	f.h.layoutErr = errors.New("not rendered")
	f.selectText(t, "title")

	st := f.c.State()
	if !st.Visible || st.X != 130 || st.Y != 80 {
		t.Errorf("state = %+v, want visible at previous position", st)
	}
	if f.h.probes != f.h.removed {
		t.Errorf("probe leaked: inserted %d, removed %d", f.h.probes, f.h.removed)
	}
}

func TestDispatch_InlineToggle(t *testing.T) {
	f := newFixture(t, nil)

	f.selectText(t, "plain ")
	f.clickButton("bold")
	if !f.c.Toolbar().Button("bold").Active {
		t.Error("bold not activated after successful command")
	}
	f.clickButton("bold")
	if f.c.Toolbar().Button("bold").Active {
		t.Error("bold still active after second command")
	}

	f.h.execErr = errors.New("refused")
	f.clickButton("italic")
	if f.c.Toolbar().Button("italic").Active {
		t.Error("italic toggled although command failed")
	}

	if diff := cmp.Diff([]string{"bold", "bold", "italic"}, f.h.calls); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatch_IgnoredWhileHidden(t *testing.T) {
	f := newFixture(t, nil)

	f.clickButton("bold")

	if len(f.h.calls) != 0 {
		t.Errorf("commands executed on hidden toolbar: %v", f.h.calls)
	}
}

func TestDispatch_IgnoredOnExcludedButton(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.ExcludedActions = []string{"b", "blockquote"}
	})

	f.selectText(t, "plain ")
	f.clickButton("bold")
	f.clickButton("append-blockquote")

	if len(f.h.calls) != 0 {
		t.Errorf("commands executed for excluded buttons: %v", f.h.calls)
	}
	if kind := f.h.root.children[0].children[0].kind; kind != "p" {
		t.Errorf("first block = %q, want p left as is", kind)
	}
	if b := f.c.Toolbar().Button("bold"); b.Active || !b.Hidden {
		t.Errorf("bold active = %v, hidden = %v, want inactive hidden", b.Active, b.Hidden)
	}
	if !f.c.State().Visible {
		t.Error("toolbar hidden by click on excluded button")
	}
}

func TestDispatch_BlockConvert(t *testing.T) {
	f := newFixture(t, nil)
	div := f.h.root.children[0]

	f.selectText(t, "plain ")
	f.clickButton("append-h3")

	h3 := div.children[0]
	if h3.kind != "h3" {
		t.Fatalf("first block = %q, want h3", h3.kind)
	}
	if h3.textContent() != "plain rich" {
		t.Errorf("converted content = %q, want %q", h3.textContent(), "plain rich")
	}
	if h3.attrs["contenteditable"] != "true" {
		t.Error("converted block is not editable")
	}
	if f.h.cur == nil || f.h.cur.anchor != h3.children[0] || f.h.cur.text != "plain " {
		t.Errorf("selection = %+v, want contents of first child of new block", f.h.cur)
	}
	if !f.c.Toolbar().Button("append-h3").Active {
		t.Error("append-h3 not toggled")
	}
	// repositioned after conversion
	if f.h.offsets != 2 {
		t.Errorf("layout queried %d times, want 2", f.h.offsets)
	}
}

func TestDispatch_BlockConvertSameKindMakesParagraph(t *testing.T) {
	f := newFixture(t, nil)
	div := f.h.root.children[0]

	f.selectText(t, "title")
	f.clickButton("append-h3")

	if got := div.children[1].kind; got != ParagraphKind {
		t.Errorf("converted block = %q, want %q", got, ParagraphKind)
	}
	// was active because selection sat in h3
	if f.c.Toolbar().Button("append-h3").Active {
		t.Error("append-h3 still active")
	}
}

func TestDispatch_BlockConvertInsideSpan(t *testing.T) {
	f := newFixture(t, nil)
	div := f.h.root.children[0]
	old := div.children[3]

	f.selectText(t, "spanned")
	f.clickButton("append-blockquote")

	got := div.children[3]
	if got == old || got.kind != ParagraphKind {
		t.Errorf("block = %q (replaced %v), want new %q", got.kind, got != old, ParagraphKind)
	}
	if got.textContent() != "spanned" {
		t.Errorf("content = %q, want %q", got.textContent(), "spanned")
	}
}

func TestDispatch_BlockConvertWithoutBlock(t *testing.T) {
	f := newFixture(t, nil)

	orphan := el("span", txt("orphan"))
	f.h.selectNode(orphan.children[0], "orphan")
	f.bus.Publish(event.New(event.PointerUp))
	f.clickButton("append-h4")

	if f.c.Toolbar().Button("append-h4").Active {
		t.Error("append-h4 toggled although there is no block to convert")
	}
	if orphan.children[0].kind != TextKind {
		t.Error("orphan content modified")
	}
}

func TestConvert_NoBlockAncestor(t *testing.T) {
	h := newFakeHost(el("body"))
	conv := NewBlockConverter(h, h, h, zaptest.NewLogger(t))

	_, err := conv.Convert(el("b", txt("x")).children[0], "h3")
	if !errors.Is(err, ErrNoBlockAncestor) {
		t.Errorf("Convert() error = %v, want ErrNoBlockAncestor", err)
	}
}

func TestAnchorForm_DismissalArmedAfterDelay(t *testing.T) {
	f := newFixture(t, nil)

	f.selectText(t, "rich")
	f.clickButton("anchor")

	st := f.c.State()
	if st.Mode != "anchorForm" || !st.KeepAlive || st.Armed {
		t.Fatalf("state after show = %+v", st)
	}
	if f.h.cur != nil {
		t.Error("document selection kept while input is focused")
	}

	// click which opened the form and early clicks do not dismiss
	f.click()
	f.bus.Publish(event.New(event.PointerUp))
	f.sched.Advance(299 * time.Millisecond)
	f.click()
	if !f.c.Toolbar().Visible || f.c.State().Armed {
		t.Fatalf("toolbar dismissed before delay elapsed: %+v", f.c.State())
	}

	f.sched.Advance(time.Millisecond)
	if !f.c.State().Armed {
		t.Fatal("dismissal not armed after delay")
	}
	if n := f.bus.Count(event.Click, event.Page); n != 1 {
		t.Fatalf("page click listeners = %d, want 1", n)
	}

	f.click(f.c.FormPath()...)
	f.click(f.c.InputPath()...)
	if !f.c.Toolbar().Visible {
		t.Fatal("click inside form dismissed toolbar")
	}

	f.click()
	want := State{Mode: "actions", X: 130, Y: 80, Active: []string{"anchor", "bold", "italic"}}
	if diff := cmp.Diff(want, f.c.State()); diff != "" {
		t.Errorf("state after dismissal mismatch (-want +got):\n%s", diff)
	}
	if n := f.bus.Count(event.Click, event.Page); n != 0 {
		t.Errorf("page click listeners = %d after dismissal, want 0", n)
	}
}

func TestAnchorForm_Commit(t *testing.T) {
	f := newFixture(t, nil)

	f.selectText(t, "rich")
	f.clickButton("anchor")

	input := event.New(event.Input, f.c.InputPath()...)
	input.Value = "https://example.com"
	f.bus.Publish(input)
	if f.c.Toolbar().Input.Value != "https://example.com" {
		t.Fatalf("input value = %q", f.c.Toolbar().Input.Value)
	}

	other := event.New(event.KeyDown, f.c.InputPath()...)
	other.Key = "a"
	f.bus.Publish(other)
	if len(f.h.calls) != 0 {
		t.Fatalf("non-Enter key committed form: %v", f.h.calls)
	}

	enter := event.New(event.KeyDown, f.c.InputPath()...)
	enter.Key = KeyEnter
	f.bus.Publish(enter)

	if !enter.DefaultPrevented() {
		t.Error("Enter default action not prevented")
	}
	if diff := cmp.Diff([]string{"createLink:https://example.com"}, f.h.calls); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"rich"}, f.h.execSel); diff != "" {
		t.Errorf("link created on wrong selection (-want +got):\n%s", diff)
	}

	st := f.c.State()
	if st.Mode != "actions" || st.KeepAlive || st.Input != "" || !st.Visible {
		t.Errorf("state after commit = %+v", st)
	}
	if f.sched.Pending() != 0 {
		t.Errorf("arm task still pending after commit")
	}
	f.sched.Advance(time.Second)
	if f.bus.Count(event.Click, event.Page) != 0 {
		t.Error("dismissal armed after form was closed")
	}
}

func TestAnchorForm_CommitFailureReturnsToActions(t *testing.T) {
	f := newFixture(t, nil)
	f.h.execErr = errors.New("empty link")

	f.selectText(t, "rich")
	f.clickButton("anchor")
	enter := event.New(event.KeyDown, f.c.InputPath()...)
	enter.Key = KeyEnter
	f.bus.Publish(enter)

	if diff := cmp.Diff([]string{"createLink"}, f.h.calls); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	if st := f.c.State(); st.Mode != "actions" || st.KeepAlive {
		t.Errorf("state after failed commit = %+v", st)
	}
}

func TestAnchorForm_Cancel(t *testing.T) {
	f := newFixture(t, nil)

	f.selectText(t, "rich")
	f.clickButton("anchor")
	f.sched.Advance(time.Second)
	input := event.New(event.Input, f.c.InputPath()...)
	input.Value = "discard me"
	f.bus.Publish(input)

	f.click(f.c.CancelPath()...)

	st := f.c.State()
	if st.Mode != "actions" || st.KeepAlive || st.Input != "" || st.Armed || !st.Visible {
		t.Errorf("state after cancel = %+v", st)
	}
	if f.h.cur == nil || f.h.cur.text != "rich" {
		t.Errorf("selection not restored: %+v", f.h.cur)
	}
	if len(f.h.calls) != 0 {
		t.Errorf("commands executed on cancel: %v", f.h.calls)
	}
}

func TestAnchorForm_ToggleBack(t *testing.T) {
	f := newFixture(t, nil)

	f.selectText(t, "rich")
	f.clickButton("anchor")
	f.clickButton("anchor")

	if st := f.c.State(); st.Mode != "actions" || st.KeepAlive {
		t.Errorf("state after second anchor click = %+v", st)
	}
	if f.h.cur == nil || f.h.cur.text != "rich" {
		t.Errorf("selection not restored: %+v", f.h.cur)
	}
	if f.sched.Pending() != 0 {
		t.Error("arm task left pending")
	}
}

func TestAnchorForm_RepeatedOpenSingleListener(t *testing.T) {
	f := newFixture(t, nil)

	f.selectText(t, "rich")
	for range 3 {
		f.clickButton("anchor") // open
		f.sched.Advance(100 * time.Millisecond)
		f.clickButton("anchor") // back to actions
	}
	f.clickButton("anchor")
	f.c.form.Show()
	f.c.form.Show()
	if f.sched.Pending() != 1 {
		t.Fatalf("pending arm tasks = %d, want 1", f.sched.Pending())
	}

	f.sched.Advance(time.Second)
	if n := f.bus.Count(event.Click, event.Page); n != 1 {
		t.Fatalf("page click listeners = %d, want 1", n)
	}

	// reopening while armed removes listener until new delay elapses
	f.c.form.Show()
	if n := f.bus.Count(event.Click, event.Page); n != 0 {
		t.Errorf("page click listeners = %d right after reopen, want 0", n)
	}
	f.sched.Advance(time.Second)
	if n := f.bus.Count(event.Click, event.Page); n != 1 {
		t.Errorf("page click listeners = %d, want 1", n)
	}
}

func TestAnchorForm_ReopenRestartsDelay(t *testing.T) {
	f := newFixture(t, nil)

	f.selectText(t, "rich")
	f.clickButton("anchor") // at 0ms, would arm at 300ms
	f.sched.Advance(200 * time.Millisecond)
	f.c.form.Show() // at 200ms, arms at 500ms

	f.sched.Advance(150 * time.Millisecond)
	if f.c.State().Armed {
		t.Errorf("armed at %v, delay must be timed from the last open", f.sched.Now())
	}
	f.sched.Advance(150 * time.Millisecond)
	if !f.c.State().Armed {
		t.Errorf("not armed at %v", f.sched.Now())
	}
	if n := f.bus.Count(event.Click, event.Page); n != 1 {
		t.Errorf("page click listeners = %d, want 1", n)
	}
}

func TestDispatch_Unlink(t *testing.T) {
	f := newFixture(t, nil)

	f.selectText(t, "link")
	f.clickButton("anchor")

	if diff := cmp.Diff([]string{"unlink"}, f.h.calls); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	if st := f.c.State(); st.Mode != "actions" || st.KeepAlive {
		t.Errorf("state after unlink = %+v", st)
	}
	if f.sched.Pending() != 0 {
		t.Error("anchor form scheduled arming on unlink")
	}
}

func TestKeepAlive_IgnoresSelectionChanges(t *testing.T) {
	f := newFixture(t, nil)

	f.selectText(t, "rich")
	f.clickButton("anchor")

	f.h.cur = nil
	f.bus.Publish(event.New(event.PointerUp))
	f.bus.Publish(event.New(event.KeyUp))

	if st := f.c.State(); !st.Visible || st.Mode != "anchorForm" {
		t.Errorf("state = %+v, want visible anchor form", st)
	}
}

func TestRunQueue_ReentrantSelectionChange(t *testing.T) {
	f := newFixture(t, nil)

	f.selectText(t, "rich")
	before := f.h.offsets
	during := -1
	f.h.onExec = func(Command) {
		// host reports selection change while command is being executed
		f.bus.Publish(event.New(event.PointerUp))
		during = f.h.offsets
	}
	f.clickButton("underline")

	if during != before {
		t.Errorf("selection check ran inside command handler")
	}
	if f.h.offsets != before+1 {
		t.Errorf("layout queried %d times after command, want %d", f.h.offsets-before, 1)
	}
}

func TestController_TimerScheduler(t *testing.T) {
	h := newFakeHost(el("body", withClass(el("p", txt("text")), "editable")))
	bus := event.NewBus(zaptest.NewLogger(t))
	sched := NewTimerScheduler()
	opts := DefaultOptions()
	opts.DismissDelay = 5 * time.Millisecond

	c := New(h.host(bus, sched), opts, zaptest.NewLogger(t))
	if err := c.Init(".editable"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer c.Close()

	h.selectNode(find(h.root, TextKind, "text"), "text")
	bus.Publish(event.New(event.PointerUp))
	bus.Publish(event.New(event.Click, c.ButtonPath("anchor")...))

	// timer fires but arming waits for this goroutine
	time.Sleep(4 * opts.DismissDelay)
	if c.State().Armed || bus.Count(event.Click, event.Page) != 0 {
		t.Fatal("dismissal armed outside of owner goroutine")
	}

	select {
	case fn := <-sched.Fired():
		fn()
	case <-time.After(5 * time.Second):
		t.Fatal("arm task never fired")
	}
	if !c.State().Armed || bus.Count(event.Click, event.Page) != 1 {
		t.Errorf("state = %+v, want armed dismissal", c.State())
	}

	bus.Publish(event.New(event.Click))
	if st := c.State(); st.Visible || st.Armed {
		t.Errorf("state after outside click = %+v", st)
	}
}

func TestController_DefaultScheduler(t *testing.T) {
	h := newFakeHost(el("body", withClass(el("p", txt("text")), "editable")))
	c := New(h.host(event.NewBus(nil), nil), DefaultOptions(), nil)
	defer c.Close()

	if _, ok := c.Scheduler().(*TimerScheduler); !ok {
		t.Errorf("default scheduler = %T, want *TimerScheduler", c.Scheduler())
	}
}

func TestController_Close(t *testing.T) {
	f := newFixture(t, nil)

	f.selectText(t, "rich")
	f.clickButton("anchor")
	f.sched.Advance(time.Second)
	if f.bus.Len() == 0 {
		t.Fatal("no subscriptions before close")
	}

	if err := f.c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if n := f.bus.Len(); n != 0 {
		t.Errorf("subscriptions left after close = %d", n)
	}
	if f.c.Toolbar().Visible {
		t.Error("toolbar visible after close")
	}
	if err := f.c.Init(".editable"); err == nil {
		t.Error("Init() after Close() succeeded")
	}
}

func TestController_SetupErrors(t *testing.T) {
	bus := event.NewBus(nil)
	newHost := func() *fakeHost {
		return newFakeHost(el("body", withClass(el("p", txt("x")), "editable")))
	}

	t.Run("missing layout", func(t *testing.T) {
		h := newHost().host(bus, nil)
		h.Layout = nil
		err := New(h, DefaultOptions(), nil).Init(".editable")
		if err == nil || !strings.Contains(err.Error(), "layout") {
			t.Errorf("Init() error = %v", err)
		}
	})

	t.Run("bad selector", func(t *testing.T) {
		c := New(newHost().host(bus, nil), DefaultOptions(), nil)
		c.InitElements("p").InitToolbar().BindSelect()
		if !errors.Is(c.Err(), errFakeSelector) {
			t.Errorf("Err() = %v, want selector error", c.Err())
		}
		if c.Toolbar() != nil {
			t.Error("phases after failure were executed")
		}
	})

	t.Run("bind before toolbar", func(t *testing.T) {
		c := New(newHost().host(bus, nil), DefaultOptions(), nil)
		err := c.InitElements(".editable").BindButtons().Err()
		if err == nil || !strings.Contains(err.Error(), "not initialized") {
			t.Errorf("Err() = %v", err)
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Buttons = append(opts.Buttons, ButtonSpec{Action: "blink", Tag: "blink"})
		err := New(newHost().host(bus, nil), opts, nil).Init(".editable")
		if !errors.Is(err, ErrUnknownAction) {
			t.Errorf("Init() error = %v, want ErrUnknownAction", err)
		}
	})

	t.Run("duplicate button", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Buttons = append(opts.Buttons, opts.Buttons[0])
		err := New(newHost().host(bus, nil), opts, nil).Init(".editable")
		if err == nil || !strings.Contains(err.Error(), "duplicate") {
			t.Errorf("Init() error = %v", err)
		}
	})

	t.Run("no buttons", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Buttons = nil
		if err := New(newHost().host(bus, nil), opts, nil).Init(".editable"); err == nil {
			t.Error("Init() succeeded without buttons")
		}
	})

	t.Run("no matches", func(t *testing.T) {
		c := New(newHost().host(bus, nil), DefaultOptions(), nil)
		if err := c.Init(".missing"); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		defer c.Close()
		if len(c.Editable()) != 0 {
			t.Errorf("Editable() = %d elements, want 0", len(c.Editable()))
		}
	})
}

func TestController_InitElementsActivates(t *testing.T) {
	f := newFixture(t, nil)

	if len(f.c.Editable()) != 1 {
		t.Fatalf("Editable() = %d elements, want 1", len(f.c.Editable()))
	}
	if f.h.root.children[0].attrs["contenteditable"] != "true" {
		t.Error("editable region not activated")
	}

	tb := f.c.Toolbar()
	f.c.InitToolbar()
	if f.c.Toolbar() != tb {
		t.Error("toolbar recreated")
	}
}

func TestController_SharedBus(t *testing.T) {
	f := newFixture(t, nil)

	opts := DefaultOptions()
	opts.ID = "second"
	second := New(f.h.host(f.bus, f.sched), opts, zaptest.NewLogger(t))
	if err := second.Init(".editable"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer second.Close()

	f.selectText(t, "rich")
	f.clickButton("anchor")

	if f.c.State().Mode != "anchorForm" {
		t.Error("first toolbar did not open anchor form")
	}
	if second.State().Mode != "actions" {
		t.Error("click on first toolbar reached second one")
	}
}
