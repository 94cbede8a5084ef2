package toolbar

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"inlinebar/event"
)

// Names of toolbar parts, used as event targets after controller ID prefix.
const (
	PartToolbar = "toolbar"
	PartActions = "toolbar-actions"
	PartForm    = "toolbar-form-anchor"
	PartInput   = "anchor-input"
	PartCancel  = "anchor-cancel"
	PartButton  = "button"
)

// KeyEnter is key name which commits anchor form.
const KeyEnter = "Enter"

// Controller wires toolbar to host events. Set up is done in phases which
// could be chained, first failure is latched and available from Err:
//
//	c := toolbar.New(host, opts, log)
//	c.InitElements(".editable").InitToolbar().BindSelect().BindButtons().BindAnchorForm()
//	if err := c.Err(); err != nil {
//		...
//	}
type Controller struct {
	host Host
	opts Options
	log  *zap.Logger

	tb         *Toolbar
	resolver   *Resolver
	positioner *Positioner
	dispatcher *Dispatcher
	form       *AnchorForm

	queue    runQueue
	subs     []*event.Subscription
	editable []Node
	closed   bool
	err      error
}

// New creates controller. Host scheduler defaults to TimerScheduler, its
// fired callbacks have to be run by the embedder, see Scheduler.
func New(host Host, opts Options, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if host.Scheduler == nil {
		host.Scheduler = NewTimerScheduler()
	}
	if opts.ID == "" {
		opts.ID = DefaultOptions().ID
	}
	c := &Controller{host: host, opts: opts, log: log.Named("toolbar")}
	if err := host.validate(); err != nil {
		c.err = fmt.Errorf("unable to create toolbar controller: %w", err)
	}
	return c
}

// Init runs complete set up for elements matching selector.
func (c *Controller) Init(selector string) error {
	return c.InitElements(selector).InitToolbar().BindSelect().BindButtons().BindAnchorForm().Err()
}

// Err returns first set up error.
func (c *Controller) Err() error {
	return c.err
}

func (c *Controller) fail(err error) *Controller {
	if c.err == nil {
		c.err = err
	}
	return c
}

func (c *Controller) ready(phase string) bool {
	if c.err != nil {
		return false
	}
	if c.closed {
		c.fail(fmt.Errorf("%s: controller is closed", phase))
		return false
	}
	return true
}

// InitElements marks every element matching selector as editable.
func (c *Controller) InitElements(selector string) *Controller {
	if !c.ready("init elements") {
		return c
	}

	nodes, err := c.host.Doc.Query(selector)
	if err != nil {
		return c.fail(fmt.Errorf("unable to find editable elements: %w", err))
	}
	for _, n := range nodes {
		if err := c.host.Doc.SetAttr(n, "contenteditable", "true"); err != nil {
			return c.fail(fmt.Errorf("unable to activate '%s': %w", n.Kind(), err))
		}
	}
	c.editable = append(c.editable, nodes...)

	if len(nodes) == 0 {
		c.log.Warn("No editable elements found", zap.String("selector", selector))
	} else {
		c.log.Debug("Editable elements activated", zap.String("selector", selector), zap.Int("count", len(nodes)))
	}
	return c
}

// InitToolbar creates toolbar and its buttons. Calling it again keeps
// already created toolbar.
func (c *Controller) InitToolbar() *Controller {
	if !c.ready("init toolbar") {
		return c
	}
	if c.tb != nil {
		return c
	}

	tb, err := newToolbar(c.opts)
	if err != nil {
		return c.fail(err)
	}
	c.tb = tb

	h := c.host
	c.resolver = NewResolver(h.Styles)
	c.positioner = NewPositioner(h.Doc, h.Sel, h.Layout, c.opts.DiffLeft, c.opts.DiffTop)
	c.form = newAnchorForm(tb, h, c.opts.DismissDelay, c.queue.Do, c.log.Named("anchor"))
	c.dispatcher = &Dispatcher{
		tb:      tb,
		sel:     h.Sel,
		cmd:     h.Cmd,
		conv:    NewBlockConverter(h.Doc, h.Sel, h.Styles, c.log),
		form:    c.form,
		refresh: c.reposition,
		log:     c.log,
	}
	return c
}

func (c *Controller) subscribe(typ event.Type, target string, h event.Handler) error {
	s, err := c.host.Events.Subscribe(typ, target, h)
	if err != nil {
		return err
	}
	c.subs = append(c.subs, s)
	return nil
}

func (c *Controller) needToolbar(phase string) bool {
	if !c.ready(phase) {
		return false
	}
	if c.tb == nil {
		c.fail(fmt.Errorf("%s: toolbar is not initialized", phase))
		return false
	}
	return true
}

// BindSelect checks selection on every pointer and key release.
func (c *Controller) BindSelect() *Controller {
	if !c.needToolbar("bind select") {
		return c
	}
	check := func(*event.Event) { c.queue.Do(c.CheckSelection) }
	for _, typ := range []event.Type{event.PointerUp, event.KeyUp} {
		if err := c.subscribe(typ, event.Page, check); err != nil {
			return c.fail(fmt.Errorf("unable to bind selection check: %w", err))
		}
	}
	return c
}

// BindButtons dispatches clicks on toolbar buttons.
func (c *Controller) BindButtons() *Controller {
	if !c.needToolbar("bind buttons") {
		return c
	}
	for _, b := range c.tb.Buttons {
		if err := c.subscribe(event.Click, c.ButtonTarget(b.ActionID), func(*event.Event) {
			c.queue.Do(func() { c.click(b) })
		}); err != nil {
			return c.fail(fmt.Errorf("unable to bind button '%s': %w", b.ActionID, err))
		}
	}
	return c
}

// BindAnchorForm binds anchor form input and controls.
func (c *Controller) BindAnchorForm() *Controller {
	if !c.needToolbar("bind anchor form") {
		return c
	}

	bindings := []struct {
		typ    event.Type
		target string
		h      event.Handler
	}{
		// clicks inside form never reach page and never dismiss toolbar
		{event.Click, c.Target(PartForm), func(ev *event.Event) { ev.StopPropagation() }},
		{event.Click, c.Target(PartCancel), func(*event.Event) { c.queue.Do(c.form.Cancel) }},
		{event.Click, c.Target(PartInput), func(*event.Event) {
			c.queue.Do(func() { c.tb.Input.Focused = true })
		}},
		{event.Input, c.Target(PartInput), func(ev *event.Event) {
			value := ev.Value
			c.queue.Do(func() {
				if c.tb.Mode == ModeAnchorForm {
					c.tb.Input.Value = value
				}
			})
		}},
		{event.KeyDown, c.Target(PartInput), func(ev *event.Event) {
			if ev.Key != KeyEnter {
				return
			}
			ev.PreventDefault()
			c.queue.Do(func() {
				if c.tb.Mode == ModeAnchorForm {
					c.form.Commit(c.tb.Input.Value)
				}
			})
		}},
	}
	for _, b := range bindings {
		if err := c.subscribe(b.typ, b.target, b.h); err != nil {
			return c.fail(fmt.Errorf("unable to bind anchor form: %w", err))
		}
	}
	return c
}

func (c *Controller) click(b *Button) {
	if !c.tb.Visible {
		c.log.Debug("Click on hidden toolbar ignored", zap.String("action", b.ActionID))
		return
	}
	if b.Hidden {
		c.log.Debug("Click on excluded button ignored", zap.String("action", b.ActionID))
		return
	}
	if err := c.dispatcher.Dispatch(b); err != nil {
		if errors.Is(err, ErrNoBlockAncestor) {
			c.log.Error("Unable to perform action, document has no block elements", zap.String("action", b.ActionID), zap.Error(err))
			return
		}
		c.log.Warn("Unable to perform action", zap.String("action", b.ActionID), zap.Error(err))
	}
}

// CheckSelection shows toolbar next to non-empty selection and hides it
// otherwise. Nothing changes while toolbar is kept alive by anchor form.
func (c *Controller) CheckSelection() {
	if c.tb == nil || c.closed || c.tb.KeepAlive {
		return
	}

	cur := c.host.Sel.Current()
	if cur == nil || strings.TrimSpace(cur.Text()) == "" {
		if c.tb.Visible {
			c.log.Debug("Toolbar hidden")
		}
		c.tb.Visible = false
		return
	}

	c.reposition()

	kinds, err := c.resolver.Resolve(cur.AnchorNode())
	if err != nil {
		c.log.Warn("Unable to resolve selection format", zap.Error(err))
	}
	c.tb.setActive(kinds)
	c.tb.Visible = true
	c.form.ShowActions()

	c.log.Debug("Toolbar shown", zap.Int("x", c.tb.X), zap.Int("y", c.tb.Y), zap.Strings("format", kinds))
}

func (c *Controller) reposition() {
	x, y, err := c.positioner.Position()
	if err != nil {
		c.log.Warn("Unable to position toolbar", zap.Error(err))
		return
	}
	c.tb.X, c.tb.Y = x, y
}

// Toolbar returns toolbar state, nil before InitToolbar.
func (c *Controller) Toolbar() *Toolbar {
	return c.tb
}

// Scheduler returns scheduler controller uses for delayed work.
func (c *Controller) Scheduler() Scheduler {
	return c.host.Scheduler
}

// Editable returns elements activated by InitElements.
func (c *Controller) Editable() []Node {
	return c.editable
}

// State returns snapshot of toolbar.
func (c *Controller) State() State {
	if c.tb == nil {
		return State{}
	}
	st := c.tb.state()
	st.Armed = c.form.Armed()
	return st
}

// Target returns event target name of toolbar part.
func (c *Controller) Target(part string) string {
	return c.opts.ID + "-" + part
}

// ButtonTarget returns event target name of button.
func (c *Controller) ButtonTarget(actionID string) string {
	return c.Target(PartButton) + "-" + actionID
}

// ButtonPath returns propagation path of click on button.
func (c *Controller) ButtonPath(actionID string) []string {
	return []string{c.ButtonTarget(actionID), c.Target(PartActions), c.Target(PartToolbar)}
}

// FormPath returns propagation path of click on anchor form background.
func (c *Controller) FormPath() []string {
	return []string{c.Target(PartForm), c.Target(PartToolbar)}
}

// InputPath returns propagation path of events on anchor input.
func (c *Controller) InputPath() []string {
	return []string{c.Target(PartInput), c.Target(PartForm), c.Target(PartToolbar)}
}

// CancelPath returns propagation path of click on anchor form cancel control.
func (c *Controller) CancelPath() []string {
	return []string{c.Target(PartCancel), c.Target(PartForm), c.Target(PartToolbar)}
}

// Close removes every subscription controller made, including armed anchor
// form listener, and cancels pending tasks.
func (c *Controller) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var err error
	for _, s := range c.subs {
		err = multierr.Append(err, s.Cancel())
	}
	c.subs = nil
	if c.form != nil {
		c.form.close()
	}
	if c.tb != nil {
		c.tb.Visible = false
		c.tb.KeepAlive = false
	}
	return err
}
