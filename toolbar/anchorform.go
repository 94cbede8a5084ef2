package toolbar

import (
	"time"

	"go.uber.org/zap"

	"inlinebar/event"
)

// AnchorForm drives link entry: it keeps selection snapshot while user types
// link address and dismisses toolbar on clicks outside of it.
type AnchorForm struct {
	tb     *Toolbar
	sel    Selections
	cmd    Commands
	events *event.Bus
	delay  time.Duration
	post   func(func())
	log    *zap.Logger

	arm      oneShot
	listener *event.Subscription
	saved    Saved
}

func newAnchorForm(tb *Toolbar, host Host, delay time.Duration, post func(func()), log *zap.Logger) *AnchorForm {
	return &AnchorForm{
		tb:     tb,
		sel:    host.Sel,
		cmd:    host.Cmd,
		events: host.Events,
		delay:  delay,
		post:   post,
		log:    log,
		arm:    oneShot{sched: host.Scheduler, post: post},
	}
}

// Show switches toolbar to anchor form. Page click listener is armed after
// delay so the click which opened the form does not close it.
func (f *AnchorForm) Show() {
	f.saved = f.sel.Save()
	f.tb.Mode = ModeAnchorForm
	f.tb.KeepAlive = true
	f.tb.Input.Value = ""
	f.tb.Input.Focused = true
	f.sel.Clear()

	f.disarm()
	f.arm.Schedule(f.delay, f.armListener)
	f.log.Debug("Anchor form shown", zap.Duration("dismiss delay", f.delay))
}

func (f *AnchorForm) armListener() {
	s, err := f.events.Subscribe(event.Click, event.Page, func(ev *event.Event) {
		f.post(func() { f.DismissIfOutside(ev) })
	})
	if err != nil {
		f.log.Warn("Unable to arm anchor form dismissal", zap.Error(err))
		return
	}
	f.listener = s
	f.log.Debug("Anchor form dismissal armed")
}

// disarm cancels pending arm task and removes armed listener.
func (f *AnchorForm) disarm() {
	f.arm.Cancel()
	if f.listener != nil {
		if err := f.listener.Cancel(); err != nil {
			f.log.Debug("Dismissal listener already removed", zap.Error(err))
		}
		f.listener = nil
	}
}

// Armed reports whether page click listener is active.
func (f *AnchorForm) Armed() bool {
	return f.listener.IsActive()
}

// Commit restores selection and links it to url.
func (f *AnchorForm) Commit(url string) {
	f.restore()
	if err := f.cmd.Exec(CommandCreateLink, url); err != nil {
		f.log.Warn("Unable to create link", zap.String("url", url), zap.Error(err))
	}
	f.ShowActions()
}

// Cancel returns to actions panel with selection restored and input
// discarded.
func (f *AnchorForm) Cancel() {
	f.restore()
	f.ShowActions()
}

// DismissIfOutside handles page clicks while form is armed. Clicks inside
// toolbar never get here as form stops their propagation.
func (f *AnchorForm) DismissIfOutside(*event.Event) {
	if !f.Armed() {
		return
	}
	f.tb.KeepAlive = false
	f.tb.Visible = false
	f.tb.Mode = ModeActions
	f.tb.Input = AnchorInput{Placeholder: f.tb.Input.Placeholder}
	f.saved = nil
	f.disarm()
	f.log.Debug("Toolbar dismissed")
}

// ShowActions switches toolbar back to actions panel discarding form state.
func (f *AnchorForm) ShowActions() {
	f.tb.Mode = ModeActions
	f.tb.KeepAlive = false
	f.tb.Input = AnchorInput{Placeholder: f.tb.Input.Placeholder}
	f.saved = nil
	f.disarm()
}

func (f *AnchorForm) restore() {
	if f.saved == nil {
		return
	}
	f.sel.Restore(f.saved)
}

func (f *AnchorForm) close() {
	f.disarm()
	f.saved = nil
}
