package session

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"inlinebar/config"
	"inlinebar/dom"
	"inlinebar/event"
	"inlinebar/layout"
	"inlinebar/toolbar"
)

// Key name reported on key release, the one which is usually used to extend
// selection from keyboard.
const releaseKeyName = "Shift"

// Label of snapshot taken after the last step.
const FinalLabel = "final"

// ToolbarOptions converts toolbar configuration.
func ToolbarOptions(cfg *config.ToolbarConfig) toolbar.Options {
	opts := toolbar.DefaultOptions()
	opts.ExcludedActions = slices.Clone(cfg.ExcludedActions)
	opts.AnchorInputPlaceholder = cfg.AnchorInputPlaceholder
	opts.DiffLeft, opts.DiffTop = cfg.DiffLeft, cfg.DiffTop
	opts.DismissDelay = cfg.DismissDelay
	if len(cfg.Buttons) > 0 {
		opts.Buttons = make([]toolbar.ButtonSpec, 0, len(cfg.Buttons))
		for _, b := range cfg.Buttons {
			opts.Buttons = append(opts.Buttons, toolbar.ButtonSpec{Action: b.Action, Tag: b.Tag, Label: b.Label})
		}
	}
	return opts
}

// LayoutMetrics converts layout configuration.
func LayoutMetrics(cfg *config.LayoutConfig) layout.Metrics {
	return layout.Metrics{
		CharWidth:      cfg.CharWidth,
		LineHeight:     cfg.LineHeight,
		ViewportWidth:  cfg.ViewportWidth,
		OriginX:        cfg.OriginX,
		OriginY:        cfg.OriginY,
		EastAsianWidth: cfg.EastAsianWidth,
	}
}

// Runner owns toolbar attached to a document and drives it with script
// steps. Time only moves on wait steps.
type Runner struct {
	doc   *dom.Document
	sched *toolbar.ManualScheduler
	bus   *event.Bus
	ctrl  *toolbar.Controller
	log   *zap.Logger
}

// NewRunner attaches toolbar to elements of doc matching selector.
func NewRunner(doc *dom.Document, selector string, opts toolbar.Options, m layout.Metrics, log *zap.Logger) (*Runner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runner{
		doc:   doc,
		sched: toolbar.NewManualScheduler(),
		bus:   event.NewBus(log),
		log:   log.Named("session"),
	}
	r.ctrl = toolbar.New(toolbar.Host{
		Doc:       doc,
		Styles:    doc,
		Sel:       doc,
		Layout:    layout.New(doc, m, log),
		Cmd:       doc,
		Scheduler: r.sched,
		Events:    r.bus,
	}, opts, log)
	if err := r.ctrl.Init(selector); err != nil {
		return nil, multierr.Append(fmt.Errorf("unable to attach toolbar: %w", err), r.ctrl.Close())
	}
	return r, nil
}

// Controller returns attached toolbar controller.
func (r *Runner) Controller() *toolbar.Controller {
	return r.ctrl
}

// Close detaches toolbar.
func (r *Runner) Close() error {
	return r.ctrl.Close()
}

// Run executes script steps in order. Trace collected so far is returned even
// when step fails.
func (r *Runner) Run(ctx context.Context, s *Script) (*Trace, error) {
	trace := newTrace(s.Name)
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return trace, err
		}
		n, kind := i+1, st.Kind()
		if err := r.step(n, st, trace); err != nil {
			return trace, fmt.Errorf("step %d (%s): %w", n, kind, err)
		}
		r.log.Debug("Step done", zap.Int("step", n), zap.String("action", kind), zap.Duration("at", r.sched.Now()))
	}
	trace.Entries = append(trace.Entries, r.snapshot(len(s.Steps), FinalLabel))
	return trace, nil
}

func (r *Runner) step(n int, st Step, trace *Trace) error {
	switch st.Kind() {
	case "select":
		return r.selectText(st.Select)

	case "release":
		ev := event.New(event.PointerUp)
		if st.Release == ReleaseKey {
			ev = event.New(event.KeyUp)
			ev.Key = releaseKeyName
		}
		r.bus.Publish(ev)

	case "click":
		path, err := r.clickPath(st.Click)
		if err != nil {
			return err
		}
		r.bus.Publish(event.New(event.Click, path...))

	case "type":
		ev := event.New(event.Input, r.ctrl.InputPath()...)
		ev.Value = *st.Type
		r.bus.Publish(ev)

	case "key":
		// keys go to anchor input while it is shown
		var path []string
		if r.ctrl.Toolbar().FormShown() {
			path = r.ctrl.InputPath()
		}
		for _, typ := range []event.Type{event.KeyDown, event.KeyUp} {
			ev := event.New(typ, path...)
			ev.Key = st.Key
			r.bus.Publish(ev)
		}

	case "wait":
		r.sched.Advance(st.Wait)

	case "snapshot":
		trace.Entries = append(trace.Entries, r.snapshot(n, *st.Snapshot))

	default:
		return errors.New("step must have exactly one action")
	}
	return nil
}

func (r *Runner) selectText(s *SelectStep) error {
	switch {
	case s.Element != "":
		n, err := r.doc.QueryOne(s.Element)
		if err != nil {
			return err
		}
		return r.doc.SelectContents(n)

	case s.Text != "":
		var within toolbar.Node
		if s.Within != "" {
			n, err := r.doc.QueryOne(s.Within)
			if err != nil {
				return err
			}
			within = n
		}
		return r.doc.SelectText(s.Text, s.Occurrence, within)
	}
	r.doc.Clear()
	return nil
}

func (r *Runner) clickPath(target string) ([]string, error) {
	switch target {
	case ClickPage:
		return nil, nil
	case ClickForm:
		return r.ctrl.FormPath(), nil
	case ClickInput:
		return r.ctrl.InputPath(), nil
	case ClickCancel:
		return r.ctrl.CancelPath(), nil
	}
	if r.ctrl.Toolbar().Button(target) == nil {
		return nil, fmt.Errorf("toolbar has no button '%s'", target)
	}
	return r.ctrl.ButtonPath(target), nil
}

func (r *Runner) snapshot(n int, label string) Entry {
	e := Entry{Step: n, Label: label, At: r.sched.Now(), Toolbar: r.ctrl.State()}
	if sel := r.doc.Current(); sel != nil {
		e.Selection = sel.Text()
	}
	return e
}
