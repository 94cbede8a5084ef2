package event

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNilHandler    = errors.New("nil event handler")
	ErrEmptyTarget   = errors.New("empty event target")
	ErrNotSubscribed = errors.New("subscription is not active")
	ErrUnknownType   = errors.New("unknown event type")
)

// Handler receives events delivered by the Bus. Handlers run synchronously
// on the publishing goroutine.
type Handler func(ev *Event)

// Subscription is a removable registration of a Handler for one event type
// on one target.
type Subscription struct {
	id      uuid.UUID
	typ     Type
	target  string
	handler Handler
	bus     *Bus
	active  atomic.Bool
}

// ID returns unique subscription identifier.
func (s *Subscription) ID() string {
	return s.id.String()
}

func (s *Subscription) Type() Type {
	return s.typ
}

func (s *Subscription) Target() string {
	return s.target
}

// IsActive returns true until subscription is cancelled.
func (s *Subscription) IsActive() bool {
	return s != nil && s.active.Load()
}

// Cancel removes subscription from its bus. Handler will not be called again,
// even if an event currently being delivered has not reached it yet.
// Cancelling twice returns ErrNotSubscribed.
func (s *Subscription) Cancel() error {
	if s == nil || !s.active.CompareAndSwap(true, false) {
		return ErrNotSubscribed
	}
	s.bus.remove(s)
	return nil
}

type key struct {
	typ    Type
	target string
}

// Bus delivers events to subscribers along the event path.
type Bus struct {
	mu   sync.Mutex
	subs map[key][]*Subscription
	log  *zap.Logger
}

// NewBus creates empty bus.
func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		subs: make(map[key][]*Subscription),
		log:  log.Named("events"),
	}
}

func knownType(t Type) bool {
	switch t {
	case PointerUp, KeyUp, KeyDown, Click, Input:
		return true
	}
	return false
}

// Subscribe registers handler for events of type typ reaching target.
func (b *Bus) Subscribe(typ Type, target string, h Handler) (*Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	if target == "" {
		return nil, ErrEmptyTarget
	}
	if !knownType(typ) {
		return nil, fmt.Errorf("unable to subscribe to '%s': %w", typ, ErrUnknownType)
	}

	s := &Subscription{
		id:      uuid.New(),
		typ:     typ,
		target:  target,
		handler: h,
		bus:     b,
	}
	s.active.Store(true)

	b.mu.Lock()
	k := key{typ, target}
	b.subs[k] = append(b.subs[k], s)
	b.mu.Unlock()

	b.log.Debug("Subscribed", zap.String("id", s.ID()), zap.String("type", string(typ)), zap.String("target", target))
	return s, nil
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := key{s.typ, s.target}
	list := b.subs[k]
	for i, cur := range list {
		if cur == s {
			// copy so snapshots taken by Publish stay intact
			next := make([]*Subscription, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			if len(next) == 0 {
				delete(b.subs, k)
			} else {
				b.subs[k] = next
			}
			break
		}
	}
	b.log.Debug("Unsubscribed", zap.String("id", s.ID()), zap.String("type", string(s.typ)), zap.String("target", s.target))
}

// Count returns number of active subscriptions for type on target.
func (b *Bus) Count(typ Type, target string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[key{typ, target}])
}

// Len returns total number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, list := range b.subs {
		n += len(list)
	}
	return n
}

// Publish delivers ev to every target on its path and then to Page,
// stopping after the target on which propagation was stopped. A handler
// subscribed while a target is being delivered to is not called for that
// target.
func (b *Bus) Publish(ev *Event) {
	if ev == nil {
		return
	}
	for _, target := range ev.targets() {
		b.mu.Lock()
		list := b.subs[key{ev.Type, target}]
		b.mu.Unlock()

		for _, s := range list {
			if !s.IsActive() {
				continue
			}
			s.handler(ev)
		}
		if ev.stopped {
			b.log.Debug("Propagation stopped", zap.String("type", string(ev.Type)), zap.String("target", target))
			return
		}
	}
}
