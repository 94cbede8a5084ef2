package toolbar

import (
	"sort"
	"sync"
	"time"
)

// TimerScheduler runs tasks on wall clock. Timer goroutines never run
// callbacks, they hand them over through Fired and the goroutine owning the
// controller runs them, usually from the same loop which publishes events:
//
//	for {
//		select {
//		case fn := <-sched.Fired():
//			fn()
//		case ev := <-input:
//			bus.Publish(ev)
//		}
//	}
type TimerScheduler struct {
	fired chan func()
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{fired: make(chan func(), 8)}
}

// Fired delivers callbacks of tasks which became due.
func (s *TimerScheduler) Fired() <-chan func() {
	return s.fired
}

// RunPending runs callbacks delivered so far without waiting and returns
// their number.
func (s *TimerScheduler) RunPending() int {
	n := 0
	for {
		select {
		case fn := <-s.fired:
			fn()
			n++
		default:
			return n
		}
	}
}

func (s *TimerScheduler) AfterFunc(d time.Duration, fn func()) Task {
	t := &timerTask{done: make(chan struct{})}
	t.timer = time.AfterFunc(d, func() {
		select {
		case s.fired <- fn:
		case <-t.done:
		}
	})
	return t
}

type timerTask struct {
	timer *time.Timer
	done  chan struct{}
	once  sync.Once
}

// Stop also releases timer goroutine blocked on delivery. Callback which
// already was delivered but not run yet is not recalled.
func (t *timerTask) Stop() bool {
	stopped := t.timer.Stop()
	t.once.Do(func() { close(t.done) })
	return stopped
}

// ManualScheduler keeps virtual clock which only moves when Advance is
// called. Due tasks fire synchronously from Advance in due order, tasks due
// at the same instant fire in scheduling order.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	s       *ManualScheduler
	due     time.Duration
	seq     uint64
	fn      func()
	stopped bool
}

func (t *manualTask) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.stopped {
		return false
	}
	t.stopped = true
	t.s.drop(t)
	return true
}

// NewManualScheduler returns scheduler with clock at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d < 0 {
		d = 0
	}
	s.seq++
	t := &manualTask{s: s, due: s.now + d, seq: s.seq, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

// drop must be called with mu held.
func (s *ManualScheduler) drop(t *manualTask) {
	for i, cur := range s.tasks {
		if cur == t {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}

// next removes and returns earliest task due no later than limit.
func (s *ManualScheduler) next(limit time.Duration) *manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks) == 0 {
		return nil
	}
	sort.SliceStable(s.tasks, func(i, j int) bool {
		if s.tasks[i].due != s.tasks[j].due {
			return s.tasks[i].due < s.tasks[j].due
		}
		return s.tasks[i].seq < s.tasks[j].seq
	})
	t := s.tasks[0]
	if t.due > limit {
		return nil
	}
	s.tasks = s.tasks[1:]
	t.stopped = true
	s.now = t.due
	return t
}

// Advance moves clock forward by d firing every task which becomes due.
// Tasks scheduled by fired callbacks fire too if they fall within d.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	limit := s.now + d
	s.mu.Unlock()

	for t := s.next(limit); t != nil; t = s.next(limit) {
		t.fn()
	}

	s.mu.Lock()
	if s.now < limit {
		s.now = limit
	}
	s.mu.Unlock()
}

// Now returns virtual time elapsed since scheduler creation.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns number of scheduled tasks which did not fire yet.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// runQueue serialises controller work. Work posted while other work is
// running (from a handler or from fired scheduler callback) is executed
// after it in arrival order.
type runQueue struct {
	mu      sync.Mutex
	busy    bool
	pending []func()
}

func (q *runQueue) Do(fn func()) {
	q.mu.Lock()
	if q.busy {
		q.pending = append(q.pending, fn)
		q.mu.Unlock()
		return
	}
	q.busy = true
	q.mu.Unlock()

	defer func() {
		// do not leave queue wedged if work panics
		q.mu.Lock()
		q.busy = false
		q.pending = nil
		q.mu.Unlock()
	}()

	for {
		fn()

		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		fn = q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()
	}
}

// oneShot is cancellable delayed task. Scheduling again cancels previous
// instance: last scheduled wins even if stopped timer already fired and its
// callback is waiting in the run queue.
type oneShot struct {
	sched Scheduler
	post  func(func())
	task  Task
	seq   uint64
}

func (o *oneShot) Schedule(d time.Duration, fn func()) {
	o.Cancel()
	seq := o.seq
	o.task = o.sched.AfterFunc(d, func() {
		o.post(func() {
			if o.seq != seq {
				return
			}
			o.task = nil
			fn()
		})
	})
}

// Cancel returns true if there was pending task.
func (o *oneShot) Cancel() bool {
	o.seq++
	if o.task == nil {
		return false
	}
	o.task.Stop()
	o.task = nil
	return true
}

func (o *oneShot) Pending() bool {
	return o.task != nil
}
