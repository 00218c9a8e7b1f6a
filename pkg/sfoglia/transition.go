package sfoglia

import (
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/BrandonKowalski/sfoglia/pkg/sfoglia/internal"
)

// TransitionStatus is the coarse state of an enter/exit transition.
type TransitionStatus int

const (
	// TransitionDismissed: fully off stage, exit finished or never entered.
	TransitionDismissed TransitionStatus = iota

	// TransitionForward: entrance in progress.
	TransitionForward

	// TransitionReverse: exit in progress.
	TransitionReverse

	// TransitionCompleted: entrance finished, fully on stage.
	TransitionCompleted
)

// TransitionController drives a route's enter/exit phases. Interpolation
// and timing live outside the engine; all the engine needs is the status
// and a notification when it changes.
//
// Listener notifications may be delivered synchronously from Forward or
// Reverse (InstantTransition does) or later from another goroutine
// (TimedTransition does); the engine copes with both.
type TransitionController interface {
	// Forward starts or resumes the entrance phase.
	Forward()

	// Reverse cancels any entrance in progress and starts the exit phase.
	Reverse()

	// Status returns the current phase.
	Status() TransitionStatus

	// SetStatusListener registers the single listener notified on every
	// status change. The engine owns this slot.
	SetStatusListener(fn func(TransitionStatus))
}

// InstantTransition completes each phase synchronously. It is the default
// controller for routes that do not animate.
type InstantTransition struct {
	status   TransitionStatus
	listener func(TransitionStatus)
}

func (t *InstantTransition) Forward() {
	t.status = TransitionCompleted
	t.notify()
}

func (t *InstantTransition) Reverse() {
	t.status = TransitionDismissed
	t.notify()
}

func (t *InstantTransition) Status() TransitionStatus { return t.status }

func (t *InstantTransition) SetStatusListener(fn func(TransitionStatus)) {
	t.listener = fn
}

func (t *InstantTransition) notify() {
	if t.listener != nil {
		t.listener(t.status)
	}
}

// TimedTransition completes each phase after a fixed duration, delivering
// the terminal status from a timer goroutine. An in-flight phase is
// cancelled, not awaited, when the opposite one starts.
type TimedTransition struct {
	Duration time.Duration

	mu       sync.Mutex
	status   TransitionStatus
	timer    *time.Timer
	listener func(TransitionStatus)
}

// NewTimedTransition creates a controller whose phases each take d.
func NewTimedTransition(d time.Duration) *TimedTransition {
	return &TimedTransition{Duration: d}
}

func (t *TimedTransition) Forward() {
	t.start(TransitionForward, TransitionCompleted)
}

func (t *TimedTransition) Reverse() {
	t.start(TransitionReverse, TransitionDismissed)
}

func (t *TimedTransition) start(running, terminal TransitionStatus) {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.status = running
	fn := t.listener
	t.timer = time.AfterFunc(t.Duration, func() {
		t.mu.Lock()
		if t.status != running {
			t.mu.Unlock()
			return
		}
		t.status = terminal
		done := t.listener
		t.mu.Unlock()
		if done != nil {
			done(terminal)
		}
	})
	t.mu.Unlock()

	if fn != nil {
		fn(running)
	}
}

func (t *TimedTransition) Status() TransitionStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *TimedTransition) SetStatusListener(fn func(TransitionStatus)) {
	t.mu.Lock()
	t.listener = fn
	t.mu.Unlock()
}

// ManualTransition is stepped explicitly, which makes two-phase removal
// observable in tests: Forward/Reverse park the controller in a running
// status until Finish is called.
type ManualTransition struct {
	status   TransitionStatus
	listener func(TransitionStatus)
}

func (t *ManualTransition) Forward() {
	t.status = TransitionForward
	t.notify()
}

func (t *ManualTransition) Reverse() {
	t.status = TransitionReverse
	t.notify()
}

// Finish drives the running phase to its terminal status.
func (t *ManualTransition) Finish() {
	switch t.status {
	case TransitionForward:
		t.status = TransitionCompleted
	case TransitionReverse:
		t.status = TransitionDismissed
	default:
		return
	}
	t.notify()
}

func (t *ManualTransition) Status() TransitionStatus { return t.status }

func (t *ManualTransition) SetStatusListener(fn func(TransitionStatus)) {
	t.listener = fn
}

func (t *ManualTransition) notify() {
	if t.listener != nil {
		t.listener(t.status)
	}
}

// TransitionRoute layers enter/exit coordination over the base lifecycle:
// it starts the enter phase on push/replace, flips to the exit phase on
// pop, keeps the topmost entry's opacity in sync with the phase, and asks
// the navigator to finalize it once the exit has fully played out.
type TransitionRoute struct {
	RouteBase

	// Opaque, when true, hides every route below this one while it is
	// fully on stage.
	Opaque bool

	controller TransitionController

	transitionOnce sync.Once
	pushSignal     *Signal
	completed      *Signal
	popping        atomic.Bool
}

// NewTransitionRoute creates a transition route. controller may be nil,
// in which case transitions complete instantly.
func NewTransitionRoute(buildEntries func() []*Entry, opaque bool, controller TransitionController) *TransitionRoute {
	r := &TransitionRoute{Opaque: opaque, controller: controller}
	r.buildEntries = buildEntries
	r.init()
	r.ensureTransition()
	return r
}

// ensureTransition wires the signals and the status listener exactly
// once. Accessors like Completed may run on a waiting goroutine while
// the navigator drives the lifecycle, so registration must not repeat.
func (r *TransitionRoute) ensureTransition() {
	r.transitionOnce.Do(func() {
		r.pushSignal = newSignal()
		r.completed = newSignal()
		if r.controller == nil {
			r.controller = &InstantTransition{}
		}
		r.controller.SetStatusListener(r.handleStatusChange)
	})
}

// Controller returns the route's transition controller.
func (r *TransitionRoute) Controller() TransitionController {
	r.ensureTransition()
	return r.controller
}

// PushCompleted returns the signal that fires once the enter transition
// has finished and the route fully covers the stage.
func (r *TransitionRoute) PushCompleted() *Signal {
	r.ensureTransition()
	return r.pushSignal
}

// Completed returns the future that resolves once the exit transition has
// fully finished and the route's entries are removed. It resolves
// at-or-after Popped.
func (r *TransitionRoute) Completed() *Signal {
	r.ensureTransition()
	return r.completed
}

// DidPush starts the enter transition. The returned signal fires when the
// entrance completes.
func (r *TransitionRoute) DidPush() *Signal {
	r.ensureTransition()
	r.controller.Forward()
	return r.pushSignal
}

// DidReplace starts the enter transition exactly as a push would.
func (r *TransitionRoute) DidReplace(old Route) {
	r.ensureTransition()
	r.controller.Forward()
}

// DidPop cancels any entrance in progress and starts the exit.
func (r *TransitionRoute) DidPop(result any) bool {
	r.ensureTransition()
	r.popping.Store(true)
	r.DidComplete(result)
	r.controller.Reverse()
	return true
}

// Dispose resolves the completed future after the entries are detached,
// preserving the popped-at-or-before-completed ordering.
func (r *TransitionRoute) Dispose() {
	r.ensureTransition()
	r.RouteBase.Dispose()
	r.completed.complete()
}

// handleStatusChange tracks the transition phase:
//
//   - Completed: the route fully covers the stage, so its topmost entry
//     takes the route's opacity and the push signal fires.
//   - Forward/Reverse: mid-flight, lower routes must stay visible.
//   - Dismissed: the exit finished; if the route has been popped, request
//     deferred finalization from the navigator.
func (r *TransitionRoute) handleStatusChange(status TransitionStatus) {
	switch status {
	case TransitionCompleted:
		if entry := r.topEntry(); entry != nil {
			if err := entry.SetOpaque(r.Opaque); err != nil {
				internal.GetInternalLogger().Warn("opacity update on detached entry", "error", err)
			}
		}
		r.pushSignal.complete()
	case TransitionForward, TransitionReverse:
		if entry := r.topEntry(); entry != nil {
			if err := entry.SetOpaque(false); err != nil {
				internal.GetInternalLogger().Warn("opacity update on detached entry", "error", err)
			}
		}
	case TransitionDismissed:
		if nav := r.nav; nav != nil && r.popping.Load() {
			nav.requestFinalize(r)
		}
	}
}

func (r *TransitionRoute) topEntry() *Entry {
	if len(r.entries) == 0 {
		return nil
	}
	return r.entries[len(r.entries)-1]
}
