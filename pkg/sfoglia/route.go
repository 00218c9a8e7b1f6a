package sfoglia

import (
	"sync"
)

// PopDisposition is a route's answer to "can I pop you?". Negotiated
// refusals are valid control-flow outcomes, not errors.
type PopDisposition int

const (
	// PopDispositionPop means proceed with the pop.
	PopDispositionPop PopDisposition = iota

	// PopDispositionDoNotPop vetoes the pop silently.
	PopDispositionDoNotPop

	// PopDispositionBubble delegates to the enclosing system, typically
	// meaning "exit the application".
	PopDispositionBubble
)

// RouteSettings carries the metadata a route was resolved with.
type RouteSettings struct {
	// Name is the route's name, usually a /-delimited path.
	Name string

	// IsInitialRoute is true when this route was resolved while the
	// history was still empty.
	IsInitialRoute bool
}

// RoutePredicate is used by PopUntil and PushAndRemoveUntil to decide
// where to stop. It may be called with nil when the history is empty.
type RoutePredicate func(route Route) bool

// RouteFactory resolves settings to a route. OnGenerateRoute may return
// nil for unknown names; OnUnknownRoute must not.
type RouteFactory func(settings RouteSettings) Route

// Route is a single navigable unit in a navigator's history. Concrete
// routes embed RouteBase and override the lifecycle hooks they care
// about, delegating to the embedded base explicitly for default behavior.
//
// Lifecycle hooks are invoked only by the owning Navigator; routes must
// never call them on one another directly.
type Route interface {
	// base exposes the embedded bookkeeping to the navigator. Having it
	// unexported forces every implementation to embed RouteBase.
	base() *RouteBase

	// Install populates the route's entries, inserting them into the
	// navigator's overlay just above insertionPoint (or on top of
	// everything if insertionPoint is nil). Called once, before the route
	// is considered part of the stack.
	Install(insertionPoint *Entry) error

	// DidPush is called immediately after Install when the route is
	// pushed as a new top. The returned signal fires when any entrance
	// transition completes; the navigator does not wait on it.
	DidPush() *Signal

	// DidReplace is called instead of DidPush when the route is installed
	// via Replace or ReplaceRouteBelow.
	DidReplace(old Route)

	// WillPop reports whether the route agrees to be popped. It may block
	// while the route negotiates (for example, shows a confirmation).
	WillPop() PopDisposition

	// DidPop records the pop result. Returning true means "proceed to
	// remove this route from history"; false means the pop was absorbed
	// internally.
	DidPop(result any) bool

	// DidPopNext notifies the route that the route above it was popped.
	DidPopNext(next Route)

	// DidChangeNext notifies the route that its upper neighbor changed.
	DidChangeNext(next Route)

	// DidChangePrevious notifies the route that its lower neighbor changed.
	DidChangePrevious(previous Route)

	// DidComplete resolves the route's popped future. Calling it a second
	// time is a contract violation and panics.
	DidComplete(result any)

	// Dispose detaches the route's entries and clears its navigator
	// reference. Calling it twice is a contract violation and panics.
	Dispose()

	// WillHandlePopInternally is true when the next pop will be absorbed
	// without removing the route (local history).
	WillHandlePopInternally() bool
}

// RouteBase implements the default route lifecycle. The zero value is
// usable: embed it in a concrete route type and override hooks as needed.
type RouteBase struct {
	initOnce sync.Once

	nav      *Navigator
	entries  []*Entry
	popped   *Result
	disposed bool

	// buildEntries, when set, produces the route's entries at install
	// time. Routes without it occupy a history slot but own no layers.
	buildEntries func() []*Entry

	// result is the fallback value the popped future resolves with when
	// Pop is called without an explicit result.
	result any
}

// NewRoute creates a route whose entries are produced by buildEntries at
// install time. buildEntries may be nil for a layerless route.
func NewRoute(buildEntries func() []*Entry) *RouteBase {
	r := &RouteBase{buildEntries: buildEntries}
	r.init()
	return r
}

func (r *RouteBase) init() {
	r.initOnce.Do(func() {
		r.popped = newResult()
	})
}

func (r *RouteBase) base() *RouteBase { return r }

// Navigator returns the navigator this route belongs to, or nil. The
// reference is a plain lookup, not ownership: it stays set between a pop
// and the route's finalize so exit teardown can still reach the navigator.
func (r *RouteBase) Navigator() *Navigator {
	return r.nav
}

// Entries returns the route's overlay entries, bottom to top.
func (r *RouteBase) Entries() []*Entry {
	return r.entries
}

// Popped returns the future that resolves with the value this route is
// eventually popped with. It resolves exactly once. Popped resolves
// at-or-before the exit teardown finishes.
func (r *RouteBase) Popped() *Result {
	r.init()
	return r.popped
}

// CurrentResult returns the fallback result used when the route is popped
// without an explicit value.
func (r *RouteBase) CurrentResult() any {
	return r.result
}

// SetCurrentResult sets the fallback pop result.
func (r *RouteBase) SetCurrentResult(result any) {
	r.result = result
}

// IsCurrent reports whether the route is topmost in its navigator's
// history.
func (r *RouteBase) IsCurrent() bool {
	if r.nav == nil {
		return false
	}
	return r.nav.isTopRoute(r)
}

// IsFirst reports whether the route is bottommost in its navigator's
// history.
func (r *RouteBase) IsFirst() bool {
	if r.nav == nil {
		return false
	}
	return r.nav.isBottomRoute(r)
}

// IsActive reports whether the route is present in its navigator's
// history at all.
func (r *RouteBase) IsActive() bool {
	if r.nav == nil {
		return false
	}
	return r.nav.containsRoute(r)
}

// Install inserts the route's entries, if any, into the navigator's
// overlay just above insertionPoint.
func (r *RouteBase) Install(insertionPoint *Entry) error {
	r.init()
	if r.buildEntries != nil {
		r.entries = r.buildEntries()
	}
	if len(r.entries) == 0 {
		return nil
	}
	return r.nav.overlay.InsertAll(r.entries, insertionPoint)
}

// DidPush resolves its completion signal immediately: the base route has
// no entrance transition.
func (r *RouteBase) DidPush() *Signal {
	sig := newSignal()
	sig.complete()
	return sig
}

// DidReplace does nothing by default.
func (r *RouteBase) DidReplace(old Route) {}

// WillPop bubbles when the route is the bottommost one (the enclosing
// system should handle back, typically by exiting), otherwise agrees to
// pop.
func (r *RouteBase) WillPop() PopDisposition {
	if r.IsFirst() {
		return PopDispositionBubble
	}
	return PopDispositionPop
}

// DidPop records the result and asks the navigator to proceed with
// removal. Without a transition there is nothing to wait for, so the
// route also requests its own finalization.
func (r *RouteBase) DidPop(result any) bool {
	r.DidComplete(result)
	if r.nav != nil {
		r.nav.requestFinalize(r)
	}
	return true
}

func (r *RouteBase) DidPopNext(next Route)            {}
func (r *RouteBase) DidChangeNext(next Route)         {}
func (r *RouteBase) DidChangePrevious(previous Route) {}

// DidComplete resolves the popped future. A second call is a contract
// violation.
func (r *RouteBase) DidComplete(result any) {
	r.init()
	if result == nil {
		result = r.result
	}
	if !r.popped.resolve(result) {
		panic("sfoglia: route completed twice")
	}
}

// Dispose detaches all owned entries and clears the navigator reference.
// A second call is a contract violation.
func (r *RouteBase) Dispose() {
	if r.disposed {
		panic("sfoglia: route disposed twice")
	}
	r.disposed = true
	for _, entry := range r.entries {
		if entry.overlay != nil {
			entry.Remove()
		}
	}
	r.entries = nil
	r.nav = nil
}

// WillHandlePopInternally is false for routes without local history.
func (r *RouteBase) WillHandlePopInternally() bool {
	return false
}

var (
	_ Route = (*RouteBase)(nil)
	_ Route = (*LocalHistoryRoute)(nil)
	_ Route = (*TransitionRoute)(nil)
	_ Route = (*ModalRoute)(nil)
)
