package sfoglia

import (
	"log/slog"
	"strings"
	"sync"

	"go.uber.org/atomic"
)

// Navigator owns one overlay and an ordered stack of routes (the
// history, index 0 = bottom/oldest) and exposes every stack mutation:
// push, pop, replace, remove, and their named and predicate-driven
// variants.
//
// All mutations are synchronous and atomic from the caller's point of
// view; the futures the engine hands out (Popped, Completed, DidPush)
// are the only suspension points, and the engine itself never blocks on
// them. The navigator is safe for use from multiple goroutines, but
// observers, route lifecycle hooks, and predicates run while the
// navigator is mutating and must not call back into it.
type Navigator struct {
	mu      sync.Mutex
	overlay *Overlay
	history []Route

	observers []Observer

	// popped tracks routes removed from the history via Pop but not yet
	// disposed: their exit transitions may still be running and their
	// navigator back-reference is still live. Keyed by the route's base
	// so a request arriving through an embedded capability still matches.
	popped map[*RouteBase]Route

	onGenerateRoute RouteFactory
	onUnknownRoute  RouteFactory
	initialRoute    string

	attached atomic.Bool

	finalizeMu      sync.Mutex
	pendingFinalize []Route

	log *slog.Logger
}

// Overlay returns the navigator's overlay. Nil until Attach.
func (n *Navigator) Overlay() *Overlay {
	return n.overlay
}

// History returns a snapshot of the route stack, bottom to top.
func (n *Navigator) History() []Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Route, len(n.history))
	copy(out, n.history)
	return out
}

// TopRoute returns the current (topmost) route, or nil.
func (n *Navigator) TopRoute() Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.history) == 0 {
		return nil
	}
	return n.history[len(n.history)-1]
}

// Attach realizes the navigator onto a surface: it creates the overlay,
// binds observers, and pushes the initial route. The initial route name
// is /-segmented into cumulative paths, each pushed as its own route, so
// "/a/b" produces the breadcrumb stack "/", "/a", "/a/b".
func (n *Navigator) Attach(surface Surface) error {
	if surface == nil {
		return stackErrorf("attach", "surface is nil")
	}

	n.lock()
	defer n.unlock()
	if n.attached.Load() {
		return stackErrorf("attach", "navigator already attached")
	}

	n.overlay = NewOverlay(surface)
	n.overlay.nav = n

	for _, o := range n.observers {
		if aware, ok := o.(NavigatorAware); ok {
			aware.BindNavigator(n)
		}
	}

	// The flag flips only after the overlay exists: a concurrent Push
	// that passes requireAttached must never find a nil overlay.
	n.attached.Store(true)
	return n.bootstrapLocked()
}

func (n *Navigator) bootstrapLocked() error {
	name := n.initialRoute
	if name == "" {
		name = DefaultRouteName
	}

	names := []string{name}
	if len(name) > 1 && name[0] == '/' {
		// Cumulative breadcrumb stack for deep initial paths.
		names = names[:0]
		acc := ""
		for _, part := range splitPath(name) {
			if part == "" {
				continue
			}
			acc += "/" + part
			names = append(names, acc)
		}
		names = append([]string{DefaultRouteName}, names...)
	}

	for _, nm := range names {
		route, err := n.resolveRouteLocked(nm, true)
		if err != nil {
			return err
		}
		if _, err := n.pushLocked(route); err != nil {
			return err
		}
	}

	n.log.Debug("navigator attached", "initial_route", name, "depth", len(n.history))
	return nil
}

// Push installs route on top of the stack and returns its popped future.
// Fails if route already has a navigator.
func (n *Navigator) Push(route Route) (*Result, error) {
	if err := n.requireAttached("push"); err != nil {
		return nil, err
	}
	n.lock()
	defer n.unlock()
	return n.pushLocked(route)
}

// PushNamed resolves name through the route factories and pushes the
// result.
func (n *Navigator) PushNamed(name string) (*Result, error) {
	if err := n.requireAttached("pushNamed"); err != nil {
		return nil, err
	}
	n.lock()
	defer n.unlock()
	route, err := n.routeNamedLocked(name)
	if err != nil {
		return nil, err
	}
	return n.pushLocked(route)
}

func (n *Navigator) pushLocked(route Route) (*Result, error) {
	rb := route.base()
	if rb.nav != nil {
		return nil, stackErrorf("push", "route already has a navigator")
	}

	var old Route
	if len(n.history) > 0 {
		old = n.history[len(n.history)-1]
	}

	rb.nav = n
	if err := route.Install(n.topmostEntryLocked()); err != nil {
		rb.nav = nil
		return nil, err
	}
	n.history = append(n.history, route)

	route.DidPush()
	route.DidChangeNext(nil)
	if old != nil {
		old.DidChangeNext(route)
	}

	for _, o := range n.observers {
		o.OnPush(route, old)
	}
	n.log.Debug("pushed", "depth", len(n.history))
	return rb.Popped(), nil
}

// Replace swaps newRoute into oldRoute's slot, preserving stack order.
// No-op when the two are identical. Does not notify observers.
func (n *Navigator) Replace(oldRoute, newRoute Route) error {
	if oldRoute == newRoute {
		return nil
	}
	n.lock()
	defer n.unlock()
	return n.replaceLocked(oldRoute, newRoute)
}

func (n *Navigator) replaceLocked(oldRoute, newRoute Route) error {
	oldBase, newBase := oldRoute.base(), newRoute.base()
	if oldBase.nav != n {
		return stackErrorf("replace", "old route does not belong to this navigator")
	}
	if newBase.nav != nil {
		return stackErrorf("replace", "new route already has a navigator")
	}
	if len(oldBase.entries) == 0 {
		return stackErrorf("replace", "old route has no entries")
	}
	if len(newBase.entries) != 0 {
		return stackErrorf("replace", "new route already has entries")
	}

	index := n.indexOfLocked(oldRoute)
	if index < 0 {
		return stackErrorf("replace", "old route not found in history")
	}

	newBase.nav = n
	if err := newRoute.Install(oldBase.entries[len(oldBase.entries)-1]); err != nil {
		newBase.nav = nil
		return err
	}
	n.history[index] = newRoute

	newRoute.DidReplace(oldRoute)
	if index+1 < len(n.history) {
		newRoute.DidChangeNext(n.history[index+1])
		n.history[index+1].DidChangePrevious(newRoute)
	} else {
		newRoute.DidChangeNext(nil)
	}
	if index > 0 {
		n.history[index-1].DidChangeNext(newRoute)
	}

	oldRoute.Dispose()
	return nil
}

// ReplaceRouteBelow replaces the route immediately below anchorRoute.
func (n *Navigator) ReplaceRouteBelow(anchorRoute, newRoute Route) error {
	n.lock()
	defer n.unlock()
	if anchorRoute.base().nav != n {
		return stackErrorf("replaceRouteBelow", "anchor route does not belong to this navigator")
	}
	index := n.indexOfLocked(anchorRoute)
	if index <= 0 {
		return stackErrorf("replaceRouteBelow", "no route below the anchor")
	}
	return n.replaceLocked(n.history[index-1], newRoute)
}

// PushReplacement pushes newRoute into the current top slot. The old top
// route's popped future resolves with result once newRoute's entrance
// completes, and only then is the old route torn down, so the stage is
// never empty mid-swap. Observers are notified immediately.
func (n *Navigator) PushReplacement(newRoute Route, result any) (*Result, error) {
	if err := n.requireAttached("pushReplacement"); err != nil {
		return nil, err
	}
	n.lock()
	defer n.unlock()

	if len(n.history) == 0 {
		return nil, &StackError{Op: "pushReplacement", Err: ErrEmptyHistory}
	}
	newBase := newRoute.base()
	if newBase.nav != nil {
		return nil, stackErrorf("pushReplacement", "route already has a navigator")
	}

	index := len(n.history) - 1
	old := n.history[index]

	newBase.nav = n
	if err := newRoute.Install(n.topmostEntryLocked()); err != nil {
		newBase.nav = nil
		return nil, err
	}
	n.history[index] = newRoute

	sig := newRoute.DidPush()
	sig.onComplete(func() {
		old.DidComplete(result)
		old.Dispose()
	})

	newRoute.DidChangeNext(nil)
	if index > 0 {
		n.history[index-1].DidChangeNext(newRoute)
	}

	for _, o := range n.observers {
		o.OnPush(newRoute, old)
	}
	return newBase.Popped(), nil
}

// PushAndRemoveUntil force-removes routes off the top (no pop
// negotiation) until predicate matches the top route, then pushes
// newRoute. The removed routes are torn down only after newRoute's
// entrance completes.
func (n *Navigator) PushAndRemoveUntil(newRoute Route, predicate RoutePredicate) (*Result, error) {
	if err := n.requireAttached("pushAndRemoveUntil"); err != nil {
		return nil, err
	}
	n.lock()
	defer n.unlock()

	var removed []Route
	for len(n.history) > 0 && !predicate(n.history[len(n.history)-1]) {
		route := n.history[len(n.history)-1]
		rb := route.base()
		if rb.nav != n {
			return nil, stackErrorf("pushAndRemoveUntil", "route does not belong to this navigator")
		}
		if len(rb.entries) == 0 {
			return nil, stackErrorf("pushAndRemoveUntil", "route is already mid-removal")
		}
		n.history = n.history[:len(n.history)-1]
		removed = append(removed, route)
	}

	newBase := newRoute.base()
	if newBase.nav != nil {
		return nil, stackErrorf("pushAndRemoveUntil", "route already has a navigator")
	}

	var old Route
	if len(n.history) > 0 {
		old = n.history[len(n.history)-1]
	}

	newBase.nav = n
	if err := newRoute.Install(n.topmostEntryLocked()); err != nil {
		newBase.nav = nil
		return nil, err
	}
	n.history = append(n.history, newRoute)

	sig := newRoute.DidPush()
	sig.onComplete(func() {
		for _, route := range removed {
			route.Dispose()
		}
	})

	newRoute.DidChangeNext(nil)
	if old != nil {
		old.DidChangeNext(newRoute)
	}

	for _, o := range n.observers {
		o.OnPush(newRoute, old)
	}
	return newBase.Popped(), nil
}

// MaybePop negotiates a pop with the current route. It resolves false
// when the route wants the back event bubbled to the enclosing system
// (typically: exit the application); true otherwise, whether the pop
// happened or was silently vetoed.
func (n *Navigator) MaybePop(result any) (bool, error) {
	n.mu.Lock()
	if len(n.history) == 0 {
		n.mu.Unlock()
		return false, &StackError{Op: "maybePop", Err: ErrEmptyHistory}
	}
	top := n.history[len(n.history)-1]
	n.mu.Unlock()

	// WillPop may block while the route negotiates; the stack is not
	// held locked during that time.
	switch top.WillPop() {
	case PopDispositionBubble:
		return false, nil
	case PopDispositionDoNotPop:
		return true, nil
	default:
		_, err := n.Pop(result)
		return true, err
	}
}

// Pop removes the current route from the history. Returns false when the
// pop could not remove a route: the history holds only one route (the
// caller decides whether to bubble out). Returns true when the route was
// removed or the pop was absorbed internally (local history).
func (n *Navigator) Pop(result any) (bool, error) {
	n.lock()
	defer n.unlock()
	return n.popLocked(result)
}

func (n *Navigator) popLocked(result any) (bool, error) {
	if len(n.history) == 0 {
		return false, &StackError{Op: "pop", Err: ErrEmptyHistory}
	}
	top := n.history[len(n.history)-1]
	if top.DidPop(result) {
		if len(n.history) == 1 {
			return false, nil
		}
		n.history = n.history[:len(n.history)-1]
		n.popped[top.base()] = top
		newTop := n.history[len(n.history)-1]
		newTop.DidPopNext(top)
		for _, o := range n.observers {
			o.OnPop(top, newTop)
		}
		n.log.Debug("popped", "depth", len(n.history))
	}
	return true, nil
}

// PopUntil pops repeatedly, without negotiation, until predicate matches
// the top route (or nil once the history is empty). When the predicate
// cannot be satisfied because the remaining route refuses to leave,
// PopUntil stops and returns ErrPredicateUnsatisfied rather than looping
// forever.
func (n *Navigator) PopUntil(predicate RoutePredicate) error {
	n.lock()
	defer n.unlock()
	for {
		var top Route
		if len(n.history) > 0 {
			top = n.history[len(n.history)-1]
		}
		if predicate(top) {
			return nil
		}
		if top == nil {
			return &StackError{Op: "popUntil", Err: ErrEmptyHistory}
		}
		popped, err := n.popLocked(nil)
		if err != nil {
			return err
		}
		if !popped {
			return &StackError{Op: "popUntil", Err: ErrPredicateUnsatisfied}
		}
	}
}

// PopAndPushNamed pops the current route with result, then pushes the
// route resolved from name.
func (n *Navigator) PopAndPushNamed(name string, result any) (*Result, error) {
	if err := n.requireAttached("popAndPushNamed"); err != nil {
		return nil, err
	}
	n.lock()
	defer n.unlock()
	if _, err := n.popLocked(result); err != nil {
		return nil, err
	}
	route, err := n.routeNamedLocked(name)
	if err != nil {
		return nil, err
	}
	return n.pushLocked(route)
}

// PushReplacementNamed is PushReplacement with name resolution.
func (n *Navigator) PushReplacementNamed(name string, result any) (*Result, error) {
	if err := n.requireAttached("pushReplacementNamed"); err != nil {
		return nil, err
	}
	n.mu.Lock()
	route, err := n.routeNamedLocked(name)
	n.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return n.PushReplacement(route, result)
}

// PushNamedAndRemoveUntil is PushAndRemoveUntil with name resolution.
func (n *Navigator) PushNamedAndRemoveUntil(name string, predicate RoutePredicate) (*Result, error) {
	if err := n.requireAttached("pushNamedAndRemoveUntil"); err != nil {
		return nil, err
	}
	n.mu.Lock()
	route, err := n.routeNamedLocked(name)
	n.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return n.PushAndRemoveUntil(route, predicate)
}

// RemoveRoute removes route from any position in the stack: immediate,
// non-negotiated, non-animated. Both neighbors are renotified, observers
// are told, and the route is disposed synchronously.
func (n *Navigator) RemoveRoute(route Route) error {
	n.lock()
	defer n.unlock()

	if route.base().nav != n {
		return stackErrorf("removeRoute", "route does not belong to this navigator")
	}
	index := n.indexOfLocked(route)
	if index < 0 {
		return stackErrorf("removeRoute", "route not found in history")
	}

	n.history = append(n.history[:index], n.history[index+1:]...)

	var previous, next Route
	if index > 0 {
		previous = n.history[index-1]
	}
	if index < len(n.history) {
		next = n.history[index]
	}
	if previous != nil {
		previous.DidChangeNext(next)
	}
	if next != nil {
		next.DidChangePrevious(previous)
	}

	for _, o := range n.observers {
		o.OnRemove(route, previous)
	}
	route.Dispose()
	return nil
}

// RemoveRouteBelow removes the route immediately below anchorRoute. The
// target must already be visually finished: it may not hold live
// entries. No observer notification.
func (n *Navigator) RemoveRouteBelow(anchorRoute Route) error {
	n.lock()
	defer n.unlock()

	if anchorRoute.base().nav != n {
		return stackErrorf("removeRouteBelow", "anchor route does not belong to this navigator")
	}
	anchorIndex := n.indexOfLocked(anchorRoute)
	if anchorIndex <= 0 {
		return stackErrorf("removeRouteBelow", "no route below the anchor")
	}
	index := anchorIndex - 1
	target := n.history[index]
	if len(target.base().entries) != 0 {
		return stackErrorf("removeRouteBelow", "target route still has live entries")
	}

	n.history = append(n.history[:index], n.history[index+1:]...)

	var previous, next Route
	if index > 0 {
		previous = n.history[index-1]
	}
	if index < len(n.history) {
		next = n.history[index]
	}
	if previous != nil {
		previous.DidChangeNext(next)
	}
	if next != nil {
		next.DidChangePrevious(previous)
	}

	target.Dispose()
	return nil
}

// CanPop reports whether a pop can do anything: more than one route on
// the stack, or a bottommost route that will absorb the pop internally.
// Fails on an empty history.
func (n *Navigator) CanPop() (bool, error) {
	n.lock()
	defer n.unlock()
	if len(n.history) == 0 {
		return false, &StackError{Op: "canPop", Err: ErrEmptyHistory}
	}
	if len(n.history) > 1 {
		return true, nil
	}
	return n.history[0].WillHandlePopInternally(), nil
}

// FinalizeRoute disposes a route that was popped earlier and whose exit
// transition has now finished. Calling it for a route that was not
// popped, or twice, is a contract violation and panics.
func (n *Navigator) FinalizeRoute(route Route) {
	n.lock()
	defer n.unlock()
	rb := route.base()
	tracked, ok := n.popped[rb]
	if !ok {
		panic("sfoglia: finalize of a route that was not popped")
	}
	delete(n.popped, rb)
	tracked.Dispose()
}

// RouteNamed resolves name through OnGenerateRoute, falling back to
// OnUnknownRoute. A nil route out of the fallback is a fatal
// configuration error.
func (n *Navigator) RouteNamed(name string) (Route, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.routeNamedLocked(name)
}

func (n *Navigator) routeNamedLocked(name string) (Route, error) {
	return n.resolveRouteLocked(name, false)
}

func (n *Navigator) resolveRouteLocked(name string, initial bool) (Route, error) {
	settings := RouteSettings{Name: name, IsInitialRoute: initial}

	if n.onGenerateRoute == nil {
		return nil, &ConfigError{
			Op:   "routeNamed",
			Name: name,
			Err:  errNoGenerateRoute,
		}
	}
	if route := n.onGenerateRoute(settings); route != nil {
		return route, nil
	}
	if n.onUnknownRoute == nil {
		return nil, &ConfigError{
			Op:   "routeNamed",
			Name: name,
			Err:  errNoUnknownRoute,
		}
	}
	route := n.onUnknownRoute(settings)
	if route == nil {
		err := &ConfigError{
			Op:   "routeNamed",
			Name: name,
			Err:  errNilUnknownRoute,
		}
		n.log.Error("unknown-route factory returned nil", "name", name)
		return nil, err
	}
	return route, nil
}

// requestFinalize defers a route's finalization until the navigator is
// quiescent: exit transitions can dismiss in the middle of a mutation,
// and disposal must not interleave with it.
func (n *Navigator) requestFinalize(route Route) {
	n.finalizeMu.Lock()
	n.pendingFinalize = append(n.pendingFinalize, route)
	n.finalizeMu.Unlock()

	if n.mu.TryLock() {
		n.unlock()
	}
	// When TryLock fails a mutation is in flight; it drains the queue on
	// its way out.
}

func (n *Navigator) lock() {
	n.mu.Lock()
}

func (n *Navigator) unlock() {
	for {
		n.drainFinalizeLocked()
		n.mu.Unlock()
		if !n.hasPendingFinalize() {
			return
		}
		if !n.mu.TryLock() {
			return
		}
	}
}

func (n *Navigator) drainFinalizeLocked() {
	for {
		n.finalizeMu.Lock()
		if len(n.pendingFinalize) == 0 {
			n.finalizeMu.Unlock()
			return
		}
		route := n.pendingFinalize[0]
		n.pendingFinalize = n.pendingFinalize[1:]
		n.finalizeMu.Unlock()

		rb := route.base()
		if tracked, ok := n.popped[rb]; ok {
			delete(n.popped, rb)
			tracked.Dispose()
			n.log.Debug("finalized route")
		}
	}
}

func (n *Navigator) hasPendingFinalize() bool {
	n.finalizeMu.Lock()
	defer n.finalizeMu.Unlock()
	return len(n.pendingFinalize) > 0
}

func (n *Navigator) requireAttached(op string) error {
	if !n.attached.Load() {
		return &StackError{Op: op, Err: ErrNotAttached}
	}
	return nil
}

// topmostEntryLocked finds the insertion point for a new route's layers:
// the last entry of the nearest-from-top route that has any.
func (n *Navigator) topmostEntryLocked() *Entry {
	for i := len(n.history) - 1; i >= 0; i-- {
		entries := n.history[i].base().entries
		if len(entries) > 0 {
			return entries[len(entries)-1]
		}
	}
	return nil
}

func (n *Navigator) indexOfLocked(route Route) int {
	for i, r := range n.history {
		if r == route {
			return i
		}
	}
	return -1
}

func (n *Navigator) isTopRoute(route *RouteBase) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.history) > 0 && n.history[len(n.history)-1].base() == route
}

func (n *Navigator) isBottomRoute(route *RouteBase) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.history) > 0 && n.history[0].base() == route
}

func (n *Navigator) containsRoute(route *RouteBase) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, r := range n.history {
		if r.base() == route {
			return true
		}
	}
	return false
}

func splitPath(name string) []string {
	var parts []string
	for _, part := range strings.Split(name, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
