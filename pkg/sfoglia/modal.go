package sfoglia

// ModalConfig configures a modal route.
type ModalConfig struct {
	// Builder produces the route's page layer.
	Builder LayerBuilder

	// BarrierBuilder, when set, produces the dismiss-on-tap layer placed
	// just below the page layer.
	BarrierBuilder LayerBuilder

	// Opaque hides lower routes while the modal is fully on stage.
	Opaque bool

	// BarrierDismissible pops the route with a nil result when the
	// barrier is tapped.
	BarrierDismissible bool

	// Settings carries the name the route was resolved with.
	Settings RouteSettings

	// Transition drives the enter/exit phases; nil means instant.
	Transition TransitionController

	// OnInvalidate is the host's re-render hook, fired when the route's
	// appearance may have changed (lower neighbor changed, local history
	// emptied). Purely advisory.
	OnInvalidate func()
}

// ModalRoute is a transition route with a barrier, settings metadata, and
// a local-history sub-stack. It is the workhorse route type: almost every
// screen an application pushes is one of these.
type ModalRoute struct {
	TransitionRoute
	local localHistory

	cfg ModalConfig
}

// NewModalRoute creates a modal route from cfg.
func NewModalRoute(cfg ModalConfig) *ModalRoute {
	r := &ModalRoute{cfg: cfg}
	r.Opaque = cfg.Opaque
	r.controller = cfg.Transition
	r.buildEntries = r.createEntries
	r.local.onEmptied = r.invalidate
	r.init()
	r.ensureTransition()
	return r
}

// Settings returns the route's resolution metadata.
func (r *ModalRoute) Settings() RouteSettings {
	return r.cfg.Settings
}

// BarrierDismissible reports whether tapping outside the route pops it.
func (r *ModalRoute) BarrierDismissible() bool {
	return r.cfg.BarrierDismissible
}

func (r *ModalRoute) createEntries() []*Entry {
	var entries []*Entry
	if r.cfg.BarrierBuilder != nil {
		entries = append(entries, NewEntry(r.cfg.BarrierBuilder, false))
	}
	// The page entry starts translucent; the transition flips it to the
	// route's opacity once the entrance completes.
	entries = append(entries, NewEntry(r.cfg.Builder, false))
	return entries
}

// HandleBarrierTap pops the route with a nil result if the barrier is
// dismissible and the route is current. Returns whether a pop happened.
func (r *ModalRoute) HandleBarrierTap() bool {
	if !r.cfg.BarrierDismissible || !r.IsCurrent() {
		return false
	}
	nav := r.Navigator()
	if nav == nil {
		return false
	}
	popped, err := nav.Pop(nil)
	return popped && err == nil
}

// AddLocalHistoryEntry pushes an entry onto the route's internal stack.
func (r *ModalRoute) AddLocalHistoryEntry(entry *LocalHistoryEntry) {
	r.local.add(entry)
}

// RemoveLocalHistoryEntry removes a specific entry, firing its OnRemove
// callback.
func (r *ModalRoute) RemoveLocalHistoryEntry(entry *LocalHistoryEntry) bool {
	return r.local.remove(entry)
}

// WillPop short-circuits to pop while local entries remain; otherwise the
// transition route's default applies.
func (r *ModalRoute) WillPop() PopDisposition {
	if r.local.hasEntries() {
		return PopDispositionPop
	}
	return r.TransitionRoute.WillPop()
}

// DidPop absorbs the pop into the local stack when possible, vetoing the
// route's removal from history.
func (r *ModalRoute) DidPop(result any) bool {
	if r.local.absorbPop() {
		return false
	}
	return r.TransitionRoute.DidPop(result)
}

// WillHandlePopInternally is true while the local stack is non-empty.
func (r *ModalRoute) WillHandlePopInternally() bool {
	return r.local.hasEntries()
}

// DidChangePrevious requests a re-render: what shows through the modal
// may depend on the route below it.
func (r *ModalRoute) DidChangePrevious(previous Route) {
	r.invalidate()
}

func (r *ModalRoute) invalidate() {
	if r.cfg.OnInvalidate != nil {
		r.cfg.OnInvalidate()
	}
}
