package sfoglia

// LocalHistoryEntry is one item of a route-internal back stack. While an
// entry is live its owner always points back at the route holding it.
type LocalHistoryEntry struct {
	// OnRemove runs when the entry is removed, whether by an absorbed pop
	// or an explicit RemoveLocalHistoryEntry call.
	OnRemove func()

	owner *localHistory
}

// localHistory is the capability component behind LocalHistoryRoute and
// ModalRoute: an internal sub-stack that absorbs pops before the route
// itself is popped. Capabilities compose by explicit delegation, so route
// types that include it override WillPop/DidPop/WillHandlePopInternally
// themselves and fall back to their embedded base.
type localHistory struct {
	entries []*LocalHistoryEntry

	// onEmptied fires when an absorbed pop removes the last entry, so the
	// route can signal a changed internal state.
	onEmptied func()
}

func (h *localHistory) hasEntries() bool {
	return len(h.entries) > 0
}

func (h *localHistory) add(entry *LocalHistoryEntry) {
	entry.owner = h
	h.entries = append(h.entries, entry)
}

func (h *localHistory) remove(entry *LocalHistoryEntry) bool {
	if entry.owner != h {
		return false
	}
	for i, e := range h.entries {
		if e == entry {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			entry.owner = nil
			if entry.OnRemove != nil {
				entry.OnRemove()
			}
			return true
		}
	}
	return false
}

// absorbPop consumes the most recent entry. Returns false when there is
// nothing to absorb and the route itself should be popped.
func (h *localHistory) absorbPop() bool {
	if len(h.entries) == 0 {
		return false
	}
	entry := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	entry.owner = nil
	if entry.OnRemove != nil {
		entry.OnRemove()
	}
	if len(h.entries) == 0 && h.onEmptied != nil {
		h.onEmptied()
	}
	return true
}

// LocalHistoryRoute is a route with an internal back stack. While it has
// local entries, back navigation pops them one at a time; the route is
// only removed from the navigator's history once the sub-stack is empty.
type LocalHistoryRoute struct {
	RouteBase
	local localHistory
}

// NewLocalHistoryRoute creates a local-history route whose entries are
// produced by buildEntries at install time.
func NewLocalHistoryRoute(buildEntries func() []*Entry) *LocalHistoryRoute {
	r := &LocalHistoryRoute{}
	r.buildEntries = buildEntries
	r.init()
	return r
}

// AddLocalHistoryEntry pushes an entry onto the route's internal stack.
// The next pop will remove it instead of the route.
func (r *LocalHistoryRoute) AddLocalHistoryEntry(entry *LocalHistoryEntry) {
	r.local.add(entry)
}

// RemoveLocalHistoryEntry removes a specific entry, firing its OnRemove
// callback. Returns false if the entry does not belong to this route.
func (r *LocalHistoryRoute) RemoveLocalHistoryEntry(entry *LocalHistoryEntry) bool {
	return r.local.remove(entry)
}

// WillPop short-circuits to pop while local entries remain: the
// navigator's Pop still runs, but DidPop will consume a local entry
// instead of removing the route.
func (r *LocalHistoryRoute) WillPop() PopDisposition {
	if r.local.hasEntries() {
		return PopDispositionPop
	}
	return r.RouteBase.WillPop()
}

// DidPop absorbs the pop into the local stack when possible, vetoing the
// route's removal from history.
func (r *LocalHistoryRoute) DidPop(result any) bool {
	if r.local.absorbPop() {
		return false
	}
	return r.RouteBase.DidPop(result)
}

// WillHandlePopInternally is true while the local stack is non-empty.
func (r *LocalHistoryRoute) WillHandlePopInternally() bool {
	return r.local.hasEntries()
}
