package sfoglia

import (
	"sync"
)

// Layer is the realized visual representation of an overlay entry. The
// engine never draws; it only tells each layer whether it is currently
// on stage. Hidden layers are retained, not destroyed.
type Layer interface {
	SetVisible(visible bool)
}

// Surface is the compositing target an overlay is realized onto. Adapters
// (SDL window, terminal, test fake) implement it; the overlay calls it to
// keep the adapter's layer order in sync with its own.
type Surface interface {
	// AttachLayer inserts a realized layer at the given index, 0 being the
	// bottom of the compositing order.
	AttachLayer(layer Layer, index int)

	// DetachLayer removes a previously attached layer.
	DetachLayer(layer Layer)
}

// BuildContext is passed to layer builders when an entry is realized.
type BuildContext struct {
	Surface   Surface
	Navigator *Navigator
}

// LayerBuilder produces an entry's layer. It is invoked exactly once, at
// insertion time, by the owning overlay.
type LayerBuilder func(ctx *BuildContext) Layer

// Entry is a single layer slot managed by an overlay. An entry with a
// non-nil owner appears in exactly that owner's list, exactly once.
type Entry struct {
	build   LayerBuilder
	opaque  bool
	overlay *Overlay
	layer   Layer
}

// NewEntry creates a standalone entry. It gains an owner when inserted
// into an overlay.
func NewEntry(build LayerBuilder, opaque bool) *Entry {
	return &Entry{build: build, opaque: opaque}
}

// Opaque reports whether the entry hides everything below it.
func (e *Entry) Opaque() bool {
	if e.overlay != nil {
		e.overlay.mu.Lock()
		defer e.overlay.mu.Unlock()
	}
	return e.opaque
}

// SetOpaque changes the entry's opacity and recomputes visibility for the
// owning overlay. Fails if the entry has no owner.
func (e *Entry) SetOpaque(opaque bool) error {
	o := e.overlay
	if o == nil {
		return stackErrorf("entry.setOpaque", "entry has no overlay")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	e.opaque = opaque
	o.recomputeVisibility()
	return nil
}

// Layer returns the realized layer, or nil if the entry has never been
// inserted.
func (e *Entry) Layer() Layer {
	return e.layer
}

// Remove detaches the entry from its overlay. Calling it twice fails: the
// entry no longer has an owner on the second call.
func (e *Entry) Remove() error {
	o := e.overlay
	if o == nil {
		return stackErrorf("entry.remove", "entry has no overlay")
	}
	o.remove(e)
	return nil
}

// Overlay is an ordered list of entries, bottom (index 0) to top, with
// visibility computed from opacity: scanning top-down, every entry up to
// and including the first opaque one is visible, everything below it is
// hidden but retained.
type Overlay struct {
	mu      sync.Mutex
	surface Surface
	nav     *Navigator
	entries []*Entry
}

// NewOverlay creates an overlay realized onto the given surface.
func NewOverlay(surface Surface) *Overlay {
	return &Overlay{surface: surface}
}

// Insert adds entry to the overlay, just above the given entry, or on top
// of everything if above is nil. Fails if entry already has an owner, or
// if above is not currently a member of this overlay.
func (o *Overlay) Insert(entry *Entry, above *Entry) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if entry.overlay != nil {
		return stackErrorf("overlay.insert", "entry already belongs to an overlay")
	}
	index, err := o.insertionIndex(above, "overlay.insert")
	if err != nil {
		return err
	}

	o.insertAt(entry, index)
	o.recomputeVisibility()
	return nil
}

// InsertAll adds entries in order, just above the given entry, or on top
// of everything if above is nil. It is a no-op on empty input and fails
// under the same conditions as Insert. Visibility is recomputed once at
// the end, so a multi-entry push neither flickers nor pays a per-entry
// rescan.
func (o *Overlay) InsertAll(entries []*Entry, above *Entry) error {
	if len(entries) == 0 {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, entry := range entries {
		if entry.overlay != nil {
			return stackErrorf("overlay.insertAll", "entry already belongs to an overlay")
		}
	}
	index, err := o.insertionIndex(above, "overlay.insertAll")
	if err != nil {
		return err
	}

	for i, entry := range entries {
		o.insertAt(entry, index+i)
	}
	o.recomputeVisibility()
	return nil
}

// Entries returns a snapshot of the overlay's entries, bottom to top.
func (o *Overlay) Entries() []*Entry {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*Entry, len(o.entries))
	copy(out, o.entries)
	return out
}

// insertionIndex resolves the slot for a new entry while o.mu is held.
func (o *Overlay) insertionIndex(above *Entry, op string) (int, error) {
	if above == nil {
		return len(o.entries), nil
	}
	if above.overlay != o {
		return 0, stackErrorf(op, "above entry does not belong to this overlay")
	}
	for i, e := range o.entries {
		if e == above {
			return i + 1, nil
		}
	}
	return 0, stackErrorf(op, "above entry not found in overlay")
}

// insertAt realizes the entry's layer and splices it in while o.mu is held.
func (o *Overlay) insertAt(entry *Entry, index int) {
	entry.overlay = o
	entry.layer = entry.build(&BuildContext{Surface: o.surface, Navigator: o.nav})

	o.entries = append(o.entries, nil)
	copy(o.entries[index+1:], o.entries[index:])
	o.entries[index] = entry

	if o.surface != nil && entry.layer != nil {
		o.surface.AttachLayer(entry.layer, index)
	}
}

// remove is invoked only via Entry.Remove.
func (o *Overlay) remove(entry *Entry) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, e := range o.entries {
		if e == entry {
			o.entries = append(o.entries[:i], o.entries[i+1:]...)
			break
		}
	}
	if o.surface != nil && entry.layer != nil {
		o.surface.DetachLayer(entry.layer)
	}
	entry.overlay = nil
	o.recomputeVisibility()
}

// recomputeVisibility runs the top-down onstage scan while o.mu is held.
// O(n) per mutation; InsertAll batches so multi-entry pushes stay O(n).
func (o *Overlay) recomputeVisibility() {
	onstage := true
	for i := len(o.entries) - 1; i >= 0; i-- {
		entry := o.entries[i]
		if entry.layer != nil {
			entry.layer.SetVisible(onstage)
		}
		if onstage && entry.opaque {
			onstage = false
		}
	}
}
