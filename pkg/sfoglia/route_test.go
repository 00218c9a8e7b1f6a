package sfoglia

import (
	"context"
	"testing"
	"time"
)

func TestRoutePoppedFuture(t *testing.T) {
	r := newTestRoute("a")
	result := r.Popped()
	if result.Resolved() {
		t.Fatal("popped future resolved before any pop")
	}

	r.DidComplete("value")
	if !result.Resolved() {
		t.Fatal("popped future should be resolved after DidComplete")
	}
	if result.Value() != "value" {
		t.Fatalf("value = %v, want value", result.Value())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := result.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if v != "value" {
		t.Fatalf("wait value = %v, want value", v)
	}
}

func TestRouteCompletedTwicePanics(t *testing.T) {
	r := newTestRoute("a")
	r.DidComplete(nil)

	defer func() {
		if recover() == nil {
			t.Fatal("second DidComplete must panic")
		}
	}()
	r.DidComplete(nil)
}

func TestRouteDisposedTwicePanics(t *testing.T) {
	r := newTestRoute("a")
	r.Dispose()

	defer func() {
		if recover() == nil {
			t.Fatal("second Dispose must panic")
		}
	}()
	r.Dispose()
}

func TestRoutePositionQueries(t *testing.T) {
	nav, _ := newBareNavigator(Options{})
	a, b := newTestRoute("a"), newTestRoute("b")

	if a.IsActive() || a.IsCurrent() || a.IsFirst() {
		t.Fatal("detached route must not report a position")
	}

	mustPush(t, nav, a)
	mustPush(t, nav, b)

	if !a.IsFirst() || a.IsCurrent() {
		t.Fatal("a should be first and not current")
	}
	if !b.IsCurrent() || b.IsFirst() {
		t.Fatal("b should be current and not first")
	}
	if !a.IsActive() || !b.IsActive() {
		t.Fatal("both routes should be active")
	}
}

func TestDisposeDetachesEntries(t *testing.T) {
	nav, surface := newBareNavigator(Options{})
	a := newTestRoute("a")
	mustPush(t, nav, a)

	if surface.layerCount() != 1 {
		t.Fatalf("layers = %d, want 1", surface.layerCount())
	}
	if err := nav.RemoveRoute(a); err != nil {
		t.Fatalf("removeRoute: %v", err)
	}
	if surface.layerCount() != 0 {
		t.Fatalf("layers = %d, want 0", surface.layerCount())
	}
	if a.Entries() != nil {
		t.Fatal("disposed route should hold no entries")
	}
}

func TestLocalHistoryAbsorbsPop(t *testing.T) {
	nav, _ := newBareNavigator(Options{})
	a := newTestRoute("a")
	r := NewLocalHistoryRoute(func() []*Entry {
		return []*Entry{NewEntry(namedLayerBuilder("lh"), true)}
	})
	mustPush(t, nav, a)
	mustPush(t, nav, r)

	removed := false
	r.AddLocalHistoryEntry(&LocalHistoryEntry{OnRemove: func() { removed = true }})

	if !r.WillHandlePopInternally() {
		t.Fatal("route with local entries should handle pops internally")
	}

	// First pop consumes the local entry; the route stays put.
	popped, err := nav.Pop(nil)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if !popped {
		t.Fatal("absorbed pop still counts as handled")
	}
	if !removed {
		t.Fatal("local entry's OnRemove should have fired")
	}
	assertHistory(t, nav, a, r)

	if r.WillHandlePopInternally() {
		t.Fatal("local stack should be empty now")
	}

	// Second pop removes the route itself.
	if _, err := nav.Pop(nil); err != nil {
		t.Fatalf("pop: %v", err)
	}
	assertHistory(t, nav, a)
}

func TestRemoveLocalHistoryEntry(t *testing.T) {
	r := NewLocalHistoryRoute(nil)
	first := &LocalHistoryEntry{}
	second := &LocalHistoryEntry{}
	r.AddLocalHistoryEntry(first)
	r.AddLocalHistoryEntry(second)

	if !r.RemoveLocalHistoryEntry(first) {
		t.Fatal("removing an owned entry should succeed")
	}
	if r.RemoveLocalHistoryEntry(first) {
		t.Fatal("removing the same entry twice should fail")
	}

	other := NewLocalHistoryRoute(nil)
	if other.RemoveLocalHistoryEntry(second) {
		t.Fatal("removing a foreign entry should fail")
	}
	if !r.WillHandlePopInternally() {
		t.Fatal("the second entry should still be queued")
	}
}

func TestLocalHistoryRouteBubblesWhenEmpty(t *testing.T) {
	nav, _ := newBareNavigator(Options{})
	r := NewLocalHistoryRoute(nil)
	mustPush(t, nav, r)

	if got := r.WillPop(); got != PopDispositionBubble {
		t.Fatalf("empty bottommost local-history route WillPop = %v, want bubble", got)
	}

	r.AddLocalHistoryEntry(&LocalHistoryEntry{})
	if got := r.WillPop(); got != PopDispositionPop {
		t.Fatalf("with local entries WillPop = %v, want pop", got)
	}
}

func TestLayerlessRoute(t *testing.T) {
	nav, surface := newBareNavigator(Options{})
	a := NewRoute(nil)
	mustPush(t, nav, a)

	if surface.layerCount() != 0 {
		t.Fatalf("layers = %d, want 0", surface.layerCount())
	}
	b := newTestRoute("b")
	mustPush(t, nav, b)
	assertHistory(t, nav, a, b)
}
