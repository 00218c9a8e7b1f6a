package sfoglia

import (
	"testing"
	"time"
)

func newManualRoute(name string, opaque bool) (*TransitionRoute, *ManualTransition) {
	controller := &ManualTransition{}
	r := NewTransitionRoute(func() []*Entry {
		return []*Entry{NewEntry(namedLayerBuilder(name), false)}
	}, opaque, controller)
	return r, controller
}

func TestTransitionEntranceFlipsOpacity(t *testing.T) {
	nav, _ := newBareNavigator(Options{})
	r, controller := newManualRoute("a", true)
	mustPush(t, nav, r)

	entry := r.Entries()[0]
	if entry.Opaque() {
		t.Fatal("entry should be translucent while the entrance runs")
	}
	if controller.Status() != TransitionForward {
		t.Fatalf("status = %v, want forward", controller.Status())
	}

	controller.Finish()
	if !entry.Opaque() {
		t.Fatal("entry should take the route's opacity once completed")
	}
}

func TestTransitionPushSignal(t *testing.T) {
	nav, _ := newBareNavigator(Options{})
	r, controller := newManualRoute("a", true)
	mustPush(t, nav, r)

	sig := r.PushCompleted()
	if sig.Completed() {
		t.Fatal("push signal should not fire before the entrance completes")
	}
	controller.Finish()
	if !sig.Completed() {
		t.Fatal("push signal should fire when the entrance completes")
	}
}

func TestTwoPhaseRemoval(t *testing.T) {
	nav, _ := newBareNavigator(Options{})
	a := newTestRoute("a")
	r, controller := newManualRoute("b", true)
	mustPush(t, nav, a)
	popped := mustPush(t, nav, r)
	controller.Finish()

	if _, err := nav.Pop("done"); err != nil {
		t.Fatalf("pop: %v", err)
	}

	// Phase one: gone from history, still on stage.
	assertHistory(t, nav, a)
	if !popped.Resolved() || popped.Value() != "done" {
		t.Fatalf("popped future = %v resolved=%v, want done", popped.Value(), popped.Resolved())
	}
	if len(r.Entries()) == 0 {
		t.Fatal("entries should survive until the exit finishes")
	}
	if r.Completed().Completed() {
		t.Fatal("completed signal must not fire mid-exit")
	}
	if controller.Status() != TransitionReverse {
		t.Fatalf("status = %v, want reverse", controller.Status())
	}

	// Phase two: the exit finishes and the navigator finalizes.
	controller.Finish()
	if len(r.Entries()) != 0 {
		t.Fatal("entries should be detached after finalize")
	}
	if !r.Completed().Completed() {
		t.Fatal("completed signal should fire after teardown")
	}
}

func TestPoppedResolvesBeforeCompleted(t *testing.T) {
	nav, _ := newBareNavigator(Options{})
	mustPush(t, nav, newTestRoute("a"))
	r, controller := newManualRoute("b", true)
	popped := mustPush(t, nav, r)
	controller.Finish()

	orderings := make(chan string, 2)
	go func() {
		<-popped.Done()
		orderings <- "popped"
	}()
	go func() {
		<-r.Completed().Done()
		orderings <- "completed"
	}()

	if _, err := nav.Pop(nil); err != nil {
		t.Fatalf("pop: %v", err)
	}
	first := <-orderings
	if first != "popped" {
		t.Fatalf("first resolution = %s, want popped", first)
	}
	controller.Finish()
	select {
	case second := <-orderings:
		if second != "completed" {
			t.Fatalf("second resolution = %s, want completed", second)
		}
	case <-time.After(time.Second):
		t.Fatal("completed signal never fired")
	}
}

func TestPopCancelsEntrance(t *testing.T) {
	nav, _ := newBareNavigator(Options{})
	mustPush(t, nav, newTestRoute("a"))
	r, controller := newManualRoute("b", true)
	mustPush(t, nav, r)

	// Pop arrives before the entrance completed.
	if _, err := nav.Pop(nil); err != nil {
		t.Fatalf("pop: %v", err)
	}
	if controller.Status() != TransitionReverse {
		t.Fatalf("status = %v, want reverse", controller.Status())
	}
	controller.Finish()
	if len(r.Entries()) != 0 {
		t.Fatal("route should be finalized after the cancelled entrance exits")
	}
}

func TestInstantTransitionPopFinalizesInline(t *testing.T) {
	nav, _ := newBareNavigator(Options{})
	mustPush(t, nav, newTestRoute("a"))
	r := NewTransitionRoute(func() []*Entry {
		return []*Entry{NewEntry(namedLayerBuilder("b"), false)}
	}, true, nil)
	mustPush(t, nav, r)

	if _, err := nav.Pop(nil); err != nil {
		t.Fatalf("pop: %v", err)
	}
	// The instant exit dismisses synchronously inside Pop; the deferred
	// finalize queue must still tear the route down by the time Pop
	// returns.
	if len(r.Entries()) != 0 {
		t.Fatal("entries should be detached")
	}
	if !r.Completed().Completed() {
		t.Fatal("completed signal should fire")
	}
}

func TestTimedTransition(t *testing.T) {
	controller := NewTimedTransition(10 * time.Millisecond)
	statuses := make(chan TransitionStatus, 4)
	controller.SetStatusListener(func(s TransitionStatus) { statuses <- s })

	controller.Forward()
	if got := <-statuses; got != TransitionForward {
		t.Fatalf("status = %v, want forward", got)
	}
	select {
	case got := <-statuses:
		if got != TransitionCompleted {
			t.Fatalf("status = %v, want completed", got)
		}
	case <-time.After(time.Second):
		t.Fatal("entrance never completed")
	}

	controller.Reverse()
	if got := <-statuses; got != TransitionReverse {
		t.Fatalf("status = %v, want reverse", got)
	}
	select {
	case got := <-statuses:
		if got != TransitionDismissed {
			t.Fatalf("status = %v, want dismissed", got)
		}
	case <-time.After(time.Second):
		t.Fatal("exit never completed")
	}
}

func TestTimedTransitionReverseCancelsForward(t *testing.T) {
	controller := NewTimedTransition(50 * time.Millisecond)
	statuses := make(chan TransitionStatus, 4)
	controller.SetStatusListener(func(s TransitionStatus) { statuses <- s })

	controller.Forward()
	<-statuses // forward
	controller.Reverse()
	<-statuses // reverse

	select {
	case got := <-statuses:
		if got != TransitionDismissed {
			t.Fatalf("status = %v, want dismissed (entrance must not complete)", got)
		}
	case <-time.After(time.Second):
		t.Fatal("exit never completed")
	}
}

// countingTransition counts listener registrations on top of a manual
// controller.
type countingTransition struct {
	ManualTransition
	registrations int
}

func (t *countingTransition) SetStatusListener(fn func(TransitionStatus)) {
	t.registrations++
	t.ManualTransition.SetStatusListener(fn)
}

func TestTransitionListenerRegisteredOnce(t *testing.T) {
	controller := &countingTransition{}
	r := NewTransitionRoute(func() []*Entry {
		return []*Entry{NewEntry(namedLayerBuilder("a"), false)}
	}, true, controller)

	r.Controller()
	r.PushCompleted()
	r.Completed()

	nav, _ := newBareNavigator(Options{})
	mustPush(t, nav, newTestRoute("base"))
	mustPush(t, nav, r)
	controller.Finish()
	if _, err := nav.Pop(nil); err != nil {
		t.Fatalf("pop: %v", err)
	}
	controller.Finish()

	if controller.registrations != 1 {
		t.Fatalf("listener registrations = %d, want 1", controller.registrations)
	}
}

func TestCompletedWaiterConcurrentWithPop(t *testing.T) {
	nav, _ := newBareNavigator(Options{})
	mustPush(t, nav, newTestRoute("a"))
	r, controller := newManualRoute("b", true)
	mustPush(t, nav, r)
	controller.Finish()

	// A separate goroutine fetches the completed future to wait on it
	// while the navigator drives the pop, as a host application would.
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-r.Completed().Done()
	}()

	if _, err := nav.Pop(nil); err != nil {
		t.Fatalf("pop: %v", err)
	}
	controller.Finish()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("completed waiter never woke")
	}
}

func TestStatusChangeOnDetachedEntry(t *testing.T) {
	nav, _ := newBareNavigator(Options{})
	r, controller := newManualRoute("a", true)
	mustPush(t, nav, r)

	if err := r.Entries()[0].Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}

	// Both the terminal and the mid-flight branches must survive an
	// entry that lost its overlay.
	controller.Finish()
	controller.Reverse()
}

func TestModalRouteBarrier(t *testing.T) {
	nav, surface := newBareNavigator(Options{})
	mustPush(t, nav, newTestRoute("a"))

	modal := NewModalRoute(ModalConfig{
		Builder:            namedLayerBuilder("page"),
		BarrierBuilder:     namedLayerBuilder("barrier"),
		BarrierDismissible: true,
	})
	mustPush(t, nav, modal)

	names := surface.layerNames()
	want := []string{"a", "barrier", "page"}
	if len(names) != len(want) {
		t.Fatalf("layer names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("layer names = %v, want %v", names, want)
		}
	}

	if !modal.HandleBarrierTap() {
		t.Fatal("barrier tap on a dismissible modal should pop")
	}
	if len(nav.History()) != 1 {
		t.Fatalf("history length = %d, want 1", len(nav.History()))
	}
}

func TestModalRouteBarrierNotDismissible(t *testing.T) {
	nav, _ := newBareNavigator(Options{})
	mustPush(t, nav, newTestRoute("a"))
	modal := NewModalRoute(ModalConfig{Builder: namedLayerBuilder("page")})
	mustPush(t, nav, modal)

	if modal.HandleBarrierTap() {
		t.Fatal("non-dismissible modal must ignore barrier taps")
	}
	if len(nav.History()) != 2 {
		t.Fatal("history must be unchanged")
	}
}

func TestModalRouteInvalidateOnPreviousChange(t *testing.T) {
	nav, _ := newBareNavigator(Options{})
	invalidated := 0
	a := newTestRoute("a")
	modal := NewModalRoute(ModalConfig{
		Builder:      namedLayerBuilder("page"),
		OnInvalidate: func() { invalidated++ },
	})
	mustPush(t, nav, a)
	mustPush(t, nav, modal)

	d := newTestRoute("d")
	if err := nav.Replace(a, d); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if invalidated == 0 {
		t.Fatal("modal should be invalidated when its lower neighbor changes")
	}
}

func TestModalRouteLocalHistory(t *testing.T) {
	nav, _ := newBareNavigator(Options{})
	mustPush(t, nav, newTestRoute("a"))
	modal := NewModalRoute(ModalConfig{Builder: namedLayerBuilder("page")})
	mustPush(t, nav, modal)

	modal.AddLocalHistoryEntry(&LocalHistoryEntry{})
	if !modal.WillHandlePopInternally() {
		t.Fatal("modal with local entries should handle pops internally")
	}
	if _, err := nav.Pop(nil); err != nil {
		t.Fatalf("pop: %v", err)
	}
	if len(nav.History()) != 2 {
		t.Fatal("absorbed pop must not remove the modal")
	}
	if modal.Popped().Resolved() {
		t.Fatal("absorbed pop must not resolve the popped future")
	}
}
