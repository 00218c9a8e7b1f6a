package sfoglia

import (
	"testing"
)

// testLayer records the visibility the overlay computes for it.
type testLayer struct {
	name    string
	visible bool
}

func (l *testLayer) SetVisible(visible bool) {
	l.visible = visible
}

// testSurface records attach/detach traffic in order.
type testSurface struct {
	layers []Layer
}

func (s *testSurface) AttachLayer(layer Layer, index int) {
	if index < 0 {
		index = 0
	}
	if index > len(s.layers) {
		index = len(s.layers)
	}
	s.layers = append(s.layers, nil)
	copy(s.layers[index+1:], s.layers[index:])
	s.layers[index] = layer
}

func (s *testSurface) DetachLayer(layer Layer) {
	for i, l := range s.layers {
		if l == layer {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			return
		}
	}
}

func (s *testSurface) layerCount() int {
	return len(s.layers)
}

func (s *testSurface) layerNames() []string {
	var names []string
	for _, l := range s.layers {
		if tl, ok := l.(*testLayer); ok {
			names = append(names, tl.name)
		}
	}
	return names
}

func namedLayerBuilder(name string) LayerBuilder {
	return func(ctx *BuildContext) Layer {
		return &testLayer{name: name}
	}
}

// newTestRoute creates a plain route holding a single opaque layer.
func newTestRoute(name string) *RouteBase {
	return NewRoute(func() []*Entry {
		return []*Entry{NewEntry(namedLayerBuilder(name), true)}
	})
}

// newBareNavigator builds an attached navigator without running the
// initial-route bootstrap, so stack scenarios start from an empty
// history.
func newBareNavigator(opts Options) (*Navigator, *testSurface) {
	nav := New(opts)
	surface := &testSurface{}
	nav.overlay = NewOverlay(surface)
	nav.overlay.nav = nav
	nav.attached.Store(true)
	return nav, surface
}

func mustPush(t *testing.T, nav *Navigator, route Route) *Result {
	t.Helper()
	result, err := nav.Push(route)
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	return result
}

func historyRoutes(nav *Navigator) []Route {
	return nav.History()
}

func assertHistory(t *testing.T, nav *Navigator, want ...Route) {
	t.Helper()
	got := historyRoutes(nav)
	if len(got) != len(want) {
		t.Fatalf("history length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("history[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
