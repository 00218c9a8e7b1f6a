// Package teasurface realizes a navigator's overlay in a terminal. It is
// built for bubbletea programs: the surface's View method returns the
// composited stack as a string, ready to be returned from a tea.Model's
// own View.
package teasurface

import (
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/BrandonKowalski/sfoglia/pkg/sfoglia"
)

// Viewer is implemented by layers that contribute text to the composite.
// Layers without it still participate in ordering and visibility but
// render nothing.
type Viewer interface {
	View() string
}

// Surface composites layers vertically, bottom of the stack first. A
// terminal cannot alpha-blend, so "stacked" here means visible layers
// are drawn one above the other in stack order; an opaque route hides
// everything beneath it exactly as it would on a pixel surface.
type Surface struct {
	mu     sync.Mutex
	layers []sfoglia.Layer
}

// New creates an empty terminal surface.
func New() *Surface {
	return &Surface{}
}

func (s *Surface) AttachLayer(layer sfoglia.Layer, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
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

func (s *Surface) DetachLayer(layer sfoglia.Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.layers {
		if l == layer {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			return
		}
	}
}

// LayerCount returns the number of attached layers.
func (s *Surface) LayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.layers)
}

// View returns the composited stack.
func (s *Surface) View() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var views []string
	for _, l := range s.layers {
		layer, ok := l.(*Layer)
		if ok && !layer.Visible() {
			continue
		}
		if v, ok := l.(Viewer); ok {
			if out := v.View(); out != "" {
				views = append(views, out)
			}
		}
	}
	if len(views) == 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, views...)
}

// Layer is a string-rendering layer with a lipgloss style.
type Layer struct {
	mu      sync.Mutex
	visible bool
	style   lipgloss.Style
	render  func() string
}

// NewLayer creates a layer that renders the given function's output
// through style.
func NewLayer(style lipgloss.Style, render func() string) *Layer {
	return &Layer{style: style, render: render}
}

func (l *Layer) SetVisible(visible bool) {
	l.mu.Lock()
	l.visible = visible
	l.mu.Unlock()
}

// Visible reports whether the layer is currently on stage.
func (l *Layer) Visible() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visible
}

// View renders the layer's content.
func (l *Layer) View() string {
	if l.render == nil {
		return ""
	}
	return l.style.Render(l.render())
}
