// Package sdlsurface realizes a navigator's overlay in an SDL window.
// The navigator stays unaware of pixels: this package owns the window,
// the renderer, and the per-frame compositing of visible layers.
package sdlsurface

import (
	"sync"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/BrandonKowalski/sfoglia/pkg/sfoglia"
	"github.com/BrandonKowalski/sfoglia/pkg/sfoglia/internal"
)

// WindowOptions selects SDL window flags.
type WindowOptions struct {
	Width             int32 // Window width; 0 uses the current display mode
	Height            int32 // Window height; 0 uses the current display mode
	Borderless        bool  // Remove window decorations (SDL_WINDOW_BORDERLESS)
	Resizable         bool  // Allow window resizing (SDL_WINDOW_RESIZABLE)
	Fullscreen        bool  // Fullscreen mode (SDL_WINDOW_FULLSCREEN)
	FullscreenDesktop bool  // Fullscreen at desktop resolution (SDL_WINDOW_FULLSCREEN_DESKTOP)
	AlwaysOnTop       bool  // Window stays above others (SDL_WINDOW_ALWAYS_ON_TOP)
	Hidden            bool  // Start hidden (omits SDL_WINDOW_SHOWN)
}

func (wo WindowOptions) toSDLFlags() uint32 {
	var flags uint32

	if !wo.Hidden {
		flags |= sdl.WINDOW_SHOWN
	}
	if wo.Resizable {
		flags |= sdl.WINDOW_RESIZABLE
	}
	if wo.Borderless {
		flags |= sdl.WINDOW_BORDERLESS
	}
	if wo.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN
	}
	if wo.FullscreenDesktop {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}
	if wo.AlwaysOnTop {
		flags |= sdl.WINDOW_ALWAYS_ON_TOP
	}

	return flags
}

// Drawer is implemented by layers that draw pixels. Layers without it
// still participate in ordering and visibility.
type Drawer interface {
	Draw(renderer *sdl.Renderer)
}

// Surface is an SDL-backed compositing target. Visible layers are drawn
// bottom to top each Frame.
type Surface struct {
	window   *sdl.Window
	renderer *sdl.Renderer

	mu     sync.Mutex
	layers []sfoglia.Layer

	hasVSync        bool
	lastPresentTime uint64
}

// New initializes SDL video and creates a window-backed surface.
func New(title string, opts WindowOptions) (*Surface, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, err
	}

	width, height := opts.Width, opts.Height
	if width == 0 || height == 0 {
		displayMode, err := sdl.GetCurrentDisplayMode(0)
		if err != nil {
			internal.GetInternalLogger().Error("failed to get display mode", "error", err)
			width, height = 1024, 768
		} else {
			width, height = displayMode.W, displayMode.H
		}
	}

	internal.GetInternalLogger().Debug("initializing SDL window", "width", width, "height", height)

	window, err := sdl.CreateWindow(title, 0, 0, width, height, opts.toSDLFlags())
	if err != nil {
		return nil, err
	}

	renderer, err := sdl.CreateRenderer(window, -1,
		sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC|sdl.RENDERER_TARGETTEXTURE)
	if err != nil {
		window.Destroy()
		return nil, err
	}
	renderer.SetLogicalSize(width, height)

	info, err := renderer.GetInfo()
	vsync := err == nil && info.Flags&sdl.RENDERER_PRESENTVSYNC != 0

	return &Surface{
		window:   window,
		renderer: renderer,
		hasVSync: vsync,
	}, nil
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

// Renderer returns the SDL renderer for layer construction.
func (s *Surface) Renderer() *sdl.Renderer {
	return s.renderer
}

// Width returns the window width.
func (s *Surface) Width() int32 {
	w, _ := s.window.GetSize()
	return w
}

// Height returns the window height.
func (s *Surface) Height() int32 {
	_, h := s.window.GetSize()
	return h
}

// Frame clears the target and draws every visible layer, bottom to top,
// then presents.
func (s *Surface) Frame() {
	s.renderer.SetDrawColor(0, 0, 0, 255)
	s.renderer.Clear()

	s.mu.Lock()
	layers := make([]sfoglia.Layer, len(s.layers))
	copy(layers, s.layers)
	s.mu.Unlock()

	for _, l := range layers {
		layer, ok := l.(*Layer)
		if ok && !layer.Visible() {
			continue
		}
		if d, ok := l.(Drawer); ok {
			d.Draw(s.renderer)
		}
	}

	s.present()
}

// present swaps the render buffer and enforces ~60fps frame timing when
// VSync is not available.
func (s *Surface) present() {
	s.renderer.Present()
	if !s.hasVSync {
		now := sdl.GetTicks64()
		if elapsed := now - s.lastPresentTime; elapsed < 16 {
			sdl.Delay(uint32(16 - elapsed))
		}
		s.lastPresentTime = sdl.GetTicks64()
	}
}

// Destroy releases the renderer, the window, and SDL itself.
func (s *Surface) Destroy() {
	s.renderer.Destroy()
	s.window.Destroy()
	sdl.Quit()
}

// Layer is a drawable SDL layer. Draw runs only while the layer is
// visible.
type Layer struct {
	mu      sync.Mutex
	visible bool
	draw    func(renderer *sdl.Renderer)
}

// NewLayer creates a layer from a draw function.
func NewLayer(draw func(renderer *sdl.Renderer)) *Layer {
	return &Layer{draw: draw}
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

func (l *Layer) Draw(renderer *sdl.Renderer) {
	if l.draw != nil {
		l.draw(renderer)
	}
}
