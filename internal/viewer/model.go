package viewer

import (
	"fmt"
	"sync"
)

// Model is an in-memory viewer following the Deep Zoom convention: the image
// spans viewport x in [0, 1] and y in [0, H/W], so both axes are normalised
// by the image width.
type Model struct {
	width  float64
	height float64

	// MaxZoom caps ZoomBy when positive.
	MaxZoom float64

	mu       sync.Mutex
	center   Point
	zoom     float64
	events   []string
	history  []string
	handlers map[string][]func()
}

// NewModel creates a viewer for an image of the given pixel extent, starting
// at the home view.
func NewModel(width, height float64) (*Model, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("viewer: image extent must be positive, got %gx%g", width, height)
	}
	m := &Model{
		width:    width,
		height:   height,
		handlers: make(map[string][]func()),
	}
	m.home()
	return m, nil
}

// ImageToViewportCoordinates converts image pixels to viewport units.
func (m *Model) ImageToViewportCoordinates(x, y float64) Point {
	return Point{X: x / m.width, Y: y / m.width}
}

// ViewportToImageCoordinates is the inverse of ImageToViewportCoordinates.
func (m *Model) ViewportToImageCoordinates(p Point) (x, y float64) {
	return p.X * m.width, p.Y * m.width
}

// PanTo centres the view on p.
func (m *Model) PanTo(p Point, animate bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.center = p
	m.history = append(m.history, "panTo")
}

// ZoomBy multiplies the current zoom by factor. Non-positive factors are ignored.
func (m *Model) ZoomBy(factor float64, animate bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, "zoomBy")
	if factor <= 0 {
		return
	}
	m.zoom *= factor
	if m.MaxZoom > 0 && m.zoom > m.MaxZoom {
		m.zoom = m.MaxZoom
	}
}

// GoHome resets the view so the whole image is visible.
func (m *Model) GoHome(animate bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.home()
	m.history = append(m.history, "goHome")
}

func (m *Model) home() {
	m.center = Point{X: 0.5, Y: m.height / (2 * m.width)}
	m.zoom = 1
}

// RaiseEvent records name and runs its handlers synchronously.
func (m *Model) RaiseEvent(name string) {
	m.mu.Lock()
	m.events = append(m.events, name)
	hs := append([]func(){}, m.handlers[name]...)
	m.mu.Unlock()

	for _, h := range hs {
		h()
	}
}

// AddHandler registers fn to run whenever name is raised.
func (m *Model) AddHandler(name string, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[name] = append(m.handlers[name], fn)
}

// Center returns the current view centre.
func (m *Model) Center() Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.center
}

// Zoom returns the current zoom factor relative to home.
func (m *Model) Zoom() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.zoom
}

// Bounds returns the visible viewport rectangle.
func (m *Model) Bounds() Rect {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := 1 / m.zoom
	h := (m.height / m.width) / m.zoom
	return Rect{X: m.center.X - w/2, Y: m.center.Y - h/2, Width: w, Height: h}
}

// Events returns the names raised so far.
func (m *Model) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

// History returns the navigation calls made so far, oldest first.
func (m *Model) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history...)
}
