package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModel_InvalidExtent(t *testing.T) {
	_, err := NewModel(0, 10)
	assert.Error(t, err)
}

func TestModel_CoordinateRoundTrip(t *testing.T) {
	m, err := NewModel(4000, 3000)
	require.NoError(t, err)

	p := m.ImageToViewportCoordinates(1000, 1500)
	assert.InDelta(t, 0.25, p.X, 1e-12)
	assert.InDelta(t, 0.375, p.Y, 1e-12)

	x, y := m.ViewportToImageCoordinates(p)
	assert.InDelta(t, 1000, x, 1e-9)
	assert.InDelta(t, 1500, y, 1e-9)
}

func TestModel_Navigation(t *testing.T) {
	m, err := NewModel(2000, 1000)
	require.NoError(t, err)

	home := m.Bounds()
	assert.InDelta(t, 0, home.X, 1e-12)
	assert.InDelta(t, 0, home.Y, 1e-12)
	assert.InDelta(t, 1, home.Width, 1e-12)
	assert.InDelta(t, 0.5, home.Height, 1e-12)

	m.PanTo(Point{X: 0.25, Y: 0.1}, true)
	m.ZoomBy(4, true)
	assert.Equal(t, Point{X: 0.25, Y: 0.1}, m.Center())
	assert.InDelta(t, 4, m.Zoom(), 1e-12)

	b := m.Bounds()
	assert.InDelta(t, 0.125, b.X, 1e-12)
	assert.InDelta(t, 0.25, b.Width, 1e-12)

	m.GoHome(false)
	assert.InDelta(t, 1, m.Zoom(), 1e-12)
	assert.Equal(t, []string{"panTo", "zoomBy", "goHome"}, m.History())
}

func TestModel_MaxZoom(t *testing.T) {
	m, err := NewModel(100, 100)
	require.NoError(t, err)
	m.MaxZoom = 3
	m.ZoomBy(10, false)
	assert.InDelta(t, 3, m.Zoom(), 1e-12)
	m.ZoomBy(-1, false)
	assert.InDelta(t, 3, m.Zoom(), 1e-12)
}

func TestModel_RaiseEventRunsHandlers(t *testing.T) {
	m, err := NewModel(100, 100)
	require.NoError(t, err)

	calls := 0
	m.AddHandler(EventUpdateViewport, func() { calls++ })
	m.RaiseEvent(EventUpdateViewport)
	m.RaiseEvent("other")

	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{EventUpdateViewport, "other"}, m.Events())
}
