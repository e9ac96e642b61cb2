// Package viewer describes the zoomable-image viewer the plate overlay drives,
// and provides an in-memory model of it.
package viewer

// EventUpdateViewport asks the viewer to redraw its overlay.
const EventUpdateViewport = "update-viewport"

// Point is a position in viewport or image pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Converter converts image pixel coordinates into viewport coordinates.
type Converter interface {
	ImageToViewportCoordinates(x, y float64) Point
}

// Viewer is the capability set the plate session calls into. It is the only
// coupling to the image rendering subsystem.
type Viewer interface {
	Converter
	PanTo(p Point, animate bool)
	ZoomBy(factor float64, animate bool)
	GoHome(animate bool)
	RaiseEvent(name string)
}
