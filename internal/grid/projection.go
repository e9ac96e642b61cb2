package grid

import (
	"math"

	"github.com/platemap-hts/platemap/internal/viewer"
)

// ZoomOffset is subtracted from the smaller grid dimension to get the
// click-to-zoom factor. Empirical; changing it alters the framing of every
// navigation.
const ZoomOffset = 0.3

// Extent is the pixel size of the plate image.
type Extent struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Band is a half-open interval [Start, End).
type Band struct {
	Start float64
	End   float64
}

// Width returns End - Start.
func (b Band) Width() float64 { return b.End - b.Start }

// GridBand returns the band owned by position in an equal-width layout of
// count labels over extent. Padding is left to the renderer.
func GridBand(position, count int, extent float64) Band {
	if count <= 0 {
		return Band{}
	}
	step := extent / float64(count)
	return Band{
		Start: float64(position) * step,
		End:   float64(position+1) * step,
	}
}

// midpoint is the odd ordinal 2*pos+1 of a cell's centre in half-cell units.
func midpoint(pos int) float64 {
	return float64(2*pos + 1)
}

// PixelCenter returns the pixel coordinate of a well's cell centre:
// x = (2*colPos+1) * W / (2*colCount), and likewise for y with rows and H.
func PixelCenter(rowPos, colPos, rowCount, colCount int, ext Extent) viewer.Point {
	return viewer.Point{
		X: midpoint(colPos) * ext.Width / float64(2*colCount),
		Y: midpoint(rowPos) * ext.Height / float64(2*rowCount),
	}
}

// ToViewport maps a well's grid position to the centre of its cell in the
// viewer's viewport coordinates. Navigation and overlay markers must both go
// through here.
func ToViewport(conv viewer.Converter, rowPos, colPos, rowCount, colCount int, ext Extent) viewer.Point {
	px := PixelCenter(rowPos, colPos, rowCount, colCount, ext)
	return conv.ImageToViewportCoordinates(px.X, px.Y)
}

// CellRect returns a well's cell in viewport coordinates, sharing the pixel
// mapping of ToViewport: the centre of the returned rect equals ToViewport.
func CellRect(conv viewer.Converter, rowPos, colPos, rowCount, colCount int, ext Extent) viewer.Rect {
	cellW := ext.Width / float64(colCount)
	cellH := ext.Height / float64(rowCount)
	origin := conv.ImageToViewportCoordinates(float64(colPos)*cellW, float64(rowPos)*cellH)
	far := conv.ImageToViewportCoordinates(float64(colPos+1)*cellW, float64(rowPos+1)*cellH)
	return viewer.Rect{
		X:      origin.X,
		Y:      origin.Y,
		Width:  far.X - origin.X,
		Height: far.Y - origin.Y,
	}
}

// ZoomLevel returns the zoom factor applied after panning to a well.
func ZoomLevel(rowCount, colCount int) float64 {
	return math.Min(float64(rowCount), float64(colCount)) - ZoomOffset
}
