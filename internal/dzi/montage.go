package dzi

import (
	"fmt"
	"image"

	"github.com/platemap-hts/platemap/internal/grid"
)

// Montage padding in pixels.
const (
	PaddingFOV  = 5
	PaddingWell = 30
)

// Montage is the layout of a plate image assembled from per-well field of
// view (FOV) tiles: PlateCols x PlateRows wells, each a WellCols x WellRows
// grid of ImageWidth x ImageHeight FOVs.
type Montage struct {
	PlateCols   int `yaml:"plate_cols" json:"plate_cols"`
	PlateRows   int `yaml:"plate_rows" json:"plate_rows"`
	WellCols    int `yaml:"well_cols" json:"well_cols"`
	WellRows    int `yaml:"well_rows" json:"well_rows"`
	ImageWidth  int `yaml:"image_width" json:"image_width"`
	ImageHeight int `yaml:"image_height" json:"image_height"`
}

// DefaultMontage is a 384-well plate with 4x4 FOVs of 1104 px.
func DefaultMontage() Montage {
	return Montage{
		PlateCols:   24,
		PlateRows:   16,
		WellCols:    4,
		WellRows:    4,
		ImageWidth:  1104,
		ImageHeight: 1104,
	}
}

// Validate checks every dimension is positive.
func (m Montage) Validate() error {
	if m.PlateCols <= 0 || m.PlateRows <= 0 {
		return fmt.Errorf("dzi: plate dimensions must be positive, got %dx%d", m.PlateCols, m.PlateRows)
	}
	if m.WellCols <= 0 || m.WellRows <= 0 {
		return fmt.Errorf("dzi: well dimensions must be positive, got %dx%d", m.WellCols, m.WellRows)
	}
	if m.ImageWidth <= 0 || m.ImageHeight <= 0 {
		return fmt.Errorf("dzi: image dimensions must be positive, got %dx%d", m.ImageWidth, m.ImageHeight)
	}
	return nil
}

// WellSize is the pixel size of one well's FOV mosaic.
func (m Montage) WellSize() (width, height int) {
	width = m.ImageWidth*m.WellCols + PaddingFOV*(m.WellCols-1)
	height = m.ImageHeight*m.WellRows + PaddingFOV*(m.WellRows-1)
	return width, height
}

// Size is the pixel size of the whole plate montage.
func (m Montage) Size() (width, height int) {
	ww, wh := m.WellSize()
	width = ww*m.PlateCols + PaddingWell*(m.PlateCols-1)
	height = wh*m.PlateRows + PaddingWell*(m.PlateRows-1)
	return width, height
}

// Extent returns Size as the heatmap's image extent.
func (m Montage) Extent() grid.Extent {
	w, h := m.Size()
	return grid.Extent{Width: float64(w), Height: float64(h)}
}

// WellBounds returns the pixel rectangle of the well at zero-based (row, col).
func (m Montage) WellBounds(row, col int) (image.Rectangle, error) {
	if row < 0 || row >= m.PlateRows || col < 0 || col >= m.PlateCols {
		return image.Rectangle{}, fmt.Errorf("dzi: well (%d, %d) outside %dx%d plate", row, col, m.PlateRows, m.PlateCols)
	}
	ww, wh := m.WellSize()
	x := col * (ww + PaddingWell)
	y := row * (wh + PaddingWell)
	return image.Rect(x, y, x+ww, y+wh), nil
}

// FOVBounds returns the pixel rectangle of field fov inside a well, relative
// to the well origin. FOVs fill the well row by row.
func (m Montage) FOVBounds(fov int) (image.Rectangle, error) {
	if fov < 0 || fov >= m.WellCols*m.WellRows {
		return image.Rectangle{}, fmt.Errorf("dzi: fov %d outside %dx%d well", fov, m.WellCols, m.WellRows)
	}
	c := fov % m.WellCols
	r := fov / m.WellCols
	x := c * (m.ImageWidth + PaddingFOV)
	y := r * (m.ImageHeight + PaddingFOV)
	return image.Rect(x, y, x+m.ImageWidth, y+m.ImageHeight), nil
}

// Descriptor returns the pyramid descriptor of the montage image.
func (m Montage) Descriptor(tileSize, overlap int, format string) Descriptor {
	w, h := m.Size()
	return Descriptor{Width: w, Height: h, TileSize: tileSize, Overlap: overlap, Format: format}
}
