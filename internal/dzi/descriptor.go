// Package dzi reads Deep Zoom image descriptors and reproduces the plate
// montage geometry, so the heatmap extent can come from the image the viewer
// actually displays.
package dzi

import (
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
)

// Namespace is the Deep Zoom schema namespace.
const Namespace = "http://schemas.microsoft.com/deepzoom/2008"

// Descriptor defaults.
const (
	DefaultTileSize = 254
	DefaultOverlap  = 1
	DefaultFormat   = "png"
)

var (
	// ErrInvalidDescriptor indicates a descriptor without a usable size.
	ErrInvalidDescriptor = errors.New("dzi: invalid descriptor")
	// ErrInvalidLevel indicates a pyramid level outside [0, NumLevels).
	ErrInvalidLevel = errors.New("dzi: invalid pyramid level")
)

// Descriptor is a parsed .dzi file.
type Descriptor struct {
	Width    int
	Height   int
	TileSize int
	Overlap  int
	Format   string
}

type xmlImage struct {
	XMLName  xml.Name `xml:"Image"`
	Xmlns    string   `xml:"xmlns,attr,omitempty"`
	TileSize *int     `xml:"TileSize,attr"`
	Overlap  *int     `xml:"Overlap,attr"`
	Format   string   `xml:"Format,attr"`
	Size     struct {
		Width  int `xml:"Width,attr"`
		Height int `xml:"Height,attr"`
	} `xml:"Size"`
}

// LoadDescriptor reads a descriptor from path.
func LoadDescriptor(path string) (Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("dzi: open %s: %w", path, err)
	}
	defer f.Close()
	return ParseDescriptor(f)
}

// ParseDescriptor decodes a Deep Zoom XML descriptor. Missing tile attributes
// take the Deep Zoom defaults.
func ParseDescriptor(r io.Reader) (Descriptor, error) {
	var doc xmlImage
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}

	d := Descriptor{
		Width:    doc.Size.Width,
		Height:   doc.Size.Height,
		TileSize: DefaultTileSize,
		Overlap:  DefaultOverlap,
		Format:   doc.Format,
	}
	if doc.TileSize != nil {
		d.TileSize = *doc.TileSize
	}
	if doc.Overlap != nil {
		d.Overlap = *doc.Overlap
	}
	if d.Format == "" {
		d.Format = DefaultFormat
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// Validate checks the descriptor can address a pyramid.
func (d Descriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidDescriptor, d.Width, d.Height)
	}
	if d.TileSize <= 0 {
		return fmt.Errorf("%w: tile size %d", ErrInvalidDescriptor, d.TileSize)
	}
	if d.Overlap < 0 {
		return fmt.Errorf("%w: overlap %d", ErrInvalidDescriptor, d.Overlap)
	}
	return nil
}

// WriteTo encodes d as Deep Zoom XML.
func (d Descriptor) WriteTo(w io.Writer) (int64, error) {
	ts, ov := d.TileSize, d.Overlap
	doc := xmlImage{Xmlns: Namespace, TileSize: &ts, Overlap: &ov, Format: d.Format}
	doc.Size.Width = d.Width
	doc.Size.Height = d.Height

	out, err := xml.Marshal(doc)
	if err != nil {
		return 0, err
	}
	n, err := io.WriteString(w, xml.Header+string(out))
	return int64(n), err
}

// NumLevels is the pyramid depth: ceil(log2(max(W, H))) + 1.
func (d Descriptor) NumLevels() int {
	max := d.Width
	if d.Height > max {
		max = d.Height
	}
	if max <= 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(max)))) + 1
}

func (d Descriptor) checkLevel(level int) error {
	if level < 0 || level >= d.NumLevels() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidLevel, level, d.NumLevels())
	}
	return nil
}

// Scale returns the downsampling factor of level relative to full size.
func (d Descriptor) Scale(level int) (float64, error) {
	if err := d.checkLevel(level); err != nil {
		return 0, err
	}
	return math.Pow(0.5, float64(d.NumLevels()-1-level)), nil
}

// Dimensions returns the pixel size of level.
func (d Descriptor) Dimensions(level int) (width, height int, err error) {
	s, err := d.Scale(level)
	if err != nil {
		return 0, 0, err
	}
	return int(math.Ceil(float64(d.Width) * s)), int(math.Ceil(float64(d.Height) * s)), nil
}

// NumTiles returns the tile grid of level as (columns, rows).
func (d Descriptor) NumTiles(level int) (cols, rows int, err error) {
	w, h, err := d.Dimensions(level)
	if err != nil {
		return 0, 0, err
	}
	return ceilDiv(w, d.TileSize), ceilDiv(h, d.TileSize), nil
}

// TileBounds returns the pixel rectangle of one tile, overlap included.
func (d Descriptor) TileBounds(level, col, row int) (image.Rectangle, error) {
	w, h, err := d.Dimensions(level)
	if err != nil {
		return image.Rectangle{}, err
	}

	x := col*d.TileSize - edgeOverlap(col, d.Overlap)
	y := row*d.TileSize - edgeOverlap(row, d.Overlap)
	tw := d.TileSize + spanOverlap(col, d.Overlap)
	th := d.TileSize + spanOverlap(row, d.Overlap)
	if tw > w-x {
		tw = w - x
	}
	if th > h-y {
		th = h - y
	}
	return image.Rect(x, y, x+tw, y+th), nil
}

// TilePath returns the conventional relative path of a tile under the
// descriptor's _files directory.
func (d Descriptor) TilePath(level, col, row int) string {
	return fmt.Sprintf("%d/%d_%d.%s", level, col, row, d.Format)
}

func edgeOverlap(i, overlap int) int {
	if i == 0 {
		return 0
	}
	return overlap
}

func spanOverlap(i, overlap int) int {
	if i == 0 {
		return overlap
	}
	return 2 * overlap
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
