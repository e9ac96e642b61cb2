package dzi

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platemap-hts/platemap/internal/grid"
)

const sampleDZI = `<?xml version="1.0" encoding="UTF-8"?>
<Image xmlns="http://schemas.microsoft.com/deepzoom/2008" TileSize="254" Overlap="1" Format="png">
  <Size Width="1000" Height="600"/>
</Image>`

func TestParseDescriptor(t *testing.T) {
	d, err := ParseDescriptor(strings.NewReader(sampleDZI))
	require.NoError(t, err)
	assert.Equal(t, Descriptor{Width: 1000, Height: 600, TileSize: 254, Overlap: 1, Format: "png"}, d)
}

func TestParseDescriptor_Defaults(t *testing.T) {
	d, err := ParseDescriptor(strings.NewReader(`<Image><Size Width="10" Height="5"/></Image>`))
	require.NoError(t, err)
	assert.Equal(t, DefaultTileSize, d.TileSize)
	assert.Equal(t, DefaultOverlap, d.Overlap)
	assert.Equal(t, DefaultFormat, d.Format)
}

func TestParseDescriptor_Invalid(t *testing.T) {
	for name, doc := range map[string]string{
		"not xml":   "garbage",
		"no size":   `<Image TileSize="254"/>`,
		"zero tile": `<Image TileSize="0"><Size Width="1" Height="1"/></Image>`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDescriptor(strings.NewReader(doc))
			assert.True(t, errors.Is(err, ErrInvalidDescriptor))
		})
	}
}

func TestDescriptor_RoundTrip(t *testing.T) {
	d := Descriptor{Width: 80, Height: 70, TileSize: 32, Overlap: 2, Format: "jpg"}
	var buf bytes.Buffer
	_, err := d.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), Namespace)

	got, err := ParseDescriptor(&buf)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestLoadDescriptor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plate.dzi")
	require.NoError(t, os.WriteFile(path, []byte(sampleDZI), 0o644))

	d, err := LoadDescriptor(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, d.Width)

	_, err = LoadDescriptor(filepath.Join(t.TempDir(), "missing.dzi"))
	assert.Error(t, err)
}

func TestDescriptor_Levels(t *testing.T) {
	d := Descriptor{Width: 1000, Height: 1000, TileSize: 254, Overlap: 1, Format: "png"}
	assert.Equal(t, 11, d.NumLevels())

	s, err := d.Scale(10)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s)

	w, h, err := d.Dimensions(0)
	require.NoError(t, err)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)

	cols, rows, err := d.NumTiles(10)
	require.NoError(t, err)
	assert.Equal(t, 4, cols)
	assert.Equal(t, 4, rows)

	_, err = d.Scale(11)
	assert.True(t, errors.Is(err, ErrInvalidLevel))
	_, _, err = d.Dimensions(-1)
	assert.True(t, errors.Is(err, ErrInvalidLevel))
}

func TestDescriptor_TileBounds(t *testing.T) {
	d := Descriptor{Width: 1000, Height: 1000, TileSize: 254, Overlap: 1, Format: "png"}

	tests := []struct {
		col, row int
		want     image.Rectangle
	}{
		{0, 0, image.Rect(0, 0, 255, 255)},
		{1, 0, image.Rect(253, 0, 509, 255)},
		{3, 0, image.Rect(761, 0, 1000, 255)},
		{3, 3, image.Rect(761, 761, 1000, 1000)},
	}
	for _, tt := range tests {
		got, err := d.TileBounds(10, tt.col, tt.row)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "tile %d_%d", tt.col, tt.row)
	}

	_, err := d.TileBounds(42, 0, 0)
	assert.True(t, errors.Is(err, ErrInvalidLevel))
	assert.Equal(t, "10/3_1.png", d.TilePath(10, 3, 1))
}

func smallMontage() Montage {
	return Montage{PlateCols: 2, PlateRows: 2, WellCols: 2, WellRows: 1, ImageWidth: 10, ImageHeight: 20}
}

func TestMontage_Size(t *testing.T) {
	m := smallMontage()
	require.NoError(t, m.Validate())

	ww, wh := m.WellSize()
	assert.Equal(t, 25, ww)
	assert.Equal(t, 20, wh)
	assert.Equal(t, grid.Extent{Width: 80, Height: 70}, m.Extent())

	dw, dh := DefaultMontage().Size()
	assert.Equal(t, 107034, dw)
	assert.Equal(t, 71346, dh)
}

func TestMontage_Bounds(t *testing.T) {
	m := smallMontage()

	b, err := m.WellBounds(1, 1)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(55, 50, 80, 70), b)

	f, err := m.FOVBounds(1)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(15, 0, 25, 20), f)

	_, err = m.WellBounds(2, 0)
	assert.Error(t, err)
	_, err = m.FOVBounds(2)
	assert.Error(t, err)

	assert.Error(t, Montage{}.Validate())
}

func TestMontage_Descriptor(t *testing.T) {
	d := smallMontage().Descriptor(DefaultTileSize, DefaultOverlap, DefaultFormat)
	assert.Equal(t, 80, d.Width)
	assert.Equal(t, 70, d.Height)
	assert.NoError(t, d.Validate())
}
