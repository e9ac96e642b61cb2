// Package colormap provides color ramps and value-to-color scales for plate
// heatmaps.
package colormap

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// Colormap maps normalized values [0, 1] to colors.
type Colormap interface {
	At(t float64) color.RGBA
}

// LinearColormap is a linear interpolation colormap over evenly spaced stops.
type LinearColormap struct {
	name   string
	colors []color.RGBA
}

// Name returns the ramp's registry name.
func (c LinearColormap) Name() string { return c.name }

// At returns the color at position t (0-1). t is clamped.
func (c LinearColormap) At(t float64) color.RGBA {
	if t <= 0 || math.IsNaN(t) {
		return c.colors[0]
	}
	if t >= 1 {
		return c.colors[len(c.colors)-1]
	}

	idx := t * float64(len(c.colors)-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= len(c.colors) {
		upper = len(c.colors) - 1
	}

	frac := idx - float64(lower)
	return interpolate(c.colors[lower], c.colors[upper], frac)
}

func interpolate(c1, c2 color.RGBA, t float64) color.RGBA {
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + t*(float64(b)-float64(a))))
	}
	return color.RGBA{
		R: lerp(c1.R, c2.R),
		G: lerp(c1.G, c2.G),
		B: lerp(c1.B, c2.B),
		A: 255,
	}
}

// Spectral is the 11-class ColorBrewer Spectral scheme, red through yellow to
// blue-violet.
var Spectral = LinearColormap{
	name: "spectral",
	colors: []color.RGBA{
		{158, 1, 66, 255},
		{213, 62, 79, 255},
		{244, 109, 67, 255},
		{253, 174, 97, 255},
		{254, 224, 139, 255},
		{255, 255, 191, 255},
		{230, 245, 152, 255},
		{171, 221, 164, 255},
		{102, 194, 165, 255},
		{50, 136, 189, 255},
		{94, 79, 162, 255},
	},
}

// RdYlBu is the ColorBrewer red-yellow-blue scheme.
var RdYlBu = LinearColormap{
	name: "rdylbu",
	colors: []color.RGBA{
		{215, 48, 39, 255},
		{253, 174, 97, 255},
		{255, 255, 191, 255},
		{116, 173, 209, 255},
		{49, 54, 149, 255},
	},
}

// Viridis colormap (matplotlib viridis)
var Viridis = LinearColormap{
	name: "viridis",
	colors: []color.RGBA{
		{68, 1, 84, 255},
		{72, 35, 116, 255},
		{64, 67, 135, 255},
		{52, 94, 141, 255},
		{41, 120, 142, 255},
		{32, 144, 140, 255},
		{34, 167, 132, 255},
		{68, 190, 112, 255},
		{121, 209, 81, 255},
		{189, 222, 38, 255},
		{253, 231, 37, 255},
	},
}

var registry = map[string]LinearColormap{
	Spectral.name: Spectral,
	RdYlBu.name:   RdYlBu,
	Viridis.name:  Viridis,
}

// ByName looks up a ramp case-insensitively.
func ByName(name string) (LinearColormap, error) {
	c, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return LinearColormap{}, fmt.Errorf("colormap: unknown colormap %q", name)
	}
	return c, nil
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
