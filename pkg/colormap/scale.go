package colormap

import (
	"fmt"
	"image/color"
	"math"
)

// Scale maps values in a closed domain onto a Colormap. The domain is held
// reversed, [max, min]: the data maximum sits at ramp position 0 and the
// minimum at 1. Existing charts depend on this orientation.
type Scale struct {
	cmap Colormap
	d0   float64 // domain start (data max)
	d1   float64 // domain end (data min)
}

// NewScale builds a scale over [min, max].
func NewScale(cmap Colormap, min, max float64) (Scale, error) {
	if cmap == nil {
		return Scale{}, fmt.Errorf("colormap: nil colormap")
	}
	if math.IsNaN(min) || math.IsNaN(max) || min > max {
		return Scale{}, fmt.Errorf("colormap: invalid domain [%g, %g]", min, max)
	}
	return Scale{cmap: cmap, d0: max, d1: min}, nil
}

// Domain returns the natural [min, max] domain.
func (s Scale) Domain() (min, max float64) {
	return s.d1, s.d0
}

// WithDomain returns a scale over [min, max] sharing the same ramp.
func (s Scale) WithDomain(min, max float64) (Scale, error) {
	return NewScale(s.cmap, min, max)
}

// Position returns the ramp position of v after clamping it to the domain.
func (s Scale) Position(v float64) float64 {
	min, max := s.Domain()
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	if s.d1 == s.d0 {
		return 0
	}
	return (v - s.d0) / (s.d1 - s.d0)
}

// Map returns the color for v. Values outside the domain are clamped.
func (s Scale) Map(v float64) color.RGBA {
	return s.cmap.At(s.Position(v))
}

// Legend samples n colors evenly from the domain minimum to its maximum.
func (s Scale) Legend(n int) []color.RGBA {
	if n <= 0 {
		return nil
	}
	min, max := s.Domain()
	out := make([]color.RGBA, n)
	if n == 1 {
		out[0] = s.Map(min)
		return out
	}
	step := (max - min) / float64(n-1)
	for i := range out {
		out[i] = s.Map(min + float64(i)*step)
	}
	return out
}
