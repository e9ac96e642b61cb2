// Package threshold derives the highlight set and the color clipping range
// from the two plate sliders. Every operation is a pure function of its
// inputs; callers compare successive results to decide whether to redraw.
package threshold

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/platemap-hts/platemap/pkg/colormap"
)

// CutoffOp names the comparison used by Evaluate: a well is highlighted when
// its value meets or exceeds the cutoff.
const CutoffOp = ">="

// ErrInvalidRange indicates slider bounds inconsistent with the data domain.
var ErrInvalidRange = errors.New("threshold: invalid slider range")

// Bounds is the observed [Min, Max] of a value vector.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// BoundsOf returns the extent of values.
func BoundsOf(values []float64) (Bounds, error) {
	min, err := stats.Min(values)
	if err != nil {
		return Bounds{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	max, err := stats.Max(values)
	if err != nil {
		return Bounds{}, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	return Bounds{Min: min, Max: max}, nil
}

// Contains reports whether v lies within b.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Highlight is an ascending set of well indices.
type Highlight struct {
	indices []int
}

// NewHighlight builds a set from arbitrary indices.
func NewHighlight(indices ...int) Highlight {
	out := append([]int(nil), indices...)
	sort.Ints(out)
	n := 0
	for i, v := range out {
		if i > 0 && v == out[n-1] {
			continue
		}
		out[n] = v
		n++
	}
	return Highlight{indices: out[:n]}
}

// Len returns the set size.
func (h Highlight) Len() int { return len(h.indices) }

// Indices returns the members in ascending order.
func (h Highlight) Indices() []int {
	return append([]int(nil), h.indices...)
}

// Contains reports whether i is a member.
func (h Highlight) Contains(i int) bool {
	k := sort.SearchInts(h.indices, i)
	return k < len(h.indices) && h.indices[k] == i
}

// Equal reports whether h and o have the same members.
func (h Highlight) Equal(o Highlight) bool {
	if len(h.indices) != len(o.indices) {
		return false
	}
	for i := range h.indices {
		if h.indices[i] != o.indices[i] {
			return false
		}
	}
	return true
}

// Evaluate returns the indices whose value is >= cutoff.
func Evaluate(values []float64, cutoff float64) Highlight {
	out := make([]int, 0, len(values))
	for i, v := range values {
		if v >= cutoff {
			out = append(out, i)
		}
	}
	return Highlight{indices: out}
}

// Changed reports whether the highlight set differs between evaluations.
func Changed(prev, next Highlight) bool {
	return !prev.Equal(next)
}

// ClipValue applies the range slider to v: values above hi become hi, any
// other value becomes max(lo, v).
func ClipValue(v, lo, hi float64) float64 {
	if v > hi {
		return hi
	}
	return math.Max(lo, v)
}

// State is the slider state of one session. It is replaced, never mutated.
type State struct {
	Bounds      Bounds    `json:"bounds"`
	Cutoff      float64   `json:"cutoff"`
	RangeLow    float64   `json:"range_low"`
	RangeHigh   float64   `json:"range_high"`
	Highlighted Highlight `json:"-"`
}

// NewState returns the slider defaults for values: the cutoff at the data
// minimum and the range spanning the full extent.
func NewState(values []float64) (State, error) {
	b, err := BoundsOf(values)
	if err != nil {
		return State{}, err
	}
	return State{
		Bounds:      b,
		Cutoff:      b.Min,
		RangeLow:    b.Min,
		RangeHigh:   b.Max,
		Highlighted: Evaluate(values, b.Min),
	}, nil
}

// WithCutoff returns the state after moving the cutoff slider to c.
func (s State) WithCutoff(values []float64, c float64) (State, error) {
	if math.IsNaN(c) || !s.Bounds.Contains(c) {
		return s, fmt.Errorf("%w: cutoff %g outside [%g, %g]", ErrInvalidRange, c, s.Bounds.Min, s.Bounds.Max)
	}
	next := s
	next.Cutoff = c
	next.Highlighted = Evaluate(values, c)
	return next, nil
}

// WithRange returns the state after moving the range slider to [lo, hi].
func (s State) WithRange(lo, hi float64) (State, error) {
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return s, fmt.Errorf("%w: low %g above high %g", ErrInvalidRange, lo, hi)
	}
	if !s.Bounds.Contains(lo) || !s.Bounds.Contains(hi) {
		return s, fmt.Errorf("%w: [%g, %g] outside [%g, %g]", ErrInvalidRange, lo, hi, s.Bounds.Min, s.Bounds.Max)
	}
	next := s
	next.RangeLow = lo
	next.RangeHigh = hi
	return next, nil
}

// Scale returns base re-domained to the current range.
func (s State) Scale(base colormap.Scale) (colormap.Scale, error) {
	return base.WithDomain(s.RangeLow, s.RangeHigh)
}

// Fill returns the heatmap color of v under the current range.
func (s State) Fill(scale colormap.Scale, v float64) color.RGBA {
	return scale.Map(ClipValue(v, s.RangeLow, s.RangeHigh))
}
