// Package stats computes per-group box-plot summaries and the assay quality
// scores (Z-factor, SSMD) derived from the two control groups.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/platemap-hts/platemap/internal/plate"
)

// Epsilon guards the QC score denominators against exact zero. It equals the
// float64 machine epsilon and leaves any non-degenerate result unchanged.
const Epsilon = 0x1p-52

// WhiskerScale is the IQR multiple placing the outlier fences.
const WhiskerScale = 1.5

var (
	// ErrEmptyGroup indicates a summary was requested for no values.
	ErrEmptyGroup = errors.New("stats: group has no values")
	// ErrMissingControlGroup indicates a control group is absent or has
	// fewer than two measurements.
	ErrMissingControlGroup = errors.New("stats: control group missing or too small")
)

// Moments holds the mean and unbiased standard deviation of a group.
type Moments struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Summary is the box-plot summary of one group. Moments is nil for sample
// groups and for controls with fewer than two values.
type Summary struct {
	Group      plate.GroupTag `json:"group"`
	Count      int            `json:"count"`
	Q1         float64        `json:"q1"`
	Median     float64        `json:"median"`
	Q3         float64        `json:"q3"`
	IQR        float64        `json:"iqr"`
	LowerFence float64        `json:"lower_fence"`
	UpperFence float64        `json:"upper_fence"`
	Moments    *Moments       `json:"moments,omitempty"`
}

// Quantile returns the p-quantile of an ascending slice by linear
// interpolation between order statistics at h = p*(n-1).
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 || n == 1 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// Summarize computes the summary of one group. values is not modified.
func Summarize(group plate.GroupTag, values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, fmt.Errorf("%w: %s", ErrEmptyGroup, group)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1

	s := Summary{
		Group:      group,
		Count:      len(sorted),
		Q1:         q1,
		Median:     Quantile(sorted, 0.5),
		Q3:         q3,
		IQR:        iqr,
		LowerFence: q1 - WhiskerScale*iqr,
		UpperFence: q3 + WhiskerScale*iqr,
	}

	if group.IsControl() && len(sorted) >= 2 {
		mean, sd := stat.MeanStdDev(values, nil)
		s.Moments = &Moments{Mean: mean, StdDev: sd}
	}
	return s, nil
}

// QCScores are the assay quality scores of a control pair.
type QCScores struct {
	ZFactor float64 `json:"z_factor"`
	SSMD    float64 `json:"ssmd"`
}

// QC computes Z-factor and SSMD from the positive and negative control
// summaries.
func QC(positive, negative *Summary) (QCScores, error) {
	if err := checkControl(positive, plate.ControlPositive); err != nil {
		return QCScores{}, err
	}
	if err := checkControl(negative, plate.ControlNegative); err != nil {
		return QCScores{}, err
	}

	p, n := positive.Moments, negative.Moments
	diff := p.Mean - n.Mean
	return QCScores{
		ZFactor: 1 - 3*(p.StdDev+n.StdDev)/math.Abs(diff+Epsilon),
		SSMD:    diff / math.Sqrt(p.StdDev*p.StdDev+n.StdDev*n.StdDev+Epsilon),
	}, nil
}

func checkControl(s *Summary, want plate.GroupTag) error {
	if s == nil {
		return fmt.Errorf("%w: %s absent", ErrMissingControlGroup, want)
	}
	if s.Count < 2 || s.Moments == nil {
		return fmt.Errorf("%w: %s has %d measurement(s)", ErrMissingControlGroup, want, s.Count)
	}
	return nil
}
