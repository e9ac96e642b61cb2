package stats

import (
	"github.com/platemap-hts/platemap/internal/plate"
)

// AxisHeadroom is added above the highest upper fence on the box-plot axis.
const AxisHeadroom = 0.5

// canonicalOrder is the left-to-right order of groups on the box plot.
var canonicalOrder = []plate.GroupTag{plate.ControlNegative, plate.ControlPositive, plate.Sample}

// Report holds the summaries of every classified group in a dataset. It is
// immutable once built.
type Report struct {
	summaries map[plate.GroupTag]Summary
	order     []plate.GroupTag
}

// Analyze summarizes each classified group of ds. Unclassified wells are
// skipped. The dataset is expected to have passed through plate.Analyzed.
func Analyze(ds plate.Dataset) (*Report, error) {
	groups := ds.ByGroup()
	r := &Report{summaries: make(map[plate.GroupTag]Summary, len(canonicalOrder))}
	for _, tag := range canonicalOrder {
		values, ok := groups[tag]
		if !ok {
			continue
		}
		s, err := Summarize(tag, values)
		if err != nil {
			return nil, err
		}
		r.summaries[tag] = s
		r.order = append(r.order, tag)
	}
	return r, nil
}

// Group returns the summary for tag.
func (r *Report) Group(tag plate.GroupTag) (Summary, bool) {
	s, ok := r.summaries[tag]
	return s, ok
}

// Tags returns the present groups in box-plot order.
func (r *Report) Tags() []plate.GroupTag {
	return append([]plate.GroupTag(nil), r.order...)
}

// Summaries returns the present summaries in box-plot order.
func (r *Report) Summaries() []Summary {
	out := make([]Summary, 0, len(r.order))
	for _, tag := range r.order {
		out = append(out, r.summaries[tag])
	}
	return out
}

// QC computes the quality scores from the report's control groups.
func (r *Report) QC() (QCScores, error) {
	var pos, neg *Summary
	if s, ok := r.summaries[plate.ControlPositive]; ok {
		pos = &s
	}
	if s, ok := r.summaries[plate.ControlNegative]; ok {
		neg = &s
	}
	return QC(pos, neg)
}

// YMax is the top of the box-plot value axis.
func (r *Report) YMax() float64 {
	var max float64
	for i, tag := range r.order {
		f := r.summaries[tag].UpperFence
		if i == 0 || f > max {
			max = f
		}
	}
	return max + AxisHeadroom
}
