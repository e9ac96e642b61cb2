package plate

import "strings"

const (
	negativePrefix = "neg"
	positivePrefix = "pos"
	sampleLabel    = "compound"
)

// Classify maps a raw group label to its GroupTag. The rules apply in order:
// an exact match of a non-empty positiveControl, a case-sensitive "neg"
// prefix, and the literal "compound". Anything else is Unclassified.
func Classify(raw, positiveControl string) GroupTag {
	switch {
	case positiveControl != "" && raw == positiveControl:
		return ControlPositive
	case strings.HasPrefix(raw, negativePrefix):
		return ControlNegative
	case raw == sampleLabel:
		return Sample
	default:
		return Unclassified
	}
}

// Reclassify returns a copy of d with every Group recomputed from RawGroup
// against positiveControl.
func Reclassify(d Dataset, positiveControl string) Dataset {
	out := make([]Measurement, len(d.records))
	for i, m := range d.records {
		m.Group = Classify(m.RawGroup, positiveControl)
		out[i] = m
	}
	return Dataset{records: out}
}

// Analyzed drops positive-control rows that do not belong to the active
// control design: Unclassified rows whose raw label starts with "pos".
// Other Unclassified rows are kept but never enter group statistics.
func Analyzed(d Dataset) (kept Dataset, dropped int) {
	out := make([]Measurement, 0, len(d.records))
	for _, m := range d.records {
		if m.Group == Unclassified && strings.HasPrefix(m.RawGroup, positivePrefix) {
			dropped++
			continue
		}
		out = append(out, m)
	}
	return Dataset{records: out}, dropped
}
