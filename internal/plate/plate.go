// Package plate holds the measurement model for one assay plate: wells keyed
// by (row, column) label, one numeric value each, and the control/sample group
// every well belongs to.
package plate

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Label identifies a plate row or column. It is opaque to this package.
type Label = string

// GroupTag is the semantic group of a well after classification.
type GroupTag int

const (
	Unclassified GroupTag = iota
	ControlPositive
	ControlNegative
	Sample
)

// String returns the display name used on box-plot axes.
func (g GroupTag) String() string {
	switch g {
	case ControlPositive:
		return "Ctrl positive"
	case ControlNegative:
		return "Ctrl negative"
	case Sample:
		return "Sample"
	default:
		return "Unclassified"
	}
}

// IsControl reports whether g is one of the two calibration groups.
func (g GroupTag) IsControl() bool {
	return g == ControlPositive || g == ControlNegative
}

// MarshalText encodes the display name, so tags read naturally in JSON.
func (g GroupTag) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// Measurement is one well of a plate.
type Measurement struct {
	Row      Label
	Col      Label
	Value    float64
	Group    GroupTag
	RawGroup string
}

// Dataset is the ordered, read-only sequence of measurements for one plate.
type Dataset struct {
	records []Measurement
}

// NewDataset copies records into a Dataset.
func NewDataset(records []Measurement) Dataset {
	out := make([]Measurement, len(records))
	copy(out, records)
	return Dataset{records: out}
}

// Len returns the number of measurements.
func (d Dataset) Len() int { return len(d.records) }

// At returns the i-th measurement.
func (d Dataset) At(i int) Measurement { return d.records[i] }

// Measurements returns a copy of all records.
func (d Dataset) Measurements() []Measurement {
	out := make([]Measurement, len(d.records))
	copy(out, d.records)
	return out
}

// Values returns the value vector in dataset order.
func (d Dataset) Values() []float64 {
	out := make([]float64, len(d.records))
	for i, m := range d.records {
		out[i] = m.Value
	}
	return out
}

// RowLabels returns the distinct row labels in first-seen order.
func (d Dataset) RowLabels() []Label {
	return distinct(d.records, func(m Measurement) Label { return m.Row })
}

// ColLabels returns the distinct column labels in first-seen order.
func (d Dataset) ColLabels() []Label {
	return distinct(d.records, func(m Measurement) Label { return m.Col })
}

// ByGroup partitions values by group tag, preserving dataset order.
func (d Dataset) ByGroup() map[GroupTag][]float64 {
	out := make(map[GroupTag][]float64)
	for _, m := range d.records {
		out[m.Group] = append(out[m.Group], m.Value)
	}
	return out
}

// Fingerprint is a stable content hash used to key caches.
func (d Dataset) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte
	for _, m := range d.records {
		h.Write([]byte(m.Row))
		h.Write([]byte{0})
		h.Write([]byte(m.Col))
		h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(m.Value))
		h.Write(buf[:])
		h.Write([]byte(m.RawGroup))
		h.Write([]byte{0, byte(m.Group)})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func distinct(records []Measurement, key func(Measurement) Label) []Label {
	seen := make(map[Label]struct{}, len(records))
	out := make([]Label, 0)
	for _, m := range records {
		k := key(m)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
