// Package grid maps well labels to dense positions and projects those
// positions into the flat heatmap layout and into the zoomable image's
// viewport coordinates.
package grid

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/platemap-hts/platemap/internal/plate"
)

var (
	// ErrInvalidLabel indicates a column label that does not parse as a number.
	ErrInvalidLabel = errors.New("grid: column label is not numeric")
	// ErrUnknownWell indicates a (row, col) pair absent from the index.
	ErrUnknownWell = errors.New("grid: well not present in index")
)

// OrderedIndex assigns each distinct label a dense, zero-based position.
type OrderedIndex struct {
	labels []plate.Label
	pos    map[plate.Label]int
}

func newOrderedIndex(sorted []plate.Label) *OrderedIndex {
	pos := make(map[plate.Label]int, len(sorted))
	for i, l := range sorted {
		pos[l] = i
	}
	return &OrderedIndex{labels: sorted, pos: pos}
}

// BuildColumns orders column labels by numeric value, so "10" follows "9".
func BuildColumns(labels []plate.Label) (*OrderedIndex, error) {
	uniq := dedupe(labels)
	keys := make(map[plate.Label]float64, len(uniq))
	for _, l := range uniq {
		v, err := strconv.ParseFloat(strings.TrimSpace(l), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLabel, l)
		}
		keys[l] = v
	}
	sort.SliceStable(uniq, func(i, j int) bool {
		return keys[uniq[i]] < keys[uniq[j]]
	})
	return newOrderedIndex(uniq), nil
}

// BuildRows orders row labels lexicographically. Position 0 is the top row
// of the plate.
func BuildRows(labels []plate.Label) *OrderedIndex {
	uniq := dedupe(labels)
	sort.Strings(uniq)
	return newOrderedIndex(uniq)
}

// Len returns the number of distinct labels.
func (o *OrderedIndex) Len() int { return len(o.labels) }

// Labels returns the labels in position order.
func (o *OrderedIndex) Labels() []plate.Label {
	out := make([]plate.Label, len(o.labels))
	copy(out, o.labels)
	return out
}

// DisplayOrder returns the labels reversed. A band scale laid out
// bottom-to-top over this order puts position 0 at the top.
func (o *OrderedIndex) DisplayOrder() []plate.Label {
	out := make([]plate.Label, len(o.labels))
	for i, l := range o.labels {
		out[len(o.labels)-1-i] = l
	}
	return out
}

// Position returns the position of label.
func (o *OrderedIndex) Position(label plate.Label) (int, bool) {
	p, ok := o.pos[label]
	return p, ok
}

// Label returns the label at position p.
func (o *OrderedIndex) Label(p int) (plate.Label, bool) {
	if p < 0 || p >= len(o.labels) {
		return "", false
	}
	return o.labels[p], true
}

// Index is the row and column index of one plate.
type Index struct {
	Rows *OrderedIndex
	Cols *OrderedIndex
}

// New builds the index for every well in ds.
func New(ds plate.Dataset) (*Index, error) {
	cols, err := BuildColumns(ds.ColLabels())
	if err != nil {
		return nil, err
	}
	return &Index{
		Rows: BuildRows(ds.RowLabels()),
		Cols: cols,
	}, nil
}

// Locate returns the (row, col) positions of a well.
func (ix *Index) Locate(row, col plate.Label) (rowPos, colPos int, err error) {
	r, ok := ix.Rows.Position(row)
	if !ok {
		return 0, 0, fmt.Errorf("%w: row %q", ErrUnknownWell, row)
	}
	c, ok := ix.Cols.Position(col)
	if !ok {
		return 0, 0, fmt.Errorf("%w: col %q", ErrUnknownWell, col)
	}
	return r, c, nil
}

// Shape returns (rowCount, colCount).
func (ix *Index) Shape() (rows, cols int) {
	return ix.Rows.Len(), ix.Cols.Len()
}

func dedupe(labels []plate.Label) []plate.Label {
	seen := make(map[plate.Label]struct{}, len(labels))
	out := make([]plate.Label, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
