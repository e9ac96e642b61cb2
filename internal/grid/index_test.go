package grid

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platemap-hts/platemap/internal/plate"
)

func TestBuildColumns_NumericOrder(t *testing.T) {
	ix, err := BuildColumns([]plate.Label{"10", "2", "1", "2", "12", "9"})
	require.NoError(t, err)
	assert.Equal(t, []plate.Label{"1", "2", "9", "10", "12"}, ix.Labels())

	p, ok := ix.Position("10")
	require.True(t, ok)
	assert.Equal(t, 3, p)
}

func TestBuildColumns_InvalidLabel(t *testing.T) {
	_, err := BuildColumns([]plate.Label{"1", "x2"})
	assert.True(t, errors.Is(err, ErrInvalidLabel))
}

func TestBuildRows_LexicographicOrder(t *testing.T) {
	ix := BuildRows([]plate.Label{"C", "A", "H", "B", "A"})
	assert.Equal(t, []plate.Label{"A", "B", "C", "H"}, ix.Labels())
	assert.Equal(t, []plate.Label{"H", "C", "B", "A"}, ix.DisplayOrder())

	p, ok := ix.Position("A")
	require.True(t, ok)
	assert.Equal(t, 0, p, "row A sits at the top")
}

func TestOrderedIndex_PositionsArePermutation(t *testing.T) {
	sets := [][]plate.Label{
		{"A"},
		{"P", "O", "N", "M", "L", "K", "J", "I", "H", "G", "F", "E", "D", "C", "B", "A"},
		{"B", "A", "B", "C"},
	}
	for _, labels := range sets {
		ix := BuildRows(labels)
		positions := make([]int, 0, ix.Len())
		for _, l := range ix.Labels() {
			p, ok := ix.Position(l)
			require.True(t, ok)
			positions = append(positions, p)

			back, ok := ix.Label(p)
			require.True(t, ok)
			assert.Equal(t, l, back)

			again, _ := ix.Position(back)
			assert.Equal(t, p, again)
		}
		sort.Ints(positions)
		for i, p := range positions {
			assert.Equal(t, i, p)
		}
	}
}

func TestOrderedIndex_LabelOutOfRange(t *testing.T) {
	ix := BuildRows([]plate.Label{"A"})
	_, ok := ix.Label(1)
	assert.False(t, ok)
	_, ok = ix.Label(-1)
	assert.False(t, ok)
}

func TestNewAndLocate(t *testing.T) {
	ds := plate.NewDataset([]plate.Measurement{
		{Row: "B", Col: "10"},
		{Row: "A", Col: "2"},
		{Row: "B", Col: "2"},
		{Row: "A", Col: "10"},
	})
	ix, err := New(ds)
	require.NoError(t, err)

	rows, cols := ix.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)

	r, c, err := ix.Locate("B", "10")
	require.NoError(t, err)
	assert.Equal(t, 1, r)
	assert.Equal(t, 1, c)

	_, _, err = ix.Locate("Z", "10")
	assert.True(t, errors.Is(err, ErrUnknownWell))
}

func TestNew_InvalidColumn(t *testing.T) {
	ds := plate.NewDataset([]plate.Measurement{{Row: "A", Col: "one"}})
	_, err := New(ds)
	assert.True(t, errors.Is(err, ErrInvalidLabel))
}
