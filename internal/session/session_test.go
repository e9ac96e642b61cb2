package session

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/platemap-hts/platemap/internal/cache"
	"github.com/platemap-hts/platemap/internal/grid"
	"github.com/platemap-hts/platemap/internal/plate"
	"github.com/platemap-hts/platemap/internal/stats"
	"github.com/platemap-hts/platemap/internal/threshold"
	"github.com/platemap-hts/platemap/internal/viewer"
	"github.com/platemap-hts/platemap/pkg/colormap"
)

var testExtent = grid.Extent{Width: 300, Height: 200}

func testDataset() plate.Dataset {
	return plate.NewDataset([]plate.Measurement{
		{Row: "A", Col: "1", Value: 10, RawGroup: "pos_ctrl"},
		{Row: "A", Col: "2", Value: 12, RawGroup: "pos_ctrl"},
		{Row: "A", Col: "10", Value: 1, RawGroup: "neg_low"},
		{Row: "B", Col: "1", Value: 3, RawGroup: "neg_high"},
		{Row: "B", Col: "2", Value: 5, RawGroup: "compound"},
		{Row: "B", Col: "10", Value: 6, RawGroup: "compound"},
		{Row: "C", Col: "1", Value: 100, RawGroup: "positive_extra"},
	})
}

func newSession(t *testing.T, opts Options) (*Session, *viewer.Model) {
	t.Helper()
	m, err := viewer.NewModel(testExtent.Width, testExtent.Height)
	require.NoError(t, err)

	opts.PositiveControl = "pos_ctrl"
	opts.Extent = testExtent
	opts.Viewer = m
	opts.Logger = zaptest.NewLogger(t)
	s, err := New(testDataset(), opts)
	require.NoError(t, err)
	return s, m
}

func TestNew(t *testing.T) {
	s, _ := newSession(t, Options{})

	assert.Equal(t, 7, s.Dataset().Len())
	assert.Equal(t, 6, s.Analyzed().Len())
	assert.Equal(t, 1, s.Dropped(), "unmatched pos-prefixed row is left out of statistics")
	assert.Equal(t, []plate.Label{"A", "B", "C"}, s.Index().Rows.Labels())
	assert.Equal(t, []plate.Label{"1", "2", "10"}, s.Index().Cols.Labels())

	st := s.State()
	assert.Equal(t, threshold.Bounds{Min: 1, Max: 100}, st.Bounds)
	assert.Equal(t, 1.0, st.Cutoff)
	assert.Equal(t, 7, st.Highlighted.Len())
}

func TestNew_DroppedRowKeepsGridPosition(t *testing.T) {
	s, m := newSession(t, Options{})

	rows, cols := s.Index().Shape()
	assert.Equal(t, 3, rows, "row C holds only an unmatched control but stays on the plate")
	assert.Equal(t, 3, cols)

	p, err := s.Focus("B", "1")
	require.NoError(t, err)
	x, y := m.ViewportToImageCoordinates(p)
	assert.InDelta(t, 50.0, x, 1e-9)
	assert.InDelta(t, 100.0, y, 1e-9, "row B is the middle of three rows")
	assert.InDelta(t, 2.7, m.Zoom(), 1e-12)

	var counted int
	for _, summary := range s.Report().Summaries() {
		counted += summary.Count
	}
	assert.Equal(t, 6, counted, "dropped value stays out of the statistics")
}

func TestNew_Errors(t *testing.T) {
	_, err := New(testDataset(), Options{Extent: testExtent})
	assert.Error(t, err, "positive control required")

	_, err = New(testDataset(), Options{PositiveControl: "pos_ctrl"})
	assert.Error(t, err, "default viewer needs a positive extent")

	_, err = New(plate.NewDataset(nil), Options{PositiveControl: "pos_ctrl", Extent: testExtent})
	assert.True(t, errors.Is(err, plate.ErrEmptyDataset))

	onlyDropped := plate.NewDataset([]plate.Measurement{{Row: "A", Col: "1", Value: 1, RawGroup: "pos_other"}})
	s, err := New(onlyDropped, Options{PositiveControl: "pos_ctrl", Extent: testExtent})
	require.NoError(t, err, "a plate of unmatched controls still draws")
	assert.Equal(t, 1, s.Dropped())
	assert.Empty(t, s.Report().Tags())

	badCol := plate.NewDataset([]plate.Measurement{{Row: "A", Col: "x", Value: 1, RawGroup: "compound"}})
	_, err = New(badCol, Options{PositiveControl: "pos_ctrl", Extent: testExtent})
	assert.True(t, errors.Is(err, grid.ErrInvalidLabel))
}

func TestQC(t *testing.T) {
	s, _ := newSession(t, Options{})

	qc, err := s.QC()
	require.NoError(t, err)
	assert.InDelta(t, 4.5, qc.SSMD, 1e-9)
	assert.InDelta(t, 1-3*2*math.Sqrt2/9, qc.ZFactor, 1e-9)
}

func TestSetCutoff_RaisesOnlyOnChange(t *testing.T) {
	s, m := newSession(t, Options{})

	changed, err := s.SetCutoff(5)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []int{0, 1, 4, 5, 6}, s.State().Highlighted.Indices())

	changed, err = s.SetCutoff(5)
	require.NoError(t, err)
	assert.False(t, changed, "same cutoff")

	changed, err = s.SetCutoff(4)
	require.NoError(t, err)
	assert.False(t, changed, "different cutoff, same highlight set")
	assert.Equal(t, 4.0, s.State().Cutoff)

	assert.Equal(t, []string{viewer.EventUpdateViewport}, m.Events())

	_, err = s.SetCutoff(101)
	assert.True(t, errors.Is(err, threshold.ErrInvalidRange))
	assert.Equal(t, 4.0, s.State().Cutoff, "failed update leaves state untouched")
}

func TestSetCutoff_HandlerCanReadMarkers(t *testing.T) {
	s, m := newSession(t, Options{})

	var seen []int
	m.AddHandler(viewer.EventUpdateViewport, func() {
		seen = append(seen, len(s.Markers()))
	})

	_, err := s.SetCutoff(10)
	require.NoError(t, err)
	_, err = s.SetCutoff(6)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, seen)
}

func TestSetCutoff_HandlerCanMoveSliders(t *testing.T) {
	s, m := newSession(t, Options{})

	var seen []float64
	m.AddHandler(viewer.EventUpdateViewport, func() {
		seen = append(seen, s.State().Cutoff)
		if len(seen) == 1 {
			_, err := s.SetCutoff(50)
			assert.NoError(t, err)
			assert.NoError(t, s.SetRange(1, 50))
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := s.SetCutoff(10)
		assert.NoError(t, err)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("slider update from a redraw handler did not return")
	}

	assert.Equal(t, []float64{10, 50}, seen, "nested redraw is raised after the outer handler returns")
	assert.Len(t, m.Events(), 2)
	assert.Equal(t, 50.0, s.State().RangeHigh)
}

func TestMarkers(t *testing.T) {
	s, _ := newSession(t, Options{})
	_, err := s.SetCutoff(12)
	require.NoError(t, err)

	markers := s.Markers()
	require.Len(t, markers, 2)
	mk := markers[0]
	assert.Equal(t, 1, mk.Index)
	assert.Equal(t, "A", mk.Row)
	assert.Equal(t, "2", mk.Col)
	assert.InDelta(t, 150.0/300, mk.Center.X, 1e-12)
	assert.InDelta(t, (200.0/6)/300, mk.Center.Y, 1e-12)
	assert.InDelta(t, mk.Center.X, mk.Cell.X+mk.Cell.Width/2, 1e-12)

	dropped := markers[1]
	assert.Equal(t, "C", dropped.Row)
	assert.InDelta(t, 50.0/300, dropped.Center.X, 1e-12)
	assert.InDelta(t, (1000.0/6)/300, dropped.Center.Y, 1e-12)
}

func TestFocus(t *testing.T) {
	s, m := newSession(t, Options{})

	p, err := s.Focus("B", "10")
	require.NoError(t, err)
	assert.InDelta(t, 250.0/300, p.X, 1e-12)
	assert.InDelta(t, 100.0/300, p.Y, 1e-12)

	assert.Equal(t, []string{"goHome", "panTo", "zoomBy"}, m.History())
	assert.Equal(t, p, m.Center())
	assert.InDelta(t, 2.7, m.Zoom(), 1e-12)

	_, err = s.Focus("Z", "1")
	assert.True(t, errors.Is(err, grid.ErrUnknownWell))
}

func TestSetRangeAndFill(t *testing.T) {
	s, _ := newSession(t, Options{})
	require.NoError(t, s.SetRange(3, 10))

	fill := func(i int) any {
		c, err := s.Fill(i)
		require.NoError(t, err)
		return c
	}
	assert.Equal(t, fill(0), fill(1), "above range renders at the high color")
	assert.Equal(t, fill(3), fill(2), "below range renders at the low color")
	assert.Equal(t, colormap.Spectral.At(0), fill(0))
	assert.Equal(t, colormap.Spectral.At(1), fill(3))

	assert.True(t, errors.Is(s.SetRange(8, 4), threshold.ErrInvalidRange))
	assert.True(t, errors.Is(s.SetRange(0, 4), threshold.ErrInvalidRange))
	assert.Equal(t, 3.0, s.State().RangeLow)

	_, err := s.Fill(99)
	assert.Error(t, err)
}

func TestCells(t *testing.T) {
	s, _ := newSession(t, Options{})
	_, err := s.SetCutoff(6)
	require.NoError(t, err)

	cells := s.Cells()
	require.Len(t, cells, 7)
	assert.Equal(t, 0, cells[2].RowPos)
	assert.Equal(t, 2, cells[2].ColPos, "column 10 sorts after 2")
	assert.True(t, cells[5].Highlighted)
	assert.False(t, cells[4].Highlighted)
	assert.Equal(t, 2, cells[6].RowPos)
	assert.True(t, cells[6].Highlighted)
}

func TestImages_Cached(t *testing.T) {
	mgr, err := cache.NewManager(cache.Config{ImageCacheSizeMB: 8, ImageTTL: time.Minute, ReportCacheSize: 4})
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })

	s, _ := newSession(t, Options{Cache: mgr})

	first, err := s.HeatmapPNG()
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(first))
	require.NoError(t, err)

	again, err := s.HeatmapPNG()
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, mgr.Stats()["image_cache_len"])

	_, err = s.SetCutoff(10)
	require.NoError(t, err)
	_, err = s.HeatmapPNG()
	require.NoError(t, err)
	assert.Equal(t, 2, mgr.Stats()["image_cache_len"], "new cutoff renders a new image")

	_, err = s.BoxplotPNG()
	require.NoError(t, err)
	_, err = s.GuidancePNG()
	require.NoError(t, err)
	_, err = s.LegendPNG(300, 30)
	require.NoError(t, err)
	assert.Equal(t, 5, mgr.Stats()["image_cache_len"])

	other, _ := newSession(t, Options{Cache: mgr})
	assert.Same(t, s.Report(), other.Report(), "report served from cache")
}

func TestBoxplot_WithoutControls(t *testing.T) {
	ds := plate.NewDataset([]plate.Measurement{
		{Row: "A", Col: "1", Value: 1, RawGroup: "compound"},
		{Row: "A", Col: "2", Value: 2, RawGroup: "compound"},
	})
	s, err := New(ds, Options{PositiveControl: "pos", Extent: testExtent})
	require.NoError(t, err)

	_, err = s.QC()
	assert.True(t, errors.Is(err, stats.ErrMissingControlGroup))

	data, err := s.BoxplotPNG()
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
