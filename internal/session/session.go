// Package session binds one loaded plate to its derived state: the grid
// index, the group report, the color scale and the slider state. A session
// is discarded wholesale when a new plate is loaded.
package session

import (
	"errors"
	"fmt"
	"image/color"
	"sync"

	"go.uber.org/zap"

	"github.com/platemap-hts/platemap/internal/cache"
	"github.com/platemap-hts/platemap/internal/grid"
	"github.com/platemap-hts/platemap/internal/logging"
	"github.com/platemap-hts/platemap/internal/plate"
	"github.com/platemap-hts/platemap/internal/render"
	"github.com/platemap-hts/platemap/internal/stats"
	"github.com/platemap-hts/platemap/internal/threshold"
	"github.com/platemap-hts/platemap/internal/viewer"
	"github.com/platemap-hts/platemap/pkg/colormap"
)

// Options configures a Session. Zero values pick defaults: an in-memory
// viewer over Extent, a no-op logger, no caching, a default renderer and the
// Spectral ramp.
type Options struct {
	PositiveControl string
	Extent          grid.Extent
	Viewer          viewer.Viewer
	Logger          *zap.Logger
	Cache           *cache.Manager
	Renderer        *render.Renderer
	Colormap        colormap.Colormap
}

// Marker is a highlighted well placed in viewport coordinates.
type Marker struct {
	Index  int          `json:"index"`
	Row    plate.Label  `json:"row"`
	Col    plate.Label  `json:"col"`
	Value  float64      `json:"value"`
	Center viewer.Point `json:"center"`
	Cell   viewer.Rect  `json:"cell"`
}

// Session is the state of one plate under inspection. Slider events are
// serialised and their redraw signals are raised in the same order. Signals
// are raised with no session lock held, so viewer handlers may read the
// session or move the sliders again.
type Session struct {
	opts    Options
	log     *zap.Logger
	viewer  viewer.Viewer
	cmapKey string

	data        plate.Dataset
	analyzed    plate.Dataset
	fingerprint string
	dropped     int
	values      []float64
	positions   [][2]int
	index       *grid.Index
	report      *stats.Report
	base        colormap.Scale

	// mu guards the slider state.
	mu    sync.RWMutex
	state threshold.State
	scale colormap.Scale

	// dispatch guards the queue of redraw signals not yet raised.
	dispatch    sync.Mutex
	pending     int
	dispatching bool
}

// New classifies ds against the positive control and builds a session. Every
// well keeps its place on the grid and in the value range; unmatched
// positive-control rows are only left out of the group statistics.
func New(ds plate.Dataset, opts Options) (*Session, error) {
	if opts.PositiveControl == "" {
		return nil, errors.New("session: positive control label is required")
	}

	v := opts.Viewer
	if v == nil {
		m, err := viewer.NewModel(opts.Extent.Width, opts.Extent.Height)
		if err != nil {
			return nil, err
		}
		v = m
	}
	if opts.Renderer == nil {
		opts.Renderer = render.NewRenderer(render.DefaultConfig())
	}
	if opts.Colormap == nil {
		opts.Colormap = colormap.Spectral
	}

	s := &Session{
		opts:    opts,
		log:     logging.OrNop(opts.Logger),
		viewer:  v,
		cmapKey: colormapKey(opts.Colormap),
	}

	s.data = plate.Reclassify(ds, opts.PositiveControl)
	if s.data.Len() == 0 {
		return nil, plate.ErrEmptyDataset
	}
	s.analyzed, s.dropped = plate.Analyzed(s.data)
	s.values = s.data.Values()
	s.fingerprint = s.data.Fingerprint()

	index, err := grid.New(s.data)
	if err != nil {
		return nil, err
	}
	s.index = index

	s.positions = make([][2]int, s.data.Len())
	for i := 0; i < s.data.Len(); i++ {
		m := s.data.At(i)
		rp, cp, err := index.Locate(m.Row, m.Col)
		if err != nil {
			return nil, err
		}
		s.positions[i] = [2]int{rp, cp}
	}

	if s.report, err = s.buildReport(); err != nil {
		return nil, err
	}

	if s.state, err = threshold.NewState(s.values); err != nil {
		return nil, err
	}
	if s.base, err = colormap.NewScale(opts.Colormap, s.state.Bounds.Min, s.state.Bounds.Max); err != nil {
		return nil, err
	}
	s.scale = s.base

	rows, cols := index.Shape()
	s.log.Info("plate loaded",
		zap.String("fingerprint", s.fingerprint),
		zap.Int("wells", s.data.Len()),
		zap.Int("rows", rows),
		zap.Int("cols", cols),
		zap.Int("dropped", s.dropped),
		zap.Stringers("groups", s.report.Tags()),
	)
	return s, nil
}

func (s *Session) buildReport() (*stats.Report, error) {
	key := cache.ReportKey(s.fingerprint, s.opts.PositiveControl)
	if s.opts.Cache != nil {
		if r, ok := s.opts.Cache.GetReport(key); ok {
			s.log.Debug("report cache hit", zap.String("key", key))
			return r, nil
		}
	}
	r, err := stats.Analyze(s.analyzed)
	if err != nil {
		return nil, err
	}
	if s.opts.Cache != nil {
		s.opts.Cache.SetReport(key, r)
	}
	return r, nil
}

// Dataset returns every well of the plate, classified.
func (s *Session) Dataset() plate.Dataset { return s.data }

// Analyzed returns the wells that feed the group statistics.
func (s *Session) Analyzed() plate.Dataset { return s.analyzed }

// Dropped returns how many unmatched positive-control rows were excluded.
func (s *Session) Dropped() int { return s.dropped }

// Index returns the plate's grid index.
func (s *Session) Index() *grid.Index { return s.index }

// Viewer returns the viewer the session drives.
func (s *Session) Viewer() viewer.Viewer { return s.viewer }

// Report returns the group summaries.
func (s *Session) Report() *stats.Report { return s.report }

// QC computes the quality scores from the control groups.
func (s *Session) QC() (stats.QCScores, error) {
	qc, err := s.report.QC()
	if err != nil {
		s.log.Warn("qc unavailable", zap.Error(err))
		return stats.QCScores{}, err
	}
	s.log.Debug("qc computed", zap.Float64("z_factor", qc.ZFactor), zap.Float64("ssmd", qc.SSMD))
	return qc, nil
}

// State returns the current slider state.
func (s *Session) State() threshold.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetCutoff moves the cutoff slider. It reports whether the highlight set
// changed; only then is the viewer asked to redraw. A call made from inside
// a redraw handler has its own redraw raised once that handler returns.
func (s *Session) SetCutoff(v float64) (bool, error) {
	s.mu.Lock()
	prev := s.state
	next, err := prev.WithCutoff(s.values, v)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.state = next
	changed := threshold.Changed(prev.Highlighted, next.Highlighted)
	if changed {
		s.enqueueRedraw()
	}
	s.mu.Unlock()

	if !changed {
		return false, nil
	}
	s.log.Debug("highlight set changed",
		zap.Float64("cutoff", v),
		zap.Int("highlighted", next.Highlighted.Len()),
	)
	s.flushRedraws()
	return true, nil
}

// enqueueRedraw records a redraw signal. Callers hold mu so signals queue in
// slider order.
func (s *Session) enqueueRedraw() {
	s.dispatch.Lock()
	s.pending++
	s.dispatch.Unlock()
}

// flushRedraws raises queued signals one at a time. Only one caller drains
// the queue; a nested or concurrent caller leaves its signal to it.
func (s *Session) flushRedraws() {
	s.dispatch.Lock()
	if s.dispatching {
		s.dispatch.Unlock()
		return
	}
	s.dispatching = true
	for s.pending > 0 {
		s.pending--
		s.dispatch.Unlock()
		s.viewer.RaiseEvent(viewer.EventUpdateViewport)
		s.dispatch.Lock()
	}
	s.dispatching = false
	s.dispatch.Unlock()
}

// SetRange moves the range slider and re-domains the color scale.
func (s *Session) SetRange(lo, hi float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.state.WithRange(lo, hi)
	if err != nil {
		return err
	}
	scale, err := next.Scale(s.base)
	if err != nil {
		return err
	}
	s.state, s.scale = next, scale
	s.log.Debug("color range changed", zap.Float64("low", lo), zap.Float64("high", hi))
	return nil
}

// Fill returns the heatmap color of well i.
func (s *Session) Fill(i int) (color.RGBA, error) {
	if i < 0 || i >= len(s.values) {
		return color.RGBA{}, fmt.Errorf("session: well index %d out of range", i)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Fill(s.scale, s.values[i]), nil
}

// Focus navigates the viewer to a well: home, pan to the cell centre, then
// zoom by the grid's zoom level. It returns the viewport point panned to.
func (s *Session) Focus(row, col plate.Label) (viewer.Point, error) {
	rp, cp, err := s.index.Locate(row, col)
	if err != nil {
		return viewer.Point{}, err
	}
	rows, cols := s.index.Shape()

	s.viewer.GoHome(true)
	p := grid.ToViewport(s.viewer, rp, cp, rows, cols, s.opts.Extent)
	s.viewer.PanTo(p, true)
	zoom := grid.ZoomLevel(rows, cols)
	s.viewer.ZoomBy(zoom, true)

	s.log.Debug("focus well",
		zap.String("row", row),
		zap.String("col", col),
		zap.Float64("x", p.X),
		zap.Float64("y", p.Y),
		zap.Float64("zoom", zoom),
	)
	return p, nil
}

// Markers returns the highlighted wells in viewport coordinates, in dataset
// order.
func (s *Session) Markers() []Marker {
	s.mu.RLock()
	hl := s.state.Highlighted
	s.mu.RUnlock()

	rows, cols := s.index.Shape()
	out := make([]Marker, 0, hl.Len())
	for _, i := range hl.Indices() {
		m := s.data.At(i)
		rp, cp := s.positions[i][0], s.positions[i][1]
		out = append(out, Marker{
			Index:  i,
			Row:    m.Row,
			Col:    m.Col,
			Value:  m.Value,
			Center: grid.ToViewport(s.viewer, rp, cp, rows, cols, s.opts.Extent),
			Cell:   grid.CellRect(s.viewer, rp, cp, rows, cols, s.opts.Extent),
		})
	}
	return out
}

// Cells returns every well as a drawable heatmap cell.
func (s *Session) Cells() []render.Cell {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]render.Cell, len(s.values))
	for i, v := range s.values {
		out[i] = render.Cell{
			RowPos:      s.positions[i][0],
			ColPos:      s.positions[i][1],
			Fill:        s.state.Fill(s.scale, v),
			Highlighted: s.state.Highlighted.Contains(i),
		}
	}
	return out
}

func colormapKey(c colormap.Colormap) string {
	if n, ok := c.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", c)
}
