package session

import (
	"errors"

	"go.uber.org/zap"

	"github.com/platemap-hts/platemap/internal/cache"
	"github.com/platemap-hts/platemap/internal/render"
	"github.com/platemap-hts/platemap/internal/stats"
)

// HeatmapPNG renders the plate heatmap under the current sliders.
func (s *Session) HeatmapPNG() ([]byte, error) {
	st := s.State()
	key := cache.ImageKey(cache.KindHeatmap, s.imageScope(), st.Cutoff, st.RangeLow, st.RangeHigh)
	return s.cached(key, func() ([]byte, error) {
		return s.opts.Renderer.Heatmap(render.HeatmapInput{
			Rows:  s.index.Rows.Labels(),
			Cols:  s.index.Cols.Labels(),
			Cells: s.Cells(),
		})
	})
}

// GuidancePNG renders the plate grid without values, for navigation only.
func (s *Session) GuidancePNG() ([]byte, error) {
	key := cache.ImageKey(cache.KindHeatmap, s.imageScope()+":guidance")
	return s.cached(key, func() ([]byte, error) {
		return s.opts.Renderer.Heatmap(render.HeatmapInput{
			Rows:     s.index.Rows.Labels(),
			Cols:     s.index.Cols.Labels(),
			Guidance: true,
		})
	})
}

// BoxplotPNG renders the group box plot. When QC scores are unavailable the
// plot is still drawn, with a placeholder in the score panel.
func (s *Session) BoxplotPNG() ([]byte, error) {
	key := cache.ImageKey(cache.KindBoxplot, s.imageScope()+":"+s.opts.PositiveControl)
	return s.cached(key, func() ([]byte, error) {
		in := render.BoxplotInput{
			Summaries: s.report.Summaries(),
			YMax:      s.report.YMax(),
		}
		qc, err := s.QC()
		switch {
		case err == nil:
			in.QC = &qc
		case !errors.Is(err, stats.ErrMissingControlGroup):
			return nil, err
		}
		return s.opts.Renderer.Boxplot(in)
	})
}

// LegendPNG renders the color legend of the current range.
func (s *Session) LegendPNG(width, height int) ([]byte, error) {
	s.mu.RLock()
	scale := s.scale
	s.mu.RUnlock()

	lo, hi := scale.Domain()
	key := cache.ImageKey(cache.KindLegend, s.cmapKey, lo, hi, float64(width), float64(height))
	return s.cached(key, func() ([]byte, error) {
		return s.opts.Renderer.Legend(scale, width, height)
	})
}

func (s *Session) imageScope() string {
	return s.fingerprint + ":" + s.cmapKey
}

func (s *Session) cached(key string, draw func() ([]byte, error)) ([]byte, error) {
	if s.opts.Cache != nil {
		if data, ok := s.opts.Cache.GetImage(key); ok {
			s.log.Debug("image cache hit", zap.String("key", key))
			return data, nil
		}
	}
	data, err := draw()
	if err != nil {
		return nil, err
	}
	if s.opts.Cache != nil {
		if err := s.opts.Cache.SetImage(key, data); err != nil {
			s.log.Warn("image not cached", zap.String("key", key), zap.Error(err))
		}
	}
	return data, nil
}
