// Package render draws plate heatmaps, box plots and color legends using
// fogleman/gg.
package render

import (
	"bytes"
	"image/color"
	"image/png"
	"sync"

	"github.com/fogleman/gg"
)

// Config contains renderer configuration.
type Config struct {
	HeatmapWidth  int
	HeatmapHeight int
	BoxplotWidth  int
	BoxplotHeight int
	Padding       float64
	MarkerRadius  float64
}

// DefaultConfig returns the canvas sizes of the plate dashboard.
func DefaultConfig() Config {
	return Config{
		HeatmapWidth:  500,
		HeatmapHeight: 400,
		BoxplotWidth:  460,
		BoxplotHeight: 400,
		Padding:       0.05,
		MarkerRadius:  4,
	}
}

// Renderer renders plate charts to PNG. Canvases of the fixed-size charts are
// pooled, so a Renderer is safe for concurrent use.
type Renderer struct {
	config      Config
	heatmapPool sync.Pool
	boxplotPool sync.Pool
	bufferPool  sync.Pool
}

// NewRenderer creates a new renderer.
func NewRenderer(cfg Config) *Renderer {
	return &Renderer{
		config: cfg,
		heatmapPool: sync.Pool{
			New: func() interface{} {
				return gg.NewContext(cfg.HeatmapWidth, cfg.HeatmapHeight)
			},
		},
		boxplotPool: sync.Pool{
			New: func() interface{} {
				return gg.NewContext(cfg.BoxplotWidth, cfg.BoxplotHeight+qcPanelHeight)
			},
		},
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 32*1024))
			},
		},
	}
}

// Config returns the renderer configuration.
func (r *Renderer) Config() Config { return r.config }

// margins in pixels around a chart's plot area.
type margins struct {
	top, right, bottom, left float64
}

// reset readies a pooled context for a new drawing.
func reset(dc *gg.Context) {
	dc.Identity()
	dc.ClearPath()
	dc.SetLineWidth(1)
	dc.SetColor(color.White)
	dc.Clear()
}

func (r *Renderer) encodeContext(dc *gg.Context) ([]byte, error) {
	buf := r.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		r.bufferPool.Put(buf)
	}()

	// Use fast PNG encoder
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, dc.Image()); err != nil {
		return nil, err
	}

	// Copy buffer contents (buffer will be reused)
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}
