package render

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/platemap-hts/platemap/internal/grid"
	"github.com/platemap-hts/platemap/internal/plate"
)

var heatmapMargins = margins{top: 20, right: 25, bottom: 30, left: 30}

// guidanceFill colors every cell of a guidance map.
var guidanceFill = color.RGBA{R: 255, G: 165, B: 0, A: 255}

const (
	cellOpacity = 0.8
	cellRadius  = 4
)

// Cell is one drawable well.
type Cell struct {
	RowPos      int
	ColPos      int
	Fill        color.RGBA
	Highlighted bool
}

// HeatmapInput describes a plate heatmap. Rows are listed top to bottom and
// Cols left to right. With Guidance set, Cells is ignored and every row and
// column pair is drawn in a uniform color.
type HeatmapInput struct {
	Rows     []plate.Label
	Cols     []plate.Label
	Cells    []Cell
	Guidance bool
}

// paddedBand lays out position among count bands over [0, extent) with equal
// inner and outer padding, expressed as a fraction of the step.
func paddedBand(position, count int, extent, padding float64) grid.Band {
	if count <= 0 {
		return grid.Band{}
	}
	step := extent / (float64(count) + padding)
	start := padding*step + float64(position)*step
	return grid.Band{Start: start, End: start + step*(1-padding)}
}

// heatmapCell returns the canvas rectangle of a cell.
func (r *Renderer) heatmapCell(rowPos, colPos, rowCount, colCount int) (x, y, w, h float64) {
	plotW := float64(r.config.HeatmapWidth) - heatmapMargins.left - heatmapMargins.right
	plotH := float64(r.config.HeatmapHeight) - heatmapMargins.top - heatmapMargins.bottom
	xb := paddedBand(colPos, colCount, plotW, r.config.Padding)
	yb := paddedBand(rowPos, rowCount, plotH, r.config.Padding)
	return heatmapMargins.left + xb.Start, heatmapMargins.top + yb.Start, xb.Width(), yb.Width()
}

// Heatmap renders the plate heatmap with highlight markers.
func (r *Renderer) Heatmap(in HeatmapInput) ([]byte, error) {
	rowCount, colCount := len(in.Rows), len(in.Cols)
	if rowCount == 0 || colCount == 0 {
		return nil, fmt.Errorf("render: heatmap needs rows and columns, got %dx%d", rowCount, colCount)
	}

	dc := r.heatmapPool.Get().(*gg.Context)
	defer r.heatmapPool.Put(dc)
	reset(dc)

	if in.Guidance {
		for rp := 0; rp < rowCount; rp++ {
			for cp := 0; cp < colCount; cp++ {
				r.drawCell(dc, rp, cp, rowCount, colCount, guidanceFill)
			}
		}
	} else {
		for _, c := range in.Cells {
			if err := checkCell(c, rowCount, colCount); err != nil {
				return nil, err
			}
			r.drawCell(dc, c.RowPos, c.ColPos, rowCount, colCount, c.Fill)
		}
		dc.SetColor(color.Black)
		for _, c := range in.Cells {
			if !c.Highlighted {
				continue
			}
			x, y, w, h := r.heatmapCell(c.RowPos, c.ColPos, rowCount, colCount)
			dc.DrawCircle(x+w/2, y+h/2, r.config.MarkerRadius)
			dc.Fill()
		}
	}

	r.drawHeatmapAxes(dc, in.Rows, in.Cols)
	return r.encodeContext(dc)
}

func checkCell(c Cell, rowCount, colCount int) error {
	if c.RowPos < 0 || c.RowPos >= rowCount || c.ColPos < 0 || c.ColPos >= colCount {
		return fmt.Errorf("render: cell (%d, %d) outside %dx%d grid", c.RowPos, c.ColPos, rowCount, colCount)
	}
	return nil
}

func (r *Renderer) drawCell(dc *gg.Context, rowPos, colPos, rowCount, colCount int, fill color.RGBA) {
	x, y, w, h := r.heatmapCell(rowPos, colPos, rowCount, colCount)
	dc.SetColor(color.NRGBA{R: fill.R, G: fill.G, B: fill.B, A: uint8(cellOpacity * 255)})
	dc.DrawRoundedRectangle(x, y, w, h, cellRadius)
	dc.Fill()
}

func (r *Renderer) drawHeatmapAxes(dc *gg.Context, rows, cols []plate.Label) {
	dc.SetColor(color.Black)
	bottom := float64(r.config.HeatmapHeight) - heatmapMargins.bottom
	for cp, label := range cols {
		x, _, w, _ := r.heatmapCell(0, cp, len(rows), len(cols))
		dc.DrawStringAnchored(label, x+w/2, bottom+heatmapMargins.bottom/2, 0.5, 0.5)
	}
	for rp, label := range rows {
		_, y, _, h := r.heatmapCell(rp, 0, len(rows), len(cols))
		dc.DrawStringAnchored(label, heatmapMargins.left/2, y+h/2, 0.5, 0.5)
	}
}
