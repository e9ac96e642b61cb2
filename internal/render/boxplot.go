package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/platemap-hts/platemap/internal/stats"
)

var boxplotMargins = margins{top: 10, right: 30, bottom: 30, left: 40}

// qcPanelHeight is the strip below the box plot holding the QC scores.
const qcPanelHeight = 100

const (
	boxWidth   = 100
	axisTicks  = 5
	tickLength = 4
)

var boxFill = color.RGBA{R: 0x69, G: 0xb3, B: 0xa2, A: 255}

// BoxplotInput describes a box plot. Summaries are drawn left to right in
// the given order. A nil QC prints a placeholder in the score panel.
type BoxplotInput struct {
	Summaries []stats.Summary
	YMax      float64
	QC        *stats.QCScores
}

// Boxplot renders one box per summary with whiskers at the outlier fences,
// followed by the QC score panel.
func (r *Renderer) Boxplot(in BoxplotInput) ([]byte, error) {
	if len(in.Summaries) == 0 {
		return nil, errors.New("render: box plot needs at least one group")
	}

	yMin := 0.0
	for _, s := range in.Summaries {
		yMin = math.Min(yMin, s.LowerFence)
	}
	if in.YMax <= yMin {
		return nil, fmt.Errorf("render: box plot axis [%g, %g] is empty", yMin, in.YMax)
	}

	dc := r.boxplotPool.Get().(*gg.Context)
	defer r.boxplotPool.Put(dc)
	reset(dc)

	plotW := float64(r.config.BoxplotWidth) - boxplotMargins.left - boxplotMargins.right
	plotH := float64(r.config.BoxplotHeight) - boxplotMargins.top - boxplotMargins.bottom
	y := func(v float64) float64 {
		return boxplotMargins.top + plotH*(in.YMax-v)/(in.YMax-yMin)
	}
	step := plotW / float64(len(in.Summaries))
	bw := math.Min(boxWidth, step*0.8)

	dc.SetColor(color.Black)
	for i, s := range in.Summaries {
		cx := boxplotMargins.left + (float64(i)+0.5)*step

		dc.DrawLine(cx, y(s.LowerFence), cx, y(s.UpperFence))
		dc.Stroke()

		dc.DrawRectangle(cx-bw/2, y(s.Q3), bw, y(s.Q1)-y(s.Q3))
		dc.SetColor(boxFill)
		dc.FillPreserve()
		dc.SetColor(color.Black)
		dc.Stroke()

		dc.DrawLine(cx-bw/2, y(s.Median), cx+bw/2, y(s.Median))
		dc.Stroke()

		dc.DrawStringAnchored(s.Group.String(), cx, y(yMin)+boxplotMargins.bottom/2, 0.5, 0.5)
	}

	r.drawValueAxis(dc, y, yMin, in.YMax)
	r.drawQC(dc, in.QC)
	return r.encodeContext(dc)
}

func (r *Renderer) drawValueAxis(dc *gg.Context, y func(float64) float64, lo, hi float64) {
	x := boxplotMargins.left
	dc.DrawLine(x, y(lo), x, y(hi))
	dc.Stroke()
	for i := 0; i <= axisTicks; i++ {
		v := lo + (hi-lo)*float64(i)/axisTicks
		dc.DrawLine(x-tickLength, y(v), x, y(v))
		dc.Stroke()
		dc.DrawStringAnchored(fmt.Sprintf("%.3g", v), x-tickLength-2, y(v), 1, 0.5)
	}
}

func (r *Renderer) drawQC(dc *gg.Context, qc *stats.QCScores) {
	top := float64(r.config.BoxplotHeight)
	x := boxplotMargins.left
	if qc == nil {
		dc.DrawString("QC scores unavailable: a control group is missing", x, top+qcPanelHeight/2)
		return
	}
	dc.DrawString(fmt.Sprintf("Z` value is: %.2f", qc.ZFactor), x, top+qcPanelHeight*0.35)
	dc.DrawString(fmt.Sprintf("SSMD value is: %.2f", qc.SSMD), x, top+qcPanelHeight*0.75)
}
