package render

import (
	"fmt"
	"math"

	"github.com/fogleman/gg"

	"github.com/platemap-hts/platemap/pkg/colormap"
)

// LegendSteps is the number of swatches in a legend bar.
const LegendSteps = 100

// Legend renders a w x h gradient bar sampling scale from its minimum on the
// left to its maximum on the right.
func (r *Renderer) Legend(scale colormap.Scale, w, h int) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render: legend size %dx%d is not positive", w, h)
	}

	dc := gg.NewContext(w, h)
	reset(dc)

	swatches := scale.Legend(LegendSteps)
	unit := float64(w) / float64(len(swatches))
	for i, c := range swatches {
		x0 := math.Floor(float64(i) * unit)
		x1 := math.Floor(float64(i+1) * unit)
		if i == len(swatches)-1 {
			x1 = float64(w)
		}
		dc.SetColor(c)
		// One pixel of overlap hides seams between swatches.
		dc.DrawRectangle(x0, 0, x1-x0+1, float64(h))
		dc.Fill()
	}
	return r.encodeContext(dc)
}
