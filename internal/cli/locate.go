package cli

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/platemap-hts/platemap/internal/viewer"
)

// locateResult is the viewer state after navigating to a well.
type locateResult struct {
	Row    string       `json:"row"`
	Col    string       `json:"col"`
	Point  viewer.Point `json:"point"`
	Zoom   float64      `json:"zoom"`
	Bounds viewer.Rect  `json:"bounds"`
	Image  viewer.Point `json:"image_pixel"`
}

func newLocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate <plate.csv> <row> <col>",
		Short: "Navigate the in-memory viewer to a well and print the view",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openSession(cmd, args[0])
			if err != nil {
				return err
			}
			m, ok := s.Viewer().(*viewer.Model)
			if !ok {
				return errors.New("cli: locate needs the in-memory viewer")
			}

			p, err := s.Focus(args[1], args[2])
			if err != nil {
				return err
			}
			x, y := m.ViewportToImageCoordinates(p)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(locateResult{
				Row:    args[1],
				Col:    args[2],
				Point:  p,
				Zoom:   m.Zoom(),
				Bounds: m.Bounds(),
				Image:  viewer.Point{X: x, Y: y},
			})
		},
	}
}
