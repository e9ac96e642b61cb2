package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func writeImage(cmd *cobra.Command, app *appContext, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cli: write %s: %w", path, err)
	}
	app.Logger.Info("image written", zap.String("path", path), zap.Int("bytes", len(data)))
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func newHeatmapCmd() *cobra.Command {
	var (
		out      string
		cutoff   float64
		rng      []float64
		guidance bool
	)

	cmd := &cobra.Command{
		Use:   "heatmap <plate.csv>",
		Short: "Render the plate heatmap with highlighted wells",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, app, err := openSession(cmd, args[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("cutoff") {
				if _, err := s.SetCutoff(cutoff); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("range") {
				if len(rng) != 2 {
					return fmt.Errorf("cli: --range needs two values, got %d", len(rng))
				}
				if err := s.SetRange(rng[0], rng[1]); err != nil {
					return err
				}
			}

			var data []byte
			if guidance {
				data, err = s.GuidancePNG()
			} else {
				data, err = s.HeatmapPNG()
			}
			if err != nil {
				return err
			}
			return writeImage(cmd, app, out, data)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "heatmap.png", "output PNG path")
	cmd.Flags().Float64Var(&cutoff, "cutoff", 0, "highlight wells with value >= cutoff")
	cmd.Flags().Float64SliceVar(&rng, "range", nil, "color range as low,high")
	cmd.Flags().BoolVar(&guidance, "guidance", false, "draw the navigation grid without values")
	return cmd
}

func newBoxplotCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "boxplot <plate.csv>",
		Short: "Render the group box plot with QC scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, app, err := openSession(cmd, args[0])
			if err != nil {
				return err
			}
			data, err := s.BoxplotPNG()
			if err != nil {
				return err
			}
			return writeImage(cmd, app, out, data)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "boxplot.png", "output PNG path")
	return cmd
}

func newLegendCmd() *cobra.Command {
	var (
		out    string
		rng    []float64
		height int
	)

	cmd := &cobra.Command{
		Use:   "legend <plate.csv>",
		Short: "Render the heatmap color legend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, app, err := openSession(cmd, args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("range") {
				if len(rng) != 2 {
					return fmt.Errorf("cli: --range needs two values, got %d", len(rng))
				}
				if err := s.SetRange(rng[0], rng[1]); err != nil {
					return err
				}
			}
			data, err := s.LegendPNG(app.Config.Render.LegendWidth, height)
			if err != nil {
				return err
			}
			return writeImage(cmd, app, out, data)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "legend.png", "output PNG path")
	cmd.Flags().Float64SliceVar(&rng, "range", nil, "color range as low,high")
	cmd.Flags().IntVar(&height, "height", 30, "legend height in pixels")
	return cmd
}
