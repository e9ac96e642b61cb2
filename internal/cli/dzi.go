package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/platemap-hts/platemap/internal/dzi"
)

func newDZICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dzi <image.dzi>",
		Short: "Print the extent and pyramid layout of a Deep Zoom image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dzi.LoadDescriptor(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "extent: %dx%d\ntile: %d px, overlap %d, %s\nlevels: %d\n\n",
				d.Width, d.Height, d.TileSize, d.Overlap, d.Format, d.NumLevels())

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "LEVEL\tWIDTH\tHEIGHT\tTILES")
			for level := 0; level < d.NumLevels(); level++ {
				lw, lh, err := d.Dimensions(level)
				if err != nil {
					return err
				}
				cols, rows, err := d.NumTiles(level)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%d\t%d\t%d\t%dx%d\n", level, lw, lh, cols, rows)
			}
			return tw.Flush()
		},
	}
}

func newMontageCmd() *cobra.Command {
	var (
		m        = dzi.DefaultMontage()
		out      string
		tileSize int
		overlap  int
	)

	cmd := &cobra.Command{
		Use:   "montage",
		Short: "Compute the plate montage extent and write its Deep Zoom descriptor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := m.Validate(); err != nil {
				return err
			}
			d := m.Descriptor(tileSize, overlap, dzi.DefaultFormat)
			if err := d.Validate(); err != nil {
				return err
			}

			if out == "" {
				_, err := d.WriteTo(cmd.OutOrStdout())
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("cli: create %s: %w", out, err)
			}
			if _, err := d.WriteTo(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d\n", out, d.Width, d.Height)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&m.PlateCols, "plate-cols", m.PlateCols, "wells per plate row")
	f.IntVar(&m.PlateRows, "plate-rows", m.PlateRows, "wells per plate column")
	f.IntVar(&m.WellCols, "well-cols", m.WellCols, "fields of view per well row")
	f.IntVar(&m.WellRows, "well-rows", m.WellRows, "fields of view per well column")
	f.IntVar(&m.ImageWidth, "image-width", m.ImageWidth, "field of view width in pixels")
	f.IntVar(&m.ImageHeight, "image-height", m.ImageHeight, "field of view height in pixels")
	f.IntVar(&tileSize, "tile-size", dzi.DefaultTileSize, "Deep Zoom tile size")
	f.IntVar(&overlap, "overlap", dzi.DefaultOverlap, "Deep Zoom tile overlap")
	f.StringVarP(&out, "out", "o", "", "descriptor path (stdout when empty)")
	return cmd
}
