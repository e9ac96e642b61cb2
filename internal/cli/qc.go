package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/platemap-hts/platemap/internal/stats"
)

// qcResult is the machine-readable output of the qc command.
type qcResult struct {
	Wells     int             `json:"wells"`
	Dropped   int             `json:"dropped"`
	Summaries []stats.Summary `json:"summaries"`
	YMax      float64         `json:"y_max"`
	QC        *stats.QCScores `json:"qc,omitempty"`
	QCError   string          `json:"qc_error,omitempty"`
}

func newQCCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "qc <plate.csv>",
		Short: "Print group summaries and Z-factor / SSMD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openSession(cmd, args[0])
			if err != nil {
				return err
			}

			res := qcResult{
				Wells:     s.Analyzed().Len(),
				Dropped:   s.Dropped(),
				Summaries: s.Report().Summaries(),
				YMax:      s.Report().YMax(),
			}
			qc, err := s.QC()
			switch {
			case err == nil:
				res.QC = &qc
			case errors.Is(err, stats.ErrMissingControlGroup):
				res.QCError = err.Error()
			default:
				return err
			}

			switch format {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			case "text":
				return printQC(cmd.OutOrStdout(), res)
			default:
				return fmt.Errorf("cli: unknown format %q", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text, json)")
	return cmd
}

func printQC(w io.Writer, res qcResult) error {
	fmt.Fprintf(w, "wells: %d (dropped %d)\n\n", res.Wells, res.Dropped)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tN\tQ1\tMEDIAN\tQ3\tLOWER\tUPPER\tMEAN\tSD")
	for _, s := range res.Summaries {
		mean, sd := "-", "-"
		if s.Moments != nil {
			mean = fmt.Sprintf("%.4g", s.Moments.Mean)
			sd = fmt.Sprintf("%.4g", s.Moments.StdDev)
		}
		fmt.Fprintf(tw, "%s\t%d\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%s\t%s\n",
			s.Group, s.Count, s.Q1, s.Median, s.Q3, s.LowerFence, s.UpperFence, mean, sd)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if res.QC == nil {
		_, err := fmt.Fprintf(w, "QC unavailable: %s\n", res.QCError)
		return err
	}
	_, err := fmt.Fprintf(w, "Z-factor: %.2f\nSSMD: %.2f\n", res.QC.ZFactor, res.QC.SSMD)
	return err
}
