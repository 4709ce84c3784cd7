package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"retest-scanner/internal/models"
	"retest-scanner/pkg/utils"
)

func newChartCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart [symbol]",
		Short: "Render the close series as a terminal sparkline",
		Long: `Render the close series of a bar source as a sparkline.

With --invert the series is transformed for display only, so declines
read as rallies. "mirror" reflects around the median and keeps values
positive; "negate" multiplies by -1.`,
		Example: `  retest-scanner chart btc.v
  retest-scanner chart --file bars.csv --invert
  retest-scanner chart ndq --invert --method negate`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			bars, source, err := app.loadBars(ctx, cmd, args)
			if err != nil {
				output.Error("Failed to load bars: %v", err)
				return err
			}
			if err := models.ValidateBars(bars); err != nil {
				output.Error("Rejected input series: %v", err)
				return err
			}

			closes := make([]float64, len(bars))
			for i, b := range bars {
				closes[i] = b.Close
			}

			invert, _ := cmd.Flags().GetBool("invert")
			if invert {
				method, _ := cmd.Flags().GetString("method")
				closes = InvertSeries(closes, method)
			}

			width, _ := cmd.Flags().GetInt("width")

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"source":   source,
					"bars":     len(bars),
					"inverted": invert,
					"closes":   closes,
				})
			}

			first, last := closes[0], closes[len(closes)-1]
			output.Bold("%s  (%d bars)", source, len(bars))
			output.Println(Sparkline(closes, width))
			output.Printf("first %s  last %s\n", utils.FormatPrice(first), utils.FormatPrice(last))
			if invert {
				output.Dim("Inverted view: declines are rendered as rises.")
			}
			return nil
		},
	}

	cmd.Flags().String("file", "", "CSV file with Date,Open,High,Low,Close,Volume columns")
	cmd.Flags().String("from", "", "range start (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "range end (YYYY-MM-DD)")
	cmd.Flags().Bool("invert", false, "invert the series for display")
	cmd.Flags().String("method", InvertMirror, "inversion method: mirror or negate")
	cmd.Flags().Int("width", 80, "chart width in columns")

	return cmd
}
