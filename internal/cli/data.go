package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"retest-scanner/internal/marketdata"
	"retest-scanner/internal/models"
	"retest-scanner/internal/store"
	"retest-scanner/pkg/utils"
)

// addDataCommands adds market-data and journal commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newFetchCmd(app))
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newEventsCmd(app))
}

func newFetchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <symbol>",
		Short: "Fetch historical bars into the local cache",
		Example: `  retest-scanner fetch btc.v
  retest-scanner fetch spy.us --from 2024-01-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			if app.Store == nil {
				output.Error("Store unavailable, nothing to fetch into.")
				return fmt.Errorf("store unavailable")
			}

			symbol := strings.ToLower(args[0])
			from, to, err := parseRange(cmd)
			if err != nil {
				return err
			}

			output.Info("Fetching %s from %s...", symbol, app.Provider.Name())

			bars, err := app.Provider.GetHistorical(ctx, marketdata.Request{
				Symbol:   symbol,
				Interval: "d",
				From:     from,
				To:       to,
			})
			if err != nil {
				output.Error("Fetch failed: %v", err)
				return err
			}

			if err := app.Store.SaveBars(ctx, symbol, "d", bars); err != nil {
				output.Error("Failed to cache bars: %v", err)
				return err
			}
			if err := app.Store.SetLastSync("bars:"+symbol, time.Now()); err != nil {
				app.Logger.Warn().Err(err).Msg("Failed to record sync time")
			}

			output.Success("Cached %d bars for %s (%s to %s)", len(bars), symbol,
				bars[0].Timestamp.Format("2006-01-02"),
				bars[len(bars)-1].Timestamp.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().String("from", "", "range start (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "range end (YYYY-MM-DD)")

	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file> <symbol>",
		Short: "Import a CSV of bars into the local cache",
		Long: `Import bars from a CSV file with Date,Open,High,Low,Close,Volume
columns and cache them under the given symbol. Rows with missing or
unparsable fields are dropped.`,
		Example: `  retest-scanner import bars.csv btc-usd`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if app.Store == nil {
				output.Error("Store unavailable, nothing to import into.")
				return fmt.Errorf("store unavailable")
			}

			file := args[0]
			symbol := strings.ToLower(args[1])

			provider := marketdata.NewFileProvider(file, app.Logger)
			bars, err := provider.GetHistorical(ctx, marketdata.Request{})
			if err != nil {
				output.Error("Import failed: %v", err)
				return err
			}
			if err := models.ValidateBars(bars); err != nil {
				output.Error("Rejected input series: %v", err)
				return err
			}

			if err := app.Store.SaveBars(ctx, symbol, "d", bars); err != nil {
				output.Error("Failed to cache bars: %v", err)
				return err
			}

			output.Success("Imported %d bars from %s as %s", len(bars), file, symbol)
			return nil
		},
	}

	return cmd
}

func newEventsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List journaled scan events",
		Example: `  retest-scanner events
  retest-scanner events --symbol btc.v --limit 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if app.Store == nil {
				output.Error("Store unavailable, no journal to read.")
				return fmt.Errorf("store unavailable")
			}

			symbol, _ := cmd.Flags().GetString("symbol")
			limit, _ := cmd.Flags().GetInt("limit")

			events, err := app.Store.GetEvents(ctx, store.EventFilter{
				Symbol: strings.ToLower(symbol),
				Limit:  limit,
			})
			if err != nil {
				output.Error("Failed to read journal: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(events)
			}

			if len(events) == 0 {
				output.Info("No journaled events.")
				return nil
			}

			timeFormat := app.Config.UI.TimeFormat
			headers := []string{"ID", "SYMBOL", "LEVEL", "BREAKOUT", "TAKEOFF", "RETURN", "SAVED"}
			rows := make([][]string, 0, len(events))
			for _, e := range events {
				rows = append(rows, []string{
					fmt.Sprintf("%d", e.ID),
					e.Symbol,
					utils.FormatPrice(e.Level),
					e.BreakoutTime.Format(timeFormat),
					e.TakeoffTime.Format(timeFormat),
					utils.FormatPercent(e.ReturnFromLevelPct),
					e.CreatedAt.Format("2006-01-02"),
				})
			}
			output.Table(headers, rows)
			return nil
		},
	}

	cmd.Flags().String("symbol", "", "filter by symbol")
	cmd.Flags().Int("limit", 20, "maximum events to list")

	return cmd
}
