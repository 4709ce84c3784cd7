package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"retest-scanner/internal/config"
	"retest-scanner/internal/export"
	"retest-scanner/internal/marketdata"
	"retest-scanner/internal/models"
	"retest-scanner/internal/scan"
	"retest-scanner/pkg/utils"
)

// addScanCommands adds the pattern-scan commands.
func addScanCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newScanCmd(app))
	rootCmd.AddCommand(newChartCmd(app))
}

func newScanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [symbol]",
		Short: "Scan a price series for breakout/retest/takeoff events",
		Long: `Scan a bar series for the three-phase pattern around a key level:

1. Breakout  - close crosses the level from below to at/above
2. Retest    - a later bar touches the tolerance band and closes at/above the level
3. Takeoff   - a later close clears the volatility-adjusted threshold

Bars come from --file, or from the cache/provider for a symbol.
Overlapping events are reported as independent signals.`,
		Example: `  retest-scanner scan btc.v --level 60000
  retest-scanner scan --file bars.csv --level 100 --tolerance 0.002
  retest-scanner scan ndq --level 18000 --no-atr-gate --csv signals.csv
  retest-scanner scan spy.us --level 500 --save`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			scanCfg, err := mergeScanFlags(cmd, app.Config.Scan)
			if err != nil {
				return err
			}
			if err := scanCfg.Validate(); err != nil {
				output.Error("Invalid parameters: %v", err)
				return err
			}

			bars, source, err := app.loadBars(ctx, cmd, args)
			if err != nil {
				output.Error("Failed to load bars: %v", err)
				return err
			}

			if err := models.ValidateBars(bars); err != nil {
				output.Error("Rejected input series: %v", err)
				return err
			}

			app.Logger.Debug().
				Int("bars", len(bars)).
				Float64("level", scanCfg.Level).
				Str("source", source).
				Msg("Running scan")

			scanner := scan.NewScanner(scan.Params{
				Level:             scanCfg.Level,
				Tolerance:         scanCfg.TolerancePct,
				MaxRetestWindow:   scanCfg.MaxRetestWindow,
				TakeoffWindow:     scanCfg.TakeoffWindow,
				TakeoffPct:        scanCfg.TakeoffPct,
				UseVolatilityGate: scanCfg.UseVolatilityGate,
				ATRMultiplier:     scanCfg.ATRMultiplier,
			}, scanCfg.ATRPeriod)

			events := scanner.Scan(bars)

			if output.IsJSON() {
				if err := output.JSON(events); err != nil {
					return err
				}
			} else {
				printEvents(output, app.Config.UI.TimeFormat, events, scanCfg)
			}

			if csvPath, _ := cmd.Flags().GetString("csv"); csvPath != "" {
				if err := export.WriteEventsFile(csvPath, events); err != nil {
					output.Error("Failed to export CSV: %v", err)
					return err
				}
				output.Success("Exported %d events to %s", len(events), csvPath)
			}

			if save, _ := cmd.Flags().GetBool("save"); save {
				if app.Store == nil {
					output.Warning("Store unavailable, events not journaled")
				} else if err := app.Store.SaveEvents(ctx, source, events); err != nil {
					output.Error("Failed to journal events: %v", err)
					return err
				} else {
					output.Success("Journaled %d events for %s", len(events), source)
				}
			}

			return nil
		},
	}

	cmd.Flags().String("file", "", "CSV file with Date,Open,High,Low,Close,Volume columns")
	cmd.Flags().Float64("level", 0, "key level to scan around (required)")
	cmd.Flags().Float64("tolerance", 0, "retest tolerance as a fraction of the level")
	cmd.Flags().Int("retest-window", 0, "max bars to find a retest")
	cmd.Flags().Int("takeoff-window", 0, "max bars to confirm a takeoff")
	cmd.Flags().Float64("takeoff-pct", 0, "min takeoff as a fraction above the level")
	cmd.Flags().Bool("no-atr-gate", false, "disable the ATR-based thrust requirement")
	cmd.Flags().Float64("atr-mult", 0, "ATR multiplier for the volatility gate")
	cmd.Flags().Int("atr-period", 0, "trailing window for the ATR estimator")
	cmd.Flags().String("from", "", "range start (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "range end (YYYY-MM-DD)")
	cmd.Flags().String("csv", "", "export events to a CSV file")
	cmd.Flags().Bool("save", false, "journal events in the store")
	cmd.MarkFlagRequired("level")

	return cmd
}

// mergeScanFlags overlays explicit flags on the configured defaults.
func mergeScanFlags(cmd *cobra.Command, defaults config.ScanConfig) (config.ScanConfig, error) {
	cfg := defaults

	cfg.Level, _ = cmd.Flags().GetFloat64("level")
	if cmd.Flags().Changed("tolerance") {
		cfg.TolerancePct, _ = cmd.Flags().GetFloat64("tolerance")
	}
	if cmd.Flags().Changed("retest-window") {
		cfg.MaxRetestWindow, _ = cmd.Flags().GetInt("retest-window")
	}
	if cmd.Flags().Changed("takeoff-window") {
		cfg.TakeoffWindow, _ = cmd.Flags().GetInt("takeoff-window")
	}
	if cmd.Flags().Changed("takeoff-pct") {
		cfg.TakeoffPct, _ = cmd.Flags().GetFloat64("takeoff-pct")
	}
	if cmd.Flags().Changed("no-atr-gate") {
		noGate, _ := cmd.Flags().GetBool("no-atr-gate")
		cfg.UseVolatilityGate = !noGate
	}
	if cmd.Flags().Changed("atr-mult") {
		cfg.ATRMultiplier, _ = cmd.Flags().GetFloat64("atr-mult")
	}
	if cmd.Flags().Changed("atr-period") {
		cfg.ATRPeriod, _ = cmd.Flags().GetInt("atr-period")
	}

	return cfg, nil
}

// printEvents renders the scan result as a table with a summary line.
func printEvents(output *Output, timeFormat string, events []models.Event, cfg config.ScanConfig) {
	gate := "off"
	if cfg.UseVolatilityGate {
		gate = fmt.Sprintf("on (x%.1f)", cfg.ATRMultiplier)
	}
	output.Printf("Level %s  |  tolerance ±%.2f%%  |  takeoff ≥%.2f%%  |  ATR gate %s\n\n",
		utils.FormatPrice(cfg.Level), cfg.TolerancePct*100, cfg.TakeoffPct*100, gate)

	if len(events) == 0 {
		output.Info("No breakout → retest → takeoff sequences found.")
		return
	}

	headers := []string{"#", "BREAKOUT", "RETEST", "TAKEOFF", "CLOSE", "RETURN", "B→R", "R→T", "ATR"}
	rows := make([][]string, 0, len(events))
	for i, e := range events {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			e.BreakoutTime.Format(timeFormat),
			e.RetestTime.Format(timeFormat),
			e.TakeoffTime.Format(timeFormat),
			utils.FormatPrice(e.CloseAtTakeoff),
			utils.FormatPercent(e.ReturnFromLevelPct),
			utils.FormatBars(e.BarsToRetest),
			utils.FormatBars(e.BarsToTakeoff),
			fmt.Sprintf("%.4f", e.ATRAtTakeoff),
		})
	}
	output.Table(headers, rows)
	output.Printf("\n")
	output.Success("%d pattern match(es)", len(events))
}

// loadBars resolves the bar source: an explicit file, or a symbol
// served from the cache when fresh enough, otherwise the provider.
func (app *App) loadBars(ctx context.Context, cmd *cobra.Command, args []string) ([]models.Bar, string, error) {
	from, to, err := parseRange(cmd)
	if err != nil {
		return nil, "", err
	}

	if file, _ := cmd.Flags().GetString("file"); file != "" {
		provider := marketdata.NewFileProvider(file, app.Logger)
		bars, err := provider.GetHistorical(ctx, marketdata.Request{From: from, To: to})
		return bars, file, err
	}

	if len(args) == 0 {
		return nil, "", fmt.Errorf("either a symbol or --file is required")
	}
	symbol := strings.ToLower(args[0])

	if app.Store != nil {
		bars, err := app.Store.GetBars(ctx, symbol, "d", from, to)
		if err == nil && len(bars) > 0 {
			app.Logger.Debug().Int("bars", len(bars)).Str("symbol", symbol).Msg("Serving bars from cache")
			return bars, symbol, nil
		}
	}

	bars, err := app.Provider.GetHistorical(ctx, marketdata.Request{
		Symbol:   symbol,
		Interval: "d",
		From:     from,
		To:       to,
	})
	if err != nil {
		return nil, "", err
	}

	if app.Store != nil {
		if err := app.Store.SaveBars(ctx, symbol, "d", bars); err != nil {
			app.Logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache bars")
		}
	}

	return bars, symbol, nil
}

func parseRange(cmd *cobra.Command) (time.Time, time.Time, error) {
	var from, to time.Time
	if s, _ := cmd.Flags().GetString("from"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return from, to, fmt.Errorf("invalid --from date: %w", err)
		}
		from = t
	}
	if s, _ := cmd.Flags().GetString("to"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return from, to, fmt.Errorf("invalid --to date: %w", err)
		}
		to = t
	}
	return from, to, nil
}
