package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"retest-scanner/internal/config"
	"retest-scanner/internal/logging"
	"retest-scanner/internal/marketdata"
	"retest-scanner/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    store.DataStore
	Provider marketdata.Provider
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize SQLite store
	dataStore, err := store.NewSQLiteStore(cfg.Data.DatabasePath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, caching and journaling unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", cfg.Data.DatabasePath).Msg("SQLite store initialized")
	}

	// Initialize remote market-data provider
	app.Provider = marketdata.NewStooqProvider(marketdata.StooqOptions{
		RequestTimeout: cfg.Data.RequestTimeout,
		RequestsPerSec: cfg.Data.RequestsPerSec,
	}, logger)

	rootCmd := &cobra.Command{
		Use:   "retest-scanner",
		Short: "Level retest scanner - breakout/retest/takeoff pattern detection",
		Long: `Retest Scanner detects a three-phase technical pattern in historical
price data: a breakout above a reference level, a pullback that retests
the level and holds, and a volatility-adjusted takeoff past it.

Bars come from local CSV files or the Stooq daily endpoint, and results
can be printed, exported as CSV, or journaled in SQLite.

Use 'retest-scanner help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/retest-scanner)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addScanCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addUtilityCommands(rootCmd, app)

	return rootCmd
}

// addUtilityCommands adds version and config commands.
func addUtilityCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
				return
			}
			output.Printf("retest-scanner %s\n", Version)
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}

			output.Bold("Scan defaults")
			output.Printf("  tolerance_pct:        %.4f\n", app.Config.Scan.TolerancePct)
			output.Printf("  max_retest_window:    %d\n", app.Config.Scan.MaxRetestWindow)
			output.Printf("  takeoff_window:       %d\n", app.Config.Scan.TakeoffWindow)
			output.Printf("  takeoff_pct:          %.4f\n", app.Config.Scan.TakeoffPct)
			output.Printf("  use_volatility_gate:  %t\n", app.Config.Scan.UseVolatilityGate)
			output.Printf("  atr_multiplier:       %.2f\n", app.Config.Scan.ATRMultiplier)
			output.Printf("  atr_period:           %d\n", app.Config.Scan.ATRPeriod)
			output.Bold("Data")
			output.Printf("  provider:             %s\n", app.Config.Data.Provider)
			output.Printf("  database_path:        %s\n", app.Config.Data.DatabasePath)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a config template to the config directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir, _ := cmd.Flags().GetString("config")
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			if err := config.WriteTemplate(dir); err != nil {
				return err
			}
			output.Success("Config template written to %s", dir)
			return nil
		},
	})

	return cmd
}
