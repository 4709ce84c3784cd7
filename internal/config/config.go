// Package config provides configuration management for the scanner application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"retest-scanner/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Scan ScanConfig `mapstructure:"scan"`
	Data DataConfig `mapstructure:"data"`
	UI   UIConfig   `mapstructure:"ui"`
}

// ScanConfig holds the pattern-scan parameter defaults. The level has
// no sensible default and must be supplied per scan.
type ScanConfig struct {
	Level             float64 `mapstructure:"level"`
	TolerancePct      float64 `mapstructure:"tolerance_pct"` // fraction of level
	MaxRetestWindow   int     `mapstructure:"max_retest_window"`
	TakeoffWindow     int     `mapstructure:"takeoff_window"`
	TakeoffPct        float64 `mapstructure:"takeoff_pct"` // fraction of level
	UseVolatilityGate bool    `mapstructure:"use_volatility_gate"`
	ATRMultiplier     float64 `mapstructure:"atr_multiplier"`
	ATRPeriod         int     `mapstructure:"atr_period"`
}

// DataConfig holds market-data and persistence configuration.
type DataConfig struct {
	Provider       string        `mapstructure:"provider"` // "stooq"
	DatabasePath   string        `mapstructure:"database_path"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RequestsPerSec int           `mapstructure:"requests_per_sec"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	TimeFormat   string `mapstructure:"time_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/retest-scanner"
	}
	return filepath.Join(home, ".config", "retest-scanner")
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			TolerancePct:      0.001,
			MaxRetestWindow:   20,
			TakeoffWindow:     20,
			TakeoffPct:        0.005,
			UseVolatilityGate: true,
			ATRMultiplier:     1.0,
			ATRPeriod:         14,
		},
		Data: DataConfig{
			Provider:       "stooq",
			DatabasePath:   filepath.Join(DefaultConfigDir(), "scanner.db"),
			RequestTimeout: 30 * time.Second,
			RequestsPerSec: 5,
		},
		UI: UIConfig{
			ColorEnabled: true,
			TimeFormat:   "2006-01-02 15:04",
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	def := Default()
	v.SetDefault("scan.tolerance_pct", def.Scan.TolerancePct)
	v.SetDefault("scan.max_retest_window", def.Scan.MaxRetestWindow)
	v.SetDefault("scan.takeoff_window", def.Scan.TakeoffWindow)
	v.SetDefault("scan.takeoff_pct", def.Scan.TakeoffPct)
	v.SetDefault("scan.use_volatility_gate", def.Scan.UseVolatilityGate)
	v.SetDefault("scan.atr_multiplier", def.Scan.ATRMultiplier)
	v.SetDefault("scan.atr_period", def.Scan.ATRPeriod)
	v.SetDefault("data.provider", def.Data.Provider)
	v.SetDefault("data.database_path", def.Data.DatabasePath)
	v.SetDefault("data.request_timeout", def.Data.RequestTimeout)
	v.SetDefault("data.requests_per_sec", def.Data.RequestsPerSec)
	v.SetDefault("ui.color_enabled", def.UI.ColorEnabled)
	v.SetDefault("ui.time_format", def.UI.TimeFormat)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if werr := WriteTemplate(configDir); werr != nil {
				return nil, fmt.Errorf("creating config template: %w", werr)
			}
		} else {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration defaults. The level is validated
// separately at scan time, since it is ordinarily supplied per scan.
func (c *Config) Validate() error {
	if err := validateParams(c.Scan); err != nil {
		return err
	}
	if c.Data.RequestsPerSec <= 0 {
		return errors.NewValidationError("data.requests_per_sec", c.Data.RequestsPerSec, "must be positive")
	}
	if c.Data.RequestTimeout <= 0 {
		return errors.NewValidationError("data.request_timeout", c.Data.RequestTimeout, "must be positive")
	}
	return nil
}

// Validate checks the full scan parameter set, including the level.
// This is the configuration boundary: the scanner itself performs no
// validation.
func (s ScanConfig) Validate() error {
	if s.Level <= 0 {
		return errors.NewValidationError("level", s.Level, "must be positive")
	}
	return validateParams(s)
}

func validateParams(s ScanConfig) error {
	if s.TolerancePct <= 0 {
		return errors.NewValidationError("tolerance_pct", s.TolerancePct, "must be positive")
	}
	if s.MaxRetestWindow < 1 {
		return errors.NewValidationError("max_retest_window", s.MaxRetestWindow, "must be a positive integer")
	}
	if s.TakeoffWindow < 1 {
		return errors.NewValidationError("takeoff_window", s.TakeoffWindow, "must be a positive integer")
	}
	if s.TakeoffPct <= 0 {
		return errors.NewValidationError("takeoff_pct", s.TakeoffPct, "must be positive")
	}
	if s.ATRMultiplier <= 0 {
		return errors.NewValidationError("atr_multiplier", s.ATRMultiplier, "must be positive")
	}
	if s.ATRPeriod < 1 {
		return errors.NewValidationError("atr_period", s.ATRPeriod, "must be a positive integer")
	}
	return nil
}
