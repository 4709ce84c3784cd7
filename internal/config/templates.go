package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Level Retest Scanner Configuration

[scan]
# Retest tolerance as a fraction of the level (0.001 = 0.1%%)
tolerance_pct = 0.001
# Maximum bars after the breakout to find a retest
max_retest_window = 20
# Maximum bars after the retest to confirm a takeoff
takeoff_window = 20
# Minimum takeoff as a fraction above the level (0.005 = 0.5%%)
takeoff_pct = 0.005
# Also require the close to clear level + atr_multiplier * ATR
use_volatility_gate = true
# ATR multiplier for the volatility gate
atr_multiplier = 1.0
# Trailing window for the ATR estimator
atr_period = 14

[data]
# Market data provider: "stooq"
provider = "stooq"
# SQLite database for cached bars and the event journal
database_path = "%s"
# HTTP request timeout (e.g. "30s")
request_timeout = "30s"
# Provider rate limit
requests_per_sec = 5

[ui]
# Enable colored output
color_enabled = true
# Time format for tables
time_format = "2006-01-02 15:04"
`

// WriteTemplate writes a commented config template to the config
// directory. Existing files are left untouched.
func WriteTemplate(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	content := fmt.Sprintf(configTemplate, filepath.Join(configDir, "scanner.db"))
	return os.WriteFile(path, []byte(content), 0644)
}
