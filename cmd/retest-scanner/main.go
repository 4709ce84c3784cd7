package main

import (
	"os"

	"retest-scanner/internal/cli"
	"retest-scanner/internal/config"
	"retest-scanner/internal/logging"
)

func main() {
	configDir := configDirArg()

	logger := logging.NewLogger()

	cfg, err := config.Load(configDir)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// configDirArg pre-parses --config so the config is loaded before
// cobra runs.
func configDirArg() string {
	args := os.Args[1:]
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if len(arg) > len("--config=") && arg[:len("--config=")] == "--config=" {
			return arg[len("--config="):]
		}
	}
	return ""
}
