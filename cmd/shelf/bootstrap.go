package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelfkit/shelf/pkg/shelf/config"
	"github.com/shelfkit/shelf/pkg/shelf/logging"
	"github.com/shelfkit/shelf/pkg/shelf/types"
)

// defaultRotationSize is used when the configured max_size is missing
// or unparseable.
const defaultRotationSize = 10 * 1024 * 1024

// loadConfig loads the effective configuration, honoring --config.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFile(cfgFile)
	}
	return config.Load()
}

// initializeLogging is the PersistentPreRunE hook: it makes sure the
// XDG directories exist and brings up the file logger before any
// command runs. A broken config file falls back to default logging so
// commands like 'shelf config edit' stay usable.
func initializeLogging(_ *cobra.Command, _ []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("preparing config directory: %w", err)
	}
	if err := os.MkdirAll(config.DataDir(), 0o755); err != nil {
		return fmt.Errorf("preparing data directory: %w", err)
	}
	if err := config.EnsureStateDir(); err != nil {
		return fmt.Errorf("preparing state directory: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		printVerbose("Config load failed, using default logging: %v", err)
		cfg = config.Default()
	}

	logCfg := logging.Config{
		Level:        viper.GetString("logging.level"),
		Path:         viper.GetString("logging.file"),
		Rotation:     parseRotationConfig(cfg.Logging.Rotation),
		Components:   cfg.Logging.Components,
		ConsoleLevel: cfg.Logging.ConsoleLevel,
	}
	if logCfg.Level == "" {
		logCfg.Level = cfg.Logging.Level
	}
	if logCfg.Level == "" {
		logCfg.Level = config.DefaultLogLevel
	}
	if logCfg.Path == "" {
		logCfg.Path = cfg.Logging.File
	}
	if getVerbose() {
		logCfg.ConsoleLevel = "debug"
	}

	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	return nil
}

// initTUILogging reinitializes logging with console output disabled;
// the interactive review owns the terminal.
func initTUILogging() error {
	cfg, err := loadConfig()
	if err != nil {
		cfg = config.Default()
	}

	logCfg := logging.Config{
		Level:      viper.GetString("logging.level"),
		Path:       viper.GetString("logging.file"),
		Rotation:   parseRotationConfig(cfg.Logging.Rotation),
		Components: cfg.Logging.Components,
	}
	if logCfg.Level == "" {
		logCfg.Level = cfg.Logging.Level
	}
	if logCfg.Level == "" {
		logCfg.Level = config.DefaultLogLevel
	}
	if logCfg.Path == "" {
		logCfg.Path = cfg.Logging.File
	}

	return logging.Init(logCfg)
}

// parseRotationConfig converts the string-based rotation settings into
// the logging package's numeric form.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	maxSize := int64(defaultRotationSize)
	if rc.MaxSize != "" {
		if parsed, err := types.ParseSize(rc.MaxSize); err == nil {
			maxSize = parsed
		}
	}

	return logging.RotationConfig{
		MaxSize:    maxSize,
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}
}
