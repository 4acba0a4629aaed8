package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level        string            `mapstructure:"level"`
	File         string            `mapstructure:"file"`
	ConsoleLevel string            `mapstructure:"console_level"`
	Rotation     RotationConfig    `mapstructure:"rotation"`
	Components   map[string]string `mapstructure:"components"`
}

// DedupConfig configures duplicate detection.
type DedupConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Cache   bool `mapstructure:"cache"`
}

// ManifestConfig configures manifest placement.
type ManifestConfig struct {
	// Dir overrides where manifests are written. Empty means the
	// destination root of each run.
	Dir string `mapstructure:"dir"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Settle time.Duration `mapstructure:"settle"`
}

// HistoryConfig configures manifest retention.
type HistoryConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	Mode      string         `mapstructure:"mode"`
	Recursive bool           `mapstructure:"recursive"`
	ByDate    bool           `mapstructure:"by_date"`
	Conflict  string         `mapstructure:"conflict"`
	Output    string         `mapstructure:"output"`
	Rules     string         `mapstructure:"rules"`
	Exclude   []string       `mapstructure:"exclude"`
	Dedup     DedupConfig    `mapstructure:"dedup"`
	Manifest  ManifestConfig `mapstructure:"manifest"`
	Watch     WatchConfig    `mapstructure:"watch"`
	History   HistoryConfig  `mapstructure:"history"`
	Logging   LoggingConfig  `mapstructure:"logging"`
}

// Default returns the built-in configuration, the same values a run
// uses when no config file exists.
func Default() *Config {
	return &Config{
		Mode:      DefaultMode,
		Recursive: true,
		Conflict:  DefaultConflict,
		Output:    DefaultOutput,
		Exclude:   []string{},
		Dedup:     DedupConfig{Enabled: true, Cache: true},
		Watch:     WatchConfig{Settle: DefaultSettle},
		History:   HistoryConfig{RetentionDays: DefaultRetentionDays},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
			Rotation: RotationConfig{
				MaxSize:    "10MB",
				MaxAge:     30,
				MaxBackups: 5,
				Daily:      true,
			},
			Components: DefaultComponentLevels,
		},
	}
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/shelf/config.yaml
//   - $HOME/.config/shelf/config.yaml
//
// Environment variables are prefixed with SHELF_ (e.g., SHELF_MODE).
func Load() (*Config, error) {
	return load("")
}

// LoadFile loads configuration from an explicit file path. Unlike Load,
// a missing file is an error.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(explicit string) (*Config, error) {
	v := viper.New()

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, "shelf"))
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(homeDir, ".config", "shelf"))
	}

	v.SetEnvPrefix("SHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, p := range []*string{&cfg.Rules, &cfg.Manifest.Dir, &cfg.Logging.File} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", DefaultMode)
	v.SetDefault("recursive", true)
	v.SetDefault("by_date", false)
	v.SetDefault("conflict", DefaultConflict)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("rules", "")
	v.SetDefault("exclude", []string{})

	v.SetDefault("dedup.enabled", true)
	v.SetDefault("dedup.cache", true)

	v.SetDefault("manifest.dir", "")
	v.SetDefault("watch.settle", DefaultSettle)
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.file", "") // Empty means use the default log path
	v.SetDefault("logging.console_level", "")
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", DefaultComponentLevels)
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "shelf"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "shelf"), nil
}

// ConfigPath returns the path of the config file inside ConfigDir.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// WriteDefault writes a default config file if none exists.
// Returns the config path; writing nothing when a file already exists.
func WriteDefault() (string, error) {
	if err := EnsureConfigDir(); err != nil {
		return "", err
	}

	configPath, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# Shelf File Organizer Configuration

# Transfer mode: move or copy
mode: %s

# Descend into subdirectories when collecting files
recursive: true

# Add YYYY/MM subdirectories from each file's modification time
by_date: false

# What to do when a destination name is taken: rename or skip
conflict: %s

# Report format: pretty, plain, json, jsonl, yaml, tsv, csv, markdown,
# paths, template, null
output: %s

# Path to a custom rules file (JSON or YAML extension -> category map)
rules: ""

# Glob patterns excluded from collection
exclude: []

# Duplicate detection
dedup:
  enabled: true
  # Memoize content hashes in the on-disk cache
  cache: true

# Manifest settings
manifest:
  # Directory for manifests (empty means the destination root)
  dir: ""

# Watch mode
watch:
  # How long a file must be quiet before it is organized
  settle: %s

# History retention for 'shelf history clean'
history:
  retention_days: %d

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: %s
  # Log file path (empty means use default: $XDG_STATE_HOME/shelf/shelf.log)
  file: ""
  # Mirror logs to stderr at this level (empty disables console logs)
  console_level: ""
  # Log rotation settings
  rotation:
    max_size: 10MB
    max_age: 30       # days
    max_backups: 5
    daily: true
  # Per-component log levels
  components:
    organizer: info
    watcher: info
    undo: info
    cli: info
`, DefaultMode, DefaultConflict, DefaultOutput, DefaultSettle, DefaultRetentionDays, DefaultLogLevel)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return configPath, nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/shelf/.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "shelf")
}

// StateDir returns $XDG_STATE_HOME/shelf/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "shelf")
}

// CacheDir returns $XDG_CACHE_HOME/shelf/.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "shelf")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "shelf.log")
}

// DefaultHashCachePath returns the default badger hash store directory.
func DefaultHashCachePath() string {
	return filepath.Join(CacheDir(), "hashes")
}

// EnsureStateDir creates the state directory if it doesn't exist.
func EnsureStateDir() error {
	if err := os.MkdirAll(StateDir(), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}

// EnsureCacheDir creates the cache directory if it doesn't exist.
func EnsureCacheDir() error {
	if err := os.MkdirAll(CacheDir(), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	return nil
}
