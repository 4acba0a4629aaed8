package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shelfkit/shelf/pkg/shelf/logging"
)

// TestInit exercises Init with various configurations.
// Note: these tests modify global state and cannot run in parallel.
func TestInit(t *testing.T) {
	validDir := t.TempDir()
	debugDir := t.TempDir()
	componentsDir := t.TempDir()
	invalidDir := t.TempDir()

	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr bool
	}{
		{
			name: "valid config with defaults",
			cfg: logging.Config{
				Level: "info",
				Path:  filepath.Join(validDir, "test.log"),
			},
			wantErr: false,
		},
		{
			name: "valid config with debug level",
			cfg: logging.Config{
				Level: "debug",
				Path:  filepath.Join(debugDir, "debug.log"),
			},
			wantErr: false,
		},
		{
			name: "valid config with component overrides",
			cfg: logging.Config{
				Level: "info",
				Path:  filepath.Join(componentsDir, "components.log"),
				Components: map[string]string{
					"organizer": "debug",
					"watcher":   "warn",
				},
			},
			wantErr: false,
		},
		{
			name: "invalid log level",
			cfg: logging.Config{
				Level: "invalid",
				Path:  filepath.Join(invalidDir, "invalid.log"),
			},
			wantErr: true,
		},
		{
			name: "invalid component level",
			cfg: logging.Config{
				Level:      "info",
				Path:       filepath.Join(invalidDir, "comp.log"),
				Components: map[string]string{"organizer": "loud"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logging.Init(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Init() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if err == nil {
				if closeErr := logging.Close(); closeErr != nil {
					t.Errorf("Close() error = %v", closeErr)
				}
			}
		})
	}
}

func TestGet(t *testing.T) {
	tempDir := t.TempDir()
	cfg := logging.Config{
		Level: "info",
		Path:  filepath.Join(tempDir, "test.log"),
		Components: map[string]string{
			"organizer": "debug",
			"watcher":   "error",
		},
	}

	if err := logging.Init(cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() {
		if err := logging.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}()

	for _, component := range []string{"organizer", "watcher", "undo", ""} {
		if logger := logging.Get(component); logger == nil {
			t.Errorf("Get(%q) returned nil", component)
		}
	}

	// Same component yields the same logger.
	if logging.Get("organizer") != logging.Get("organizer") {
		t.Error("Get() should return a cached logger per component")
	}
}

func TestLoggerWritesToFile(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "write.log")

	if err := logging.Init(logging.Config{Level: "debug", Path: logPath}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logger := logging.Get("test")
	logger.Info("organize pass finished", "moved", 3)
	logger.Debug("candidate resolved")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "organize pass finished") {
		t.Errorf("log file does not contain expected message, got: %s", content)
	}
}

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "levels.log")

	if err := logging.Init(logging.Config{Level: "warn", Path: logPath}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logger := logging.Get("test")
	logger.Debug("debug should not appear")
	logger.Info("info should not appear")
	logger.Warn("warn should appear")
	logger.Error("error should appear")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	logContent := string(content)

	if strings.Contains(logContent, "should not appear") {
		t.Errorf("suppressed levels leaked into the log: %s", logContent)
	}
	if !strings.Contains(logContent, "warn should appear") {
		t.Error("warn message missing")
	}
	if !strings.Contains(logContent, "error should appear") {
		t.Error("error message missing")
	}
}

func TestComponentLevelOverride(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "components.log")

	cfg := logging.Config{
		Level: "error",
		Path:  logPath,
		Components: map[string]string{
			"verbose": "debug",
		},
	}
	if err := logging.Init(cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logging.Get("normal").Info("normal info hidden")
	logging.Get("verbose").Debug("verbose debug shown")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	if strings.Contains(string(content), "normal info hidden") {
		t.Error("default-level component should not log info at error level")
	}
	if !strings.Contains(string(content), "verbose debug shown") {
		t.Error("component override to debug was not applied")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    logging.Level
		wantErr bool
	}{
		{"debug", logging.LevelDebug, false},
		{"info", logging.LevelInfo, false},
		{"warn", logging.LevelWarn, false},
		{"warning", logging.LevelWarn, false},
		{"error", logging.LevelError, false},
		{"ERROR", logging.LevelError, false},
		{"silly", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := logging.ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Parallel()

	path := logging.DefaultLogPath()
	if !strings.Contains(path, "shelf") {
		t.Errorf("DefaultLogPath() = %q, want a shelf-scoped path", path)
	}
	if filepath.Base(path) != "shelf.log" {
		t.Errorf("DefaultLogPath() basename = %q, want shelf.log", filepath.Base(path))
	}
}
