package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/akhmerov/prereview/internal/config"
)

func TestMergePrioritizesLaterConfigs(t *testing.T) {
	base := config.Config{
		Render: config.RenderConfig{Title: "default"},
	}
	file := config.Config{
		Render: config.RenderConfig{Title: "file"},
	}
	final := config.Config{
		Render: config.RenderConfig{Title: "env"},
	}

	merged := config.Merge(base, file, final)

	if merged.Render.Title != "env" {
		t.Fatalf("expected env title to win, got %s", merged.Render.Title)
	}
}

func TestMergeKeepsBaseWhenOverlayEmpty(t *testing.T) {
	base := config.Config{
		Artifacts: config.ArtifactsConfig{Directory: ".prereview"},
		Store:     config.StoreConfig{Enabled: true, Path: "builds.db"},
	}

	merged := config.Merge(base, config.Config{})

	if merged.Artifacts.Directory != ".prereview" {
		t.Fatalf("expected base artifacts directory to survive, got %s", merged.Artifacts.Directory)
	}
	if !merged.Store.Enabled || merged.Store.Path != "builds.db" {
		t.Fatalf("expected base store config to survive, got %+v", merged.Store)
	}
}

func TestLoadReadsFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "prereview.yaml")
	if err := os.WriteFile(file, []byte("artifacts:\n  directory: from-file\n"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("PREREVIEW_ARTIFACTS_DIRECTORY", "from-env")

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{dir},
		FileName:    "prereview",
		EnvPrefix:   "PREREVIEW",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Artifacts.Directory != "from-env" {
		t.Fatalf("expected env override, got %s", cfg.Artifacts.Directory)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{},
		FileName:    "nonexistent",
		EnvPrefix:   "PREREVIEW",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Artifacts.Directory != ".prereview" {
		t.Errorf("expected default artifacts directory '.prereview', got %s", cfg.Artifacts.Directory)
	}
	if cfg.Render.Title != "Prereview Report" {
		t.Errorf("expected default title 'Prereview Report', got %s", cfg.Render.Title)
	}
	if !cfg.Store.Enabled {
		t.Error("expected store to be enabled by default")
	}
	if cfg.Store.Path == "" {
		t.Error("expected a default store path")
	}
	if !cfg.Observability.Logging.Enabled {
		t.Error("expected logging to be enabled by default")
	}
	if cfg.Observability.Logging.Level != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.Logging.Level)
	}
	if cfg.Observability.Logging.Format != "human" {
		t.Errorf("expected default log format 'human', got %s", cfg.Observability.Logging.Format)
	}
}

func TestLoggingConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "prereview.yaml")
	content := `
observability:
  logging:
    enabled: false
    level: debug
    format: json
`
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{dir},
		FileName:    "prereview",
		EnvPrefix:   "PREREVIEW",
	})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Observability.Logging.Enabled {
		t.Error("expected logging to be disabled from file config")
	}
	if cfg.Observability.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.Logging.Level)
	}
	if cfg.Observability.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got %s", cfg.Observability.Logging.Format)
	}
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "prereview.yaml")
	content := "observability:\n  logging:\n    level: verbose\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{dir},
		FileName:    "prereview",
		EnvPrefix:   "PREREVIEW",
	})

	if !errors.Is(err, config.ErrUnknownLogLevel) {
		t.Fatalf("expected ErrUnknownLogLevel, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr error
	}{
		{
			name:    "zero config passes",
			cfg:     config.Config{},
			wantErr: nil,
		},
		{
			name: "known values pass",
			cfg: config.Config{
				Store: config.StoreConfig{Enabled: true, Path: "builds.db"},
				Observability: config.ObservabilityConfig{
					Logging: config.LoggingConfig{Level: "debug", Format: "json"},
				},
			},
			wantErr: nil,
		},
		{
			name: "unknown level",
			cfg: config.Config{
				Observability: config.ObservabilityConfig{
					Logging: config.LoggingConfig{Level: "verbose"},
				},
			},
			wantErr: config.ErrUnknownLogLevel,
		},
		{
			name: "unknown format",
			cfg: config.Config{
				Observability: config.ObservabilityConfig{
					Logging: config.LoggingConfig{Format: "xml"},
				},
			},
			wantErr: config.ErrUnknownLogFormat,
		},
		{
			name: "enabled store needs a path",
			cfg: config.Config{
				Store: config.StoreConfig{Enabled: true},
			},
			wantErr: config.ErrStorePathMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
