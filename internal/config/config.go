package config

import (
	"errors"
	"fmt"
	"strings"
)

// Config represents the full application configuration.
type Config struct {
	Artifacts     ArtifactsConfig     `yaml:"artifacts"`
	Git           GitConfig           `yaml:"git"`
	Render        RenderConfig        `yaml:"render"`
	Store         StoreConfig         `yaml:"store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ArtifactsConfig configures the artifacts workspace.
type ArtifactsConfig struct {
	// Directory is where pipeline artifacts land, resolved against the
	// repository directory unless absolute.
	Directory string `yaml:"directory"`
}

type GitConfig struct {
	RepositoryDir string `yaml:"repositoryDir"`
}

// RenderConfig configures the generated artifacts.
type RenderConfig struct {
	// Title is the heading of the HTML preview.
	Title string `yaml:"title"`
}

// StoreConfig configures the build history store.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures pipeline logging.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`  // debug, info, error
	Format  string `yaml:"format"` // json, human
}

// Named validation errors so callers can branch with errors.Is.
var (
	// ErrUnknownLogLevel reports a logging level outside debug/info/error.
	ErrUnknownLogLevel = errors.New("unknown logging level")

	// ErrUnknownLogFormat reports a logging format outside human/json.
	ErrUnknownLogFormat = errors.New("unknown logging format")

	// ErrStorePathMissing reports an enabled store with no database path.
	ErrStorePathMissing = errors.New("store enabled without a database path")
)

// Validate checks values no component could act on. Zero values pass: they
// mean "use the default".
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Observability.Logging.Level)) {
	case "", "debug", "info", "error":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLogLevel, c.Observability.Logging.Level)
	}

	switch strings.ToLower(strings.TrimSpace(c.Observability.Logging.Format)) {
	case "", "human", "json":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLogFormat, c.Observability.Logging.Format)
	}

	if c.Store.Enabled && strings.TrimSpace(c.Store.Path) == "" {
		return ErrStorePathMissing
	}

	return nil
}

// Merge combines multiple configuration instances, prioritising the latter ones.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	result.Artifacts = chooseArtifacts(base.Artifacts, overlay.Artifacts)
	result.Git = chooseGit(base.Git, overlay.Git)
	result.Render = chooseRender(base.Render, overlay.Render)
	result.Store = chooseStore(base.Store, overlay.Store)
	result.Observability = chooseObservability(base.Observability, overlay.Observability)

	return result
}

func chooseArtifacts(base, overlay ArtifactsConfig) ArtifactsConfig {
	if overlay.Directory != "" {
		return overlay
	}
	return base
}

func chooseGit(base, overlay GitConfig) GitConfig {
	if overlay.RepositoryDir != "" {
		return overlay
	}
	return base
}

func chooseRender(base, overlay RenderConfig) RenderConfig {
	if overlay.Title != "" {
		return overlay
	}
	return base
}

func chooseStore(base, overlay StoreConfig) StoreConfig {
	if overlay.Enabled || overlay.Path != "" {
		return overlay
	}
	return base
}

func chooseObservability(base, overlay ObservabilityConfig) ObservabilityConfig {
	result := base

	if overlay.Logging.Enabled || overlay.Logging.Level != "" || overlay.Logging.Format != "" {
		result.Logging = overlay.Logging
	}

	return result
}
