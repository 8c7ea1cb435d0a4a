package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnvString(t *testing.T) {
	os.Setenv("TEST_STORE_PATH", "/data/builds.db")
	os.Setenv("TEST_REPO_DIR", "/src/project")
	defer os.Unsetenv("TEST_STORE_PATH")
	defer os.Unsetenv("TEST_REPO_DIR")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "expand ${VAR} syntax",
			input:    "${TEST_STORE_PATH}",
			expected: "/data/builds.db",
		},
		{
			name:     "expand $VAR syntax",
			input:    "$TEST_STORE_PATH",
			expected: "/data/builds.db",
		},
		{
			name:     "expand in middle of string",
			input:    "prefix:${TEST_REPO_DIR}:suffix",
			expected: "prefix:/src/project:suffix",
		},
		{
			name:     "expand multiple variables",
			input:    "${TEST_REPO_DIR}:${TEST_STORE_PATH}",
			expected: "/src/project:/data/builds.db",
		},
		{
			name:     "leave non-existent var unchanged",
			input:    "${NONEXISTENT_VAR}",
			expected: "${NONEXISTENT_VAR}",
		},
		{
			name:     "handle empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "handle string without variables",
			input:    "plain-text",
			expected: "plain-text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvString(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExpandEnvString_TildeExpansion(t *testing.T) {
	home, err := os.UserHomeDir()
	assert.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "expand tilde at start",
			input:    "~/.config/prereview/builds.db",
			expected: home + "/.config/prereview/builds.db",
		},
		{
			name:     "expand tilde alone",
			input:    "~",
			expected: home,
		},
		{
			name:     "expand tilde with trailing slash",
			input:    "~/",
			expected: home + "/",
		},
		{
			name:     "do not expand tilde in middle",
			input:    "/path/~/file",
			expected: "/path/~/file",
		},
		{
			name:     "do not expand escaped tilde",
			input:    "\\~/.config",
			expected: "\\~/.config",
		},
		{
			name:     "expand tilde with unset env var",
			input:    "~/data/${TEST_UNSET_VAR}",
			expected: home + "/data/${TEST_UNSET_VAR}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvString(tt.input)
			assert.Equal(t, tt.expected, result, "input: %s", tt.input)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("ARTIFACTS_DIR", "/tmp/artifacts")
	os.Setenv("STORE_PATH", "/data/builds.db")
	defer os.Unsetenv("ARTIFACTS_DIR")
	defer os.Unsetenv("STORE_PATH")

	cfg := Config{
		Artifacts: ArtifactsConfig{Directory: "${ARTIFACTS_DIR}"},
		Store:     StoreConfig{Enabled: true, Path: "${STORE_PATH}"},
	}

	expanded := expandEnvVars(cfg)

	assert.Equal(t, "/tmp/artifacts", expanded.Artifacts.Directory)
	assert.Equal(t, "/data/builds.db", expanded.Store.Path)
}

func TestExpandEnvVars_ObservabilityConfig(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	defer os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("LOG_FORMAT")

	cfg := Config{
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "${LOG_LEVEL}",
				Format: "${LOG_FORMAT}",
			},
		},
	}

	expanded := expandEnvVars(cfg)

	assert.Equal(t, "debug", expanded.Observability.Logging.Level)
	assert.Equal(t, "json", expanded.Observability.Logging.Format)
}

func TestExpandEnvVars_GitRepositoryDir(t *testing.T) {
	os.Setenv("REPO_DIR", "/src/project")
	defer os.Unsetenv("REPO_DIR")

	cfg := Config{
		Git: GitConfig{RepositoryDir: "${REPO_DIR}"},
	}

	expanded := expandEnvVars(cfg)

	assert.Equal(t, "/src/project", expanded.Git.RepositoryDir)
}

func TestExpandEnvVars_StorePathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	assert.NoError(t, err)

	cfg := Config{
		Store: StoreConfig{
			Enabled: true,
			Path:    "~/.config/prereview/builds.db",
		},
	}

	expanded := expandEnvVars(cfg)

	expected := home + "/.config/prereview/builds.db"
	assert.Equal(t, expected, expanded.Store.Path, "Tilde in store.path should be expanded to home directory")
}

func TestDefaultLoaderOptions(t *testing.T) {
	opts := DefaultLoaderOptions()

	assert.Equal(t, "prereview", opts.FileName)
	assert.Equal(t, "PREREVIEW", opts.EnvPrefix)
	assert.NotEmpty(t, opts.ConfigPaths)
	assert.Equal(t, ".", opts.ConfigPaths[0], "working directory is searched first")
}
