package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/akhmerov/prereview/internal/adapter/cli"
	"github.com/akhmerov/prereview/internal/adapter/git"
	"github.com/akhmerov/prereview/internal/adapter/notes"
	"github.com/akhmerov/prereview/internal/adapter/observability"
	"github.com/akhmerov/prereview/internal/adapter/output/html"
	"github.com/akhmerov/prereview/internal/adapter/output/json"
	"github.com/akhmerov/prereview/internal/adapter/output/text"
	"github.com/akhmerov/prereview/internal/adapter/skill"
	storeadapter "github.com/akhmerov/prereview/internal/adapter/store"
	"github.com/akhmerov/prereview/internal/adapter/store/sqlite"
	"github.com/akhmerov/prereview/internal/adapter/workspace"
	"github.com/akhmerov/prereview/internal/config"
	"github.com/akhmerov/prereview/internal/usecase/prepare"
	"github.com/akhmerov/prereview/internal/usecase/preview"
	"github.com/akhmerov/prereview/internal/usecase/validate"
	"github.com/akhmerov/prereview/internal/version"
)

func main() {
	if err := run(); err != nil {
		// Validation failures carry a preformatted agent-facing message
		// that must reach stderr without a log prefix.
		var validation *preview.ValidationError
		if errors.As(err, &validation) {
			fmt.Fprintln(os.Stderr, validation.Message)
			os.Exit(1)
		}
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	// Create cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.DefaultLoaderOptions())
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	repoDir := cfg.Git.RepositoryDir
	if repoDir == "" {
		repoDir = "."
	}

	builder := prepare.NewContextBuilder(git.NewSource(), nil)

	deps := preview.Deps{
		Builder:          builder,
		Evaluator:        validate.NewEvaluator(builder),
		Workspaces:       workspace.NewBridge(workspace.NewManager(repoDir)),
		Notes:            notes.IO{},
		Briefing:         text.NewRenderer(),
		Preview:          html.NewRenderer(),
		WriteJSON:        json.WriteFile,
		ReadJSON:         json.ReadFile,
		Logger:           buildLogger(cfg.Observability.Logging),
		ArtifactsDirName: cfg.Artifacts.Directory,
	}

	// Build history is best effort: a broken store disables the history
	// command but never blocks the pipeline.
	var history cli.BuildLister
	if cfg.Store.Enabled {
		buildStore, err := openStore(cfg.Store.Path)
		if err != nil {
			log.Printf("warning: build history disabled: %v", err)
		} else {
			defer func() { _ = buildStore.Close() }()
			deps.Recorder = storeadapter.NewBridge(buildStore, nil)
			history = buildStore
		}
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Pipeline:      preview.NewService(deps),
		History:       history,
		Skill:         skill.Installer{},
		DefaultOutDir: repoDir,
		DefaultTitle:  cfg.Render.Title,
		Version:       version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// buildLogger returns nil when logging is disabled so the orchestrator
// skips structured output entirely.
func buildLogger(cfg config.LoggingConfig) preview.Logger {
	if !cfg.Enabled {
		return nil
	}
	return observability.NewDefaultLogger(observability.ParseLevel(cfg.Level), observability.ParseFormat(cfg.Format))
}

// openStore creates the SQLite build store, creating its directory first.
func openStore(path string) (*sqlite.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return sqlite.NewStore(path)
}

// Compile-time interface compliance checks
var _ preview.WorkspaceManager = (*workspace.Bridge)(nil)
var _ preview.NotesIO = notes.IO{}
var _ preview.BriefingRenderer = (*text.Renderer)(nil)
var _ preview.PreviewRenderer = (*html.Renderer)(nil)
var _ preview.Recorder = (*storeadapter.Bridge)(nil)
var _ preview.Logger = (*observability.DefaultLogger)(nil)
var _ cli.Pipeline = (*preview.Service)(nil)
var _ cli.BuildLister = (*sqlite.Store)(nil)
var _ cli.SkillManager = skill.Installer{}
