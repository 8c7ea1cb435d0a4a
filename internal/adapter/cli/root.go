package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/akhmerov/prereview/internal/domain"
	"github.com/akhmerov/prereview/internal/store"
	"github.com/akhmerov/prereview/internal/usecase/preview"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Pipeline defines the dependency required to run the review commands.
type Pipeline interface {
	PrepareContext(ctx context.Context, req preview.PrepareRequest) (preview.PrepareResult, error)
	Draft(ctx context.Context, req preview.DraftRequest) (preview.DraftResult, error)
	Run(ctx context.Context, req preview.RunRequest) (preview.RunResult, error)
	Build(ctx context.Context, req preview.BuildRequest) (preview.BuildResult, error)
	Clean(ctx context.Context, outDir string) (preview.CleanResult, error)
}

// BuildLister reads recorded build history.
type BuildLister interface {
	ListBuilds(ctx context.Context, limit int) ([]store.Build, error)
}

// SkillManager installs the agent skill document.
type SkillManager interface {
	TargetRoot(agent, projectRoot string) (string, error)
	Install(targetRoot string, force bool) (string, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Pipeline Pipeline
	History  BuildLister  // Optional: nil disables the history command with an explanation
	Skill    SkillManager // Optional: nil disables skill install with an explanation
	Args     Arguments

	DefaultOutDir string
	DefaultTitle  string
	Version       string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}
	defaultOutDir := deps.DefaultOutDir
	if defaultOutDir == "" {
		defaultOutDir = "."
	}
	defaultTitle := deps.DefaultTitle
	if defaultTitle == "" {
		defaultTitle = "Prereview Report"
	}

	root := &cobra.Command{
		Use:   "prereview",
		Short: "Generate rich local HTML previews for agent-generated code diffs",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(prepareContextCommand(deps.Pipeline, defaultOutDir))
	root.AddCommand(draftCommand(deps.Pipeline, defaultOutDir))
	root.AddCommand(runCommand(deps.Pipeline, defaultOutDir, defaultTitle))
	root.AddCommand(buildCommand(deps.Pipeline, defaultOutDir, defaultTitle))
	root.AddCommand(cleanCommand(deps.Pipeline, defaultOutDir))
	root.AddCommand(historyCommand(deps.History))
	root.AddCommand(skillCommand(deps.Skill))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

// sourceFlags holds the diff acquisition flags shared by prepare-context
// and run.
type sourceFlags struct {
	patchFile        string
	gitRange         string
	workingTree      bool
	includeUntracked bool
	excludeBinary    bool
	excludePaths     []string
	repo             string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.patchFile, "patch-file", "", "Read the unified diff from a file")
	cmd.Flags().StringVar(&f.gitRange, "git-range", "", "Diff a git ref or range (e.g. HEAD~1..HEAD)")
	cmd.Flags().BoolVar(&f.workingTree, "working-tree", false, "Diff the working tree against HEAD (default when no source is given)")
	cmd.Flags().BoolVar(&f.includeUntracked, "include-untracked", false, "Include untracked files as additions")
	cmd.Flags().BoolVar(&f.excludeBinary, "exclude-binary", true, "Drop binary file changes from the context")
	cmd.Flags().StringArrayVar(&f.excludePaths, "exclude-path", nil, "Exclude paths matching this glob (repeatable)")
	cmd.Flags().StringVar(&f.repo, "repo", "", "Repository directory (default current directory)")
	cmd.MarkFlagsMutuallyExclusive("patch-file", "git-range")
}

// spec resolves the flags into a source spec. Precedence follows the flag
// surface: an explicit patch file wins, then a git range, then the
// working tree.
func (f *sourceFlags) spec() (domain.SourceSpec, error) {
	spec := domain.SourceSpec{
		IncludeUntracked: f.includeUntracked,
		ExcludeBinary:    f.excludeBinary,
		ExcludePaths:     f.excludePaths,
		Repo:             f.repo,
	}
	switch {
	case f.patchFile != "":
		abs, err := filepath.Abs(f.patchFile)
		if err != nil {
			return domain.SourceSpec{}, fmt.Errorf("resolve patch file: %w", err)
		}
		spec.Mode = domain.SourceModePatchFile
		spec.PatchFile = abs
	case f.gitRange != "":
		spec.Mode = domain.SourceModeGitRange
		spec.GitRange = f.gitRange
	default:
		spec.Mode = domain.SourceModeWorkingTree
	}
	spec.UseWorkingTree = f.workingTree || spec.Mode == domain.SourceModeWorkingTree
	return spec, nil
}

func prepareContextCommand(pipeline Pipeline, defaultOutDir string) *cobra.Command {
	flags := &sourceFlags{}
	var outDir string
	var stdinPatch bool

	cmd := &cobra.Command{
		Use:   "prepare-context",
		Short: "Prepare reviewer-focused context input",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stdinPatch {
				return errors.New("prepare-context does not support --stdin-patch because validate/build must recompute diff deterministically")
			}
			spec, err := flags.spec()
			if err != nil {
				return err
			}
			res, err := pipeline.PrepareContext(cmd.Context(), preview.PrepareRequest{Spec: spec, OutDir: outDir})
			if err != nil {
				return err
			}
			stats := res.Context.Stats
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Prepared context %s with %d files, +%d / -%d -> %s\n",
				res.Context.ContextID, stats.FilesChanged, stats.Additions, stats.Deletions, res.ContextPath)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&stdinPatch, "stdin-patch", false, "(unsupported) kept for an explicit error message")
	cmd.Flags().StringVar(&outDir, "out-dir", defaultOutDir, "Directory whose workspace receives the artifacts")
	return cmd
}

func draftCommand(pipeline Pipeline, defaultOutDir string) *cobra.Command {
	var contextPath string
	var outDir string
	var force bool

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Seed the notes file with heuristic first-pass annotations",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := pipeline.Draft(cmd.Context(), preview.DraftRequest{
				ContextPath: contextPath,
				OutDir:      outDir,
				Force:       force,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Drafted notes for %d anchors in %d files: %s\n",
				res.Anchors, res.Files, res.NotesPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&contextPath, "context", "", "Path to the review-context JSON (default: workspace copy)")
	cmd.Flags().StringVar(&outDir, "out-dir", defaultOutDir, "Directory whose workspace receives the artifacts")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing notes file")
	return cmd
}

func runCommand(pipeline Pipeline, defaultOutDir, defaultTitle string) *cobra.Command {
	flags := &sourceFlags{}
	var outDir string
	var title string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Prepare the context, seed notes, and build the preview in one pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := flags.spec()
			if err != nil {
				return err
			}
			res, err := pipeline.Run(cmd.Context(), preview.RunRequest{Spec: spec, OutDir: outDir, Title: title})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			stats := res.Context.Stats
			_, _ = fmt.Fprintf(out, "Prepared context %s with %d files, +%d / -%d\n",
				res.Context.ContextID, stats.FilesChanged, stats.Additions, stats.Deletions)
			if res.Seeded {
				_, _ = fmt.Fprintf(out, "Seeded draft notes: %s\n", res.NotesPath)
			}
			_, _ = fmt.Fprintf(out, "Wrote agent input: %s\n", res.InputPath)
			_, _ = fmt.Fprintf(out, "Parsed notes file: %s\n", res.NotesPath)
			_, _ = fmt.Fprintf(out, "Rejected notes: %d -> %s\n", res.RejectedCount, res.RejectedPath)
			_, _ = fmt.Fprintf(out, "Built static preview at %s\n", res.PreviewPath)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&outDir, "out-dir", defaultOutDir, "Directory whose workspace receives the artifacts")
	cmd.Flags().StringVar(&title, "title", defaultTitle, "Report title")
	return cmd
}

func buildCommand(pipeline Pipeline, defaultOutDir, defaultTitle string) *cobra.Command {
	var contextPath string
	var notesPath string
	var annotationsPath string
	var outDir string
	var title string
	var strict bool
	var renderHTML bool
	var keepInputs bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Validate notes against the context and build the static preview",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := pipeline.Build(cmd.Context(), preview.BuildRequest{
				ContextPath:     contextPath,
				NotesPath:       notesPath,
				AnnotationsPath: annotationsPath,
				OutDir:          outDir,
				Title:           title,
				Strict:          strict,
				RenderHTML:      renderHTML,
				KeepInputs:      keepInputs,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.PreviewPath != "" {
				_, _ = fmt.Fprintf(out, "Built static preview at %s\n", res.PreviewPath)
			} else {
				_, _ = fmt.Fprintf(out, "Wrote validation report: %s\n", res.ReportPath)
			}
			if len(res.ConsumedPaths) > 0 {
				_, _ = fmt.Fprintf(out, "Consumed intermediate artifacts: %s\n", strings.Join(res.ConsumedPaths, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&contextPath, "context", "", "Path to the review-context JSON (default: workspace copy)")
	cmd.Flags().StringVar(&notesPath, "notes", "", "Path to the notes JSONL (default: workspace copy)")
	cmd.Flags().StringVar(&annotationsPath, "annotations", "", "Path to a canonical annotations JSON (skips note compilation)")
	cmd.MarkFlagsMutuallyExclusive("notes", "annotations")
	cmd.Flags().StringVar(&outDir, "out-dir", defaultOutDir, "Directory whose workspace receives the artifacts")
	cmd.Flags().StringVar(&title, "title", defaultTitle, "Report title")
	cmd.Flags().BoolVar(&strict, "strict", true, "Treat rejected notes and unresolved references as errors")
	cmd.Flags().BoolVar(&renderHTML, "html", true, "Render the HTML preview")
	cmd.Flags().BoolVar(&keepInputs, "keep-inputs", false, "Keep the context and notes files after a successful build")
	return cmd
}

func cleanCommand(pipeline Pipeline, defaultOutDir string) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete the artifacts workspace and its git exclude entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := pipeline.Clean(cmd.Context(), outDir)
			if err != nil {
				return err
			}
			if res.Removed {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed artifacts workspace: %s\n", res.Dir)
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No artifacts workspace found at: %s\n", res.Dir)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", defaultOutDir, "Directory whose workspace is removed")
	return cmd
}

func historyCommand(history BuildLister) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded builds, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if history == nil {
				return errors.New("build history store is not configured")
			}
			builds, err := history.ListBuilds(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(builds) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No builds recorded.")
				return nil
			}

			out := cmd.OutOrStdout()
			// Align columns only for humans; pipes get plain tabs.
			if file, ok := out.(*os.File); ok && IsTTY(file.Fd()) {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				defer func() { _ = tw.Flush() }()
				out = tw
			}
			_, _ = fmt.Fprintln(out, "RUN ID\tCREATED\tMODE\tFILES\tCHANGES\tISSUES\tRESULT\tCONTEXT")
			for _, build := range builds {
				_, _ = fmt.Fprintf(out, "%s\t%s\t%s\t%d\t+%d/-%d\t%dE/%dW\t%s\t%s\n",
					build.RunID,
					build.CreatedAt.Format("2006-01-02 15:04"),
					build.SourceMode,
					build.FilesChanged,
					build.Additions,
					build.Deletions,
					build.Errors,
					build.Warnings,
					build.Outcome(),
					build.ContextID,
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of builds to list")
	return cmd
}

func skillCommand(skill SkillManager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skill",
		Short: "Manage the agent skill document",
	}
	cmd.AddCommand(skillInstallCommand(skill))
	return cmd
}

func skillInstallCommand(skill SkillManager) *cobra.Command {
	var agent string
	var projectRoot string
	var force bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the pipeline skill under an agent's skills directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if skill == nil {
				return errors.New("skill installer is not configured")
			}
			targetRoot, err := skill.TargetRoot(agent, projectRoot)
			if err != nil {
				return err
			}
			installed, err := skill.Install(targetRoot, force)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Installed skill at %s\n", installed)
			return nil
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "Agent to install for (codex, claude, copilot)")
	_ = cmd.MarkFlagRequired("agent")
	cmd.Flags().StringVar(&projectRoot, "project-root", ".", "Project directory holding the agent's skills root")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing install")
	return cmd
}
