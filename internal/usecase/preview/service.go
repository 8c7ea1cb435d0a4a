// Package preview orchestrates the review pipeline end to end: context
// preparation, notes compilation, validation, and artifact rendering
// inside a managed workspace directory.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/akhmerov/prereview/internal/domain"
	"github.com/akhmerov/prereview/internal/usecase/annotate"
	"github.com/akhmerov/prereview/internal/usecase/draft"
	"github.com/akhmerov/prereview/internal/usecase/prepare"
	"github.com/akhmerov/prereview/internal/usecase/validate"
)

// DefaultArtifactsDirName is the workspace directory created under the
// out dir when the config does not override it.
const DefaultArtifactsDirName = ".prereview"

// Artifact names inside the workspace directory. Agents address these by
// name, so they are part of the pipeline's contract.
const (
	ContextFileName     = "review-context.json"
	InputFileName       = "review-input.txt"
	NotesFileName       = "review-notes.jsonl"
	RejectedFileName    = "rejected-notes.jsonl"
	AnnotationsFileName = "annotations.json"
	ReportFileName      = "validation-report.json"
	PreviewFileName     = "review.html"
)

// Workspace is one prepared artifacts directory.
type Workspace interface {
	Dir() string
	Path(name string) string
	ExcludeGlob() string
}

// WorkspaceManager creates and removes artifacts directories, keeping the
// repository's git excludes in sync.
type WorkspaceManager interface {
	Ensure(ctx context.Context, outDir, dirName string) (Workspace, error)
	Remove(ctx context.Context, outDir, dirName string) (string, bool, error)
}

// NotesIO persists review notes and their rejection sidecars.
type NotesIO interface {
	ReadNotes(path string) ([]domain.NoteLine, []domain.RejectedNote, error)
	SeedNotes(path string, doc *domain.Annotations) error
	RewriteNotes(path string, rejected []domain.RejectedNote) error
	WriteRejected(path string, rejected []domain.RejectedNote) error
}

// BriefingRenderer produces the plain-text agent briefing for a context.
type BriefingRenderer interface {
	Render(reviewContext domain.ReviewContext, notesFile string) string
}

// PreviewRenderer produces the standalone HTML preview document.
type PreviewRenderer interface {
	Render(title string, model validate.RenderModel, report domain.Report) (string, error)
}

// BuildRecord is one history row: a context that was validated.
type BuildRecord struct {
	ContextID       string
	DiffFingerprint string
	SourceMode      string
	FilesChanged    int
	Additions       int
	Deletions       int
	Valid           bool
	Errors          int
	Warnings        int
}

// Recorder persists build history.
type Recorder interface {
	RecordBuild(ctx context.Context, record BuildRecord) error
}

// Logger receives structured diagnostics for non-fatal pipeline events.
type Logger interface {
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// Deps captures the orchestrator's collaborators.
type Deps struct {
	Builder    *prepare.ContextBuilder
	Evaluator  *validate.Evaluator
	Workspaces WorkspaceManager
	Notes      NotesIO
	Briefing   BriefingRenderer
	Preview    PreviewRenderer

	WriteJSON func(path string, v any) error
	ReadJSON  func(path string, v any) error

	Recorder Recorder // Optional: persists build history when a store is configured
	Logger   Logger   // Optional: structured logging for warnings

	// ArtifactsDirName overrides the workspace directory name.
	ArtifactsDirName string
}

// Service runs the pipeline operations behind the CLI commands.
type Service struct {
	deps Deps
}

// NewService wires the orchestrator dependencies.
func NewService(deps Deps) *Service {
	if deps.ArtifactsDirName == "" {
		deps.ArtifactsDirName = DefaultArtifactsDirName
	}
	return &Service{deps: deps}
}

func (s *Service) validateDependencies() error {
	if s.deps.Builder == nil {
		return errors.New("context builder is required")
	}
	if s.deps.Evaluator == nil {
		return errors.New("evaluator is required")
	}
	if s.deps.Workspaces == nil {
		return errors.New("workspace manager is required")
	}
	if s.deps.Notes == nil {
		return errors.New("notes io is required")
	}
	if s.deps.Briefing == nil {
		return errors.New("briefing renderer is required")
	}
	if s.deps.Preview == nil {
		return errors.New("preview renderer is required")
	}
	if s.deps.WriteJSON == nil {
		return errors.New("json writer is required")
	}
	if s.deps.ReadJSON == nil {
		return errors.New("json reader is required")
	}
	return nil
}

// PrepareRequest describes a context snapshot to take.
type PrepareRequest struct {
	Spec   domain.SourceSpec
	OutDir string
}

// PrepareResult reports where the snapshot landed.
type PrepareResult struct {
	Context     domain.ReviewContext
	ContextPath string
	InputPath   string
}

// PrepareContext acquires the diff described by the spec, snapshots the
// review context into the workspace, and writes the agent briefing.
func (s *Service) PrepareContext(ctx context.Context, req PrepareRequest) (PrepareResult, error) {
	if err := s.validateDependencies(); err != nil {
		return PrepareResult{}, err
	}

	ws, err := s.deps.Workspaces.Ensure(ctx, req.OutDir, s.deps.ArtifactsDirName)
	if err != nil {
		return PrepareResult{}, err
	}

	prepared, err := s.deps.Builder.Prepare(ctx, withWorkspaceExclude(req.Spec, ws))
	if err != nil {
		return PrepareResult{}, err
	}

	contextPath := ws.Path(ContextFileName)
	if err := s.deps.WriteJSON(contextPath, prepared.Context); err != nil {
		return PrepareResult{}, fmt.Errorf("write review context: %w", err)
	}

	inputPath := ws.Path(InputFileName)
	briefing := s.deps.Briefing.Render(prepared.Context, NotesFileName)
	if err := os.WriteFile(inputPath, []byte(briefing), 0o644); err != nil {
		return PrepareResult{}, fmt.Errorf("write agent briefing: %w", err)
	}

	return PrepareResult{
		Context:     prepared.Context,
		ContextPath: contextPath,
		InputPath:   inputPath,
	}, nil
}

// DraftRequest describes a notes seed to generate.
type DraftRequest struct {
	// ContextPath overrides the workspace context file.
	ContextPath string
	OutDir      string
	// Force overwrites an existing notes file.
	Force bool
}

// DraftResult reports the generated seed.
type DraftResult struct {
	NotesPath string
	Files     int
	Anchors   int
}

// Draft compiles heuristic first-pass notes from a prepared context and
// seeds the workspace notes file with them.
func (s *Service) Draft(ctx context.Context, req DraftRequest) (DraftResult, error) {
	if err := s.validateDependencies(); err != nil {
		return DraftResult{}, err
	}

	ws, err := s.deps.Workspaces.Ensure(ctx, req.OutDir, s.deps.ArtifactsDirName)
	if err != nil {
		return DraftResult{}, err
	}

	contextPath := req.ContextPath
	if contextPath == "" {
		contextPath = ws.Path(ContextFileName)
	}
	var reviewContext domain.ReviewContext
	if err := s.deps.ReadJSON(contextPath, &reviewContext); err != nil {
		return DraftResult{}, fmt.Errorf("load review context: %w", err)
	}

	notesPath := ws.Path(NotesFileName)
	if !req.Force {
		if _, err := os.Stat(notesPath); err == nil {
			return DraftResult{}, fmt.Errorf("notes file already exists at %s; pass --force to overwrite", notesPath)
		}
	}

	doc := draft.Generate(reviewContext)
	if err := s.deps.Notes.SeedNotes(notesPath, doc); err != nil {
		return DraftResult{}, fmt.Errorf("seed notes: %w", err)
	}

	anchors := 0
	for _, file := range doc.Files {
		anchors += len(file.Anchors)
	}
	return DraftResult{NotesPath: notesPath, Files: len(doc.Files), Anchors: anchors}, nil
}

// RunRequest describes one end-to-end pipeline pass.
type RunRequest struct {
	Spec   domain.SourceSpec
	OutDir string
	Title  string
}

// RunResult reports everything the pass produced.
type RunResult struct {
	Context       domain.ReviewContext
	Report        domain.Report
	ContextPath   string
	InputPath     string
	NotesPath     string
	RejectedPath  string
	RejectedCount int
	PreviewPath   string
	Seeded        bool
}

// Run executes the whole pipeline in one pass: prepare the context, seed
// notes when none exist, compile and evaluate them leniently, and render
// the preview. Rejected notes demote to warnings so a draft still renders.
func (s *Service) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	prepared, err := s.PrepareContext(ctx, PrepareRequest{Spec: req.Spec, OutDir: req.OutDir})
	if err != nil {
		return RunResult{}, err
	}
	reviewContext := prepared.Context

	ws, err := s.deps.Workspaces.Ensure(ctx, req.OutDir, s.deps.ArtifactsDirName)
	if err != nil {
		return RunResult{}, err
	}

	notesPath := ws.Path(NotesFileName)
	seeded := false
	if _, err := os.Stat(notesPath); errors.Is(err, os.ErrNotExist) {
		if err := s.deps.Notes.SeedNotes(notesPath, draft.Generate(reviewContext)); err != nil {
			return RunResult{}, fmt.Errorf("seed notes: %w", err)
		}
		seeded = true
	}

	lines, readRejects, err := s.deps.Notes.ReadNotes(notesPath)
	if err != nil {
		return RunResult{}, err
	}
	doc, compileRejects := annotate.CompileNotes(reviewContext, lines)
	rejected := annotate.MergeRejects(readRejects, compileRejects)

	if len(rejected) > 0 {
		if err := s.deps.Notes.RewriteNotes(notesPath, rejected); err != nil {
			return RunResult{}, fmt.Errorf("rewrite notes: %w", err)
		}
	}
	rejectedPath := ws.Path(RejectedFileName)
	if err := s.deps.Notes.WriteRejected(rejectedPath, rejected); err != nil {
		return RunResult{}, fmt.Errorf("write rejected notes: %w", err)
	}

	if err := s.deps.WriteJSON(ws.Path(AnnotationsFileName), doc); err != nil {
		return RunResult{}, fmt.Errorf("write annotations: %w", err)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return RunResult{}, fmt.Errorf("encode annotations: %w", err)
	}
	report, runtime := s.deps.Evaluator.Evaluate(ctx, reviewContext, raw, validate.Options{})
	if runtime == nil {
		return RunResult{}, errors.New("cannot build preview because runtime diff recomputation failed")
	}

	// Rejected notes are reported but never block a lenient run.
	report = combineReport(rejectIssues(rejected, NotesFileName, domain.IssueWarning), report)

	if err := s.deps.WriteJSON(ws.Path(ReportFileName), report); err != nil {
		return RunResult{}, fmt.Errorf("write validation report: %w", err)
	}
	s.record(ctx, reviewContext, report)

	model := validate.Materialize(reviewContext, doc, runtime)
	page, err := s.deps.Preview.Render(req.Title, model, report)
	if err != nil {
		return RunResult{}, fmt.Errorf("render preview: %w", err)
	}
	previewPath := ws.Path(PreviewFileName)
	if err := os.WriteFile(previewPath, []byte(page), 0o644); err != nil {
		return RunResult{}, fmt.Errorf("write preview: %w", err)
	}

	return RunResult{
		Context:       reviewContext,
		Report:        report,
		ContextPath:   prepared.ContextPath,
		InputPath:     prepared.InputPath,
		NotesPath:     notesPath,
		RejectedPath:  rejectedPath,
		RejectedCount: len(rejected),
		PreviewPath:   previewPath,
		Seeded:        seeded,
	}, nil
}

// BuildRequest describes a validated preview build.
type BuildRequest struct {
	// ContextPath overrides the workspace context file.
	ContextPath string
	// NotesPath and AnnotationsPath are mutually exclusive. When neither
	// is set the workspace notes file is compiled.
	NotesPath       string
	AnnotationsPath string
	OutDir          string
	Title           string
	Strict          bool
	RenderHTML      bool
	KeepInputs      bool
}

// BuildResult reports the build artifacts.
type BuildResult struct {
	Report          domain.Report
	AnnotationsPath string
	ReportPath      string
	PreviewPath     string
	RejectedPath    string
	RejectedCount   int
	ConsumedPaths   []string
}

// Build validates annotations against a prepared context and renders the
// preview. Notes are compiled first; an annotations file is taken as is.
// A report with errors aborts the build with a *ValidationError.
func (s *Service) Build(ctx context.Context, req BuildRequest) (BuildResult, error) {
	if err := s.validateDependencies(); err != nil {
		return BuildResult{}, err
	}
	if req.NotesPath != "" && req.AnnotationsPath != "" {
		return BuildResult{}, errors.New("notes and annotations inputs are mutually exclusive")
	}

	ws, err := s.deps.Workspaces.Ensure(ctx, req.OutDir, s.deps.ArtifactsDirName)
	if err != nil {
		return BuildResult{}, err
	}

	contextPath := req.ContextPath
	if contextPath == "" {
		contextPath = ws.Path(ContextFileName)
	}
	var reviewContext domain.ReviewContext
	if err := s.deps.ReadJSON(contextPath, &reviewContext); err != nil {
		return BuildResult{}, fmt.Errorf("load review context: %w", err)
	}

	notesMode := req.AnnotationsPath == ""
	inputPath := req.AnnotationsPath

	var raw []byte
	var doc *domain.Annotations
	var noteIssues []domain.Issue
	result := BuildResult{}

	if notesMode {
		notesPath := req.NotesPath
		if notesPath == "" {
			notesPath = ws.Path(NotesFileName)
		}
		inputPath = notesPath

		lines, readRejects, err := s.deps.Notes.ReadNotes(notesPath)
		if err != nil {
			return BuildResult{}, err
		}
		var compileRejects []domain.RejectedNote
		doc, compileRejects = annotate.CompileNotes(reviewContext, lines)
		rejected := annotate.MergeRejects(readRejects, compileRejects)

		if len(rejected) > 0 {
			if err := s.deps.Notes.RewriteNotes(notesPath, rejected); err != nil {
				return BuildResult{}, fmt.Errorf("rewrite notes: %w", err)
			}
		}
		result.RejectedPath = ws.Path(RejectedFileName)
		result.RejectedCount = len(rejected)
		if err := s.deps.Notes.WriteRejected(result.RejectedPath, rejected); err != nil {
			return BuildResult{}, fmt.Errorf("write rejected notes: %w", err)
		}

		level := domain.IssueWarning
		if req.Strict {
			level = domain.IssueError
		}
		noteIssues = rejectIssues(rejected, filepath.Base(notesPath), level)

		result.AnnotationsPath = ws.Path(AnnotationsFileName)
		if err := s.deps.WriteJSON(result.AnnotationsPath, doc); err != nil {
			return BuildResult{}, fmt.Errorf("write annotations: %w", err)
		}
		if raw, err = json.Marshal(doc); err != nil {
			return BuildResult{}, fmt.Errorf("encode annotations: %w", err)
		}
	} else {
		if raw, err = os.ReadFile(req.AnnotationsPath); err != nil {
			return BuildResult{}, fmt.Errorf("load annotations: %w", err)
		}
		result.AnnotationsPath = req.AnnotationsPath
	}

	report, runtime := s.deps.Evaluator.Evaluate(ctx, reviewContext, raw, validate.Options{Strict: req.Strict})
	report = combineReport(noteIssues, report)
	result.Report = report

	result.ReportPath = ws.Path(ReportFileName)
	if err := s.deps.WriteJSON(result.ReportPath, report); err != nil {
		return BuildResult{}, fmt.Errorf("write validation report: %w", err)
	}
	s.record(ctx, reviewContext, report)

	if !report.Valid {
		return result, &ValidationError{
			Report:  report,
			Message: buildFailureMessage(report, contextPath, inputPath, req.OutDir, notesMode),
		}
	}
	if runtime == nil {
		return result, errors.New("cannot build preview because runtime diff recomputation failed")
	}

	if req.RenderHTML {
		if doc == nil {
			doc = &domain.Annotations{}
			if err := json.Unmarshal(raw, doc); err != nil {
				return result, fmt.Errorf("decode annotations: %w", err)
			}
		}
		model := validate.Materialize(reviewContext, doc, runtime)
		page, err := s.deps.Preview.Render(req.Title, model, report)
		if err != nil {
			return result, fmt.Errorf("render preview: %w", err)
		}
		result.PreviewPath = ws.Path(PreviewFileName)
		if err := os.WriteFile(result.PreviewPath, []byte(page), 0o644); err != nil {
			return result, fmt.Errorf("write preview: %w", err)
		}
	}

	if !req.KeepInputs {
		consumed, err := removeAll(dedupe(contextPath, inputPath))
		if err != nil {
			return result, err
		}
		result.ConsumedPaths = consumed
	}
	return result, nil
}

// CleanResult reports what Clean found.
type CleanResult struct {
	Dir     string
	Removed bool
}

// Clean deletes the workspace directory and drops its git exclude entry.
func (s *Service) Clean(ctx context.Context, outDir string) (CleanResult, error) {
	if s.deps.Workspaces == nil {
		return CleanResult{}, errors.New("workspace manager is required")
	}
	dir, removed, err := s.deps.Workspaces.Remove(ctx, outDir, s.deps.ArtifactsDirName)
	if err != nil {
		return CleanResult{}, err
	}
	return CleanResult{Dir: dir, Removed: removed}, nil
}

// ValidationError reports a build whose combined report contains errors.
// Message carries the full agent-facing remediation text.
type ValidationError struct {
	Report  domain.Report
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// withWorkspaceExclude appends the workspace glob to the spec's exclude
// paths so a diff never reports the pipeline's own artifacts.
func withWorkspaceExclude(spec domain.SourceSpec, ws Workspace) domain.SourceSpec {
	glob := ws.ExcludeGlob()
	if glob == "" {
		return spec
	}
	for _, existing := range spec.ExcludePaths {
		if existing == glob {
			return spec
		}
	}
	excludes := make([]string, 0, len(spec.ExcludePaths)+1)
	excludes = append(excludes, spec.ExcludePaths...)
	spec.ExcludePaths = append(excludes, glob)
	return spec
}

// rejectIssues turns rejected notes into report issues so one report
// carries the whole verdict for a build.
func rejectIssues(rejected []domain.RejectedNote, notesName, level string) []domain.Issue {
	issues := make([]domain.Issue, 0, len(rejected))
	for _, note := range rejected {
		issues = append(issues, domain.Issue{
			Level:    level,
			Code:     note.Code,
			Message:  fmt.Sprintf("Rejected line %d: %s", note.Line, note.Message),
			Location: fmt.Sprintf("%s:%d", notesName, note.Line),
		})
	}
	return issues
}

// combineReport prepends extra issues and re-decides validity. Stats stay
// untouched: they describe anchor mapping, not issue counts.
func combineReport(extra []domain.Issue, report domain.Report) domain.Report {
	if len(extra) == 0 {
		return report
	}
	issues := make([]domain.Issue, 0, len(extra)+len(report.Issues))
	issues = append(issues, extra...)
	issues = append(issues, report.Issues...)
	valid := true
	for _, issue := range issues {
		if issue.Level == domain.IssueError {
			valid = false
			break
		}
	}
	return domain.Report{Valid: valid, Issues: issues, Stats: report.Stats}
}

const failureIssueLimit = 20

// buildFailureMessage renders the agent-facing remediation text for an
// invalid build: counts, the first issues, and the exact rerun command.
func buildFailureMessage(report domain.Report, contextPath, inputPath, outDir string, notesMode bool) string {
	errCount, warnCount := report.Counts()

	inputFlag, inputLabel, subject := "--annotations", "Annotations file", "annotations"
	if notesMode {
		inputFlag, inputLabel, subject = "--notes", "Notes file", "notes"
	}
	if outDir == "" {
		outDir = "."
	}

	lines := []string{
		fmt.Sprintf("Build validation failed: %d errors, %d warnings.", errCount, warnCount),
		fmt.Sprintf("Agent action: update %s to resolve the validation issues below, then rerun build.", subject),
	}
	for i, issue := range report.Issues {
		if i == failureIssueLimit {
			lines = append(lines, fmt.Sprintf("- ... %d more issues", len(report.Issues)-failureIssueLimit))
			break
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s: %s (%s)", issue.Level, issue.Code, issue.Message, issue.Location))
	}
	lines = append(lines,
		fmt.Sprintf("Context file: %s", contextPath),
		fmt.Sprintf("%s: %s", inputLabel, inputPath),
		"Rerun after fixes:",
		fmt.Sprintf("prereview build --context %s %s %s --out-dir %s", contextPath, inputFlag, inputPath, outDir),
	)
	return strings.Join(lines, "\n")
}

// record persists one history row. Store failures are logged, never fatal.
func (s *Service) record(ctx context.Context, reviewContext domain.ReviewContext, report domain.Report) {
	if s.deps.Recorder == nil {
		return
	}
	errCount, warnCount := report.Counts()
	record := BuildRecord{
		ContextID:       reviewContext.ContextID,
		DiffFingerprint: reviewContext.DiffFingerprint,
		SourceMode:      reviewContext.SourceSpec.Mode,
		FilesChanged:    reviewContext.Stats.FilesChanged,
		Additions:       reviewContext.Stats.Additions,
		Deletions:       reviewContext.Stats.Deletions,
		Valid:           report.Valid,
		Errors:          errCount,
		Warnings:        warnCount,
	}
	if err := s.deps.Recorder.RecordBuild(ctx, record); err != nil && s.deps.Logger != nil {
		s.deps.Logger.LogWarning(ctx, "failed to record build history", map[string]interface{}{
			"error":      err.Error(),
			"context_id": reviewContext.ContextID,
		})
	}
}

// removeAll deletes the given files, skipping ones already gone, and
// reports the paths it actually removed.
func removeAll(paths []string) ([]string, error) {
	var removed []string
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return removed, fmt.Errorf("remove consumed artifact: %w", err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

func dedupe(paths ...string) []string {
	seen := make(map[string]bool, len(paths))
	var unique []string
	for _, path := range paths {
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		unique = append(unique, path)
	}
	return unique
}
