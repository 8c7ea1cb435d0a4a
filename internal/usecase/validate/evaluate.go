package validate

import (
	"context"
	"fmt"

	"github.com/akhmerov/prereview/internal/domain"
	"github.com/akhmerov/prereview/internal/usecase/annotate"
)

// Options control evaluation behavior. Strict promotes every warning to an
// error before validity is decided; nothing else changes.
type Options struct {
	Strict bool
}

// Recomputer rebuilds the runtime view of a context's source.
type Recomputer interface {
	Recompute(ctx context.Context, reviewContext domain.ReviewContext) (*domain.Runtime, error)
}

// Evaluator validates annotations documents against their context.
type Evaluator struct {
	recomputer Recomputer
}

// NewEvaluator creates an evaluator backed by the given recomputer.
func NewEvaluator(recomputer Recomputer) *Evaluator {
	return &Evaluator{recomputer: recomputer}
}

// Evaluate runs the full validation pipeline over a raw annotations
// document: schema, context identity, runtime recompute, staleness, and
// reference checks, in that order. The returned runtime reflects the
// source as it is now; it is nil when recomputation failed and non-nil
// even when the context is stale.
func (e *Evaluator) Evaluate(ctx context.Context, reviewContext domain.ReviewContext, rawAnnotations []byte, opts Options) (domain.Report, *domain.Runtime) {
	issues, doc := annotate.ValidateSchema(rawAnnotations)

	if doc == nil && hasCode(issues, "root_type") {
		return finishReport(issues, domain.ReportStats{}, opts), nil
	}

	if doc != nil && doc.TargetContextID != "" && doc.TargetContextID != reviewContext.ContextID {
		issues = append(issues, domain.Issue{
			Level:    domain.IssueError,
			Code:     "context_mismatch",
			Message:  fmt.Sprintf("annotations target context %s, not %s", doc.TargetContextID, reviewContext.ContextID),
			Location: "$.target_context_id",
		})
	}

	runtime, err := e.recomputer.Recompute(ctx, reviewContext)
	if err != nil {
		issues = append(issues, domain.Issue{
			Level:    domain.IssueError,
			Code:     "runtime_recompute_failed",
			Message:  fmt.Sprintf("could not recompute the diff from its source: %v", err),
			Location: "$.source_spec",
		})
		return finishReport(issues, domain.ReportStats{}, opts), nil
	}

	if runtime.Fingerprint != reviewContext.DiffFingerprint {
		issues = append(issues, domain.Issue{
			Level:    domain.IssueError,
			Code:     "context_stale",
			Message:  "the diff has changed since the context was prepared; re-run prepare-context",
			Location: "$.diff_fingerprint",
		})
	}

	var stats domain.ReportStats
	if doc != nil {
		var referenceIssues []domain.Issue
		referenceIssues, stats = checkReferences(runtime, doc)
		issues = append(issues, referenceIssues...)
	}

	return finishReport(issues, stats, opts), runtime
}

// checkReferences verifies every annotated path and anchor against the
// recomputed runtime, so notes that no longer land anywhere in the
// current diff surface even when the context snapshot still names them.
// Anchors under an unknown file are neither mapped nor unmapped.
// Unresolved references are warnings; strict promotion decides their
// blocking weight.
func checkReferences(runtime *domain.Runtime, doc *domain.Annotations) ([]domain.Issue, domain.ReportStats) {
	var issues []domain.Issue
	var stats domain.ReportStats

	for i, file := range doc.Files {
		if file.Summary != "" || len(file.Anchors) > 0 {
			stats.FilesWithAnnotations++
		}
		anchors, fileKnown := runtime.AnchorIndex[file.Path]
		if !fileKnown {
			issues = append(issues, domain.Issue{
				Level:    domain.IssueWarning,
				Code:     "unknown_file",
				Message:  fmt.Sprintf("path %s is not in the recomputed diff", file.Path),
				Location: fmt.Sprintf("$.files[%d].path", i),
			})
			continue
		}
		for j, anchor := range file.Anchors {
			if _, ok := anchors[anchor.AnchorID]; ok {
				stats.MappedAnchors++
				continue
			}
			stats.UnmappedAnchors++
			issues = append(issues, domain.Issue{
				Level:    domain.IssueWarning,
				Code:     "unknown_anchor",
				Message:  fmt.Sprintf("anchor %s was not found in the current diff for %s", anchor.AnchorID, file.Path),
				Location: fmt.Sprintf("$.files[%d].anchors[%d].anchor_id", i, j),
			})
		}
	}

	return issues, stats
}

func finishReport(issues []domain.Issue, stats domain.ReportStats, opts Options) domain.Report {
	if opts.Strict {
		for i := range issues {
			if issues[i].Level == domain.IssueWarning {
				issues[i].Level = domain.IssueError
			}
		}
	}
	valid := true
	for _, issue := range issues {
		if issue.Level == domain.IssueError {
			valid = false
			break
		}
	}
	return domain.Report{Valid: valid, Issues: issues, Stats: stats}
}

func hasCode(issues []domain.Issue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}
