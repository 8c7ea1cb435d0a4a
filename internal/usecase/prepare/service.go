package prepare

import (
	"context"
	"fmt"
	"time"

	"github.com/akhmerov/prereview/internal/diff"
	"github.com/akhmerov/prereview/internal/domain"
)

// Collector acquires raw diff text for a source spec.
type Collector interface {
	Collect(ctx context.Context, spec domain.SourceSpec) (string, error)
}

// Result bundles everything a context snapshot produces.
type Result struct {
	Context domain.ReviewContext
	Files   []domain.FileDiff
	RawDiff string
}

// ContextBuilder snapshots review contexts and recomputes runtime views.
type ContextBuilder struct {
	collector Collector
	now       func() time.Time
}

// NewContextBuilder creates a context builder. A nil now falls back to the
// wall clock; tests inject a fixed clock.
func NewContextBuilder(collector Collector, now func() time.Time) *ContextBuilder {
	if now == nil {
		now = time.Now
	}
	return &ContextBuilder{collector: collector, now: now}
}

// Prepare acquires the diff described by spec and snapshots the review
// context document from it.
func (b *ContextBuilder) Prepare(ctx context.Context, spec domain.SourceSpec) (Result, error) {
	raw, err := b.collector.Collect(ctx, spec)
	if err != nil {
		return Result{}, fmt.Errorf("failed to collect diff: %w", err)
	}

	files, err := diff.Parse(raw)
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse diff: %w", err)
	}
	files = applyFilters(files, spec)

	reviewContext, err := BuildContext(spec, files, raw, b.now)
	if err != nil {
		return Result{}, err
	}

	return Result{Context: reviewContext, Files: files, RawDiff: raw}, nil
}

// Recompute re-acquires the context's source and rebuilds the runtime view
// from the diff as it exists now. The result is never persisted.
func (b *ContextBuilder) Recompute(ctx context.Context, reviewContext domain.ReviewContext) (*domain.Runtime, error) {
	raw, err := b.collector.Collect(ctx, reviewContext.SourceSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to recollect diff: %w", err)
	}

	files, err := diff.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to reparse diff: %w", err)
	}
	files = applyFilters(files, reviewContext.SourceSpec)

	return BuildRuntime(raw, files), nil
}

// BuildContext assembles the persisted context document. The fingerprint
// hashes the raw diff before filtering so any textual drift is visible.
func BuildContext(spec domain.SourceSpec, files []domain.FileDiff, rawDiff string, now func() time.Time) (domain.ReviewContext, error) {
	if now == nil {
		now = time.Now
	}

	reviewContext := domain.ReviewContext{
		Version:         domain.ContextVersion,
		GeneratedAt:     now().UTC().Format(time.RFC3339),
		SourceSpec:      spec,
		DiffFingerprint: domain.FingerprintDiff(rawDiff),
		Stats:           computeStats(files),
		Files:           make([]domain.ContextFile, 0, len(files)),
	}

	for _, file := range files {
		filePath := file.Path()
		entry := domain.ContextFile{
			Path:    filePath,
			Status:  file.Status,
			Anchors: make([]domain.ContextAnchor, 0, len(file.Hunks)),
		}
		for i, hunk := range file.Hunks {
			entry.Anchors = append(entry.Anchors, domain.ContextAnchor{
				AnchorID:      hunk.AnchorID,
				Title:         anchorTitle(filePath, i),
				FocusSnippets: focusSnippets(hunk),
				RiskHint:      riskHint(hunk),
			})
		}
		reviewContext.Files = append(reviewContext.Files, entry)
	}

	id, err := domain.ComputeContextID(reviewContext)
	if err != nil {
		return domain.ReviewContext{}, err
	}
	reviewContext.ContextID = id

	return reviewContext, nil
}

func computeStats(files []domain.FileDiff) domain.Stats {
	stats := domain.Stats{FilesChanged: len(files)}
	for _, file := range files {
		for _, hunk := range file.Hunks {
			for _, line := range hunk.Lines {
				switch line.Kind {
				case domain.LineAdded:
					stats.Additions++
				case domain.LineRemoved:
					stats.Deletions++
				}
			}
		}
	}
	return stats
}

func applyFilters(files []domain.FileDiff, spec domain.SourceSpec) []domain.FileDiff {
	kept := make([]domain.FileDiff, 0, len(files))
	for _, file := range files {
		if spec.ExcludeBinary && file.IsBinary {
			continue
		}
		if domain.PathExcluded(file.Path(), spec.ExcludePaths) {
			continue
		}
		kept = append(kept, file)
	}
	return kept
}
