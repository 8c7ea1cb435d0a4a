// Package draft generates first-pass annotations from a context snapshot.
// The output is a starting point for a reviewer, not a finished review:
// every field is derived from the context's own titles, focus snippets,
// and risk hints, so the result is deterministic for a given context.
package draft

import (
	"fmt"
	"sort"
	"strings"

	"github.com/akhmerov/prereview/internal/domain"
)

// Generate builds a draft annotations document targeting the context.
// Every file and anchor in the context receives an entry.
func Generate(reviewContext domain.ReviewContext) *domain.Annotations {
	doc := domain.NewAnnotations(reviewContext.ContextID)
	doc.Overview = overview(reviewContext)

	for _, file := range reviewContext.Files {
		entry := domain.AnnotationFile{
			Path:    file.Path,
			Summary: fileSummary(file),
			Anchors: make([]domain.AnchorAnnotation, 0, len(file.Anchors)),
		}
		for _, anchor := range file.Anchors {
			entry.Anchors = append(entry.Anchors, anchorNote(file.Path, anchor))
		}
		doc.Files = append(doc.Files, entry)
	}
	return doc
}

func anchorNote(path string, anchor domain.ContextAnchor) domain.AnchorAnnotation {
	note := domain.AnchorAnnotation{
		AnchorID:    anchor.AnchorID,
		Title:       anchor.Title,
		WhatChanged: whatChanged(anchor),
		WhyChanged:  rationaleFor(path),
		Severity:    domain.SeverityNote,
	}
	if anchor.RiskHint != "" {
		note.Risk = anchor.RiskHint
		note.ReviewerFocus = fmt.Sprintf("Verify carefully: %s.", anchor.RiskHint)
		note.Severity = domain.SeverityWarning
	}
	return note
}

func whatChanged(anchor domain.ContextAnchor) string {
	if len(anchor.FocusSnippets) == 0 {
		return "Localized line-level adjustments."
	}
	quoted := make([]string, len(anchor.FocusSnippets))
	for i, snippet := range anchor.FocusSnippets {
		quoted[i] = "`" + snippet + "`"
	}
	return fmt.Sprintf("Edits around %s.", strings.Join(quoted, "; "))
}

func fileSummary(file domain.ContextFile) string {
	return fmt.Sprintf("What changed: %s %s with %d review anchor(s). Why: %s.",
		file.Status, fileKind(file.Path), len(file.Anchors), rationaleFor(file.Path))
}

func fileKind(path string) string {
	lowered := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lowered, ".go"):
		return "Go source file"
	case strings.HasSuffix(lowered, ".py"):
		return "Python module"
	case strings.HasSuffix(lowered, ".md"), strings.HasSuffix(lowered, ".rst"):
		return "documentation file"
	case strings.HasSuffix(lowered, ".toml"), strings.HasSuffix(lowered, ".yaml"),
		strings.HasSuffix(lowered, ".yml"), strings.HasSuffix(lowered, ".json"),
		strings.HasSuffix(lowered, ".lock"), strings.HasSuffix(lowered, ".ini"):
		return "configuration file"
	case strings.HasSuffix(lowered, ".html"), strings.HasSuffix(lowered, ".css"),
		strings.HasSuffix(lowered, ".js"), strings.HasSuffix(lowered, ".ts"):
		return "frontend file"
	case strings.HasSuffix(lowered, ".sql"):
		return "database script"
	default:
		return "source file"
	}
}

// rationaleFor maps a path to the most plausible reason its kind of file
// changes. The fallback is intentionally generic.
func rationaleFor(path string) string {
	lowered := strings.ToLower(path)
	switch {
	case strings.HasPrefix(lowered, "tests/"), strings.Contains(lowered, "_test."):
		return "to add regression coverage and keep behavior stable"
	case strings.HasPrefix(lowered, "docs/"),
		strings.HasSuffix(lowered, ".md"), strings.HasSuffix(lowered, ".rst"):
		return "to keep documentation aligned with the change"
	case strings.Contains(lowered, "migration"):
		return "to evolve stored data alongside the code"
	case strings.Contains(lowered, "config"),
		strings.HasSuffix(lowered, ".toml"), strings.HasSuffix(lowered, ".yaml"),
		strings.HasSuffix(lowered, ".yml"), strings.HasSuffix(lowered, ".ini"):
		return "to adjust settings to match the new behavior"
	case strings.HasPrefix(lowered, "cmd/"), strings.HasSuffix(lowered, "cli.py"),
		strings.HasSuffix(lowered, "main.go"):
		return "to expose improved workflow controls to users"
	default:
		return "to improve review clarity and maintainability"
	}
}

func overview(reviewContext domain.ReviewContext) []string {
	stats := reviewContext.Stats
	lines := []string{
		fmt.Sprintf("Scope: %d file(s), +%d/-%d lines in this review set.",
			stats.FilesChanged, stats.Additions, stats.Deletions),
	}

	if len(reviewContext.Files) > 0 {
		lines = append(lines, fmt.Sprintf("Review order: %s.", strings.Join(busiestPaths(reviewContext.Files, 3), ", ")))

		var rationales []string
		for _, file := range reviewContext.Files {
			why := rationaleFor(file.Path)
			if !contains(rationales, why) {
				rationales = append(rationales, why)
			}
			if len(rationales) == 3 {
				break
			}
		}
		lines = append(lines, fmt.Sprintf("Primary intent: %s.", strings.Join(rationales, "; ")))
	}

	lines = append(lines, "Reviewer focus: verify behavior and rationale per anchor; line notes are reserved for risk-hinted anchors.")
	return lines
}

// busiestPaths returns up to limit paths ordered by anchor count, busiest
// first. Ties keep context order.
func busiestPaths(files []domain.ContextFile, limit int) []string {
	ordered := make([]domain.ContextFile, len(files))
	copy(ordered, files)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Anchors) > len(ordered[j].Anchors)
	})
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	paths := make([]string, len(ordered))
	for i, file := range ordered {
		paths[i] = fmt.Sprintf("%s (%d anchors)", file.Path, len(file.Anchors))
	}
	return paths
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
