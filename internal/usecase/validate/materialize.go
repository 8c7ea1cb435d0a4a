package validate

import (
	"fmt"
	"strings"

	"github.com/akhmerov/prereview/internal/domain"
)

// RenderModel shapes a validated annotations document for output writers.
type RenderModel struct {
	ContextID    string
	GeneratedAt  string
	Stats        domain.Stats
	Overview     []string
	Files        []RenderFile
	LineComments []LineComment
}

// RenderFile is one annotated file ready for rendering.
type RenderFile struct {
	Path    string
	Status  domain.FileStatus
	Summary string
	Anchors []RenderAnchor
}

// RenderAnchor is one annotated anchor with presentation fields resolved.
type RenderAnchor struct {
	AnchorID      string
	Title         string
	Breadcrumb    string
	WhatChanged   string
	WhyChanged    string
	ReviewerFocus string
	Risk          string
	RiskHint      string
	FocusSnippets []string
	Severity      domain.Severity
}

// LineComment is a reviewer-facing comment pinned to a new-side line.
// Only warning and risk annotations with a resolvable line produce one.
type LineComment struct {
	Path     string
	Line     int
	Severity domain.Severity
	Text     string
}

// Materialize merges the annotations with their context snapshot and the
// recomputed runtime into a render model. The runtime may be nil; location
// breadcrumbs then fall back to the bare path.
func Materialize(reviewContext domain.ReviewContext, annotations *domain.Annotations, runtime *domain.Runtime) RenderModel {
	model := RenderModel{
		ContextID:   reviewContext.ContextID,
		GeneratedAt: reviewContext.GeneratedAt,
		Stats:       reviewContext.Stats,
		Overview:    annotations.Overview,
	}

	anchorMeta := make(map[string]domain.ContextAnchor)
	fileStatus := make(map[string]domain.FileStatus)
	for _, file := range reviewContext.Files {
		fileStatus[file.Path] = file.Status
		for _, anchor := range file.Anchors {
			anchorMeta[anchor.AnchorID] = anchor
		}
	}

	for _, file := range annotations.Files {
		rendered := RenderFile{
			Path:    file.Path,
			Status:  fileStatus[file.Path],
			Summary: ensureTerminalPunctuation(file.Summary),
		}
		for _, note := range file.Anchors {
			meta := anchorMeta[note.AnchorID]
			anchor := RenderAnchor{
				AnchorID:      note.AnchorID,
				Title:         resolveTitle(note, meta),
				Breadcrumb:    breadcrumb(file.Path, note.AnchorID, runtime),
				WhatChanged:   ensureTerminalPunctuation(note.WhatChanged),
				WhyChanged:    ensureTerminalPunctuation(note.WhyChanged),
				ReviewerFocus: ensureTerminalPunctuation(note.ReviewerFocus),
				Risk:          ensureTerminalPunctuation(note.Risk),
				RiskHint:      meta.RiskHint,
				FocusSnippets: meta.FocusSnippets,
				Severity:      note.Severity,
			}
			rendered.Anchors = append(rendered.Anchors, anchor)

			if comment, ok := lineComment(file.Path, anchor, note.AnchorID, runtime); ok {
				model.LineComments = append(model.LineComments, comment)
			}
		}
		model.Files = append(model.Files, rendered)
	}

	return model
}

func resolveTitle(note domain.AnchorAnnotation, meta domain.ContextAnchor) string {
	if strings.TrimSpace(note.Title) != "" {
		return note.Title
	}
	if strings.TrimSpace(meta.Title) != "" {
		return meta.Title
	}
	return "Review focus"
}

// breadcrumb locates the anchor for humans, e.g. "src/demo.py · lines 3–9".
func breadcrumb(path, anchorID string, runtime *domain.Runtime) string {
	if runtime != nil {
		if ref, ok := runtime.LookupAnchor(path, anchorID); ok {
			if ref.NewEnd > ref.NewStart {
				return fmt.Sprintf("%s · lines %d–%d", path, ref.NewStart, ref.NewEnd)
			}
			return fmt.Sprintf("%s · line %d", path, ref.NewStart)
		}
	}
	return path
}

func lineComment(path string, anchor RenderAnchor, anchorID string, runtime *domain.Runtime) (LineComment, bool) {
	if !anchor.Severity.NeedsAttention() || runtime == nil {
		return LineComment{}, false
	}
	ref, ok := runtime.LookupAnchor(path, anchorID)
	if !ok || ref.AnchorLine == nil {
		return LineComment{}, false
	}

	text := anchor.WhatChanged
	if anchor.ReviewerFocus != "" {
		text += " " + anchor.ReviewerFocus
	}
	return LineComment{
		Path:     path,
		Line:     *ref.AnchorLine,
		Severity: anchor.Severity,
		Text:     text,
	}, true
}

// ensureTerminalPunctuation appends a period to prose that lacks one so
// rendered sentences read consistently.
func ensureTerminalPunctuation(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?', ':', ';':
		return trimmed
	}
	if strings.HasSuffix(trimmed, "…") {
		return trimmed
	}
	return trimmed + "."
}
