package annotate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/akhmerov/prereview/internal/domain"
)

// CompileNotes turns scanned note lines into an annotations document bound
// to the context. Invalid lines are rejected individually and never stop
// the rest from compiling. When the same file or anchor is annotated twice
// the later note wins and the earlier line is rejected.
//
// Compiled prose is trimmed of surrounding whitespace, and anchor notes
// without a title inherit the context anchor's title. File and anchor
// order in the output follows the context document, not the notes stream;
// files with neither a summary nor anchor notes are omitted.
func CompileNotes(reviewContext domain.ReviewContext, lines []domain.NoteLine) (*domain.Annotations, []domain.RejectedNote) {
	annotations := domain.NewAnnotations(reviewContext.ContextID)

	knownFiles := reviewContext.AnchorIDsByPath()
	knownAnchors := make(map[string]bool)
	for _, ids := range knownFiles {
		for id := range ids {
			knownAnchors[id] = true
		}
	}
	anchorTitles := make(map[string]string)
	for _, file := range reviewContext.Files {
		for _, anchor := range file.Anchors {
			anchorTitles[anchor.AnchorID] = anchor.Title
		}
	}

	var rejected []domain.RejectedNote
	reject := func(line domain.NoteLine, code, message string) {
		rejected = append(rejected, domain.RejectedNote{
			Line:    line.Number,
			Code:    code,
			Message: message,
			Record:  json.RawMessage(line.Raw),
		})
	}

	overview := []string{}
	summaries := make(map[string]string)
	summaryLines := make(map[string]domain.NoteLine)
	anchorNotes := make(map[string]domain.AnchorAnnotation)
	anchorLines := make(map[string]domain.NoteLine)

	for _, line := range lines {
		recordType, typePresent := stringField(line.Fields, "type")
		switch {
		case !typePresent || strings.TrimSpace(recordType) == "":
			reject(line, "missing_type", "note records require a type")
			continue
		case recordType == domain.NoteTypeOverview:
			text, _ := stringField(line.Fields, "text")
			if strings.TrimSpace(text) == "" {
				reject(line, "overview_text", "overview notes require non-empty text")
				continue
			}
			overview = append(overview, strings.TrimSpace(text))
		case recordType == domain.NoteTypeFileSummary:
			path, _ := stringField(line.Fields, "path")
			path = strings.TrimSpace(path)
			if path == "" {
				reject(line, "file_summary_path", "file_summary notes require a path")
				continue
			}
			if _, ok := knownFiles[path]; !ok {
				reject(line, "unknown_file", fmt.Sprintf("path %s is not part of the context", path))
				continue
			}
			text, _ := stringField(line.Fields, "summary")
			if strings.TrimSpace(text) == "" {
				reject(line, "file_summary_text", "file_summary notes require a non-empty summary")
				continue
			}
			if prev, dup := summaryLines[path]; dup {
				reject(prev, "duplicate_file_summary",
					fmt.Sprintf("superseded by a later summary for %s", path))
			}
			summaries[path] = strings.TrimSpace(text)
			summaryLines[path] = line
		case recordType == domain.NoteTypeAnchorNote:
			note, code, message := buildAnchorNote(line, knownAnchors)
			if code != "" {
				reject(line, code, message)
				continue
			}
			if note.Title == "" {
				note.Title = anchorTitles[note.AnchorID]
			}
			if prev, dup := anchorLines[note.AnchorID]; dup {
				reject(prev, "duplicate_anchor_note",
					fmt.Sprintf("superseded by a later note for anchor %s", note.AnchorID))
			}
			anchorNotes[note.AnchorID] = note
			anchorLines[note.AnchorID] = line
		default:
			reject(line, "unknown_type", fmt.Sprintf("unsupported note type %q", recordType))
		}
	}

	annotations.Overview = overview
	for _, file := range reviewContext.Files {
		entry := domain.AnnotationFile{
			Path:    file.Path,
			Summary: summaries[file.Path],
			Anchors: []domain.AnchorAnnotation{},
		}
		for _, anchor := range file.Anchors {
			if note, ok := anchorNotes[anchor.AnchorID]; ok {
				entry.Anchors = append(entry.Anchors, note)
			}
		}
		if entry.Summary == "" && len(entry.Anchors) == 0 {
			continue
		}
		annotations.Files = append(annotations.Files, entry)
	}

	sort.SliceStable(rejected, func(i, j int) bool { return rejected[i].Line < rejected[j].Line })
	return annotations, rejected
}

// buildAnchorNote validates one anchor_note record. A non-empty code means
// the record must be rejected.
func buildAnchorNote(line domain.NoteLine, knownAnchors map[string]bool) (domain.AnchorAnnotation, string, string) {
	id, _ := stringField(line.Fields, "anchor_id")
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.AnchorAnnotation{}, "missing_anchor_id", "anchor_note records require an anchor_id"
	}
	if !knownAnchors[id] {
		return domain.AnchorAnnotation{}, "unknown_anchor_id",
			fmt.Sprintf("anchor %s is not part of the context", id)
	}

	whatChanged, _ := stringField(line.Fields, "what_changed")
	if strings.TrimSpace(whatChanged) == "" {
		return domain.AnchorAnnotation{}, "missing_what_changed", "anchor_note records require what_changed"
	}
	whyChanged, _ := stringField(line.Fields, "why_changed")
	if strings.TrimSpace(whyChanged) == "" {
		return domain.AnchorAnnotation{}, "missing_why_changed", "anchor_note records require why_changed"
	}

	severity := domain.DefaultSeverity
	if rawSeverity, present := line.Fields["severity"]; present {
		value, isString := rawSeverity.(string)
		if !isString {
			return domain.AnchorAnnotation{}, "bad_severity", "severity must be a string"
		}
		parsed, valid := domain.ParseSeverity(value)
		if !valid {
			return domain.AnchorAnnotation{}, "bad_severity",
				fmt.Sprintf("severity %q is not one of info, note, warning, risk", value)
		}
		severity = parsed
	}

	title, _ := stringField(line.Fields, "title")
	reviewerFocus, _ := stringField(line.Fields, "reviewer_focus")
	risk, _ := stringField(line.Fields, "risk")

	return domain.AnchorAnnotation{
		AnchorID:      id,
		Title:         strings.TrimSpace(title),
		WhatChanged:   strings.TrimSpace(whatChanged),
		WhyChanged:    strings.TrimSpace(whyChanged),
		ReviewerFocus: strings.TrimSpace(reviewerFocus),
		Risk:          strings.TrimSpace(risk),
		Severity:      severity,
	}, "", ""
}

// stringField reads a string field from a decoded record. Non-string
// values read as absent so the caller's required-field checks fire.
func stringField(fields map[string]any, key string) (string, bool) {
	raw, present := fields[key]
	if !present {
		return "", false
	}
	value, ok := raw.(string)
	if !ok {
		return "", true
	}
	return value, true
}

// MergeRejects combines rejection lists into one, ordered by line number.
func MergeRejects(lists ...[]domain.RejectedNote) []domain.RejectedNote {
	var merged []domain.RejectedNote
	for _, list := range lists {
		merged = append(merged, list...)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Line < merged[j].Line })
	return merged
}
