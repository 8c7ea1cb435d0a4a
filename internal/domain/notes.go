package domain

import "encoding/json"

// Note record types accepted in the notes stream.
const (
	NoteTypeOverview    = "overview"
	NoteTypeFileSummary = "file_summary"
	NoteTypeAnchorNote  = "anchor_note"
)

// NoteRecord is the wire form of one JSONL note, used when writing streams
// back out. Reading goes through NoteLine instead so field-level type
// problems surface as rejections rather than decode failures.
type NoteRecord struct {
	Type          string `json:"type"`
	Text          string `json:"text,omitempty"`
	Path          string `json:"path,omitempty"`
	Summary       string `json:"summary,omitempty"`
	AnchorID      string `json:"anchor_id,omitempty"`
	Title         string `json:"title,omitempty"`
	WhatChanged   string `json:"what_changed,omitempty"`
	WhyChanged    string `json:"why_changed,omitempty"`
	ReviewerFocus string `json:"reviewer_focus,omitempty"`
	Risk          string `json:"risk,omitempty"`
	Severity      string `json:"severity,omitempty"`
}

// NoteLine is one scanned notes line: its 1-based position, the original
// text, and the decoded JSON object.
type NoteLine struct {
	Number int
	Raw    string
	Fields map[string]any
}

// RejectedNote explains why one notes line was discarded. Record carries
// the original JSON when it decoded, Raw the original text when it did not.
type RejectedNote struct {
	Line    int             `json:"line"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Record  json.RawMessage `json:"record,omitempty"`
	Raw     string          `json:"raw,omitempty"`
}
