package domain

// AnnotationsVersion is the persisted annotations document version.
const AnnotationsVersion = "2"

// AnchorAnnotation is the reviewer's note for a single anchor.
type AnchorAnnotation struct {
	AnchorID      string   `json:"anchor_id"`
	Title         string   `json:"title,omitempty"`
	WhatChanged   string   `json:"what_changed"`
	WhyChanged    string   `json:"why_changed"`
	ReviewerFocus string   `json:"reviewer_focus,omitempty"`
	Risk          string   `json:"risk,omitempty"`
	Severity      Severity `json:"severity,omitempty"`
}

// AnnotationFile groups the notes for one file.
type AnnotationFile struct {
	Path    string             `json:"path"`
	Summary string             `json:"summary,omitempty"`
	Anchors []AnchorAnnotation `json:"anchors"`
}

// Annotations is the compiled annotations document for a target context.
type Annotations struct {
	Version         string           `json:"version"`
	TargetContextID string           `json:"target_context_id"`
	Overview        []string         `json:"overview"`
	Files           []AnnotationFile `json:"files"`
}

// NewAnnotations returns an empty document targeting contextID. Slices are
// allocated so the document always serializes arrays, never null.
func NewAnnotations(contextID string) *Annotations {
	return &Annotations{
		Version:         AnnotationsVersion,
		TargetContextID: contextID,
		Overview:        []string{},
		Files:           []AnnotationFile{},
	}
}
