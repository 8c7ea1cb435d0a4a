package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ContextVersion is the persisted review-context document version.
const ContextVersion = "2"

// Source spec modes.
const (
	SourceModePatchFile   = "patch-file"
	SourceModeGitRange    = "git-range"
	SourceModeWorkingTree = "working-tree"
)

// SourceSpec records how the diff under review was obtained. It is embedded
// verbatim in the context document so the runtime view can be recomputed
// later from the same source.
type SourceSpec struct {
	Mode             string   `json:"mode"`
	PatchFile        string   `json:"patch_file,omitempty"`
	GitRange         string   `json:"git_range,omitempty"`
	UseWorkingTree   bool     `json:"use_working_tree"`
	IncludeUntracked bool     `json:"include_untracked"`
	ExcludeBinary    bool     `json:"exclude_binary"`
	ExcludePaths     []string `json:"exclude_paths,omitempty"`
	Repo             string   `json:"repo,omitempty"`
}

// ContextAnchor is the persisted snapshot of one reviewable change region.
type ContextAnchor struct {
	AnchorID      string   `json:"anchor_id"`
	Title         string   `json:"title"`
	FocusSnippets []string `json:"focus_snippets"`
	RiskHint      string   `json:"risk_hint,omitempty"`
}

// ContextFile is the persisted snapshot of one changed file.
type ContextFile struct {
	Path    string          `json:"path"`
	Status  FileStatus      `json:"status"`
	Anchors []ContextAnchor `json:"anchors"`
}

// ReviewContext is the persisted context document annotations target.
type ReviewContext struct {
	Version         string        `json:"version"`
	ContextID       string        `json:"context_id"`
	GeneratedAt     string        `json:"generated_at"`
	SourceSpec      SourceSpec    `json:"source_spec"`
	DiffFingerprint string        `json:"diff_fingerprint"`
	Stats           Stats         `json:"stats"`
	Files           []ContextFile `json:"files"`
}

// AnchorIDsByPath indexes the context's anchor ids per file path.
func (c ReviewContext) AnchorIDsByPath() map[string]map[string]bool {
	index := make(map[string]map[string]bool, len(c.Files))
	for _, file := range c.Files {
		ids := make(map[string]bool, len(file.Anchors))
		for _, anchor := range file.Anchors {
			ids[anchor.AnchorID] = true
		}
		index[file.Path] = ids
	}
	return index
}

// contextIdentityFile and contextIdentityPayload form the reduced view of a
// context that its identity is derived from. Presentation fields (titles,
// snippets, timestamps) never influence the id.
type contextIdentityFile struct {
	Path    string   `json:"path"`
	Anchors []string `json:"anchors"`
}

type contextIdentityPayload struct {
	SourceSpec      SourceSpec            `json:"source_spec"`
	DiffFingerprint string                `json:"diff_fingerprint"`
	Files           []contextIdentityFile `json:"files"`
}

// ComputeContextID derives the deterministic context id. Two contexts with
// the same source spec, fingerprint, and anchor layout share an id no matter
// when or where they were generated.
func ComputeContextID(c ReviewContext) (string, error) {
	payload := contextIdentityPayload{
		SourceSpec:      c.SourceSpec,
		DiffFingerprint: c.DiffFingerprint,
		Files:           make([]contextIdentityFile, 0, len(c.Files)),
	}
	for _, file := range c.Files {
		entry := contextIdentityFile{Path: file.Path, Anchors: make([]string, 0, len(file.Anchors))}
		for _, anchor := range file.Anchors {
			entry.Anchors = append(entry.Anchors, anchor.AnchorID)
		}
		payload.Files = append(payload.Files, entry)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal context identity: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// FingerprintDiff hashes raw diff text into the context fingerprint.
func FingerprintDiff(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
