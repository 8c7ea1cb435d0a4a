package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// LineKind classifies a single diff body line.
type LineKind string

const (
	LineAdded   LineKind = "add"
	LineRemoved LineKind = "del"
	LineContext LineKind = "ctx"
)

// FileStatus describes how a file changed within a diff.
type FileStatus string

const (
	FileStatusAdded    FileStatus = "added"
	FileStatusModified FileStatus = "modified"
	FileStatusDeleted  FileStatus = "deleted"
	FileStatusRenamed  FileStatus = "renamed"
	FileStatusBinary   FileStatus = "binary"
)

// Line is one body line of a hunk. OldLine and NewLine are nil on the side
// the line does not exist on: additions have no OldLine, removals no NewLine.
type Line struct {
	Kind    LineKind
	Content string
	OldLine *int
	NewLine *int
	ID      string
}

// Hunk is a contiguous change region. ID is positional (moves when the @@
// numbers move), StableID tracks the change content itself, and AnchorID is
// the stable reference annotations attach to.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Trailer  string
	Lines    []Line
	ID       string
	StableID string
	AnchorID string
}

// ContentKey returns the line signature used to group hunks carrying
// identical changes regardless of their position in the file.
func (h Hunk) ContentKey() string {
	parts := make([]string, len(h.Lines))
	for i, line := range h.Lines {
		parts[i] = string(line.Kind) + ":" + line.Content
	}
	return strings.Join(parts, "\n")
}

// FileDiff captures the parsed change for a single file.
type FileDiff struct {
	OldPath   *string
	NewPath   *string
	Status    FileStatus
	IsNew     bool
	IsDeleted bool
	IsRename  bool
	IsBinary  bool
	Hunks     []Hunk
}

// Path returns the canonical path for the file: the new-side path when the
// file still exists, the old-side path for deletions, "unknown" otherwise.
func (f FileDiff) Path() string {
	if f.NewPath != nil {
		return *f.NewPath
	}
	if f.OldPath != nil {
		return *f.OldPath
	}
	return "unknown"
}

// DeriveStatus computes the file status from the header flags and paths.
func (f FileDiff) DeriveStatus() FileStatus {
	switch {
	case f.IsBinary:
		return FileStatusBinary
	case f.IsNew || f.OldPath == nil:
		return FileStatusAdded
	case f.IsDeleted || f.NewPath == nil:
		return FileStatusDeleted
	case f.IsRename || (f.OldPath != nil && f.NewPath != nil && *f.OldPath != *f.NewPath):
		return FileStatusRenamed
	default:
		return FileStatusModified
	}
}

// Stats aggregates change counts across a diff.
type Stats struct {
	FilesChanged int `json:"files_changed"`
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
}

// LineIdentity derives the deterministic ID for a line. The payload binds
// the line to its file, kind, governing line numbers, and content, so the
// same textual change in two files never collides.
func LineIdentity(path string, line Line) string {
	var payload string
	switch line.Kind {
	case LineAdded:
		payload = fmt.Sprintf("%s:add:%d:%s", path, lineNo(line.NewLine), line.Content)
	case LineRemoved:
		payload = fmt.Sprintf("%s:del:%d:%s", path, lineNo(line.OldLine), line.Content)
	default:
		payload = fmt.Sprintf("%s:ctx:%d:%d:%s", path, lineNo(line.OldLine), lineNo(line.NewLine), line.Content)
	}
	return hashPayload(payload)
}

// HunkIdentity derives the positional hunk ID from the @@ header fields.
func HunkIdentity(path string, h Hunk) string {
	payload := fmt.Sprintf("%s:%d:%d:%d:%d:%s",
		path, h.OldStart, h.OldCount, h.NewStart, h.NewCount, h.Trailer)
	return hashPayload(payload)
}

// StableHunkIdentity derives the content-based hunk ID. occurrence is the
// zero-based index among same-file hunks sharing contentKey, in file order,
// so duplicated changes stay distinguishable.
func StableHunkIdentity(path, contentKey string, occurrence int) string {
	return hashPayload(path + "\n" + contentKey + "\n#" + strconv.Itoa(occurrence))
}

// AnchorIdentity derives the annotation anchor ID for a hunk.
func AnchorIdentity(path, stableHunkID string) string {
	return hashPayload(path + ":" + stableHunkID)
}

func hashPayload(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func lineNo(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

// IntPtr returns a pointer to n. Convenience for building Line values.
func IntPtr(n int) *int {
	return &n
}
