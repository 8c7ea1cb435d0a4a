package store

import (
	"context"
	"time"
)

// Store defines the persistence layer interface for build history.
type Store interface {
	SaveBuild(ctx context.Context, build Build) error
	GetBuild(ctx context.Context, runID string) (Build, error)
	ListBuilds(ctx context.Context, limit int) ([]Build, error)
	Close() error
}

// Build records one pipeline run: a context that was prepared and, when
// notes were supplied, validated.
type Build struct {
	RunID           string
	ContextID       string
	DiffFingerprint string
	SourceMode      string
	FilesChanged    int
	Additions       int
	Deletions       int
	Valid           bool
	Errors          int
	Warnings        int
	CreatedAt       time.Time
}

// Outcome renders the validity flag for history listings.
func (b Build) Outcome() string {
	if b.Valid {
		return "valid"
	}
	return "invalid"
}
