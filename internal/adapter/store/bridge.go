package store

import (
	"context"
	"time"

	"github.com/akhmerov/prereview/internal/store"
	"github.com/akhmerov/prereview/internal/usecase/preview"
)

// Bridge adapts store.Store to the preview orchestrator's Recorder port.
// This avoids circular dependencies between packages.
type Bridge struct {
	store store.Store
	now   func() time.Time
}

// NewBridge creates a store adapter. A nil now falls back to the wall
// clock; tests inject a fixed clock.
func NewBridge(s store.Store, now func() time.Time) *Bridge {
	if now == nil {
		now = time.Now
	}
	return &Bridge{store: s, now: now}
}

// RecordBuild stamps one history row with a run id and saves it.
func (b *Bridge) RecordBuild(ctx context.Context, record preview.BuildRecord) error {
	createdAt := b.now()
	build := store.Build{
		RunID:           store.GenerateRunID(createdAt, record.ContextID),
		ContextID:       record.ContextID,
		DiffFingerprint: record.DiffFingerprint,
		SourceMode:      record.SourceMode,
		FilesChanged:    record.FilesChanged,
		Additions:       record.Additions,
		Deletions:       record.Deletions,
		Valid:           record.Valid,
		Errors:          record.Errors,
		Warnings:        record.Warnings,
		CreatedAt:       createdAt,
	}
	return b.store.SaveBuild(ctx, build)
}
