package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storeAdapter "github.com/akhmerov/prereview/internal/adapter/store"
	"github.com/akhmerov/prereview/internal/store"
	"github.com/akhmerov/prereview/internal/usecase/preview"
)

// mockStore implements store.Store for testing.
type mockStore struct {
	builds  []store.Build
	saveErr error
	closed  bool
}

func (m *mockStore) SaveBuild(ctx context.Context, build store.Build) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.builds = append(m.builds, build)
	return nil
}

func (m *mockStore) GetBuild(ctx context.Context, runID string) (store.Build, error) {
	return store.Build{}, nil
}

func (m *mockStore) ListBuilds(ctx context.Context, limit int) ([]store.Build, error) {
	return m.builds, nil
}

func (m *mockStore) Close() error {
	m.closed = true
	return nil
}

func TestRecordBuildStampsRunIDAndCreatedAt(t *testing.T) {
	mock := &mockStore{}
	createdAt := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	bridge := storeAdapter.NewBridge(mock, func() time.Time { return createdAt })

	err := bridge.RecordBuild(context.Background(), preview.BuildRecord{
		ContextID:       "ctx-abcdef123456",
		DiffFingerprint: "fp-0011",
		SourceMode:      "working-tree",
		FilesChanged:    3,
		Additions:       12,
		Deletions:       4,
		Valid:           true,
		Warnings:        1,
	})
	require.NoError(t, err)
	require.Len(t, mock.builds, 1)

	build := mock.builds[0]
	assert.Equal(t, store.GenerateRunID(createdAt, "ctx-abcdef123456"), build.RunID)
	assert.Equal(t, createdAt, build.CreatedAt)
	assert.Equal(t, "ctx-abcdef123456", build.ContextID)
	assert.Equal(t, "working-tree", build.SourceMode)
	assert.Equal(t, 3, build.FilesChanged)
	assert.True(t, build.Valid)
	assert.Equal(t, 1, build.Warnings)
}

func TestRecordBuildPropagatesStoreErrors(t *testing.T) {
	mock := &mockStore{saveErr: errors.New("database is locked")}
	bridge := storeAdapter.NewBridge(mock, nil)

	err := bridge.RecordBuild(context.Background(), preview.BuildRecord{ContextID: "ctx-1"})
	assert.ErrorContains(t, err, "database is locked")
}

func TestBridgeSatisfiesRecorderPort(t *testing.T) {
	var _ preview.Recorder = storeAdapter.NewBridge(&mockStore{}, nil)
}
