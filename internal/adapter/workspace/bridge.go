package workspace

import (
	"context"

	"github.com/akhmerov/prereview/internal/usecase/preview"
)

// Bridge adapts Manager to the preview orchestrator's workspace port.
// Ensure returns the concrete Workspace type, so the manager cannot
// satisfy the port directly.
type Bridge struct {
	manager *Manager
}

// NewBridge creates a workspace adapter.
func NewBridge(manager *Manager) *Bridge {
	return &Bridge{manager: manager}
}

// Ensure creates the workspace directory and registers its git excludes.
func (b *Bridge) Ensure(ctx context.Context, outDir, dirName string) (preview.Workspace, error) {
	ws, err := b.manager.Ensure(ctx, outDir, dirName)
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// Remove deletes the workspace and drops its git exclude entry.
func (b *Bridge) Remove(ctx context.Context, outDir, dirName string) (string, bool, error) {
	return b.manager.Remove(ctx, outDir, dirName)
}
