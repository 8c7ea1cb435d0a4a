// Package workspace manages the artifacts directory the pipeline writes
// into, including its git exclusion entries.
package workspace

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Workspace is a resolved artifacts directory.
type Workspace struct {
	dir     string
	repoRel string
}

// Dir returns the absolute workspace directory.
func (w Workspace) Dir() string {
	return w.dir
}

// Path returns the absolute path of a named artifact.
func (w Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// ExcludeGlob returns the glob that keeps the workspace's own files out of
// collected diffs, or "" when the workspace sits outside the repository.
func (w Workspace) ExcludeGlob() string {
	if w.repoRel == "" {
		return ""
	}
	return w.repoRel + "/**"
}

// Manager creates and removes artifacts workspaces for one repository.
type Manager struct {
	repoDir string
}

// NewManager builds a manager for the repository at repoDir ("." when empty).
func NewManager(repoDir string) *Manager {
	if repoDir == "" {
		repoDir = "."
	}
	return &Manager{repoDir: repoDir}
}

// Ensure resolves outDir/dirName into an absolute workspace, creates it,
// rewrites its .gitignore, and registers it in the repository's
// info/exclude when the workspace sits inside one.
func (m *Manager) Ensure(ctx context.Context, outDir, dirName string) (Workspace, error) {
	dir, err := resolveDir(outDir, dirName)
	if err != nil {
		return Workspace{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Workspace{}, fmt.Errorf("create artifacts dir: %w", err)
	}
	// Rewritten every run so a hand-edited copy cannot leak artifacts into
	// version control.
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*\n"), 0o644); err != nil {
		return Workspace{}, fmt.Errorf("write workspace .gitignore: %w", err)
	}

	ws := Workspace{dir: dir}
	rel, ok := m.repoRelative(ctx, dir)
	if !ok {
		return ws, nil
	}
	ws.repoRel = rel

	if err := m.addExclude(ctx, rel); err != nil {
		return Workspace{}, err
	}
	return ws, nil
}

// Remove deletes the workspace directory and drops its info/exclude entry.
// It reports the resolved directory and whether one existed.
func (m *Manager) Remove(ctx context.Context, outDir, dirName string) (string, bool, error) {
	dir, err := resolveDir(outDir, dirName)
	if err != nil {
		return "", false, err
	}

	if rel, ok := m.repoRelative(ctx, dir); ok {
		if err := m.removeExclude(ctx, rel); err != nil {
			return dir, false, err
		}
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return dir, false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return dir, false, fmt.Errorf("remove artifacts dir: %w", err)
	}
	return dir, true, nil
}

func resolveDir(outDir, dirName string) (string, error) {
	if outDir == "" {
		outDir = "."
	}
	if dirName == "" {
		dirName = ".prereview"
	}
	candidate := dirName
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(outDir, dirName)
	}
	dir, err := filepath.Abs(candidate)
	if err != nil {
		return "", fmt.Errorf("resolve artifacts dir: %w", err)
	}
	return dir, nil
}

// repoRelative reports dir's slash path relative to the repository root.
// It returns false outside a repository or when dir sits above the root.
func (m *Manager) repoRelative(ctx context.Context, dir string) (string, bool) {
	out, err := runGit(ctx, m.repoDir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", false
	}
	root := strings.TrimSpace(out)
	if root == "" {
		return "", false
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// excludeFile locates info/exclude, honoring worktree and submodule layouts
// where .git is a file.
func (m *Manager) excludeFile(ctx context.Context) (string, error) {
	out, err := runGit(ctx, m.repoDir, "rev-parse", "--git-path", "info/exclude")
	if err != nil {
		return "", err
	}
	path := strings.TrimSpace(out)
	if path == "" {
		return "", fmt.Errorf("git reported no exclude file")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.repoDir, path)
	}
	return filepath.Abs(path)
}

func (m *Manager) addExclude(ctx context.Context, repoRel string) error {
	pattern := excludePattern(repoRel)
	file, err := m.excludeFile(ctx)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(file)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read git exclude file: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == pattern {
			return nil
		}
	}

	var buf bytes.Buffer
	buf.Write(data)
	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString(pattern + "\n")

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("create git info dir: %w", err)
	}
	if err := os.WriteFile(file, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write git exclude file: %w", err)
	}
	return nil
}

func (m *Manager) removeExclude(ctx context.Context, repoRel string) error {
	pattern := excludePattern(repoRel)
	file, err := m.excludeFile(ctx)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read git exclude file: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	kept := make([]string, 0, len(lines))
	changed := false
	for _, line := range lines {
		if strings.TrimSpace(line) == pattern {
			changed = true
			continue
		}
		kept = append(kept, line)
	}
	if !changed {
		return nil
	}

	content := strings.Join(kept, "\n")
	if content != "" {
		content += "\n"
	}
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write git exclude file: %w", err)
	}
	return nil
}

// excludePattern anchors the entry to the repository root so an equally
// named nested directory stays tracked.
func excludePattern(repoRel string) string {
	return "/" + repoRel + "/"
}

func runGit(ctx context.Context, repoDir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoDir}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("git %v: %w", args, err)
	}
	return stdout.String(), nil
}
