// Package git acquires raw unified-diff text from patch files, commit
// ranges, and the working tree.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	formatdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/akhmerov/prereview/internal/domain"
)

// Size budgets for collected patch text. Oversized output usually means
// generated artifacts slipped into scope; the remedy is --exclude-path,
// not a bigger buffer.
const (
	maxUntrackedFileBytes      = 8 * 1024 * 1024
	maxUntrackedFilePatchBytes = 8 * 1024 * 1024
	maxUntrackedPatchBytes     = 24 * 1024 * 1024
	maxTrackedPatchBytes       = 24 * 1024 * 1024

	readChunkBytes = 64 * 1024
)

// BudgetError reports collected output exceeding a size budget.
type BudgetError struct {
	What  string
	Limit int64
	Got   int64
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("%s exceeded the %d byte budget (%d bytes); narrow the scope with --exclude-path",
		e.What, e.Limit, e.Got)
}

// Source collects raw patch text for every source-spec mode.
type Source struct{}

// NewSource constructs a diff source.
func NewSource() *Source {
	return &Source{}
}

// Collect returns the raw unified diff described by spec. When the spec
// asks for untracked files their synthesized patches are appended after
// the tracked diff, whatever the mode.
func (s *Source) Collect(ctx context.Context, spec domain.SourceSpec) (string, error) {
	repoDir := spec.Repo
	if repoDir == "" {
		repoDir = "."
	}

	var raw string
	var err error
	switch spec.Mode {
	case domain.SourceModePatchFile:
		raw, err = readPatchFile(spec.PatchFile)
	case domain.SourceModeGitRange:
		raw, err = collectRange(ctx, repoDir, spec.GitRange)
	case domain.SourceModeWorkingTree:
		raw, err = collectWorkingTree(ctx, repoDir, spec.ExcludePaths)
	default:
		return "", fmt.Errorf("unsupported source mode %q", spec.Mode)
	}
	if err != nil {
		return "", err
	}

	if spec.IncludeUntracked {
		untracked, err := collectUntracked(ctx, repoDir, spec.ExcludePaths)
		if err != nil {
			return "", err
		}
		if untracked != "" {
			if raw != "" && !strings.HasSuffix(raw, "\n") {
				raw += "\n"
			}
			raw += untracked
		}
	}

	return raw, nil
}

func readPatchFile(path string) (string, error) {
	if path == "" {
		return "", errors.New("patch-file mode requires a patch file path")
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat patch file: %w", err)
	}
	if info.Size() > maxTrackedPatchBytes {
		return "", &BudgetError{
			What:  fmt.Sprintf("patch file %s", path),
			Limit: maxTrackedPatchBytes,
			Got:   info.Size(),
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read patch file: %w", err)
	}
	return string(data), nil
}

func collectRange(ctx context.Context, repoDir, gitRange string) (string, error) {
	if gitRange == "" {
		return "", errors.New("git-range mode requires a commit range")
	}

	repo, err := goGit.PlainOpenWithOptions(repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}

	baseRef, targetRef := SplitRange(gitRange)
	baseCommit, err := resolveCommit(repo, baseRef)
	if err != nil {
		return "", fmt.Errorf("resolve base ref: %w", err)
	}
	targetCommit, err := resolveCommit(repo, targetRef)
	if err != nil {
		return "", fmt.Errorf("resolve target ref: %w", err)
	}

	patch, err := baseCommit.PatchContext(ctx, targetCommit)
	if err != nil {
		return "", fmt.Errorf("compute patch: %w", err)
	}

	var buf bytes.Buffer
	encoder := formatdiff.NewUnifiedEncoder(&buf, formatdiff.DefaultContextLines)
	if err := encoder.Encode(patch); err != nil {
		return "", fmt.Errorf("encode patch: %w", err)
	}
	if int64(buf.Len()) > maxTrackedPatchBytes {
		return "", &BudgetError{
			What:  fmt.Sprintf("diff for %s", gitRange),
			Limit: maxTrackedPatchBytes,
			Got:   int64(buf.Len()),
		}
	}
	return buf.String(), nil
}

func collectWorkingTree(ctx context.Context, repoDir string, excludePaths []string) (string, error) {
	args := []string{"diff", "--no-color", "HEAD"}
	args = append(args, excludePathspecs(excludePaths)...)
	return runGit(ctx, repoDir, maxTrackedPatchBytes, "working tree diff", args...)
}

func collectUntracked(ctx context.Context, repoDir string, excludePaths []string) (string, error) {
	args := []string{"ls-files", "--others", "--exclude-standard"}
	args = append(args, excludePathspecs(excludePaths)...)
	listing, err := runGit(ctx, repoDir, 0, "untracked listing", args...)
	if err != nil {
		return "", fmt.Errorf("list untracked files: %w", err)
	}

	var pieces []string
	var total int64
	for _, name := range strings.Split(strings.TrimRight(listing, "\n"), "\n") {
		if name == "" || domain.PathExcluded(name, excludePaths) {
			continue
		}
		info, err := os.Stat(filepath.Join(repoDir, name))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.Size() > maxUntrackedFileBytes {
			return "", &BudgetError{
				What:  fmt.Sprintf("untracked file %s", name),
				Limit: maxUntrackedFileBytes,
				Got:   info.Size(),
			}
		}

		patch, err := runGit(ctx, repoDir, maxUntrackedFilePatchBytes,
			fmt.Sprintf("untracked patch for %s", name),
			"diff", "--no-color", "--no-index", "--", "/dev/null", name)
		if err != nil {
			return "", err
		}
		if patch == "" {
			continue
		}

		piece := strings.TrimRight(patch, "\n")
		total += int64(len(piece)) + 2
		if total > maxUntrackedPatchBytes {
			return "", &BudgetError{
				What:  "untracked diff payload",
				Limit: maxUntrackedPatchBytes,
				Got:   total,
			}
		}
		pieces = append(pieces, piece)
	}

	if len(pieces) == 0 {
		return "", nil
	}
	return strings.Join(pieces, "\n\n") + "\n", nil
}

// SplitRange splits a commit range into its endpoints. A bare ref means
// ref..HEAD, as does an empty right side; three-dot ranges are treated
// like two-dot ones.
func SplitRange(gitRange string) (base, target string) {
	base, target, found := strings.Cut(gitRange, "...")
	if !found {
		base, target, found = strings.Cut(gitRange, "..")
	}
	if !found {
		return gitRange, "HEAD"
	}
	if target == "" {
		target = "HEAD"
	}
	return base, target
}

func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		hash, err := repo.ResolveRevision(plumbing.Revision(candidate))
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to resolve ref %s", ref)
}

// excludePathspecs turns exclusion globs into git pathspecs. Parsed files
// are filtered again afterwards; the pathspecs keep oversized artifacts
// out of the diff output in the first place.
func excludePathspecs(globs []string) []string {
	var specs []string
	for _, glob := range globs {
		trimmed := strings.TrimPrefix(strings.TrimSpace(glob), "./")
		if trimmed == "" {
			continue
		}
		specs = append(specs, ":(exclude,glob)"+trimmed)
	}
	if len(specs) == 0 {
		return nil
	}
	return append([]string{"--", "."}, specs...)
}

// runGit executes git under repoDir. A positive budget caps stdout: output
// is read in 64 KiB chunks and the child is killed as soon as the budget
// is exceeded. Exit code 1 counts as success; git diff exits 1 when
// differences exist under --no-index.
func runGit(ctx context.Context, repoDir string, budget int64, what string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoDir}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if budget <= 0 {
		var stdout bytes.Buffer
		cmd.Stdout = &stdout
		if err := finishGit(ctx, args, cmd.Run(), &stderr); err != nil {
			return "", err
		}
		return stdout.String(), nil
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("git %v: %w", args, err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("git %v: %w", args, err)
	}

	var collected bytes.Buffer
	chunk := make([]byte, readChunkBytes)
	var total int64
	for {
		n, readErr := stdout.Read(chunk)
		if n > 0 {
			total += int64(n)
			if total > budget {
				_ = cmd.Process.Kill()
				_ = cmd.Wait()
				return "", &BudgetError{What: what, Limit: budget, Got: total}
			}
			collected.Write(chunk[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return "", fmt.Errorf("git %v: %w", args, readErr)
		}
	}

	if err := finishGit(ctx, args, cmd.Wait(), &stderr); err != nil {
		return "", err
	}
	return collected.String(), nil
}

func finishGit(ctx context.Context, args []string, err error, stderr *bytes.Buffer) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("git %v: %w", args, ctx.Err())
	}
	if stderr.Len() > 0 {
		err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return fmt.Errorf("git %v: %w", args, err)
}
