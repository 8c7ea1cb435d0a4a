package diff

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/akhmerov/prereview/internal/domain"
)

var hunkHeaderRE = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)

// Parse parses unified diff text into fully identified file diffs.
// File sections begin at "diff --git"; hunk counts default to 1 when the
// @@ header omits them. A hunk header that starts with @@ but does not
// match the unified format is a parse error carrying the 1-based line
// number. A hunk body runs until the next hunk or file header, and
// unrecognized lines outside hunk bodies are skipped.
func Parse(text string) ([]domain.FileDiff, error) {
	var files []domain.FileDiff
	var current *domain.FileDiff
	var hunk *domain.Hunk
	var oldLine, newLine int

	flushHunk := func() {
		if hunk != nil && current != nil {
			current.Hunks = append(current.Hunks, *hunk)
		}
		hunk = nil
	}
	flushFile := func() {
		flushHunk()
		if current != nil {
			finalizeFile(current)
			files = append(files, *current)
		}
		current = nil
	}

	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, line := range lines {
		if rest, ok := strings.CutPrefix(line, "diff --git "); ok {
			flushFile()
			left, right := splitHeaderPaths(rest)
			current = &domain.FileDiff{
				OldPath: normalizePath(left),
				NewPath: normalizePath(right),
			}
			continue
		}
		if current == nil {
			// Preamble before the first file section.
			continue
		}

		if strings.HasPrefix(line, "@@") {
			m := hunkHeaderRE.FindStringSubmatch(line)
			if m == nil {
				return nil, fmt.Errorf("line %d: malformed hunk header %q", i+1, line)
			}
			flushHunk()
			hunk = &domain.Hunk{
				OldStart: mustAtoi(m[1]),
				OldCount: countOrDefault(m[2]),
				NewStart: mustAtoi(m[3]),
				NewCount: countOrDefault(m[4]),
				Trailer:  strings.TrimPrefix(m[5], " "),
			}
			oldLine = hunk.OldStart
			newLine = hunk.NewStart
			continue
		}

		if hunk != nil {
			parseBodyLine(line, hunk, &oldLine, &newLine)
			continue
		}

		parseHeaderLine(line, current)
	}

	flushFile()
	return files, nil
}

// parseBodyLine consumes one hunk body line, advancing the side counters.
// Unprefixed lines, including fully empty ones from diffs with stripped
// trailing whitespace, count as context with the raw line as content.
func parseBodyLine(line string, hunk *domain.Hunk, oldLine, newLine *int) {
	switch {
	case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++ "):
		hunk.Lines = append(hunk.Lines, domain.Line{
			Kind:    domain.LineAdded,
			Content: line[1:],
			NewLine: domain.IntPtr(*newLine),
		})
		*newLine++
	case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "--- "):
		hunk.Lines = append(hunk.Lines, domain.Line{
			Kind:    domain.LineRemoved,
			Content: line[1:],
			OldLine: domain.IntPtr(*oldLine),
		})
		*oldLine++
	case strings.HasPrefix(line, "\\"):
		// "\ No newline at end of file" carries no content.
	default:
		content := line
		if strings.HasPrefix(line, " ") {
			content = line[1:]
		}
		hunk.Lines = append(hunk.Lines, domain.Line{
			Kind:    domain.LineContext,
			Content: content,
			OldLine: domain.IntPtr(*oldLine),
			NewLine: domain.IntPtr(*newLine),
		})
		*oldLine++
		*newLine++
	}
}

// parseHeaderLine applies one file header marker to the section in
// progress. Unknown markers are ignored.
func parseHeaderLine(line string, file *domain.FileDiff) {
	switch {
	case strings.HasPrefix(line, "new file mode"):
		file.IsNew = true
	case strings.HasPrefix(line, "deleted file mode"):
		file.IsDeleted = true
	case strings.HasPrefix(line, "rename from "):
		file.IsRename = true
		file.OldPath = cleanedPathPtr(strings.TrimPrefix(line, "rename from "))
	case strings.HasPrefix(line, "rename to "):
		file.IsRename = true
		file.NewPath = cleanedPathPtr(strings.TrimPrefix(line, "rename to "))
	case strings.HasPrefix(line, "Binary files ") && strings.HasSuffix(line, " differ"),
		strings.HasPrefix(line, "GIT binary patch"):
		file.IsBinary = true
	case strings.HasPrefix(line, "--- "):
		file.OldPath = normalizePath(headerPathField(strings.TrimPrefix(line, "--- ")))
	case strings.HasPrefix(line, "+++ "):
		file.NewPath = normalizePath(headerPathField(strings.TrimPrefix(line, "+++ ")))
	}
}

// finalizeFile derives the file status and stamps every identity. The
// canonical path feeds each hash, and equal-content hunks within the file
// are separated by their occurrence index.
func finalizeFile(file *domain.FileDiff) {
	file.Status = file.DeriveStatus()

	filePath := file.Path()
	seen := make(map[string]int)
	for i := range file.Hunks {
		h := &file.Hunks[i]
		for j := range h.Lines {
			h.Lines[j].ID = domain.LineIdentity(filePath, h.Lines[j])
		}
		h.ID = domain.HunkIdentity(filePath, *h)

		key := h.ContentKey()
		occurrence := seen[key]
		seen[key]++
		h.StableID = domain.StableHunkIdentity(filePath, key, occurrence)
		h.AnchorID = domain.AnchorIdentity(filePath, h.StableID)
	}
}

// splitHeaderPaths splits the two path tokens of a "diff --git" line.
// Either token may be quoted when it contains special characters.
func splitHeaderPaths(rest string) (string, string) {
	left, remainder := cutPathToken(rest)
	right, _ := cutPathToken(strings.TrimPrefix(remainder, " "))
	return left, right
}

// cutPathToken consumes one path token, honoring git's C-style quoting.
func cutPathToken(s string) (token, rest string) {
	if strings.HasPrefix(s, `"`) {
		quoted, err := strconv.QuotedPrefix(s)
		if err == nil {
			unquoted, uerr := strconv.Unquote(quoted)
			if uerr == nil {
				return unquoted, s[len(quoted):]
			}
		}
	}
	if idx := strings.IndexByte(s, ' '); idx >= 0 {
		return s[:idx], s[idx:]
	}
	return s, ""
}

// headerPathField extracts the path from a ---/+++ header value, dropping
// the optional tab-separated timestamp suffix.
func headerPathField(value string) string {
	if idx := strings.IndexByte(value, '\t'); idx >= 0 {
		value = value[:idx]
	}
	if strings.HasPrefix(value, `"`) {
		if unquoted, err := strconv.Unquote(value); err == nil {
			return unquoted
		}
	}
	return value
}

// normalizePath strips the single-character diff prefix (a/, b/, w/, 1/,
// ...) and cleans ./ segments. A /dev/null side maps to nil.
func normalizePath(raw string) *string {
	if raw == "" || raw == "/dev/null" {
		return nil
	}
	if len(raw) >= 2 && raw[1] == '/' && raw[0] != '/' && raw[0] != '.' {
		raw = raw[2:]
	}
	return cleanedPathPtr(raw)
}

func cleanedPathPtr(raw string) *string {
	cleaned := path.Clean(strings.TrimSpace(raw))
	if cleaned == "." || cleaned == "" {
		return nil
	}
	return &cleaned
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func countOrDefault(s string) int {
	if s == "" {
		return 1
	}
	return mustAtoi(s)
}
