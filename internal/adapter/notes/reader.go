// Package notes reads and writes the JSONL review-notes stream and its
// rejected-notes sidecar.
package notes

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/akhmerov/prereview/internal/domain"
)

// maxLineBytes caps a single notes line. Reviewer notes are prose; a line
// beyond this is corrupt input, not a long note.
const maxLineBytes = 4 * 1024 * 1024

// Read scans a JSONL notes stream. Line numbers are 1-based over the
// physical stream so rejections point at the real line; comment (#) and
// blank lines are skipped but still counted. Lines that do not decode to
// a JSON object are rejected individually and never stop the scan.
func Read(r io.Reader) ([]domain.NoteLine, []domain.RejectedNote, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var lines []domain.NoteLine
	var rejected []domain.RejectedNote

	number := 0
	for scanner.Scan() {
		number++
		raw := scanner.Text()
		stripped := strings.TrimSpace(raw)
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}

		var decoded any
		if err := json.Unmarshal([]byte(stripped), &decoded); err != nil {
			rejected = append(rejected, domain.RejectedNote{
				Line:    number,
				Code:    "invalid_jsonl",
				Message: fmt.Sprintf("invalid JSON: %v", err),
				Raw:     raw,
			})
			continue
		}
		fields, ok := decoded.(map[string]any)
		if !ok {
			rejected = append(rejected, domain.RejectedNote{
				Line:    number,
				Code:    "record_type",
				Message: "record must be a JSON object",
				Record:  json.RawMessage(stripped),
			})
			continue
		}

		lines = append(lines, domain.NoteLine{Number: number, Raw: stripped, Fields: fields})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan notes: %w", err)
	}

	return lines, rejected, nil
}

// ReadFile reads a notes file. A missing file is an empty stream, not an
// error: a review may legitimately have no notes yet.
func ReadFile(path string) ([]domain.NoteLine, []domain.RejectedNote, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("open notes file: %w", err)
	}
	defer file.Close()

	return Read(file)
}
