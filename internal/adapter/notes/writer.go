package notes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/akhmerov/prereview/internal/domain"
)

// SeedHeader opens generated notes files. The reader skips it like any
// other comment line.
const SeedHeader = "# prereview notes format v1"

// SeedRecords flattens an annotations document into note records: one per
// overview entry, per file summary, and per anchor note, in document
// order.
func SeedRecords(doc *domain.Annotations) []domain.NoteRecord {
	var records []domain.NoteRecord
	for _, text := range doc.Overview {
		records = append(records, domain.NoteRecord{Type: domain.NoteTypeOverview, Text: text})
	}
	for _, file := range doc.Files {
		if file.Summary != "" {
			records = append(records, domain.NoteRecord{
				Type:    domain.NoteTypeFileSummary,
				Path:    file.Path,
				Summary: file.Summary,
			})
		}
		for _, note := range file.Anchors {
			records = append(records, domain.NoteRecord{
				Type:          domain.NoteTypeAnchorNote,
				AnchorID:      note.AnchorID,
				Title:         note.Title,
				WhatChanged:   note.WhatChanged,
				WhyChanged:    note.WhyChanged,
				ReviewerFocus: note.ReviewerFocus,
				Risk:          note.Risk,
				Severity:      string(note.Severity),
			})
		}
	}
	return records
}

// Write emits records as JSONL behind the seed header.
func Write(w io.Writer, records []domain.NoteRecord) error {
	if _, err := io.WriteString(w, SeedHeader+"\n"); err != nil {
		return err
	}
	for _, record := range records {
		encoded, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode note record: %w", err)
		}
		encoded = append(encoded, '\n')
		if _, err := w.Write(encoded); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes a seed notes file for an annotations document.
func WriteFile(path string, doc *domain.Annotations) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create notes file: %w", err)
	}
	defer file.Close()

	return Write(file, SeedRecords(doc))
}

// Rewrite removes rejected lines from a notes file, keeping every other
// line byte for byte, comments included. Nothing happens when there are
// no rejections or the file is missing.
func Rewrite(path string, rejected []domain.RejectedNote) error {
	if len(rejected) == 0 {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read notes file: %w", err)
	}

	drop := make(map[int]bool, len(rejected))
	for _, r := range rejected {
		drop[r.Line] = true
	}

	var kept []string
	for i, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if drop[i+1] {
			continue
		}
		kept = append(kept, line)
	}

	output := strings.Join(kept, "\n")
	if output != "" {
		output += "\n"
	}
	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return fmt.Errorf("rewrite notes file: %w", err)
	}
	return nil
}

// WriteRejected writes the rejected-notes sidecar, one JSON object per
// line. When nothing was rejected a stale sidecar is removed instead.
func WriteRejected(path string, rejected []domain.RejectedNote) error {
	if len(rejected) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove rejected notes: %w", err)
		}
		return nil
	}

	var buf bytes.Buffer
	for _, record := range rejected {
		encoded, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode rejected note: %w", err)
		}
		buf.Write(encoded)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write rejected notes: %w", err)
	}
	return nil
}
