// Package text renders the review-input briefing: the plain-text document
// that tells whoever writes the notes file what the context contains and how
// to record notes against it.
package text

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/akhmerov/prereview/internal/domain"
)

// Renderer builds review-input briefings from a context document.
type Renderer struct{}

// NewRenderer constructs a briefing renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render produces the briefing text. notesFile is shown verbatim so the
// reader knows which file their JSON Lines notes belong in.
func (r *Renderer) Render(reviewContext domain.ReviewContext, notesFile string) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	builder.WriteString("# Review Input\n\n")
	builder.WriteString(fmt.Sprintf("- Context: %s\n", reviewContext.ContextID))
	builder.WriteString(fmt.Sprintf("- Diff fingerprint: %s\n", reviewContext.DiffFingerprint))
	builder.WriteString(fmt.Sprintf("- Changes: %d file(s), +%d / -%d\n",
		reviewContext.Stats.FilesChanged, reviewContext.Stats.Additions, reviewContext.Stats.Deletions))
	builder.WriteString(fmt.Sprintf("- Notes file: %s\n\n", notesFile))

	builder.WriteString("Record your review as JSON Lines in the notes file, one object per line.\n")
	builder.WriteString("Supported records: overview (text), file_summary (path, summary), and\n")
	builder.WriteString("anchor_note (anchor_id, what_changed, why_changed, plus optional title,\n")
	builder.WriteString("reviewer_focus, risk, and severity: info, note, warning, or risk).\n")

	for _, file := range reviewContext.Files {
		builder.WriteString(fmt.Sprintf("\n## %s (%s)\n", file.Path, caser.String(string(file.Status))))
		if len(file.Anchors) == 0 {
			builder.WriteString("\nNo review anchors.\n")
			continue
		}
		for _, anchor := range file.Anchors {
			builder.WriteString(fmt.Sprintf("\n- Anchor %s\n", anchor.AnchorID))
			builder.WriteString(fmt.Sprintf("  Title: %s\n", anchor.Title))
			for _, snippet := range anchor.FocusSnippets {
				builder.WriteString(fmt.Sprintf("    > %s\n", snippet))
			}
			if anchor.RiskHint != "" {
				builder.WriteString(fmt.Sprintf("  Risk hint: %s\n", anchor.RiskHint))
			}
		}
	}

	return builder.String()
}
