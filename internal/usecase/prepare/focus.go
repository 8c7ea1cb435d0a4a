package prepare

import (
	"fmt"
	"strings"

	"github.com/akhmerov/prereview/internal/domain"
)

const (
	maxFocusSnippets = 3
	excerptLimit     = 88
)

// focusPrefixes mark added lines worth surfacing first: declarations and
// control flow carry more review signal than plain statements.
var focusPrefixes = []string{
	"def ", "class ", "if ", "for ", "while ", "with ",
	"return", "raise", "try:", "except",
}

// riskTokens map textual markers in added lines to a short reason shown as
// the anchor's risk hint. First match wins, in this order.
var riskTokens = []struct {
	token  string
	reason string
}{
	{"subprocess", "external command execution"},
	{"check=False", "subprocess failures are not propagated"},
	{"shell=True", "shell interpolation of command strings"},
	{"re.compile(", "regular expression behavior change"},
	{"exclude_path", "path filtering semantics"},
	{"strict", "strictness toggle affects outcomes"},
	{"raise ", "error handling path changed"},
	{"except ", "exception handling path changed"},
}

func anchorTitle(filePath string, index int) string {
	return fmt.Sprintf("%s change focus %d", filePath, index+1)
}

// focusSnippets picks up to three added-line excerpts from the hunk:
// prefix-matched lines first, then assignments, with the first non-empty
// addition as a last resort.
func focusSnippets(hunk domain.Hunk) []string {
	var added []string
	for _, line := range hunk.Lines {
		if line.Kind == domain.LineAdded {
			added = append(added, line.Content)
		}
	}

	snippets := make([]string, 0, maxFocusSnippets)
	used := make(map[int]bool, len(added))
	for pass := 0; pass < 2 && len(snippets) < maxFocusSnippets; pass++ {
		for i, content := range added {
			if len(snippets) == maxFocusSnippets {
				break
			}
			if used[i] {
				continue
			}
			trimmed := strings.TrimSpace(content)
			var match bool
			switch pass {
			case 0:
				match = hasFocusPrefix(trimmed)
			case 1:
				match = strings.Contains(trimmed, "=") && !strings.HasPrefix(trimmed, "#")
			}
			if match {
				used[i] = true
				snippets = append(snippets, lineExcerpt(content))
			}
		}
	}

	if len(snippets) == 0 {
		for _, content := range added {
			if strings.TrimSpace(content) != "" {
				snippets = append(snippets, lineExcerpt(content))
				break
			}
		}
	}

	return snippets
}

func hasFocusPrefix(trimmed string) bool {
	for _, prefix := range focusPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// riskHint scans the hunk's added lines for the first risk token and
// returns its reason, or "" when nothing matches.
func riskHint(hunk domain.Hunk) string {
	for _, line := range hunk.Lines {
		if line.Kind != domain.LineAdded {
			continue
		}
		for _, entry := range riskTokens {
			if strings.Contains(line.Content, entry.token) {
				return entry.reason
			}
		}
	}
	return ""
}

// lineExcerpt compacts interior whitespace and truncates long lines so
// snippets stay one-line friendly.
func lineExcerpt(content string) string {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return "<empty>"
	}
	compacted := strings.Join(fields, " ")
	runes := []rune(compacted)
	if len(runes) <= excerptLimit {
		return compacted
	}
	return string(runes[:excerptLimit]) + "…"
}
