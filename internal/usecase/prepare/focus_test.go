package prepare

import (
	"strings"
	"testing"

	"github.com/akhmerov/prereview/internal/domain"
)

func addedLines(contents ...string) domain.Hunk {
	hunk := domain.Hunk{}
	for i, content := range contents {
		hunk.Lines = append(hunk.Lines, domain.Line{
			Kind:    domain.LineAdded,
			Content: content,
			NewLine: domain.IntPtr(i + 1),
		})
	}
	return hunk
}

func TestFocusSnippets_PrefersDeclarations(t *testing.T) {
	hunk := addedLines(
		"    x = 1",
		"def compute():",
		"    return x",
		"plain text line",
	)

	snippets := focusSnippets(hunk)
	if len(snippets) != 3 {
		t.Fatalf("expected 3 snippets, got %d: %v", len(snippets), snippets)
	}
	if snippets[0] != "def compute():" {
		t.Errorf("declarations must come first, got %q", snippets[0])
	}
	if snippets[1] != "return x" {
		t.Errorf("control flow next, got %q", snippets[1])
	}
	if snippets[2] != "x = 1" {
		t.Errorf("assignments fill remaining slots, got %q", snippets[2])
	}
}

func TestFocusSnippets_AssignmentSkipsComments(t *testing.T) {
	hunk := addedLines(
		"# threshold = 5",
		"threshold = 5",
	)

	snippets := focusSnippets(hunk)
	if len(snippets) != 1 || snippets[0] != "threshold = 5" {
		t.Fatalf("expected the non-comment assignment only, got %v", snippets)
	}
}

func TestFocusSnippets_FallbackFirstNonEmpty(t *testing.T) {
	hunk := addedLines("", "   ", "plain content")

	snippets := focusSnippets(hunk)
	if len(snippets) != 1 || snippets[0] != "plain content" {
		t.Fatalf("expected fallback to first non-empty addition, got %v", snippets)
	}
}

func TestFocusSnippets_NoAdditions(t *testing.T) {
	hunk := domain.Hunk{Lines: []domain.Line{
		{Kind: domain.LineRemoved, Content: "gone", OldLine: domain.IntPtr(1)},
	}}

	if snippets := focusSnippets(hunk); len(snippets) != 0 {
		t.Fatalf("removal-only hunks have no snippets, got %v", snippets)
	}
}

func TestLineExcerpt(t *testing.T) {
	if got := lineExcerpt("   spaced    out\tcontent  "); got != "spaced out content" {
		t.Errorf("whitespace must be compacted, got %q", got)
	}
	if got := lineExcerpt("    "); got != "<empty>" {
		t.Errorf("blank content renders as <empty>, got %q", got)
	}

	long := strings.Repeat("x", 200)
	got := lineExcerpt(long)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("long excerpts must end with an ellipsis, got %q", got)
	}
	if runeCount := len([]rune(got)); runeCount != excerptLimit+1 {
		t.Errorf("expected %d runes, got %d", excerptLimit+1, runeCount)
	}
}

func TestRiskHint(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"subprocess", "    subprocess.run(cmd)", "external command execution"},
		{"shell", "    run(cmd, shell=True)", "shell interpolation of command strings"},
		{"no check", "    run(cmd, check=False)", "subprocess failures are not propagated"},
		{"regex", "    pattern = re.compile(expr)", "regular expression behavior change"},
		{"clean line", "    total += 1", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hunk := addedLines(tc.content)
			if got := riskHint(hunk); got != tc.want {
				t.Errorf("riskHint() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRiskHint_IgnoresRemovals(t *testing.T) {
	hunk := domain.Hunk{Lines: []domain.Line{
		{Kind: domain.LineRemoved, Content: "subprocess.run(cmd)", OldLine: domain.IntPtr(1)},
	}}
	if got := riskHint(hunk); got != "" {
		t.Errorf("removed lines must not trigger hints, got %q", got)
	}
}

func TestRiskHint_FirstLineWins(t *testing.T) {
	hunk := addedLines(
		"    raise ValueError(msg)",
		"    subprocess.run(cmd)",
	)
	if got := riskHint(hunk); got != "error handling path changed" {
		t.Errorf("expected the earliest added line to win, got %q", got)
	}
}

func TestAnchorTitleNumbering(t *testing.T) {
	if got := anchorTitle("src/demo.py", 0); got != "src/demo.py change focus 1" {
		t.Errorf("unexpected title %q", got)
	}
	if got := anchorTitle("src/demo.py", 2); got != "src/demo.py change focus 3" {
		t.Errorf("unexpected title %q", got)
	}
}
