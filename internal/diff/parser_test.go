package diff_test

import (
	"strings"
	"testing"

	"github.com/akhmerov/prereview/internal/diff"
	"github.com/akhmerov/prereview/internal/domain"
)

const samplePatch = `diff --git a/src/demo.py b/src/demo.py
index 1111111..2222222 100644
--- a/src/demo.py
+++ b/src/demo.py
@@ -1,4 +1,5 @@ def greet():
 def greet():
-    return "hi"
+    msg = "hello"
+    return msg

 print(greet())
`

func TestParse_SinglePatch(t *testing.T) {
	files, err := diff.Parse(samplePatch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}

	file := files[0]
	if file.Path() != "src/demo.py" {
		t.Errorf("expected path src/demo.py, got %s", file.Path())
	}
	if file.Status != domain.FileStatusModified {
		t.Errorf("expected modified status, got %s", file.Status)
	}
	if len(file.Hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(file.Hunks))
	}

	hunk := file.Hunks[0]
	if hunk.OldStart != 1 || hunk.OldCount != 4 || hunk.NewStart != 1 || hunk.NewCount != 5 {
		t.Errorf("unexpected hunk ranges: -%d,%d +%d,%d",
			hunk.OldStart, hunk.OldCount, hunk.NewStart, hunk.NewCount)
	}
	if hunk.Trailer != "def greet():" {
		t.Errorf("expected trailer preserved, got %q", hunk.Trailer)
	}
	if len(hunk.Lines) != 6 {
		t.Fatalf("expected 6 body lines, got %d", len(hunk.Lines))
	}
	if hunk.ID == "" || hunk.StableID == "" || hunk.AnchorID == "" {
		t.Error("expected all hunk identities to be set")
	}
}

func TestParse_LineNumbering(t *testing.T) {
	files, err := diff.Parse(samplePatch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	lines := files[0].Hunks[0].Lines

	first := lines[0]
	if first.Kind != domain.LineContext || *first.OldLine != 1 || *first.NewLine != 1 {
		t.Errorf("unexpected first line: %+v", first)
	}

	removed := lines[1]
	if removed.Kind != domain.LineRemoved {
		t.Fatalf("expected removal at index 1, got %s", removed.Kind)
	}
	if removed.NewLine != nil {
		t.Error("removals must not carry a new-side line number")
	}
	if *removed.OldLine != 2 {
		t.Errorf("expected old line 2, got %d", *removed.OldLine)
	}

	added := lines[2]
	if added.Kind != domain.LineAdded {
		t.Fatalf("expected addition at index 2, got %s", added.Kind)
	}
	if added.OldLine != nil {
		t.Error("additions must not carry an old-side line number")
	}
	if *added.NewLine != 2 {
		t.Errorf("expected new line 2, got %d", *added.NewLine)
	}
	if added.ID == "" {
		t.Error("expected line identity to be set")
	}

	last := lines[5]
	if *last.OldLine != 4 || *last.NewLine != 5 {
		t.Errorf("unexpected trailing context numbering: old=%d new=%d", *last.OldLine, *last.NewLine)
	}
}

func TestParse_DeterministicIdentities(t *testing.T) {
	first, err := diff.Parse(samplePatch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	second, err := diff.Parse(samplePatch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	a, b := first[0].Hunks[0], second[0].Hunks[0]
	if a.ID != b.ID || a.StableID != b.StableID || a.AnchorID != b.AnchorID {
		t.Fatal("reparsing identical text must yield identical hunk identities")
	}
	for i := range a.Lines {
		if a.Lines[i].ID != b.Lines[i].ID {
			t.Fatalf("line %d identity drifted across parses", i)
		}
	}
}

func TestParse_StableIDSurvivesHeaderShift(t *testing.T) {
	shifted := strings.Replace(samplePatch, "@@ -1,4 +1,5 @@", "@@ -11,4 +11,5 @@", 1)

	base, err := diff.Parse(samplePatch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	moved, err := diff.Parse(shifted)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	orig, next := base[0].Hunks[0], moved[0].Hunks[0]
	if orig.ID == next.ID {
		t.Error("positional hunk ID must change when the header shifts")
	}
	if orig.StableID != next.StableID {
		t.Error("stable hunk ID must survive a header shift")
	}
	if orig.AnchorID != next.AnchorID {
		t.Error("anchor ID must survive a header shift")
	}
}

func TestParse_DuplicateHunksGetDistinctStableIDs(t *testing.T) {
	patch := `diff --git a/notes.txt b/notes.txt
--- a/notes.txt
+++ b/notes.txt
@@ -1,1 +1,2 @@
 top
+repeated line
@@ -10,1 +11,2 @@
 top
+repeated line
`
	files, err := diff.Parse(patch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	hunks := files[0].Hunks
	if len(hunks) != 2 {
		t.Fatalf("expected 2 hunks, got %d", len(hunks))
	}
	if hunks[0].ContentKey() != hunks[1].ContentKey() {
		t.Fatal("test expects identical hunk content")
	}
	if hunks[0].StableID == hunks[1].StableID {
		t.Error("equal-content hunks must receive distinct stable IDs")
	}
	if hunks[0].AnchorID == hunks[1].AnchorID {
		t.Error("equal-content hunks must receive distinct anchor IDs")
	}
}

func TestParse_MnemonicAndNoIndexPrefixes(t *testing.T) {
	patch := `diff --git w/src/demo.py w/src/demo.py
--- w/src/demo.py
+++ w/src/demo.py
@@ -1,1 +1,1 @@
-old
+new
diff --git 1/./notes.txt 2/./notes.txt
--- 1/./notes.txt
+++ 2/./notes.txt
@@ -1,1 +1,1 @@
-a
+b
`
	files, err := diff.Parse(patch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].Path() != "src/demo.py" {
		t.Errorf("expected mnemonic prefix stripped, got %s", files[0].Path())
	}
	if files[1].Path() != "notes.txt" {
		t.Errorf("expected numeric prefix and ./ segment stripped, got %s", files[1].Path())
	}
}

func TestParse_QuotedPaths(t *testing.T) {
	patch := "diff --git \"a/dir/sp ace.txt\" \"b/dir/sp ace.txt\"\n" +
		"--- \"a/dir/sp ace.txt\"\n" +
		"+++ \"b/dir/sp ace.txt\"\n" +
		"@@ -1,1 +1,1 @@\n" +
		"-x\n" +
		"+y\n"

	files, err := diff.Parse(patch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if files[0].Path() != "dir/sp ace.txt" {
		t.Errorf("expected quoted path unwrapped, got %q", files[0].Path())
	}
}

func TestParse_NewFile(t *testing.T) {
	patch := `diff --git a/added.go b/added.go
new file mode 100644
--- /dev/null
+++ b/added.go
@@ -0,0 +1,2 @@
+package main
+
`
	files, err := diff.Parse(patch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	file := files[0]
	if file.Status != domain.FileStatusAdded {
		t.Errorf("expected added status, got %s", file.Status)
	}
	if file.OldPath != nil {
		t.Error("expected nil old path for /dev/null")
	}
	if file.Path() != "added.go" {
		t.Errorf("unexpected path %s", file.Path())
	}
}

func TestParse_DeletedFile(t *testing.T) {
	patch := `diff --git a/gone.go b/gone.go
deleted file mode 100644
--- a/gone.go
+++ /dev/null
@@ -1,1 +0,0 @@
-package gone
`
	files, err := diff.Parse(patch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	file := files[0]
	if file.Status != domain.FileStatusDeleted {
		t.Errorf("expected deleted status, got %s", file.Status)
	}
	if file.NewPath != nil {
		t.Error("expected nil new path for /dev/null")
	}
	if file.Path() != "gone.go" {
		t.Errorf("deleted files must keep the old path, got %s", file.Path())
	}
}

func TestParse_Rename(t *testing.T) {
	patch := `diff --git a/old/name.go b/new/name.go
similarity index 95%
rename from old/name.go
rename to new/name.go
--- a/old/name.go
+++ b/new/name.go
@@ -3,1 +3,1 @@
-a
+b
`
	files, err := diff.Parse(patch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	file := files[0]
	if file.Status != domain.FileStatusRenamed {
		t.Errorf("expected renamed status, got %s", file.Status)
	}
	if *file.OldPath != "old/name.go" || *file.NewPath != "new/name.go" {
		t.Errorf("unexpected rename paths: %v -> %v", *file.OldPath, *file.NewPath)
	}
	if file.Path() != "new/name.go" {
		t.Errorf("canonical path must be the new side, got %s", file.Path())
	}
}

func TestParse_BinaryFile(t *testing.T) {
	patch := `diff --git a/logo.png b/logo.png
index 1111111..2222222 100644
Binary files a/logo.png and b/logo.png differ
`
	files, err := diff.Parse(patch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	file := files[0]
	if file.Status != domain.FileStatusBinary {
		t.Errorf("expected binary status, got %s", file.Status)
	}
	if len(file.Hunks) != 0 {
		t.Errorf("binary files carry no hunks, got %d", len(file.Hunks))
	}
}

func TestParse_SkipsNoNewlineMarker(t *testing.T) {
	patch := `diff --git a/f.txt b/f.txt
--- a/f.txt
+++ b/f.txt
@@ -1,1 +1,1 @@
-old
+new
\ No newline at end of file
`
	files, err := diff.Parse(patch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	lines := files[0].Hunks[0].Lines
	if len(lines) != 2 {
		t.Fatalf("expected marker to be skipped, got %d lines", len(lines))
	}
}

func TestParse_BlankContextLinesStayInHunk(t *testing.T) {
	// Some tools strip trailing whitespace, turning " " context lines
	// into fully empty ones. They still belong to the hunk body.
	patch := `diff --git a/f.txt b/f.txt
--- a/f.txt
+++ b/f.txt
@@ -1,3 +1,3 @@
 first

-old
+new
`
	files, err := diff.Parse(patch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	lines := files[0].Hunks[0].Lines
	if len(lines) != 4 {
		t.Fatalf("expected 4 body lines, got %d", len(lines))
	}
	blank := lines[1]
	if blank.Kind != domain.LineContext || blank.Content != "" {
		t.Fatalf("expected an empty context line, got %+v", blank)
	}
	if *blank.OldLine != 2 || *blank.NewLine != 2 {
		t.Errorf("blank context must advance both counters, got old=%d new=%d",
			*blank.OldLine, *blank.NewLine)
	}
	removed := lines[2]
	if removed.Kind != domain.LineRemoved || *removed.OldLine != 3 {
		t.Errorf("numbering after blank context drifted: %+v", removed)
	}
}

func TestParse_MalformedHunkHeader(t *testing.T) {
	patch := `diff --git a/f.txt b/f.txt
--- a/f.txt
+++ b/f.txt
@@ bogus @@
`
	_, err := diff.Parse(patch)
	if err == nil {
		t.Fatal("expected malformed hunk header to fail")
	}
	if !strings.Contains(err.Error(), "line 4") {
		t.Errorf("expected the error to carry the line number, got %v", err)
	}
}

func TestParse_DefaultCounts(t *testing.T) {
	patch := `diff --git a/f.txt b/f.txt
--- a/f.txt
+++ b/f.txt
@@ -3 +3 @@
-x
+y
`
	files, err := diff.Parse(patch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	hunk := files[0].Hunks[0]
	if hunk.OldCount != 1 || hunk.NewCount != 1 {
		t.Errorf("omitted counts must default to 1, got -%d +%d", hunk.OldCount, hunk.NewCount)
	}
	if hunk.OldStart != 3 || hunk.NewStart != 3 {
		t.Errorf("unexpected starts: -%d +%d", hunk.OldStart, hunk.NewStart)
	}
}

func TestParse_IgnoresPreambleAndModeChurn(t *testing.T) {
	patch := `commit deadbeef
Author: Someone <s@example.com>

    commit message mentioning @@ tokens

diff --git a/f.txt b/f.txt
old mode 100644
new mode 100755
index 1111111..2222222
--- a/f.txt
+++ b/f.txt
@@ -1,1 +1,1 @@
-x
+y
`
	files, err := diff.Parse(patch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	if files[0].Status != domain.FileStatusModified {
		t.Errorf("mode churn must not change the status, got %s", files[0].Status)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	files, err := diff.Parse("")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %d", len(files))
	}
}

func TestParse_MultipleFilesAndHunks(t *testing.T) {
	patch := `diff --git a/a.txt b/a.txt
--- a/a.txt
+++ b/a.txt
@@ -1,2 +1,2 @@
 keep
-one
+uno
@@ -10,2 +10,3 @@
 keep
+extra
 tail
diff --git a/b.txt b/b.txt
--- a/b.txt
+++ b/b.txt
@@ -1,1 +1,1 @@
-b
+B
`
	files, err := diff.Parse(patch)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if len(files[0].Hunks) != 2 {
		t.Fatalf("expected 2 hunks in first file, got %d", len(files[0].Hunks))
	}
	second := files[0].Hunks[1]
	if *second.Lines[1].NewLine != 11 {
		t.Errorf("expected added line at new line 11, got %d", *second.Lines[1].NewLine)
	}
}
