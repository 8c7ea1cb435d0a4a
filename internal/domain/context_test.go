package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/akhmerov/prereview/internal/domain"
)

func sampleContext() domain.ReviewContext {
	return domain.ReviewContext{
		Version:     domain.ContextVersion,
		GeneratedAt: "2026-08-25T10:00:00Z",
		SourceSpec: domain.SourceSpec{
			Mode:      domain.SourceModePatchFile,
			PatchFile: "change.patch",
		},
		DiffFingerprint: "f1e2d3",
		Stats:           domain.Stats{FilesChanged: 1, Additions: 2, Deletions: 1},
		Files: []domain.ContextFile{
			{
				Path:   "src/demo.py",
				Status: domain.FileStatusModified,
				Anchors: []domain.ContextAnchor{
					{AnchorID: "anchor-1", Title: "src/demo.py change focus 1", FocusSnippets: []string{"def run():"}},
				},
			},
		},
	}
}

func TestComputeContextIDDeterministic(t *testing.T) {
	ctx := sampleContext()

	first, err := domain.ComputeContextID(ctx)
	if err != nil {
		t.Fatalf("ComputeContextID: %v", err)
	}
	second, err := domain.ComputeContextID(ctx)
	if err != nil {
		t.Fatalf("ComputeContextID: %v", err)
	}
	if first != second {
		t.Fatalf("expected stable ID, got %s and %s", first, second)
	}
}

func TestComputeContextIDSurvivesSerializationCycle(t *testing.T) {
	ctx := sampleContext()
	id, err := domain.ComputeContextID(ctx)
	if err != nil {
		t.Fatalf("ComputeContextID: %v", err)
	}
	ctx.ContextID = id

	data, err := json.Marshal(ctx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded domain.ReviewContext
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	recomputed, err := domain.ComputeContextID(decoded)
	if err != nil {
		t.Fatalf("ComputeContextID: %v", err)
	}
	if recomputed != id {
		t.Fatalf("context ID drifted across a serialization cycle: %s vs %s", id, recomputed)
	}
}

func TestComputeContextIDIgnoresPresentation(t *testing.T) {
	ctx := sampleContext()
	base, err := domain.ComputeContextID(ctx)
	if err != nil {
		t.Fatalf("ComputeContextID: %v", err)
	}

	ctx.GeneratedAt = "1999-01-01T00:00:00Z"
	ctx.Files[0].Anchors[0].Title = "different title"
	ctx.Files[0].Anchors[0].FocusSnippets = nil
	ctx.Files[0].Anchors[0].RiskHint = "subprocess call"

	same, err := domain.ComputeContextID(ctx)
	if err != nil {
		t.Fatalf("ComputeContextID: %v", err)
	}
	if same != base {
		t.Fatal("presentation fields must not influence the context ID")
	}
}

func TestComputeContextIDTracksIdentityInputs(t *testing.T) {
	ctx := sampleContext()
	base, err := domain.ComputeContextID(ctx)
	if err != nil {
		t.Fatalf("ComputeContextID: %v", err)
	}

	fingerprintChanged := sampleContext()
	fingerprintChanged.DiffFingerprint = "other"
	got, err := domain.ComputeContextID(fingerprintChanged)
	if err != nil {
		t.Fatalf("ComputeContextID: %v", err)
	}
	if got == base {
		t.Fatal("fingerprint change must change the context ID")
	}

	anchorChanged := sampleContext()
	anchorChanged.Files[0].Anchors[0].AnchorID = "anchor-2"
	got, err = domain.ComputeContextID(anchorChanged)
	if err != nil {
		t.Fatalf("ComputeContextID: %v", err)
	}
	if got == base {
		t.Fatal("anchor change must change the context ID")
	}

	specChanged := sampleContext()
	specChanged.SourceSpec.GitRange = "main..feature"
	got, err = domain.ComputeContextID(specChanged)
	if err != nil {
		t.Fatalf("ComputeContextID: %v", err)
	}
	if got == base {
		t.Fatal("source spec change must change the context ID")
	}
}

func TestAnchorIDsByPath(t *testing.T) {
	ctx := sampleContext()
	index := ctx.AnchorIDsByPath()

	if !index["src/demo.py"]["anchor-1"] {
		t.Fatal("expected anchor-1 under src/demo.py")
	}
	if index["src/demo.py"]["anchor-2"] {
		t.Fatal("unexpected anchor-2 under src/demo.py")
	}
	if _, ok := index["missing.py"]; ok {
		t.Fatal("unexpected entry for unknown path")
	}
}

func TestParseSeverity(t *testing.T) {
	for _, valid := range []string{"info", "note", "warning", "risk"} {
		if _, ok := domain.ParseSeverity(valid); !ok {
			t.Errorf("expected %q to parse", valid)
		}
	}
	for _, invalid := range []string{"", "critical", "WARN", "Note"} {
		if _, ok := domain.ParseSeverity(invalid); ok {
			t.Errorf("expected %q to be rejected", invalid)
		}
	}
}

func TestSeverityNeedsAttention(t *testing.T) {
	if domain.SeverityInfo.NeedsAttention() || domain.SeverityNote.NeedsAttention() {
		t.Fatal("info and note must not escalate")
	}
	if !domain.SeverityWarning.NeedsAttention() || !domain.SeverityRisk.NeedsAttention() {
		t.Fatal("warning and risk must escalate")
	}
}

func TestReportCounts(t *testing.T) {
	report := domain.Report{Issues: []domain.Issue{
		{Level: domain.IssueError},
		{Level: domain.IssueWarning},
		{Level: domain.IssueWarning},
	}}

	errs, warns := report.Counts()
	if errs != 1 || warns != 2 {
		t.Fatalf("Counts() = (%d, %d), want (1, 2)", errs, warns)
	}
}
