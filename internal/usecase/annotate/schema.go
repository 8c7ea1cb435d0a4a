package annotate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/akhmerov/prereview/internal/domain"
)

// maxOverviewLines is the soft cap on overview entries; beyond it the
// document draws an overview_length warning.
const maxOverviewLines = 8

// ValidateSchema checks a raw annotations document against the version-2
// schema. It returns every issue found, in document order, plus the typed
// document when the raw bytes also decode cleanly into one. A non-object
// root is terminal.
func ValidateSchema(raw []byte) ([]domain.Issue, *domain.Annotations) {
	issues := []domain.Issue{}

	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		issues = append(issues, errIssue("root_type", "annotations document is not valid JSON", "$"))
		return issues, nil
	}
	doc, ok := root.(map[string]any)
	if !ok {
		issues = append(issues, errIssue("root_type", "annotations document must be a JSON object", "$"))
		return issues, nil
	}

	if version, ok := doc["version"].(string); !ok || version != domain.AnnotationsVersion {
		issues = append(issues, errIssue("bad_version",
			fmt.Sprintf("annotations version must be %q", domain.AnnotationsVersion), "$.version"))
	}
	if rawTarget, present := doc["target_context_id"]; !present {
		issues = append(issues, errIssue("missing_target", "target_context_id is required", "$.target_context_id"))
	} else if target, ok := rawTarget.(string); !ok {
		issues = append(issues, errIssue("context_type", "target_context_id must be a string", "$.target_context_id"))
	} else if strings.TrimSpace(target) == "" {
		issues = append(issues, errIssue("missing_target", "target_context_id is required", "$.target_context_id"))
	}

	issues = append(issues, validateOverview(doc)...)
	issues = append(issues, validateFiles(doc)...)

	var annotations domain.Annotations
	if err := json.Unmarshal(raw, &annotations); err != nil {
		return issues, nil
	}
	return issues, &annotations
}

func validateOverview(doc map[string]any) []domain.Issue {
	var issues []domain.Issue
	rawOverview, present := doc["overview"]
	if !present {
		return nil
	}
	entries, ok := rawOverview.([]any)
	if !ok {
		return append(issues, errIssue("overview_type", "overview must be an array of strings", "$.overview"))
	}
	for i, entry := range entries {
		value, ok := entry.(string)
		if !ok {
			issues = append(issues, errIssue("overview_type", "overview entries must be strings",
				fmt.Sprintf("$.overview[%d]", i)))
			continue
		}
		if strings.TrimSpace(value) == "" {
			issues = append(issues, errIssue("overview_text", "overview entries must not be blank",
				fmt.Sprintf("$.overview[%d]", i)))
		}
	}
	if len(entries) > maxOverviewLines {
		issues = append(issues, warnIssue("overview_length",
			fmt.Sprintf("overview has %d entries; keep it to %d or fewer", len(entries), maxOverviewLines),
			"$.overview"))
	}
	return issues
}

func validateFiles(doc map[string]any) []domain.Issue {
	var issues []domain.Issue
	rawFiles, present := doc["files"]
	if !present {
		return nil
	}
	files, ok := rawFiles.([]any)
	if !ok {
		return append(issues, errIssue("file_summaries_type", "files must be an array", "$.files"))
	}

	seenAnchors := make(map[string]bool)
	for i, rawFile := range files {
		issues = append(issues, validateFileEntry(rawFile, i, seenAnchors)...)
	}
	return issues
}

func validateFileEntry(rawFile any, index int, seenAnchors map[string]bool) []domain.Issue {
	location := fmt.Sprintf("$.files[%d]", index)
	file, ok := rawFile.(map[string]any)
	if !ok {
		return []domain.Issue{errIssue("file_summary_type", "files entries must be objects", location)}
	}

	var issues []domain.Issue
	if p, ok := file["path"].(string); !ok || strings.TrimSpace(p) == "" {
		issues = append(issues, errIssue("file_summary_path", "files entries require a non-empty path", location+".path"))
	}
	if rawSummary, present := file["summary"]; present {
		if _, ok := rawSummary.(string); !ok {
			issues = append(issues, errIssue("file_summary_text", "summary must be a string", location+".summary"))
		}
	}

	rawAnchors, present := file["anchors"]
	if !present {
		return issues
	}
	anchors, ok := rawAnchors.([]any)
	if !ok {
		return append(issues, errIssue("anchors_type", "anchors must be an array", location+".anchors"))
	}
	for j, rawAnchor := range anchors {
		issues = append(issues, validateAnchorEntry(rawAnchor, index, j, seenAnchors)...)
	}
	return issues
}

func validateAnchorEntry(rawAnchor any, fileIndex, anchorIndex int, seenAnchors map[string]bool) []domain.Issue {
	location := fmt.Sprintf("$.files[%d].anchors[%d]", fileIndex, anchorIndex)
	anchor, ok := rawAnchor.(map[string]any)
	if !ok {
		return []domain.Issue{errIssue("anchor_type", "anchors entries must be objects", location)}
	}

	var issues []domain.Issue
	id, idOK := anchor["anchor_id"].(string)
	switch {
	case !idOK || strings.TrimSpace(id) == "":
		issues = append(issues, errIssue("anchor_id", "anchor entries require a non-empty anchor_id", location+".anchor_id"))
	case seenAnchors[id]:
		issues = append(issues, errIssue("duplicate_anchor_id",
			fmt.Sprintf("anchor_id %s is annotated more than once", id), location+".anchor_id"))
	default:
		seenAnchors[id] = true
	}

	for _, field := range []string{"what_changed", "why_changed"} {
		if value, ok := anchor[field].(string); !ok || strings.TrimSpace(value) == "" {
			issues = append(issues, errIssue(field,
				fmt.Sprintf("anchor entries require a non-empty %s", field), location+"."+field))
		}
	}

	optional := []struct{ field, code string }{
		{"title", "title_type"},
		{"reviewer_focus", "reviewer_focus_type"},
		{"risk", "risk_type"},
	}
	for _, opt := range optional {
		if value, present := anchor[opt.field]; present {
			if _, ok := value.(string); !ok {
				issues = append(issues, errIssue(opt.code, opt.field+" must be a string", location+"."+opt.field))
			}
		}
	}

	if value, present := anchor["severity"]; present {
		severity, ok := value.(string)
		if !ok {
			issues = append(issues, errIssue("bad_severity", "severity must be a string", location+".severity"))
		} else if _, valid := domain.ParseSeverity(severity); !valid {
			issues = append(issues, errIssue("bad_severity",
				fmt.Sprintf("severity %q is not one of info, note, warning, risk", severity), location+".severity"))
		}
	}

	return issues
}

func errIssue(code, message, location string) domain.Issue {
	return domain.Issue{Level: domain.IssueError, Code: code, Message: message, Location: location}
}

func warnIssue(code, message, location string) domain.Issue {
	return domain.Issue{Level: domain.IssueWarning, Code: code, Message: message, Location: location}
}
