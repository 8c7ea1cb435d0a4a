package domain

// Issue levels. Strict mode promotes every warning to an error before the
// report's validity is decided; nothing else distinguishes the modes.
const (
	IssueError   = "error"
	IssueWarning = "warning"
)

// Issue is one validation finding. Location is a $-rooted path into the
// annotations document, e.g. $.files[2].anchors[0].severity.
type Issue struct {
	Level    string `json:"level"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Location string `json:"location"`
}

// ReportStats summarizes how the annotations mapped onto the context.
type ReportStats struct {
	MappedAnchors        int `json:"mapped_anchors"`
	UnmappedAnchors      int `json:"unmapped_anchors"`
	FilesWithAnnotations int `json:"files_with_annotations"`
}

// Report is the outcome of evaluating an annotations document.
type Report struct {
	Valid  bool        `json:"valid"`
	Issues []Issue     `json:"issues"`
	Stats  ReportStats `json:"stats"`
}

// Counts tallies issues per level.
func (r Report) Counts() (errors, warnings int) {
	for _, issue := range r.Issues {
		switch issue.Level {
		case IssueError:
			errors++
		case IssueWarning:
			warnings++
		}
	}
	return errors, warnings
}
