package domain

// Severity grades an anchor annotation for the reviewer.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityNote    Severity = "note"
	SeverityWarning Severity = "warning"
	SeverityRisk    Severity = "risk"
)

// DefaultSeverity applies when a note omits the field.
const DefaultSeverity = SeverityNote

// ParseSeverity validates a raw severity value.
func ParseSeverity(raw string) (Severity, bool) {
	switch Severity(raw) {
	case SeverityInfo, SeverityNote, SeverityWarning, SeverityRisk:
		return Severity(raw), true
	default:
		return "", false
	}
}

// NeedsAttention reports whether the severity escalates the annotation to a
// line-level comment when rendering.
func (s Severity) NeedsAttention() bool {
	return s == SeverityWarning || s == SeverityRisk
}
