package notes

import "github.com/akhmerov/prereview/internal/domain"

// IO implements file-backed notes persistence for the preview
// orchestrator by delegating to the package functions.
type IO struct{}

func (IO) ReadNotes(path string) ([]domain.NoteLine, []domain.RejectedNote, error) {
	return ReadFile(path)
}

func (IO) SeedNotes(path string, doc *domain.Annotations) error {
	return WriteFile(path, doc)
}

func (IO) RewriteNotes(path string, rejected []domain.RejectedNote) error {
	return Rewrite(path, rejected)
}

func (IO) WriteRejected(path string, rejected []domain.RejectedNote) error {
	return WriteRejected(path, rejected)
}
