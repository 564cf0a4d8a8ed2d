package vision

import (
	"context"

	"github.com/gameshelf/backend/internal/domain"
)

// StubAnnotator answers every request with a fixed detection. It is wired in
// development when no Vision credentials are configured.
type StubAnnotator struct {
	Title string
}

// NewStubAnnotator returns a stub that always detects "Catan"
func NewStubAnnotator() *StubAnnotator {
	return &StubAnnotator{Title: "Catan"}
}

// DetectText returns a full-text block followed by one title region
func (s *StubAnnotator) DetectText(_ context.Context, _ string) ([]domain.TextAnnotation, error) {
	box := []domain.Vertex{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 40}, {X: 0, Y: 40}}
	return []domain.TextAnnotation{
		{Description: s.Title, Vertices: box},
		{Description: s.Title, Vertices: box},
	}, nil
}
