package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/gameshelf/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockTextAnnotator is a mock implementation of domain.TextAnnotator
type MockTextAnnotator struct {
	annotations []domain.TextAnnotation
	err         error
	lastContent string
	calls       int
}

func (m *MockTextAnnotator) DetectText(ctx context.Context, content string) ([]domain.TextAnnotation, error) {
	m.calls++
	m.lastContent = content
	if m.err != nil {
		return nil, m.err
	}
	return m.annotations, nil
}

func square(x, y, w, h int) []domain.Vertex {
	return []domain.Vertex{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}
}

func TestAnalyzeImage_SkipsFullTextAnnotation(t *testing.T) {
	annotator := &MockTextAnnotator{annotations: []domain.TextAnnotation{
		{Description: "CATAN\nTicket to Ride", Vertices: square(0, 0, 500, 400)},
		{Description: "CATAN", Vertices: square(10, 10, 50, 20)},
		{Description: "Ticket to Ride", Vertices: square(10, 100, 80, 20)},
	}}
	service := NewVisionService(annotator)

	detected, err := service.AnalyzeImage(context.Background(), "aGVsbG8=")

	require.NoError(t, err)
	require.Len(t, detected, 2)
	assert.Equal(t, "CATAN", detected[0].Title)
	assert.Equal(t, "Ticket to Ride", detected[1].Title)
	assert.Equal(t, domain.PlaceholderConfidence, detected[0].Confidence)
}

func TestAnalyzeImage_BoundingBox(t *testing.T) {
	annotator := &MockTextAnnotator{annotations: []domain.TextAnnotation{
		{Description: "all"},
		{Description: "Azul", Vertices: []domain.Vertex{{X: 1, Y: 2}, {X: 5, Y: 2}, {X: 5, Y: 8}, {X: 1, Y: 8}}},
	}}
	service := NewVisionService(annotator)

	detected, err := service.AnalyzeImage(context.Background(), "aGVsbG8=")

	require.NoError(t, err)
	require.Len(t, detected, 1)
	assert.Equal(t, &domain.BoundingBox{X: 1, Y: 2, Width: 4, Height: 6}, detected[0].BoundingBox)
}

func TestAnalyzeImage_SkipsEmptyRegions(t *testing.T) {
	annotator := &MockTextAnnotator{annotations: []domain.TextAnnotation{
		{Description: "all"},
		{Description: "No polygon"},
		{Description: "", Vertices: square(0, 0, 1, 1)},
		{Description: "Wingspan", Vertices: square(3, 3, 10, 10)},
	}}
	service := NewVisionService(annotator)

	detected, err := service.AnalyzeImage(context.Background(), "aGVsbG8=")

	require.NoError(t, err)
	require.Len(t, detected, 1)
	assert.Equal(t, "Wingspan", detected[0].Title)
}

func TestAnalyzeImage_KeepsDescriptionVerbatim(t *testing.T) {
	annotator := &MockTextAnnotator{annotations: []domain.TextAnnotation{
		{Description: "all"},
		{Description: " Ticket to Ride ", Vertices: square(0, 0, 1, 1)},
		{Description: "   ", Vertices: square(3, 3, 10, 10)},
	}}
	service := NewVisionService(annotator)

	detected, err := service.AnalyzeImage(context.Background(), "aGVsbG8=")

	require.NoError(t, err)
	require.Len(t, detected, 2)
	assert.Equal(t, " Ticket to Ride ", detected[0].Title)
	assert.Equal(t, "   ", detected[1].Title)
}

func TestAnalyzeImage_NoText(t *testing.T) {
	service := NewVisionService(&MockTextAnnotator{})

	detected, err := service.AnalyzeImage(context.Background(), "aGVsbG8=")

	require.NoError(t, err)
	assert.NotNil(t, detected)
	assert.Empty(t, detected)
}

func TestAnalyzeImage_StripsDataURLPrefix(t *testing.T) {
	annotator := &MockTextAnnotator{}
	service := NewVisionService(annotator)

	_, err := service.AnalyzeImage(context.Background(), "data:image/jpeg;base64,aGVsbG8=")

	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", annotator.lastContent)
}

func TestAnalyzeImage_InvalidPayload(t *testing.T) {
	tests := []struct {
		name  string
		image string
	}{
		{"empty", ""},
		{"prefix only", "data:image/png;base64,"},
		{"not base64", "this is not base64!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			annotator := &MockTextAnnotator{}
			service := NewVisionService(annotator)

			detected, err := service.AnalyzeImage(context.Background(), tt.image)

			assert.Nil(t, detected)
			assert.ErrorIs(t, err, domain.ErrInvalidImage)
			assert.Equal(t, 0, annotator.calls)
		})
	}
}

func TestAnalyzeImage_ProviderFailure(t *testing.T) {
	annotator := &MockTextAnnotator{err: &domain.UpstreamError{Provider: "vision", StatusCode: 403}}
	service := NewVisionService(annotator)

	detected, err := service.AnalyzeImage(context.Background(), "aGVsbG8=")

	assert.Nil(t, detected)
	assert.True(t, errors.Is(err, domain.ErrUpstreamFailure))
}
