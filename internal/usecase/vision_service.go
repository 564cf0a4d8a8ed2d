package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/gameshelf/backend/internal/domain"
	"github.com/gameshelf/backend/internal/logger"
)

// dataURLPrefix matches the "data:image/<type>;base64," header of a data URL
var dataURLPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// VisionService turns shelf photos into detected title regions
type VisionService struct {
	annotator domain.TextAnnotator
}

// NewVisionService creates a new vision service
func NewVisionService(annotator domain.TextAnnotator) *VisionService {
	return &VisionService{annotator: annotator}
}

// AnalyzeImage runs text detection and returns one DetectedGame per text region.
// The provider's first annotation is the whole-image text and is skipped.
func (s *VisionService) AnalyzeImage(ctx context.Context, image string) ([]domain.DetectedGame, error) {
	content, err := normalizeImage(image)
	if err != nil {
		return nil, err
	}

	annotations, err := s.annotator.DetectText(ctx, content)
	if err != nil {
		logger.Component("vision").Error().Err(err).Msg("text detection failed")
		return nil, fmt.Errorf("detect text: %w", err)
	}

	detected := make([]domain.DetectedGame, 0, len(annotations))
	if len(annotations) <= 1 {
		return detected, nil
	}

	for _, ann := range annotations[1:] {
		if ann.Description == "" || len(ann.Vertices) == 0 {
			continue
		}
		detected = append(detected, domain.DetectedGame{
			Title:       ann.Description,
			Confidence:  domain.PlaceholderConfidence,
			BoundingBox: boundingBox(ann.Vertices),
		})
	}

	logger.Component("vision").Debug().Int("regions", len(detected)).Msg("image analyzed")
	return detected, nil
}

// normalizeImage strips a data URL header and checks the payload is base64
func normalizeImage(image string) (string, error) {
	content := dataURLPrefix.ReplaceAllString(strings.TrimSpace(image), "")
	if content == "" {
		return "", domain.ErrInvalidImage
	}
	if _, err := base64.StdEncoding.DecodeString(content); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	return content, nil
}

// boundingBox is the axis-aligned rectangle around a polygon
func boundingBox(vertices []domain.Vertex) *domain.BoundingBox {
	minX, minY := vertices[0].X, vertices[0].Y
	maxX, maxY := minX, minY
	for _, v := range vertices[1:] {
		minX = min(minX, v.X)
		minY = min(minY, v.Y)
		maxX = max(maxX, v.X)
		maxY = max(maxY, v.Y)
	}
	return &domain.BoundingBox{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}
