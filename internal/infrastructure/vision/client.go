package vision

import (
	"context"
	"errors"
	"fmt"

	"github.com/gameshelf/backend/internal/domain"
	"github.com/gameshelf/backend/internal/logger"
	"github.com/gameshelf/backend/internal/metrics"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	visionapi "google.golang.org/api/vision/v1"
)

const (
	providerName      = "vision"
	featureTextDetect = "TEXT_DETECTION"
)

// Config holds Cloud Vision client settings
type Config struct {
	CredentialsJSON string
	ProjectID       string
	Endpoint        string
}

// Client calls Google Cloud Vision text detection
type Client struct {
	service   *visionapi.Service
	projectID string
}

// NewClient creates a Vision client. Credentials fall back to application
// default credentials when CredentialsJSON is empty.
func NewClient(ctx context.Context, cfg Config, extra ...option.ClientOption) (*Client, error) {
	opts := make([]option.ClientOption, 0, len(extra)+3)
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.ProjectID != "" {
		opts = append(opts, option.WithQuotaProject(cfg.ProjectID))
	}
	opts = append(opts, extra...)

	svc, err := visionapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision service: %w", err)
	}

	return &Client{service: svc, projectID: cfg.ProjectID}, nil
}

// DetectText sends one TEXT_DETECTION request for a base64 image payload.
// The provider's first annotation is the full-image text block.
func (c *Client) DetectText(ctx context.Context, content string) ([]domain.TextAnnotation, error) {
	req := &visionapi.BatchAnnotateImagesRequest{
		Requests: []*visionapi.AnnotateImageRequest{
			{
				Image:    &visionapi.Image{Content: content},
				Features: []*visionapi.Feature{{Type: featureTextDetect}},
			},
		},
	}

	resp, err := c.service.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(providerName, "error").Inc()
		logger.Component(providerName).Error().Err(err).Msg("annotate request failed")
		return nil, classify(err)
	}

	if len(resp.Responses) == 0 {
		metrics.UpstreamRequests.WithLabelValues(providerName, "ok").Inc()
		return []domain.TextAnnotation{}, nil
	}

	first := resp.Responses[0]
	if first.Error != nil && first.Error.Code != 0 {
		metrics.UpstreamRequests.WithLabelValues(providerName, "error").Inc()
		return nil, &domain.UpstreamError{
			Provider: providerName,
			Err:      fmt.Errorf("annotate error %d: %s", first.Error.Code, first.Error.Message),
		}
	}

	metrics.UpstreamRequests.WithLabelValues(providerName, "ok").Inc()
	return toAnnotations(first.TextAnnotations), nil
}

func toAnnotations(entities []*visionapi.EntityAnnotation) []domain.TextAnnotation {
	out := make([]domain.TextAnnotation, 0, len(entities))
	for _, e := range entities {
		if e == nil {
			continue
		}
		ann := domain.TextAnnotation{Description: e.Description}
		if e.BoundingPoly != nil {
			for _, v := range e.BoundingPoly.Vertices {
				if v == nil {
					continue
				}
				ann.Vertices = append(ann.Vertices, domain.Vertex{X: int(v.X), Y: int(v.Y)})
			}
		}
		out = append(out, ann)
	}
	return out
}

func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &domain.UpstreamError{
			Provider:   providerName,
			StatusCode: apiErr.Code,
			Transient:  domain.TransientStatus(apiErr.Code),
			Err:        err,
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.UpstreamError{Provider: providerName, Transient: true, Err: err}
}
