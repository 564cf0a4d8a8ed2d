package bgg

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gameshelf/backend/internal/domain"
	"github.com/gameshelf/backend/internal/logger"
	"github.com/gameshelf/backend/internal/metrics"
	"golang.org/x/time/rate"
)

const providerName = "bgg"

// Config holds BoardGameGeek client settings
type Config struct {
	BaseURL           string
	APIToken          string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	RetryBaseDelay    time.Duration
}

// DefaultConfig returns the settings used when a field is left zero
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://boardgamegeek.com/xmlapi2",
		Timeout:           30 * time.Second,
		RequestsPerSecond: 2,
		Burst:             10,
		MaxRetries:        2,
		RetryBaseDelay:    500 * time.Millisecond,
	}
}

// Client handles communication with the BoardGameGeek XML API2
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiToken       string
	rateLimiter    *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
	debug          bool
}

// NewClient creates a new BoardGameGeek API client
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = def.RetryBaseDelay
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiToken:       cfg.APIToken,
		rateLimiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
	}
}

// SetDebug toggles verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// SearchIDs runs a board game name search and returns the item ids in document order
func (c *Client) SearchIDs(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("type", "boardgame")

	body, err := c.doRequestWithRetry(ctx, "/search", params)
	if err != nil {
		logger.Component(providerName).Error().Err(err).Str("query", query).Msg("search failed")
		return nil, err
	}

	var resp searchResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, &domain.UpstreamError{Provider: providerName, Err: fmt.Errorf("decode search response: %w", err)}
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID != "" {
			ids = append(ids, item.ID)
		}
	}

	logger.Component(providerName).Debug().Str("query", query).Int("results", len(ids)).Msg("search completed")
	return ids, nil
}

// FetchGame retrieves the full record for one id, including statistics
func (c *Client) FetchGame(ctx context.Context, id string) (*domain.BoardGame, error) {
	params := url.Values{}
	params.Set("id", id)
	params.Set("stats", "1")

	body, err := c.doRequestWithRetry(ctx, "/thing", params)
	if err != nil {
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: id %s", domain.ErrGameNotFound, id)
		}
		return nil, err
	}

	var resp thingResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, &domain.UpstreamError{Provider: providerName, Err: fmt.Errorf("decode thing response: %w", err)}
	}

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: id %s", domain.ErrGameNotFound, id)
	}

	return MapToBoardGame(id, &resp.Items[0]), nil
}

// doRequestWithRetry performs a GET and retries transient failures with exponential backoff
func (c *Client) doRequestWithRetry(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	log := logger.Component(providerName)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries+1; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		body, err := c.doRequest(ctx, reqURL)
		if err == nil {
			metrics.UpstreamRequests.WithLabelValues(providerName, "ok").Inc()
			return body, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !domain.IsTransient(err) {
			metrics.UpstreamRequests.WithLabelValues(providerName, "error").Inc()
			return nil, err
		}

		metrics.UpstreamRequests.WithLabelValues(providerName, "transient").Inc()
		if attempt > c.maxRetries {
			break
		}

		delay := exponentialBackoff(c.retryBaseDelay, attempt)
		log.Warn().Err(err).Str("path", path).Int("attempt", attempt).Dur("backoff", delay).Msg("transient failure, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	log.Error().Err(lastErr).Str("path", path).Msg("all retries failed")
	return nil, lastErr
}

// doRequest executes one GET and classifies the outcome
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "GameShelf/1.0")
	req.Header.Set("Accept", "application/xml")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	if c.debug {
		logger.Component(providerName).Debug().Str("url", reqURL).Msg("request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &domain.UpstreamError{Provider: providerName, Transient: true, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.UpstreamError{Provider: providerName, Transient: true, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.UpstreamError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Transient:  domain.TransientStatus(resp.StatusCode),
			Err:        fmt.Errorf("body: %s", string(bytes.TrimSpace(truncate(body, 200)))),
		}
	}
	return body, nil
}

// exponentialBackoff returns base, 2*base, 4*base, ... for attempts 1, 2, 3, ...
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
