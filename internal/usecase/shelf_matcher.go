package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/gameshelf/backend/internal/domain"
	"github.com/gameshelf/backend/internal/logger"
	"github.com/gameshelf/backend/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// ShelfMatcherConfig holds configuration for the shelf matcher
type ShelfMatcherConfig struct {
	BatchSize          int
	BatchDelay         time.Duration
	SkipNoiseLabels    bool
	EnableDebugLogging bool
}

// waitFunc blocks for d or until ctx is done
type waitFunc func(ctx context.Context, d time.Duration) error

// ShelfMatcher resolves every detected label against the catalog in
// small batches so a full shelf does not flood the catalog API
type ShelfMatcher struct {
	searcher        domain.GameSearcher
	cleaner         *TitleCleaner
	batchSize       int
	batchDelay      time.Duration
	skipNoiseLabels bool
	wait            waitFunc
}

// NewShelfMatcher creates a new shelf matcher
func NewShelfMatcher(searcher domain.GameSearcher, config ShelfMatcherConfig) *ShelfMatcher {
	if config.BatchSize <= 0 {
		config.BatchSize = 3
	}
	if config.BatchDelay < 0 {
		config.BatchDelay = 0
	}

	return &ShelfMatcher{
		searcher:        searcher,
		cleaner:         NewTitleCleaner(config.EnableDebugLogging),
		batchSize:       config.BatchSize,
		batchDelay:      config.BatchDelay,
		skipNoiseLabels: config.SkipNoiseLabels,
		wait:            sleepContext,
	}
}

// MatchShelf searches the catalog for each label's title and returns
// title -> candidates. A label whose search fails maps to an empty list.
// Labels are processed BatchSize at a time with BatchDelay between batches.
func (m *ShelfMatcher) MatchShelf(ctx context.Context, labels []domain.DetectedGame) (domain.ShelfMatches, error) {
	matches := make(domain.ShelfMatches, len(labels))
	log := logger.Component("matcher")

	var mu sync.Mutex
	for start := 0; start < len(labels); start += m.batchSize {
		if start > 0 && m.batchDelay > 0 {
			if err := m.wait(ctx, m.batchDelay); err != nil {
				return nil, err
			}
		}

		end := min(start+m.batchSize, len(labels))
		batch := labels[start:end]

		var g errgroup.Group
		for _, label := range batch {
			g.Go(func() error {
				games := m.matchLabel(ctx, label.Title)
				mu.Lock()
				matches[label.Title] = games
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		metrics.MatcherBatches.Inc()
		log.Debug().Int("batch_start", start).Int("batch_size", len(batch)).Msg("batch matched")

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	return matches, nil
}

// matchLabel runs the first page search for one title; errors become an empty list
func (m *ShelfMatcher) matchLabel(ctx context.Context, title string) []domain.BoardGame {
	query := title
	if m.skipNoiseLabels {
		if m.cleaner.IsNoise(title) {
			return []domain.BoardGame{}
		}
		query = m.cleaner.Clean(title)
	}

	page, err := m.searcher.SearchGames(ctx, query, 1)
	if err != nil {
		metrics.MatcherLabelFailures.Inc()
		logger.Component("matcher").Warn().Err(err).Str("title", title).Msg("label search failed")
		return []domain.BoardGame{}
	}
	if page == nil || page.Items == nil {
		return []domain.BoardGame{}
	}
	return page.Items
}

// sleepContext waits for d unless ctx is cancelled first
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
