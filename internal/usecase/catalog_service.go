package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gameshelf/backend/internal/domain"
	"github.com/gameshelf/backend/internal/logger"
	"github.com/gameshelf/backend/internal/metrics"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	CacheTTL          time.Duration // 0 keeps entries until evicted
	PageSize          int
	MaxPages          int
	DetailConcurrency int
	NotFoundTTL       time.Duration
	LookupTimeout     time.Duration
}

// CatalogService resolves board games by name or id with caching
type CatalogService struct {
	cache    domain.CacheRepository
	source   domain.CatalogSource
	notFound *gocache.Cache
	lookups  singleflight.Group

	cacheTTL          time.Duration
	pageSize          int
	maxPages          int
	detailConcurrency int
	lookupTimeout     time.Duration
}

// NewCatalogService creates a new catalog service with dependencies
func NewCatalogService(
	cache domain.CacheRepository,
	source domain.CatalogSource,
	config CatalogServiceConfig,
) *CatalogService {
	if config.PageSize <= 0 {
		config.PageSize = 10
	}
	if config.MaxPages <= 0 {
		config.MaxPages = 3
	}
	if config.DetailConcurrency <= 0 {
		config.DetailConcurrency = 10
	}
	if config.NotFoundTTL <= 0 {
		config.NotFoundTTL = 10 * time.Minute
	}
	if config.LookupTimeout <= 0 {
		config.LookupTimeout = 30 * time.Second
	}

	return &CatalogService{
		cache:             cache,
		source:            source,
		notFound:          gocache.New(config.NotFoundTTL, 2*config.NotFoundTTL),
		cacheTTL:          config.CacheTTL,
		pageSize:          config.PageSize,
		maxPages:          config.MaxPages,
		detailConcurrency: config.DetailConcurrency,
		lookupTimeout:     config.LookupTimeout,
	}
}

// SearchGames returns one page of catalog matches for a name query.
// Flow: check cache -> search ids -> slice page -> fetch details -> sort by rank -> cache
func (s *CatalogService) SearchGames(ctx context.Context, query string, page int) (*domain.SearchPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return emptyPage(), nil
	}
	if page < 1 {
		page = 1
	}

	cacheKey := searchCacheKey(query, page)
	var cached domain.SearchPage
	if s.getFromCache(ctx, "search", cacheKey, &cached) {
		return &cached, nil
	}

	ids, err := s.source.SearchIDs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	start := (page - 1) * s.pageSize
	if start >= len(ids) {
		return emptyPage(), nil
	}
	end := start + s.pageSize
	if end > len(ids) {
		end = len(ids)
	}

	items, complete := s.fetchDetails(ctx, ids[start:end])
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	SortByRank(items)

	result := &domain.SearchPage{
		Items:   items,
		HasMore: end < len(ids) && page < s.maxPages,
	}
	// A page missing games only because a lookup was cancelled is served but not cached
	if complete {
		s.setInCache(ctx, cacheKey, result)
	}

	return result, nil
}

// GetGame returns the full catalog record for an id
func (s *CatalogService) GetGame(ctx context.Context, id string) (*domain.BoardGame, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrInvalidRequest
	}

	cacheKey := gameCacheKey(id)
	var cached domain.BoardGame
	if s.getFromCache(ctx, "game", cacheKey, &cached) {
		return &cached, nil
	}

	if _, found := s.notFound.Get(id); found {
		return nil, fmt.Errorf("%w: id %s", domain.ErrGameNotFound, id)
	}

	// The shared lookup is detached from the caller that started it; each
	// caller still stops waiting when its own ctx ends.
	flight := s.lookups.DoChan(id, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.lookupTimeout)
		defer cancel()

		game, err := s.source.FetchGame(lookupCtx, id)
		if err != nil {
			if errors.Is(err, domain.ErrGameNotFound) {
				s.notFound.SetDefault(id, struct{}{})
			}
			return nil, err
		}
		s.setInCache(lookupCtx, cacheKey, game)
		return game, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		// Each caller gets its own copy of the shared result
		game := *res.Val.(*domain.BoardGame)
		return &game, nil
	}
}

// fetchDetails resolves ids concurrently and drops the ones that fail.
// The result keeps the order of ids. complete is false when a lookup was
// dropped because of a cancelled or expired context.
func (s *CatalogService) fetchDetails(ctx context.Context, ids []string) (items []domain.BoardGame, complete bool) {
	results := make([]*domain.BoardGame, len(ids))
	var interrupted atomic.Bool

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.detailConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			game, err := s.GetGame(gctx, id)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					interrupted.Store(true)
				}
				logger.Component("catalog").Warn().Err(err).Str("id", id).Msg("dropping search result")
				return nil
			}
			results[i] = game
			return nil
		})
	}
	_ = g.Wait()

	items = make([]domain.BoardGame, 0, len(ids))
	for _, game := range results {
		if game != nil {
			items = append(items, *game)
		}
	}
	return items, !interrupted.Load()
}

// SortByRank orders games by ascending rank with unranked (0) games last.
// Equal ranks keep their input order.
func SortByRank(games []domain.BoardGame) {
	sort.SliceStable(games, func(i, j int) bool {
		a, b := games[i].Rank, games[j].Rank
		if a == 0 {
			return false
		}
		if b == 0 {
			return true
		}
		return a < b
	})
}

// getFromCache decodes a cached value into dst. Backend errors count as a miss.
func (s *CatalogService) getFromCache(ctx context.Context, kind, key string, dst interface{}) bool {
	if s.cache == nil {
		return false
	}

	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Component("catalog").Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Component("catalog").Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		_ = s.cache.Delete(ctx, key)
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
		return false
	}

	metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
	return true
}

// setInCache stores a value; failures are logged and never fail the request
func (s *CatalogService) setInCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		logger.Component("catalog").Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		logger.Component("catalog").Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// searchCacheKey builds "search:{lower(query)}:{page}"
func searchCacheKey(query string, page int) string {
	return fmt.Sprintf("search:%s:%d", strings.ToLower(query), page)
}

// gameCacheKey builds "game:{id}"
func gameCacheKey(id string) string {
	return "game:" + id
}

func emptyPage() *domain.SearchPage {
	return &domain.SearchPage{Items: []domain.BoardGame{}, HasMore: false}
}
