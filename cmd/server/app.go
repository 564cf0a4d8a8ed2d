package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gameshelf/backend/config"
	"github.com/gameshelf/backend/internal/auth"
	httpDelivery "github.com/gameshelf/backend/internal/delivery/http"
	"github.com/gameshelf/backend/internal/domain"
	"github.com/gameshelf/backend/internal/infrastructure/bgg"
	"github.com/gameshelf/backend/internal/infrastructure/cache"
	"github.com/gameshelf/backend/internal/infrastructure/storage"
	"github.com/gameshelf/backend/internal/infrastructure/vision"
	"github.com/gameshelf/backend/internal/logger"
	"github.com/gameshelf/backend/internal/usecase"
)

const (
	devJWTSecret     = "gameshelf-dev-secret"
	redisKeyPrefix   = "gameshelf:"
	cacheSweepPeriod = 10 * time.Minute
)

// app owns every long-lived dependency of the process
type app struct {
	cache    domain.CacheRepository
	db       *storage.DB
	auth     *auth.Manager
	services httpDelivery.Services
}

// newScanApp wires the vision, catalog and matcher services only
func newScanApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.Component("main")

	cacheRepo, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	log.Info().Str("type", cfg.Cache.Type).Dur("ttl", cfg.Cache.TTL).Msg("catalog cache ready")

	annotator, err := newAnnotator(ctx, cfg)
	if err != nil {
		_ = cacheRepo.Close()
		return nil, err
	}

	bggClient := bgg.NewClient(bgg.Config{
		BaseURL:           cfg.Catalog.BaseURL,
		APIToken:          cfg.Catalog.APIToken,
		Timeout:           cfg.Catalog.Timeout,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
		Burst:             cfg.Catalog.Burst,
		MaxRetries:        cfg.Catalog.MaxRetries,
		RetryBaseDelay:    cfg.Catalog.RetryBaseDelay,
	})
	if cfg.Server.Environment == "development" {
		bggClient.SetDebug(true)
	}
	if cfg.Catalog.APIToken == "" {
		log.Warn().Str("base_url", cfg.Catalog.BaseURL).Msg("BGG API token not configured, requests are sent anonymously")
	}

	catalog := usecase.NewCatalogService(cacheRepo, bggClient, usecase.CatalogServiceConfig{
		CacheTTL:          cfg.Cache.TTL,
		PageSize:          cfg.Catalog.PageSize,
		MaxPages:          cfg.Catalog.MaxPages,
		DetailConcurrency: cfg.Catalog.DetailConcurrency,
		NotFoundTTL:       cfg.Catalog.NotFoundTTL,
		LookupTimeout:     cfg.Catalog.Timeout * time.Duration(cfg.Catalog.MaxRetries+1),
	})

	matcher := usecase.NewShelfMatcher(catalog, usecase.ShelfMatcherConfig{
		BatchSize:          cfg.Matcher.BatchSize,
		BatchDelay:         cfg.Matcher.BatchDelay,
		SkipNoiseLabels:    cfg.Matcher.SkipNoiseLabels,
		EnableDebugLogging: cfg.Log.Level == "debug",
	})

	log.Info().
		Int("page_size", cfg.Catalog.PageSize).
		Int("max_pages", cfg.Catalog.MaxPages).
		Int("batch_size", cfg.Matcher.BatchSize).
		Dur("batch_delay", cfg.Matcher.BatchDelay).
		Msg("catalog and matcher configured")

	return &app{
		cache: cacheRepo,
		services: httpDelivery.Services{
			Vision:  usecase.NewVisionService(annotator),
			Catalog: catalog,
			Matcher: matcher,
		},
	}, nil
}

// newServerApp adds persistence, groups, library and auth to the scan services
func newServerApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a, err := newScanApp(ctx, cfg)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	logger.Component("main").Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	groupRepo := storage.NewGroupRepository(db)
	a.services.Groups = usecase.NewGroupService(groupRepo)
	a.services.Library = usecase.NewLibraryService(storage.NewLibraryRepository(db), groupRepo, a.services.Catalog)
	a.auth = auth.NewManager(jwtSecret(cfg), cfg.Auth.TokenTTL)

	return a, nil
}

// Close releases the cache and database
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Component("main").Warn().Err(err).Msg("closing cache")
		}
	}
	if err := a.db.Close(); err != nil {
		logger.Component("main").Warn().Err(err).Msg("closing database")
	}
}

func newCache(ctx context.Context, cfg config.CacheConfig) (domain.CacheRepository, error) {
	switch cfg.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL, redisKeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisCache, nil
	default:
		return cache.NewMemoryCache(cfg.MaxEntries, cacheSweepPeriod), nil
	}
}

// newAnnotator returns the Cloud Vision client, or a stub in development when
// no credentials are configured
func newAnnotator(ctx context.Context, cfg *config.Config) (domain.TextAnnotator, error) {
	if cfg.Vision.CredentialsJSON == "" && cfg.Server.Environment == "development" {
		logger.Component("main").Warn().Msg("Vision credentials not configured, using stub annotator")
		return vision.NewStubAnnotator(), nil
	}

	client, err := vision.NewClient(ctx, vision.Config{
		CredentialsJSON: cfg.Vision.CredentialsJSON,
		ProjectID:       cfg.Vision.ProjectID,
		Endpoint:        cfg.Vision.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func jwtSecret(cfg *config.Config) string {
	if cfg.Auth.JWTSecret != "" {
		return cfg.Auth.JWTSecret
	}
	logger.Component("main").Warn().Msg("JWT secret not configured, using the development secret")
	return devJWTSecret
}
