package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gameshelf/backend/config"
	httpDelivery "github.com/gameshelf/backend/internal/delivery/http"
	"github.com/gameshelf/backend/internal/logger"
)

const shutdownTimeout = 15 * time.Second

// runServer serves the API until ctx is cancelled, then drains in-flight requests
func runServer(ctx context.Context, cfg *config.Config) error {
	log := logger.Component("main")
	log.Info().
		Str("version", httpDelivery.Version).
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("starting GameShelf backend")

	a, err := newServerApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := httpDelivery.NewHandler(a.services)
	router := httpDelivery.SetupRouter(cfg, handler, a.auth)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
