// Package main provides the phone advisor API server entrypoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/app"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/config"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "phone-advisor-api: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Phone advisor API exited")
	}
	logger.Info().Msg("Server stopped")
}

// serve wires the application and blocks until ctx is cancelled or the
// listener fails.
func serve(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("Cache close failed")
		}
	}()
	if a.GenerationErr != nil {
		logger.Error().Err(a.GenerationErr).Msg("Chat requests will fail until generation is configured")
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      NewRouter(a, cfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	listenErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Int("phones", a.Catalog.Len()).
			Str("generation", cfg.Generation.Provider).
			Str("cache", cfg.Cache.Driver).
			Msg("Phone advisor API listening")
		listenErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		return srv.Close()
	}
	return nil
}
