// Package app wires the assistant and its collaborators from configuration.
// It is shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/assistant"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/cache"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/config"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/generation"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/monitoring"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/safety"
)

// App holds the long-lived components of a running advisor.
type App struct {
	Config    *config.Config
	Logger    *observability.Logger
	Catalog   *catalog.Catalog
	Cache     cache.Client
	Assistant *assistant.Assistant

	// GenerationErr records why a configured generator could not be built.
	// The assistant still runs rule-based when it is set.
	GenerationErr error
}

// New loads the catalog, opens the cache, builds the optional generator and
// audit logger, and assembles the assistant.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*App, error) {
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	cat, err := catalog.FromSource(ctx, cfg.Catalog.Source, cfg.Catalog.Path, cfg.Catalog.DSN)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	logger.Info().
		Str("source", cfg.Catalog.Source).
		Int("phones", cat.Len()).
		Msg("Catalog loaded")

	store, err := cache.New(ctx, CacheOptions(cfg))
	if err != nil {
		logger.Warn().Err(err).Str("driver", cfg.Cache.Driver).Msg("Cache unavailable, using in-memory cache")
		store = cache.NewMemoryClient(cfg.Cache.MaxEntries)
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Catalog: cat,
		Cache:   store,
	}

	var opts []assistant.Option
	if cfg.GenerationEnabled() {
		gen, err := generation.New(ctx, generation.Config{
			Provider:    cfg.Generation.Provider,
			Model:       cfg.Generation.Model,
			APIKey:      cfg.Generation.APIKey,
			BaseURL:     cfg.Generation.BaseURL,
			Timeout:     cfg.Generation.Timeout,
			MaxRetries:  cfg.Generation.MaxRetries,
			Temperature: cfg.Generation.Temperature,
			CacheTTL:    cfg.Generation.CacheTTL,
		}, store, logger)
		if err != nil {
			a.GenerationErr = err
			logger.Warn().Err(err).Str("provider", cfg.Generation.Provider).Msg("Generator disabled")
		} else if gen != nil {
			opts = append(opts, assistant.WithGenerator(gen))
		}
	}

	if cfg.Audit.Enabled {
		var pub cache.Publisher
		if p, ok := store.(cache.Publisher); ok {
			pub = p
		}
		opts = append(opts, assistant.WithAuditor(monitoring.NewAuditLogger(logger, pub, cfg.Audit.Channel)))
	}

	a.Assistant = assistant.New(logger, cat, AssistantConfig(cfg), opts...)
	return a, nil
}

// AssistantConfig maps the configuration file onto assistant settings.
func AssistantConfig(cfg *config.Config) assistant.Config {
	return assistant.Config{
		NoResultsPolicy:    assistant.NoResultsPolicy(cfg.Assistant.NoResultsPolicy),
		MaxHistory:         cfg.Assistant.MaxHistory,
		SearchLimit:        cfg.Assistant.SearchLimit,
		FeatureRatingFloor: cfg.Assistant.FeatureRatingFloor,
		PopularPhoneIDs:    cfg.Assistant.PopularPhoneIDs,
		ToxicMatch:         safety.MatchMode(cfg.Safety.ToxicMatch),
		MaxSanitizedLength: cfg.Safety.MaxSanitizedLength,
	}
}

// CacheOptions maps the configuration file onto cache settings.
func CacheOptions(cfg *config.Config) cache.Options {
	return cache.Options{
		Driver:     cfg.Cache.Driver,
		MaxEntries: cfg.Cache.MaxEntries,
		Redis: cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
			Prefix:   cfg.Cache.Redis.Prefix,
		},
	}
}

// Close releases the cache connection.
func (a *App) Close() error {
	if a.Cache == nil {
		return nil
	}
	return a.Cache.Close()
}
