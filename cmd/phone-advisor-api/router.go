// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spherical-ai/spherical/libs/phone-advisor/cmd/phone-advisor-api/handlers"
	"github.com/spherical-ai/spherical/libs/phone-advisor/cmd/phone-advisor-api/middleware"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/api/rpc"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/app"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/config"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(a *app.App, cfg *config.Config) http.Handler {
	logger := a.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	}

	// Health check (unauthenticated)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"phone-advisor"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if a.Catalog == nil || a.Catalog.Len() == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"catalog empty"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	chatHandler := handlers.NewChatHandler(logger, a.Assistant, a.GenerationErr, cfg.Server.MaxBodyBytes)
	phonesHandler := handlers.NewPhonesHandler(logger, a.Assistant)
	rpcPath, rpcHandler := rpc.NewHandler(rpc.NewAdvisorService(logger, a.Assistant, a.GenerationErr))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthConfig{
			Enabled:      cfg.Auth.Enabled,
			JWTSecret:    cfg.Auth.JWTSecret,
			JWTIssuer:    cfg.Auth.JWTIssuer,
			APIKeyHashes: cfg.Auth.APIKeyHashes,
		}, logger))

		// Chat endpoint kept at its historical path as well as under /api/v1.
		r.Route("/api/chat", func(r chi.Router) {
			r.Get("/", chatHandler.Info)
			r.Post("/", chatHandler.Chat)
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/chat", chatHandler.Chat)

			r.Route("/phones", func(r chi.Router) {
				r.Get("/", phonesHandler.List)
				r.Get("/leaders/{view}", phonesHandler.Leaders)
				r.Get("/{id}", phonesHandler.Get)
			})
		})

		r.Mount(rpcPath, rpcHandler)
	})

	return r
}
