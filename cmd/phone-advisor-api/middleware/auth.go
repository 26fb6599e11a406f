// Package middleware provides HTTP middleware for the phone advisor API.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
	"github.com/spherical-ai/spherical/libs/phone-advisor/pkg/advisor"
	"golang.org/x/crypto/bcrypt"
)

// Context keys for request-scoped values.
type contextKey string

const (
	// PrincipalKey is the context key for the authenticated caller.
	PrincipalKey contextKey = "principal"
)

// principalAPIKey identifies callers authenticated with an API key.
const principalAPIKey = "api-key"

var (
	errMissingCredentials = errors.New("missing credentials")
	errInvalidAPIKey      = errors.New("invalid api key")
	errInvalidToken       = errors.New("invalid token")
)

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Enabled      bool
	JWTSecret    string
	JWTIssuer    string
	APIKeyHashes []string // bcrypt hashes
}

// Auth returns an authentication middleware. A request passes with either
// an API key matching one of the bcrypt hashes or an HS256 bearer token
// signed with the configured secret.
func Auth(cfg AuthConfig, logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := authenticate(r, cfg)
			if err != nil {
				logger.WithContext(r.Context()).Warn().
					Err(err).
					Str("path", r.URL.Path).
					Msg("Request rejected")
				http.Error(w, fmt.Sprintf(`{"error": %q}`, err.Error()), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, cfg AuthConfig) (string, error) {
	if key := r.Header.Get(advisor.APIKeyHeader); key != "" {
		for _, hash := range cfg.APIKeyHashes {
			if bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil {
				return principalAPIKey, nil
			}
		}
		return "", errInvalidAPIKey
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errMissingCredentials
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || cfg.JWTSecret == "" {
		return "", errInvalidToken
	}

	claims, err := validateToken(parts[1], cfg)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func validateToken(raw string, cfg AuthConfig) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	return claims, nil
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(PrincipalKey).(string); ok {
		return v
	}
	return ""
}

// CORS returns CORS middleware for browser clients.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, "+advisor.APIKeyHeader)
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TraceID stores the chi request id in the context as the trace id so that
// every log line of a request carries it.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := middleware.GetReqID(r.Context())
		if traceID == "" {
			traceID = observability.NewTraceID()
		}
		w.Header().Set("X-Trace-ID", traceID)
		next.ServeHTTP(w, r.WithContext(observability.ContextWithTraceID(r.Context(), traceID)))
	})
}

// RequestLogger returns middleware that logs requests.
func RequestLogger(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.WithContext(r.Context()).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(start)).
				Msg("HTTP request")
		})
	}
}
