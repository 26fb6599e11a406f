package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
	"github.com/spherical-ai/spherical/libs/phone-advisor/pkg/advisor"
)

const testSecret = "test-signing-secret"

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.RegisteredClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func principalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(PrincipalFromContext(r.Context())))
	})
}

func TestAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("key-1"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := AuthConfig{
		Enabled:      true,
		JWTSecret:    testSecret,
		JWTIssuer:    "phone-advisor",
		APIKeyHashes: []string{string(hash)},
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name          string
		header        http.Header
		wantStatus    int
		wantPrincipal string
	}{
		{
			name:       "no credentials",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:          "valid api key",
			header:        http.Header{advisor.APIKeyHeader: {"key-1"}},
			wantStatus:    http.StatusOK,
			wantPrincipal: "api-key",
		},
		{
			name:       "wrong api key",
			header:     http.Header{advisor.APIKeyHeader: {"key-2"}},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "valid token",
			header: http.Header{"Authorization": {"Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Subject: "storefront", Issuer: "phone-advisor", ExpiresAt: future,
			}, testSecret)}},
			wantStatus:    http.StatusOK,
			wantPrincipal: "storefront",
		},
		{
			name: "expired token",
			header: http.Header{"Authorization": {"Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Subject: "storefront", Issuer: "phone-advisor", ExpiresAt: past,
			}, testSecret)}},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "token without expiry",
			header: http.Header{"Authorization": {"Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Subject: "storefront", Issuer: "phone-advisor",
			}, testSecret)}},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong issuer",
			header: http.Header{"Authorization": {"Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Subject: "storefront", Issuer: "someone-else", ExpiresAt: future,
			}, testSecret)}},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong secret",
			header: http.Header{"Authorization": {"Bearer " + signToken(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Subject: "storefront", Issuer: "phone-advisor", ExpiresAt: future,
			}, "another-secret")}},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "disallowed algorithm",
			header: http.Header{"Authorization": {"Bearer " + signToken(t, jwt.SigningMethodHS512, jwt.RegisteredClaims{
				Subject: "storefront", Issuer: "phone-advisor", ExpiresAt: future,
			}, testSecret)}},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not a bearer token",
			header:     http.Header{"Authorization": {"Basic dXNlcjpwYXNz"}},
			wantStatus: http.StatusUnauthorized,
		},
	}

	handler := Auth(cfg, observability.NewNopLogger())(principalEcho())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/phones", nil)
			for k, vs := range tt.header {
				for _, v := range vs {
					req.Header.Add(k, v)
				}
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantPrincipal, rec.Body.String())
			}
		})
	}
}

func TestAuth_Disabled(t *testing.T) {
	handler := Auth(AuthConfig{Enabled: false}, observability.NewNopLogger())(principalEcho())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestCORS(t *testing.T) {
	handler := CORS([]string{"https://shop.example.com"})(principalEcho())

	tests := []struct {
		name        string
		method      string
		origin      string
		wantStatus  int
		wantAllowed string
	}{
		{"allowed origin", http.MethodGet, "https://shop.example.com", http.StatusOK, "https://shop.example.com"},
		{"other origin", http.MethodGet, "https://evil.example.com", http.StatusOK, ""},
		{"preflight", http.MethodOptions, "https://shop.example.com", http.StatusNoContent, "https://shop.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/chat", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantAllowed, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantAllowed != "" {
				assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), advisor.APIKeyHeader)
			}
		})
	}
}

func TestTraceID(t *testing.T) {
	var seen string
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(TraceID)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		seen = observability.TraceIDFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Trace-ID"))
}

func TestTraceID_WithoutRequestID(t *testing.T) {
	var seen string
	handler := TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.TraceIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Trace-ID"))
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	handler := RequestLogger(observability.NewNopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}
