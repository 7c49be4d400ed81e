package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveCORS(cfg CORSConfig, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/cart", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rr := httptest.NewRecorder()
	CORS(cfg)(okHandler()).ServeHTTP(rr, req)
	return rr
}

func TestCORS_Origins(t *testing.T) {
	prodOrigins := []string{"https://rocketshoes.example", "https://admin.rocketshoes.example"}

	tests := []struct {
		name       string
		cfg        CORSConfig
		origin     string
		wantOrigin string
		wantVary   string
	}{
		{
			name:       "development allows any origin",
			cfg:        CORSConfig{Environment: "development"},
			origin:     "https://other.example",
			wantOrigin: "*",
		},
		{
			name:       "development without origin header",
			cfg:        CORSConfig{Environment: "development"},
			wantOrigin: "*",
		},
		{
			name:       "production echoes listed origin",
			cfg:        CORSConfig{AllowedOrigins: prodOrigins, Environment: "production"},
			origin:     "https://admin.rocketshoes.example",
			wantOrigin: "https://admin.rocketshoes.example",
			wantVary:   "Origin",
		},
		{
			name:   "production rejects unlisted origin",
			cfg:    CORSConfig{AllowedOrigins: prodOrigins, Environment: "production"},
			origin: "https://evil.example",
		},
		{
			name: "production without origin header",
			cfg:  CORSConfig{AllowedOrigins: prodOrigins, Environment: "production"},
		},
		{
			name:       "explicit wildcard in production",
			cfg:        CORSConfig{AllowedOrigins: []string{"*"}, Environment: "production"},
			origin:     "https://anything.example",
			wantOrigin: "*",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := serveCORS(tc.cfg, http.MethodGet, tc.origin)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tc.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tc.wantVary, rr.Header().Get("Vary"))
		})
	}
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	reached := false
	handler := CORS(DefaultCORSConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart/products/1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.False(t, reached)
}

func TestCORS_Defaults(t *testing.T) {
	rr := serveCORS(CORSConfig{Environment: "development"}, http.MethodGet, "")

	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Accept, Content-Type, X-Correlation-ID, traceparent", rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", rr.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, rr.Header().Get("Access-Control-Expose-Headers"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_CustomSettings(t *testing.T) {
	rr := serveCORS(CORSConfig{
		AllowedOrigins:   []string{"https://rocketshoes.example"},
		AllowedHeaders:   []string{"Accept", "X-Custom"},
		ExposedHeaders:   []string{CorrelationIDHeader},
		MaxAge:           7200,
		AllowCredentials: true,
		Environment:      "production",
	}, http.MethodGet, "https://rocketshoes.example")

	assert.Equal(t, "Accept, X-Custom", rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, CorrelationIDHeader, rr.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "7200", rr.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Contains(t, cfg.AllowedMethods, http.MethodPut)
	assert.Contains(t, cfg.AllowedMethods, http.MethodDelete)
	assert.Equal(t, 600, cfg.MaxAge)
	assert.Equal(t, "development", cfg.Environment)
}
