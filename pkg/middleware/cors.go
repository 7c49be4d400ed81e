package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins may contain "*" to allow any origin.
	AllowedOrigins []string

	// AllowedMethods and AllowedHeaders fall back to the cart API defaults.
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string

	// MaxAge is the preflight cache lifetime in seconds; 0 means 600.
	MaxAge int

	AllowCredentials bool

	// Environment "development" allows any origin.
	Environment string
}

var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{"Accept", "Content-Type", CorrelationIDHeader, "traceparent"}
)

const defaultCORSMaxAge = 600

// DefaultCORSConfig lets the storefront dev server call the cart API.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: defaultCORSMethods,
		AllowedHeaders: defaultCORSHeaders,
		ExposedHeaders: []string{CorrelationIDHeader},
		MaxAge:         defaultCORSMaxAge,
		Environment:    "development",
	}
}

// corsPolicy is a CORSConfig with defaults applied and header values joined
// once.
type corsPolicy struct {
	anyOrigin bool
	origins   []string
	fixed     http.Header
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	methods := orDefault(cfg.AllowedMethods, defaultCORSMethods)
	headers := orDefault(cfg.AllowedHeaders, defaultCORSHeaders)
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = defaultCORSMaxAge
	}

	fixed := http.Header{}
	fixed.Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))
	fixed.Set("Access-Control-Allow-Headers", strings.Join(headers, ", "))
	fixed.Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
	if len(cfg.ExposedHeaders) > 0 {
		fixed.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposedHeaders, ", "))
	}
	if cfg.AllowCredentials {
		fixed.Set("Access-Control-Allow-Credentials", "true")
	}

	return corsPolicy{
		anyOrigin: cfg.Environment == "development" || slices.Contains(cfg.AllowedOrigins, "*"),
		origins:   cfg.AllowedOrigins,
		fixed:     fixed,
	}
}

func orDefault(v, fallback []string) []string {
	if len(v) == 0 {
		return fallback
	}
	return v
}

func (p corsPolicy) apply(h http.Header, origin string) {
	switch {
	case p.anyOrigin:
		h.Set("Access-Control-Allow-Origin", "*")
	case origin != "" && slices.Contains(p.origins, origin):
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Vary", "Origin")
	}
	for k, v := range p.fixed {
		h[k] = v
	}
}

// CORS sets Cross-Origin Resource Sharing headers and answers preflight
// requests with 204.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy.apply(w.Header(), r.Header.Get("Origin"))
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
