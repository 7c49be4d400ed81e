package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/utafrali/rocketshoes/pkg/httputil"
	"github.com/utafrali/rocketshoes/pkg/logger"
)

// RateLimitConfig configures RateLimit. A zero RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64
	Burst int
	// IdleTTL evicts clients not seen for this long; 0 means 3 minutes.
	IdleTTL time.Duration
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters holds one token bucket per client IP. Idle buckets are swept
// lazily, at most once per ttl, from the request path.
type clientLimiters struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newClientLimiters(cfg RateLimitConfig) *clientLimiters {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &clientLimiters{
		clients: make(map[string]*client),
		limit:   rate.Limit(cfg.RPS),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (l *clientLimiters) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.ttl {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > l.ttl {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (l *clientLimiters) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// RateLimit applies a per-client-IP token bucket and answers 429 RATE_LIMITED
// once it is empty.
func RateLimit(cfg RateLimitConfig, l *slog.Logger) func(http.Handler) http.Handler {
	if cfg.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiters := newClientLimiters(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if limiters.allow(ip) {
				next.ServeHTTP(w, r)
				return
			}

			logger.WithContext(r.Context(), l).WarnContext(r.Context(), "rate limit exceeded",
				slog.String("client_ip", ip),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", "1")
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:      "RATE_LIMITED",
					Message:   "too many requests",
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				},
			})
		})
	}
}

// clientIP prefers the first valid address in X-Forwarded-For, then
// X-Real-IP, then the connection's remote host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
