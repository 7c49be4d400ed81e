package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/rocketshoes/pkg/logger"
)

// RequestLogger stores a request-scoped logger (correlation_id, trace_id,
// span_id) in the context for logger.FromContext. Mount it after
// RequestLogging and Tracing.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
