package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
	"github.com/utafrali/rocketshoes/pkg/httputil"
	"github.com/utafrali/rocketshoes/pkg/logger"
)

// Recovery converts a handler panic into a 500 carrying the standard error
// envelope. http.ErrAbortHandler is re-raised so net/http can drop the
// connection.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				switch rec {
				case nil:
					return
				case http.ErrAbortHandler:
					panic(rec)
				}

				err := fmt.Errorf("panic: %v", rec)
				logger.WithContext(r.Context(), l).ErrorContext(r.Context(), "panic recovered",
					slog.String("error", err.Error()),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)

				kind := apperrors.Classify(err)
				httputil.WriteJSON(w, kind.Status, httputil.Response{Error: &httputil.ErrorResponse{
					Code:      kind.Code,
					Message:   kind.Public,
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				}})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
