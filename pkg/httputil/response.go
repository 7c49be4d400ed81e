package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
	"github.com/utafrali/rocketshoes/pkg/logger"
	"github.com/utafrali/rocketshoes/pkg/validator"
)

// Response is the JSON envelope for every API response.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of Response.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData wraps data in the Response envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Response{Data: data})
}

// WriteError maps err to a status and error envelope via apperrors.Classify.
// 5xx responses other than 503 are logged with the request-scoped logger,
// or fallback when the request carries none.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	kind := apperrors.Classify(err)
	message := kind.Public
	if message == "" {
		message = err.Error()
	}

	if kind.Status >= http.StatusInternalServerError && kind.Status != http.StatusServiceUnavailable {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, kind.Status, Response{
		Error: &ErrorResponse{
			Code:      kind.Code,
			Message:   message,
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		},
	})
}

// WriteValidationError writes a 400. Field-level details are included when
// err is a *validator.ValidationError.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
	})
}

// ParseID parses an int64 path parameter. Zero and negative values are
// accepted; whether such an id exists is for the caller to decide. On failure
// it writes a 400 with code INVALID_PARAMETER and returns false.
func ParseID(w http.ResponseWriter, name, param string) (int64, bool) {
	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "INVALID_PARAMETER",
				Message: "invalid " + name + ": " + param,
			},
		})
		return 0, false
	}
	return id, true
}
