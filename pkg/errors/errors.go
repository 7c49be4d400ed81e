package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by all packages.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrServiceUnavail = errors.New("service unavailable")
)

// Kind is how a class of error is reported to API clients.
type Kind struct {
	Code   string
	Status int
	// Public replaces the error text in responses. Empty means the text is
	// safe to show as-is.
	Public string
}

var (
	kindNotFound     = Kind{Code: "NOT_FOUND", Status: http.StatusNotFound, Public: "resource not found"}
	kindInvalidInput = Kind{Code: "INVALID_INPUT", Status: http.StatusBadRequest}
	kindUnavailable  = Kind{Code: "SERVICE_UNAVAILABLE", Status: http.StatusServiceUnavailable, Public: "service temporarily unavailable"}
	kindInternal     = Kind{Code: "INTERNAL_ERROR", Status: http.StatusInternalServerError, Public: "an internal error occurred"}
)

var sentinelKinds = []struct {
	sentinel error
	kind     Kind
}{
	{ErrNotFound, kindNotFound},
	{ErrInvalidInput, kindInvalidInput},
	{ErrServiceUnavail, kindUnavailable},
}

// AppError is an error carrying a machine-readable code and an HTTP status.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(k Kind, message string, err error) *AppError {
	return &AppError{Code: k.Code, Message: message, Status: k.Status, Err: err}
}

// NotFound creates a 404 error, e.g. NotFound("stock", "7").
func NotFound(resource, id string) *AppError {
	return newAppError(kindNotFound, fmt.Sprintf("%s with id %s not found", resource, id), ErrNotFound)
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return newAppError(kindInvalidInput, message, ErrInvalidInput)
}

// ServiceUnavailable creates a 503 error for a downstream that is down or
// shedding load.
func ServiceUnavailable(message string) *AppError {
	return newAppError(kindUnavailable, message, ErrServiceUnavail)
}

// Internal creates a 500 error that hides err from clients.
func Internal(err error) *AppError {
	return newAppError(kindInternal, kindInternal.Public, err)
}

// Classify reports how err should be presented. An AppError anywhere in the
// chain is used verbatim; otherwise the first matching sentinel decides, and
// anything else is internal.
func Classify(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return Kind{Code: appErr.Code, Status: appErr.Status, Public: appErr.Message}
	}
	for _, sk := range sentinelKinds {
		if errors.Is(err, sk.sentinel) {
			return sk.kind
		}
	}
	return kindInternal
}

// HTTPStatus returns the HTTP status code for err.
func HTTPStatus(err error) int {
	return Classify(err).Status
}
