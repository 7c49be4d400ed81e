package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
)

// maxErrorBody caps how much of an error response body is read.
const maxErrorBody = 64 << 10

// DownstreamErrorResponse matches the `{"error": {...}}` envelope written by
// httputil. Plain-text or foreign bodies are handled by the fallback path.
type DownstreamErrorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// translates it into an error. resource names what was requested (for
// example "product" or "stock") and id is the requested identifier.
func ParseResponseError(resp *http.Response, resource, id string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s %s: status %d (read body: %w)", resource, id, resp.StatusCode, err)
	}

	message := string(body)
	var downstream DownstreamErrorResponse
	if json.Unmarshal(body, &downstream) == nil && downstream.Error != nil {
		message = downstream.Error.Message
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound(resource, id)
	case resp.StatusCode == http.StatusBadRequest:
		return apperrors.InvalidInput(fmt.Sprintf("%s %s: %s", resource, id, message))
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(fmt.Sprintf("%s lookup unavailable (status %d)", resource, resp.StatusCode))
	default:
		return fmt.Errorf("%s %s: unexpected status %d: %s", resource, id, resp.StatusCode, message)
	}
}
