package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec, resp
}

func TestLivenessHandler_AlwaysReturns200(t *testing.T) {
	h := NewHandler()
	h.Register("storage", func(ctx context.Context) error { return errors.New("down") })

	rec, resp := serve(t, h.LivenessHandler())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, StatusUp, resp.Status)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestReadinessHandler_AllHealthy(t *testing.T) {
	h := NewHandler()
	h.Register("storage", func(ctx context.Context) error { return nil })

	rec, resp := serve(t, h.ReadinessHandler())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusUp, resp.Status)
	assert.Equal(t, StatusUp, resp.Checks["storage"].Status)
}

func TestReadinessHandler_OneDown(t *testing.T) {
	h := NewHandler()
	h.Register("storage", func(ctx context.Context) error { return nil })
	h.Register("kafka", func(ctx context.Context) error { return errors.New("connection refused") })

	rec, resp := serve(t, h.ReadinessHandler())

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, StatusDown, resp.Status)
	assert.Equal(t, StatusUp, resp.Checks["storage"].Status)
	assert.Equal(t, "connection refused", resp.Checks["kafka"].Error)
}

func TestReadinessHandler_NoCheckers(t *testing.T) {
	rec, resp := serve(t, NewHandler().ReadinessHandler())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusUp, resp.Status)
}

func TestRegister_ReplacesAndListsNames(t *testing.T) {
	h := NewHandler()
	h.Register("storage", func(ctx context.Context) error { return errors.New("old") })
	h.Register("storage", func(ctx context.Context) error { return nil })
	h.Register("kafka", func(ctx context.Context) error { return nil })

	assert.Equal(t, []string{"kafka", "storage"}, h.Names())
	assert.Equal(t, StatusUp, h.Check(context.Background()).Status)
}
