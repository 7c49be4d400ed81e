package httpclient

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testCBConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      100 * time.Millisecond,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

func get(t *testing.T, d Doer, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	return d.Do(context.Background(), req)
}

func TestCircuitBreaker_ClosedState_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(fastConfig(0)), testCBConfig("test-closed"), testLogger())

	resp, err := get(t, cb, server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_NotFoundIsNotAFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(fastConfig(0)), testCBConfig("test-404"), testLogger())

	for i := 0; i < 5; i++ {
		resp, err := get(t, cb, server.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_TripsOnFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(fastConfig(0)), testCBConfig("test-trip"), testLogger())

	for i := 0; i < 3; i++ {
		_, err := get(t, cb, server.URL)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := get(t, cb, server.URL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_Fallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var fallbackCalls int32
	cb := NewCircuitBreakerClient(New(fastConfig(0)), testCBConfig("test-fallback"), testLogger()).
		WithFallback(func(_ context.Context, err error) (*http.Response, error) {
			atomic.AddInt32(&fallbackCalls, 1)
			return nil, err
		})

	for i := 0; i < 3; i++ {
		_, _ = get(t, cb, server.URL)
	}
	_, err := get(t, cb, server.URL)

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fallbackCalls))
}

func TestCircuitBreaker_HalfOpenToClosedRecovery(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(fastConfig(0)), testCBConfig("test-recovery"), testLogger())

	for i := 0; i < 3; i++ {
		_, _ = get(t, cb, server.URL)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	time.Sleep(150 * time.Millisecond)
	failing.Store(false)

	resp, err := get(t, cb, server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_RateLimitIsAFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(fastConfig(0)), testCBConfig("test-429"), testLogger())

	_, err := get(t, cb, server.URL)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, "slow down", statusErr.Body)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)

	for i := 0; i < 2; i++ {
		_, _ = get(t, cb, server.URL)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}

func TestCircuitBreaker_InternalErrorIsNotUnavailable(t *testing.T) {
	err := &StatusError{StatusCode: http.StatusInternalServerError}
	assert.NotErrorIs(t, err, apperrors.ErrServiceUnavail)
	assert.Equal(t, http.StatusInternalServerError, apperrors.HTTPStatus(err))
}

func TestCircuitBreaker_CallerCancellationIsNotAFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cb := NewCircuitBreakerClient(New(fastConfig(0)), testCBConfig("test-cancel"), testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 5; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, http.NoBody)
		require.NoError(t, err)
		_, err = cb.Do(ctx, req)
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestStateToFloat(t *testing.T) {
	assert.Equal(t, 0.0, stateToFloat(gobreaker.StateClosed))
	assert.Equal(t, 1.0, stateToFloat(gobreaker.StateHalfOpen))
	assert.Equal(t, 2.0, stateToFloat(gobreaker.StateOpen))
}
