package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
	"github.com/utafrali/rocketshoes/pkg/httpclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastHTTP() *httpclient.Client {
	return httpclient.New(httpclient.Config{
		Timeout:         2 * time.Second,
		MaxRetries:      1,
		RetryWaitMin:    time.Millisecond,
		RetryWaitMax:    2 * time.Millisecond,
		MaxConnsPerHost: 4,
	})
}

// newAPI serves a fixed body per path and counts requests.
func newAPI(t *testing.T, routes map[string]func(w http.ResponseWriter)) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		h, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{}`))
			return
		}
		h(w)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", fastHTTP(), testLogger()), &hits
}

func body(status int, s string) func(http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(s))
	}
}

// ============================================================================
// Stock
// ============================================================================

func TestStock_Success(t *testing.T) {
	c, _ := newAPI(t, map[string]func(http.ResponseWriter){
		"/stock/1": body(http.StatusOK, `{"id":1,"amount":10}`),
	})

	s, err := c.Stock(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.ID)
	assert.Equal(t, 10, s.Amount)
}

func TestStock_ZeroIsValid(t *testing.T) {
	c, _ := newAPI(t, map[string]func(http.ResponseWriter){
		"/stock/6": body(http.StatusOK, `{"id":6,"amount":0}`),
	})

	s, err := c.Stock(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Amount)
}

func TestStock_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing amount", `{"id":1}`},
		{"null amount", `{"id":1,"amount":null}`},
		{"negative amount", `{"id":1,"amount":-3}`},
		{"string amount", `{"id":1,"amount":"ten"}`},
		{"not json", `<html>`},
		{"wrong id", `{"id":2,"amount":5}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newAPI(t, map[string]func(http.ResponseWriter){
				"/stock/1": body(http.StatusOK, tc.body),
			})

			_, err := c.Stock(context.Background(), 1)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestStock_NotFound(t *testing.T) {
	c, _ := newAPI(t, nil)

	_, err := c.Stock(context.Background(), 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, err.Error(), "stock with id 42 not found")
}

func TestStock_ServerErrorIsRetriedThenFails(t *testing.T) {
	c, hits := newAPI(t, map[string]func(http.ResponseWriter){
		"/stock/1": body(http.StatusInternalServerError, `oops`),
	})

	_, err := c.Stock(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

// ============================================================================
// Product
// ============================================================================

func TestProduct_Success(t *testing.T) {
	c, _ := newAPI(t, map[string]func(http.ResponseWriter){
		"/products/2": body(http.StatusOK,
			`{"id":2,"title":"Tênis VR Caminhada","price":139.9,"image":"https://img/2.jpg","amount":99,"brand":"VR"}`),
	})

	p, err := c.Product(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.ID)
	assert.Equal(t, "Tênis VR Caminhada", p.Title)
	assert.Equal(t, "139.9", p.Price.Decimal.String())
	assert.Equal(t, "https://img/2.jpg", p.Image)
	assert.JSONEq(t, `"VR"`, string(p.Attributes["brand"]))
	assert.NotContains(t, p.Attributes, "amount")
}

func TestProduct_IDMismatch(t *testing.T) {
	c, _ := newAPI(t, map[string]func(http.ResponseWriter){
		"/products/2": body(http.StatusOK, `{"id":3,"title":"wrong"}`),
	})

	_, err := c.Product(context.Background(), 2)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestProduct_MissingID(t *testing.T) {
	c, _ := newAPI(t, map[string]func(http.ResponseWriter){
		"/products/2": body(http.StatusOK, `{"title":"no id"}`),
	})

	_, err := c.Product(context.Background(), 2)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestProduct_RateLimited(t *testing.T) {
	c, _ := newAPI(t, map[string]func(http.ResponseWriter){
		"/products/2": body(http.StatusTooManyRequests, `slow down`),
	})

	_, err := c.Product(context.Background(), 2)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
}

// ============================================================================
// Circuit breaker and tracing
// ============================================================================

func TestClient_CircuitOpenUsesFallback(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	cbCfg := httpclient.DefaultCircuitBreakerConfig("catalog-test-open")
	cbCfg.MinRequests = 2
	cbCfg.Timeout = time.Minute
	breaker := httpclient.NewCircuitBreakerClient(httpclient.New(httpclient.Config{
		Timeout:         time.Second,
		MaxConnsPerHost: 2,
	}), cbCfg, testLogger()).WithFallback(CircuitOpenFallback)

	c := NewClient(srv.URL, breaker, testLogger())
	for i := 0; i < 2; i++ {
		_, err := c.Stock(context.Background(), 1)
		require.Error(t, err)
	}
	before := atomic.LoadInt32(&hits)

	_, err := c.Stock(context.Background(), 1)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	assert.Equal(t, before, atomic.LoadInt32(&hits), "open breaker must not reach the API")
}

func TestClient_RecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	c, _ := newAPI(t, map[string]func(http.ResponseWriter){
		"/stock/1": body(http.StatusOK, `{"id":1,"amount":3}`),
	})

	_, err := c.Stock(context.Background(), 1)
	require.NoError(t, err)
	_, err = c.Product(context.Background(), 9)
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "catalog.Stock", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	assert.Equal(t, "catalog.Product", spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
}
