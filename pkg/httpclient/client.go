package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Config holds HTTP client configuration.
type Config struct {
	Timeout         time.Duration
	MaxRetries      int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	MaxConnsPerHost int
}

// DefaultConfig suits small JSON lookups against a single upstream.
func DefaultConfig() Config {
	return Config{
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 50,
	}
}

// Doer executes HTTP requests. Both Client and CircuitBreakerClient satisfy it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client is an http.Client with bounded retries and trace propagation.
type Client struct {
	http *http.Client
	cfg  Config
}

// New creates a Client with a pooled transport sized by cfg.
func New(cfg Config) *Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &Client{
		http: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		cfg:  cfg,
	}
}

// Do sends req with the trace context of ctx in its headers. Transport
// errors, 429 and 5xx other than 501 are retried up to MaxRetries times with
// exponential backoff; a Retry-After header, capped at RetryWaitMax, takes
// precedence. When retries run out the last response is returned as is.
// Requests with a body must set GetBody to be retried.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	for attempt := 0; ; attempt++ {
		resp, err := c.http.Do(req)
		last := attempt >= c.cfg.MaxRetries

		switch {
		case err != nil && (last || !isRetryableError(err)):
			return nil, fmt.Errorf("http request failed after %d attempts: %w", attempt+1, err)
		case err == nil && (last || !retryableStatus(resp.StatusCode)):
			return resp, nil
		}

		wait := c.backoff(attempt + 1)
		if resp != nil {
			if after, ok := retryAfter(resp, c.cfg.RetryWaitMax); ok {
				wait = after
			}
			_ = resp.Body.Close()
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewind request body: %w", err)
			}
			req.Body = body
		}
	}
}

// Get performs a GET request with retries.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create GET request: %w", err)
	}
	return c.Do(ctx, req)
}

// backoff is RetryWaitMin doubled per attempt, capped at RetryWaitMax.
func (c *Client) backoff(attempt int) time.Duration {
	wait := c.cfg.RetryWaitMin << uint(min(attempt-1, 30))
	if c.cfg.RetryWaitMax > 0 && wait > c.cfg.RetryWaitMax {
		wait = c.cfg.RetryWaitMax
	}
	return wait
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		(code >= http.StatusInternalServerError && code != http.StatusNotImplemented)
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(resp *http.Response, limit time.Duration) (time.Duration, bool) {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0, false
	}
	wait := time.Duration(secs) * time.Second
	if limit > 0 && wait > limit {
		wait = limit
	}
	return wait, true
}

// isRetryableError reports whether err is a transport failure worth retrying.
// Cancellation and deadline errors never are.
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
