// Package catalog talks to the storefront API for stock counts and product
// display attributes.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/rocketshoes/internal/domain"
	apperrors "github.com/utafrali/rocketshoes/pkg/errors"
	"github.com/utafrali/rocketshoes/pkg/httpclient"
	"github.com/utafrali/rocketshoes/pkg/tracing"
)

// maxBody caps how much of a successful response is decoded.
const maxBody = 1 << 20

// ErrMalformedResponse is returned when the API answers 2xx with a body that
// does not have the expected shape.
var ErrMalformedResponse = errors.New("malformed catalog response")

// CircuitOpenFallback converts a rejected request into a 503-style AppError.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("catalog API is temporarily unavailable")
}

// Client looks up stock and product data over HTTP.
type Client struct {
	baseURL string
	http    httpclient.Doer
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewClient creates a catalog client rooted at baseURL (for example
// "http://localhost:3333"). doer is usually a circuit-breaking httpclient.
func NewClient(baseURL string, doer httpclient.Doer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		tracer:  tracing.Tracer("catalog"),
		logger:  logger,
	}
}

type stockResponse struct {
	ID     *int64 `json:"id"`
	Amount *int   `json:"amount"`
}

// Stock returns the available quantity for productID via GET /stock/{id}.
func (c *Client) Stock(ctx context.Context, productID int64) (domain.Stock, error) {
	ctx, span := c.startSpan(ctx, "catalog.Stock", productID)
	defer span.End()

	var body stockResponse
	if err := c.get(ctx, "stock", productID, &body); err != nil {
		recordError(span, err)
		return domain.Stock{}, err
	}
	if body.ID != nil && *body.ID != productID {
		err := fmt.Errorf("%w: asked for stock %d, got %d", ErrMalformedResponse, productID, *body.ID)
		recordError(span, err)
		return domain.Stock{}, err
	}
	if body.Amount == nil || *body.Amount < 0 {
		err := fmt.Errorf("%w: stock %d has no usable amount", ErrMalformedResponse, productID)
		recordError(span, err)
		return domain.Stock{}, err
	}

	span.SetAttributes(attribute.Int("stock.amount", *body.Amount))
	return domain.Stock{ID: productID, Amount: *body.Amount}, nil
}

// Product returns display attributes for productID via GET /products/{id}.
func (c *Client) Product(ctx context.Context, productID int64) (domain.Product, error) {
	ctx, span := c.startSpan(ctx, "catalog.Product", productID)
	defer span.End()

	var p domain.Product
	if err := c.get(ctx, "products", productID, &p); err != nil {
		recordError(span, err)
		return domain.Product{}, err
	}
	if p.ID != productID {
		err := fmt.Errorf("%w: asked for product %d, got %d", ErrMalformedResponse, productID, p.ID)
		recordError(span, err)
		return domain.Product{}, err
	}
	return p, nil
}

func (c *Client) get(ctx context.Context, resource string, productID int64, dst any) error {
	id := strconv.FormatInt(productID, 10)
	url := c.baseURL + "/" + resource + "/" + id

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call catalog %s: %w", resource, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// ParseResponseError closes the body.
		return httpclient.ParseResponseError(resp, resource, id)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", ErrMalformedResponse, resource, id, err)
	}

	c.logger.DebugContext(ctx, "catalog lookup",
		slog.String("resource", resource),
		slog.Int64("product_id", productID),
	)
	return nil
}

func (c *Client) startSpan(ctx context.Context, name string, productID int64) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int64("product.id", productID)),
	)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
