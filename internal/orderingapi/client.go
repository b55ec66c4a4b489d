// Package orderingapi submits orders to the ordering service over HTTP.
package orderingapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/eshop-basket/internal/domain/order"
	"github.com/xenking/eshop-basket/internal/identity"
)

// HeaderRequestID carries the idempotency key of an order submission.
const HeaderRequestID = "x-requestid"

const ordersPath = "/api/orders"

var _ order.Submitter = (*Client)(nil)

// StatusError is returned when the ordering service rejects a submission.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ordering service responded %d", e.StatusCode)
	}
	return fmt.Sprintf("ordering service responded %d: %s", e.StatusCode, e.Body)
}

type options struct {
	httpClient     *http.Client
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	timeout        time.Duration
}

// Option configures Client.
type Option func(*options)

// WithHTTPClient sets the underlying HTTP client. Its transport is wrapped
// with tracing.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTracerProvider sets the tracer provider for outgoing requests.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider for outgoing requests.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithTimeout bounds a single submission.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// Client implements order.Submitter.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient returns a client for the ordering service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse ordering url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("ordering url %q must be absolute", baseURL)
	}

	cfg := options{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
		timeout:        10 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	base := http.DefaultTransport
	if cfg.httpClient != nil && cfg.httpClient.Transport != nil {
		base = cfg.httpClient.Transport
	}
	hc := &http.Client{
		Timeout: cfg.timeout,
		Transport: otelhttp.NewTransport(base,
			otelhttp.WithTracerProvider(cfg.tracerProvider),
			otelhttp.WithMeterProvider(cfg.meterProvider),
		),
	}

	return &Client{
		endpoint: u.JoinPath(ordersPath).String(),
		http:     hc,
	}, nil
}

// Submit posts req as a new order. Any 2xx response is a success.
func (c *Client) Submit(ctx context.Context, req order.CreateOrderRequest, requestID uuid.UUID) error {
	e := jx.GetEncoder()
	encodeOrder(e, req)
	body := append([]byte(nil), e.Bytes()...)
	jx.PutEncoder(e)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(HeaderRequestID, requestID.String())
	if user := identity.FromContext(ctx); user.Authenticated() {
		httpReq.Header.Set(identity.HeaderUserID, user.ID)
		httpReq.Header.Set(identity.HeaderUserName, user.Name)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "submit order")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
}

func encodeOrder(e *jx.Encoder, req order.CreateOrderRequest) {
	e.ObjStart()
	e.FieldStart("userId")
	e.Str(req.UserID)
	e.FieldStart("userName")
	e.Str(req.UserName)
	e.FieldStart("city")
	e.Str(req.City)
	e.FieldStart("street")
	e.Str(req.Street)
	e.FieldStart("state")
	e.Str(req.State)
	e.FieldStart("country")
	e.Str(req.Country)
	e.FieldStart("zipCode")
	e.Str(req.ZipCode)
	e.FieldStart("cardNumber")
	e.Str(req.CardNumber)
	e.FieldStart("cardHolderName")
	e.Str(req.CardHolderName)
	e.FieldStart("cardExpiration")
	e.Str(req.CardExpiration.UTC().Format(time.RFC3339))
	e.FieldStart("cardSecurityNumber")
	e.Str(req.CardSecurityNumber)
	e.FieldStart("cardTypeId")
	e.Int(req.CardTypeID)
	e.FieldStart("buyer")
	e.Str(req.Buyer)
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range req.Items {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(it.ID)
		e.FieldStart("productId")
		e.Int(it.ProductID)
		e.FieldStart("productName")
		e.Str(it.ProductName)
		e.FieldStart("unitPrice")
		e.Num(jx.Num(it.UnitPrice.String()))
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}
