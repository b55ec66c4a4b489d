package basketrpc

import (
	"context"
	"math"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/xenking/eshop-basket/internal/domain/basket"
)

// Errors returned by Client for the distinguishable service statuses.
var (
	ErrUnauthenticated = errors.New("basket: caller is not authenticated")
	ErrBasketNotFound  = errors.New("basket: basket does not exist")
	ErrOutOfRange      = errors.New("basket: value does not fit the wire format")
)

// Client calls the Basket service on behalf of the caller in the context.
type Client struct {
	stub BasketClient
}

// NewClient wraps a connection created with DialOptions.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{stub: NewBasketClient(cc)}
}

// DialOptions returns the options every Basket service connection needs:
// plaintext transport, identity forwarding and OpenTelemetry instrumentation.
func DialOptions(tp trace.TracerProvider, mp metric.MeterProvider) []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(ClientInterceptor()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler(
			otelgrpc.WithTracerProvider(tp),
			otelgrpc.WithMeterProvider(mp),
		)),
	}
}

// GetBasket returns the caller's basket lines.
func (c *Client) GetBasket(ctx context.Context) ([]basket.Item, error) {
	resp, err := c.stub.GetBasket(ctx, &GetBasketRequest{})
	if err != nil {
		return nil, mapStatus(err, "get basket")
	}
	return fromWire(resp.Items), nil
}

// UpdateBasket replaces the caller's basket with items. Product ids and
// quantities must fit the 32-bit wire fields.
func (c *Client) UpdateBasket(ctx context.Context, items []basket.Item) error {
	req := &UpdateBasketRequest{Items: make([]BasketItem, len(items))}
	for i, it := range items {
		if !fitsInt32(it.ProductID) || !fitsInt32(it.Quantity) {
			return errors.Wrapf(ErrOutOfRange, "item %d", i)
		}
		req.Items[i] = BasketItem{
			ProductID: int32(it.ProductID),
			Quantity:  int32(it.Quantity),
		}
	}
	if _, err := c.stub.UpdateBasket(ctx, req); err != nil {
		return mapStatus(err, "update basket")
	}
	return nil
}

// DeleteBasket removes the caller's basket.
func (c *Client) DeleteBasket(ctx context.Context) error {
	if _, err := c.stub.DeleteBasket(ctx, &DeleteBasketRequest{}); err != nil {
		return mapStatus(err, "delete basket")
	}
	return nil
}

func fitsInt32(v int) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}

func fromWire(items []BasketItem) []basket.Item {
	out := make([]basket.Item, len(items))
	for i, it := range items {
		out[i] = basket.Item{
			ProductID: int(it.ProductID),
			Quantity:  int(it.Quantity),
		}
	}
	return out
}

func mapStatus(err error, op string) error {
	switch status.Code(err) {
	case codes.Unauthenticated:
		return errors.Wrap(ErrUnauthenticated, op)
	case codes.NotFound:
		return errors.Wrap(ErrBasketNotFound, op)
	default:
		return errors.Wrap(err, op)
	}
}
