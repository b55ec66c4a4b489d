package basketrpc

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/xenking/eshop-basket/internal/domain/basket"
	"github.com/xenking/eshop-basket/internal/identity"
)

// InstrumentationName names the tracer of the Basket service.
const InstrumentationName = "eshop.basket.api"

var _ BasketServer = (*Service)(nil)

// Service is the Basket gRPC service. It authenticates the caller, maps wire
// messages to the basket model, and delegates persistence to a basket.Store.
// It keeps no state between calls.
type Service struct {
	UnimplementedBasketServer

	store  basket.Store
	tracer trace.Tracer
}

// NewService creates a Service backed by store.
func NewService(store basket.Store, tp trace.TracerProvider) *Service {
	return &Service{
		store:  store,
		tracer: tp.Tracer(InstrumentationName),
	}
}

// GetBasket returns the caller's basket. Anonymous callers and buyers
// without a basket get an empty response.
func (s *Service) GetBasket(ctx context.Context, _ *GetBasketRequest) (*CustomerBasketResponse, error) {
	ctx, span := s.tracer.Start(ctx, "BasketAPI/GetBasket")
	defer span.End()

	user := identity.FromContext(ctx)
	if !user.Authenticated() {
		return &CustomerBasketResponse{}, nil
	}

	masked := identity.MaskID(user.ID)
	span.SetAttributes(attribute.String("basket.user_id", masked))
	zctx.From(ctx).Debug("Get basket", zap.String("buyer", masked))

	b, err := s.store.Get(ctx, user.ID)
	if err != nil {
		return nil, internalError(ctx, errors.Wrap(err, "get basket"))
	}
	if b == nil {
		return &CustomerBasketResponse{}, nil
	}

	span.SetAttributes(attribute.Int("basket.items", len(b.Items)))
	return toResponse(b), nil
}

// UpdateBasket replaces the caller's basket with the requested items.
func (s *Service) UpdateBasket(ctx context.Context, req *UpdateBasketRequest) (*CustomerBasketResponse, error) {
	ctx, span := s.tracer.Start(ctx, "BasketAPI/UpdateBasket")
	defer span.End()

	user := identity.FromContext(ctx)
	if !user.Authenticated() {
		return nil, errNotAuthenticated()
	}

	masked := identity.MaskID(user.ID)
	span.SetAttributes(attribute.String("basket.user_id", masked))
	zctx.From(ctx).Debug("Update basket",
		zap.String("buyer", masked),
		zap.Int("items", len(req.Items)),
	)

	b := toCustomerBasket(user.ID, req)
	if err := basket.Validate(b.Items); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	stored, err := s.store.Update(ctx, b)
	if err != nil {
		return nil, internalError(ctx, errors.Wrap(err, "update basket"))
	}
	if stored == nil {
		span.SetAttributes(attribute.Bool("basket.updated", false))
		return nil, status.Errorf(codes.NotFound, "basket with buyer id %s does not exist", masked)
	}

	span.SetAttributes(attribute.Int("basket.items", len(stored.Items)))
	return toResponse(stored), nil
}

// DeleteBasket removes the caller's basket. It succeeds whether or not a
// basket existed.
func (s *Service) DeleteBasket(ctx context.Context, _ *DeleteBasketRequest) (*DeleteBasketResponse, error) {
	ctx, span := s.tracer.Start(ctx, "BasketAPI/DeleteBasket")
	defer span.End()

	user := identity.FromContext(ctx)
	if !user.Authenticated() {
		return nil, errNotAuthenticated()
	}

	masked := identity.MaskID(user.ID)
	span.SetAttributes(attribute.String("basket.user_id", masked))
	zctx.From(ctx).Debug("Delete basket", zap.String("buyer", masked))

	if err := s.store.Delete(ctx, user.ID); err != nil {
		return nil, internalError(ctx, errors.Wrap(err, "delete basket"))
	}
	return &DeleteBasketResponse{}, nil
}

func errNotAuthenticated() error {
	return status.Error(codes.Unauthenticated, "The caller is not authenticated.")
}

// internalError logs err and hides its details from the caller.
func internalError(ctx context.Context, err error) error {
	zctx.From(ctx).Error("Basket operation failed", zap.Error(err))
	trace.SpanFromContext(ctx).RecordError(err)
	return status.Error(codes.Internal, "internal error")
}

func toResponse(b *basket.CustomerBasket) *CustomerBasketResponse {
	resp := &CustomerBasketResponse{Items: make([]BasketItem, len(b.Items))}
	for i, it := range b.Items {
		resp.Items[i] = BasketItem{
			ProductID: int32(it.ProductID),
			Quantity:  int32(it.Quantity),
		}
	}
	return resp
}

func toCustomerBasket(buyerID string, req *UpdateBasketRequest) *basket.CustomerBasket {
	b := &basket.CustomerBasket{
		BuyerID: buyerID,
		Items:   make([]basket.Item, len(req.Items)),
	}
	for i, it := range req.Items {
		b.Items[i] = basket.Item{
			ProductID: int(it.ProductID),
			Quantity:  int(it.Quantity),
		}
	}
	return b
}
