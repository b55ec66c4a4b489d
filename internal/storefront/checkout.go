package storefront

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/eshop-basket/internal/domain/order"
	"github.com/xenking/eshop-basket/internal/identity"
)

// Checkout submits the current basket as an order and clears the basket.
//
// A zero info.RequestID is replaced with a fresh id before anything is sent,
// so a caller retrying with the same info reuses the idempotency token. The
// order is accepted once Submit succeeds: failing to delete the basket
// afterwards is logged and not reported.
func (s *State) Checkout(ctx context.Context, info *order.CheckoutInfo) error {
	if info == nil {
		return ErrNoCheckoutInfo
	}
	user := identity.FromContext(ctx)
	if user.ID == "" {
		return ErrNoBuyerID
	}
	if user.Name == "" {
		return ErrNoUserName
	}
	if info.RequestID == uuid.Nil {
		info.RequestID = uuid.New()
	}

	return s.observe(ctx, "checkout", func(ctx context.Context, span trace.Span) error {
		span.SetAttributes(
			attribute.String("user.id", identity.MaskID(user.ID)),
			attribute.String("request.id", info.RequestID.String()),
		)

		items, err := s.fetchItems(ctx)
		if err != nil {
			return err
		}

		req := order.CreateOrderRequest{
			UserID:             user.ID,
			UserName:           user.Name,
			City:               info.City,
			Street:             info.Street,
			State:              info.State,
			Country:            info.Country,
			ZipCode:            info.ZipCode,
			CardNumber:         order.TestCardNumber,
			CardHolderName:     order.TestCardHolderName,
			CardExpiration:     s.now().UTC().AddDate(1, 0, 0),
			CardSecurityNumber: order.TestCardSecurityNumber,
			CardTypeID:         info.CardTypeID,
			Buyer:              user.ID,
			Items:              orderItems(items),
		}

		s.invalidate()
		if err := s.orders.Submit(ctx, req, info.RequestID); err != nil {
			return err
		}
		if err := s.basket.DeleteBasket(ctx); err != nil {
			zctx.From(ctx).Warn("Order submitted but basket was not cleared",
				zap.String("request_id", info.RequestID.String()),
				zap.Error(err),
			)
		}

		s.notifyChanged(ctx)
		return nil
	})
}

func orderItems(items []Item) []order.Item {
	out := make([]order.Item, 0, len(items))
	for _, it := range items {
		out = append(out, order.Item{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
		})
	}
	return out
}
