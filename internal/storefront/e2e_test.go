package storefront_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/eshop-basket/internal/basketrpc"
	"github.com/xenking/eshop-basket/internal/basketrpc/basketrpctest"
	"github.com/xenking/eshop-basket/internal/domain/basket"
	"github.com/xenking/eshop-basket/internal/domain/catalog"
	"github.com/xenking/eshop-basket/internal/domain/order"
	"github.com/xenking/eshop-basket/internal/identity"
	"github.com/xenking/eshop-basket/internal/storage/memory"
	"github.com/xenking/eshop-basket/internal/storefront"
)

type staticCatalog map[int]catalog.Item

func (c staticCatalog) ResolveMany(_ context.Context, ids []int) (map[int]catalog.Item, error) {
	out := make(map[int]catalog.Item, len(ids))
	for _, id := range ids {
		if it, ok := c[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

type recordingOrders struct {
	reqs []order.CreateOrderRequest
}

func (r *recordingOrders) Submit(_ context.Context, req order.CreateOrderRequest, _ uuid.UUID) error {
	r.reqs = append(r.reqs, req)
	return nil
}

func TestState_AddAndRemoveThroughBasketService(t *testing.T) {
	store := memory.NewBasketStore()
	client := basketrpc.NewClient(basketrpctest.Dial(t, store))
	products := staticCatalog{42: {ID: 42, Name: "Mug", Price: decimal.RequireFromString("4.50")}}
	s := storefront.New(client, products, &recordingOrders{})
	ctx := identity.WithUser(context.Background(), identity.User{ID: "U1", Name: "alice"})

	stored := func() []basket.Item {
		b, err := store.Get(ctx, "U1")
		require.NoError(t, err)
		require.NotNil(t, b)
		return b.Items
	}

	require.NoError(t, s.Add(ctx, 42))
	assert.Equal(t, []basket.Item{{ProductID: 42, Quantity: 1}}, stored())

	require.NoError(t, s.Add(ctx, 42))
	assert.Equal(t, []basket.Item{{ProductID: 42, Quantity: 2}}, stored())

	items, err := s.GetItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mug", items[0].ProductName)
	assert.Equal(t, 2, items[0].Quantity)

	require.NoError(t, s.SetQuantity(ctx, 42, 0))
	assert.Empty(t, stored())
}

func TestState_CheckoutThroughBasketService(t *testing.T) {
	store := memory.NewBasketStore()
	client := basketrpc.NewClient(basketrpctest.Dial(t, store))
	products := staticCatalog{7: {ID: 7, Name: "Name7", Price: decimal.RequireFromString("9.99")}}
	orders := &recordingOrders{}
	s := storefront.New(client, products, orders)
	ctx := identity.WithUser(context.Background(), identity.User{ID: "U1", Name: "alice"})

	_, err := store.Update(ctx, &basket.CustomerBasket{
		BuyerID: "U1",
		Items:   []basket.Item{{ProductID: 7, Quantity: 3}},
	})
	require.NoError(t, err)

	require.NoError(t, s.Checkout(ctx, &order.CheckoutInfo{City: "Seattle"}))

	require.Len(t, orders.reqs, 1)
	require.Len(t, orders.reqs[0].Items, 1)
	line := orders.reqs[0].Items[0]
	assert.Equal(t, 7, line.ProductID)
	assert.Equal(t, "Name7", line.ProductName)
	assert.True(t, line.UnitPrice.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, 3, line.Quantity)

	b, err := store.Get(ctx, "U1")
	require.NoError(t, err)
	assert.Nil(t, b)
}
