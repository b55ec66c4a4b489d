// Package memory implements basket storage in process memory.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/eshop-basket/internal/domain/basket"
)

var _ basket.Store = (*BasketStore)(nil)

// BasketStore keeps baskets in a map keyed by buyer id. Stored baskets are
// copied on the way in and out so callers never share item slices.
type BasketStore struct {
	mu      sync.Mutex
	baskets map[string][]basket.Item
}

// NewBasketStore returns an empty store.
func NewBasketStore() *BasketStore {
	return &BasketStore{baskets: map[string][]basket.Item{}}
}

// Get returns the basket of buyerID, or nil when there is none.
func (s *BasketStore) Get(_ context.Context, buyerID string) (*basket.CustomerBasket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok := s.baskets[buyerID]
	if !ok {
		return nil, nil
	}
	return &basket.CustomerBasket{BuyerID: buyerID, Items: slices.Clone(items)}, nil
}

// Update upserts the basket. Baskets without a buyer id cannot be stored and
// yield nil.
func (s *BasketStore) Update(_ context.Context, b *basket.CustomerBasket) (*basket.CustomerBasket, error) {
	if b == nil || b.BuyerID == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := slices.Clone(b.Items)
	if items == nil {
		items = []basket.Item{}
	}
	s.baskets[b.BuyerID] = items
	return &basket.CustomerBasket{BuyerID: b.BuyerID, Items: slices.Clone(items)}, nil
}

// Delete removes the basket of buyerID.
func (s *BasketStore) Delete(_ context.Context, buyerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.baskets, buyerID)
	return nil
}

// Ping always succeeds; it lets the store take part in readiness checks.
func (s *BasketStore) Ping(context.Context) error {
	return nil
}
