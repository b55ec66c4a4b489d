// Package basket holds the storage model of a buyer's shopping basket.
package basket

import (
	"context"
	"fmt"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/store.go -package=mocks . Store

// Item is a single basket line as stored: a product and a positive quantity.
type Item struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// CustomerBasket is the persisted basket of one buyer. Product ids are unique
// within Items and the order of Items is preserved.
type CustomerBasket struct {
	BuyerID string
	Items   []Item
}

// Store is the system of record for baskets, keyed by buyer id.
type Store interface {
	// Get returns the basket of buyerID, or nil when the buyer has none.
	Get(ctx context.Context, buyerID string) (*CustomerBasket, error)
	// Update replaces the full item list of the basket and returns the stored
	// basket. A nil basket means the store could not locate or create it.
	Update(ctx context.Context, b *CustomerBasket) (*CustomerBasket, error)
	// Delete removes the basket. Deleting a missing basket is not an error.
	Delete(ctx context.Context, buyerID string) error
}

// InvalidQuantityError indicates a basket line with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID int
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity %d for product %d must be greater than 0", e.Quantity, e.ProductID)
}

// DuplicateProductError indicates the same product appears on two lines.
type DuplicateProductError struct {
	ProductID int
}

func (e *DuplicateProductError) Error() string {
	return fmt.Sprintf("product %d appears more than once", e.ProductID)
}

// Validate checks the item list of a basket before it is persisted.
func Validate(items []Item) error {
	seen := make(map[int]struct{}, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return &InvalidQuantityError{ProductID: it.ProductID, Quantity: it.Quantity}
		}
		if _, ok := seen[it.ProductID]; ok {
			return &DuplicateProductError{ProductID: it.ProductID}
		}
		seen[it.ProductID] = struct{}{}
	}
	return nil
}

// ProductIDs returns the distinct product ids of items in line order.
func ProductIDs(items []Item) []int {
	ids := make([]int, 0, len(items))
	seen := make(map[int]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}
