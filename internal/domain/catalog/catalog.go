package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Item is the catalog metadata needed to price a basket line.
type Item struct {
	ID    int
	Name  string
	Price decimal.Decimal
}

// Lookup resolves product ids to catalog items. Under correct operation the
// result holds an entry for every requested id.
type Lookup interface {
	ResolveMany(ctx context.Context, ids []int) (map[int]Item, error)
}

// MissingProductError reports a basket line whose product is unknown to the
// catalog.
type MissingProductError struct {
	ProductID int
}

func (e *MissingProductError) Error() string {
	return fmt.Sprintf("product %d not found in catalog", e.ProductID)
}
