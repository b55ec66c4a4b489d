package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/eshop-basket/internal/domain/basket"
)

const (
	getBasketSQL = `SELECT items FROM baskets WHERE buyer_id = $1`

	upsertBasketSQL = `INSERT INTO baskets (buyer_id, items, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (buyer_id) DO UPDATE SET items = EXCLUDED.items, updated_at = now()
		RETURNING items`

	deleteBasketSQL = `DELETE FROM baskets WHERE buyer_id = $1`
)

var _ basket.Store = (*BasketStore)(nil)

// BasketStore implements basket.Store backed by PostgreSQL. Lines are kept in
// a JSONB column, one row per buyer.
type BasketStore struct {
	pool *pgxpool.Pool
}

// NewBasketStore returns a BasketStore that uses the given pool.
func NewBasketStore(pool *pgxpool.Pool) *BasketStore {
	return &BasketStore{pool: pool}
}

// Get returns the basket of buyerID, or nil when there is none.
func (s *BasketStore) Get(ctx context.Context, buyerID string) (*basket.CustomerBasket, error) {
	var raw []byte
	if err := s.pool.QueryRow(ctx, getBasketSQL, buyerID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting basket: %w", err)
	}

	items, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}
	return &basket.CustomerBasket{BuyerID: buyerID, Items: items}, nil
}

// Update upserts the basket and returns the stored state. Baskets without a
// buyer id cannot be stored and yield nil.
func (s *BasketStore) Update(ctx context.Context, b *basket.CustomerBasket) (*basket.CustomerBasket, error) {
	if b == nil || b.BuyerID == "" {
		return nil, nil
	}

	items := b.Items
	if items == nil {
		items = []basket.Item{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshaling basket items: %w", err)
	}

	var raw []byte
	if err := s.pool.QueryRow(ctx, upsertBasketSQL, b.BuyerID, itemsJSON).Scan(&raw); err != nil {
		return nil, fmt.Errorf("updating basket: %w", err)
	}

	stored, err := decodeItems(raw)
	if err != nil {
		return nil, err
	}
	return &basket.CustomerBasket{BuyerID: b.BuyerID, Items: stored}, nil
}

// Delete removes the basket of buyerID. Deleting a missing basket succeeds.
func (s *BasketStore) Delete(ctx context.Context, buyerID string) error {
	if _, err := s.pool.Exec(ctx, deleteBasketSQL, buyerID); err != nil {
		return fmt.Errorf("deleting basket: %w", err)
	}
	return nil
}

// Ping checks connectivity to the database.
func (s *BasketStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func decodeItems(raw []byte) ([]basket.Item, error) {
	items := []basket.Item{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshaling basket items: %w", err)
	}
	return items, nil
}
