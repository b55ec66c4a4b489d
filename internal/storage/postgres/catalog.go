package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/eshop-basket/internal/domain/catalog"
)

const (
	getCatalogItemsByIDsSQL = `SELECT id, name, price FROM catalog_items WHERE id = ANY($1)`

	upsertCatalogItemSQL = `INSERT INTO catalog_items (id, name, price) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price`
)

var _ catalog.Lookup = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Lookup backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ResolveMany returns the catalog items matching ids, keyed by id. Unknown ids
// are absent from the result.
func (r *CatalogRepository) ResolveMany(ctx context.Context, ids []int) (map[int]catalog.Item, error) {
	if len(ids) == 0 {
		return map[int]catalog.Item{}, nil
	}

	rows, err := r.pool.Query(ctx, getCatalogItemsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting catalog items by ids: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanCatalogItem)
	if err != nil {
		return nil, fmt.Errorf("getting catalog items by ids: %w", err)
	}

	out := make(map[int]catalog.Item, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

// Upsert inserts items or updates their name and price.
func (r *CatalogRepository) Upsert(ctx context.Context, items []catalog.Item) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(upsertCatalogItemSQL, it.ID, it.Name, it.Price)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting catalog items: %w", err)
	}
	return nil
}

// Ping checks connectivity to the database.
func (r *CatalogRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanCatalogItem(row pgx.CollectableRow) (catalog.Item, error) {
	var (
		it    catalog.Item
		price decimal.Decimal
	)
	err := row.Scan(&it.ID, &it.Name, &price)
	it.Price = price
	return it, err
}
