// Command seed-db creates the schema and loads catalog items.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/eshop-basket/db"
	"github.com/xenking/eshop-basket/internal/domain/catalog"
	"github.com/xenking/eshop-basket/internal/storage/postgres"
)

type catalogItemJSON struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func main() {
	var (
		databaseURL string
		catalogFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "", "path to catalog JSON file (defaults to the embedded catalog)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	items, err := readCatalog(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog")
	}

	slog.Info("upserting catalog items", slog.Int("count", len(items)))

	if err := postgres.NewCatalogRepository(pool).Upsert(ctx, items); err != nil {
		return errors.Wrap(err, "upsert catalog")
	}
	return nil
}

func readCatalog(path string) ([]catalog.Item, error) {
	data := db.Catalog
	if path != "" {
		slog.Info("reading catalog file", slog.String("path", path))
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, errors.Wrap(err, "read catalog file")
		}
	}

	var raw []catalogItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse catalog JSON")
	}

	items := make([]catalog.Item, 0, len(raw))
	for _, it := range raw {
		if it.ID <= 0 || it.Name == "" || it.Price.IsNegative() {
			return nil, errors.Errorf("invalid catalog item %d %q", it.ID, it.Name)
		}
		items = append(items, catalog.Item{ID: it.ID, Name: it.Name, Price: it.Price})
	}
	return items, nil
}
