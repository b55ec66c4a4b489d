// Command webapp serves the storefront basket API backed by the Basket
// service, the catalog database and the ordering service.
package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	appkg "github.com/xenking/eshop-basket/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := appkg.LoadWebappConfig()
		if err != nil {
			return err
		}
		return appkg.RunWebapp(ctx, lg, m, cfg)
	})
}
