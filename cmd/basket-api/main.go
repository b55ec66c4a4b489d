// Command basket-api serves the Basket gRPC service.
package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	appkg "github.com/xenking/eshop-basket/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := appkg.LoadBasketAPIConfig()
		if err != nil {
			return err
		}
		return appkg.RunBasketAPI(ctx, lg, m, cfg)
	})
}
