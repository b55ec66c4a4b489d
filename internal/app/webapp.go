package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/xenking/eshop-basket/internal/basketrpc"
	"github.com/xenking/eshop-basket/internal/orderingapi"
	"github.com/xenking/eshop-basket/internal/storage/postgres"
	"github.com/xenking/eshop-basket/internal/storefront"
	"github.com/xenking/eshop-basket/internal/webapp"
	"github.com/xenking/eshop-basket/pkg/health"
	"github.com/xenking/eshop-basket/pkg/httpmiddleware"
	"github.com/xenking/eshop-basket/pkg/ratelimit"
)

// RunWebapp serves the storefront basket API until ctx is done.
func RunWebapp(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *WebappConfig) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("basket_addr", cfg.BasketAddr),
	)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	catalog := postgres.NewCatalogRepository(pool)

	conn, err := grpc.NewClient(cfg.BasketAddr, basketrpc.DialOptions(m.TracerProvider(), m.MeterProvider())...)
	if err != nil {
		return errors.Wrap(err, "dial basket service")
	}
	defer func() { _ = conn.Close() }()
	basketClient := basketrpc.NewClient(conn)

	orders, err := orderingapi.NewClient(cfg.OrderingURL,
		orderingapi.WithTracerProvider(m.TracerProvider()),
		orderingapi.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create ordering client")
	}

	sessions := webapp.NewSessions(cfg.SessionTTL, func() *storefront.State {
		return storefront.New(basketClient, catalog, orders,
			storefront.WithTracerProvider(m.TracerProvider()),
			storefront.WithMeterProvider(m.MeterProvider()),
		)
	})
	go sessions.Run(ctx)

	limiter := ratelimit.New(cfg.RateLimit)
	go limiter.Run(ctx)

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("catalog", 5*time.Second, health.PingCheck(catalog))
	healthSvc.AddReadinessCheck("basket", 5*time.Second, basketServing(healthpb.NewHealthClient(conn)))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	router := mux.NewRouter()
	router.HandleFunc("/livez", healthSvc.LiveEndpoint).Methods(http.MethodGet)
	router.HandleFunc("/readyz", healthSvc.ReadyEndpoint).Methods(http.MethodGet)
	router.Use(mux.MiddlewareFunc(httpmiddleware.LogRequests()))
	webapp.NewHandler(sessions).Register(router)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(
			httpmiddleware.Wrap(router,
				httpmiddleware.RequestID(),
				httpmiddleware.InjectLogger(zctx.From(ctx)),
				httpmiddleware.Recovery(),
				httpmiddleware.RateLimit(limiter, nil),
			),
			"webapp",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// basketServing checks the gRPC health status of the Basket service.
func basketServing(client healthpb.HealthClient) health.CheckFunc {
	return func(ctx context.Context) error {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: basketrpc.ServiceName})
		if err != nil {
			return errors.Wrap(err, "check basket service")
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			return errors.Errorf("basket service is %s", resp.GetStatus())
		}
		return nil
	}
}
