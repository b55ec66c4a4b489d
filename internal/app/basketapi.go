// Package app wires the basket-api and webapp processes.
package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/xenking/eshop-basket/internal/basketrpc"
	"github.com/xenking/eshop-basket/internal/domain/basket"
	"github.com/xenking/eshop-basket/internal/storage/memory"
	"github.com/xenking/eshop-basket/internal/storage/postgres"
	"github.com/xenking/eshop-basket/pkg/health"
	"github.com/xenking/eshop-basket/pkg/ratelimit"
)

type pingableStore interface {
	basket.Store
	health.Pinger
}

// RunBasketAPI serves the Basket gRPC service until ctx is done, then drains
// in-flight calls.
func RunBasketAPI(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *BasketAPIConfig) error {
	lg.Info("Initializing", zap.String("grpc_addr", cfg.GRPCAddr))

	var store pingableStore
	if cfg.DatabaseURL == "" {
		lg.Warn("No database configured, baskets are kept in memory")
		store = memory.NewBasketStore()
	} else {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		store = postgres.NewBasketStore(pool)
	}

	limiter := ratelimit.New(cfg.RateLimit)
	go limiter.Run(ctx)

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("store", 5*time.Second, health.PingCheck(store))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler(
			otelgrpc.WithTracerProvider(m.TracerProvider()),
			otelgrpc.WithMeterProvider(m.MeterProvider()),
		)),
		grpc.ChainUnaryInterceptor(basketrpc.ServerInterceptors(lg, limiter)...),
	)
	basketrpc.RegisterBasketServer(srv, basketrpc.NewService(store, m.TracerProvider()))

	grpcHealth := grpchealth.NewServer()
	healthpb.RegisterHealthServer(srv, grpcHealth)
	health.MirrorToGRPC(healthSvc, grpcHealth, basketrpc.ServiceName)

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	probeMux := http.NewServeMux()
	probeMux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	probeMux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	probes := &http.Server{
		Addr:              cfg.HealthAddr,
		Handler:           probeMux,
		ReadHeaderTimeout: time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return errors.Wrap(err, "listen")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Basket service listening", zap.String("addr", lis.Addr().String()))
		if err := srv.Serve(lis); err != nil {
			return errors.Wrap(err, "grpc serve")
		}
		return nil
	})
	g.Go(func() error {
		if err := probes.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "health server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		gracefulStop(srv, cfg.Graceful.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()
		if err := probes.Shutdown(shutdownCtx); err != nil {
			lg.Error("Health server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})

	return g.Wait()
}

// gracefulStop waits for in-flight calls up to timeout, then closes the
// remaining connections.
func gracefulStop(srv *grpc.Server, timeout time.Duration) {
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-stopped:
	case <-t.C:
		srv.Stop()
		<-stopped
	}
}
