// Package basketrpctest runs the Basket service in memory for tests.
package basketrpctest

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/xenking/eshop-basket/internal/basketrpc"
	"github.com/xenking/eshop-basket/internal/domain/basket"
)

// Dial starts a Basket service backed by store on an in-memory listener and
// returns a client connection to it. Both are closed with the test.
func Dial(t testing.TB, store basket.Store) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(basketrpc.ServerInterceptors(zap.NewNop(), nil)...))
	basketrpc.RegisterBasketServer(srv, basketrpc.NewService(store, tracenoop.NewTracerProvider()))
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	opts := append(
		basketrpc.DialOptions(tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	conn, err := grpc.NewClient("passthrough:///bufnet", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}
