package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck checks p.
func PingCheck(p Pinger) CheckFunc {
	return p.Ping
}

// GoroutineCountCheck returns a CheckFunc that reports unhealthy when the
// number of goroutines exceeds the given threshold. This is useful as a
// liveness check to detect goroutine leaks.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		count := runtime.NumGoroutine()
		if count > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", count, threshold)
		}
		return nil
	}
}

// MirrorToGRPC keeps the serving status of services on srv in line with
// h.IsReady. The empty service name stands for the whole server.
func MirrorToGRPC(h *Health, srv *grpchealth.Server, services ...string) {
	services = append([]string{""}, services...)
	h.OnReadinessChange(func(ready bool) {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if ready {
			status = healthpb.HealthCheckResponse_SERVING
		}
		for _, name := range services {
			srv.SetServingStatus(name, status)
		}
	})
}
