package basketrpc

import (
	"context"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/xenking/eshop-basket/internal/identity"
	"github.com/xenking/eshop-basket/pkg/httpmiddleware"
	"github.com/xenking/eshop-basket/pkg/ratelimit"
)

// MetadataRequestID carries the request id between services.
const MetadataRequestID = "x-request-id"

// ServerInterceptors returns the interceptor chain of the Basket service, in
// order: logger injection, panic recovery, caller identity, rate limiting.
// A nil limiter disables rate limiting.
func ServerInterceptors(lg *zap.Logger, limiter *ratelimit.Limiter) []grpc.UnaryServerInterceptor {
	chain := []grpc.UnaryServerInterceptor{
		InjectLogger(lg),
		Recovery(),
		Identity(),
	}
	if limiter != nil {
		chain = append(chain, RateLimit(limiter))
	}
	return chain
}

// InjectLogger stores a request scoped logger in the context, tagged with the
// method and request id, and logs the outcome of every call.
func InjectLogger(lg *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := requestIDFromMetadata(ctx)
		ctx = zctx.Base(ctx, lg.With(
			zap.String("method", info.FullMethod),
			zap.String("request_id", requestID),
		))

		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.Stringer("code", code),
			zap.Duration("duration", time.Since(start)),
		}
		switch code {
		case codes.OK, codes.NotFound, codes.Unauthenticated, codes.InvalidArgument:
			zctx.From(ctx).Debug("Call finished", fields...)
		default:
			zctx.From(ctx).Warn("Call failed", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}

// Recovery converts handler panics into codes.Internal.
func Recovery() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				zctx.From(ctx).Error("panic recovered",
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

// Identity copies the caller from request metadata into the context.
func Identity() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return handler(identity.WithUser(ctx, identity.FromIncomingMetadata(ctx)), req)
	}
}

// RateLimit rejects calls over the per-caller limit with
// codes.ResourceExhausted. Callers are keyed by user id, or by peer address
// when anonymous.
func RateLimit(l *ratelimit.Limiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		key := identity.FromContext(ctx).ID
		if key == "" {
			if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
				key = p.Addr.String()
			}
		}
		if res := l.Allow(key, time.Now()); !res.Allowed {
			return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded, retry in %s", res.RetryAfter.Round(time.Second))
		}
		return handler(ctx, req)
	}
}

// ClientInterceptor forwards the caller identity and request id of ctx on
// outgoing calls.
func ClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = identity.AppendOutgoingMetadata(ctx)
		if id := httpmiddleware.RequestIDFromContext(ctx); id != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, MetadataRequestID, id)
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func requestIDFromMetadata(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(MetadataRequestID); len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	return uuid.New().String()
}
