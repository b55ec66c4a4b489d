package storefront

import (
	"context"
	"fmt"

	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InstrumentationName names the tracer and meter of the storefront basket.
const InstrumentationName = "eshop.webapp.basket"

type instruments struct {
	tracer   trace.Tracer
	items    metric.Int64Counter
	duration metric.Float64Histogram
}

func newInstruments(tp trace.TracerProvider, mp metric.MeterProvider) *instruments {
	meter := mp.Meter(InstrumentationName)

	items, err := meter.Int64Counter("basket_items_total",
		metric.WithUnit("{items}"),
		metric.WithDescription("Total number of items added to basket"),
	)
	if err != nil {
		otel.Handle(err)
		items = metricnoop.Int64Counter{}
	}

	duration, err := meter.Float64Histogram("basket_operation_duration_seconds",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of basket operations"),
	)
	if err != nil {
		otel.Handle(err)
		duration = metricnoop.Float64Histogram{}
	}

	return &instruments{
		tracer:   tp.Tracer(InstrumentationName),
		items:    items,
		duration: duration,
	}
}

func (i *instruments) count(ctx context.Context, attrs ...attribute.KeyValue) {
	i.items.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// observe runs fn inside a span named after op and records its outcome:
// duration on success, an error count with the error type on failure. The
// error of fn is returned unchanged so callers decide whether to retry.
func (s *State) observe(ctx context.Context, op string, fn func(ctx context.Context, span trace.Span) error) error {
	start := s.now()
	ctx, span := s.inst.tracer.Start(ctx, "basket."+op)
	defer span.End()

	err := fn(ctx, span)
	if err != nil {
		s.inst.count(ctx,
			attribute.String("operation", op),
			attribute.String("operation_status", "error"),
			attribute.String("error_type", fmt.Sprintf("%T", err)),
		)
		span.SetAttributes(
			attribute.String("operation.status", "error"),
			attribute.String("error.message", err.Error()),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		zctx.From(ctx).Warn("Basket operation failed", zap.String("operation", op), zap.Error(err))
		return err
	}

	s.inst.duration.Record(ctx, s.now().Sub(start).Seconds(),
		metric.WithAttributes(attribute.String("operation", op)),
	)
	span.SetAttributes(attribute.String("operation.status", "success"))
	return nil
}
