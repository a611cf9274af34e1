package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/bibbank/collections-service/internal/domain/event"
)

const instrumentationName = "github.com/bibbank/collections-service/internal/application/usecase"

// Telemetry wraps the tracer and instruments shared by the use cases.
type Telemetry struct {
	tracer    trace.Tracer
	events    metric.Int64Counter
	recovered metric.Float64Counter
}

// NewTelemetry builds the collections instruments from the given providers.
func NewTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*Telemetry, error) {
	meter := mp.Meter(instrumentationName)
	events, err := meter.Int64Counter("collections.transitions",
		metric.WithDescription("Domain events committed, by event type"))
	if err != nil {
		return nil, fmt.Errorf("create transitions counter: %w", err)
	}
	recovered, err := meter.Float64Counter("collections.recovered_amount",
		metric.WithDescription("Money recovered, by source"))
	if err != nil {
		return nil, fmt.Errorf("create recovered counter: %w", err)
	}
	return &Telemetry{
		tracer:    tp.Tracer(instrumentationName),
		events:    events,
		recovered: recovered,
	}, nil
}

// NoopTelemetry discards spans and measurements.
func NoopTelemetry() *Telemetry {
	t, _ := NewTelemetry(tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	return t
}

func orNoop(t *Telemetry) *Telemetry {
	if t == nil {
		return NoopTelemetry()
	}
	return t
}

func (t *Telemetry) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// end closes span, marking it failed when err is set.
func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *Telemetry) committed(ctx context.Context, evs []event.DomainEvent) {
	for _, e := range evs {
		t.events.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", e.EventType())))
	}
}

func (t *Telemetry) recordRecovery(ctx context.Context, source string, amount decimal.Decimal) {
	t.recovered.Add(ctx, amount.InexactFloat64(), metric.WithAttributes(attribute.String("source", source)))
}
