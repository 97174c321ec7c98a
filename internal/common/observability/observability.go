// Package observability wires the OpenTelemetry meter and tracer used around
// submission commits.
package observability

import (
	"context"
	"time"

	"scoutly/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider trace.TracerProvider
	shutdownTracer func(context.Context) error
	tracer         trace.Tracer
	commitCounter  otelmetric.Int64Counter
	commitDuration otelmetric.Float64Histogram
}

// New registers a prometheus-backed meter provider and an SDK tracer provider.
// On exporter failure it returns a tracing-only instance; recording is a no-op.
func New(serviceName string, log logger.Logger) *Observability {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	o := &Observability{
		tracerProvider: tp,
		shutdownTracer: tp.Shutdown,
		tracer:         tp.Tracer(serviceName),
	}

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("prometheus exporter unavailable", map[string]interface{}{"error": err})
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	o.meterProvider = provider
	o.initInstruments(provider.Meter(serviceName), log)
	return o
}

// NewWithProviders builds an instance over caller-supplied providers.
func NewWithProviders(serviceName string, mp otelmetric.MeterProvider, tp trace.TracerProvider, log logger.Logger) *Observability {
	o := &Observability{
		tracerProvider: tp,
		tracer:         tp.Tracer(serviceName),
	}
	o.initInstruments(mp.Meter(serviceName), log)
	return o
}

func (o *Observability) initInstruments(meter otelmetric.Meter, log logger.Logger) {
	var err error
	o.commitCounter, err = meter.Int64Counter(
		"submissions.committed",
		otelmetric.WithDescription("Number of submission commits"),
	)
	if err != nil {
		log.Warn("commit counter unavailable", map[string]interface{}{"error": err})
	}

	o.commitDuration, err = meter.Float64Histogram(
		"submissions.commit.duration",
		otelmetric.WithDescription("Submission commit duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		log.Warn("commit histogram unavailable", map[string]interface{}{"error": err})
	}
}

// StartSpan starts a span; a nil receiver falls back to the global tracer.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("scoutly")
	if o != nil && o.tracer != nil {
		tracer = o.tracer
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordCommit(ctx context.Context, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("outcome", outcome))
	if o.commitCounter != nil {
		o.commitCounter.Add(ctx, 1, attrs)
	}
	if o.commitDuration != nil {
		o.commitDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil {
			return err
		}
	}
	if o.shutdownTracer != nil {
		return o.shutdownTracer(ctx)
	}
	return nil
}
