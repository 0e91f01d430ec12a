// Package observe provides the service's observability primitives:
// OpenTelemetry metric instruments and the Prometheus exporter bridge that
// surfaces them on /metrics.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all instruments.
const meterName = "github.com/synthmob/synthmob"

// Metrics holds the application's OTel metric instruments. All fields are
// safe for concurrent use.
type Metrics struct {
	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: method, path, status.
	HTTPRequestDuration metric.Float64Histogram

	// EventsPublished counts arena events put on the bus, by event name.
	EventsPublished metric.Int64Counter

	// StreamClients tracks connected stream consumers, by transport
	// (sse or ws).
	StreamClients metric.Int64UpDownCounter

	// StreamDropped counts events dropped on slow stream consumers, by
	// transport.
	StreamDropped metric.Int64Counter

	// OperationRejections counts refused operations, by error code.
	OperationRejections metric.Int64Counter

	// AgentRegistrations counts successful agent registrations.
	AgentRegistrations metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). The API
// serves from memory, so the grid leans low.
var latencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.HTTPRequestDuration, err = m.Float64Histogram("synthmob.http.request.duration",
		metric.WithDescription("HTTP request latency by method, path, and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.EventsPublished, err = m.Int64Counter("synthmob.events.published",
		metric.WithDescription("Total arena events published, by event name."),
	); err != nil {
		return nil, err
	}
	if met.StreamClients, err = m.Int64UpDownCounter("synthmob.stream.clients",
		metric.WithDescription("Connected stream consumers, by transport."),
	); err != nil {
		return nil, err
	}
	if met.StreamDropped, err = m.Int64Counter("synthmob.stream.dropped",
		metric.WithDescription("Events dropped on slow stream consumers, by transport."),
	); err != nil {
		return nil, err
	}
	if met.OperationRejections, err = m.Int64Counter("synthmob.operations.rejected",
		metric.WithDescription("Operations refused by the core, by error code."),
	); err != nil {
		return nil, err
	}
	if met.AgentRegistrations, err = m.Int64Counter("synthmob.agents.registered",
		metric.WithDescription("Successful agent registrations."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordEvent counts one published arena event.
func (m *Metrics) RecordEvent(ctx context.Context, event string) {
	m.EventsPublished.Add(ctx, 1,
		metric.WithAttributes(attribute.String("event", event)),
	)
}

// StreamConnected records a stream consumer attaching.
func (m *Metrics) StreamConnected(ctx context.Context, transport string) {
	m.StreamClients.Add(ctx, 1,
		metric.WithAttributes(attribute.String("transport", transport)),
	)
}

// StreamDisconnected records a stream consumer detaching.
func (m *Metrics) StreamDisconnected(ctx context.Context, transport string) {
	m.StreamClients.Add(ctx, -1,
		metric.WithAttributes(attribute.String("transport", transport)),
	)
}

// RecordStreamDrops counts events dropped on a slow consumer.
func (m *Metrics) RecordStreamDrops(ctx context.Context, transport string, n int64) {
	if n <= 0 {
		return
	}
	m.StreamDropped.Add(ctx, n,
		metric.WithAttributes(attribute.String("transport", transport)),
	)
}

// RecordRejection counts one refused operation by its error code.
func (m *Metrics) RecordRejection(ctx context.Context, code string) {
	m.OperationRejections.Add(ctx, 1,
		metric.WithAttributes(attribute.String("code", code)),
	)
}

// RecordRegistration counts one successful agent registration.
func (m *Metrics) RecordRegistration(ctx context.Context) {
	m.AgentRegistrations.Add(ctx, 1)
}
