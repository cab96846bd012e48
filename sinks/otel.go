package sinks

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/ygrebnov/rivulet/metrics"
)

// OTelExporter periodically exports a rivulet/metrics.EventCounters
// snapshot-delta through an OpenTelemetry SDK MeterProvider. It is grounded
// on jonwraymond-toolops' observe dependency set (the repo wires the same
// go.opentelemetry.io/otel/sdk/metric + stdoutmetric pair for its own
// resilience counters), applied here to rivulet's counters instead.
type OTelExporter struct {
	provider *sdkmetric.MeterProvider
	meter    metric.Meter

	itemsCompleted metric.Int64Counter
	failuresTotal  metric.Int64Counter
	retriesTotal   metric.Int64Counter
	throttleEvents metric.Int64Counter

	last metrics.Snapshot
}

// NewOTelExporter builds an exporter that prints metrics documents to stdout
// via the OTel stdoutmetric exporter, wired to a PeriodicReader. The reader
// exports on its own interval (the SDK default) and once more on Shutdown;
// Collect only records counter deltas into the instruments, on whatever
// cadence the caller chooses (e.g. once per progress.Reporter tick).
func NewOTelExporter(ctx context.Context) (*OTelExporter, error) {
	exp, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("sinks: new stdoutmetric exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
	)
	meter := provider.Meter("github.com/ygrebnov/rivulet")

	itemsCompleted, err := meter.Int64Counter("rivulet.items_completed")
	if err != nil {
		return nil, err
	}
	failuresTotal, err := meter.Int64Counter("rivulet.failures_total")
	if err != nil {
		return nil, err
	}
	retriesTotal, err := meter.Int64Counter("rivulet.retries_total")
	if err != nil {
		return nil, err
	}
	throttleEvents, err := meter.Int64Counter("rivulet.throttle_events")
	if err != nil {
		return nil, err
	}

	return &OTelExporter{
		provider:       provider,
		meter:          meter,
		itemsCompleted: itemsCompleted,
		failuresTotal:  failuresTotal,
		retriesTotal:   retriesTotal,
		throttleEvents: throttleEvents,
		last:           metrics.Default().Snapshot(),
	}, nil
}

// Collect takes a fresh EventCounters snapshot, records the delta since the
// previous Collect, and advances the baseline.
func (e *OTelExporter) Collect(ctx context.Context) {
	now := metrics.Default().Snapshot()
	delta := metrics.Delta(e.last, now)
	e.last = now

	e.itemsCompleted.Add(ctx, delta.ItemsCompleted)
	e.failuresTotal.Add(ctx, delta.FailuresTotal)
	e.retriesTotal.Add(ctx, delta.RetriesTotal)
	e.throttleEvents.Add(ctx, delta.ThrottleEvents)
}

// Shutdown flushes and closes the underlying MeterProvider.
func (e *OTelExporter) Shutdown(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
