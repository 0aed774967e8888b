// SPDX-License-Identifier: Apache-2.0
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/ember/pkg/errors"
)

const (
	MetricDiscoveryTotal    = "ember.discovery.total"
	MetricDiscoveryDuration = "ember.discovery.duration_ms"
)

// DiscoveryMetrics counts discovery runs by outcome and failure reason and
// records their duration. It satisfies identity.Recorder.
type DiscoveryMetrics struct {
	runs     metric.Int64Counter
	duration metric.Float64Histogram
}

// NewDiscoveryMetrics creates the instruments on the global meter provider.
func NewDiscoveryMetrics() (*DiscoveryMetrics, error) {
	return NewDiscoveryMetricsWithMeter(otel.Meter("ember/identity"))
}

// NewDiscoveryMetricsWithMeter creates the instruments on meter.
func NewDiscoveryMetricsWithMeter(meter metric.Meter) (*DiscoveryMetrics, error) {
	runs, err := meter.Int64Counter(
		MetricDiscoveryTotal,
		metric.WithDescription("Identity discovery runs by outcome and failure reason"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		MetricDiscoveryDuration,
		metric.WithDescription("Identity discovery duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	return &DiscoveryMetrics{runs: runs, duration: duration}, nil
}

// RecordDiscovery records one finished run. A nil receiver is a no-op.
func (m *DiscoveryMetrics) RecordDiscovery(ctx context.Context, outcome string, code errors.ErrorCode, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := DiscoveryAttributes(outcome, code)
	m.runs.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), metric.WithAttributes(attrs...))
}

// DiscoveryAttributes returns the metric attributes for a run. Adapter
// faults carry no taxonomy code and are reported as "adapter".
func DiscoveryAttributes(outcome string, code errors.ErrorCode) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(AttrDiscoveryOutcome, outcome)}
	if outcome == OutcomeFailed {
		reason := string(code)
		if reason == "" {
			reason = "adapter"
		}
		attrs = append(attrs, attribute.String(AttrDiscoveryReason, reason))
	}
	return attrs
}
