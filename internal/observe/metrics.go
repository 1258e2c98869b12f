// Package observe holds the OpenTelemetry instruments recorded by verbavox.
// The binary gets them from [InitProvider]; tests may build [Metrics] from
// their own [metric.MeterProvider].
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/verte-zerg/verbavox"

// Metrics holds the metric instruments for the save and scoring paths.
type Metrics struct {
	// Saves counts persisted attempts by outcome.
	Saves metric.Int64Counter
	// PrimaryErrors counts primary-store failures by error class.
	PrimaryErrors metric.Int64Counter
	// Accuracy records the accuracy of each scored attempt.
	Accuracy metric.Int64Histogram
}

var accuracyBuckets = []float64{10, 25, 50, 70, 85, 95, 100}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}
	if met.Saves, err = m.Int64Counter("verbavox.saves",
		metric.WithDescription("Attempt saves by outcome."),
	); err != nil {
		return nil, err
	}
	if met.PrimaryErrors, err = m.Int64Counter("verbavox.primary.errors",
		metric.WithDescription("Primary store errors by class."),
	); err != nil {
		return nil, err
	}
	if met.Accuracy, err = m.Int64Histogram("verbavox.attempt.accuracy",
		metric.WithDescription("Accuracy of scored attempts."),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(accuracyBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// RecordSave counts one save outcome.
func (m *Metrics) RecordSave(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.Saves.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordPrimaryError counts one classified primary-store error.
func (m *Metrics) RecordPrimaryError(ctx context.Context, class string) {
	if m == nil {
		return
	}
	m.PrimaryErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("class", class)))
}

// RecordAccuracy records a scored attempt.
func (m *Metrics) RecordAccuracy(ctx context.Context, accuracy int, difficulty string) {
	if m == nil {
		return
	}
	m.Accuracy.Record(ctx, int64(accuracy), metric.WithAttributes(attribute.String("difficulty", difficulty)))
}
