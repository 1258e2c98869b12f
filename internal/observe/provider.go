package observe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

// Provider is the process meter provider. A terminal session has no scrape
// endpoint, so readings are pulled with a manual reader and written to the log
// when the provider shuts down.
type Provider struct {
	mp      *sdkmetric.MeterProvider
	reader  *sdkmetric.ManualReader
	metrics *Metrics
}

// InitProvider builds the SDK meter provider, registers it as the global
// provider and creates the verbavox instruments on it.
func InitProvider() (*Provider, error) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	m, err := NewMetrics(mp)
	if err != nil {
		return nil, errors.Join(err, mp.Shutdown(context.Background()))
	}
	return &Provider{mp: mp, reader: reader, metrics: m}, nil
}

// Metrics returns the instruments bound to the provider.
func (p *Provider) Metrics() *Metrics {
	if p == nil {
		return nil
	}
	return p.metrics
}

// Reading is one collected data point. Counters fill Value; histograms fill
// Count and Sum.
type Reading struct {
	Name  string
	Attrs string
	Value int64
	Count uint64
	Sum   int64
}

// Snapshot collects the current cumulative readings, sorted by name and
// attributes.
func (p *Provider) Snapshot(ctx context.Context) ([]Reading, error) {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("observe: collect: %w", err)
	}
	var out []Reading
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out = append(out, Reading{Name: m.Name, Attrs: formatAttrs(dp.Attributes.ToSlice()), Value: dp.Value})
				}
			case metricdata.Histogram[int64]:
				for _, dp := range data.DataPoints {
					out = append(out, Reading{Name: m.Name, Attrs: formatAttrs(dp.Attributes.ToSlice()), Count: dp.Count, Sum: dp.Sum})
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Attrs < out[j].Attrs
	})
	return out, nil
}

func formatAttrs(kvs []attribute.KeyValue) string {
	parts := make([]string, 0, len(kvs))
	for _, kv := range kvs {
		parts = append(parts, string(kv.Key)+"="+kv.Value.Emit())
	}
	return strings.Join(parts, ",")
}

// Shutdown logs a final snapshot and stops the provider.
func (p *Provider) Shutdown(ctx context.Context, log *zap.Logger) error {
	if p == nil {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	readings, err := p.Snapshot(ctx)
	if err != nil {
		log.Warn("metrics snapshot failed", zap.Error(err))
	}
	for _, r := range readings {
		log.Info("metric",
			zap.String("name", r.Name),
			zap.String("attrs", r.Attrs),
			zap.Int64("value", r.Value),
			zap.Uint64("count", r.Count),
			zap.Int64("sum", r.Sum),
		)
	}
	return p.mp.Shutdown(ctx)
}
