package spectrum

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/robert-malhotra/go-spectra/spectrum"

// consumerTelemetry counts what consumers ingest. Every Consumer built by
// one Registry shares it.
type consumerTelemetry struct {
	spills metric.Int64Counter
	hits   metric.Int64Counter
	stats  metric.Int64Counter
}

func newConsumerTelemetry(mp metric.MeterProvider) (*consumerTelemetry, error) {
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	meter := mp.Meter(meterName)
	ct := &consumerTelemetry{}

	counter, err := meter.Int64Counter("spectra.consumer.spills",
		metric.WithDescription("The total number of spills pushed into consumers"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	ct.spills = counter

	counter, err = meter.Int64Counter("spectra.consumer.hits",
		metric.WithDescription("The total number of hits pushed into consumers"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	ct.hits = counter

	counter, err = meter.Int64Counter("spectra.consumer.stats_updates",
		metric.WithDescription("The total number of statistics snapshots pushed into consumers"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	ct.stats = counter
	return ct, nil
}

func (ct *consumerTelemetry) record(typ string, sp Spill) {
	if ct == nil {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("type", typ))
	ct.spills.Add(ctx, 1, attrs)
	ct.hits.Add(ctx, int64(len(sp.Hits)), attrs)
	ct.stats.Add(ctx, int64(len(sp.Stats)), attrs)
}
