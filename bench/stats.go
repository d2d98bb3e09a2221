package bench

import (
	"context"
	"sync/atomic"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	BenchStatsName = "treebench/bench"
)

type benchStats struct {
	phaseCount       atomic.Int64
	phaseDurations   metric.Int64Histogram
	phaseOps         metric.Int64Counter
	scenarioSkipped  metric.Int64Counter
	violations       metric.Int64Counter
	phasesFinished metric.Int64ObservableGauge
}

func (stats *benchStats) RecordPhase(ctx context.Context, res PhaseResult) {
	if stats == nil {
		return
	}
	as := attribute.NewSet(
		attribute.String("tree", res.Kind.String()),
		attribute.String("phase", res.Phase.String()),
		attribute.String("set", res.Set),
		attribute.String("file", res.File),
	)
	stats.phaseDurations.Record(ctx, res.Elapsed.Microseconds(), metric.WithAttributeSet(as))
	stats.phaseOps.Add(ctx, int64(res.Ops), metric.WithAttributeSet(as))
	stats.phaseCount.Add(1)
}

func (stats *benchStats) IncreaseSkipped(ctx context.Context, sc Scenario) {
	if stats == nil {
		return
	}
	stats.scenarioSkipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("set", sc.Set),
		attribute.String("file", sc.File),
	))
}

func (stats *benchStats) IncreaseViolations(ctx context.Context, res PhaseResult) {
	if stats == nil {
		return
	}
	stats.violations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tree", res.Kind.String()),
		attribute.String("phase", res.Phase.String()),
	))
}

// newBenchStats registers on mp, the otel global provider when nil.
func newBenchStats(mp metric.MeterProvider) *benchStats {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(BenchStatsName)
	stats := &benchStats{
		phaseDurations: lo.Must[metric.Int64Histogram](meter.
			Int64Histogram(
				"bench.phase.duration",
				metric.WithDescription("The duration of a benchmark phase. In microseconds."),
				metric.WithUnit("us"),
			),
		),
		phaseOps: lo.Must[metric.Int64Counter](meter.
			Int64Counter(
				"bench.phase.ops",
				metric.WithDescription("The number of tree operations executed by the benchmark phases."),
			),
		),
		scenarioSkipped: lo.Must[metric.Int64Counter](meter.
			Int64Counter(
				"bench.scenario.skipped",
				metric.WithDescription("The number of scenarios skipped for an empty insert dataset."),
			),
		),
		violations: lo.Must[metric.Int64Counter](meter.
			Int64Counter(
				"bench.tree.violations",
				metric.WithDescription("The number of invariant violations found by the verify pass."),
			),
		),
	}
	stats.phasesFinished = lo.Must[metric.Int64ObservableGauge](meter.
		Int64ObservableGauge(
			"bench.phase.finished",
			metric.WithDescription("The number of finished phases of the current run."),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(stats.phaseCount.Load())
				return nil
			}),
		),
	)
	return stats
}
