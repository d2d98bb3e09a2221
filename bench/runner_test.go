package bench

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/treebench/lib/tree"
)

func newTestRunner(t *testing.T, cfg *Config, opts ...RunnerOption) (*Runner, *testLogger) {
	t.Helper()
	logger, tl := newTestXLogger(t)
	loader, err := NewLoader(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(loader.Release)
	opts = append([]RunnerOption{
		WithRunnerClock(&tickClock{step: time.Millisecond}),
		WithRunnerHostInfo(testHostInfo),
	}, opts...)
	r, err := NewRunner(cfg, loader, logger, opts...)
	require.NoError(t, err)
	return r, tl
}

func sumCounter(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != BenchStatsName {
			continue
		}
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			total := int64(0)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestRunner_Run(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, Insert, "set1", "data_1.txt", "5,3,8,1,4,7,9")
	writeDataset(t, root, Search, "set1", "data_1.txt", "1,9,100")
	writeDataset(t, root, Delete, "set1", "data_1.txt", "3,8")
	// data_2.txt has search data only, so it is skipped.
	writeDataset(t, root, Search, "set1", "data_2.txt", "1")

	cfg := DefaultConfig()
	cfg.DataRoot = root
	cfg.Sets = []string{"set1"}
	cfg.Files = []DatasetFile{
		{Name: "data_1.txt", Desc: "7 items"},
		{Name: "data_2.txt", Desc: "0 items"},
	}
	cfg.Verify = true

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	r, tl := newTestRunner(t, cfg, WithRunnerMeterProvider(mp))

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, rep.RunID)
	require.Equal(t, "bench-host", rep.Host.Hostname)
	require.Equal(t, time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC), rep.StartedAt)
	require.Positive(t, rep.Elapsed)

	require.Len(t, rep.Scenarios, 2)
	sc := rep.Scenarios[0]
	require.False(t, sc.Skipped)
	require.Equal(t, "7 items", sc.Description)
	require.Len(t, sc.Trees, 3)
	for i, kind := range []tree.Kind{tree.BST, tree.Splay, tree.RedBlack} {
		tr := sc.Trees[i]
		require.Equal(t, kind, tr.Kind)
		require.Zero(t, tr.Violations)
		require.Len(t, tr.Phases, 3)
		for j, phase := range Phases() {
			pr := tr.Phases[j]
			require.Equal(t, phase, pr.Phase)
			require.Equal(t, kind, pr.Kind)
			require.Equal(t, "set1", pr.Set)
			require.Equal(t, "data_1.txt", pr.File)
			require.Equal(t, int64(1000), pr.Microseconds())
		}
		require.Equal(t, 7, tr.Phases[0].Ops)
		require.Equal(t, 3, tr.Phases[1].Ops)
		require.Equal(t, 2, tr.Phases[2].Ops)
	}
	require.True(t, rep.Scenarios[1].Skipped)
	require.Empty(t, rep.Scenarios[1].Trees)
	require.Len(t, rep.Results(), 9)

	require.Empty(t, tl.byLevel(t, zapcore.ErrorLevel))
	skipped := 0
	for _, e := range tl.byLevel(t, zapcore.WarnLevel) {
		if e.msg == "empty insert dataset, scenario skipped" {
			skipped++
		}
	}
	require.Equal(t, 1, skipped)

	rm := metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Equal(t, int64(3*(7+3+2)), sumCounter(t, rm, "bench.phase.ops"))
	require.Equal(t, int64(1), sumCounter(t, rm, "bench.scenario.skipped"))
	require.Equal(t, int64(0), sumCounter(t, rm, "bench.tree.violations"))
}

func TestRunner_RunScenario_SkipsEmptyPhases(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataRoot = t.TempDir()
	cfg.Trees = []string{"rbtree", "splay"}
	r, _ := newTestRunner(t, cfg)

	ds := &Datasets{}
	ds[Insert] = []int{3, 1, 2, 3}
	ds[Delete] = []int{1, 42}
	res, err := r.RunScenario(context.Background(), Scenario{Set: "s", File: "f"}, ds)
	require.NoError(t, err)
	require.Len(t, res.Trees, 2)
	require.Equal(t, tree.RedBlack, res.Trees[0].Kind)
	for _, tr := range res.Trees {
		require.Len(t, tr.Phases, 2)
		require.Equal(t, Insert, tr.Phases[0].Phase)
		require.Equal(t, 4, tr.Phases[0].Ops)
		require.Equal(t, Delete, tr.Phases[1].Phase)
	}

	res, err = r.RunScenario(context.Background(), Scenario{Set: "s", File: "f"}, nil)
	require.NoError(t, err)
	require.True(t, res.Skipped)
}

func TestRunner_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, Insert, "set1", "data_1.txt", "1,2,3")
	cfg := DefaultConfig()
	cfg.DataRoot = root
	r, _ := newTestRunner(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
	require.Empty(t, rep.Scenarios)

	ds := &Datasets{}
	ds[Insert] = []int{1, 2, 3}
	res, err := r.RunScenario(ctx, Scenario{Set: "set1", File: "data_1.txt"}, ds)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, res.Trees, 1)
	require.Empty(t, res.Trees[0].Phases)
}

func TestNewRunner_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trees = []string{"avl"}
	logger, _ := newTestXLogger(t)
	_, err := NewRunner(cfg, &Loader{}, logger)
	require.Error(t, err)

	_, err = NewRunner(DefaultConfig(), nil, logger)
	require.Error(t, err)
}

func TestVerifyTree(t *testing.T) {
	for _, kind := range tree.Kinds() {
		m := tree.NewOrderedMap[int, int](kind)
		for _, k := range []int{5, 3, 8, 1, 4, 7, 9} {
			m.Put(k, k)
		}
		require.NoError(t, verifyTree(m), kind.String())
		m.Del(5)
		require.NoError(t, verifyTree(m), kind.String())
	}
}

func BenchmarkRunner_RunScenario(b *testing.B) {
	cfg := DefaultConfig()
	cfg.DataRoot = b.TempDir()
	logger := newDiscardXLogger()
	loader, err := NewLoader(cfg, logger)
	require.NoError(b, err)
	defer loader.Release()
	r, err := NewRunner(cfg, loader, logger, WithRunnerHostInfo(testHostInfo))
	require.NoError(b, err)

	ds := &Datasets{}
	for i := 0; i < 10_000; i++ {
		v := (i * 7919) % 10_007
		ds[Insert] = append(ds[Insert], v)
		ds[Search] = append(ds[Search], v+1)
		if i%2 == 0 {
			ds[Delete] = append(ds[Delete], v)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.RunScenario(context.Background(), Scenario{Set: "bench", File: "mem"}, ds)
	}
}
