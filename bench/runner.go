package bench

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/benz9527/treebench/lib/hrtime"
	"github.com/benz9527/treebench/lib/id"
	"github.com/benz9527/treebench/lib/infra"
	"github.com/benz9527/treebench/lib/tree"
	"github.com/benz9527/treebench/xlog"
)

// RunIDContextKey carries the run ID, the logger extracts it as a field.
const RunIDContextKey = xlog.ContextKey("runId")

// PhaseResult is one timed batch of a tree over a dataset.
type PhaseResult struct {
	Set         string
	File        string
	Description string
	Kind        tree.Kind
	Phase       Phase
	Ops         int
	Elapsed     time.Duration
}

func (res PhaseResult) Microseconds() int64 {
	return res.Elapsed.Microseconds()
}

type TreeResult struct {
	Kind       tree.Kind
	Phases     []PhaseResult
	Violations int
}

type ScenarioResult struct {
	Scenario
	// Skipped for an empty insert dataset.
	Skipped bool
	Trees   []TreeResult
}

type Report struct {
	RunID     string
	StartedAt time.Time
	Elapsed   time.Duration
	Host      HostInfo
	Scenarios []ScenarioResult
}

// Results flattens the phase results in the run order.
func (rep *Report) Results() []PhaseResult {
	res := make([]PhaseResult, 0, len(rep.Scenarios)*9)
	for _, sc := range rep.Scenarios {
		for _, tr := range sc.Trees {
			res = append(res, tr.Phases...)
		}
	}
	return res
}

type Runner struct {
	cfg      *Config
	kinds    []tree.Kind
	loader   *Loader
	logger   xlog.XLogger
	stats    *benchStats
	clock    hrtime.Clock
	runID    id.RunIDGen
	hostInfo func(ctx context.Context) HostInfo
}

type RunnerOption func(*Runner)

// WithRunnerClock replaces the phase timing clock.
func WithRunnerClock(clock hrtime.Clock) RunnerOption {
	return func(r *Runner) {
		r.clock = clock
	}
}

func WithRunnerMeterProvider(mp metric.MeterProvider) RunnerOption {
	return func(r *Runner) {
		r.stats = newBenchStats(mp)
	}
}

func WithRunnerHostInfo(fn func(ctx context.Context) HostInfo) RunnerOption {
	return func(r *Runner) {
		r.hostInfo = fn
	}
}

func NewRunner(cfg *Config, loader *Loader, logger xlog.XLogger, opts ...RunnerOption) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if loader == nil || logger == nil {
		return nil, infra.NewErrorStack("[bench] runner without loader or logger")
	}
	runID, err := id.NewRunIDGen(8, nil)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:      cfg,
		kinds:    cfg.Kinds(),
		loader:   loader,
		logger:   logger,
		clock:    hrtime.DefaultClock,
		runID:    runID,
		hostInfo: CollectHostInfo,
	}
	for _, o := range opts {
		o(r)
	}
	if r.stats == nil {
		r.stats = newBenchStats(nil)
	}
	return r, nil
}

// Run benchmarks every scenario. On cancellation it returns the partial
// report with the ctx error.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	rep := &Report{
		RunID:     r.runID(),
		StartedAt: r.clock.NowInUTC(),
		Host:      r.hostInfo(ctx),
	}
	ctx = context.WithValue(ctx, RunIDContextKey, rep.RunID)
	sw := hrtime.NewStopwatch(r.clock).Start()
	defer func() {
		rep.Elapsed = sw.Stop()
	}()

	r.logger.InfoContext(ctx, "benchmark started",
		zap.Strings("sets", r.cfg.Sets),
		zap.Stringers("trees", r.kinds),
	)
	for _, sc := range Scenarios(r.cfg) {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		ds, err := r.loader.Load(ctx, sc)
		if err != nil {
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			r.logger.ErrorStackContext(ctx, err, "dataset loading incomplete", zap.Stringer("scenario", sc))
		}
		res, err := r.RunScenario(ctx, sc, ds)
		rep.Scenarios = append(rep.Scenarios, res)
		if err != nil {
			return rep, err
		}
	}
	r.logger.InfoContext(ctx, "benchmark finished", zap.Duration("elapsed", sw.Elapsed()))
	return rep, nil
}

// RunScenario times the phases of every configured tree over ds. The
// search and delete phases are skipped for empty datasets.
func (r *Runner) RunScenario(ctx context.Context, sc Scenario, ds *Datasets) (ScenarioResult, error) {
	res := ScenarioResult{Scenario: sc}
	if ds == nil || len(ds.Of(Insert)) == 0 {
		r.logger.WarnContext(ctx, "empty insert dataset, scenario skipped", zap.Stringer("scenario", sc))
		r.stats.IncreaseSkipped(ctx, sc)
		res.Skipped = true
		return res, nil
	}

	for _, kind := range r.kinds {
		m := tree.NewOrderedMap[int, int](kind)
		tr := TreeResult{Kind: kind}
		for _, phase := range Phases() {
			if err := ctx.Err(); err != nil {
				m.Release()
				res.Trees = append(res.Trees, tr)
				return res, err
			}
			data := ds.Of(phase)
			if phase != Insert && len(data) == 0 {
				continue
			}
			pr := PhaseResult{
				Set:         sc.Set,
				File:        sc.File,
				Description: sc.Description,
				Kind:        kind,
				Phase:       phase,
				Ops:         len(data),
				Elapsed:     r.timePhase(m, phase, data),
			}
			tr.Phases = append(tr.Phases, pr)
			r.stats.RecordPhase(ctx, pr)
			r.logger.DebugContext(ctx, "phase finished",
				zap.Stringer("scenario", sc),
				zap.Stringer("tree", kind),
				zap.Stringer("phase", phase),
				zap.Int("ops", pr.Ops),
				zap.Int64("us", pr.Microseconds()),
				zap.Int64("len", m.Len()),
			)

			if r.cfg.Verify {
				if err := verifyTree(m); err != nil {
					tr.Violations++
					r.stats.IncreaseViolations(ctx, pr)
					r.logger.ErrorStackContext(ctx, err, "tree invariant violated",
						zap.Stringer("scenario", sc),
						zap.Stringer("tree", kind),
						zap.Stringer("phase", phase),
					)
				}
			}
		}
		m.Release()
		res.Trees = append(res.Trees, tr)
	}
	return res, nil
}

// timePhase keeps the loops free of indirection, only the tree calls are
// measured.
func (r *Runner) timePhase(m tree.OrderedMap[int, int], phase Phase, data []int) time.Duration {
	sw := hrtime.NewStopwatch(r.clock)
	switch phase {
	case Insert:
		sw.Start()
		for _, v := range data {
			m.Put(v, v)
		}
	case Search:
		sw.Start()
		for _, v := range data {
			_ = m.Contains(v)
		}
	case Delete:
		sw.Start()
		for _, v := range data {
			m.Del(v)
		}
	default:
		// impossible run to here
		panic( /* debug assertion */ "[bench] unknown phase")
	}
	return sw.Stop()
}

func verifyTree(m tree.OrderedMap[int, int]) error {
	if rb, ok := m.(tree.RBTree[int, int]); ok {
		return tree.RBTreeValidate[int, int](rb)
	}
	return tree.OrderViolationValidate[int, int](m)
}
