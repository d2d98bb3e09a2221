package bench

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/treebench/lib/infra"
	"github.com/benz9527/treebench/xlog"
)

type Phase uint8

const (
	Insert Phase = iota
	Search
	Delete
	_phaseMax
)

var phaseNames = [_phaseMax]string{
	Insert: "Insert",
	Search: "Search",
	Delete: "Delete",
}

func (p Phase) String() string {
	if p >= _phaseMax {
		return "Unknown"
	}
	return phaseNames[p]
}

// dir is the phase directory under the data root.
func (p Phase) dir() string {
	switch p {
	case Insert:
		return "insert"
	case Search:
		return "search"
	case Delete:
		return "delete"
	default:
	}
	return ""
}

func Phases() []Phase {
	return []Phase{Insert, Search, Delete}
}

// Scenario is one dataset file of a set, the same file name is read from
// the three phase directories.
type Scenario struct {
	Set         string
	File        string
	Description string
}

func (sc Scenario) String() string {
	return sc.Set + "/" + sc.File
}

// Path is relative to the data root.
func (sc Scenario) Path(phase Phase) string {
	return filepath.Join(phase.dir(), sc.Set, sc.File)
}

// Scenarios expands the sets by the files, set major.
func Scenarios(cfg *Config) []Scenario {
	sets := cfg.setNames()
	scenarios := make([]Scenario, 0, len(sets)*len(cfg.Files))
	for _, set := range sets {
		for _, f := range cfg.Files {
			scenarios = append(scenarios, Scenario{
				Set:         set,
				File:        f.Name,
				Description: f.Desc,
			})
		}
	}
	return scenarios
}

// Datasets indexed by Phase.
type Datasets [_phaseMax][]int

func (ds *Datasets) Of(phase Phase) []int {
	return ds[phase]
}

// Loader reads the three phase datasets of a scenario in parallel.
type Loader struct {
	root   string
	pool   *ants.Pool
	logger xlog.XLogger
}

func NewLoader(cfg *Config, logger xlog.XLogger) (*Loader, error) {
	pool, err := ants.NewPool(
		cfg.LoadWorkers,
		ants.WithLogger(xlog.NewAntsXLogger(logger)),
		ants.WithPreAlloc(true),
	)
	if err != nil {
		return nil, infra.WrapErrorStack(err, "[bench] dataset loader pool")
	}
	return &Loader{
		root:   cfg.DataRoot,
		pool:   pool,
		logger: logger,
	}, nil
}

// Load waits for the three datasets or the ctx. The submit failures are
// aggregated, a phase not loaded stays empty.
func (l *Loader) Load(ctx context.Context, sc Scenario) (*Datasets, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		ds   = &Datasets{}
		wg   sync.WaitGroup
		merr error
	)
	for _, phase := range Phases() {
		phase := phase
		wg.Add(1)
		err := l.pool.Submit(func() {
			defer wg.Done()
			ds[phase] = LoadDataset(l.root, sc.Path(phase), l.logger)
		})
		if err != nil {
			wg.Done()
			merr = multierr.Append(merr, infra.WrapErrorStack(err, "[bench] submit "+phase.String()+" load of "+sc.String()))
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		l.logger.WarnContext(ctx, "dataset loading cancelled", zap.Stringer("scenario", sc))
		return nil, multierr.Append(merr, ctx.Err())
	case <-done:
	}
	return ds, merr
}

func (l *Loader) Release() {
	if l == nil || l.pool == nil {
		return
	}
	l.pool.Release()
}
