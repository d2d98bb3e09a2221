package main

import (
	"io"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/treebench/bench"
	"github.com/benz9527/treebench/observability"
	"github.com/benz9527/treebench/xlog"
)

func newXLogger(cfg *bench.Config, out io.Writer) xlog.XLogger {
	enc, ok := xlog.ParseLogEncoder(cfg.Log.Encoder)
	if !ok {
		enc = xlog.PlainText
	}
	opts := []xlog.XLoggerOption{
		xlog.WithXLoggerEncoder(enc),
		xlog.WithXLoggerLevel(xlog.ParseLogLevel(cfg.Log.Level)),
		xlog.WithXLoggerLevelEncoder(zapcore.CapitalLevelEncoder),
		xlog.WithXLoggerOutput(zapcore.AddSync(out)),
		xlog.WithXLoggerContextFieldExtract(string(bench.RunIDContextKey)),
	}
	if cfg.Log.File != nil {
		opts = append(opts, xlog.WithXLoggerFileCore(cfg.Log.File))
	}
	return xlog.NewXLogger(opts...)
}

// logOutput is the stream shared by the logs and the console metrics,
// stderr of the command.
type logOutput struct {
	io.Writer
}

func provideXLogger(lc fx.Lifecycle, cfg *bench.Config, out logOutput) xlog.XLogger {
	logger := newXLogger(cfg, out)
	lc.Append(fx.StopHook(logger.Sync))
	return logger
}

func provideMetrics(lc fx.Lifecycle, cfg *bench.Config, out logOutput, logger xlog.XLogger) (observability.ShutdownFunc, error) {
	kind, err := observability.ParseMetricsExporterKind(cfg.Metrics)
	if err != nil {
		return nil, err
	}
	shutdown, err := observability.InitMetricsExporter(kind, observability.WithConsoleWriter(out))
	if err != nil {
		return nil, err
	}
	if kind != observability.NoneExporter {
		if err = observability.InitAppStats("treebench"); err != nil {
			logger.ErrorStack(err, "app stats are not available")
		}
	}
	lc.Append(fx.Hook{OnStop: shutdown})
	return shutdown, nil
}

func provideLoader(lc fx.Lifecycle, cfg *bench.Config, logger xlog.XLogger) (*bench.Loader, error) {
	loader, err := bench.NewLoader(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(loader.Release))
	return loader, nil
}

// The meter provider is installed before the runner registers its meters.
func provideRunner(cfg *bench.Config, loader *bench.Loader, logger xlog.XLogger, _ observability.ShutdownFunc) (*bench.Runner, error) {
	return bench.NewRunner(cfg, loader, logger)
}

// provideStore is nil when no dsn is configured.
func provideStore(lc fx.Lifecycle, cfg *bench.Config, logger xlog.XLogger) (*bench.Store, error) {
	if len(cfg.Store.DSN) == 0 {
		return nil, nil
	}
	store, err := bench.OpenStore(cfg.Store.DSN, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(store.Close))
	return store, nil
}

// newApp wires the benchmark components, the targets are populated from
// the container.
func newApp(cfg *bench.Config, logOut io.Writer, targets ...any) *fx.App {
	return fx.New(
		fx.Supply(cfg),
		fx.Supply(logOutput{Writer: logOut}),
		fx.Provide(
			provideXLogger,
			provideMetrics,
			provideLoader,
			provideRunner,
			provideStore,
		),
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Populate(targets...),
	)
}
