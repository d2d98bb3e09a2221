package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/benz9527/treebench/lib/infra"
)

type MetricsExporterKind string

const (
	NoneExporter       MetricsExporterKind = "none"
	ConsoleExporter    MetricsExporterKind = "console"
	PrometheusExporter MetricsExporterKind = "prometheus"
)

func ParseMetricsExporterKind(kind string) (MetricsExporterKind, error) {
	switch k := MetricsExporterKind(strings.ToLower(strings.TrimSpace(kind))); k {
	case "", NoneExporter:
		return NoneExporter, nil
	case ConsoleExporter, PrometheusExporter:
		return k, nil
	default:
	}
	return NoneExporter, infra.NewErrorStackf("unknown metrics exporter %q", kind)
}

// ShutdownFunc flushes and stops the installed meter provider.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

type exporterCfg struct {
	out      io.Writer
	interval time.Duration
	timeout  time.Duration
}

type ExporterOption func(*exporterCfg)

// WithConsoleWriter redirects the console exporter, stderr by default.
func WithConsoleWriter(w io.Writer) ExporterOption {
	return func(cfg *exporterCfg) {
		cfg.out = w
	}
}

func WithConsoleInterval(interval, timeout time.Duration) ExporterOption {
	return func(cfg *exporterCfg) {
		cfg.interval, cfg.timeout = interval, timeout
	}
}

// InitMetricsExporter installs the global meter provider for kind. The none
// kind keeps the otel no-op provider.
func InitMetricsExporter(kind MetricsExporterKind, opts ...ExporterOption) (ShutdownFunc, error) {
	cfg := &exporterCfg{
		out:      os.Stderr,
		interval: 10 * time.Second,
		timeout:  5 * time.Second,
	}
	for _, o := range opts {
		o(cfg)
	}
	switch kind {
	case NoneExporter, "":
		return noopShutdown, nil
	case ConsoleExporter:
		return newConsoleMetricsExporter(cfg.interval, cfg.timeout,
			stdoutmetric.WithWriter(cfg.out),
			stdoutmetric.WithPrettyPrint(),
		)
	case PrometheusExporter:
		return newPrometheusMetricsExporter()
	default:
	}
	return nil, infra.NewErrorStackf("unknown metrics exporter %q", kind)
}

// Serves for the dev environment, the final collection is flushed on shutdown.
func newConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (ShutdownFunc, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, infra.WrapErrorStack(err, "stdout metrics exporter")
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// Registers on the prometheus default registerer, scraped over HTTP by the
// embedding process.
func newPrometheusMetricsExporter() (ShutdownFunc, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, infra.WrapErrorStack(err, "prometheus metrics exporter")
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}
