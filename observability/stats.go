package observability

import (
	"context"
	"runtime"
	"strings"
	"sync"

	"github.com/samber/lo"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/benz9527/treebench/lib/infra"
)

var (
	once  sync.Once
	stats *appStats
)

type appStats struct {
	goroutines metric.Int64ObservableUpDownCounter
	procs      metric.Int64ObservableUpDownCounter
	heapInuse  metric.Int64ObservableGauge
}

func appMeterName(name string) string {
	builder := &strings.Builder{}
	builder.WriteString("treebench/app/")
	if len(strings.TrimSpace(name)) > 0 {
		builder.WriteString(strings.TrimSpace(name))
	} else {
		builder.WriteString("default")
	}
	return builder.String()
}

// InitAppStats registers the process gauges and the otel runtime
// instrumentation on the global meter provider, once per process. The
// benchmark numbers are sensitive to GC, so the heap size is observed too.
func InitAppStats(name string) (err error) {
	once.Do(func() {
		meter := otel.Meter(
			appMeterName(name),
			metric.WithInstrumentationVersion(otelruntime.Version()),
		)
		stats = &appStats{
			goroutines: lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
				"app.core.goroutines",
				metric.WithDescription(`The application goroutines' info.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.NumGoroutine()))
					return nil
				}),
			)),
			procs: lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
				"app.core.procs",
				metric.WithDescription(`The GOMAXPROCS of the application.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.GOMAXPROCS(0)))
					return nil
				}),
			)),
			heapInuse: lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
				"app.mem.heap_inuse",
				metric.WithUnit("By"),
				metric.WithDescription(`The in-use heap bytes.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ms := runtime.MemStats{}
					runtime.ReadMemStats(&ms)
					ob.Observe(int64(ms.HeapInuse))
					return nil
				}),
			)),
		}
		if rerr := otelruntime.Start(); rerr != nil {
			err = infra.WrapErrorStack(rerr, "otel runtime instrumentation")
		}
	})
	return err
}
