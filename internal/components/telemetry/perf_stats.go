package telemetry

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel"
)

const perfStatsInterval = 30 * time.Second

// InstrumentPerfStats records cpu, resident memory and goroutine gauges for this
// process until ctx is done.
func InstrumentPerfStats(ctx context.Context, tel API) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		tel.ReportWarning("perf-stats.process", err)
		return
	}

	meter := otel.Meter("partsfinder.perf_stats")
	cpuGauge, _ := meter.Float64Gauge("process.cpu_percent")
	rssGauge, _ := meter.Int64Gauge("process.rss_mb")
	goroutineGauge, _ := meter.Int64Gauge("process.goroutines")

	go func() {
		ticker := time.NewTicker(perfStatsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			percent, err := proc.PercentWithContext(ctx, 0)
			if err != nil {
				tel.ReportWarning("perf-stats.cpu", err)
			} else {
				cpuGauge.Record(ctx, percent)
			}

			memory, err := proc.MemoryInfoWithContext(ctx)
			if err != nil {
				tel.ReportWarning("perf-stats.memory", err)
			} else {
				rssGauge.Record(ctx, int64(memory.RSS/1_000_000))
			}

			goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))
		}
	}()
}
