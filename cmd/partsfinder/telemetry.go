package main

import (
	"context"
	"partsfinder-backend/internal/components/telemetry"
	"partsfinder-backend/pkg/serviceutil"
)

// InitTelemetry sets up logging and the otlp exporters. Reports are logged and, once
// the meter provider is installed, also recorded as metrics.
func InitTelemetry(ctx context.Context, cfg telemetry.Config, verbose bool) (telemetry.API, func()) {
	telemetry.InitSlog(verbose)

	t, err := telemetry.Setup(ctx, "partsfinder", cfg)
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}

	var tel telemetry.API = telemetry.SlogAPI{}
	metered, err := telemetry.NewMeteredAPI(tel)
	if err != nil {
		tel.ReportWarning("telemetry.metered", err)
	} else {
		tel = metered
	}
	telemetry.InstrumentPerfStats(ctx, tel)

	return tel, func() {
		err := t.Shutdown(context.Background())
		if err != nil {
			tel.ReportWarning("telemetry.shutdown", err)
		}
	}
}
