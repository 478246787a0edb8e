package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeteredAPI forwards every report to another API and additionally records broken
// and warning reports as counters and counts as gauges on the global meter provider.
type MeteredAPI struct {
	inner    API
	broken   metric.Int64Counter
	warnings metric.Int64Counter

	mutex  sync.Mutex
	meter  metric.Meter
	gauges map[string]metric.Int64Gauge
}

func NewMeteredAPI(inner API) (*MeteredAPI, error) {
	meter := otel.Meter("partsfinder.telemetry")
	broken, err := meter.Int64Counter("reports.broken")
	if err != nil {
		return nil, err
	}
	warnings, err := meter.Int64Counter("reports.warning")
	if err != nil {
		return nil, err
	}
	return &MeteredAPI{
		inner:    inner,
		broken:   broken,
		warnings: warnings,
		meter:    meter,
		gauges:   make(map[string]metric.Int64Gauge),
	}, nil
}

func (m *MeteredAPI) gauge(id string) (metric.Int64Gauge, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	gauge, ok := m.gauges[id]
	if ok {
		return gauge, nil
	}
	gauge, err := m.meter.Int64Gauge(id)
	if err != nil {
		return nil, err
	}
	m.gauges[id] = gauge
	return gauge, nil
}

func (m *MeteredAPI) ReportBroken(id string, params ...any) {
	m.broken.Add(context.Background(), 1, metric.WithAttributes(attribute.String("id", id)))
	m.inner.ReportBroken(id, params...)
}

func (m *MeteredAPI) ReportWarning(id string, params ...any) {
	m.warnings.Add(context.Background(), 1, metric.WithAttributes(attribute.String("id", id)))
	m.inner.ReportWarning(id, params...)
}

func (m *MeteredAPI) ReportDebug(msg string, params ...any) {
	m.inner.ReportDebug(msg, params...)
}

func (m *MeteredAPI) ReportCount(id string, count int64) {
	gauge, err := m.gauge(id)
	if err != nil {
		m.inner.ReportWarning("telemetry.gauge", err, id)
	} else {
		gauge.Record(context.Background(), count)
	}
	m.inner.ReportCount(id, count)
}
