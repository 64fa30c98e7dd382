package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DriveMetrics collects storage engine activity. A nil *DriveMetrics is
// valid and all methods are no-ops on it.
type DriveMetrics struct {
	operations     *prometheus.CounterVec
	uploadBytes    prometheus.Histogram
	shareResolves  *prometheus.CounterVec
	sweepEvictions *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// NewDriveMetrics registers the storage collectors. Returns nil if
// metrics are disabled.
func NewDriveMetrics() *DriveMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	return &DriveMetrics{
		operations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cumulo_drive_operations_total",
				Help: "Storage operations by type and outcome",
			},
			[]string{"operation", "status"}, // status: "ok", "error"
		),
		uploadBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "cumulo_drive_upload_bytes",
				Help: "Distribution of accepted upload sizes",
				Buckets: []float64{
					1024,      // 1KB
					65536,     // 64KB
					1048576,   // 1MB
					10485760,  // 10MB
					104857600, // 100MB
					1 << 30,   // 1GB
				},
			},
		),
		shareResolves: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cumulo_share_resolutions_total",
				Help: "Public share link resolutions by outcome",
			},
			[]string{"status"}, // "ok", "not_found"
		),
		sweepEvictions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cumulo_sweep_evictions_total",
				Help: "Entries removed by background sweeps",
			},
			[]string{"sweep"}, // "shares", "sessions", "ratelimit"
		),
		activeSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "cumulo_active_sessions",
				Help: "Number of live session tokens",
			},
		),
	}
}

// RecordOperation counts one storage operation.
func (m *DriveMetrics) RecordOperation(operation string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.operations.WithLabelValues(operation, status).Inc()
}

// RecordUpload observes the size of an accepted upload.
func (m *DriveMetrics) RecordUpload(bytes int64) {
	if m == nil {
		return
	}
	m.uploadBytes.Observe(float64(bytes))
}

// RecordShareResolve counts one public link resolution.
func (m *DriveMetrics) RecordShareResolve(found bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !found {
		status = "not_found"
	}
	m.shareResolves.WithLabelValues(status).Inc()
}

// RecordSweep counts entries removed by a background sweep.
func (m *DriveMetrics) RecordSweep(sweep string, removed int) {
	if m == nil || removed == 0 {
		return
	}
	m.sweepEvictions.WithLabelValues(sweep).Add(float64(removed))
}

// SetActiveSessions records the current live token count.
func (m *DriveMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
