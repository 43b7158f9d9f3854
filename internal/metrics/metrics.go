// Package metrics provides Prometheus metrics for ddnsweaver.
//
// ddnsweaver runs once and exits, so nothing is served over HTTP. The
// collectors live in a private Registry that is written to a node_exporter
// textfile at the end of a run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "ddnsweaver"

// Registry holds every ddnsweaver collector.
var Registry = prometheus.NewRegistry()

var (
	// BuildInfo is always 1 and carries version labels.
	BuildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "build_info",
			Help:      "Build information (always 1).",
		},
		[]string{"version", "go_version"},
	)

	// AddressResolved is 1 when the public address of a family was determined.
	AddressResolved = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "address_resolved",
			Help:      "Whether the public address of a family was resolved in the last run.",
		},
		[]string{"family"},
	)

	// RecordUpdatesTotal counts record outcomes by zone, type and status.
	RecordUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "record_updates_total",
			Help:      "Record update attempts by outcome.",
		},
		[]string{"zone", "type", "status"},
	)

	// ProviderErrorsTotal counts classified provider API failures.
	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "provider_errors_total",
			Help:      "Provider API failures by operation and kind.",
		},
		[]string{"operation", "kind"},
	)

	// RunDuration is the wall time of the last run.
	RunDuration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run in seconds.",
		},
	)

	// LastRunTimestamp is the completion time of the last run.
	LastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run completed.",
		},
	)

	// LastRunSuccess is 1 when the last run reconciled with no failed action.
	LastRunSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_success",
			Help:      "Whether the last run completed with no fatal error and no failed record update.",
		},
	)
)

func init() {
	Registry.MustRegister(
		BuildInfo,
		AddressResolved,
		RecordUpdatesTotal,
		ProviderErrorsTotal,
		RunDuration,
		LastRunTimestamp,
		LastRunSuccess,
	)
}

// SetBuildInfo records the running version.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// SetAddressResolved records whether a family's address was determined.
func SetAddressResolved(family string, resolved bool) {
	AddressResolved.WithLabelValues(family).Set(boolToFloat(resolved))
}

// ObserveRun records the duration and outcome of a run ending at end.
func ObserveRun(duration time.Duration, end time.Time, success bool) {
	RunDuration.Set(duration.Seconds())
	LastRunTimestamp.Set(float64(end.Unix()))
	LastRunSuccess.Set(boolToFloat(success))
}

// WriteTextfile atomically writes the registry in text exposition format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
