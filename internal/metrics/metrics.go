// Package metrics provides Prometheus instrumentation for the pantry store.
//
// A Recorder owns its own registry so several backends (tests, the CLI) do
// not collide on the global one. The CLI writes it out with WriteTextfile
// for the node_exporter textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pantry"

// Operation results used as label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Recorder collects store metrics. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	registry *prometheus.Registry

	operations    *prometheus.CounterVec
	snapshotBytes prometheus.Gauge
	snapshotSaves prometheus.Counter
	migrations    prometheus.Counter
	rebuilds      prometheus.Counter
	schemaVersion prometheus.Gauge
	rows          *prometheus.GaugeVec
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "operations_total",
				Help:      "Repository operations by name and result.",
			},
			[]string{"operation", "result"},
		),
		snapshotBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "bytes",
			Help:      "Size of the last serialized database snapshot.",
		}),
		snapshotSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "writes_total",
			Help:      "Snapshots written to the key-value store.",
		}),
		migrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schema",
			Name:      "migrations_applied_total",
			Help:      "Schema migrations applied.",
		}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schema",
			Name:      "rebuilds_total",
			Help:      "Full schema rebuilds after a failed migration.",
		}),
		schemaVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "schema",
			Name:      "version",
			Help:      "Applied schema version.",
		}),
		rows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "rows",
				Help:      "Row count per table.",
			},
			[]string{"table"},
		),
	}
	r.registry.MustRegister(
		r.operations,
		r.snapshotBytes,
		r.snapshotSaves,
		r.migrations,
		r.rebuilds,
		r.schemaVersion,
		r.rows,
	)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Operation counts one repository call.
func (r *Recorder) Operation(name string, err error) {
	if r == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	r.operations.WithLabelValues(name, result).Inc()
}

// SnapshotWritten records a persisted snapshot of n bytes.
func (r *Recorder) SnapshotWritten(n int) {
	if r == nil {
		return
	}
	r.snapshotSaves.Inc()
	r.snapshotBytes.Set(float64(n))
}

// MigrationsApplied records n newly applied migrations and the resulting
// schema version.
func (r *Recorder) MigrationsApplied(n int, version uint) {
	if r == nil {
		return
	}
	r.migrations.Add(float64(n))
	r.schemaVersion.Set(float64(version))
}

// Rebuilt records a full schema rebuild.
func (r *Recorder) Rebuilt() {
	if r == nil {
		return
	}
	r.rebuilds.Inc()
}

// SetRows records the row count of a table.
func (r *Recorder) SetRows(table string, n int) {
	if r == nil {
		return
	}
	r.rows.WithLabelValues(table).Set(float64(n))
}

// WriteTextfile writes all metrics in the Prometheus text format to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
