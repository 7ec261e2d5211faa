package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the replication collectors on a private registry so a run
// can dump them to a node_exporter textfile when it ends.
type Metrics struct {
	Registry     *prometheus.Registry
	RowsWritten  *prometheus.CounterVec
	PagesFetched *prometheus.CounterVec
	TableRows    *prometheus.GaugeVec
	LastRunOK    prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "replicator_rows_written_total",
			Help: "Rows sent to the destination, including rows skipped on conflict.",
		}, []string{"table"}),
		PagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "replicator_pages_fetched_total",
			Help: "Pages read from the source.",
		}, []string{"table"}),
		TableRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "replicator_table_rows",
			Help: "Rows found in the source table at the start of the run.",
		}, []string{"table"}),
		LastRunOK: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "replicator_last_run_success",
			Help: "1 if the last run completed, 0 if it failed.",
		}),
	}
	m.Registry.MustRegister(m.RowsWritten, m.PagesFetched, m.TableRows, m.LastRunOK)
	return m
}

// WriteTextfile writes the registry in text exposition format to path.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

func (m *Metrics) setTableRows(table string, rows int64) {
	if m == nil {
		return
	}
	m.TableRows.WithLabelValues(table).Set(float64(rows))
}

func (m *Metrics) addRowWritten(table string) {
	if m == nil {
		return
	}
	m.RowsWritten.WithLabelValues(table).Inc()
}

func (m *Metrics) addPage(table string) {
	if m == nil {
		return
	}
	m.PagesFetched.WithLabelValues(table).Inc()
}

// SetRunResult records whether the run succeeded.
func (m *Metrics) SetRunResult(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.LastRunOK.Set(1)
	} else {
		m.LastRunOK.Set(0)
	}
}
