package dataset

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Query kinds recorded in tabula_queries_total.
const (
	KindList      = "list"
	KindExport    = "export"
	KindFacets    = "facets"
	KindSelection = "selection"
)

// Metrics records engine activity per dataset. A nil *Metrics records
// nothing.
type Metrics struct {
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rows     *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg when it is
// non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabula",
			Name:      "queries_total",
			Help:      "Dataset queries served, by dataset and kind.",
		}, []string{"dataset", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tabula",
			Name:      "query_duration_seconds",
			Help:      "Time spent loading a snapshot and running the engine.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"dataset"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tabula",
			Name:      "query_rows",
			Help:      "Rows in the most recent snapshot of each dataset.",
		}, []string{"dataset"}),
	}
	if reg != nil {
		reg.MustRegister(m.queries, m.duration, m.rows)
	}
	return m
}

func (m *Metrics) observe(dataset, kind string, start time.Time, rows int) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(dataset, kind).Inc()
	m.duration.WithLabelValues(dataset).Observe(time.Since(start).Seconds())
	m.rows.WithLabelValues(dataset).Set(float64(rows))
}
