package buffer

import "github.com/prometheus/client_golang/prometheus"

// ingestMetrics counts applied and skipped entries. A nil value records nothing.
type ingestMetrics struct {
	entries *prometheus.CounterVec
	batches prometheus.Counter
}

func newIngestMetrics(reg prometheus.Registerer) *ingestMetrics {
	if reg == nil {
		return nil
	}
	m := &ingestMetrics{
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tfscope_ingest_entries_total",
			Help: "Ingested transform entries by result (applied or skipped).",
		}, []string{"result"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tfscope_ingest_batches_total",
			Help: "Applied transform batches.",
		}),
	}
	reg.MustRegister(m.entries, m.batches)
	return m
}

func (m *ingestMetrics) observe(applied, skipped int) {
	if m == nil {
		return
	}
	m.batches.Inc()
	m.entries.WithLabelValues("applied").Add(float64(applied))
	m.entries.WithLabelValues("skipped").Add(float64(skipped))
}
