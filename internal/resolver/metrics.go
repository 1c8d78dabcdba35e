package resolver

import "github.com/prometheus/client_golang/prometheus"

// Resolve outcome labels.
const (
	resultOK           = "ok"
	resultIdentity     = "identity"
	resultUnknownFrame = "unknown_frame"
	resultDisconnected = "disconnected"
	resultCycle        = "cycle"
)

// Metrics counts resolver outcomes and cache effectiveness.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	resolves *prometheus.CounterVec
	cache    *prometheus.CounterVec
}

// NewMetrics registers resolver counters on reg. Returns nil when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		resolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tfscope_resolve_total",
			Help: "Transform queries by outcome.",
		}, []string{"result"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tfscope_resolve_cache_total",
			Help: "Transform cache lookups by result (hit or miss).",
		}, []string{"result"}),
	}
	reg.MustRegister(m.resolves, m.cache)
	return m
}

func (m *Metrics) observe(result string) {
	if m == nil {
		return
	}
	m.resolves.WithLabelValues(result).Inc()
}

func (m *Metrics) cacheHit(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cache.WithLabelValues("hit").Inc()
		return
	}
	m.cache.WithLabelValues("miss").Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return resultOK
	case IsCycle(err):
		return resultCycle
	case IsUnknownFrame(err):
		return resultUnknownFrame
	default:
		return resultDisconnected
	}
}
