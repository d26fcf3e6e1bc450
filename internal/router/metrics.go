package router

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// routerMetrics holds the Prometheus collectors for a router.
type routerMetrics struct {
	sizeBytes   *prometheus.GaugeVec
	records     *prometheus.GaugeVec
	active      *prometheus.GaugeVec
	usagePct    *prometheus.GaugeVec
	writeTarget prometheus.Gauge
}

// RegisterMetrics registers shard metrics with Prometheus and starts
// a background updater. Returns the router for chaining.
//
// This should be called once during initialization.
func (r *Router) RegisterMetrics(registry *prometheus.Registry) *Router {
	m := &routerMetrics{
		sizeBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "botcore",
			Subsystem: "shard",
			Name:      "size_bytes",
			Help:      "Shard storage size in bytes",
		}, []string{"shard"}),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "botcore",
			Subsystem: "shard",
			Name:      "records",
			Help:      "Shard record count",
		}, []string{"shard"}),
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "botcore",
			Subsystem: "shard",
			Name:      "active",
			Help:      "Whether the shard is active (1) or inactive (0)",
		}, []string{"shard"}),
		usagePct: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "botcore",
			Subsystem: "shard",
			Name:      "usage_pct",
			Help:      "Shard size as a percentage of the configured ceiling",
		}, []string{"shard"}),
		writeTarget: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "botcore",
			Subsystem: "shard",
			Name:      "write_target_index",
			Help:      "Index of the current write target shard",
		}),
	}

	registry.MustRegister(m.sizeBytes, m.records, m.active, m.usagePct, m.writeTarget)

	r.mu.Lock()
	r.metrics = m
	r.mu.Unlock()

	go r.metricsUpdateLoop(m)

	return r
}

// metricsUpdateLoop periodically publishes cached shard stats. It
// reads the router's cached view only; shard backends are refreshed
// by regular traffic through the stats window.
func (r *Router) metricsUpdateLoop(m *routerMetrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		<-ticker.C

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return
		}
		ceiling := r.cfg.SizeCeilingBytes
		writeIdx := r.writeIdx
		type row struct {
			name      string
			active    bool
			sizeBytes int64
			records   int64
		}
		rows := make([]row, len(r.shards))
		for i, s := range r.shards {
			rows[i] = row{name: s.name, active: s.active, sizeBytes: s.sizeBytes, records: s.records}
		}
		r.mu.Unlock()

		for _, s := range rows {
			m.sizeBytes.WithLabelValues(s.name).Set(float64(s.sizeBytes))
			m.records.WithLabelValues(s.name).Set(float64(s.records))
			m.usagePct.WithLabelValues(s.name).Set(float64(s.sizeBytes) / float64(ceiling) * 100)
			if s.active {
				m.active.WithLabelValues(s.name).Set(1)
			} else {
				m.active.WithLabelValues(s.name).Set(0)
			}
		}
		m.writeTarget.Set(float64(writeIdx))
	}
}
