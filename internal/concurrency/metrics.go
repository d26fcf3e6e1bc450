package concurrency

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// controllerMetrics holds the Prometheus collectors for a controller.
type controllerMetrics struct {
	inFlight *prometheus.GaugeVec
	peak     *prometheus.GaugeVec
	limit    *prometheus.GaugeVec
	waitHist *prometheus.HistogramVec
}

func (m *controllerMetrics) Observe(domain string, wait time.Duration) {
	m.waitHist.WithLabelValues(domain).Observe(wait.Seconds())
}

// RegisterMetrics registers controller metrics with Prometheus and
// starts a background updater. Returns the controller for chaining.
//
// This should be called once during initialization.
func (c *Controller) RegisterMetrics(registry *prometheus.Registry) *Controller {
	m := &controllerMetrics{
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "botcore",
			Subsystem: "concurrency",
			Name:      "in_flight",
			Help:      "Currently admitted operations per domain",
		}, []string{"domain"}),
		peak: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "botcore",
			Subsystem: "concurrency",
			Name:      "peak",
			Help:      "Peak concurrent operations per domain",
		}, []string{"domain"}),
		limit: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "botcore",
			Subsystem: "concurrency",
			Name:      "limit",
			Help:      "Configured concurrency limit per domain",
		}, []string{"domain"}),
		waitHist: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "botcore",
			Subsystem: "concurrency",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for a slot",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"domain"}),
	}

	registry.MustRegister(m.inFlight, m.peak, m.limit, m.waitHist)

	c.mu.Lock()
	c.waitHist = m
	c.mu.Unlock()

	go c.metricsUpdateLoop(m)

	return c
}

// metricsUpdateLoop periodically updates the per-domain gauges.
func (c *Controller) metricsUpdateLoop(m *controllerMetrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, dm := range c.AllMetrics() {
				m.inFlight.WithLabelValues(dm.Domain).Set(float64(dm.Current))
				m.peak.WithLabelValues(dm.Domain).Set(float64(dm.Peak))
				m.limit.WithLabelValues(dm.Domain).Set(float64(dm.Limit))
			}
		case <-c.closeCh:
			return
		}
	}
}
