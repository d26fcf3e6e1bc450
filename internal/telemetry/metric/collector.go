// Package metric provides Prometheus metrics for BotCore.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/seralo/botcore/internal/cache"
)

// CacheCollector exposes per-instance cache statistics. Snapshots are
// taken at scrape time, so no background update loop is needed.
type CacheCollector struct {
	registry *cache.Registry

	entries   *prometheus.Desc
	capacity  *prometheus.Desc
	hits      *prometheus.Desc
	misses    *prometheus.Desc
	sets      *prometheus.Desc
	evictions *prometheus.Desc
	errors    *prometheus.Desc
	hitRate   *prometheus.Desc
}

// NewCacheCollector creates a collector over the cache registry.
func NewCacheCollector(registry *cache.Registry) *CacheCollector {
	label := []string{"cache"}
	return &CacheCollector{
		registry: registry,
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "cache", "entries"),
			"Current number of entries in the cache.", label, nil),
		capacity: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "cache", "capacity"),
			"Configured entry capacity of the cache.", label, nil),
		hits: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "cache", "hits_total"),
			"Total cache hits.", label, nil),
		misses: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "cache", "misses_total"),
			"Total cache misses.", label, nil),
		sets: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "cache", "sets_total"),
			"Total cache writes.", label, nil),
		evictions: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "cache", "evictions_total"),
			"Total evictions by reason.", []string{"cache", "reason"}, nil),
		errors: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "cache", "errors_total"),
			"Total cache read errors.", label, nil),
		hitRate: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "cache", "hit_rate"),
			"Ratio of hits to lookups.", label, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.capacity
	ch <- c.hits
	ch <- c.misses
	ch <- c.sets
	ch <- c.evictions
	ch <- c.errors
	ch <- c.hitRate
}

// Collect implements prometheus.Collector.
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.registry.Snapshots() {
		ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue,
			float64(s.Size), s.Name)
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue,
			float64(s.Capacity), s.Name)
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue,
			float64(s.Hits), s.Name)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue,
			float64(s.Misses), s.Name)
		ch <- prometheus.MustNewConstMetric(c.sets, prometheus.CounterValue,
			float64(s.Sets), s.Name)
		ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue,
			float64(s.CapacityEvictions), s.Name, "capacity")
		ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue,
			float64(s.ExpiryEvictions), s.Name, "expiry")
		ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue,
			float64(s.Errors), s.Name)
		ch <- prometheus.MustNewConstMetric(c.hitRate, prometheus.GaugeValue,
			s.HitRate, s.Name)
	}
}
