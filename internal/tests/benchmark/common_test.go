package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/seralo/botcore/internal/cache"
	"github.com/seralo/botcore/internal/concurrency"
	"github.com/seralo/botcore/internal/router"
	"github.com/seralo/botcore/internal/storage/memory"
	"github.com/seralo/botcore/internal/telemetry/logger"
)

// EntryCounts defines cache prefill sizes for benchmarking.
var EntryCounts = []int{1000, 5000, 10000}

// newCache creates a cache sized to hold every benchmark entry.
func newCache(capacity int) *cache.Cache {
	return cache.New(cache.Config{
		Name:       "bench",
		Capacity:   capacity,
		DefaultTTL: time.Hour,
	})
}

// prefillCache fills a cache and returns the keys.
func prefillCache(c *cache.Cache, count int) []string {
	keys := make([]string, count)
	for i := 0; i < count; i++ {
		keys[i] = fmt.Sprintf("key-%d", i)
		c.Set(keys[i], i, 0)
	}
	return keys
}

// newController creates a controller with the built-in limits.
func newController(b *testing.B) *concurrency.Controller {
	b.Helper()
	ctrl, err := concurrency.NewController(concurrency.Config{
		Limits: concurrency.DefaultLimits(),
	}, logger.Default())
	if err != nil {
		b.Fatalf("NewController failed: %v", err)
	}
	b.Cleanup(ctrl.Close)
	return ctrl
}

// newRouter creates a router over in-memory shards.
func newRouter(b *testing.B, shardCount int) *router.Router {
	b.Helper()

	backends := make([]router.Backend, shardCount)
	for i := range backends {
		backends[i] = memory.NewShard(fmt.Sprintf("shard-%d", i))
	}

	rt, err := router.New(router.Config{
		SizeCeilingBytes: 1 << 40,
		AutoSwitch:       true,
		StatsWindow:      time.Minute,
		MaxRetries:       1,
		RetryBaseDelay:   time.Millisecond,
	}, backends, newController(b), logger.Default())
	if err != nil {
		b.Fatalf("router.New failed: %v", err)
	}
	b.Cleanup(func() { rt.Close() })
	return rt
}

// prefillRouter inserts count records across the router.
func prefillRouter(b *testing.B, rt *router.Router, count int) {
	b.Helper()
	ctx := context.Background()
	batch := make([]router.Record, 0, 100)
	for i := 0; i < count; i++ {
		batch = append(batch, router.Record{
			"id":      fmt.Sprintf("doc-%d", i),
			"channel": int64(i % 100),
		})
		if len(batch) == cap(batch) || i == count-1 {
			if _, err := rt.Insert(ctx, batch); err != nil {
				b.Fatalf("Insert failed: %v", err)
			}
			batch = batch[:0]
		}
	}
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}
