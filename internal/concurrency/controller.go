// Package concurrency provides a bounded concurrency controller.
//
// The controller admits operations into named domains (message
// dispatch, storage reads, file processing, ...), each bounded by a
// weighted semaphore. Unknown domains are created on first use with a
// default limit, so an Acquire never fails for lack of registration.
package concurrency

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/seralo/botcore/internal/core/domain"
	"github.com/seralo/botcore/internal/telemetry/logger"
)

// DefaultLimit applies to domains created on first use.
const DefaultLimit = 10

// DefaultLimits returns the built-in per-domain limits.
func DefaultLimits() map[string]int64 {
	return map[string]int64{
		"dispatch":        10,
		"fetch":           15,
		"storage_write":   20,
		"storage_read":    30,
		"file_processing": 5,
		"broadcast":       3,
		"indexing":        8,
		"cache":           25,
	}
}

// Config holds controller configuration.
type Config struct {
	// Limits maps domain names to their concurrency limits.
	// Missing domains use DefaultLimit when first acquired.
	Limits map[string]int64
	// DefaultLimit overrides DefaultLimit for lazily created domains.
	DefaultLimit int64
}

// Controller bounds concurrent operations per named domain.
type Controller struct {
	mu           sync.Mutex
	domains      map[string]*domainState
	defaultLimit int64
	logger       logger.Logger
	closed       bool
	closeCh      chan struct{}

	waitHist waitObserver
}

// waitObserver receives acquire wait times, when metrics are registered.
type waitObserver interface {
	Observe(domain string, wait time.Duration)
}

type domainState struct {
	name    string
	limit   int64
	sem     *semaphore.Weighted
	current int64
	peak    int64
	total   uint64
	avgWait time.Duration
}

// NewController creates a controller with the given per-domain limits.
func NewController(cfg Config, log logger.Logger) (*Controller, error) {
	if log == nil {
		log = logger.Default()
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}

	c := &Controller{
		domains:      make(map[string]*domainState),
		defaultLimit: defaultLimit,
		logger:       log,
		closeCh:      make(chan struct{}),
	}

	for name, limit := range cfg.Limits {
		if limit <= 0 {
			return nil, domain.ErrInvalidConfig.WithDetails(
				"concurrency limit for domain " + name + " must be positive")
		}
		c.domains[name] = newDomainState(name, limit)
	}

	return c, nil
}

func newDomainState(name string, limit int64) *domainState {
	return &domainState{
		name:  name,
		limit: limit,
		sem:   semaphore.NewWeighted(limit),
	}
}

// Acquire blocks until a slot in the domain is available, the context
// is cancelled, or the controller is closed. On success it returns a
// release function that must be called exactly once; extra calls are
// no-ops.
func (c *Controller) Acquire(ctx context.Context, name string) (func(), error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domain.ErrControllerClosed
	}
	d := c.getOrCreateLocked(name)
	sem := d.sem
	c.mu.Unlock()

	// Closing the controller releases waiters too.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.closeCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	if err := sem.Acquire(ctx, 1); err != nil {
		select {
		case <-c.closeCh:
			return nil, domain.ErrControllerClosed
		default:
		}
		return nil, domain.ErrAcquireCancelled.WithCause(err)
	}
	wait := time.Since(start)

	c.mu.Lock()
	d.current++
	if d.current > d.peak {
		d.peak = d.current
	}
	d.total++
	// Incremental mean keeps the accounting O(1) per acquire.
	d.avgWait += (wait - d.avgWait) / time.Duration(d.total)
	hist := c.waitHist
	c.mu.Unlock()

	if hist != nil {
		hist.Observe(name, wait)
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			sem.Release(1)
			c.mu.Lock()
			d.current--
			c.mu.Unlock()
		})
	}
	return release, nil
}

// UpdateLimit changes the limit of a domain, creating it if needed.
// In-flight holders keep their slots against the old semaphore; the
// new limit applies to subsequent acquires.
func (c *Controller) UpdateLimit(name string, limit int64) error {
	if limit <= 0 {
		return domain.ErrInvalidArgument.WithDetails("limit must be positive")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.domains[name]
	if !ok {
		c.domains[name] = newDomainState(name, limit)
		return nil
	}

	old := d.limit
	d.limit = limit
	d.sem = semaphore.NewWeighted(limit)

	c.logger.Info("concurrency limit updated",
		"domain", name, "old_limit", old, "new_limit", limit)
	return nil
}

// ApplyLimits updates several domains at once, logging and skipping
// invalid entries. Used by the config watcher on live reload.
func (c *Controller) ApplyLimits(limits map[string]int64) {
	for name, limit := range limits {
		if err := c.UpdateLimit(name, limit); err != nil {
			c.logger.Warn("rejected concurrency limit",
				"domain", name, "limit", limit, "error", err)
		}
	}
}

// DomainMetrics is a snapshot of one domain's counters.
type DomainMetrics struct {
	Domain        string  `json:"domain"`
	Limit         int64   `json:"limit"`
	Current       int64   `json:"current"`
	Peak          int64   `json:"peak"`
	TotalAdmitted uint64  `json:"total_admitted"`
	AvgWaitMS     float64 `json:"avg_wait_ms"`
}

// Metrics returns a snapshot for one domain.
func (c *Controller) Metrics(name string) (DomainMetrics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.domains[name]
	if !ok {
		return DomainMetrics{}, false
	}
	return d.snapshotLocked(), true
}

// AllMetrics returns snapshots for every domain, sorted by name.
func (c *Controller) AllMetrics() []DomainMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]DomainMetrics, 0, len(c.domains))
	for _, d := range c.domains {
		out = append(out, d.snapshotLocked())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

func (d *domainState) snapshotLocked() DomainMetrics {
	return DomainMetrics{
		Domain:        d.name,
		Limit:         d.limit,
		Current:       d.current,
		Peak:          d.peak,
		TotalAdmitted: d.total,
		AvgWaitMS:     float64(d.avgWait) / float64(time.Millisecond),
	}
}

// Close stops new admissions and releases blocked acquirers.
// In-flight holders finish normally.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.closeCh)
}

// getOrCreateLocked returns the domain state, creating it with the
// default limit if absent. Caller must hold c.mu.
func (c *Controller) getOrCreateLocked(name string) *domainState {
	d, ok := c.domains[name]
	if !ok {
		d = newDomainState(name, c.defaultLimit)
		c.domains[name] = d
		c.logger.Debug("created concurrency domain",
			"domain", name, "limit", c.defaultLimit)
	}
	return d
}
