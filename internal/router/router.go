package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/seralo/botcore/internal/concurrency"
	"github.com/seralo/botcore/internal/core/domain"
	"github.com/seralo/botcore/internal/telemetry/logger"
)

// Concurrency domains used for shard calls.
const (
	readDomain  = "storage_read"
	writeDomain = "storage_write"
)

// Config holds router configuration. Invalid values are fatal at
// construction; per-operation shard failures never are.
type Config struct {
	// SizeCeilingBytes is the per-shard size threshold that triggers a
	// write-target switch. Must be positive.
	SizeCeilingBytes int64
	// AutoSwitch enables automatic write-target rotation when the
	// current shard reaches the ceiling.
	AutoSwitch bool
	// StatsWindow bounds how often shard stats are refreshed.
	// Defaults to 30 seconds.
	StatsWindow time.Duration
	// MaxRetries is the number of attempts per shard call before the
	// shard is marked inactive. Defaults to 3.
	MaxRetries int
	// RetryBaseDelay is the first backoff step. Doubles per attempt.
	// Defaults to 50ms.
	RetryBaseDelay time.Duration
}

// shardState tracks one backend and its cached stats.
// Guarded by Router.mu.
type shardState struct {
	backend     Backend
	name        string
	active      bool
	sizeBytes   int64
	records     int64
	lastRefresh time.Time
}

// Router distributes records across an ordered list of shards.
type Router struct {
	mu       sync.Mutex
	shards   []*shardState
	writeIdx int
	closed   bool

	cfg     Config
	ctrl    *concurrency.Controller
	logger  logger.Logger
	refresh *rate.Limiter

	metrics *routerMetrics
}

// New creates a router over the given backends. The first shard is
// the initial write target.
func New(cfg Config, backends []Backend, ctrl *concurrency.Controller, log logger.Logger) (*Router, error) {
	if len(backends) == 0 {
		return nil, domain.ErrInvalidConfig.WithDetails("at least one shard backend is required")
	}
	if cfg.SizeCeilingBytes <= 0 {
		return nil, domain.ErrInvalidConfig.WithDetails("shard size ceiling must be positive")
	}
	if ctrl == nil {
		return nil, domain.ErrInvalidConfig.WithDetails("concurrency controller is required")
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 50 * time.Millisecond
	}
	if log == nil {
		log = logger.Default()
	}

	seen := make(map[string]bool, len(backends))
	shards := make([]*shardState, len(backends))
	for i, b := range backends {
		name := b.Name()
		if name == "" {
			return nil, domain.ErrInvalidConfig.WithDetails(fmt.Sprintf("shard %d has no name", i))
		}
		if seen[name] {
			return nil, domain.ErrInvalidConfig.WithDetails("duplicate shard name: " + name)
		}
		seen[name] = true
		shards[i] = &shardState{backend: b, name: name, active: true}
	}

	return &Router{
		shards:  shards,
		cfg:     cfg,
		ctrl:    ctrl,
		logger:  log,
		refresh: rate.NewLimiter(rate.Every(cfg.StatsWindow), 1),
	}, nil
}

// callWithRetry runs op with bounded exponential backoff. The caller
// marks the shard inactive when all attempts fail.
func (r *Router) callWithRetry(ctx context.Context, op func() error) error {
	delay := r.cfg.RetryBaseDelay
	var err error
	for attempt := 0; attempt < r.cfg.MaxRetries; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if attempt == r.cfg.MaxRetries-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}

// deactivate marks a shard inactive after exhausted retries.
func (r *Router) deactivate(idx int, err error) {
	r.mu.Lock()
	s := r.shards[idx]
	wasActive := s.active
	s.active = false
	r.mu.Unlock()

	if wasActive {
		r.logger.Warn("shard marked inactive",
			"shard", s.name, "index", idx, "error", err)
	}
}

// Reactivate marks a shard active again after operator intervention.
func (r *Router) Reactivate(idx int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx < 0 || idx >= len(r.shards) {
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("shard index %d out of range", idx))
	}
	r.shards[idx].active = true
	r.logger.Info("shard reactivated", "shard", r.shards[idx].name, "index", idx)
	return nil
}

// SetWriteTarget pins the write target to a specific shard.
func (r *Router) SetWriteTarget(idx int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx < 0 || idx >= len(r.shards) {
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("shard index %d out of range", idx))
	}
	if !r.shards[idx].active {
		return domain.ErrShardUnavailable.WithDetails("shard " + r.shards[idx].name + " is inactive")
	}
	r.writeIdx = idx
	r.logger.Info("write target pinned", "shard", r.shards[idx].name, "index", idx)
	return nil
}

// refreshStats updates cached shard stats, at most once per stats
// window. Failing shards are marked inactive.
func (r *Router) refreshStats(ctx context.Context) {
	if !r.refresh.Allow() {
		return
	}

	for idx := range r.shards {
		r.mu.Lock()
		s := r.shards[idx]
		active := s.active
		backend := s.backend
		r.mu.Unlock()
		if !active {
			continue
		}

		var stats BackendStats
		err := r.callWithRetry(ctx, func() error {
			var e error
			stats, e = backend.Stats(ctx)
			return e
		})
		if err != nil {
			r.deactivate(idx, err)
			continue
		}

		r.mu.Lock()
		s.sizeBytes = stats.SizeBytes
		s.records = stats.Records
		s.lastRefresh = time.Now()
		r.mu.Unlock()
	}
}

// WriteTarget returns the index and backend of the shard that should
// receive the next write. With auto-switch enabled, a full shard
// rotates the target to the next active shard below the ceiling; when
// every shard is full the current target is kept and a capacity
// warning is logged.
func (r *Router) WriteTarget(ctx context.Context) (int, Backend, error) {
	r.refreshStats(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return -1, nil, domain.ErrServiceUnavailable.WithDetails("router closed")
	}

	cur := r.shards[r.writeIdx]
	if cur.active && (!r.cfg.AutoSwitch || cur.sizeBytes < r.cfg.SizeCeilingBytes) {
		return r.writeIdx, cur.backend, nil
	}

	// Scan from the next index, wrapping, for an active shard with room.
	n := len(r.shards)
	for off := 1; off < n; off++ {
		idx := (r.writeIdx + off) % n
		s := r.shards[idx]
		if s.active && s.sizeBytes < r.cfg.SizeCeilingBytes {
			r.logger.Info("write target switched",
				"from", cur.name, "to", s.name, "index", idx,
				"size_bytes", s.sizeBytes, "ceiling_bytes", r.cfg.SizeCeilingBytes)
			r.writeIdx = idx
			return idx, s.backend, nil
		}
	}

	// Every shard is at capacity. Keep writing to the current target
	// if it is still reachable.
	if cur.active {
		r.logger.Warn("all shards at capacity, keeping current write target",
			"shard", cur.name, "size_bytes", cur.sizeBytes,
			"ceiling_bytes", r.cfg.SizeCeilingBytes)
		return r.writeIdx, cur.backend, nil
	}

	// Current target is dead and nothing has room: fall back to any
	// active shard before giving up.
	for off := 1; off < n; off++ {
		idx := (r.writeIdx + off) % n
		if s := r.shards[idx]; s.active {
			r.logger.Warn("write target moved to full shard, current target inactive",
				"from", cur.name, "to", s.name, "index", idx)
			r.writeIdx = idx
			return idx, s.backend, nil
		}
	}

	return -1, nil, domain.ErrNoActiveShard
}

// Insert writes records to the current write target.
func (r *Router) Insert(ctx context.Context, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	release, err := r.ctrl.Acquire(ctx, writeDomain)
	if err != nil {
		return 0, err
	}
	defer release()

	idx, backend, err := r.WriteTarget(ctx)
	if err != nil {
		return 0, err
	}

	var inserted int
	err = r.callWithRetry(ctx, func() error {
		var e error
		inserted, e = backend.Insert(ctx, records)
		return e
	})
	if err != nil {
		r.deactivate(idx, err)
		return 0, domain.ErrStorageError.WithCause(err)
	}
	return inserted, nil
}

// FindOne scans shards in order and returns the first match together
// with the index of the shard holding it. Returns (nil, -1, nil) when
// no shard has a match. Failing shards are skipped.
func (r *Router) FindOne(ctx context.Context, query Query) (Record, int, error) {
	release, err := r.ctrl.Acquire(ctx, readDomain)
	if err != nil {
		return nil, -1, err
	}
	defer release()

	for idx := 0; idx < r.shardCount(); idx++ {
		backend, active := r.shardAt(idx)
		if !active {
			continue
		}

		var rec Record
		err := r.callWithRetry(ctx, func() error {
			var e error
			rec, e = backend.FindOne(ctx, query)
			return e
		})
		if err != nil {
			r.deactivate(idx, err)
			continue
		}
		if rec != nil {
			return rec, idx, nil
		}
	}
	return nil, -1, nil
}

// Count fans out to all active shards and sums their counts. A
// failing shard contributes zero and is marked inactive; the sum of
// the remaining shards is still returned.
func (r *Router) Count(ctx context.Context, query Query) (int64, error) {
	type result struct {
		idx   int
		count int64
		err   error
	}

	n := r.shardCount()
	results := make([]result, n)

	g, gctx := errgroup.WithContext(ctx)
	for idx := 0; idx < n; idx++ {
		backend, active := r.shardAt(idx)
		if !active {
			continue
		}
		idx, backend := idx, backend
		g.Go(func() error {
			release, err := r.ctrl.Acquire(gctx, readDomain)
			if err != nil {
				results[idx] = result{idx: idx, err: err}
				return nil
			}
			defer release()

			var count int64
			err = r.callWithRetry(gctx, func() error {
				var e error
				count, e = backend.Count(gctx, query)
				return e
			})
			results[idx] = result{idx: idx, count: count, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var total int64
	for idx, res := range results {
		if res.err != nil {
			// Admission failures are a caller problem, not a shard one.
			if !domain.IsDomainError(res.err, "BC-CONC-5030") && !domain.IsDomainError(res.err, "BC-CONC-4990") {
				r.deactivate(idx, res.err)
			}
			continue
		}
		total += res.count
	}
	return total, nil
}

// Search fans the query out to all active shards, merges the partial
// results and applies sort, skip and limit globally. Each shard is
// asked for limit+skip records so the merged window is complete.
//
// The merge sort is stable: records comparing equal keep shard order
// first, then their per-shard order.
func (r *Router) Search(ctx context.Context, query Query, limit, skip int, sortKeys []SortKey) ([]Record, error) {
	if limit <= 0 {
		return nil, domain.ErrInvalidArgument.WithDetails("limit must be positive")
	}
	if skip < 0 {
		skip = 0
	}

	n := r.shardCount()
	partials := make([][]Record, n)
	errs := make([]error, n)

	perShard := limit + skip

	g, gctx := errgroup.WithContext(ctx)
	for idx := 0; idx < n; idx++ {
		backend, active := r.shardAt(idx)
		if !active {
			continue
		}
		idx, backend := idx, backend
		g.Go(func() error {
			release, err := r.ctrl.Acquire(gctx, readDomain)
			if err != nil {
				errs[idx] = err
				return nil
			}
			defer release()

			errs[idx] = r.callWithRetry(gctx, func() error {
				var e error
				partials[idx], e = backend.Find(gctx, query, perShard, 0, sortKeys)
				return e
			})
			return nil
		})
	}
	_ = g.Wait()

	var merged []Record
	for idx := 0; idx < n; idx++ {
		if errs[idx] != nil {
			if !domain.IsDomainError(errs[idx], "BC-CONC-5030") && !domain.IsDomainError(errs[idx], "BC-CONC-4990") {
				r.deactivate(idx, errs[idx])
			}
			continue
		}
		merged = append(merged, partials[idx]...)
	}

	SortRecords(merged, sortKeys)

	if skip >= len(merged) {
		return []Record{}, nil
	}
	merged = merged[skip:]
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// Update scans shards in order and applies the update on the first
// shard that reports matching records.
func (r *Router) Update(ctx context.Context, query Query, update map[string]any) (int64, error) {
	release, err := r.ctrl.Acquire(ctx, writeDomain)
	if err != nil {
		return 0, err
	}
	defer release()

	for idx := 0; idx < r.shardCount(); idx++ {
		backend, active := r.shardAt(idx)
		if !active {
			continue
		}

		var modified int64
		err := r.callWithRetry(ctx, func() error {
			var e error
			modified, e = backend.Update(ctx, query, update)
			return e
		})
		if err != nil {
			r.deactivate(idx, err)
			continue
		}
		if modified > 0 {
			return modified, nil
		}
	}
	return 0, nil
}

// Delete removes matching records from every active shard and returns
// the total removed. Duplicated records are purged everywhere.
func (r *Router) Delete(ctx context.Context, query Query) (int64, error) {
	release, err := r.ctrl.Acquire(ctx, writeDomain)
	if err != nil {
		return 0, err
	}
	defer release()

	var total int64
	for idx := 0; idx < r.shardCount(); idx++ {
		backend, active := r.shardAt(idx)
		if !active {
			continue
		}

		var deleted int64
		err := r.callWithRetry(ctx, func() error {
			var e error
			deleted, e = backend.Delete(ctx, query)
			return e
		})
		if err != nil {
			r.deactivate(idx, err)
			continue
		}
		total += deleted
	}
	return total, nil
}

// ShardStat is an operator-facing snapshot of one shard.
type ShardStat struct {
	Index       int       `json:"index"`
	Name        string    `json:"name"`
	Active      bool      `json:"active"`
	WriteTarget bool      `json:"write_target"`
	SizeBytes   int64     `json:"size_bytes"`
	Records     int64     `json:"records"`
	UsagePct    float64   `json:"usage_pct"`
	LastRefresh time.Time `json:"last_refresh"`
}

// ShardStats refreshes (rate-limited) and returns per-shard stats.
func (r *Router) ShardStats(ctx context.Context) []ShardStat {
	r.refreshStats(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ShardStat, len(r.shards))
	for idx, s := range r.shards {
		out[idx] = ShardStat{
			Index:       idx,
			Name:        s.name,
			Active:      s.active,
			WriteTarget: idx == r.writeIdx,
			SizeBytes:   s.sizeBytes,
			Records:     s.records,
			UsagePct:    float64(s.sizeBytes) / float64(r.cfg.SizeCeilingBytes) * 100,
			LastRefresh: s.lastRefresh,
		}
	}
	return out
}

// Ping checks every shard and returns the names of unreachable ones.
func (r *Router) Ping(ctx context.Context) []string {
	var down []string
	for idx := 0; idx < r.shardCount(); idx++ {
		backend, active := r.shardAt(idx)
		if !active {
			r.mu.Lock()
			down = append(down, r.shards[idx].name)
			r.mu.Unlock()
			continue
		}
		if err := backend.Ping(ctx); err != nil {
			r.mu.Lock()
			down = append(down, r.shards[idx].name)
			r.mu.Unlock()
		}
	}
	return down
}

// Close closes all shard backends. Safe to call once; later calls are
// no-ops.
func (r *Router) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	shards := r.shards
	r.mu.Unlock()

	var firstErr error
	for _, s := range shards {
		if err := s.backend.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Router) shardCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shards)
}

func (r *Router) shardAt(idx int) (Backend, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.shards[idx]
	return s.backend, s.active
}
