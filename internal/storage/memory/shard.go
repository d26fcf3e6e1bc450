// Package memory provides an in-memory shard backend.
//
// It implements the router.Backend interface without any IO and is
// used for ephemeral deployments and in tests. Failures can be
// injected to exercise the router's degradation paths.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/seralo/botcore/internal/core/domain"
	"github.com/seralo/botcore/internal/router"
)

// Shard is an in-memory router.Backend.
type Shard struct {
	mu      sync.RWMutex
	name    string
	records map[string]router.Record
	order   []string // insertion order of record ids
	size    int64    // sum of marshaled record sizes
	failErr error
	closed  bool
}

// NewShard creates an empty in-memory shard.
func NewShard(name string) *Shard {
	return &Shard{
		name:    name,
		records: make(map[string]router.Record),
	}
}

// FailWith makes every subsequent call return err. Used in tests to
// simulate an unreachable shard.
func (s *Shard) FailWith(err error) {
	s.mu.Lock()
	s.failErr = err
	s.mu.Unlock()
}

// Heal clears an injected failure.
func (s *Shard) Heal() {
	s.mu.Lock()
	s.failErr = nil
	s.mu.Unlock()
}

// Name implements router.Backend.
func (s *Shard) Name() string {
	return s.name
}

// FindOne implements router.Backend.
func (s *Shard) FindOne(ctx context.Context, query router.Query) (router.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.usableLocked(); err != nil {
		return nil, err
	}

	for _, id := range s.order {
		if rec := s.records[id]; query.Matches(rec) {
			return cloneRecord(rec), nil
		}
	}
	return nil, nil
}

// Find implements router.Backend.
func (s *Shard) Find(ctx context.Context, query router.Query, limit, skip int, sort []router.SortKey) ([]router.Record, error) {
	s.mu.RLock()
	if err := s.usableLocked(); err != nil {
		s.mu.RUnlock()
		return nil, err
	}

	var matched []router.Record
	for _, id := range s.order {
		if rec := s.records[id]; query.Matches(rec) {
			matched = append(matched, cloneRecord(rec))
		}
	}
	s.mu.RUnlock()

	router.SortRecords(matched, sort)

	if skip > 0 {
		if skip >= len(matched) {
			return []router.Record{}, nil
		}
		matched = matched[skip:]
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Count implements router.Backend.
func (s *Shard) Count(ctx context.Context, query router.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.usableLocked(); err != nil {
		return 0, err
	}

	var count int64
	for _, rec := range s.records {
		if query.Matches(rec) {
			count++
		}
	}
	return count, nil
}

// Insert implements router.Backend. Records without an id or with an
// id that already exists are skipped.
func (s *Shard) Insert(ctx context.Context, records []router.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return 0, err
	}

	inserted := 0
	for _, rec := range records {
		id := rec.ID()
		if id == "" {
			continue
		}
		if _, exists := s.records[id]; exists {
			continue
		}
		clone := cloneRecord(rec)
		s.records[id] = clone
		s.order = append(s.order, id)
		s.size += recordSize(clone)
		inserted++
	}
	return inserted, nil
}

// Update implements router.Backend.
func (s *Shard) Update(ctx context.Context, query router.Query, update map[string]any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return 0, err
	}

	var modified int64
	for _, id := range s.order {
		rec := s.records[id]
		if !query.Matches(rec) {
			continue
		}
		s.size -= recordSize(rec)
		for k, v := range update {
			rec[k] = v
		}
		s.size += recordSize(rec)
		modified++
	}
	return modified, nil
}

// Delete implements router.Backend.
func (s *Shard) Delete(ctx context.Context, query router.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return 0, err
	}

	var deleted int64
	kept := s.order[:0]
	for _, id := range s.order {
		rec := s.records[id]
		if query.Matches(rec) {
			s.size -= recordSize(rec)
			delete(s.records, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return deleted, nil
}

// Stats implements router.Backend.
func (s *Shard) Stats(ctx context.Context) (router.BackendStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.usableLocked(); err != nil {
		return router.BackendStats{}, err
	}
	return router.BackendStats{
		SizeBytes: s.size,
		Records:   int64(len(s.records)),
	}, nil
}

// Ping implements router.Backend.
func (s *Shard) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usableLocked()
}

// Close implements router.Backend.
func (s *Shard) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.records = make(map[string]router.Record)
	s.order = nil
	s.size = 0
	return nil
}

func (s *Shard) usableLocked() error {
	if s.closed {
		return domain.ErrShardUnavailable.WithDetails("shard " + s.name + " closed")
	}
	return s.failErr
}

func cloneRecord(rec router.Record) router.Record {
	clone := make(router.Record, len(rec))
	for k, v := range rec {
		clone[k] = v
	}
	return clone
}

// recordSize approximates stored bytes by the JSON encoding length.
func recordSize(rec router.Record) int64 {
	b, err := json.Marshal(rec)
	if err != nil {
		return 0
	}
	return int64(len(b))
}
