// Package storage provides Badger-based shard backends.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v3"

	"github.com/seralo/botcore/internal/core/domain"
	"github.com/seralo/botcore/internal/router"
)

// recordPrefix namespaces record keys inside the Badger keyspace.
const recordPrefix = "rec:"

// BadgerConfig holds Badger shard configuration.
type BadgerConfig struct {
	// Name identifies the shard.
	Name string
	// Dir is the Badger data directory.
	Dir string
	// SyncWrites makes every write fsync. Slower, safer.
	SyncWrites bool
	// InMemory runs Badger without disk persistence.
	InMemory bool
}

// BadgerShard implements router.Backend on a Badger v3 database.
// Records are stored as JSON under "rec:<id>" keys; queries are
// evaluated by scanning the record keyspace.
type BadgerShard struct {
	db     *badger.DB
	name   string
	logger *slog.Logger
}

// NewBadgerShard opens (or creates) a Badger shard.
func NewBadgerShard(cfg BadgerConfig, logger *slog.Logger) (*BadgerShard, error) {
	if cfg.Name == "" {
		return nil, domain.ErrInvalidConfig.WithDetails("badger shard name is required")
	}
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, domain.ErrInvalidConfig.WithDetails("badger shard dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = &badgerLogger{logger: logger.With("shard", cfg.Name)}
	opts.SyncWrites = cfg.SyncWrites
	opts.InMemory = cfg.InMemory
	if cfg.InMemory {
		opts.Dir = ""
		opts.ValueDir = ""
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, domain.ErrStorageError.WithDetails("open badger shard " + cfg.Name).WithCause(err)
	}

	logger.Info("badger shard opened",
		"shard", cfg.Name, "dir", cfg.Dir, "in_memory", cfg.InMemory)

	return &BadgerShard{
		db:     db,
		name:   cfg.Name,
		logger: logger,
	}, nil
}

// Name implements router.Backend.
func (s *BadgerShard) Name() string {
	return s.name
}

// FindOne implements router.Backend.
func (s *BadgerShard) FindOne(ctx context.Context, query router.Query) (router.Record, error) {
	var found router.Record
	err := s.scan(ctx, func(rec router.Record) bool {
		if query.Matches(rec) {
			found = rec
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Find implements router.Backend.
func (s *BadgerShard) Find(ctx context.Context, query router.Query, limit, skip int, sort []router.SortKey) ([]router.Record, error) {
	var matched []router.Record
	err := s.scan(ctx, func(rec router.Record) bool {
		if query.Matches(rec) {
			matched = append(matched, rec)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

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
func (s *BadgerShard) Count(ctx context.Context, query router.Query) (int64, error) {
	var count int64
	err := s.scan(ctx, func(rec router.Record) bool {
		if query.Matches(rec) {
			count++
		}
		return true
	})
	return count, err
}

// Insert implements router.Backend. Records whose id already exists
// are skipped.
func (s *BadgerShard) Insert(ctx context.Context, records []router.Record) (int, error) {
	inserted := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, rec := range records {
			id := rec.ID()
			if id == "" {
				continue
			}
			key := []byte(recordPrefix + id)

			if _, err := txn.Get(key); err == nil {
				continue // duplicate id
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			value, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := txn.Set(key, value); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, domain.ErrStorageError.WithCause(err)
	}
	return inserted, nil
}

// Update implements router.Backend.
func (s *BadgerShard) Update(ctx context.Context, query router.Query, update map[string]any) (int64, error) {
	matched, err := s.Find(ctx, query, 0, 0, nil)
	if err != nil {
		return 0, err
	}
	if len(matched) == 0 {
		return 0, nil
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, rec := range matched {
			for k, v := range update {
				rec[k] = v
			}
			value, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(recordPrefix+rec.ID()), value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, domain.ErrStorageError.WithCause(err)
	}
	return int64(len(matched)), nil
}

// Delete implements router.Backend.
func (s *BadgerShard) Delete(ctx context.Context, query router.Query) (int64, error) {
	matched, err := s.Find(ctx, query, 0, 0, nil)
	if err != nil {
		return 0, err
	}
	if len(matched) == 0 {
		return 0, nil
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, rec := range matched {
			if err := txn.Delete([]byte(recordPrefix + rec.ID())); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, domain.ErrStorageError.WithCause(err)
	}
	return int64(len(matched)), nil
}

// Stats implements router.Backend. Size is the LSM tree plus the
// value log; the record count comes from a key-only scan.
func (s *BadgerShard) Stats(ctx context.Context) (router.BackendStats, error) {
	lsm, vlog := s.db.Size()

	var records int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			records++
		}
		return nil
	})
	if err != nil {
		return router.BackendStats{}, domain.ErrStorageError.WithCause(err)
	}

	return router.BackendStats{
		SizeBytes: lsm + vlog,
		Records:   records,
	}, nil
}

// Ping implements router.Backend with a no-op read transaction.
func (s *BadgerShard) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return domain.ErrShardUnavailable.WithDetails("shard " + s.name + " closed")
	}
	return s.db.View(func(txn *badger.Txn) error { return nil })
}

// Close implements router.Backend.
func (s *BadgerShard) Close() error {
	s.logger.Info("closing badger shard", "shard", s.name)
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close badger shard %s: %w", s.name, err)
	}
	return nil
}

// scan iterates decoded records until fn returns false.
func (s *BadgerShard) scan(ctx context.Context, fn func(rec router.Record) bool) error {
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			var rec router.Record
			if err := json.Unmarshal(value, &rec); err != nil {
				// Skip undecodable records rather than failing the scan.
				s.logger.Warn("skipping corrupt record",
					"shard", s.name, "key", string(it.Item().Key()), "error", err)
				continue
			}
			if !fn(rec) {
				break
			}
		}
		return nil
	})
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
