// Package router routes records across storage shards.
//
// A Router owns an ordered list of shard backends, tracks which shard
// receives writes, and fans reads out across all shards. Shards are
// treated as remote: every call can fail, and a shard that keeps
// failing is marked inactive for the rest of the process.
package router

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Record is a stored document. Every record carries a unique string
// value under the "id" field.
type Record map[string]any

// ID returns the record's id field, or "" when absent.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Query is an equality match over record fields. An empty query
// matches every record.
type Query map[string]any

// Matches reports whether the record satisfies every equality clause.
func (q Query) Matches(r Record) bool {
	for field, want := range q {
		got, ok := r[field]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// SortKey orders results by one field.
type SortKey struct {
	Field string
	Desc  bool
}

// BackendStats reports shard storage usage.
type BackendStats struct {
	SizeBytes int64 `json:"size_bytes"`
	Records   int64 `json:"records"`
}

// Backend is a single storage shard. Implementations must be safe for
// concurrent use. All calls are treated as network calls: they take a
// context and may fail transiently.
type Backend interface {
	// Name identifies the shard in logs and stats.
	Name() string

	// FindOne returns the first record matching the query, or
	// (nil, nil) when nothing matches.
	FindOne(ctx context.Context, query Query) (Record, error)

	// Find returns matching records ordered by sort, after skipping
	// skip records, at most limit. A non-positive limit means no cap.
	Find(ctx context.Context, query Query, limit, skip int, sort []SortKey) ([]Record, error)

	// Count returns the number of matching records.
	Count(ctx context.Context, query Query) (int64, error)

	// Insert stores the records and returns how many were written.
	// A record whose id already exists is skipped, not an error.
	Insert(ctx context.Context, records []Record) (int, error)

	// Update applies the field updates to every matching record and
	// returns how many were modified.
	Update(ctx context.Context, query Query, update map[string]any) (int64, error)

	// Delete removes matching records and returns how many.
	Delete(ctx context.Context, query Query) (int64, error)

	// Stats reports storage usage.
	Stats(ctx context.Context) (BackendStats, error)

	// Ping checks reachability.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// valuesEqual compares two record field values, treating all numeric
// types as equivalent. JSON round-trips turn ints into float64.
func valuesEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// compareValues orders two record field values. Numbers sort
// numerically, everything else by string form. Mixed types sort
// numbers before non-numbers so the order is total.
func compareValues(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	switch {
	case aok && bok:
		if af < bf {
			return -1
		}
		if af > bf {
			return 1
		}
		return 0
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

// SortRecords sorts records in place by the given keys. The sort is
// stable: records comparing equal keep their input order. Keys are
// applied in reverse so the first key dominates.
func SortRecords(records []Record, keys []SortKey) {
	for i := len(keys) - 1; i >= 0; i-- {
		key := keys[i]
		sort.SliceStable(records, func(a, b int) bool {
			cmp := compareValues(records[a][key.Field], records[b][key.Field])
			if key.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
}
