package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/seralo/botcore/internal/router"
)

func seedShard(t *testing.T, s *Shard, records ...router.Record) {
	t.Helper()
	n, err := s.Insert(context.Background(), records)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if n != len(records) {
		t.Fatalf("Insert() = %d, want %d", n, len(records))
	}
}

func TestShard_InsertAndFindOne(t *testing.T) {
	s := NewShard("shard-0")
	ctx := context.Background()

	seedShard(t, s,
		router.Record{"id": "a", "channel": int64(7), "title": "first"},
		router.Record{"id": "b", "channel": int64(8), "title": "second"},
	)

	rec, err := s.FindOne(ctx, router.Query{"channel": 7})
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if rec == nil || rec.ID() != "a" {
		t.Fatalf("FindOne() = %v, want record a", rec)
	}

	rec, err = s.FindOne(ctx, router.Query{"channel": 99})
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if rec != nil {
		t.Fatalf("FindOne(no match) = %v, want nil", rec)
	}
}

func TestShard_DuplicateInsertIsNoOp(t *testing.T) {
	s := NewShard("shard-0")
	ctx := context.Background()

	seedShard(t, s, router.Record{"id": "a", "v": 1})

	n, err := s.Insert(ctx, []router.Record{
		{"id": "a", "v": 2},
		{"id": "b", "v": 3},
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("Insert() = %d, want 1 (duplicate skipped)", n)
	}

	rec, _ := s.FindOne(ctx, router.Query{"id": "a"})
	if rec["v"] != 1 {
		t.Errorf("duplicate insert overwrote record: v = %v, want 1", rec["v"])
	}
}

func TestShard_FindSortSkipLimit(t *testing.T) {
	s := NewShard("shard-0")
	ctx := context.Background()

	seedShard(t, s,
		router.Record{"id": "a", "score": 3},
		router.Record{"id": "b", "score": 1},
		router.Record{"id": "c", "score": 2},
		router.Record{"id": "d", "score": 5},
	)

	got, err := s.Find(ctx, router.Query{}, 2, 1, []router.SortKey{{Field: "score", Desc: true}})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	// Desc by score: d(5) a(3) c(2) b(1); skip 1 limit 2 -> a, c.
	if len(got) != 2 || got[0].ID() != "a" || got[1].ID() != "c" {
		t.Fatalf("Find() = %v, want [a c]", got)
	}
}

func TestShard_CountUpdateDelete(t *testing.T) {
	s := NewShard("shard-0")
	ctx := context.Background()

	seedShard(t, s,
		router.Record{"id": "a", "kind": "photo"},
		router.Record{"id": "b", "kind": "photo"},
		router.Record{"id": "c", "kind": "video"},
	)

	count, err := s.Count(ctx, router.Query{"kind": "photo"})
	if err != nil || count != 2 {
		t.Fatalf("Count() = %d, %v, want 2, nil", count, err)
	}

	modified, err := s.Update(ctx, router.Query{"kind": "photo"}, map[string]any{"seen": true})
	if err != nil || modified != 2 {
		t.Fatalf("Update() = %d, %v, want 2, nil", modified, err)
	}
	rec, _ := s.FindOne(ctx, router.Query{"id": "a"})
	if rec["seen"] != true {
		t.Errorf("Update did not apply: seen = %v", rec["seen"])
	}

	deleted, err := s.Delete(ctx, router.Query{"kind": "photo"})
	if err != nil || deleted != 2 {
		t.Fatalf("Delete() = %d, %v, want 2, nil", deleted, err)
	}
	count, _ = s.Count(ctx, router.Query{})
	if count != 1 {
		t.Fatalf("Count() after delete = %d, want 1", count)
	}
}

func TestShard_Stats(t *testing.T) {
	s := NewShard("shard-0")
	ctx := context.Background()

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Records != 0 || stats.SizeBytes != 0 {
		t.Fatalf("empty shard stats = %+v, want zeros", stats)
	}

	seedShard(t, s, router.Record{"id": "a", "title": "hello"})

	stats, _ = s.Stats(ctx)
	if stats.Records != 1 {
		t.Errorf("Records = %d, want 1", stats.Records)
	}
	if stats.SizeBytes <= 0 {
		t.Errorf("SizeBytes = %d, want > 0", stats.SizeBytes)
	}
}

func TestShard_FailureInjection(t *testing.T) {
	s := NewShard("shard-0")
	ctx := context.Background()

	injected := errors.New("network down")
	s.FailWith(injected)

	if _, err := s.FindOne(ctx, router.Query{}); !errors.Is(err, injected) {
		t.Errorf("FindOne() error = %v, want injected failure", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, injected) {
		t.Errorf("Ping() error = %v, want injected failure", err)
	}

	s.Heal()
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping() after Heal error = %v", err)
	}
}

func TestShard_Close(t *testing.T) {
	s := NewShard("shard-0")
	ctx := context.Background()

	seedShard(t, s, router.Record{"id": "a"})
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := s.Ping(ctx); err == nil {
		t.Error("Ping() after Close = nil, want error")
	}
}
