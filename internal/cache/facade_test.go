package cache

import (
	"errors"
	"testing"
	"time"
)

func TestCached_ComputesAndStores(t *testing.T) {
	c := New(Config{Name: "test", Capacity: 10, DefaultTTL: time.Minute})

	calls := 0
	producer := func() (string, error) {
		calls++
		return "value", nil
	}

	v, err := Cached(c, "k", 0, producer)
	if err != nil {
		t.Fatalf("Cached() error = %v", err)
	}
	if v != "value" {
		t.Fatalf("Cached() = %q, want %q", v, "value")
	}

	// Second call served from cache.
	v, err = Cached(c, "k", 0, producer)
	if err != nil {
		t.Fatalf("Cached() error = %v", err)
	}
	if v != "value" || calls != 1 {
		t.Fatalf("Cached() = %q with %d producer calls, want value with 1", v, calls)
	}
}

func TestCached_ProducerError(t *testing.T) {
	c := New(Config{Name: "test", Capacity: 10, DefaultTTL: time.Minute})

	wantErr := errors.New("backend down")
	_, err := Cached(c, "k", 0, func() (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Cached() error = %v, want %v", err, wantErr)
	}

	// Errors are not cached.
	if _, ok := c.Get("k"); ok {
		t.Error("failed producer result was stored")
	}
}

func TestCached_TypeDriftFallsBackToProducer(t *testing.T) {
	c := New(Config{Name: "test", Capacity: 10, DefaultTTL: time.Minute})

	// Another writer stored an incompatible type under the same key.
	c.Set("k", 12345, 0)

	v, err := Cached(c, "k", 0, func() (string, error) {
		return "fresh", nil
	})
	if err != nil {
		t.Fatalf("Cached() error = %v", err)
	}
	if v != "fresh" {
		t.Fatalf("Cached() = %q, want %q", v, "fresh")
	}

	if snap := c.Snapshot(); snap.Errors != 1 {
		t.Errorf("Errors = %d, want 1", snap.Errors)
	}

	// The entry was replaced with the producer result.
	if raw, ok := c.Get("k"); !ok || raw != "fresh" {
		t.Errorf("Get(k) = %v, %v, want fresh, true", raw, ok)
	}
}
