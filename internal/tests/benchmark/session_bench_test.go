package benchmark

import (
	"context"
	"testing"
	"time"

	"github.com/seralo/botcore/internal/cache"
	"github.com/seralo/botcore/internal/core/domain"
	"github.com/seralo/botcore/internal/core/service"
	"github.com/seralo/botcore/internal/telemetry/logger"
)

func newSessionManager(b *testing.B, capacity int) *service.SessionManager {
	b.Helper()
	c := cache.New(cache.Config{
		Name:       "session",
		Capacity:   capacity,
		DefaultTTL: time.Hour,
	})
	m, err := service.NewSessionManager(c, nil, logger.Default())
	if err != nil {
		b.Fatalf("NewSessionManager failed: %v", err)
	}
	return m
}

func BenchmarkSessionCreate(b *testing.B) {
	m := newSessionManager(b, 1<<20)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := m.Create(ctx, &service.CreateSessionRequest{
			UserID: int64(i%100000 + 1),
			Kind:   domain.KindEdit,
		})
		if err != nil {
			b.Fatalf("Create failed: %v", err)
		}
	}

	b.StopTimer()
	reportMemory(b, "mem")
}

func BenchmarkSessionGet(b *testing.B) {
	m := newSessionManager(b, 1<<20)
	ctx := context.Background()

	const users = 10000
	for i := 1; i <= users; i++ {
		_, err := m.Create(ctx, &service.CreateSessionRequest{
			UserID: int64(i),
			Kind:   domain.KindSearch,
		})
		if err != nil {
			b.Fatalf("Create failed: %v", err)
		}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := m.Get(ctx, &service.GetSessionRequest{
			UserID: int64(i%users + 1),
			Kind:   domain.KindSearch,
		})
		if err != nil {
			b.Fatalf("Get failed: %v", err)
		}
	}
}

func BenchmarkSessionUpdate(b *testing.B) {
	m := newSessionManager(b, 1<<20)
	ctx := context.Background()

	const users = 1000
	for i := 1; i <= users; i++ {
		_, err := m.Create(ctx, &service.CreateSessionRequest{
			UserID: int64(i),
			Kind:   domain.KindBatch,
		})
		if err != nil {
			b.Fatalf("Create failed: %v", err)
		}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := m.Update(ctx, &service.UpdateSessionRequest{
			UserID:  int64(i%users + 1),
			Kind:    domain.KindBatch,
			Payload: map[string]any{"step": i},
		})
		if err != nil {
			b.Fatalf("Update failed: %v", err)
		}
	}
}
