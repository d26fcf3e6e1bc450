package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewHandler(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	if h == nil {
		t.Fatal("NewHandler returned nil")
	}
	if h.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", h.timeout)
	}
	if h.hooks == nil {
		t.Error("hooks should be initialized")
	}
	if h.done == nil {
		t.Error("done channel should be initialized")
	}
}

func TestHandler_RunReverseOrder(t *testing.T) {
	h := NewHandler(5*time.Second, nil)

	callOrder := make([]int, 0)
	var mu sync.Mutex

	for i := 1; i <= 3; i++ {
		i := i
		h.OnShutdown("hook", func(ctx context.Context) error {
			mu.Lock()
			callOrder = append(callOrder, i)
			mu.Unlock()
			return nil
		})
	}

	if err := h.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []int{3, 2, 1}
	if len(callOrder) != len(want) {
		t.Fatalf("callOrder = %v, want %v", callOrder, want)
	}
	for i := range want {
		if callOrder[i] != want[i] {
			t.Errorf("callOrder = %v, want %v", callOrder, want)
			break
		}
	}
}

func TestHandler_RunAllHooksDespiteError(t *testing.T) {
	h := NewHandler(5*time.Second, nil)

	hookErr := errors.New("cleanup failed")
	var firstRan bool

	h.OnShutdown("first", func(ctx context.Context) error {
		firstRan = true
		return nil
	})
	h.OnShutdown("failing", func(ctx context.Context) error {
		return hookErr
	})

	err := h.Run()
	if !errors.Is(err, hookErr) {
		t.Errorf("Run() error = %v, want %v", err, hookErr)
	}
	if !firstRan {
		t.Error("hooks after a failure should still run")
	}
}

func TestHandler_Done(t *testing.T) {
	h := NewHandler(time.Second, nil)

	select {
	case <-h.Done():
		t.Fatal("Done() closed before shutdown")
	default:
	}

	if err := h.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Error("Done() not closed after Run()")
	}
}

func TestHandler_HookTimeout(t *testing.T) {
	h := NewHandler(50*time.Millisecond, nil)

	h.OnShutdown("slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	err := h.Run()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded", err)
	}
}
