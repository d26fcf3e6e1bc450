package cache

import (
	"time"

	"github.com/seralo/botcore/internal/telemetry/logger"
)

// Sweeper periodically removes expired entries from every instance in
// a registry.
type Sweeper struct {
	registry *Registry
	interval time.Duration
	logger   logger.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSweeper creates a sweeper for the registry. A non-positive
// interval falls back to 5 minutes.
func NewSweeper(registry *Registry, interval time.Duration, log logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if log == nil {
		log = logger.Default()
	}
	return &Sweeper{
		registry: registry,
		interval: interval,
		logger:   log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop in a goroutine.
func (s *Sweeper) Start() {
	go s.loop()
}

// Stop signals the loop to exit and waits for it to finish.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// RunOnce performs a single sweep across all instances and returns
// the number of entries removed.
func (s *Sweeper) RunOnce() int {
	removed := s.registry.CleanupExpired()
	if removed > 0 {
		s.logger.Debug("cache sweep removed expired entries", "removed", removed)
	}
	return removed
}

func (s *Sweeper) loop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce()
		case <-s.stopCh:
			return
		}
	}
}
