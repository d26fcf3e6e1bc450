package service

import (
	"strings"
	"time"

	"github.com/seralo/botcore/internal/cache"
	"github.com/seralo/botcore/internal/telemetry/logger"
)

// SessionSweeper reclaims expired session entries and orphaned
// pointer entries in the background.
//
// TTL expiry alone keeps the cache consistent eventually; the sweeper
// makes it prompt and also drops pointer entries whose primary entry
// is already gone.
type SessionSweeper struct {
	cache    *cache.Cache
	interval time.Duration
	logger   logger.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSessionSweeper creates a sweeper over the session cache. A
// non-positive interval falls back to 5 minutes.
func NewSessionSweeper(c *cache.Cache, interval time.Duration, log logger.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if log == nil {
		log = logger.Default()
	}
	return &SessionSweeper{
		cache:    c,
		interval: interval,
		logger:   log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop in a goroutine.
func (s *SessionSweeper) Start() {
	go s.loop()
}

// Stop signals the loop to exit and waits for it to finish.
func (s *SessionSweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// RunOnce performs a single sweep and returns the number of entries
// removed.
//
// The sweep works off the key listing alone. Reading entries through
// Get would promote them to most-recently-used, letting a maintenance
// pass distort eviction order.
func (s *SessionSweeper) RunOnce() int {
	removed := s.cache.CleanupExpired()

	// Pointer entries whose primary entry is gone. A primary key is
	// its pointer key plus ":<id>", so a pointer is orphaned when no
	// primary key shares its prefix.
	keys := s.cache.Keys(sessionKeyPrefix)
	live := make(map[string]bool, len(keys))
	pointers := make([]string, 0, len(keys))
	for _, key := range keys {
		if isPointerKey(key) {
			pointers = append(pointers, key)
			continue
		}
		if i := strings.LastIndex(key, ":"); i > 0 {
			live[key[:i]] = true
		}
	}
	for _, key := range pointers {
		if !live[key] && s.cache.Delete(key) {
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug("session sweep removed entries", "removed", removed)
	}
	return removed
}

func (s *SessionSweeper) loop() {
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
