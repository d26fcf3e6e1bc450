// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/seralo/botcore/internal/core/domain"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyConcurrency(&cfg.Concurrency); err != nil {
		return err
	}
	if err := verifyCache(&cfg.Cache); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifySession(&cfg.Session); err != nil {
		return err
	}
	return nil
}

func verifyConcurrency(cfg *ConcurrencySection) error {
	if cfg.DefaultLimit < 1 {
		return errors.New("concurrency.default_limit must be at least 1")
	}
	for name, limit := range cfg.Limits {
		if limit < 1 {
			return fmt.Errorf("concurrency.limits.%s must be at least 1, got %d", name, limit)
		}
	}
	return nil
}

func verifyCache(cfg *CacheSection) error {
	for name, inst := range cfg.Instances {
		if inst.Capacity < 1 {
			return fmt.Errorf("cache.instances.%s.capacity must be at least 1", name)
		}
		if inst.DefaultTTL < 0 {
			return fmt.Errorf("cache.instances.%s.default_ttl must not be negative", name)
		}
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if len(cfg.Shards) == 0 {
		return errors.New("storage.shards requires at least one shard")
	}
	if cfg.SizeCeilingBytes < 1 {
		return errors.New("storage.size_ceiling_bytes must be positive")
	}

	seen := make(map[string]bool, len(cfg.Shards))
	for i, shard := range cfg.Shards {
		if shard.Name == "" {
			return fmt.Errorf("storage.shards[%d].name is required", i)
		}
		if seen[shard.Name] {
			return fmt.Errorf("storage.shards[%d].name %q is duplicated", i, shard.Name)
		}
		seen[shard.Name] = true

		if cfg.InMemory {
			continue
		}
		if shard.Dir == "" {
			return fmt.Errorf("storage.shards[%d].dir is required", i)
		}
		if err := os.MkdirAll(shard.Dir, 0750); err != nil {
			return errors.New("cannot create shard directory: " + err.Error())
		}
	}
	return nil
}

func verifySession(cfg *SessionSection) error {
	if cfg.CacheCapacity < 1 {
		return errors.New("session.cache_capacity must be at least 1")
	}
	for kind, ttl := range cfg.TTL {
		if !domain.SessionKind(kind).Valid() {
			return fmt.Errorf("session.ttl has unknown kind %q", kind)
		}
		if ttl <= 0 {
			return fmt.Errorf("session.ttl.%s must be positive", kind)
		}
	}
	return nil
}
