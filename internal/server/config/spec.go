// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for botcore-server.
type ServerConfig struct {
	Bot         BotSection         `koanf:"bot"`
	Metrics     MetricsSection     `koanf:"metrics"`
	Concurrency ConcurrencySection `koanf:"concurrency"`
	Cache       CacheSection       `koanf:"cache"`
	Storage     StorageSection     `koanf:"storage"`
	Session     SessionSection     `koanf:"session"`
	Log         LogSection         `koanf:"log"`
}

// BotSection configures the bot identity.
type BotSection struct {
	// Token is the bot API token. Masked in logs.
	Token string `koanf:"token"`
}

// MetricsSection configures the metrics endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// ConcurrencySection configures the admission controller.
type ConcurrencySection struct {
	// DefaultLimit applies to domains without an explicit entry.
	DefaultLimit int `koanf:"default_limit"`

	// Limits maps domain name to its admission limit. Domains absent
	// here use DefaultLimit. Limits can be changed at runtime via the
	// config watcher.
	Limits map[string]int `koanf:"limits"`
}

// CacheSection configures named cache instances and the sweeper.
type CacheSection struct {
	// SweepInterval is how often expired entries are reclaimed.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// Instances maps cache name to its tuning.
	Instances map[string]CacheInstance `koanf:"instances"`
}

// CacheInstance tunes a single named cache.
type CacheInstance struct {
	Capacity   int           `koanf:"capacity"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
}

// StorageSection configures the shard set and routing.
type StorageSection struct {
	// Shards lists the storage shards in routing order.
	Shards []ShardConfig `koanf:"shards"`

	// SizeCeilingBytes is the per-shard size above which writes move
	// to the next shard.
	SizeCeilingBytes int64 `koanf:"size_ceiling_bytes"`

	// AutoSwitch enables automatic write-target advancement.
	AutoSwitch bool `koanf:"auto_switch"`

	// StatsWindow bounds how often shard size stats are refreshed.
	StatsWindow time.Duration `koanf:"stats_window"`

	// MaxRetries is the per-operation retry budget against a shard.
	MaxRetries int `koanf:"max_retries"`

	// RetryBaseDelay is the initial retry backoff delay.
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	// SyncWrites makes every shard write fsync.
	SyncWrites bool `koanf:"sync_writes"`

	// InMemory runs shards without disk persistence. For tests and
	// ephemeral deployments.
	InMemory bool `koanf:"in_memory"`
}

// ShardConfig configures a single storage shard.
type ShardConfig struct {
	Name string `koanf:"name"`
	Dir  string `koanf:"dir"`
}

// SessionSection configures the session lifecycle manager.
type SessionSection struct {
	// CacheCapacity bounds the session cache.
	CacheCapacity int `koanf:"cache_capacity"`

	// SweepInterval is how often expired sessions and orphaned
	// pointer entries are reclaimed.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// TTL maps session kind (edit, search, index, batch) to its
	// lifetime. Missing kinds use built-in defaults.
	TTL map[string]time.Duration `koanf:"ttl"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
