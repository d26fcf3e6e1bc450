// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultMetricsAddr = "127.0.0.1:9180"

	DefaultConcurrencyLimit = 10

	DefaultCacheSweepInterval = 5 * time.Minute

	DefaultShardDir         = "/var/lib/botcore-server/shards"
	DefaultSizeCeilingBytes = 1 << 30 // 1 GiB per shard
	DefaultStatsWindow      = 30 * time.Second
	DefaultMaxRetries       = 3
	DefaultRetryBaseDelay   = 50 * time.Millisecond

	DefaultSessionCacheCapacity = 10000
	DefaultSessionSweepInterval = 5 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Metrics: MetricsSection{
			Enabled: true,
			Addr:    DefaultMetricsAddr,
		},
		Concurrency: ConcurrencySection{
			DefaultLimit: DefaultConcurrencyLimit,
			Limits: map[string]int{
				"dispatch":        10,
				"fetch":           15,
				"storage_write":   20,
				"storage_read":    30,
				"file_processing": 5,
				"broadcast":       3,
				"indexing":        8,
				"cache":           25,
			},
		},
		Cache: CacheSection{
			SweepInterval: DefaultCacheSweepInterval,
			Instances: map[string]CacheInstance{
				"user":    {Capacity: 5000, DefaultTTL: 5 * time.Minute},
				"premium": {Capacity: 2000, DefaultTTL: 10 * time.Minute},
				"channel": {Capacity: 500, DefaultTTL: 30 * time.Minute},
				"link":    {Capacity: 1000, DefaultTTL: 15 * time.Minute},
			},
		},
		Storage: StorageSection{
			Shards: []ShardConfig{
				{Name: "shard-0", Dir: DefaultShardDir + "/shard-0"},
				{Name: "shard-1", Dir: DefaultShardDir + "/shard-1"},
			},
			SizeCeilingBytes: DefaultSizeCeilingBytes,
			AutoSwitch:       true,
			StatsWindow:      DefaultStatsWindow,
			MaxRetries:       DefaultMaxRetries,
			RetryBaseDelay:   DefaultRetryBaseDelay,
		},
		Session: SessionSection{
			CacheCapacity: DefaultSessionCacheCapacity,
			SweepInterval: DefaultSessionSweepInterval,
			TTL: map[string]time.Duration{
				"edit":   5 * time.Minute,
				"search": time.Hour,
				"index":  30 * time.Minute,
				"batch":  2 * time.Hour,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
