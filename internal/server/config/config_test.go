// Package config defines the server configuration structure.
package config

import (
	"os"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.Metrics.Enabled {
		t.Error("Metrics should be enabled by default")
	}
	if cfg.Metrics.Addr != DefaultMetricsAddr {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, DefaultMetricsAddr)
	}

	if cfg.Concurrency.DefaultLimit != DefaultConcurrencyLimit {
		t.Errorf("DefaultLimit = %d, want %d", cfg.Concurrency.DefaultLimit, DefaultConcurrencyLimit)
	}
	if cfg.Concurrency.Limits["broadcast"] != 3 {
		t.Errorf("Limits[broadcast] = %d, want 3", cfg.Concurrency.Limits["broadcast"])
	}
	if cfg.Concurrency.Limits["storage_read"] != 30 {
		t.Errorf("Limits[storage_read] = %d, want 30", cfg.Concurrency.Limits["storage_read"])
	}

	if got := cfg.Cache.Instances["user"].Capacity; got != 5000 {
		t.Errorf("Cache.Instances[user].Capacity = %d, want 5000", got)
	}
	if got := cfg.Cache.Instances["channel"].DefaultTTL; got != 30*time.Minute {
		t.Errorf("Cache.Instances[channel].DefaultTTL = %v, want 30m", got)
	}

	if len(cfg.Storage.Shards) != 2 {
		t.Errorf("Shards = %d, want 2", len(cfg.Storage.Shards))
	}
	if !cfg.Storage.AutoSwitch {
		t.Error("AutoSwitch should be enabled by default")
	}
	if cfg.Storage.SizeCeilingBytes != DefaultSizeCeilingBytes {
		t.Errorf("SizeCeilingBytes = %d, want %d", cfg.Storage.SizeCeilingBytes, DefaultSizeCeilingBytes)
	}

	if cfg.Session.TTL["edit"] != 5*time.Minute {
		t.Errorf("Session.TTL[edit] = %v, want 5m", cfg.Session.TTL["edit"])
	}
	if cfg.Session.TTL["batch"] != 2*time.Hour {
		t.Errorf("Session.TTL[batch] = %v, want 2h", cfg.Session.TTL["batch"])
	}

	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, DefaultLogFormat)
	}
}

func TestSanitize(t *testing.T) {
	cfg := &ServerConfig{
		Bot: BotSection{
			Token: "123456789:AAfEx9pLq7rT2vWk8mNc4bZs1dYh6gJu2wK",
		},
	}

	sanitized := Sanitize(cfg)

	// Original should be unchanged
	if cfg.Bot.Token != "123456789:AAfEx9pLq7rT2vWk8mNc4bZs1dYh6gJu2wK" {
		t.Error("Original config should not be modified")
	}

	if sanitized.Bot.Token == cfg.Bot.Token {
		t.Error("Sanitized config should mask the bot token")
	}

	// Should preserve the length and edges
	if len(sanitized.Bot.Token) != len(cfg.Bot.Token) {
		t.Errorf("Masked token length = %d, want %d", len(sanitized.Bot.Token), len(cfg.Bot.Token))
	}
}

func TestSanitize_EmptyToken(t *testing.T) {
	cfg := &ServerConfig{}

	sanitized := Sanitize(cfg)

	if sanitized.Bot.Token != "" {
		t.Error("Empty token should remain empty")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a", "****"},
		{"abcd", "****"},
		{"abcde", "ab*de"},
		{"abcdef", "ab**ef"},
		{"1234567890", "12******90"},
	}

	for _, tt := range tests {
		result := maskSecret(tt.input)
		if result != tt.expected {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestVerify_ValidConfig(t *testing.T) {
	cfg := Default()
	cfg.Storage.InMemory = true

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestVerify_InvalidDefaultLimit(t *testing.T) {
	cfg := Default()
	cfg.Storage.InMemory = true
	cfg.Concurrency.DefaultLimit = 0

	if err := Verify(cfg); err == nil {
		t.Error("Expected error for zero default_limit")
	}
}

func TestVerify_InvalidDomainLimit(t *testing.T) {
	cfg := Default()
	cfg.Storage.InMemory = true
	cfg.Concurrency.Limits["broadcast"] = -1

	if err := Verify(cfg); err == nil {
		t.Error("Expected error for negative domain limit")
	}
}

func TestVerify_InvalidCacheCapacity(t *testing.T) {
	cfg := Default()
	cfg.Storage.InMemory = true
	cfg.Cache.Instances["user"] = CacheInstance{Capacity: 0}

	if err := Verify(cfg); err == nil {
		t.Error("Expected error for zero cache capacity")
	}
}

func TestVerify_NoShards(t *testing.T) {
	cfg := Default()
	cfg.Storage.Shards = nil

	if err := Verify(cfg); err == nil {
		t.Error("Expected error for empty shard list")
	}
}

func TestVerify_DuplicateShardName(t *testing.T) {
	cfg := Default()
	cfg.Storage.InMemory = true
	cfg.Storage.Shards = []ShardConfig{
		{Name: "shard-0"},
		{Name: "shard-0"},
	}

	if err := Verify(cfg); err == nil {
		t.Error("Expected error for duplicate shard name")
	}
}

func TestVerify_CreateShardDir(t *testing.T) {
	dir := t.TempDir()
	newDir := dir + "/subdir/shard-0"

	cfg := Default()
	cfg.Storage.Shards = []ShardConfig{{Name: "shard-0", Dir: newDir}}

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify failed: %v", err)
	}

	// Check directory was created
	if _, err := os.Stat(newDir); os.IsNotExist(err) {
		t.Error("Shard directory should have been created")
	}
}

func TestVerify_UnknownSessionKind(t *testing.T) {
	cfg := Default()
	cfg.Storage.InMemory = true
	cfg.Session.TTL["bogus"] = time.Minute

	if err := Verify(cfg); err == nil {
		t.Error("Expected error for unknown session kind")
	}
}

func TestVerify_NonPositiveSessionTTL(t *testing.T) {
	cfg := Default()
	cfg.Storage.InMemory = true
	cfg.Session.TTL["edit"] = 0

	if err := Verify(cfg); err == nil {
		t.Error("Expected error for zero session ttl")
	}
}
