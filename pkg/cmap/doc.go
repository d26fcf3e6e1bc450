// Package cmap provides a concurrent sharded map for BotCore.
//
// The map spreads keys over a fixed number of shards, each guarded by
// its own RWMutex, so that hot paths (cache-instance lookups, shard
// bookkeeping) do not contend on a single lock.
//
// Usage:
//
//	m := cmap.New[string, *cache.Cache]()
//	m.Set("user", userCache)
//	c, ok := m.Get("user")
//
// All operations are safe for concurrent use.
package cmap
