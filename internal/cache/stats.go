package cache

// counters holds raw hit/miss accounting. Guarded by Cache.mu.
type counters struct {
	Hits              uint64
	Misses            uint64
	Sets              uint64
	Evictions         uint64
	CapacityEvictions uint64
	ExpiryEvictions   uint64
	Errors            uint64
}

// Stats is a point-in-time snapshot of a cache instance.
type Stats struct {
	Name              string  `json:"name"`
	Size              int     `json:"size"`
	Capacity          int     `json:"capacity"`
	Hits              uint64  `json:"hits"`
	Misses            uint64  `json:"misses"`
	Sets              uint64  `json:"sets"`
	Evictions         uint64  `json:"evictions"`
	CapacityEvictions uint64  `json:"capacity_evictions"`
	ExpiryEvictions   uint64  `json:"expiry_evictions"`
	Errors            uint64  `json:"errors"`
	HitRate           float64 `json:"hit_rate"`
}

// Snapshot returns current statistics for the instance.
func (c *Cache) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Name:              c.name,
		Size:              len(c.items),
		Capacity:          c.capacity,
		Hits:              c.stats.Hits,
		Misses:            c.stats.Misses,
		Sets:              c.stats.Sets,
		Evictions:         c.stats.Evictions,
		CapacityEvictions: c.stats.CapacityEvictions,
		ExpiryEvictions:   c.stats.ExpiryEvictions,
		Errors:            c.stats.Errors,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}
