package cache

import (
	"github.com/seralo/botcore/pkg/cmap"
)

// Registry groups named cache instances.
type Registry struct {
	instances *cmap.Map[string, *Cache]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		instances: cmap.New[string, *Cache](),
	}
}

// GetOrCreate returns the instance with cfg.Name, creating it with
// cfg if absent. Concurrent callers get the same instance.
func (r *Registry) GetOrCreate(cfg Config) *Cache {
	if c, ok := r.instances.Get(cfg.Name); ok {
		return c
	}
	c, _ := r.instances.GetOrSet(cfg.Name, New(cfg))
	return c
}

// Get returns a registered instance by name.
func (r *Registry) Get(name string) (*Cache, bool) {
	return r.instances.Get(name)
}

// Names returns the names of all registered instances.
func (r *Registry) Names() []string {
	return r.instances.Keys()
}

// Snapshots returns stats for every registered instance.
func (r *Registry) Snapshots() []Stats {
	out := make([]Stats, 0, r.instances.Count())
	r.instances.Range(func(_ string, c *Cache) bool {
		out = append(out, c.Snapshot())
		return true
	})
	return out
}

// CleanupExpired sweeps every instance and returns the total number
// of entries removed.
func (r *Registry) CleanupExpired() int {
	total := 0
	r.instances.Range(func(_ string, c *Cache) bool {
		total += c.CleanupExpired()
		return true
	})
	return total
}
