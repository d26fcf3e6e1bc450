package cache

import "time"

// Cached returns the value under key if present, otherwise calls
// producer, stores its result and returns it.
//
// A cache problem (a stored value of the wrong type) never suppresses
// the producer result: it is counted on the error counter and the
// producer runs as if the key were absent. Producer errors are
// returned as-is and nothing is stored.
func Cached[T any](c *Cache, key string, ttl time.Duration, producer func() (T, error)) (T, error) {
	if raw, ok := c.Get(key); ok {
		if v, ok := raw.(T); ok {
			return v, nil
		}
		// Type drift between writers. Drop the entry and recompute.
		c.countError()
		c.Delete(key)
	}

	v, err := producer()
	if err != nil {
		return v, err
	}

	c.Set(key, v, ttl)
	return v, nil
}
