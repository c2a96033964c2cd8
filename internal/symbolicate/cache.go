package symbolicate

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/foldmap/sourcemap/internal/sourcemap"
)

// ConsumerCache memoizes parsed-and-consumed maps behind a string key,
// typically a map's source URL. Concurrency and caching are a
// host-application concern, not part of the composition core itself;
// this is that cache.
type ConsumerCache struct {
	mu      sync.Mutex
	entries map[uint64]*sourcemap.Consumer
}

// NewConsumerCache returns an empty cache ready for concurrent use.
func NewConsumerCache() *ConsumerCache {
	return &ConsumerCache{entries: make(map[uint64]*sourcemap.Consumer)}
}

// GetOrParse returns the cached Consumer for key, parsing raw and storing it
// the first time key is seen. A parse failure is never cached, so a later
// call with a corrected raw document for the same key can still succeed.
func (c *ConsumerCache) GetOrParse(key string, raw []byte) (*sourcemap.Consumer, error) {
	h := xxhash.Sum64String(key)

	c.mu.Lock()
	if cons, ok := c.entries[h]; ok {
		c.mu.Unlock()
		return cons, nil
	}
	c.mu.Unlock()

	m, err := sourcemap.Parse(raw)
	if err != nil {
		return nil, err
	}
	cons := sourcemap.NewConsumer(m)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[h]; ok {
		return existing, nil
	}
	c.entries[h] = cons
	return cons, nil
}

// Evict drops key's cached Consumer, if any.
func (c *ConsumerCache) Evict(key string) {
	h := xxhash.Sum64String(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, h)
}

// Len reports how many consumers are currently cached.
func (c *ConsumerCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
