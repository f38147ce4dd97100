package cache

import (
	"sync"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
)

// The cache keeps solved results in memory so that a server answering
// repeated requests for the same deal does not search it twice. Keys are
// hashed with xxhash; a full key is kept to rule out hash collisions.

type entry[V any] struct {
	key string
	obj V
}

type Cache[V any] struct {
	sync.Mutex
	objects map[uint64]entry[V]
	// order is the insertion order, for evicting the oldest entry.
	order []uint64
	limit int
}

type LoadFunc[V any] func(key string) (V, error)

// New returns a cache holding at most limit objects; limit <= 0 means no
// limit.
func New[V any](limit int) *Cache[V] {
	return &Cache[V]{objects: make(map[uint64]entry[V]), limit: limit}
}

func hash(key string) uint64 {
	return xxhash.Sum64String(key)
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.Lock()
	defer c.Unlock()
	e, ok := c.objects[hash(key)]
	if !ok || e.key != key {
		var zero V
		return zero, false
	}
	return e.obj, true
}

func (c *Cache[V]) Put(key string, obj V) {
	c.Lock()
	defer c.Unlock()
	h := hash(key)
	if _, ok := c.objects[h]; !ok {
		c.order = append(c.order, h)
	}
	c.objects[h] = entry[V]{key: key, obj: obj}
	for c.limit > 0 && len(c.order) > c.limit {
		delete(c.objects, c.order[0])
		c.order = c.order[1:]
	}
}

// Load returns the cached object for key, calling loadFunc to create it on
// a miss. loadFunc runs without the lock held, so two callers may load the
// same key at once; the last one stored wins.
func (c *Cache[V]) Load(key string, loadFunc LoadFunc[V]) (V, error) {
	if obj, ok := c.Get(key); ok {
		log.Debug().Str("key", key).Msg("getting obj from cache")
		return obj, nil
	}
	log.Debug().Str("key", key).Msg("loading into cache")
	obj, err := loadFunc(key)
	if err != nil {
		return obj, err
	}
	c.Put(key, obj)
	return obj, nil
}

func (c *Cache[V]) Len() int {
	c.Lock()
	defer c.Unlock()
	return len(c.objects)
}
