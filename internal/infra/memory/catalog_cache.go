package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizroom-service/internal/domain"
)

// CatalogLoader builds the public room catalog from the backing store.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]domain.PublicRoom, error)
}

// CatalogCache keeps the public room catalog in process memory with a TTL.
// Invalidate bumps a generation so loads started before it are never stored.
type CatalogCache struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu         sync.RWMutex
	generation uint64
	entry      *cachedCatalog
}

type cachedCatalog struct {
	rooms      []domain.PublicRoom
	expiresAt  time.Time
	generation uint64
}

func NewCatalogCache(loader CatalogLoader, ttl time.Duration) *CatalogCache {
	return NewCatalogCacheWithClock(loader, ttl, time.Now)
}

// NewCatalogCacheWithClock is test-only for deterministic expiry.
func NewCatalogCacheWithClock(loader CatalogLoader, ttl time.Duration, clock func() time.Time) *CatalogCache {
	return &CatalogCache{
		loader: loader,
		ttl:    ttl,
		clock:  clock,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) Rooms(ctx context.Context) ([]domain.PublicRoom, error) {
	if rooms, _, ok := c.lookup(); ok {
		return rooms, nil
	}

	_, generation, _ := c.lookup()
	result, err, _ := c.sf.Do(strconv.FormatUint(generation, 10), func() (interface{}, error) {
		if rooms, _, ok := c.lookup(); ok {
			return rooms, nil
		}

		rooms, err := c.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation == generation && c.ttl > 0 {
			c.entry = &cachedCatalog{
				rooms:      rooms,
				expiresAt:  c.clock().Add(c.ttlWithJitter()),
				generation: generation,
			}
		}
		c.mu.Unlock()
		return rooms, nil
	})
	if err != nil {
		return nil, err
	}
	return clonePublicRooms(result.([]domain.PublicRoom)), nil
}

// Invalidate drops the cached catalog.
func (c *CatalogCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.generation++
	c.entry = nil
	c.mu.Unlock()
	return nil
}

// lookup returns a fresh cached copy when one exists, plus the current generation.
func (c *CatalogCache) lookup() ([]domain.PublicRoom, uint64, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry != nil && c.entry.generation == c.generation && c.entry.expiresAt.After(now) {
		return clonePublicRooms(c.entry.rooms), c.generation, true
	}
	return nil, c.generation, false
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func clonePublicRooms(rooms []domain.PublicRoom) []domain.PublicRoom {
	out := make([]domain.PublicRoom, len(rooms))
	for i, room := range rooms {
		out[i] = room
		out[i].Room = cloneRoom(room.Room)
		out[i].Questions = make([]domain.PublicQuestion, len(room.Questions))
		for j, q := range room.Questions {
			q.Options = append([]string(nil), q.Options...)
			out[i].Questions[j] = q
		}
	}
	return out
}
