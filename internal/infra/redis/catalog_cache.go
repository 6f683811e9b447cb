package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizroom-service/internal/domain"
)

// CatalogLoader builds the public room catalog from the backing store.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]domain.PublicRoom, error)
}

// CatalogCache stores the public room catalog as one JSON value in Redis.
// Keys are versioned: catalog:{prefix}:version holds a counter and
// catalog:{prefix}:v{n} the payload. Invalidate increments the counter so a
// load racing with a mutation writes to a key nobody reads anymore.
type CatalogCache struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	prefix string
	logger *slog.Logger
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewCatalogCache(client *redis.Client, loader CatalogLoader, ttl time.Duration, prefix string, logger *slog.Logger) *CatalogCache {
	if prefix == "" {
		prefix = "rooms"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		prefix: prefix,
		logger: logger.With("component", "redis-catalog"),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Rooms reads the cached catalog, loading and storing it on a miss. Redis
// failures fall back to the loader.
func (c *CatalogCache) Rooms(ctx context.Context) ([]domain.PublicRoom, error) {
	version, err := c.version(ctx)
	if err != nil {
		c.logger.Warn("catalog version read failed", "error", err)
		return c.loader.LoadCatalog(ctx)
	}
	if rooms, ok := c.read(ctx, version); ok {
		return rooms, nil
	}

	result, err, _ := c.sf.Do(strconv.FormatInt(version, 10), func() (interface{}, error) {
		// Re-check in case another caller filled it.
		if rooms, ok := c.read(ctx, version); ok {
			return rooms, nil
		}

		rooms, err := c.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(rooms)
		if err != nil {
			return nil, fmt.Errorf("encode catalog: %w", err)
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			if err := c.client.Set(ctx, c.payloadKey(version), payload, ttl).Err(); err != nil {
				c.logger.Warn("catalog write failed", "error", err)
			}
		}
		return rooms, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.PublicRoom), nil
}

// Invalidate moves readers to a fresh version key and drops the payload of
// the current one.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	current, err := c.version(ctx)
	if err != nil {
		return fmt.Errorf("invalidate catalog: %w", err)
	}
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, c.versionKey())
	pipe.Del(ctx, c.payloadKey(current))
	if _, err := pipe.Exec(ctx); err != nil {
		if delErr := c.client.Del(ctx, c.payloadKey(current)).Err(); delErr != nil {
			c.logger.Warn("catalog payload delete failed", "version", current, "error", delErr)
		}
		return fmt.Errorf("invalidate catalog: %w", err)
	}
	c.logger.Debug("catalog invalidated", "version", incr.Val())
	return nil
}

func (c *CatalogCache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *CatalogCache) read(ctx context.Context, version int64) ([]domain.PublicRoom, bool) {
	raw, err := c.client.Get(ctx, c.payloadKey(version)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("catalog read failed", "error", err)
		}
		return nil, false
	}
	var rooms []domain.PublicRoom
	if err := json.Unmarshal(raw, &rooms); err != nil {
		c.logger.Warn("catalog decode failed", "error", err)
		return nil, false
	}
	return rooms, true
}

func (c *CatalogCache) versionKey() string {
	return "catalog:" + c.prefix + ":version"
}

func (c *CatalogCache) payloadKey(version int64) string {
	return "catalog:" + c.prefix + ":v" + strconv.FormatInt(version, 10)
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
