package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizroom-service/internal/domain"
)

func TestCatalogCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{rooms: sampleCatalog()}
	cache := NewCatalogCache(newClient(mr), loader, time.Minute, "test", nil)

	rooms, err := cache.Rooms(context.Background())
	if err != nil {
		t.Fatalf("rooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Code != "R1" {
		t.Fatalf("unexpected catalog %+v", rooms)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.count())
	}
	if !mr.Exists("catalog:test:v0") {
		t.Fatalf("expected payload key to be written")
	}

	// Second call should hit cache, loader not incremented.
	rooms, _ = cache.Rooms(context.Background())
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.count())
	}
	if len(rooms[0].Questions) != 1 || rooms[0].Questions[0].Options[1] != "4" {
		t.Fatalf("cached catalog lost questions: %+v", rooms[0])
	}
}

func TestCatalogCacheInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{rooms: sampleCatalog()}
	cache := NewCatalogCache(newClient(mr), loader, time.Minute, "test", nil)
	ctx := context.Background()

	_, _ = cache.Rooms(ctx)
	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = cache.Rooms(ctx)
	if loader.count() != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.count())
	}
	if !mr.Exists("catalog:test:v1") {
		t.Fatalf("expected payload under the new version")
	}
}

func TestCatalogCacheInvalidateDropsCurrentPayload(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{rooms: sampleCatalog()}
	cache := NewCatalogCache(newClient(mr), loader, time.Minute, "test", nil)
	ctx := context.Background()

	_, _ = cache.Rooms(ctx)
	if !mr.Exists("catalog:test:v0") {
		t.Fatalf("expected payload under v0")
	}
	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("catalog:test:v0") {
		t.Fatalf("expected v0 payload removed on invalidate")
	}

	// a lost version bump still forces a reload
	if err := mr.Set("catalog:test:version", "0"); err != nil {
		t.Fatalf("reset version: %v", err)
	}
	_, _ = cache.Rooms(ctx)
	if loader.count() != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.count())
	}
}

func TestCatalogCacheTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{rooms: sampleCatalog()}
	cache := NewCatalogCache(newClient(mr), loader, time.Minute, "test", nil)

	_, _ = cache.Rooms(context.Background())
	ttl := mr.TTL("catalog:test:v0")
	if ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("expected ttl with at most 10%% jitter, got %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	_, _ = cache.Rooms(context.Background())
	if loader.count() != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.count())
	}
}

func TestCatalogCacheFallsBackWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	loader := &countingLoader{rooms: sampleCatalog()}
	cache := NewCatalogCache(client, loader, time.Minute, "test", nil)

	rooms, err := cache.Rooms(context.Background())
	if err != nil {
		t.Fatalf("expected loader fallback, got %v", err)
	}
	if len(rooms) != 1 {
		t.Fatalf("unexpected catalog %+v", rooms)
	}
}

type countingLoader struct {
	mu    sync.Mutex
	rooms []domain.PublicRoom
	calls int
}

func (l *countingLoader) LoadCatalog(context.Context) ([]domain.PublicRoom, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.rooms, nil
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleCatalog() []domain.PublicRoom {
	return []domain.PublicRoom{
		{
			Room: domain.Room{ID: "room-1", Code: "R1", CreatorID: "u1"},
			Questions: []domain.PublicQuestion{
				{Sequence: 1, Text: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}},
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
