package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	// Create a mini Redis server for testing
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	// Parse host and port
	cache, err := NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create cache: %v", err)
	}

	return cache, mr
}

func TestNewCache(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	if cache == nil {
		t.Fatal("Cache should not be nil")
	}

	// Test ping
	ctx := context.Background()
	if err := cache.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewCacheUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	host, port := mr.Host(), mr.Server().Addr().Port
	mr.Close()

	if _, err := NewCache(host, port, "", 0); err == nil {
		t.Error("Expected error connecting to closed server")
	}
}

func TestCache_Incr(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	window := 24 * time.Hour
	now := time.Now()

	for i := int64(1); i <= 3; i++ {
		c, err := cache.Incr(ctx, "user:1", window, now)
		if err != nil {
			t.Fatalf("Incr failed: %v", err)
		}
		if c.Count != i {
			t.Errorf("Expected count %d, got %d", i, c.Count)
		}
		if c.Key != "user:1" {
			t.Errorf("Expected key user:1, got %s", c.Key)
		}
	}

	if ttl := mr.TTL("quota:user:1"); ttl != window {
		t.Errorf("Expected TTL %v, got %v", window, ttl)
	}

	// Other keys are independent
	c, err := cache.Incr(ctx, "user:2", window, now)
	if err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	if c.Count != 1 {
		t.Errorf("Expected independent counter, got %d", c.Count)
	}
}

func TestCache_IncrWindowStart(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	window := 24 * time.Hour
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	if _, err := cache.Incr(ctx, "anon:x", window, start); err != nil {
		t.Fatalf("Incr failed: %v", err)
	}

	mr.FastForward(6 * time.Hour)

	c, err := cache.Incr(ctx, "anon:x", window, start.Add(6*time.Hour))
	if err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	if !c.WindowStart.Equal(start) {
		t.Errorf("Expected window start %v, got %v", start, c.WindowStart)
	}
	if got := c.ResetAt(window); !got.Equal(start.Add(window)) {
		t.Errorf("Expected reset at %v, got %v", start.Add(window), got)
	}
}

func TestCache_IncrWindowExpires(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	window := 24 * time.Hour

	for i := 0; i < 5; i++ {
		if _, err := cache.Incr(ctx, "user:1", window, time.Now()); err != nil {
			t.Fatalf("Incr failed: %v", err)
		}
	}

	mr.FastForward(window)

	c, err := cache.Incr(ctx, "user:1", window, time.Now())
	if err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	if c.Count != 1 {
		t.Errorf("Expected counter to restart after the window, got %d", c.Count)
	}
}

func TestCache_IncrConcurrent(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	const workers = 50

	var wg sync.WaitGroup
	seen := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := cache.Incr(ctx, "user:9", time.Hour, time.Now())
			if err != nil {
				t.Errorf("Incr failed: %v", err)
				return
			}
			seen <- c.Count
		}()
	}
	wg.Wait()
	close(seen)

	counts := make(map[int64]bool)
	for c := range seen {
		if counts[c] {
			t.Errorf("Count %d observed twice", c)
		}
		counts[c] = true
	}
	if len(counts) != workers {
		t.Errorf("Expected %d distinct counts, got %d", workers, len(counts))
	}
}
