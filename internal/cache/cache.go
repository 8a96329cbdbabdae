package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

// incrScript counts one hit on KEYS[1]. The expiry is set on the first hit
// only, so the window is anchored at the first request. ARGV[1] is the
// window in milliseconds. Returns {count, remaining ttl in ms}.
var incrScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// Cache provides quota counters backed by Redis
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client, prefix: "quota:"}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Incr atomically counts one request for key and reports the counter state.
// now is only used to derive the window start from the remaining TTL.
func (c *Cache) Incr(ctx context.Context, key string, window time.Duration, now time.Time) (models.QuotaCounter, error) {
	vals, err := incrScript.Run(ctx, c.client, []string{c.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return models.QuotaCounter{}, fmt.Errorf("failed to increment quota counter: %w", err)
	}
	if len(vals) != 2 {
		return models.QuotaCounter{}, fmt.Errorf("unexpected quota script reply: %v", vals)
	}

	remaining := time.Duration(vals[1]) * time.Millisecond
	return models.QuotaCounter{
		Key:         key,
		Count:       vals[0],
		WindowStart: now.Add(remaining - window),
	}, nil
}
