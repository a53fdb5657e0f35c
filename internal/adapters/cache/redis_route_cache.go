package cache

import (
	"context"
	"errors"
	"fmt"
	"nourishnet-route-service/internal/domain"
	"nourishnet-route-service/internal/platform/obs"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRouteCache memoizes computed routes in Redis with a TTL.
// Entries are disposable: a miss simply means the route is recomputed.
type RedisRouteCache struct {
	Client *redis.Client
	Prefix string
}

func NewRedisRouteCache(client *redis.Client) *RedisRouteCache {
	return &RedisRouteCache{Client: client, Prefix: "nourishnet:"}
}

// NewRedisRouteCacheFromURL parses a redis:// URL and verifies the connection.
func NewRedisRouteCacheFromURL(ctx context.Context, url string) (*RedisRouteCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("route cache: parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("route cache: ping redis: %w", err)
	}

	return NewRedisRouteCache(client), nil
}

// Fetch a cached route. A missing key is a miss, not an error.
func (c *RedisRouteCache) Get(ctx context.Context, key string) (_ *domain.RouteResult, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if c.Client == nil {
		return nil, false, errors.New("route cache: client is nil")
	}
	if strings.TrimSpace(key) == "" {
		return nil, false, errors.New("get route cache: key must not be empty")
	}

	raw, err := c.Client.Get(ctx, c.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get route cache: %w", err)
	}

	route, err := decodeRoute(raw)
	if err != nil {
		return nil, false, fmt.Errorf("get route cache: decode %q: %w", key, err)
	}

	return route, true, nil
}

// Store a route under key for ttl. A non-positive ttl stores without expiry.
func (c *RedisRouteCache) Put(ctx context.Context, key string, route *domain.RouteResult, ttl time.Duration) error {
	if c.Client == nil {
		return errors.New("route cache: client is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("insert route cache: key must not be empty")
	}
	if route == nil {
		return errors.New("insert route cache: route is nil")
	}

	payload, err := encodeRoute(route)
	if err != nil {
		return fmt.Errorf("insert route cache: encode %q: %w", key, err)
	}

	if ttl < 0 {
		ttl = 0
	}
	if err := c.Client.Set(ctx, c.Prefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("insert route cache %q: %w", key, err)
	}

	return nil
}

func (c *RedisRouteCache) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
