package cache

import (
	"context"
	"nourishnet-route-service/internal/domain"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisRouteCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisRouteCache(client), mr
}

func sampleRoute() *domain.RouteResult {
	return &domain.RouteResult{
		Steps: []domain.RouteStep{
			{
				Stop: domain.Stop{
					ID:       "sub-1",
					Name:     "Asha",
					Address:  "12 Linking Rd",
					Location: domain.Coordinates{Lon: 72.8347, Lat: 19.0596},
				},
				Order:                      1,
				DistanceFromPreviousMeters: 1234.5,
				CumulativeTimeMinutes:      2.469,
			},
		},
		TotalDistanceMeters: 1234.5,
		TotalTimeMinutes:    2.469,
		ReturnToDepotMeters: 1200,
	}
}

func TestRedisRouteCache_RoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "route:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	want := sampleRoute()
	require.NoError(t, c.Put(ctx, "route:abc", want, time.Minute))
	assert.True(t, mr.Exists("nourishnet:route:abc"))
	assert.Equal(t, time.Minute, mr.TTL("nourishnet:route:abc"))

	got, ok, err := c.Get(ctx, "route:abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRedisRouteCache_Expires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "route:ttl", sampleRoute(), time.Second))
	mr.FastForward(2 * time.Second)

	_, ok, err := c.Get(ctx, "route:ttl")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisRouteCache_EmptyRoute(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "route:empty", &domain.RouteResult{Steps: []domain.RouteStep{}}, 0))

	got, ok, err := c.Get(ctx, "route:empty")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, got.Steps)
	assert.NotNil(t, got.Steps)
}

func TestRedisRouteCache_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("nourishnet:route:bad", "{not json"))

	_, ok, err := c.Get(context.Background(), "route:bad")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisRouteCache_Validation(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, _, err := c.Get(ctx, " ")
	assert.Error(t, err)
	assert.Error(t, c.Put(ctx, "", sampleRoute(), time.Minute))
	assert.Error(t, c.Put(ctx, "route:nil", nil, time.Minute))

	var nilClient RedisRouteCache
	_, _, err = nilClient.Get(ctx, "route:x")
	assert.Error(t, err)
}
