package cache

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newSqliteTestCache(t *testing.T) *SqliteRouteCache {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c := NewSqliteRouteCache(db)
	require.NoError(t, c.InitSchema(context.Background()))
	return c
}

func TestSqliteRouteCache_RoundTrip(t *testing.T) {
	c := newSqliteTestCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "route:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	want := sampleRoute()
	require.NoError(t, c.Put(ctx, "route:abc", want, time.Minute))

	got, ok, err := c.Get(ctx, "route:abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	// Overwrite keeps a single row per key.
	want.TotalTimeMinutes = 9
	require.NoError(t, c.Put(ctx, "route:abc", want, time.Minute))
	got, ok, err = c.Get(ctx, "route:abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 9.0, got.TotalTimeMinutes)
}

func TestSqliteRouteCache_Expires(t *testing.T) {
	c := newSqliteTestCache(t)
	ctx := context.Background()

	now := time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Put(ctx, "short", sampleRoute(), time.Minute))
	require.NoError(t, c.Put(ctx, "forever", sampleRoute(), 0))

	now = now.Add(2 * time.Minute)

	_, ok, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSqliteRouteCache_PutPurgesExpiredRows(t *testing.T) {
	c := newSqliteTestCache(t)
	ctx := context.Background()

	now := time.Date(2026, 1, 5, 11, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		require.NoError(t, c.Put(ctx, fmt.Sprintf("route:%03d", i), sampleRoute(), time.Second))
	}
	require.NoError(t, c.Put(ctx, "route:pinned", sampleRoute(), 0))
	assert.Equal(t, 101, countRows(t, c.DB))

	now = now.Add(time.Hour)
	require.NoError(t, c.Put(ctx, "route:fresh", sampleRoute(), time.Minute))

	// Only the non-expiring row and the fresh one survive.
	assert.Equal(t, 2, countRows(t, c.DB))

	_, ok, err := c.Get(ctx, "route:pinned")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSqliteRouteCache_KeepsComputedAt(t *testing.T) {
	c := newSqliteTestCache(t)
	ctx := context.Background()

	want := sampleRoute()
	want.ComputedAt = time.Date(2026, 1, 5, 10, 45, 12, 345, time.UTC)
	require.NoError(t, c.Put(ctx, "route:stamped", want, time.Minute))

	got, ok, err := c.Get(ctx, "route:stamped")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, want.ComputedAt.Equal(got.ComputedAt))
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM route_cache`).Scan(&n))
	return n
}

func TestSqliteRouteCache_Validation(t *testing.T) {
	c := newSqliteTestCache(t)
	ctx := context.Background()

	_, _, err := c.Get(ctx, " ")
	assert.Error(t, err)
	assert.Error(t, c.Put(ctx, "", sampleRoute(), time.Minute))
	assert.Error(t, c.Put(ctx, "k", nil, time.Minute))

	_, _, err = (&SqliteRouteCache{now: time.Now}).Get(ctx, "k")
	assert.Error(t, err)
}
