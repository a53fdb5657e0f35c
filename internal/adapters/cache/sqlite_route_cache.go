package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"nourishnet-route-service/internal/domain"
	"nourishnet-route-service/internal/platform/obs"
	"strings"
	"time"
)

// SQLite backed route memo for single-node deployments without Redis.
// Expired rows are ignored on read and purged on every write.
type SqliteRouteCache struct {
	DB  *sql.DB
	now func() time.Time
}

func NewSqliteRouteCache(db *sql.DB) *SqliteRouteCache {
	return &SqliteRouteCache{DB: db, now: time.Now}
}

// Create the route_cache table if missing.
func (s *SqliteRouteCache) InitSchema(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}

	_, err := s.DB.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS route_cache (
		cache_key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0
	);
	`)
	if err != nil {
		return fmt.Errorf("route cache: create route_cache table: %w", err)
	}

	return nil
}

// Fetch a cached route. Missing and expired keys are misses.
func (s *SqliteRouteCache) Get(ctx context.Context, key string) (_ *domain.RouteResult, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.sqlite.Get")(&err)

	if s.DB == nil {
		return nil, false, errors.New("route cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return nil, false, errors.New("get route cache: key must not be empty")
	}

	var payload []byte
	err = s.DB.QueryRowContext(ctx, `
	SELECT payload
	FROM route_cache
	WHERE cache_key = ?
		AND (expires_at = 0 OR expires_at > ?);
	`, key, s.now().UnixNano()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	route, err := decodeRoute(payload)
	if err != nil {
		return nil, false, fmt.Errorf("get route cache: decode %q: %w", key, err)
	}

	return route, true, nil
}

// Store a route under key for ttl. A non-positive ttl stores without expiry.
func (s *SqliteRouteCache) Put(ctx context.Context, key string, route *domain.RouteResult, ttl time.Duration) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
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

	now := s.now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixNano()
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert route cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	DELETE FROM route_cache
	WHERE expires_at <> 0
		AND expires_at <= ?;
	`, now.UnixNano())
	if err != nil {
		return fmt.Errorf("insert route cache: purge expired rows: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT OR REPLACE INTO route_cache (
		cache_key,
		payload,
		expires_at
	)
	VALUES (?, ?, ?)
	`, key, payload, expiresAt)
	if err != nil {
		return fmt.Errorf("insert route cache %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert route cache commit: %w", err)
	}

	return nil
}
