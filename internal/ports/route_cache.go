package ports

import (
	"context"
	"nourishnet-route-service/internal/domain"
	"time"
)

// Memoization store for computed routes, keyed by a digest of the inputs.
type RouteCache interface {
	// Return the cached route and true on a hit.
	Get(ctx context.Context, key string) (*domain.RouteResult, bool, error)
	Put(ctx context.Context, key string, route *domain.RouteResult, ttl time.Duration) error
}
