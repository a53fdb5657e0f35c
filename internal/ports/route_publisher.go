package ports

import (
	"context"
	"nourishnet-route-service/internal/domain"
)

// Contract for handing computed routes to downstream consumers (driver app, dashboards).
type RoutePublisher interface {
	Publish(ctx context.Context, vendorID string, route *domain.RouteResult) error
}
