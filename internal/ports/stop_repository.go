package ports

import (
	"context"
	"nourishnet-route-service/internal/domain"
)

// Port: a boundary for retrieving vendors and their deliverable subscribers.
type StopRepository interface {
	// Return the IDs of every vendor that has a depot location, ordered by id.
	ListVendorIDs(ctx context.Context) ([]string, error)
	// Return a single vendor; domain.ErrVendorNotFound when it does not exist.
	GetVendor(ctx context.Context, vendorID string) (*domain.Vendor, error)
	// Return active subscribers of a vendor that have coordinates, as stops.
	ListDeliveryStops(ctx context.Context, vendorID string) ([]domain.Stop, error)
	// Count active subscribers of a vendor that cannot be routed for lack of coordinates.
	CountStopsWithoutLocation(ctx context.Context, vendorID string) (int, error)
}
