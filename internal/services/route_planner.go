package services

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"nourishnet-route-service/internal/domain"
	"nourishnet-route-service/internal/platform/obs"
	"nourishnet-route-service/internal/ports"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultPlanConcurrency = 5

// RouteUnavailableError is returned when stops were loaded but no route could be
// computed for them. Callers can fall back to showing Stops unordered.
type RouteUnavailableError struct {
	VendorID string
	Stops    []domain.Stop
	Err      error
}

func (e *RouteUnavailableError) Error() string {
	return fmt.Sprintf("route unavailable for vendor %q: %v", e.VendorID, e.Err)
}

func (e *RouteUnavailableError) Unwrap() error { return e.Err }

// RoutePlanner coordinates stop retrieval, memoized sequencing and publishing.
//
// Cache and Publisher are optional. Their failures are logged and never fail planning.
// The planner is safe for concurrent use when its ports are.
type RoutePlanner struct {
	Repo        ports.StopRepository
	Cache       ports.RouteCache
	Publisher   ports.RoutePublisher
	Options     SequencerOptions
	CacheTTL    time.Duration
	Concurrency int

	now func() time.Time
}

func NewRoutePlanner(repo ports.StopRepository, opts SequencerOptions) *RoutePlanner {
	return &RoutePlanner{
		Repo:        repo,
		Options:     opts,
		CacheTTL:    10 * time.Minute,
		Concurrency: defaultPlanConcurrency,
		now:         time.Now,
	}
}

func (p *RoutePlanner) clock() time.Time {
	if p.now == nil {
		return time.Now().UTC()
	}
	return p.now().UTC()
}

// Compute sequences stops from depot, consulting the route cache first.
// The boolean reports whether the result came from the cache.
func (p *RoutePlanner) Compute(
	ctx context.Context,
	depot domain.Coordinates,
	stops []domain.Stop,
) (_ *domain.RouteResult, cached bool, err error) {
	defer obs.Time(ctx, "planner.Compute")(&err)

	return p.computeWith(ctx, depot, stops, p.Options)
}

// ComputeWithOptions is Compute with per-call sequencer options.
func (p *RoutePlanner) ComputeWithOptions(
	ctx context.Context,
	depot domain.Coordinates,
	stops []domain.Stop,
	opts SequencerOptions,
) (_ *domain.RouteResult, cached bool, err error) {
	defer obs.Time(ctx, "planner.ComputeWithOptions")(&err)

	return p.computeWith(ctx, depot, stops, opts)
}

func (p *RoutePlanner) computeWith(
	ctx context.Context,
	depot domain.Coordinates,
	stops []domain.Stop,
	opts SequencerOptions,
) (*domain.RouteResult, bool, error) {
	key := RouteKey(depot, stops, opts)

	if p.Cache != nil {
		route, ok, err := p.Cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("req_id", obs.RequestID(ctx)).Str("key", key).Msg("route cache read failed")
		} else if ok {
			return route, true, nil
		}
	}

	route, err := ComputeRoute(depot, stops, opts)
	if err != nil {
		return nil, false, err
	}
	route.ComputedAt = p.clock()

	if p.Cache != nil {
		if err := p.Cache.Put(ctx, key, route, p.CacheTTL); err != nil {
			log.Warn().Err(err).Str("req_id", obs.RequestID(ctx)).Str("key", key).Msg("route cache write failed")
		}
	}

	return route, false, nil
}

// PlanVendorRoute loads a vendor's depot and deliverable subscribers and sequences them.
func (p *RoutePlanner) PlanVendorRoute(ctx context.Context, vendorID string) (_ *domain.VendorRoute, err error) {
	defer obs.Time(ctx, "planner.PlanVendorRoute")(&err)

	vendor, err := p.Repo.GetVendor(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("plan vendor route: get vendor %q: %w", vendorID, err)
	}
	if vendor.Location == nil {
		return nil, fmt.Errorf("plan vendor route: vendor %q: %w", vendorID, domain.ErrVendorWithoutLocation)
	}

	stops, err := p.Repo.ListDeliveryStops(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("plan vendor route: list stops for %q: %w", vendorID, err)
	}

	skipped, err := p.Repo.CountStopsWithoutLocation(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("plan vendor route: count unlocated stops for %q: %w", vendorID, err)
	}

	route, cached, err := p.computeWith(ctx, *vendor.Location, stops, p.Options)
	if err != nil {
		return nil, &RouteUnavailableError{VendorID: vendorID, Stops: stops, Err: err}
	}

	if p.Publisher != nil && !cached {
		if err := p.Publisher.Publish(ctx, vendorID, route); err != nil {
			log.Warn().Err(err).Str("req_id", obs.RequestID(ctx)).Str("vendor_id", vendorID).Msg("route publish failed")
		}
	}

	return &domain.VendorRoute{
		VendorID:     vendorID,
		Depot:        *vendor.Location,
		Route:        route,
		SkippedStops: skipped,
		ComputedAt:   route.ComputedAt,
		Cached:       cached,
	}, nil
}

// PlanAllVendorRoutes plans every vendor concurrently with bounded parallelism.
// Results follow the repository's vendor order. The first failure cancels the rest.
func (p *RoutePlanner) PlanAllVendorRoutes(ctx context.Context) (_ []*domain.VendorRoute, err error) {
	defer obs.Time(ctx, "planner.PlanAllVendorRoutes")(&err)

	vendorIDs, err := p.Repo.ListVendorIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("plan all vendor routes: list vendors: %w", err)
	}

	limit := p.Concurrency
	if limit <= 0 {
		limit = defaultPlanConcurrency
	}

	routes := make([]*domain.VendorRoute, len(vendorIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, id := range vendorIDs {
		i, id := i, id
		g.Go(func() error {
			r, err := p.PlanVendorRoute(gctx, id)
			if err != nil {
				return err
			}
			routes[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("plan all vendor routes: %w", err)
	}

	return routes, nil
}

// RouteKey digests everything a route depends on. Stop order is part of the key;
// it is the final tie-break.
func RouteKey(depot domain.Coordinates, stops []domain.Stop, opts SequencerOptions) string {
	d := xxhash.New()

	var buf [8]byte
	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = d.Write(buf[:])
	}
	writeString := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		_, _ = d.Write(buf[:])
		_, _ = d.WriteString(s)
	}

	writeFloat(depot.Lon)
	writeFloat(depot.Lat)
	writeFloat(opts.AverageSpeedKmh)
	writeFloat(opts.PerStopDwellMinutes)
	if opts.ReturnToDepot {
		_, _ = d.Write([]byte{1})
	} else {
		_, _ = d.Write([]byte{0})
	}

	for _, s := range stops {
		writeString(s.ID)
		writeString(s.Name)
		writeString(s.Address)
		writeFloat(s.Location.Lon)
		writeFloat(s.Location.Lat)
	}

	return fmt.Sprintf("route:%016x", d.Sum64())
}

// IsRouteUnavailable reports whether err carries a fallback stop list.
func IsRouteUnavailable(err error) (*RouteUnavailableError, bool) {
	var ru *RouteUnavailableError
	if errors.As(err, &ru) {
		return ru, true
	}
	return nil, false
}
