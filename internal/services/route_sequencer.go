package services

import (
	"errors"
	"fmt"
	"math"
	"nourishnet-route-service/internal/domain"
)

const (
	DefaultAverageSpeedKmh     = 30.0
	DefaultPerStopDwellMinutes = 5.0
)

// SequencerOptions tunes the time estimate attached to each step.
type SequencerOptions struct {
	// Average travel speed between stops.
	AverageSpeedKmh float64
	// Fixed handover time spent at every stop already served.
	PerStopDwellMinutes float64
	// Also measure the leg from the last stop back to the depot.
	ReturnToDepot bool
}

func DefaultSequencerOptions() SequencerOptions {
	return SequencerOptions{
		AverageSpeedKmh:     DefaultAverageSpeedKmh,
		PerStopDwellMinutes: DefaultPerStopDwellMinutes,
	}
}

// Validate reports ErrInvalidOptions for a non-positive speed or a negative dwell.
func (o SequencerOptions) Validate() error {
	if math.IsNaN(o.AverageSpeedKmh) || math.IsInf(o.AverageSpeedKmh, 0) || o.AverageSpeedKmh <= 0 {
		return fmt.Errorf("%w: average speed must be positive, got %g", domain.ErrInvalidOptions, o.AverageSpeedKmh)
	}
	if math.IsNaN(o.PerStopDwellMinutes) || math.IsInf(o.PerStopDwellMinutes, 0) || o.PerStopDwellMinutes < 0 {
		return fmt.Errorf("%w: per-stop dwell must not be negative, got %g", domain.ErrInvalidOptions, o.PerStopDwellMinutes)
	}
	return nil
}

// ComputeRoute orders stops with a greedy nearest-neighbor walk starting at depot.
//
// At each step the closest unvisited stop (Haversine distance) is chosen. Exactly equal
// distances are resolved by the lower stop ID, then by input position, so the output is
// deterministic. This is an O(n²) heuristic for tens of stops, not an optimal TSP tour.
//
// All coordinates are validated up front; on any invalid point no route is returned.
// The stops slice is never modified.
func ComputeRoute(depot domain.Coordinates, stops []domain.Stop, opts SequencerOptions) (*domain.RouteResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("compute route: %w", err)
	}

	if err := depot.Validate(); err != nil {
		return nil, fmt.Errorf("compute route: depot: %w", err)
	}

	for _, s := range stops {
		if err := s.Location.Validate(); err != nil {
			var ce *domain.InvalidCoordinateError
			if errors.As(err, &ce) {
				ce.StopID = s.ID
			}
			return nil, fmt.Errorf("compute route: %w", err)
		}
	}

	if len(stops) == 0 {
		return &domain.RouteResult{Steps: []domain.RouteStep{}}, nil
	}

	remaining := make([]domain.Stop, len(stops))
	copy(remaining, stops)

	steps := make([]domain.RouteStep, 0, len(stops))
	current := depot
	totalMeters := 0.0

	for len(remaining) > 0 {
		best := -1
		bestDist := math.Inf(1)

		// Select the nearest remaining stop (greedy step).
		for i, s := range remaining {
			d := domain.HaversineMeters(current, s.Location)
			if best == -1 || d < bestDist || (d == bestDist && s.ID < remaining[best].ID) {
				best = i
				bestDist = d
			}
		}

		next := remaining[best]
		totalMeters += bestDist
		order := len(steps) + 1

		steps = append(steps, domain.RouteStep{
			Stop:                       next,
			Order:                      order,
			DistanceFromPreviousMeters: bestDist,
			CumulativeTimeMinutes:      travelMinutes(totalMeters, opts) + float64(order-1)*opts.PerStopDwellMinutes,
		})

		// Preserve input order of the rest so later ties still fall back to position.
		remaining = append(remaining[:best], remaining[best+1:]...)
		current = next.Location
	}

	result := &domain.RouteResult{
		Steps:               steps,
		TotalDistanceMeters: totalMeters,
		TotalTimeMinutes:    steps[len(steps)-1].CumulativeTimeMinutes,
	}

	if opts.ReturnToDepot {
		result.ReturnToDepotMeters = domain.HaversineMeters(current, depot)
	}

	return result, nil
}

func travelMinutes(meters float64, opts SequencerOptions) float64 {
	return (meters / 1000 / opts.AverageSpeedKmh) * 60
}

// UnorderedStops is the fallback shown when no route can be computed:
// the stops as supplied, numbered in input order with no distance or time annotations.
func UnorderedStops(stops []domain.Stop) []domain.RouteStep {
	out := make([]domain.RouteStep, 0, len(stops))
	for i, s := range stops {
		out = append(out, domain.RouteStep{Stop: s, Order: i + 1})
	}
	return out
}
