package domain

import "time"

// Represents a single visited stop in a delivery route.
// Order is 1-based; the depot itself is never a step.
type RouteStep struct {
	Stop                       Stop
	Order                      int
	DistanceFromPreviousMeters float64
	CumulativeTimeMinutes      float64
}

// Represents the ordered visiting sequence for one depot.
// A RouteResult is immutable planning data: TotalDistanceMeters is always the sum of
// the step distances, and the optional return leg is reported separately.
type RouteResult struct {
	Steps               []RouteStep
	TotalDistanceMeters float64
	TotalTimeMinutes    float64
	ReturnToDepotMeters float64
	// When the sequence was computed; zero until a planner stamps it.
	ComputedAt time.Time
}

// Route planned for a vendor together with planning metadata.
type VendorRoute struct {
	VendorID     string
	Depot        Coordinates
	Route        *RouteResult
	SkippedStops int
	ComputedAt   time.Time
	Cached       bool
}
