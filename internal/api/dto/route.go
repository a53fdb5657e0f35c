package dto

import "time"

type CoordinatesRequest struct {
	Lon *float64 `json:"lon"`
	Lat *float64 `json:"lat"`
}

type StopRequest struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Address  string              `json:"address"`
	Location *CoordinatesRequest `json:"location"`
}

type RouteOptionsRequest struct {
	AverageSpeedKmh     *float64 `json:"average_speed_kmh"`
	PerStopDwellMinutes *float64 `json:"per_stop_dwell_minutes"`
	ReturnToDepot       *bool    `json:"return_to_depot"`
}

type ComputeRouteRequest struct {
	Depot   *CoordinatesRequest  `json:"depot"`
	Stops   []StopRequest        `json:"stops"`
	Options *RouteOptionsRequest `json:"options"`
}

type RouteStepResponse struct {
	Order                      int       `json:"order"`
	StopID                     string    `json:"stop_id"`
	Name                       string    `json:"name"`
	Address                    string    `json:"address"`
	Location                   []float64 `json:"location"`
	DistanceFromPreviousMeters float64   `json:"distance_from_previous_meters"`
	CumulativeTimeMinutes      float64   `json:"cumulative_time_minutes"`
}

// RouteResponse is both the success body and the "route unavailable" fallback body.
// When RouteAvailable is false, Steps lists the stops in their original order without metrics.
type RouteResponse struct {
	VendorID            string              `json:"vendor_id,omitempty"`
	RouteAvailable      bool                `json:"route_available"`
	Error               string              `json:"error,omitempty"`
	Depot               []float64           `json:"depot,omitempty"`
	Steps               []RouteStepResponse `json:"steps"`
	TotalDistanceMeters float64             `json:"total_distance_meters"`
	TotalTimeMinutes    float64             `json:"total_time_minutes"`
	ReturnToDepotMeters float64             `json:"return_to_depot_meters,omitempty"`
	SkippedStops        int                 `json:"skipped_stops"`
	Cached              bool                `json:"cached"`
	ComputedAt          *time.Time          `json:"computed_at,omitempty"`
}

type ListRoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
}
