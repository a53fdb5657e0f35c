package cache

import (
	"encoding/json"
	"nourishnet-route-service/internal/domain"
	"time"
)

// Wire shape of a cached route, shared by every RouteCache backend.

type cachedStop struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lon     float64 `json:"lon"`
	Lat     float64 `json:"lat"`
}

type cachedStep struct {
	Stop                       cachedStop `json:"stop"`
	Order                      int        `json:"order"`
	DistanceFromPreviousMeters float64    `json:"distance_from_previous_meters"`
	CumulativeTimeMinutes      float64    `json:"cumulative_time_minutes"`
}

type cachedRoute struct {
	Steps               []cachedStep `json:"steps"`
	TotalDistanceMeters float64      `json:"total_distance_meters"`
	TotalTimeMinutes    float64      `json:"total_time_minutes"`
	ReturnToDepotMeters float64      `json:"return_to_depot_meters"`
	ComputedAtUnixNano  int64        `json:"computed_at_unix_nano,omitempty"`
}

func encodeRoute(route *domain.RouteResult) ([]byte, error) {
	cr := cachedRoute{
		Steps:               make([]cachedStep, 0, len(route.Steps)),
		TotalDistanceMeters: route.TotalDistanceMeters,
		TotalTimeMinutes:    route.TotalTimeMinutes,
		ReturnToDepotMeters: route.ReturnToDepotMeters,
	}
	if !route.ComputedAt.IsZero() {
		cr.ComputedAtUnixNano = route.ComputedAt.UnixNano()
	}
	for _, s := range route.Steps {
		cr.Steps = append(cr.Steps, cachedStep{
			Stop: cachedStop{
				ID:      s.Stop.ID,
				Name:    s.Stop.Name,
				Address: s.Stop.Address,
				Lon:     s.Stop.Location.Lon,
				Lat:     s.Stop.Location.Lat,
			},
			Order:                      s.Order,
			DistanceFromPreviousMeters: s.DistanceFromPreviousMeters,
			CumulativeTimeMinutes:      s.CumulativeTimeMinutes,
		})
	}

	return json.Marshal(cr)
}

func decodeRoute(raw []byte) (*domain.RouteResult, error) {
	var cr cachedRoute
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, err
	}

	route := &domain.RouteResult{
		Steps:               make([]domain.RouteStep, 0, len(cr.Steps)),
		TotalDistanceMeters: cr.TotalDistanceMeters,
		TotalTimeMinutes:    cr.TotalTimeMinutes,
		ReturnToDepotMeters: cr.ReturnToDepotMeters,
	}
	if cr.ComputedAtUnixNano != 0 {
		route.ComputedAt = time.Unix(0, cr.ComputedAtUnixNano).UTC()
	}
	for _, s := range cr.Steps {
		route.Steps = append(route.Steps, domain.RouteStep{
			Stop: domain.Stop{
				ID:       s.Stop.ID,
				Name:     s.Stop.Name,
				Address:  s.Stop.Address,
				Location: domain.Coordinates{Lon: s.Stop.Lon, Lat: s.Stop.Lat},
			},
			Order:                      s.Order,
			DistanceFromPreviousMeters: s.DistanceFromPreviousMeters,
			CumulativeTimeMinutes:      s.CumulativeTimeMinutes,
		})
	}

	return route, nil
}
