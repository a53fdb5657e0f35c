package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"nourishnet-route-service/internal/api/dto"
	"nourishnet-route-service/internal/domain"
	"nourishnet-route-service/internal/platform/obs"
	"nourishnet-route-service/internal/services"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RoutePlanner is the slice of services.RoutePlanner the HTTP layer depends on.
type RoutePlanner interface {
	ComputeWithOptions(ctx context.Context, depot domain.Coordinates, stops []domain.Stop, opts services.SequencerOptions) (*domain.RouteResult, bool, error)
	PlanVendorRoute(ctx context.Context, vendorID string) (*domain.VendorRoute, error)
	PlanAllVendorRoutes(ctx context.Context) ([]*domain.VendorRoute, error)
}

type RouteHandler struct {
	Planner  RoutePlanner
	Defaults services.SequencerOptions
	// Upper bound on stops per ad-hoc request; zero disables the check.
	MaxStops int
}

// Compute sequences an ad-hoc depot and stop list supplied in the request body.
// Stops without a location are skipped and counted, mirroring vendor planning.
func (h *RouteHandler) Compute(c *gin.Context) {
	var req dto.ComputeRouteRequest

	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(c, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}
	if req.Depot == nil {
		writeError(c, http.StatusBadRequest, "depot is required")
		return
	}

	if h.MaxStops > 0 && len(req.Stops) > h.MaxStops {
		writeError(c, http.StatusBadRequest, fmt.Sprintf("stops must contain at most %d entries", h.MaxStops))
		return
	}

	stops := make([]domain.Stop, 0, len(req.Stops))
	skipped := 0
	for _, s := range req.Stops {
		if strings.TrimSpace(s.ID) == "" {
			writeError(c, http.StatusBadRequest, "every stop needs an id")
			return
		}
		if s.Location == nil {
			skipped++
			continue
		}
		stops = append(stops, domain.Stop{
			ID:       s.ID,
			Name:     s.Name,
			Address:  s.Address,
			Location: coordinatesFromRequest(s.Location),
		})
	}

	opts := applyOptions(h.Defaults, req.Options)
	depot := coordinatesFromRequest(req.Depot)

	route, cached, err := h.Planner.ComputeWithOptions(c.Request.Context(), depot, stops, opts)
	switch {
	case err == nil:
		res := toRouteResponse(route)
		res.Depot = depot.CoordsToList()
		res.SkippedStops = skipped
		res.Cached = cached
		c.JSON(http.StatusOK, res)
	case errors.Is(err, domain.ErrInvalidOptions):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCoordinate):
		res := unavailableResponse(stops, err)
		res.SkippedStops = skipped
		c.JSON(http.StatusUnprocessableEntity, res)
	default:
		log.Error().Err(err).Str("req_id", obs.RequestID(c.Request.Context())).Msg("compute route failed")
		internalError(c)
	}
}

// VendorRoute plans the route for a single vendor's active subscribers.
func (h *RouteHandler) VendorRoute(c *gin.Context) {
	vendorID := strings.TrimSpace(c.Param("id"))
	if vendorID == "" {
		writeError(c, http.StatusBadRequest, "vendor id is required")
		return
	}

	vr, err := h.Planner.PlanVendorRoute(c.Request.Context(), vendorID)
	if err != nil {
		h.writePlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, toVendorRouteResponse(vr))
}

// List plans every vendor. A single failing vendor fails the whole listing.
func (h *RouteHandler) List(c *gin.Context) {
	routes, err := h.Planner.PlanAllVendorRoutes(c.Request.Context())
	if err != nil {
		h.writePlanError(c, err)
		return
	}

	res := dto.ListRoutesResponse{Routes: make([]dto.RouteResponse, 0, len(routes))}
	for _, vr := range routes {
		res.Routes = append(res.Routes, toVendorRouteResponse(vr))
	}

	c.JSON(http.StatusOK, res)
}

func (h *RouteHandler) writePlanError(c *gin.Context, err error) {
	if ru, ok := services.IsRouteUnavailable(err); ok {
		res := unavailableResponse(ru.Stops, ru.Err)
		res.VendorID = ru.VendorID
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}

	switch {
	case errors.Is(err, domain.ErrVendorNotFound):
		writeError(c, http.StatusNotFound, "vendor not found")
	case errors.Is(err, domain.ErrVendorWithoutLocation):
		writeError(c, http.StatusUnprocessableEntity, "vendor has no location")
	default:
		log.Error().Err(err).Str("req_id", obs.RequestID(c.Request.Context())).Msg("plan route failed")
		internalError(c)
	}
}

// Missing fields become NaN so the sequencer rejects them as invalid coordinates.
func coordinatesFromRequest(c *dto.CoordinatesRequest) domain.Coordinates {
	out := domain.Coordinates{Lon: math.NaN(), Lat: math.NaN()}
	if c.Lon != nil {
		out.Lon = *c.Lon
	}
	if c.Lat != nil {
		out.Lat = *c.Lat
	}
	return out
}

func applyOptions(base services.SequencerOptions, req *dto.RouteOptionsRequest) services.SequencerOptions {
	if req == nil {
		return base
	}
	if req.AverageSpeedKmh != nil {
		base.AverageSpeedKmh = *req.AverageSpeedKmh
	}
	if req.PerStopDwellMinutes != nil {
		base.PerStopDwellMinutes = *req.PerStopDwellMinutes
	}
	if req.ReturnToDepot != nil {
		base.ReturnToDepot = *req.ReturnToDepot
	}
	return base
}

func toRouteResponse(route *domain.RouteResult) dto.RouteResponse {
	return dto.RouteResponse{
		RouteAvailable:      true,
		Steps:               toStepResponses(route.Steps),
		TotalDistanceMeters: route.TotalDistanceMeters,
		TotalTimeMinutes:    route.TotalTimeMinutes,
		ReturnToDepotMeters: route.ReturnToDepotMeters,
	}
}

func toVendorRouteResponse(vr *domain.VendorRoute) dto.RouteResponse {
	res := toRouteResponse(vr.Route)
	res.VendorID = vr.VendorID
	res.Depot = vr.Depot.CoordsToList()
	res.SkippedStops = vr.SkippedStops
	res.Cached = vr.Cached
	computedAt := vr.ComputedAt
	res.ComputedAt = &computedAt
	return res
}

func unavailableResponse(stops []domain.Stop, err error) dto.RouteResponse {
	return dto.RouteResponse{
		RouteAvailable: false,
		Error:          unavailableReason(err),
		Steps:          toStepResponses(services.UnorderedStops(stops)),
	}
}

func unavailableReason(err error) string {
	var ce *domain.InvalidCoordinateError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	return "route unavailable"
}

func toStepResponses(steps []domain.RouteStep) []dto.RouteStepResponse {
	out := make([]dto.RouteStepResponse, 0, len(steps))
	for _, s := range steps {
		out = append(out, dto.RouteStepResponse{
			Order:                      s.Order,
			StopID:                     s.Stop.ID,
			Name:                       s.Stop.Name,
			Address:                    s.Stop.Address,
			Location:                   locationList(s.Stop.Location),
			DistanceFromPreviousMeters: s.DistanceFromPreviousMeters,
			CumulativeTimeMinutes:      s.CumulativeTimeMinutes,
		})
	}
	return out
}

// Fallback steps may hold coordinates JSON cannot carry.
func locationList(c domain.Coordinates) []float64 {
	if math.IsNaN(c.Lon) || math.IsNaN(c.Lat) || math.IsInf(c.Lon, 0) || math.IsInf(c.Lat, 0) {
		return nil
	}
	return c.CoordsToList()
}
