package api

import (
	"net/http"
	"nourishnet-route-service/internal/api/handlers"
	"nourishnet-route-service/internal/services"

	"github.com/gin-gonic/gin"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(planner handlers.RoutePlanner, defaults services.SequencerOptions, maxStops int) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestIDMiddleware(), loggingMiddleware())

	routeHandler := &handlers.RouteHandler{
		Planner:  planner,
		Defaults: defaults,
		MaxStops: maxStops,
	}

	r.GET("/health", handlers.Health)
	r.POST("/routes", routeHandler.Compute)
	r.GET("/routes", routeHandler.List)
	r.GET("/vendors/:id/route", routeHandler.VendorRoute)

	return r
}
