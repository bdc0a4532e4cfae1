package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stagedoor/theatre-listings/internal/handler"
)

// RegisterRoutes registers the operational endpoints on the provided Echo
// instance: the health check and the prometheus metrics scrape target.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPublic registers the unauthenticated catalog endpoints. CORS is
// wide open here since the public API is consumed from any origin, but it
// is deliberately not applied to the admin routes.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
	g := e.Group("/api", echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	// Active listings, optionally filtered by ?type= and a ?from=/?to= window.
	g.GET("/musicals", p.ListMusicals)
	// Single listing by store identifier.
	g.GET("/musicals/:id", p.GetMusical)
	// Running-show counts grouped by category.
	g.GET("/stats", p.GetStats)
}
