package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/stagedoor/theatre-listings/internal/handler"
)

// RegisterAdmin registers the authenticated admin endpoints under /admin.
// Every route in the group runs the supplied middleware chain (HTTP Basic
// auth plus the Redis rate limiter in production wiring). Basic auth applies
// to the whole /admin subtree, matching the one-operator model: there are
// no per-route roles.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/admin", mw...)

	// ---- Listings CRUD ----
	g.GET("/api/musicals", a.ListAll)
	g.POST("/api/musicals", a.Create)
	g.PUT("/api/musicals/:id", a.Update)
	g.DELETE("/api/musicals/:id", a.Delete)

	// ---- Bulk import / export ----
	g.POST("/api/musicals/import", a.Import)        // {"records": [...]} body
	g.POST("/api/musicals/import-csv", a.ImportCSV) // raw CSV body
	g.GET("/api/musicals/export", a.ExportCSV)

	// ---- Maintenance ----
	g.POST("/api/delete-all", a.DeleteAll) // body password re-check inside
	g.POST("/api/migrate-run-ids", a.MigrateRunIDs)
}
