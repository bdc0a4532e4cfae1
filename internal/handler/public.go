// Package handler exposes HTTP handlers for both the public catalog and the
// admin API. This file defines the public browsing endpoints: unauthenticated
// users can list active listings with date/type filtering, fetch a single
// listing and read the category stats. Responses carry only listing data;
// error bodies use the {"error": string} shape throughout.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagedoor/theatre-listings/internal/availability"
	"github.com/stagedoor/theatre-listings/internal/model"
	"github.com/stagedoor/theatre-listings/internal/repository"
)

// ListingReader is the read-only slice of the listing repository needed by
// the public endpoints.
type ListingReader interface {
	ListActiveBetween(ctx context.Context, start, end string, category model.Category) ([]model.Listing, error)
	GetByID(ctx context.Context, id uint64) (*model.Listing, error)
}

// PublicHandler serves the unauthenticated catalog API.
type PublicHandler struct {
	Listings ListingReader
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(listings ListingReader) *PublicHandler {
	if listings == nil {
		panic("nil listing reader passed to NewPublicHandler")
	}
	return &PublicHandler{Listings: listings}
}

// ListMusicals returns the listings active in the requested window.
//
// Query parameters:
//
//	type – category filter; values outside the fixed enumeration are
//	       ignored (the filter is simply not applied, never rejected)
//	from, to – window bounds as "2006-01-02"; both default to today, so
//	       the bare endpoint answers "what is on right now"
//
// The SQL query does the interval overlap; the availability predicate then
// refines single-day windows by weekly schedule.
func (h *PublicHandler) ListMusicals(c echo.Context) error {
	ctx := c.Request().Context()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	from, err := dateParam(c, "from", today)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from date"})
	}
	to, err := dateParam(c, "to", from)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to date"})
	}

	category := model.Category(c.QueryParam("type"))
	if !category.Valid() {
		category = "" // unknown type values are ignored, not rejected
	}

	rows, err := h.Listings.ListActiveBetween(ctx,
		from.Format(availability.DateLayout), to.Format(availability.DateLayout), category)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	out := make([]model.Listing, 0, len(rows))
	for i := range rows {
		if availability.IsActive(&rows[i], from, to) {
			out = append(out, rows[i])
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetMusical returns a single listing by identifier, or a 404 with the
// {"error":"Not found"} body when it does not exist.
func (h *PublicHandler) GetMusical(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Not found"})
	}
	l, err := h.Listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, l)
}

// GetStats returns the number of currently running shows per category.
func (h *PublicHandler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	day := today.Format(availability.DateLayout)

	rows, err := h.Listings.ListActiveBetween(ctx, day, day, "")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	counts := availability.CountByCategory(rows, today)
	total := 0
	for _, n := range counts {
		total += n
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":   day,
		"total":  total,
		"counts": counts,
	})
}

// dateParam parses an optional "2006-01-02" query parameter, falling back to
// def when absent.
func dateParam(c echo.Context, name string, def time.Time) (time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	return time.Parse(availability.DateLayout, v)
}
