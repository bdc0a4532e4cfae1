package handler // handler defines http handlers

// admin.go implements the authenticated admin API: full CRUD on listings,
// bulk import/export, delete-all and the legacy run-id backfill. Every route
// here sits behind HTTP Basic auth; delete-all additionally re-checks the
// admin password in the request body so a leaked browser session cannot wipe
// the table by accident.

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stagedoor/theatre-listings/internal/availability"
	"github.com/stagedoor/theatre-listings/internal/importer"
	"github.com/stagedoor/theatre-listings/internal/model"
	"github.com/stagedoor/theatre-listings/internal/queue"
	"github.com/stagedoor/theatre-listings/internal/repository"
	"github.com/stagedoor/theatre-listings/internal/runid"
	"github.com/stagedoor/theatre-listings/internal/utils"
)

// ListingStore is the full listing repository surface the admin API needs.
// It is a superset of importer.Store, so the handler's store can be handed
// to the reconciler directly.
type ListingStore interface {
	ListAll(ctx context.Context) ([]model.Listing, error)
	GetByID(ctx context.Context, id uint64) (*model.Listing, error)
	GetByRunID(ctx context.Context, runID string) (*model.Listing, error)
	Create(ctx context.Context, l *model.Listing) error
	Update(ctx context.Context, l *model.Listing) error
	Delete(ctx context.Context, id uint64) error
	DeleteAll(ctx context.Context) (int64, error)
	ListMissingRunID(ctx context.Context) ([]model.Listing, error)
	UpdateRunID(ctx context.Context, id uint64, runID string) error
}

// AdminHandler bundles the store and configuration for the admin API.
// Publish, when non-nil, is invoked in the background after each bulk
// import; failures are logged and never surface to the client.
type AdminHandler struct {
	Listings      ListingStore
	AdminPass     string
	AdminPassHash string
	Publish       func(ctx context.Context, ev queue.ImportCompletedEvent) error
}

// NewAdminHandler constructs an AdminHandler and panics if the store is nil.
func NewAdminHandler(listings ListingStore, adminPass, adminPassHash string) *AdminHandler {
	if listings == nil {
		panic("nil listing store passed to NewAdminHandler")
	}
	return &AdminHandler{Listings: listings, AdminPass: adminPass, AdminPassHash: adminPassHash}
}

// listingRequest is the JSON body for create and update. All fields are
// plain values; the run-id is never taken from the client on this path, it
// is recomputed from (title, venue, start date) on every write.
type listingRequest struct {
	Title        string          `json:"title"`
	VenueName    string          `json:"venue_name"`
	VenueAddress *string         `json:"venue_address"`
	Category     string          `json:"category"`
	StartDate    string          `json:"start_date"`
	EndDate      *string         `json:"end_date"`
	Description  *string         `json:"description"`
	TicketURL    *string         `json:"ticket_url"`
	PriceFrom    *float64        `json:"price_from"`
	Schedule     json.RawMessage `json:"schedule"`
	LotteryURL   *string         `json:"lottery_url"`
	LotteryPrice *float64        `json:"lottery_price"`
	RushURL      *string         `json:"rush_url"`
	RushPrice    *float64        `json:"rush_price"`
}

// validate checks required fields, the category enumeration and date
// formats. end_date before start_date is deliberately permitted: runs with
// inverted dates exist in the source data and simply never test active.
func (r *listingRequest) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("missing title")
	}
	if strings.TrimSpace(r.VenueName) == "" {
		return errors.New("missing venue_name")
	}
	if !model.Category(r.Category).Valid() {
		return errors.New("unknown category")
	}
	if _, err := time.Parse(availability.DateLayout, r.StartDate); err != nil {
		return errors.New("invalid start_date")
	}
	if r.EndDate != nil && *r.EndDate != "" {
		if _, err := time.Parse(availability.DateLayout, *r.EndDate); err != nil {
			return errors.New("invalid end_date")
		}
	}
	for _, p := range []*float64{r.PriceFrom, r.LotteryPrice, r.RushPrice} {
		if p != nil && *p < 0 {
			return errors.New("negative price")
		}
	}
	return nil
}

func (r *listingRequest) toListing() *model.Listing {
	return &model.Listing{
		RunID:        runid.Generate(r.Title, r.VenueName, r.StartDate),
		Title:        strings.TrimSpace(r.Title),
		VenueName:    strings.TrimSpace(r.VenueName),
		VenueAddress: r.VenueAddress,
		Category:     model.Category(r.Category),
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		Description:  r.Description,
		TicketURL:    r.TicketURL,
		PriceFrom:    r.PriceFrom,
		Schedule:     r.Schedule,
		LotteryURL:   r.LotteryURL,
		LotteryPrice: r.LotteryPrice,
		RushURL:      r.RushURL,
		RushPrice:    r.RushPrice,
	}
}

// ListAll returns every listing, active or not, for the admin table view.
func (h *AdminHandler) ListAll(c echo.Context) error {
	rows, err := h.Listings.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rows})
}

// Create inserts a new listing from a JSON body.
func (h *AdminHandler) Create(c echo.Context) error {
	var req listingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	l := req.toListing()
	if err := h.Listings.Create(c.Request().Context(), l); err != nil {
		if errors.Is(err, repository.ErrDuplicateRunID) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "duplicate run_id"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, l)
}

// Update overwrites an existing listing in full. The run-id is recomputed,
// so renaming a show or moving its opening night changes the natural key.
func (h *AdminHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Not found"})
	}
	var req listingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	l := req.toListing()
	l.ID = id
	if err := h.Listings.Update(c.Request().Context(), l); err != nil {
		switch {
		case errors.Is(err, repository.ErrListingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Not found"})
		case errors.Is(err, repository.ErrDuplicateRunID):
			return c.JSON(http.StatusConflict, echo.Map{"error": "duplicate run_id"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, l)
}

// Delete removes a listing permanently.
func (h *AdminHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Not found"})
	}
	if err := h.Listings.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// importRequest is the JSON import body: {"records": [...]}.
type importRequest struct {
	Records []map[string]interface{} `json:"records"`
}

// Import reconciles a batch of records against the store by run-id. The
// response is the reconciler result: inserted/updated counts plus per-row
// errors; a bad row never aborts the batch.
func (h *AdminHandler) Import(c echo.Context) error {
	var req importRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	rows := make([]importer.Row, 0, len(req.Records))
	for _, rec := range req.Records {
		rows = append(rows, importer.RowFromAny(rec))
	}
	return h.runImport(c, rows, "json")
}

// ImportCSV accepts a raw CSV document (header row first) and feeds it
// through the same reconciler as the JSON import.
func (h *AdminHandler) ImportCSV(c echo.Context) error {
	rows, err := importer.ParseCSV(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return h.runImport(c, rows, "csv")
}

func (h *AdminHandler) runImport(c echo.Context, rows []importer.Row, source string) error {
	res := importer.Reconcile(c.Request().Context(), h.Listings, rows)
	if h.Publish != nil {
		ev := queue.ImportCompletedEvent{
			Inserted:    res.Inserted,
			Updated:     res.Updated,
			ErrorCount:  len(res.Errors),
			Source:      source,
			CompletedAt: time.Now().UTC().Format(time.RFC3339),
		}
		go func() {
			if err := h.Publish(context.Background(), ev); err != nil {
				log.Printf("import: publish event failed: %v", err)
			}
		}()
	}
	return c.JSON(http.StatusOK, res)
}

// ExportCSV streams every listing as a CSV attachment. The column layout
// matches what ImportCSV expects, so an export can be edited and re-imported.
func (h *AdminHandler) ExportCSV(c echo.Context) error {
	rows, err := h.Listings.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="listings.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return importer.WriteCSV(c.Response(), rows)
}

// deleteAllRequest carries the password confirmation for the bulk wipe.
type deleteAllRequest struct {
	Password string `json:"password"`
}

// DeleteAll removes every listing. The body password must match the
// configured admin password independently of the Basic auth that already
// guarded the route.
func (h *AdminHandler) DeleteAll(c echo.Context) error {
	var req deleteAllRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !utils.CheckAdminPassword(req.Password, h.AdminPass, h.AdminPassHash) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid password"})
	}
	n, err := h.Listings.DeleteAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}

// MigrateRunIDs backfills the run-id of legacy rows that predate the
// natural key. Collisions (two legacy rows normalising to the same slug)
// are reported per row and skipped.
func (h *AdminHandler) MigrateRunIDs(c echo.Context) error {
	ctx := c.Request().Context()
	missing, err := h.Listings.ListMissingRunID(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	migrated := 0
	errs := make([]importer.RowError, 0)
	for i := range missing {
		l := &missing[i]
		rid := runid.Generate(l.Title, l.VenueName, l.StartDate)
		if err := h.Listings.UpdateRunID(ctx, l.ID, rid); err != nil {
			errs = append(errs, importer.RowError{Row: l.Title, Message: err.Error()})
			continue
		}
		migrated++
	}
	return c.JSON(http.StatusOK, echo.Map{"migrated": migrated, "errors": errs})
}
