// Package importer implements the bulk import reconciler: a run-id keyed
// upsert over a batch of raw rows. Re-running the same batch is idempotent;
// the second pass reports every row as updated instead of inserted and
// leaves the stored values unchanged.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stagedoor/theatre-listings/internal/model"
	"github.com/stagedoor/theatre-listings/internal/repository"
	"github.com/stagedoor/theatre-listings/internal/runid"
)

// Row is one raw field mapping from an import payload or CSV record. All
// values are text; numeric fields are parsed leniently during reconciliation.
type Row map[string]string

// RowError records a per-row failure. Row carries the row's title when one
// is present, otherwise a positional label, so operators can find the
// offending line in their source file.
type RowError struct {
	Row     string `json:"row"`
	Message string `json:"message"`
}

// Result summarises one reconciliation pass.
type Result struct {
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Errors   []RowError `json:"errors"`
}

// Store is the slice of the listing repository the reconciler needs.
type Store interface {
	GetByRunID(ctx context.Context, runID string) (*model.Listing, error)
	Create(ctx context.Context, l *model.Listing) error
	Update(ctx context.Context, l *model.Listing) error
}

// Reconcile applies rows to the store in input order. Each row independently
// resolves its run-id (the row's own non-blank run_id field wins, otherwise
// one is generated from title, venue and start date), then either fully
// overwrites the existing listing with that run-id or inserts a new one.
// A failure in any row is recorded in Result.Errors and does not abort the
// remaining rows. The per-row lookup-then-write is not transactional; the
// run_id uniqueness constraint turns a concurrent race into a per-row
// duplicate-key error rather than a silent double insert.
func Reconcile(ctx context.Context, store Store, rows []Row) Result {
	res := Result{Errors: make([]RowError, 0)}
	for i, row := range rows {
		if err := reconcileRow(ctx, store, row, &res); err != nil {
			res.Errors = append(res.Errors, RowError{Row: rowLabel(row, i), Message: err.Error()})
		}
	}
	return res
}

func reconcileRow(ctx context.Context, store Store, row Row, res *Result) error {
	l, err := buildListing(row)
	if err != nil {
		return err
	}
	existing, err := store.GetByRunID(ctx, l.RunID)
	switch {
	case err == nil:
		l.ID = existing.ID
		if err := store.Update(ctx, l); err != nil {
			return err
		}
		res.Updated++
	case errors.Is(err, repository.ErrListingNotFound):
		if err := store.Create(ctx, l); err != nil {
			return err
		}
		res.Inserted++
	default:
		return err
	}
	return nil
}

// buildListing converts a raw row into a full listing, resolving the run-id
// and parsing optional numeric fields. It is the write-path validation gate
// for imports: missing required fields and unknown categories are rejected
// here, before any store access.
func buildListing(row Row) (*model.Listing, error) {
	title := strings.TrimSpace(row["title"])
	venue := strings.TrimSpace(row["venue_name"])
	startDate := strings.TrimSpace(row["start_date"])
	if title == "" {
		return nil, errors.New("missing title")
	}
	if venue == "" {
		return nil, errors.New("missing venue_name")
	}
	if startDate == "" {
		return nil, errors.New("missing start_date")
	}
	category := model.Category(strings.TrimSpace(row["category"]))
	if !category.Valid() {
		return nil, fmt.Errorf("unknown category %q", row["category"])
	}

	id := strings.TrimSpace(row["run_id"])
	if id == "" {
		id = runid.Generate(title, venue, startDate)
	}

	priceFrom, err := parsePrice(row["price_from"], "price_from")
	if err != nil {
		return nil, err
	}
	lotteryPrice, err := parsePrice(row["lottery_price"], "lottery_price")
	if err != nil {
		return nil, err
	}
	rushPrice, err := parsePrice(row["rush_price"], "rush_price")
	if err != nil {
		return nil, err
	}

	l := &model.Listing{
		RunID:        id,
		Title:        title,
		VenueName:    venue,
		Category:     category,
		StartDate:    startDate,
		EndDate:      optField(row, "end_date"),
		VenueAddress: optField(row, "venue_address"),
		Description:  optField(row, "description"),
		TicketURL:    optField(row, "ticket_url"),
		PriceFrom:    priceFrom,
		LotteryURL:   optField(row, "lottery_url"),
		LotteryPrice: lotteryPrice,
		RushURL:      optField(row, "rush_url"),
		RushPrice:    rushPrice,
	}
	if s := strings.TrimSpace(row["schedule"]); s != "" {
		// Stored verbatim; the availability predicate parses it fail-open.
		l.Schedule = []byte(s)
	}
	return l, nil
}

// parsePrice parses an optional currency amount. Blank means absent, not
// zero. A non-blank value that does not parse, or a negative one, fails the
// row. A leading currency symbol is tolerated since exported spreadsheets
// often re-add it.
func parsePrice(raw, field string) (*float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "£")
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", field, raw)
	}
	if v < 0 {
		return nil, fmt.Errorf("negative %s %q", field, raw)
	}
	return &v, nil
}

func optField(row Row, key string) *string {
	v := strings.TrimSpace(row[key])
	if v == "" {
		return nil
	}
	return &v
}

func rowLabel(row Row, i int) string {
	if t := strings.TrimSpace(row["title"]); t != "" {
		return t
	}
	return fmt.Sprintf("row %d", i+1)
}

// RowFromAny converts a decoded JSON object into a Row. Import payloads
// arrive as {"records": [...]} where clients may send numbers for the price
// fields; everything is normalised to text so one parsing path serves both
// JSON and CSV imports.
func RowFromAny(m map[string]interface{}) Row {
	row := make(Row, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case nil:
			// absent field
		case string:
			row[k] = t
		case float64:
			row[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			row[k] = strconv.FormatBool(t)
		default:
			// nested values (the schedule object) are carried as JSON text
			if b, err := json.Marshal(t); err == nil {
				row[k] = string(b)
			}
		}
	}
	return row
}
