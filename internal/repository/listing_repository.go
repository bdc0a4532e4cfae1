// Package repository contains data access logic for listings. A Listing is
// one production run of a show at one venue; see the model package for field
// semantics. All methods operate on the single `listings` table.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/stagedoor/theatre-listings/internal/model"
)

// listingCols is the column list shared by every SELECT in this file. Order
// must match scanListing.
const listingCols = `id, run_id, title, venue_name, venue_address, category, start_date, end_date,
       description, ticket_url, price_from, schedule, lottery_url, lottery_price, rush_url, rush_price,
       created_at, updated_at`

// ListingRepo manages persistence for listings.
type ListingRepo struct {
	db *sql.DB
}

// NewListingRepo constructs a ListingRepo with the given DB handle.
func NewListingRepo(db *sql.DB) *ListingRepo {
	return &ListingRepo{db: db}
}

// DB exposes the underlying sql.DB for callers that need transaction control.
func (r *ListingRepo) DB() *sql.DB {
	return r.db
}

// Create inserts a new listing and assigns the generated ID back to the
// struct. Store-managed defaults (created_at, updated_at) are populated by
// re-selecting the row. A run_id collision returns ErrDuplicateRunID.
func (r *ListingRepo) Create(ctx context.Context, l *model.Listing) error {
	const q = `INSERT INTO listings
	    (run_id, title, venue_name, venue_address, category, start_date, end_date,
	     description, ticket_url, price_from, schedule, lottery_url, lottery_price, rush_url, rush_price)
	    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		l.RunID, l.Title, l.VenueName, l.VenueAddress, string(l.Category), l.StartDate, l.EndDate,
		l.Description, l.TicketURL, l.PriceFrom, scheduleArg(l.Schedule),
		l.LotteryURL, l.LotteryPrice, l.RushURL, l.RushPrice,
	)
	if err != nil {
		return mapDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	const sel = `SELECT ` + listingCols + ` FROM listings WHERE id = ?`
	return scanListing(r.db.QueryRowContext(ctx, sel, l.ID), l)
}

// GetByID retrieves a listing by its identifier. It returns
// ErrListingNotFound if there is no matching row.
func (r *ListingRepo) GetByID(ctx context.Context, id uint64) (*model.Listing, error) {
	const q = `SELECT ` + listingCols + ` FROM listings WHERE id = ?`
	var l model.Listing
	if err := scanListing(r.db.QueryRowContext(ctx, q, id), &l); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &l, nil
}

// GetByRunID retrieves a listing by its natural key. It returns
// ErrListingNotFound if no listing carries that run_id.
func (r *ListingRepo) GetByRunID(ctx context.Context, runID string) (*model.Listing, error) {
	const q = `SELECT ` + listingCols + ` FROM listings WHERE run_id = ?`
	var l model.Listing
	if err := scanListing(r.db.QueryRowContext(ctx, q, runID), &l); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Update overwrites every mutable field of the listing identified by l.ID.
// This is a full replace, not a merge: callers must supply the complete
// record. Re-running an update with identical values is not an error; the
// row simply keeps its state. Returns ErrListingNotFound when the ID does
// not exist and ErrDuplicateRunID when the new run_id collides.
func (r *ListingRepo) Update(ctx context.Context, l *model.Listing) error {
	const q = `UPDATE listings
	    SET run_id = ?, title = ?, venue_name = ?, venue_address = ?, category = ?,
	        start_date = ?, end_date = ?, description = ?, ticket_url = ?, price_from = ?,
	        schedule = ?, lottery_url = ?, lottery_price = ?, rush_url = ?, rush_price = ?,
	        updated_at = CURRENT_TIMESTAMP
	    WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		l.RunID, l.Title, l.VenueName, l.VenueAddress, string(l.Category),
		l.StartDate, l.EndDate, l.Description, l.TicketURL, l.PriceFrom,
		scheduleArg(l.Schedule), l.LotteryURL, l.LotteryPrice, l.RushURL, l.RushPrice,
		l.ID,
	)
	if err != nil {
		return mapDuplicate(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// Zero rows affected: either the row does not exist or the values were
	// already identical. Distinguish the two so imports can still report
	// an idempotent re-run as "updated".
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM listings WHERE id = ? LIMIT 1`, l.ID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrListingNotFound
		}
		return err
	}
	return nil
}

// Delete removes a listing permanently. There is no soft delete.
func (r *ListingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrListingNotFound
	}
	return nil
}

// DeleteAll removes every listing and reports how many rows were deleted.
func (r *ListingRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListAll returns every listing ordered by start date then title. When the
// table is empty it returns an empty slice and nil error.
func (r *ListingRepo) ListAll(ctx context.Context) ([]model.Listing, error) {
	const q = `SELECT ` + listingCols + ` FROM listings ORDER BY start_date ASC, title ASC`
	return r.queryListings(ctx, q)
}

// ListActiveBetween returns listings whose run overlaps [start, end], both
// DB date strings ("2006-01-02"). A NULL end_date counts as an open-ended
// run. When category is non-empty the result is restricted to it; callers
// are expected to have validated the category already (unknown values on
// the public API are dropped before reaching here). Weekday-level schedule
// refinement happens in the availability package, not in SQL.
func (r *ListingRepo) ListActiveBetween(ctx context.Context, start, end string, category model.Category) ([]model.Listing, error) {
	q := `SELECT ` + listingCols + ` FROM listings
	      WHERE start_date <= ? AND (end_date IS NULL OR end_date >= ?)`
	args := []interface{}{end, start}
	if category != "" {
		q += ` AND category = ?`
		args = append(args, string(category))
	}
	q += ` ORDER BY start_date ASC, title ASC`
	return r.queryListings(ctx, q, args...)
}

// ListMissingRunID returns listings whose run_id was never assigned. These
// are legacy rows created before the natural key existed.
func (r *ListingRepo) ListMissingRunID(ctx context.Context) ([]model.Listing, error) {
	const q = `SELECT ` + listingCols + ` FROM listings WHERE run_id IS NULL OR run_id = '' ORDER BY id ASC`
	return r.queryListings(ctx, q)
}

// UpdateRunID backfills the run_id of a single listing. A collision with an
// existing run_id returns ErrDuplicateRunID.
func (r *ListingRepo) UpdateRunID(ctx context.Context, id uint64, runID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE listings SET run_id = ? WHERE id = ?`, runID, id)
	if err != nil {
		return mapDuplicate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrListingNotFound
	}
	return nil
}

// queryListings runs a SELECT over listingCols and scans all rows.
func (r *ListingRepo) queryListings(ctx context.Context, q string, args ...interface{}) ([]model.Listing, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Listing, 0)
	for rows.Next() {
		var l model.Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanListing reads one row in listingCols order into l, converting SQL NULLs
// into nil pointers.
func scanListing(row rowScanner, l *model.Listing) error {
	var (
		runID, venueAddr, endDate, desc, ticketURL  sql.NullString
		schedule, lotteryURL, rushURL               sql.NullString
		priceFrom, lotteryPrice, rushPrice          sql.NullFloat64
		category                                    string
	)
	if err := row.Scan(
		&l.ID, &runID, &l.Title, &l.VenueName, &venueAddr, &category, &l.StartDate, &endDate,
		&desc, &ticketURL, &priceFrom, &schedule, &lotteryURL, &lotteryPrice, &rushURL, &rushPrice,
		&l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return err
	}
	l.RunID = runID.String
	l.Category = model.Category(category)
	l.VenueAddress = strPtr(venueAddr)
	l.EndDate = strPtr(endDate)
	l.Description = strPtr(desc)
	l.TicketURL = strPtr(ticketURL)
	l.PriceFrom = floatPtr(priceFrom)
	l.LotteryURL = strPtr(lotteryURL)
	l.LotteryPrice = floatPtr(lotteryPrice)
	l.RushURL = strPtr(rushURL)
	l.RushPrice = floatPtr(rushPrice)
	if schedule.Valid && schedule.String != "" {
		l.Schedule = json.RawMessage(schedule.String)
	}
	return nil
}

// scheduleArg converts the raw schedule JSON into a driver argument,
// preserving NULL for an absent schedule.
func scheduleArg(raw json.RawMessage) interface{} {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return string(raw)
}

// mapDuplicate converts a MySQL duplicate-entry error (1062) on the run_id
// uniqueness constraint into ErrDuplicateRunID.
func mapDuplicate(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return ErrDuplicateRunID
	}
	return err
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}
