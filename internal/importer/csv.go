package importer

// csv.go provides the CSV codec used by the admin import/export endpoints.
// The column set mirrors the listing fields; export and import round-trip
// through the same header so an exported file can be re-imported unchanged.

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stagedoor/theatre-listings/internal/model"
)

// csvHeader is the canonical column order for CSV import and export.
var csvHeader = []string{
	"run_id", "title", "venue_name", "venue_address", "category",
	"start_date", "end_date", "description", "ticket_url", "price_from",
	"schedule", "lottery_url", "lottery_price", "rush_url", "rush_price",
}

// ParseCSV reads a CSV document whose first record is a header row and
// returns one Row per data record. Header names are matched
// case-insensitively after trimming. Records shorter than the header are
// padded with blanks (trailing empty cells are commonly dropped by
// spreadsheet exports); longer records fail the whole parse since the
// column mapping would be ambiguous.
func ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows handled below

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv document")
	}
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) > len(cols) {
			return nil, fmt.Errorf("record %d has %d fields, header has %d", len(rows)+2, len(rec), len(cols))
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if col == "" {
				continue
			}
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteCSV writes listings as a CSV document with the canonical header.
func WriteCSV(w io.Writer, listings []model.Listing) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i := range listings {
		if err := cw.Write(csvRecord(&listings[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(l *model.Listing) []string {
	return []string{
		l.RunID,
		l.Title,
		l.VenueName,
		deref(l.VenueAddress),
		string(l.Category),
		l.StartDate,
		deref(l.EndDate),
		deref(l.Description),
		deref(l.TicketURL),
		formatPrice(l.PriceFrom),
		string(l.Schedule),
		deref(l.LotteryURL),
		formatPrice(l.LotteryPrice),
		deref(l.RushURL),
		formatPrice(l.RushPrice),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
