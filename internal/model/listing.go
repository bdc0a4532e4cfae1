package model

import "encoding/json"

// Category classifies a production run. Only the three values below are
// accepted on any write path; unknown values in public query filters are
// ignored rather than rejected.
type Category string

const (
	CategoryWestEnd     Category = "WestEnd"     // commercial West End houses
	CategoryOffWestEnd  Category = "OffWestEnd"  // fringe and off-West End venues
	CategoryDramaSchool Category = "DramaSchool" // drama school productions
)

// Categories returns the fixed enumeration in a stable order.
func Categories() []Category {
	return []Category{CategoryWestEnd, CategoryOffWestEnd, CategoryDramaSchool}
}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryWestEnd, CategoryOffWestEnd, CategoryDramaSchool:
		return true
	}
	return false
}

// Performance holds the optional showtimes for one weekday. Both fields may
// be nil, meaning no performance in that slot.
type Performance struct {
	Matinee *string `json:"matinee"`
	Evening *string `json:"evening"`
}

// WeeklySchedule maps lower-case weekday names ("monday" .. "sunday") to the
// performances on that day. A day with no entry has no performance at all.
type WeeklySchedule map[string]Performance

// Listing represents one production run of a show at one venue for one date
// range. It corresponds to a row in the `listings` table.
//
// RunID is a derived natural key, unique across all listings: a pure function
// of (title, venue name, start date). Two listings that agree on all three
// collide by design; the collision is the de-duplication key for imports.
//
// Dates are calendar dates stored in DB format "2006-01-02". EndDate is nil
// for an open-ended run. Schedule holds the raw JSON of the weekly schedule
// column; it is parsed lazily so that a malformed value degrades to "no
// restriction" instead of poisoning the row.
type Listing struct {
	ID           uint64          `json:"id"`                      // listings.id
	RunID        string          `json:"run_id"`                  // listings.run_id
	Title        string          `json:"title"`                   // listings.title
	VenueName    string          `json:"venue_name"`              // listings.venue_name
	VenueAddress *string         `json:"venue_address,omitempty"` // listings.venue_address
	Category     Category        `json:"category"`                // listings.category
	StartDate    string          `json:"start_date"`              // listings.start_date ("YYYY-MM-DD")
	EndDate      *string         `json:"end_date,omitempty"`      // listings.end_date, nil = open run
	Description  *string         `json:"description,omitempty"`   // listings.description
	TicketURL    *string         `json:"ticket_url,omitempty"`    // listings.ticket_url
	PriceFrom    *float64        `json:"price_from,omitempty"`    // listings.price_from
	Schedule     json.RawMessage `json:"schedule,omitempty"`      // listings.schedule (raw JSON)
	LotteryURL   *string         `json:"lottery_url,omitempty"`   // listings.lottery_url
	LotteryPrice *float64        `json:"lottery_price,omitempty"` // listings.lottery_price
	RushURL      *string         `json:"rush_url,omitempty"`      // listings.rush_url
	RushPrice    *float64        `json:"rush_price,omitempty"`    // listings.rush_price
	CreatedAt    string          `json:"created_at,omitempty"`    // listings.created_at
	UpdatedAt    string          `json:"updated_at,omitempty"`    // listings.updated_at
}
