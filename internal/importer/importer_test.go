package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagedoor/theatre-listings/internal/model"
	"github.com/stagedoor/theatre-listings/internal/repository"
)

// fakeStore is an in-memory Store for reconciler tests.
type fakeStore struct {
	nextID uint64
	byID   map[uint64]model.Listing
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: make(map[uint64]model.Listing)}
}

func (s *fakeStore) GetByRunID(_ context.Context, runID string) (*model.Listing, error) {
	for _, l := range s.byID {
		if l.RunID == runID {
			cp := l
			return &cp, nil
		}
	}
	return nil, repository.ErrListingNotFound
}

func (s *fakeStore) Create(_ context.Context, l *model.Listing) error {
	s.nextID++
	l.ID = s.nextID
	s.byID[l.ID] = *l
	return nil
}

func (s *fakeStore) Update(_ context.Context, l *model.Listing) error {
	if _, ok := s.byID[l.ID]; !ok {
		return repository.ErrListingNotFound
	}
	s.byID[l.ID] = *l
	return nil
}

func sampleRow(title string) Row {
	return Row{
		"title":      title,
		"venue_name": "Lyric Theatre",
		"category":   "WestEnd",
		"start_date": "2025-02-01",
		"end_date":   "2025-08-31",
		"price_from": "25.50",
	}
}

func TestReconcileInsertsNewRows(t *testing.T) {
	store := newFakeStore()
	res := Reconcile(context.Background(), store, []Row{sampleRow("Six"), sampleRow("Matilda")})
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 0, res.Updated)
	assert.Empty(t, res.Errors)
	assert.Len(t, store.byID, 2)
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := newFakeStore()
	rows := []Row{sampleRow("Six")}

	first := Reconcile(context.Background(), store, rows)
	assert.Equal(t, Result{Inserted: 1, Updated: 0, Errors: []RowError{}}, first)

	stateAfterFirst := store.byID[1]

	second := Reconcile(context.Background(), store, rows)
	assert.Equal(t, Result{Inserted: 0, Updated: 1, Errors: []RowError{}}, second)

	// Same final state: the second pass overwrote with identical values.
	assert.Equal(t, stateAfterFirst, store.byID[1])
	assert.Len(t, store.byID, 1)
}

func TestReconcilePartialFailure(t *testing.T) {
	store := newFakeStore()
	bad := sampleRow("Broken Show")
	bad["price_from"] = "twenty"
	rows := []Row{sampleRow("Six"), bad, sampleRow("Matilda")}

	res := Reconcile(context.Background(), store, rows)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 0, res.Updated)
	require.Len(t, res.Errors, 1)
	// The error is labeled with the offending row's title, and the other
	// rows still committed.
	assert.Equal(t, "Broken Show", res.Errors[0].Row)
	assert.Len(t, store.byID, 2)
}

func TestReconcileUsesProvidedRunID(t *testing.T) {
	store := newFakeStore()
	row := sampleRow("Six")
	row["run_id"] = "legacy-six-key"

	res := Reconcile(context.Background(), store, []Row{row})
	require.Equal(t, 1, res.Inserted)
	assert.Equal(t, "legacy-six-key", store.byID[1].RunID)

	// A later row with the same explicit run-id updates, never duplicates.
	row["description"] = "now with a description"
	res = Reconcile(context.Background(), store, []Row{row})
	assert.Equal(t, 1, res.Updated)
	assert.Len(t, store.byID, 1)
	require.NotNil(t, store.byID[1].Description)
	assert.Equal(t, "now with a description", *store.byID[1].Description)
}

func TestReconcileGeneratesRunID(t *testing.T) {
	store := newFakeStore()
	res := Reconcile(context.Background(), store, []Row{sampleRow("Cabaret!")})
	require.Equal(t, 1, res.Inserted)
	assert.Equal(t, "cabaret-lyric-theatre-2025-02-01", store.byID[1].RunID)
}

func TestBuildListingValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(Row)
	}{
		{"missing title", func(r Row) { delete(r, "title") }},
		{"missing venue", func(r Row) { delete(r, "venue_name") }},
		{"missing start date", func(r Row) { delete(r, "start_date") }},
		{"unknown category", func(r Row) { r["category"] = "Opera" }},
		{"negative price", func(r Row) { r["price_from"] = "-3" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := sampleRow("Six")
			tc.mutate(row)
			_, err := buildListing(row)
			assert.Error(t, err)
		})
	}
}

func TestPriceParsing(t *testing.T) {
	row := sampleRow("Six")
	row["price_from"] = ""
	row["lottery_price"] = "£29.50"
	row["rush_price"] = "0"

	l, err := buildListing(row)
	require.NoError(t, err)
	// Blank is absent, not zero.
	assert.Nil(t, l.PriceFrom)
	require.NotNil(t, l.LotteryPrice)
	assert.Equal(t, 29.50, *l.LotteryPrice)
	require.NotNil(t, l.RushPrice)
	assert.Equal(t, 0.0, *l.RushPrice)
}

func TestRowFromAny(t *testing.T) {
	row := RowFromAny(map[string]interface{}{
		"title":      "Six",
		"price_from": 25.5,
		"end_date":   nil,
		"schedule":   map[string]interface{}{"monday": map[string]interface{}{"evening": "19:30"}},
	})
	assert.Equal(t, "Six", row["title"])
	assert.Equal(t, "25.5", row["price_from"])
	_, hasEnd := row["end_date"]
	assert.False(t, hasEnd)
	assert.JSONEq(t, `{"monday":{"evening":"19:30"}}`, row["schedule"])
}
