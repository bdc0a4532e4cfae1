package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagedoor/theatre-listings/internal/importer"
	"github.com/stagedoor/theatre-listings/internal/model"
)

func adminRequest(t *testing.T, fn func(echo.Context) error, method, target, body, contentType string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	require.NoError(t, fn(c))
	return rec
}

const validListingBody = `{
	"title": "Six",
	"venue_name": "Vaudeville Theatre",
	"category": "WestEnd",
	"start_date": "2025-02-01",
	"end_date": "2025-08-31",
	"price_from": 25.5
}`

func TestAdminCreate(t *testing.T) {
	store := newStubStore()
	h := NewAdminHandler(store, "secret", "")

	rec := adminRequest(t, h.Create, http.MethodPost, "/admin/api/musicals", validListingBody, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var got model.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	// The run-id is recomputed server-side on every create.
	assert.Equal(t, "six-vaudeville-theatre-2025-02-01", got.RunID)
	assert.NotZero(t, got.ID)
}

func TestAdminCreateValidation(t *testing.T) {
	store := newStubStore()
	h := NewAdminHandler(store, "secret", "")

	cases := []struct {
		name string
		body string
	}{
		{"unknown category", `{"title":"X","venue_name":"Y","category":"Opera","start_date":"2025-01-01"}`},
		{"missing title", `{"venue_name":"Y","category":"WestEnd","start_date":"2025-01-01"}`},
		{"bad start date", `{"title":"X","venue_name":"Y","category":"WestEnd","start_date":"soon"}`},
		{"negative price", `{"title":"X","venue_name":"Y","category":"WestEnd","start_date":"2025-01-01","price_from":-1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := adminRequest(t, h.Create, http.MethodPost, "/admin/api/musicals", tc.body, echo.MIMEApplicationJSON)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, store.items)
}

func TestAdminCreateDuplicateRunID(t *testing.T) {
	store := newStubStore()
	h := NewAdminHandler(store, "secret", "")

	rec := adminRequest(t, h.Create, http.MethodPost, "/admin/api/musicals", validListingBody, echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = adminRequest(t, h.Create, http.MethodPost, "/admin/api/musicals", validListingBody, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminUpdateNotFound(t *testing.T) {
	h := NewAdminHandler(newStubStore(), "secret", "")
	rec := adminRequest(t, h.Update, http.MethodPut, "/admin/api/musicals/42", validListingBody, echo.MIMEApplicationJSON, "id", "42")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
}

func TestAdminUpdateRecomputesRunID(t *testing.T) {
	store := newStubStore()
	store.add(model.Listing{RunID: "old-key", Title: "Old Title", VenueName: "Vaudeville Theatre",
		Category: model.CategoryWestEnd, StartDate: "2025-02-01"})
	h := NewAdminHandler(store, "secret", "")

	rec := adminRequest(t, h.Update, http.MethodPut, "/admin/api/musicals/1", validListingBody, echo.MIMEApplicationJSON, "id", "1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "six-vaudeville-theatre-2025-02-01", store.items[1].RunID)
	assert.Equal(t, "Six", store.items[1].Title)
}

func TestAdminDelete(t *testing.T) {
	store := newStubStore()
	store.add(model.Listing{Title: "Six", VenueName: "V", Category: model.CategoryWestEnd, StartDate: "2025-01-01"})
	h := NewAdminHandler(store, "secret", "")

	rec := adminRequest(t, h.Delete, http.MethodDelete, "/admin/api/musicals/1", "", "", "id", "1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.items)

	rec = adminRequest(t, h.Delete, http.MethodDelete, "/admin/api/musicals/1", "", "", "id", "1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminImportIdempotent(t *testing.T) {
	store := newStubStore()
	h := NewAdminHandler(store, "secret", "")

	body := `{"records":[{"title":"Six","venue_name":"Vaudeville Theatre","category":"WestEnd","start_date":"2025-02-01","price_from":"25.50"}]}`

	rec := adminRequest(t, h.Import, http.MethodPost, "/admin/api/musicals/import", body, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusOK, rec.Code)
	var res importer.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 0, res.Updated)

	rec = adminRequest(t, h.Import, http.MethodPost, "/admin/api/musicals/import", body, echo.MIMEApplicationJSON)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	assert.Len(t, store.items, 1)
}

func TestAdminImportCSV(t *testing.T) {
	store := newStubStore()
	h := NewAdminHandler(store, "secret", "")

	csvBody := "title,venue_name,category,start_date\nSix,Vaudeville Theatre,WestEnd,2025-02-01\n"
	rec := adminRequest(t, h.ImportCSV, http.MethodPost, "/admin/api/musicals/import-csv", csvBody, "text/csv")
	assert.Equal(t, http.StatusOK, rec.Code)

	var res importer.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Inserted)
}

func TestAdminExportCSV(t *testing.T) {
	store := newStubStore()
	store.add(model.Listing{RunID: "six-v-2025-02-01", Title: "Six", VenueName: "V",
		Category: model.CategoryWestEnd, StartDate: "2025-02-01"})
	h := NewAdminHandler(store, "secret", "")

	rec := adminRequest(t, h.ExportCSV, http.MethodGet, "/admin/api/musicals/export", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2) // header + one record
	assert.Contains(t, lines[1], "six-v-2025-02-01")
}

func TestAdminDeleteAllPasswordGate(t *testing.T) {
	store := newStubStore()
	store.add(model.Listing{Title: "Six", VenueName: "V", Category: model.CategoryWestEnd, StartDate: "2025-01-01"})
	h := NewAdminHandler(store, "secret", "")

	rec := adminRequest(t, h.DeleteAll, http.MethodPost, "/admin/api/delete-all", `{"password":"wrong"}`, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Len(t, store.items, 1)

	rec = adminRequest(t, h.DeleteAll, http.MethodPost, "/admin/api/delete-all", `{"password":"secret"}`, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())
	assert.Empty(t, store.items)
}

func TestAdminMigrateRunIDs(t *testing.T) {
	store := newStubStore()
	store.add(model.Listing{Title: "Legacy Show", VenueName: "Old Venue",
		Category: model.CategoryOffWestEnd, StartDate: "2024-01-01"}) // no run_id
	store.add(model.Listing{RunID: "already-set", Title: "Modern", VenueName: "New",
		Category: model.CategoryWestEnd, StartDate: "2025-01-01"})
	h := NewAdminHandler(store, "secret", "")

	rec := adminRequest(t, h.MigrateRunIDs, http.MethodPost, "/admin/api/migrate-run-ids", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Migrated int                 `json:"migrated"`
		Errors   []importer.RowError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Migrated)
	assert.Empty(t, body.Errors)
	assert.Equal(t, "legacy-show-old-venue-2024-01-01", store.items[1].RunID)
	assert.Equal(t, "already-set", store.items[2].RunID)
}
