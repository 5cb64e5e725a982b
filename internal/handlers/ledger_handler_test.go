package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "reckon/internal/errors"
	"reckon/internal/models"
	"reckon/internal/pagination"
	"reckon/internal/services"
)

const testEntryID = "01900000-0000-7000-8000-00000000000e"

type mockLedgerService struct {
	getEntriesFn      func(filter services.EntryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.LedgerEntry], error)
	getEntryByIDFn    func(entryID string) (*models.LedgerEntry, error)
	setTransferFlagFn func(entryID string, isTransfer bool) (*models.LedgerEntry, error)
}

var _ services.LedgerServicer = (*mockLedgerService)(nil)

func (m *mockLedgerService) GetEntries(filter services.EntryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.LedgerEntry], error) {
	if m.getEntriesFn != nil {
		return m.getEntriesFn(filter, page)
	}
	return &pagination.PageResponse[models.LedgerEntry]{Data: []models.LedgerEntry{}}, nil
}

func (m *mockLedgerService) GetEntryByID(entryID string) (*models.LedgerEntry, error) {
	if m.getEntryByIDFn != nil {
		return m.getEntryByIDFn(entryID)
	}
	return nil, apperrors.ErrEntryNotFound
}

func (m *mockLedgerService) SetTransferFlag(entryID string, isTransfer bool) (*models.LedgerEntry, error) {
	if m.setTransferFlagFn != nil {
		return m.setTransferFlagFn(entryID, isTransfer)
	}
	return nil, apperrors.ErrEntryNotFound
}

func setupLedgerRouter(handler *LedgerHandler) *gin.Engine {
	r := gin.New()
	r.GET("/entries", handler.ListEntries)
	r.GET("/entries/:id", handler.GetEntry)
	r.PATCH("/entries/:id/transfer", handler.SetTransferFlag)
	return r
}

func TestListEntries(t *testing.T) {
	t.Run("passes filters through to the service", func(t *testing.T) {
		var gotFilter services.EntryFilter
		svc := &mockLedgerService{
			getEntriesFn: func(filter services.EntryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.LedgerEntry], error) {
				gotFilter = filter
				return &pagination.PageResponse[models.LedgerEntry]{Data: []models.LedgerEntry{}}, nil
			},
		}
		r := setupLedgerRouter(NewLedgerHandler(svc))

		rec := doRequest(r, "GET",
			"/entries?account_id="+testAccountID+"&from=2024-06-01&to=2024-06-30&is_transfer=true&category=Groceries", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFilter.AccountID == nil || *gotFilter.AccountID != testAccountID {
			t.Errorf("expected account filter %q, got %v", testAccountID, gotFilter.AccountID)
		}
		if gotFilter.FromDate == nil || !gotFilter.FromDate.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected from date 2024-06-01, got %v", gotFilter.FromDate)
		}
		if gotFilter.IsTransfer == nil || !*gotFilter.IsTransfer {
			t.Errorf("expected is_transfer filter true, got %v", gotFilter.IsTransfer)
		}
		if gotFilter.Category == nil || *gotFilter.Category != "Groceries" {
			t.Errorf("expected category filter Groceries, got %v", gotFilter.Category)
		}
	})

	t.Run("rejects malformed account_id", func(t *testing.T) {
		r := setupLedgerRouter(NewLedgerHandler(&mockLedgerService{}))

		rec := doRequest(r, "GET", "/entries?account_id=not-a-uuid", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("rejects malformed is_transfer", func(t *testing.T) {
		r := setupLedgerRouter(NewLedgerHandler(&mockLedgerService{}))

		rec := doRequest(r, "GET", "/entries?is_transfer=maybe", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		r := setupLedgerRouter(NewLedgerHandler(&mockLedgerService{}))

		rec := doRequest(r, "GET", "/entries?from=June+1st", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestGetEntry(t *testing.T) {
	t.Run("returns the entry", func(t *testing.T) {
		svc := &mockLedgerService{
			getEntryByIDFn: func(entryID string) (*models.LedgerEntry, error) {
				return &models.LedgerEntry{
					Base:        models.Base{ID: entryID},
					AccountID:   testAccountID,
					Description: "Grocery Store",
					Amount:      decimal.RequireFromString("-82.19"),
				}, nil
			},
		}
		r := setupLedgerRouter(NewLedgerHandler(svc))

		rec := doRequest(r, "GET", "/entries/"+testEntryID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		entry, ok := result["entry"].(map[string]interface{})
		if !ok {
			t.Fatalf("expected entry object in response, got: %v", result)
		}
		if entry["description"] != "Grocery Store" {
			t.Errorf("expected description Grocery Store, got %v", entry["description"])
		}
	})

	t.Run("returns 404 when the entry does not exist", func(t *testing.T) {
		r := setupLedgerRouter(NewLedgerHandler(&mockLedgerService{}))

		rec := doRequest(r, "GET", "/entries/"+testEntryID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ENTRY_NOT_FOUND")
	})

	t.Run("rejects malformed entry id", func(t *testing.T) {
		r := setupLedgerRouter(NewLedgerHandler(&mockLedgerService{}))

		rec := doRequest(r, "GET", "/entries/not-a-uuid", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestSetTransferFlag(t *testing.T) {
	t.Run("flags an entry as a transfer", func(t *testing.T) {
		var gotFlag bool
		svc := &mockLedgerService{
			setTransferFlagFn: func(entryID string, isTransfer bool) (*models.LedgerEntry, error) {
				gotFlag = isTransfer
				return &models.LedgerEntry{
					Base:       models.Base{ID: entryID},
					AccountID:  testAccountID,
					IsTransfer: isTransfer,
				}, nil
			},
		}
		r := setupLedgerRouter(NewLedgerHandler(svc))

		rec := doRequest(r, "PATCH", "/entries/"+testEntryID+"/transfer", `{"is_transfer":true}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !gotFlag {
			t.Error("expected the service to receive is_transfer=true")
		}
	})

	t.Run("accepts clearing the flag", func(t *testing.T) {
		var gotFlag = true
		svc := &mockLedgerService{
			setTransferFlagFn: func(entryID string, isTransfer bool) (*models.LedgerEntry, error) {
				gotFlag = isTransfer
				return &models.LedgerEntry{Base: models.Base{ID: entryID}}, nil
			},
		}
		r := setupLedgerRouter(NewLedgerHandler(svc))

		rec := doRequest(r, "PATCH", "/entries/"+testEntryID+"/transfer", `{"is_transfer":false}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFlag {
			t.Error("expected the service to receive is_transfer=false")
		}
	})

	t.Run("rejects a missing is_transfer field", func(t *testing.T) {
		r := setupLedgerRouter(NewLedgerHandler(&mockLedgerService{}))

		rec := doRequest(r, "PATCH", "/entries/"+testEntryID+"/transfer", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}
