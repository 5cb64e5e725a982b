package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "reckon/internal/errors"
	"reckon/internal/models"
	"reckon/internal/services"
)

const testOverrideID = "01900000-0000-7000-8000-00000000000f"

type mockOverrideService struct {
	setOverrideFn    func(accountID string, overrideDate time.Time, balance decimal.Decimal, notes string) (*models.BalanceOverride, error)
	listOverridesFn  func(accountID string) ([]models.BalanceOverride, error)
	deleteOverrideFn func(overrideID string) error
}

var _ services.OverrideServicer = (*mockOverrideService)(nil)

func (m *mockOverrideService) SetOverride(accountID string, overrideDate time.Time, balance decimal.Decimal, notes string) (*models.BalanceOverride, error) {
	if m.setOverrideFn != nil {
		return m.setOverrideFn(accountID, overrideDate, balance, notes)
	}
	return nil, apperrors.ErrAccountNotFound
}

func (m *mockOverrideService) ListOverrides(accountID string) ([]models.BalanceOverride, error) {
	if m.listOverridesFn != nil {
		return m.listOverridesFn(accountID)
	}
	return []models.BalanceOverride{}, nil
}

func (m *mockOverrideService) DeleteOverride(overrideID string) error {
	if m.deleteOverrideFn != nil {
		return m.deleteOverrideFn(overrideID)
	}
	return nil
}

func setupOverrideRouter(handler *OverrideHandler) *gin.Engine {
	r := gin.New()
	r.POST("/accounts/:id/overrides", handler.SetOverride)
	r.GET("/accounts/:id/overrides", handler.ListOverrides)
	r.DELETE("/overrides/:id", handler.DeleteOverride)
	return r
}

func TestSetOverride(t *testing.T) {
	t.Run("anchors a balance at a date", func(t *testing.T) {
		svc := &mockOverrideService{
			setOverrideFn: func(accountID string, overrideDate time.Time, balance decimal.Decimal, notes string) (*models.BalanceOverride, error) {
				if accountID != testAccountID {
					t.Errorf("expected account ID %q, got %q", testAccountID, accountID)
				}
				if !overrideDate.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
					t.Errorf("expected override date 2024-06-01, got %v", overrideDate)
				}
				if !balance.Equal(decimal.RequireFromString("5000.00")) {
					t.Errorf("expected balance 5000.00, got %s", balance)
				}
				return &models.BalanceOverride{
					Base:         models.Base{ID: testOverrideID},
					AccountID:       accountID,
					OverrideDate:    overrideDate,
					OverrideBalance: balance,
					Notes:           notes,
				}, nil
			},
		}
		r := setupOverrideRouter(NewOverrideHandler(svc))

		rec := doRequest(r, "POST", "/accounts/"+testAccountID+"/overrides",
			`{"override_date":"2024-06-01","balance":"5000.00","notes":"statement"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		override, ok := result["override"].(map[string]interface{})
		if !ok {
			t.Fatalf("expected override object in response, got: %v", result)
		}
		if override["notes"] != "statement" {
			t.Errorf("expected notes to round-trip, got %v", override["notes"])
		}
	})

	t.Run("rejects a malformed balance", func(t *testing.T) {
		r := setupOverrideRouter(NewOverrideHandler(&mockOverrideService{}))

		rec := doRequest(r, "POST", "/accounts/"+testAccountID+"/overrides",
			`{"override_date":"2024-06-01","balance":"five grand"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("rejects a malformed date", func(t *testing.T) {
		r := setupOverrideRouter(NewOverrideHandler(&mockOverrideService{}))

		rec := doRequest(r, "POST", "/accounts/"+testAccountID+"/overrides",
			`{"override_date":"06/01/2024","balance":"5000.00"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		r := setupOverrideRouter(NewOverrideHandler(&mockOverrideService{}))

		rec := doRequest(r, "POST", "/accounts/"+testAccountID+"/overrides", `{"notes":"no anchor"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("propagates a missing account", func(t *testing.T) {
		r := setupOverrideRouter(NewOverrideHandler(&mockOverrideService{}))

		rec := doRequest(r, "POST", "/accounts/"+testAccountID+"/overrides",
			`{"override_date":"2024-06-01","balance":"5000.00"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_NOT_FOUND")
	})
}

func TestListOverrides(t *testing.T) {
	svc := &mockOverrideService{
		listOverridesFn: func(accountID string) ([]models.BalanceOverride, error) {
			return []models.BalanceOverride{
				{Base: models.Base{ID: testOverrideID}, AccountID: accountID, OverrideBalance: decimal.RequireFromString("5000.00")},
			}, nil
		},
	}
	r := setupOverrideRouter(NewOverrideHandler(svc))

	rec := doRequest(r, "GET", "/accounts/"+testAccountID+"/overrides", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	overrides, ok := result["overrides"].([]interface{})
	if !ok {
		t.Fatalf("expected overrides list in response, got: %v", result)
	}
	if len(overrides) != 1 {
		t.Errorf("expected 1 override, got %d", len(overrides))
	}
}

func TestDeleteOverride(t *testing.T) {
	t.Run("removes an override", func(t *testing.T) {
		var gotID string
		svc := &mockOverrideService{
			deleteOverrideFn: func(overrideID string) error {
				gotID = overrideID
				return nil
			},
		}
		r := setupOverrideRouter(NewOverrideHandler(svc))

		rec := doRequest(r, "DELETE", "/overrides/"+testOverrideID, "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", rec.Code)
		}
		if gotID != testOverrideID {
			t.Errorf("expected delete of %q, got %q", testOverrideID, gotID)
		}
	})

	t.Run("returns 404 when the override does not exist", func(t *testing.T) {
		svc := &mockOverrideService{
			deleteOverrideFn: func(overrideID string) error {
				return apperrors.ErrOverrideNotFound
			},
		}
		r := setupOverrideRouter(NewOverrideHandler(svc))

		rec := doRequest(r, "DELETE", "/overrides/"+testOverrideID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "OVERRIDE_NOT_FOUND")
	})
}
