package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "reckon/internal/errors"
	"reckon/internal/importer"
	"reckon/internal/models"
	"reckon/internal/services"
)

// --- mock import service ---

type mockImportService struct {
	importFileFn func(ctx context.Context, src importer.TabularSource, accountName string, accountType models.AccountType) (*importer.ImportResult, error)
	reclassifyFn func(ctx context.Context, dryRun bool) (*importer.ReclassifyStats, error)
}

func (m *mockImportService) ImportFile(ctx context.Context, src importer.TabularSource, accountName string, accountType models.AccountType) (*importer.ImportResult, error) {
	if m.importFileFn != nil {
		return m.importFileFn(ctx, src, accountName, accountType)
	}
	return &importer.ImportResult{State: importer.StateReported}, nil
}

func (m *mockImportService) ImportFiles(ctx context.Context, paths []string, accountName string, accountType models.AccountType) ([]*importer.ImportResult, error) {
	return nil, nil
}

func (m *mockImportService) Reclassify(ctx context.Context, dryRun bool) (*importer.ReclassifyStats, error) {
	if m.reclassifyFn != nil {
		return m.reclassifyFn(ctx, dryRun)
	}
	return &importer.ReclassifyStats{}, nil
}

var _ services.ImportServicer = (*mockImportService)(nil)

func setupImportRouter(handler *ImportHandler) *gin.Engine {
	r := gin.New()
	r.POST("/imports", handler.ImportFile)
	r.POST("/imports/reclassify", handler.Reclassify)
	return r
}

func doMultipartRequest(t *testing.T, r *gin.Engine, fields map[string]string, fileName, fileContent string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := fw.Write([]byte(fileContent)); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	w.Close()

	req := httptest.NewRequest("POST", "/imports", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestImportHandler_ImportFile(t *testing.T) {
	t.Run("returns 200 with stats", func(t *testing.T) {
		var gotName string
		var gotType models.AccountType
		svc := &mockImportService{
			importFileFn: func(_ context.Context, src importer.TabularSource, accountName string, accountType models.AccountType) (*importer.ImportResult, error) {
				gotName = accountName
				gotType = accountType
				return &importer.ImportResult{
					File:  src.Info().Name,
					State: importer.StateReported,
					Stats: importer.ImportStats{RowsScanned: 2, Inserted: 2},
				}, nil
			},
		}
		r := setupImportRouter(NewImportHandler(svc))

		rec := doMultipartRequest(t, r,
			map[string]string{"account_name": "Checking", "account_type": "bank"},
			"june.csv", "Date,Description,Amount\n2024-06-01,A,-1.00\n2024-06-02,B,-2.00\n")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotName != "Checking" || gotType != models.AccountTypeBank {
			t.Errorf("expected Checking/bank, got %s/%s", gotName, gotType)
		}
		result := parseJSON(t, rec)
		res := result["result"].(map[string]interface{})
		if res["file"] != "june.csv" {
			t.Errorf("expected file june.csv, got %v", res["file"])
		}
	})

	t.Run("returns 400 without file", func(t *testing.T) {
		r := setupImportRouter(NewImportHandler(&mockImportService{}))

		rec := doMultipartRequest(t, r,
			map[string]string{"account_name": "Checking", "account_type": "bank"},
			"", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on bad account type", func(t *testing.T) {
		r := setupImportRouter(NewImportHandler(&mockImportService{}))

		rec := doMultipartRequest(t, r,
			map[string]string{"account_name": "Checking", "account_type": "offshore"},
			"june.csv", "Date,Description,Amount\n")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("propagates batch abort", func(t *testing.T) {
		svc := &mockImportService{
			importFileFn: func(context.Context, importer.TabularSource, string, models.AccountType) (*importer.ImportResult, error) {
				return &importer.ImportResult{State: importer.StateAborted},
					apperrors.WithDetails(apperrors.ErrBatchAborted, map[string]any{"error_rows": 11})
			},
		}
		r := setupImportRouter(NewImportHandler(svc))

		rec := doMultipartRequest(t, r,
			map[string]string{"account_name": "Checking", "account_type": "bank"},
			"june.csv", "Date,Description,Amount\n")

		if rec.Code != apperrors.ErrBatchAborted.StatusCode {
			t.Fatalf("expected %d, got %d", apperrors.ErrBatchAborted.StatusCode, rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BATCH_ABORTED")
	})
}

func TestImportHandler_Reclassify(t *testing.T) {
	t.Run("passes dry_run through", func(t *testing.T) {
		var gotDryRun bool
		svc := &mockImportService{
			reclassifyFn: func(_ context.Context, dryRun bool) (*importer.ReclassifyStats, error) {
				gotDryRun = dryRun
				return &importer.ReclassifyStats{Scanned: 10, Updated: 2}, nil
			},
		}
		r := setupImportRouter(NewImportHandler(svc))

		rec := doRequest(r, "POST", "/imports/reclassify?dry_run=true", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !gotDryRun {
			t.Error("expected dry_run to be passed to the service")
		}
	})

	t.Run("returns 400 on bad dry_run", func(t *testing.T) {
		r := setupImportRouter(NewImportHandler(&mockImportService{}))

		rec := doRequest(r, "POST", "/imports/reclassify?dry_run=perhaps", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
