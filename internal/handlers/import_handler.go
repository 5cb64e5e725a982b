package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "reckon/internal/errors"
	"reckon/internal/importer"
	"reckon/internal/models"
	"reckon/internal/services"
)

// ImportHandler handles statement uploads and batch reclassification.
type ImportHandler struct {
	importService services.ImportServicer
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService services.ImportServicer) *ImportHandler {
	return &ImportHandler{importService: importService}
}

// ImportRequest represents the multipart form fields accompanying an
// uploaded statement file.
type ImportRequest struct {
	AccountName string `form:"account_name" binding:"required,min=1,max=100"`
	AccountType string `form:"account_type" binding:"required,account_type"`
}

// ImportFile handles a multipart statement upload. The file is streamed
// through the pipeline; on a threshold abort the partial statistics are
// returned alongside the error.
func (h *ImportHandler) ImportFile(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	src := importer.NewCSVSourceFromReader(file, fileHeader.Filename, fileHeader.Size)
	result, err := h.importService.ImportFile(c.Request.Context(), src, req.AccountName, models.AccountType(req.AccountType))
	if err != nil {
		result.Error = err.Error()
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// Reclassify handles re-running transfer classification over the full
// ledger. Pass dry_run=true to preview without writing.
func (h *ImportHandler) Reclassify(c *gin.Context) {
	dryRun := false
	if raw := c.Query("dry_run"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid dry_run"))
			return
		}
		dryRun = parsed
	}

	stats, err := h.importService.Reclassify(c.Request.Context(), dryRun)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
