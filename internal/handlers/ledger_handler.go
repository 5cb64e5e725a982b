package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "reckon/internal/errors"
	"reckon/internal/pagination"
	"reckon/internal/services"
)

// LedgerHandler handles ledger entry queries and manual corrections.
type LedgerHandler struct {
	ledgerService services.LedgerServicer
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerService services.LedgerServicer) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// SetTransferFlagRequest represents the request payload for manually
// correcting an entry's transfer classification.
type SetTransferFlagRequest struct {
	IsTransfer *bool `json:"is_transfer" binding:"required"`
}

// ListEntries handles the filtered, paginated retrieval of ledger entries.
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseEntryFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.ledgerService.GetEntries(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetEntry handles the retrieval of a single ledger entry.
func (h *LedgerHandler) GetEntry(c *gin.Context) {
	entryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.ledgerService.GetEntryByID(entryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// SetTransferFlag handles a manual correction of an entry's transfer
// classification.
func (h *LedgerHandler) SetTransferFlag(c *gin.Context) {
	entryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetTransferFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	entry, err := h.ledgerService.SetTransferFlag(entryID, *req.IsTransfer)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// parseEntryFilter reads the optional entry filter query parameters.
func parseEntryFilter(c *gin.Context) (services.EntryFilter, error) {
	var filter services.EntryFilter

	if raw := c.Query("account_id"); raw != "" {
		if _, err := uuid.Parse(raw); err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid account_id")
		}
		filter.AccountID = &raw
	}
	if raw := c.Query("from"); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.FromDate = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.ToDate = &to
	}
	if raw := c.Query("is_transfer"); raw != "" {
		isTransfer, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid is_transfer")
		}
		filter.IsTransfer = &isTransfer
	}
	if raw := c.Query("category"); raw != "" {
		filter.Category = &raw
	}

	return filter, nil
}
