package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "reckon/internal/errors"
	"reckon/internal/services"
)

// OverrideHandler handles balance override requests.
type OverrideHandler struct {
	overrideService services.OverrideServicer
}

// NewOverrideHandler creates a new OverrideHandler.
func NewOverrideHandler(overrideService services.OverrideServicer) *OverrideHandler {
	return &OverrideHandler{overrideService: overrideService}
}

// SetOverrideRequest represents the request payload for anchoring an
// account balance at a date.
type SetOverrideRequest struct {
	OverrideDate string `json:"override_date" binding:"required"`
	Balance      string `json:"balance" binding:"required"`
	Notes        string `json:"notes" binding:"max=500"`
}

// SetOverride handles recording a known-good balance for an account.
func (h *OverrideHandler) SetOverride(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	overrideDate, err := parseDate(req.OverrideDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := decimal.NewFromString(req.Balance)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid balance: "+req.Balance))
		return
	}

	override, err := h.overrideService.SetOverride(accountID, overrideDate, balance, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"override": override})
}

// ListOverrides handles the retrieval of an account's overrides, most
// recent first.
func (h *OverrideHandler) ListOverrides(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	overrides, err := h.overrideService.ListOverrides(accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"overrides": overrides})
}

// DeleteOverride handles removing a balance override.
func (h *OverrideHandler) DeleteOverride(c *gin.Context) {
	overrideID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.overrideService.DeleteOverride(overrideID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
