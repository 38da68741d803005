package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/taskgig-backoffice/internal/models"
	"github.com/01moynul/taskgig-backoffice/internal/withdrawals"
)

//
// --- Admin: Withdrawal Handlers ---
//

// ListWithdrawals is the handler for GET /v1/admin/withdrawals
// It returns one filtered page of requests with payee statistics and the
// KPI strip for the same filter.
func (h *Handlers) ListWithdrawals(c *gin.Context) {
	// 1. --- Bind Query ---
	var filter models.WithdrawalFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err.Error())
		return
	}

	// 2. --- Query ---
	page, err := h.Withdrawals.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}

	// 3. --- Send Response ---
	c.JSON(http.StatusOK, page)
}

// GetWithdrawalStats is the handler for GET /v1/admin/withdrawals/stats
func (h *Handlers) GetWithdrawalStats(c *gin.Context) {
	var filter models.WithdrawalFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err.Error())
		return
	}

	stats, err := h.Withdrawals.GetStats(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ProcessWithdrawalInput defines the JSON for approving, rejecting or
// holding a request.
type ProcessWithdrawalInput struct {
	Action                string `json:"action" binding:"required"`
	ExternalTransactionID string `json:"externalTransactionId"`
	RejectionReason       string `json:"rejectionReason"`
	Notes                 string `json:"notes"`
}

// ProcessWithdrawal is the handler for POST /v1/admin/withdrawals/:id/process
func (h *Handlers) ProcessWithdrawal(c *gin.Context) {
	// 1. --- Get IDs & Bind Input ---
	id, ok := paramID(c)
	if !ok {
		return
	}

	var input ProcessWithdrawalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	// 2. --- Apply Decision ---
	req, err := h.Withdrawals.Process(c.Request.Context(), id, withdrawals.ProcessInput{
		Action:                models.WithdrawalAction(input.Action),
		ExternalTransactionID: input.ExternalTransactionID,
		RejectionReason:       input.RejectionReason,
		Notes:                 input.Notes,
		ProcessorID:           actor(c),
	})
	if err != nil {
		fail(c, err)
		return
	}

	// 3. --- Send Response ---
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"withdrawal": req,
	})
}
