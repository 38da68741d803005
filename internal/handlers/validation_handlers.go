package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/taskgig-backoffice/internal/models"
	"github.com/01moynul/taskgig-backoffice/internal/validations"
)

//
// --- Admin: Task Validation Handlers ---
//

// GetPendingValidations is the handler for GET /v1/admin/validations/pending
func (h *Handlers) GetPendingValidations(c *gin.Context) {
	var filter models.ExecutionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err.Error())
		return
	}

	page, err := h.Validations.GetPendingTasks(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetValidationStats is the handler for GET /v1/admin/validations/stats
func (h *Handlers) GetValidationStats(c *gin.Context) {
	stats, err := h.Validations.GetStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ApproveExecutionInput is the optional body of an approval.
type ApproveExecutionInput struct {
	Rating     *int   `json:"rating"`
	BonusCents *int64 `json:"bonusCents"`
	Notes      string `json:"notes"`
}

// ApproveExecution is the handler for POST /v1/admin/validations/:id/approve
func (h *Handlers) ApproveExecution(c *gin.Context) {
	// 1. --- Get ID & Bind Input ---
	id, ok := paramID(c)
	if !ok {
		return
	}

	// The body is optional: an empty POST (io.EOF) approves with no rating or bonus.
	var input ApproveExecutionInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err.Error())
		return
	}

	// 2. --- Approve ---
	err := h.Validations.Approve(c.Request.Context(), id, validations.ApproveInput{
		Rating:      input.Rating,
		BonusCents:  input.BonusCents,
		ReviewNotes: input.Notes,
		ReviewerID:  actor(c),
	})
	if err != nil {
		fail(c, err)
		return
	}

	// 3. --- Send Response ---
	c.JSON(http.StatusOK, models.Result{Success: true})
}

// RejectExecutionInput defines the JSON for a rejection.
type RejectExecutionInput struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

// RejectExecution is the handler for POST /v1/admin/validations/:id/reject
func (h *Handlers) RejectExecution(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var input RejectExecutionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	err := h.Validations.Reject(c.Request.Context(), id, validations.RejectInput{
		Reason:      input.Reason,
		ReviewNotes: input.Notes,
		ReviewerID:  actor(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Result{Success: true})
}

// BulkValidationInput defines the JSON for the bulk endpoints. Reason is
// only read by bulk-reject.
type BulkValidationInput struct {
	IDs    []int64 `json:"ids"`
	Reason string  `json:"reason"`
}

// BulkApproveExecutions is the handler for POST /v1/admin/validations/bulk-approve
func (h *Handlers) BulkApproveExecutions(c *gin.Context) {
	var input BulkValidationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	n, err := h.Validations.BulkApprove(c.Request.Context(), input.IDs, actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.BulkResult{Result: models.Result{Success: true}, Updated: n})
}

// BulkRejectExecutions is the handler for POST /v1/admin/validations/bulk-reject
func (h *Handlers) BulkRejectExecutions(c *gin.Context) {
	var input BulkValidationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	n, err := h.Validations.BulkReject(c.Request.Context(), input.IDs, input.Reason, actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.BulkResult{Result: models.Result{Success: true}, Updated: n})
}
