package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/taskgig-backoffice/internal/models"
)

// ChatInput defines the structure of the JSON request body.
type ChatInput struct {
	Message string `json:"message" binding:"required,max=2000"`
}

// AskAssistant is the handler for POST /v1/admin/assistant
func (h *Handlers) AskAssistant(c *gin.Context) {
	// 1. Disabled without a Gemini key or read-only pool
	if h.Assistant == nil {
		c.JSON(http.StatusServiceUnavailable, models.Result{Error: "The assistant is not configured"})
		return
	}

	// 2. Parse Input
	var input ChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	// 3. Ask, as the role set by StaffMiddleware
	answer, err := h.Assistant.Ask(c.Request.Context(), input.Message, c.GetString("userRole"))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, models.Result{Error: "The assistant could not answer, please try again"})
		return
	}

	// 4. Return the Answer
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"response":    answer.Text,
		"totalTokens": answer.TotalTokens,
		"queries":     answer.Queries,
	})
}
