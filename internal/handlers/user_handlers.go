package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/taskgig-backoffice/internal/auth"
	"github.com/01moynul/taskgig-backoffice/internal/models"
	"github.com/01moynul/taskgig-backoffice/internal/store"
)

// --- Staff Login ---

// LoginInput is the body of POST /v1/login.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /v1/login
// It checks the password and hands back a token. Only administrators and
// managers may log into the back-office.
func (h *Handlers) Login(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	// 2. --- Find User ---
	user, err := h.Users.FindByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, models.Result{Error: "Invalid email or password"})
			return
		}
		fail(c, err)
		return
	}

	// 3. --- Check Password ---
	if err := auth.CheckPassword(user.PasswordHash, input.Password); err != nil {
		c.JSON(http.StatusUnauthorized, models.Result{Error: "Invalid email or password"})
		return
	}

	// 4. --- Check Role ---
	if !user.IsStaff() {
		c.JSON(http.StatusForbidden, models.Result{Error: "Access denied: Manager or Admin role required"})
		return
	}

	// 5. --- Issue Token ---
	token, err := h.Tokens.Generate(user.ID)
	if err != nil {
		fail(c, err)
		return
	}

	h.Logger.InfoContext(c.Request.Context(), "staff login", "user_id", user.ID, "role", user.Role)

	// 6. --- Send Success Response ---
	// The 'json:"-"' tag keeps the password hash out of the body.
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    user,
	})
}
