package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/taskgig-backoffice/internal/models"
	"github.com/01moynul/taskgig-backoffice/internal/store"
)

// Context keys set by the middleware chain.
const (
	UserIDKey    = "userID"
	UserRoleKey  = "userRole"
	RequestIDKey = "requestID"
)

// TokenValidator is satisfied by *auth.Tokens.
type TokenValidator interface {
	Validate(token string) (int64, error)
}

// UserFinder is satisfied by *store.Users.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (models.User, error)
}

// AuthMiddleware is the "security guard": it requires a valid Bearer token
// and puts the user id in the context.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.Result{Error: "Authorization header required"})
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || scheme != "Bearer" || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.Result{Error: "Invalid token format (must be Bearer)"})
			return
		}

		// 2. --- Validate Token ---
		userID, err := tokens.Validate(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.Result{Error: "Invalid or expired token"})
			return
		}

		// 3. --- Success ---
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// StaffMiddleware must run after AuthMiddleware. It re-reads the user's
// role on every request and lets only administrators and managers through.
func StaffMiddleware(users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get userID from AuthMiddleware
		userID := c.GetInt64(UserIDKey)
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.Result{Error: "User ID not found in context (AuthMiddleware must run first)"})
			return
		}

		// 2. Query DB for user's role
		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, models.Result{Error: "Invalid user"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.Result{Error: "Database error checking role"})
			return
		}

		// 3. Check permission
		if !user.IsStaff() {
			c.AbortWithStatusJSON(http.StatusForbidden, models.Result{Error: "Access denied: Manager or Admin role required"})
			return
		}

		// 4. Success! Add role to context and proceed.
		c.Set(UserRoleKey, user.Role)
		c.Next()
	}
}
