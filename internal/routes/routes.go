package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/taskgig-backoffice/internal/handlers"
	"github.com/01moynul/taskgig-backoffice/internal/middleware"
)

// Options carries what the middleware chain needs besides the handlers.
type Options struct {
	CORSOrigin string
	Tokens     middleware.TokenValidator
	Users      middleware.UserFinder
	Limiter    *middleware.RateLimiter
	Logger     *slog.Logger
}

// CORSMiddleware tells the browser that the configured back-office origin
// may call us with credentials.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Allow ONLY the configured frontend
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		// 2. Allow standard security credentials
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		// 3. Allow the headers we actually use ("Authorization" for JWT tokens)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		// 4. Allow the HTTP methods we use in our API
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		// 5. Handle the "Preflight" OPTIONS request
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()

	// --- APPLY THE CORS GUARD ---
	// This must be the very first thing the router uses
	router.Use(CORSMiddleware(opts.CORSOrigin))
	router.Use(middleware.RequestLogger(opts.Logger), gin.Recovery())

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public, limited per client IP) ---
		v1.POST("/login", opts.Limiter.Middleware(), h.Login)
	}

	// --- Back-office Routes (Administrator or Manager) ---
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(opts.Tokens))
	admin.Use(middleware.StaffMiddleware(opts.Users))
	admin.Use(opts.Limiter.Middleware())
	{
		// Withdrawals
		admin.GET("/withdrawals", h.ListWithdrawals)
		admin.GET("/withdrawals/stats", h.GetWithdrawalStats)
		admin.POST("/withdrawals/:id/process", h.ProcessWithdrawal)
		admin.GET("/wallets/:userId", h.GetPayeeWallet)

		// Task validations
		admin.GET("/validations/pending", h.GetPendingValidations)
		admin.GET("/validations/stats", h.GetValidationStats)
		admin.POST("/validations/:id/approve", h.ApproveExecution)
		admin.POST("/validations/:id/reject", h.RejectExecution)
		admin.POST("/validations/bulk-approve", h.BulkApproveExecutions)
		admin.POST("/validations/bulk-reject", h.BulkRejectExecutions)

		// Reporting assistant
		admin.POST("/assistant", h.AskAssistant)
	}

	return router
}
