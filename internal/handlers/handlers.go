package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/taskgig-backoffice/internal/ai"
	"github.com/01moynul/taskgig-backoffice/internal/format"
	"github.com/01moynul/taskgig-backoffice/internal/models"
	"github.com/01moynul/taskgig-backoffice/internal/validations"
	"github.com/01moynul/taskgig-backoffice/internal/withdrawals"
)

// WithdrawalService is satisfied by *withdrawals.Service.
type WithdrawalService interface {
	Process(ctx context.Context, id int64, in withdrawals.ProcessInput) (models.WithdrawalRequest, error)
	List(ctx context.Context, f models.WithdrawalFilter) (models.WithdrawalPage, error)
	GetStats(ctx context.Context, f models.WithdrawalFilter) (models.WithdrawalStats, error)
}

// ValidationService is satisfied by *validations.Service.
type ValidationService interface {
	Approve(ctx context.Context, id int64, in validations.ApproveInput) error
	Reject(ctx context.Context, id int64, in validations.RejectInput) error
	BulkApprove(ctx context.Context, ids []int64, reviewerID int64) (int64, error)
	BulkReject(ctx context.Context, ids []int64, reason string, reviewerID int64) (int64, error)
	GetPendingTasks(ctx context.Context, f models.ExecutionFilter) (models.ExecutionPage, error)
	GetStats(ctx context.Context) (models.ValidationStats, error)
}

// UserFinder is satisfied by *store.Users.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// TokenIssuer is satisfied by *auth.Tokens.
type TokenIssuer interface {
	Generate(userID int64) (string, error)
}

// WalletReader is satisfied by *store.Wallets.
type WalletReader interface {
	Get(ctx context.Context, userID int64) (models.Wallet, error)
	RecentTransactions(ctx context.Context, userID int64, limit int) ([]models.WalletTransaction, error)
}

// Assistant is satisfied by *ai.Assistant.
type Assistant interface {
	Ask(ctx context.Context, question, role string) (ai.Answer, error)
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Withdrawals WithdrawalService
	Validations ValidationService
	Wallets     WalletReader
	Users       UserFinder
	Tokens      TokenIssuer
	Assistant   Assistant // nil when the assistant is disabled
	Logger      *slog.Logger
	Formatter   format.Formatter
}

// fail writes the {success:false, error} result with the status that
// matches err. Unknown errors are attached to the context for the request
// logger and reported generically.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, models.Result{Error: "Internal server error, please try again"})
		return
	}
	c.JSON(status, models.Result{Error: message(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.Result{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, withdrawals.ErrInvalidAction),
		errors.Is(err, withdrawals.ErrTransactionIDRequired),
		errors.Is(err, withdrawals.ErrReasonRequired),
		errors.Is(err, withdrawals.ErrInvalidStatus),
		errors.Is(err, validations.ErrReasonRequired),
		errors.Is(err, validations.ErrInvalidRating),
		errors.Is(err, validations.ErrInvalidBonus),
		errors.Is(err, validations.ErrNoExecutions):
		return http.StatusBadRequest
	case errors.Is(err, withdrawals.ErrNotFound),
		errors.Is(err, withdrawals.ErrWalletNotFound),
		errors.Is(err, validations.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, withdrawals.ErrAlreadyProcessed),
		errors.Is(err, withdrawals.ErrInsufficientFunds):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// message drops the "package: " prefix of a sentinel error.
func message(err error) string {
	msg := err.Error()
	if _, rest, ok := strings.Cut(msg, ": "); ok {
		return rest
	}
	return msg
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid id")
		return 0, false
	}
	return id, true
}

// actor is the authenticated staff member set by the auth middleware.
func actor(c *gin.Context) int64 {
	return c.GetInt64("userID")
}
