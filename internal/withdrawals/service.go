// Package withdrawals applies administrator decisions to payout requests and
// debits the payee's wallet when a request is approved.
package withdrawals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"

	"github.com/01moynul/taskgig-backoffice/internal/format"
	"github.com/01moynul/taskgig-backoffice/internal/models"
)

var (
	ErrNotFound              = errors.New("withdrawals: not found")
	ErrWalletNotFound        = errors.New("withdrawals: wallet not found")
	ErrAlreadyProcessed      = errors.New("withdrawals: request is not pending")
	ErrInvalidAction         = errors.New("withdrawals: action must be approve, reject or hold")
	ErrTransactionIDRequired = errors.New("withdrawals: external transaction id is required to approve")
	ErrReasonRequired        = errors.New("withdrawals: rejection reason is required to reject")
	ErrInsufficientFunds     = errors.New("withdrawals: wallet balance is lower than the requested amount")
	ErrInvalidStatus         = errors.New("withdrawals: status must be pending, approved, rejected or completed")
)

// Store is the record store the service reads and writes through.
type Store interface {
	// RunInTx runs fn inside one database transaction. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
	List(ctx context.Context, f models.WithdrawalFilter) ([]models.WithdrawalListItem, int, error)
	StatRows(ctx context.Context, f models.WithdrawalFilter) ([]models.WithdrawalStatRow, error)
}

// Tx is the transaction-scoped half of Store.
type Tx interface {
	// GetForUpdate reads and locks one request. Returns ErrNotFound.
	GetForUpdate(ctx context.Context, id int64) (models.WithdrawalRequest, error)
	ApplyDecision(ctx context.Context, id int64, d models.WithdrawalDecision) error
	// Debit subtracts amountCents from the user's wallet and records a ledger
	// entry, returning the new balance. Without overdraft the debit only
	// happens when the balance covers it, otherwise ErrInsufficientFunds.
	Debit(ctx context.Context, userID, amountCents int64, allowOverdraft bool, memo string) (int64, error)
}

// Options tune the service. Zero values are replaced by defaults.
type Options struct {
	AllowOverdraft  bool
	DefaultPageSize int
	MaxPageSize     int
	// Location is the timezone the from/to dates of a filter are read in.
	Location  *time.Location
	Formatter format.Formatter
	Now       func() time.Time
}

// Service is the withdrawal lifecycle.
type Service struct {
	store  Store
	logger *slog.Logger
	opts   Options
}

// NewService wires a Service.
func NewService(store Store, logger *slog.Logger, opts Options) *Service {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 20
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 100
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: store, logger: logger, opts: opts}
}

// ProcessInput carries one administrator decision.
type ProcessInput struct {
	Action                models.WithdrawalAction
	ExternalTransactionID string
	RejectionReason       string
	Notes                 string
	ProcessorID           int64
}

func (in ProcessInput) validate() error {
	if !in.Action.Valid() {
		return ErrInvalidAction
	}
	if in.Action == models.ActionApprove && strings.TrimSpace(in.ExternalTransactionID) == "" {
		return ErrTransactionIDRequired
	}
	if in.Action == models.ActionReject && strings.TrimSpace(in.RejectionReason) == "" {
		return ErrReasonRequired
	}
	return nil
}

// Process applies an approve, reject or hold decision to a pending request.
// On approve the decision and the wallet debit commit together or not at all.
func (s *Service) Process(ctx context.Context, id int64, in ProcessInput) (models.WithdrawalRequest, error) {
	if err := in.validate(); err != nil {
		return models.WithdrawalRequest{}, err
	}

	now := s.opts.Now()
	decision := models.WithdrawalDecision{
		ProcessedBy: in.ProcessorID,
		ProcessedAt: now,
		AdminNotes:  optional(in.Notes),
	}
	switch in.Action {
	case models.ActionApprove:
		decision.Status = models.WithdrawalApproved
		decision.ExternalTransactionID = optional(in.ExternalTransactionID)
	case models.ActionReject:
		reason := strings.TrimSpace(in.RejectionReason)
		code := ReasonCode(reason)
		decision.Status = models.WithdrawalRejected
		decision.RejectionReason = &reason
		decision.RejectionCode = &code
	case models.ActionHold:
		decision.Status = models.WithdrawalPending
	}

	var (
		updated    models.WithdrawalRequest
		newBalance int64
	)
	err := s.store.RunInTx(ctx, func(tx Tx) error {
		// 1. --- Lock the request and check it is still pending ---
		req, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req.Status != models.WithdrawalPending {
			return ErrAlreadyProcessed
		}

		// 2. --- Record the decision ---
		if err := tx.ApplyDecision(ctx, id, decision); err != nil {
			return err
		}
		updated = applyDecision(req, decision)

		// 3. --- Debit the payee on approval ---
		if in.Action != models.ActionApprove {
			return nil
		}
		memo := fmt.Sprintf("Withdrawal #%d (ref %s)", req.ID, in.ExternalTransactionID)
		newBalance, err = tx.Debit(ctx, req.UserID, req.AmountCents, s.opts.AllowOverdraft, memo)
		return err
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.ErrorContext(ctx, "withdrawal processing failed",
				"withdrawal_id", id, "action", in.Action, "error", err)
		}
		return models.WithdrawalRequest{}, err
	}

	attrs := []any{
		"withdrawal_id", id,
		"action", in.Action,
		"processor_id", in.ProcessorID,
		"user_id", updated.UserID,
		"amount_cents", updated.AmountCents,
	}
	switch in.Action {
	case models.ActionApprove:
		attrs = append(attrs, "balance_after_cents", newBalance)
		if newBalance < 0 {
			s.logger.WarnContext(ctx, "withdrawal approved into overdraft", attrs...)
		}
	case models.ActionHold:
		s.logger.InfoContext(ctx, "withdrawal put on hold", attrs...)
		return updated, nil
	}
	s.logger.InfoContext(ctx, "withdrawal processed", attrs...)
	return updated, nil
}

// List returns one page of requests with per-row payee statistics and the
// stats strip for the same filter.
func (s *Service) List(ctx context.Context, f models.WithdrawalFilter) (models.WithdrawalPage, error) {
	if f.Status != "" && !f.Status.Valid() {
		return models.WithdrawalPage{}, ErrInvalidStatus
	}
	f = s.normalize(f)

	var (
		items []models.WithdrawalListItem
		total int
		rows  []models.WithdrawalStatRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, total, err = s.store.List(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.store.StatRows(gctx, statsFilter(f))
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "withdrawal list failed", "error", err)
		return models.WithdrawalPage{}, err
	}

	for i := range items {
		items[i].ValidationRate = format.Percent(items[i].CompletedTasks, items[i].TotalTasks)
		items[i].AmountDisplay = s.opts.Formatter.Amount(items[i].AmountCents)
		items[i].StatusLabel = items[i].Status.Label()
	}
	if items == nil {
		items = []models.WithdrawalListItem{}
	}

	return models.WithdrawalPage{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		TotalPages: totalPages(total, f.PageSize),
		Stats:      Summarize(rows),
	}, nil
}

// GetStats aggregates requests matching f. The status filter is ignored.
func (s *Service) GetStats(ctx context.Context, f models.WithdrawalFilter) (models.WithdrawalStats, error) {
	f.From = dateIn(f.From, s.opts.Location)
	f.To = dateIn(f.To, s.opts.Location)

	rows, err := s.store.StatRows(ctx, statsFilter(f))
	if err != nil {
		s.logger.ErrorContext(ctx, "withdrawal stats failed", "error", err)
		return models.WithdrawalStats{}, err
	}
	return Summarize(rows), nil
}

func (s *Service) normalize(f models.WithdrawalFilter) models.WithdrawalFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = s.opts.DefaultPageSize
	}
	if f.PageSize > s.opts.MaxPageSize {
		f.PageSize = s.opts.MaxPageSize
	}
	if f.SortBy == "" {
		f.SortBy = "requested_at"
	}
	if f.SortOrder == "" {
		f.SortOrder = "desc"
	}
	f.From = dateIn(f.From, s.opts.Location)
	f.To = dateIn(f.To, s.opts.Location)
	return f
}

// ReasonCode is the slug stored next to a free-text rejection reason.
func ReasonCode(reason string) string {
	return slug.Make(reason)
}

func statsFilter(f models.WithdrawalFilter) models.WithdrawalFilter {
	f.Status = ""
	return f
}

func applyDecision(req models.WithdrawalRequest, d models.WithdrawalDecision) models.WithdrawalRequest {
	req.Status = d.Status
	req.ProcessedBy = &d.ProcessedBy
	processedAt := d.ProcessedAt
	req.ProcessedAt = &processedAt
	if d.ExternalTransactionID != nil {
		req.ExternalTransactionID = d.ExternalTransactionID
	}
	if d.RejectionReason != nil {
		req.RejectionReason = d.RejectionReason
		req.RejectionCode = d.RejectionCode
	}
	if d.AdminNotes != nil {
		req.AdminNotes = d.AdminNotes
	}
	return req
}

func totalPages(total, pageSize int) int {
	if total == 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// dateIn keeps the calendar date of t and places it at midnight in loc.
func dateIn(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return &day
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyProcessed) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrWalletNotFound)
}
