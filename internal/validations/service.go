// Package validations records review decisions on submitted task executions.
package validations

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/01moynul/taskgig-backoffice/internal/format"
	"github.com/01moynul/taskgig-backoffice/internal/models"
)

var (
	ErrNotFound       = errors.New("validations: execution not found")
	ErrReasonRequired = errors.New("validations: rejection reason is required")
	ErrInvalidRating  = errors.New("validations: rating must be between 1 and 5")
	ErrInvalidBonus   = errors.New("validations: bonus cannot be negative")
	ErrNoExecutions   = errors.New("validations: no execution ids given")
)

// Store is the record store the review queue reads and writes through.
type Store interface {
	// UpdateExecutions applies review to every id in one statement and
	// returns how many rows matched.
	UpdateExecutions(ctx context.Context, ids []int64, review models.ExecutionReview) (int64, error)
	ListPending(ctx context.Context, f models.ExecutionFilter) ([]models.PendingExecution, int, error)
	// StatRows returns every submitted execution plus every execution
	// reviewed at or after since.
	StatRows(ctx context.Context, since time.Time) ([]models.ExecutionStatRow, error)
}

// Options tune the service. Zero values are replaced by defaults.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	Location        *time.Location
	Formatter       format.Formatter
	Now             func() time.Time
}

// Service is the validation lifecycle.
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

// ApproveInput is the optional payload of an approval.
type ApproveInput struct {
	Rating      *int
	BonusCents  *int64
	ReviewNotes string
	ReviewerID  int64
}

// RejectInput is the payload of a rejection.
type RejectInput struct {
	Reason      string
	ReviewNotes string
	ReviewerID  int64
}

// Approve marks one execution completed.
func (s *Service) Approve(ctx context.Context, id int64, in ApproveInput) error {
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return ErrInvalidRating
	}
	if in.BonusCents != nil && *in.BonusCents < 0 {
		return ErrInvalidBonus
	}

	review := models.ExecutionReview{
		Status:      models.ExecutionCompleted,
		ReviewerID:  in.ReviewerID,
		ReviewedAt:  s.opts.Now(),
		Rating:      in.Rating,
		BonusCents:  in.BonusCents,
		ReviewNotes: optional(in.ReviewNotes),
	}
	return s.updateOne(ctx, id, review)
}

// Reject marks one execution rejected. Rejecting again overwrites the
// previous reason and notes.
func (s *Service) Reject(ctx context.Context, id int64, in RejectInput) error {
	review, err := s.rejection(in.Reason, in.ReviewNotes, in.ReviewerID)
	if err != nil {
		return err
	}
	return s.updateOne(ctx, id, review)
}

// BulkApprove marks every execution in ids completed in one batched write.
func (s *Service) BulkApprove(ctx context.Context, ids []int64, reviewerID int64) (int64, error) {
	review := models.ExecutionReview{
		Status:     models.ExecutionCompleted,
		ReviewerID: reviewerID,
		ReviewedAt: s.opts.Now(),
	}
	return s.updateMany(ctx, ids, review)
}

// BulkReject rejects every execution in ids with one shared reason.
func (s *Service) BulkReject(ctx context.Context, ids []int64, reason string, reviewerID int64) (int64, error) {
	review, err := s.rejection(reason, "", reviewerID)
	if err != nil {
		return 0, err
	}
	return s.updateMany(ctx, ids, review)
}

// GetPendingTasks returns one page of the submitted-executions queue.
func (s *Service) GetPendingTasks(ctx context.Context, f models.ExecutionFilter) (models.ExecutionPage, error) {
	f = s.normalize(f)

	items, total, err := s.store.ListPending(ctx, f)
	if err != nil {
		s.logger.ErrorContext(ctx, "pending executions query failed", "error", err)
		return models.ExecutionPage{}, err
	}
	for i := range items {
		items[i].RewardDisplay = s.opts.Formatter.Amount(items[i].RewardCents)
		items[i].StatusLabel = items[i].Status.Label()
	}
	if items == nil {
		items = []models.PendingExecution{}
	}

	pages := 0
	if total > 0 {
		pages = (total + f.PageSize - 1) / f.PageSize
	}
	return models.ExecutionPage{Items: items, Total: total, Page: f.Page, TotalPages: pages}, nil
}

// GetStats builds the review KPI strip for the current day.
func (s *Service) GetStats(ctx context.Context) (models.ValidationStats, error) {
	dayStart := StartOfDay(s.opts.Now(), s.opts.Location)

	rows, err := s.store.StatRows(ctx, dayStart)
	if err != nil {
		s.logger.ErrorContext(ctx, "validation stats query failed", "error", err)
		return models.ValidationStats{}, err
	}
	return Summarize(rows, dayStart), nil
}

func (s *Service) rejection(reason, notes string, reviewerID int64) (models.ExecutionReview, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.ExecutionReview{}, ErrReasonRequired
	}
	code := slug.Make(reason)
	return models.ExecutionReview{
		Status:          models.ExecutionRejected,
		ReviewerID:      reviewerID,
		ReviewedAt:      s.opts.Now(),
		ReviewNotes:     optional(notes),
		RejectionReason: &reason,
		RejectionCode:   &code,
	}, nil
}

func (s *Service) updateOne(ctx context.Context, id int64, review models.ExecutionReview) error {
	n, err := s.store.UpdateExecutions(ctx, []int64{id}, review)
	if err != nil {
		s.logger.ErrorContext(ctx, "execution review failed",
			"execution_id", id, "status", review.Status, "error", err)
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.logger.InfoContext(ctx, "execution reviewed",
		"execution_id", id, "status", review.Status, "reviewer_id", review.ReviewerID)
	return nil
}

func (s *Service) updateMany(ctx context.Context, ids []int64, review models.ExecutionReview) (int64, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return 0, ErrNoExecutions
	}

	n, err := s.store.UpdateExecutions(ctx, ids, review)
	if err != nil {
		s.logger.ErrorContext(ctx, "bulk execution review failed",
			"count", len(ids), "status", review.Status, "error", err)
		return 0, err
	}
	s.logger.InfoContext(ctx, "executions reviewed in bulk",
		"requested", len(ids), "updated", n, "status", review.Status, "reviewer_id", review.ReviewerID)
	return n, nil
}

func (s *Service) normalize(f models.ExecutionFilter) models.ExecutionFilter {
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
		f.SortBy = "submitted_at"
	}
	if f.SortOrder == "" {
		f.SortOrder = "asc"
	}
	f.From = dateIn(f.From, s.opts.Location)
	f.To = dateIn(f.To, s.opts.Location)
	return f
}

func dedupe(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
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
