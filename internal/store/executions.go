package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/01moynul/taskgig-backoffice/internal/models"
)

// Executions implements validations.Store on MySQL.
type Executions struct {
	db *sql.DB
}

// NewExecutions returns the task execution record store.
func NewExecutions(db *sql.DB) *Executions {
	return &Executions{db: db}
}

var executionSortColumns = map[string]string{
	"submitted_at": "te.submitted_at",
	"reward":       "te.reward_cents",
}

// UpdateExecutions writes a review decision to every id in one statement.
// An approval fills completed_at and clears any previous rejection; a
// rejection clears the completion fields. Status is not guarded, so a
// second decision overwrites the first.
func (s *Executions) UpdateExecutions(ctx context.Context, ids []int64, r models.ExecutionReview) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var query string
	var args []any

	switch r.Status {
	case models.ExecutionCompleted:
		query = `
			UPDATE task_executions
			SET status = 'completed',
				reviewer_id = ?,
				reviewed_at = ?,
				completed_at = ?,
				rating = COALESCE(?, rating),
				bonus_cents = COALESCE(?, bonus_cents),
				review_notes = COALESCE(?, review_notes),
				rejection_reason = NULL,
				rejection_code = NULL
			WHERE id IN (` + placeholders(len(ids)) + `)`
		args = []any{r.ReviewerID, r.ReviewedAt, r.ReviewedAt, r.Rating, r.BonusCents, r.ReviewNotes}
	case models.ExecutionRejected:
		query = `
			UPDATE task_executions
			SET status = 'rejected',
				reviewer_id = ?,
				reviewed_at = ?,
				completed_at = NULL,
				rating = NULL,
				bonus_cents = NULL,
				review_notes = COALESCE(?, review_notes),
				rejection_reason = ?,
				rejection_code = ?
			WHERE id IN (` + placeholders(len(ids)) + `)`
		args = []any{r.ReviewerID, r.ReviewedAt, r.ReviewNotes, r.RejectionReason, r.RejectionCode}
	default:
		return 0, fmt.Errorf("store: unsupported review status %q", r.Status)
	}

	for _, id := range ids {
		args = append(args, id)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("store: update executions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: update executions: rows affected: %w", err)
	}
	return n, nil
}

// ListPending returns one page of submitted executions with their task,
// campaign and executant.
func (s *Executions) ListPending(ctx context.Context, f models.ExecutionFilter) ([]models.PendingExecution, int, error) {
	// 1. --- Build Filters ---
	var conds conditions
	conds.add("te.status = ?", string(models.ExecutionSubmitted))
	if f.CampaignID != nil {
		conds.add("c.id = ?", *f.CampaignID)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		conds.add("(t.title LIKE ? OR c.title LIKE ? OR u.full_name LIKE ?)", p, p, p)
	}
	if f.From != nil {
		conds.add("te.submitted_at >= ?", *f.From)
	}
	if f.To != nil {
		conds.add("te.submitted_at < ?", dayAfter(*f.To))
	}

	const from = `
		FROM task_executions te
		JOIN tasks t ON t.id = te.task_id
		JOIN campaigns c ON c.id = t.campaign_id
		JOIN users u ON u.id = te.executant_id`

	// 2. --- Count ---
	total, err := count(ctx, s.db, "SELECT COUNT(*)"+from+conds.where(), conds.args)
	if err != nil {
		return nil, 0, fmt.Errorf("store: pending executions %w", err)
	}
	if total == 0 {
		return []models.PendingExecution{}, 0, nil
	}

	// 3. --- Page Query ---
	sortCol, ok := executionSortColumns[f.SortBy]
	if !ok {
		sortCol = executionSortColumns["submitted_at"]
	}
	dir := direction(f.SortOrder)

	query := `
		SELECT te.id, te.task_id, te.executant_id, te.status, te.reward_cents,
			te.bonus_cents, te.rating, te.rejection_reason, te.rejection_code, te.review_notes, te.proof_url,
			te.submitted_at, te.reviewed_at, te.completed_at, te.reviewer_id,
			c.id, c.title, t.title, u.full_name` +
		from + conds.where() +
		fmt.Sprintf(" ORDER BY %s %s, te.id %s LIMIT ? OFFSET ?", sortCol, dir, dir)
	args := append(conds.args, f.PageSize, offset(f.Page, f.PageSize))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: pending executions: %w", err)
	}
	defer rows.Close()

	// 4. --- Scan Rows ---
	items := make([]models.PendingExecution, 0, f.PageSize)
	for rows.Next() {
		var p models.PendingExecution
		if err := rows.Scan(
			&p.ID, &p.TaskID, &p.ExecutantID, &p.Status, &p.RewardCents,
			&p.BonusCents, &p.Rating, &p.RejectionReason, &p.RejectionCode, &p.ReviewNotes, &p.ProofURL,
			&p.SubmittedAt, &p.ReviewedAt, &p.CompletedAt, &p.ReviewerID,
			&p.CampaignID, &p.CampaignTitle, &p.TaskTitle, &p.ExecutantName,
		); err != nil {
			return nil, 0, fmt.Errorf("store: pending executions scan: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: pending executions iterate: %w", err)
	}
	return items, total, nil
}

// StatRows returns every submitted execution plus every execution reviewed
// at or after since.
func (s *Executions) StatRows(ctx context.Context, since time.Time) ([]models.ExecutionStatRow, error) {
	const query = `
		SELECT status, submitted_at, reviewed_at
		FROM task_executions
		WHERE status = 'submitted'
			OR (status IN ('completed', 'rejected') AND reviewed_at >= ?)`

	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("store: execution stats: %w", err)
	}
	defer rows.Close()

	var out []models.ExecutionStatRow
	for rows.Next() {
		var r models.ExecutionStatRow
		if err := rows.Scan(&r.Status, &r.SubmittedAt, &r.ReviewedAt); err != nil {
			return nil, fmt.Errorf("store: execution stats scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: execution stats iterate: %w", err)
	}
	return out, nil
}
