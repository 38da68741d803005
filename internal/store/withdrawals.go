package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/taskgig-backoffice/internal/models"
	"github.com/01moynul/taskgig-backoffice/internal/withdrawals"
)

// Withdrawals implements withdrawals.Store on MySQL.
type Withdrawals struct {
	db  *sql.DB
	now func() time.Time
}

// NewWithdrawals returns the withdrawal record store.
func NewWithdrawals(db *sql.DB) *Withdrawals {
	return &Withdrawals{db: db, now: time.Now}
}

var withdrawalSortColumns = map[string]string{
	"requested_at": "wr.requested_at",
	"amount":       "wr.amount_cents",
	"status":       "wr.status",
	"processed_at": "wr.processed_at",
}

const withdrawalColumns = `
	wr.id, wr.user_id, wr.amount_cents, wr.status, wr.payment_method, wr.payment_details,
	wr.external_transaction_id, wr.rejection_reason, wr.rejection_code, wr.admin_notes,
	wr.processed_by, wr.requested_at, wr.processed_at, wr.completed_at`

func withdrawalDest(req *models.WithdrawalRequest) []any {
	return []any{
		&req.ID, &req.UserID, &req.AmountCents, &req.Status, &req.PaymentMethod, &req.PaymentDetails,
		&req.ExternalTransactionID, &req.RejectionReason, &req.RejectionCode, &req.AdminNotes,
		&req.ProcessedBy, &req.RequestedAt, &req.ProcessedAt, &req.CompletedAt,
	}
}

// RunInTx runs fn in one transaction, committing only when fn succeeds.
func (s *Withdrawals) RunInTx(ctx context.Context, fn func(tx withdrawals.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&withdrawalTx{tx: tx, now: s.now}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}

// List returns one page of requests with payee statistics, plus the total
// number of rows matching the filter.
func (s *Withdrawals) List(ctx context.Context, f models.WithdrawalFilter) ([]models.WithdrawalListItem, int, error) {
	// 1. --- Build Filters ---
	conds := withdrawalConditions(f)

	const from = `
		FROM withdrawal_requests wr
		JOIN users u ON u.id = wr.user_id
		LEFT JOIN wallets w ON w.user_id = wr.user_id`

	// 2. --- Count ---
	total, err := count(ctx, s.db, "SELECT COUNT(*)"+from+conds.where(), conds.args)
	if err != nil {
		return nil, 0, fmt.Errorf("store: withdrawals %w", err)
	}
	if total == 0 {
		return []models.WithdrawalListItem{}, 0, nil
	}

	// 3. --- Page Query ---
	sortCol, ok := withdrawalSortColumns[f.SortBy]
	if !ok {
		sortCol = withdrawalSortColumns["requested_at"]
	}
	dir := direction(f.SortOrder)

	query := `SELECT` + withdrawalColumns + `,
		u.full_name, u.email,
		COALESCE(w.balance_cents, 0), COALESCE(w.total_earned_cents, 0), COALESCE(w.total_withdrawn_cents, 0),
		(SELECT COUNT(*) FROM task_executions te WHERE te.executant_id = wr.user_id AND te.status = 'completed'),
		(SELECT COUNT(*) FROM task_executions te WHERE te.executant_id = wr.user_id),
		(SELECT MAX(wc.completed_at) FROM withdrawal_requests wc WHERE wc.user_id = wr.user_id AND wc.status = 'completed')` +
		from + conds.where() +
		fmt.Sprintf(" ORDER BY %s %s, wr.id %s LIMIT ? OFFSET ?", sortCol, dir, dir)
	args := append(conds.args, f.PageSize, offset(f.Page, f.PageSize))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: withdrawals list: %w", err)
	}
	defer rows.Close()

	// 4. --- Scan Rows ---
	items := make([]models.WithdrawalListItem, 0, f.PageSize)
	for rows.Next() {
		var item models.WithdrawalListItem
		dest := append(withdrawalDest(&item.WithdrawalRequest),
			&item.PayeeName, &item.PayeeEmail,
			&item.BalanceCents, &item.LifetimeEarnedCents, &item.LifetimeWithdrawnCents,
			&item.CompletedTasks, &item.TotalTasks, &item.LastCompletedWithdrawalAt,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("store: withdrawals scan: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: withdrawals iterate: %w", err)
	}
	return items, total, nil
}

// StatRows returns the status, amount and timestamps of every request
// matching f.
func (s *Withdrawals) StatRows(ctx context.Context, f models.WithdrawalFilter) ([]models.WithdrawalStatRow, error) {
	conds := withdrawalConditions(f)
	query := `
		SELECT wr.status, wr.amount_cents, wr.requested_at, wr.processed_at
		FROM withdrawal_requests wr
		JOIN users u ON u.id = wr.user_id` + conds.where()

	rows, err := s.db.QueryContext(ctx, query, conds.args...)
	if err != nil {
		return nil, fmt.Errorf("store: withdrawal stats: %w", err)
	}
	defer rows.Close()

	var out []models.WithdrawalStatRow
	for rows.Next() {
		var r models.WithdrawalStatRow
		if err := rows.Scan(&r.Status, &r.AmountCents, &r.RequestedAt, &r.ProcessedAt); err != nil {
			return nil, fmt.Errorf("store: withdrawal stats scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: withdrawal stats iterate: %w", err)
	}
	return out, nil
}

func withdrawalConditions(f models.WithdrawalFilter) conditions {
	var c conditions
	if f.Status != "" {
		c.add("wr.status = ?", string(f.Status))
	}
	if f.PaymentMethod != "" {
		c.add("wr.payment_method = ?", f.PaymentMethod)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		c.add("(u.full_name LIKE ? OR u.email LIKE ?)", p, p)
	}
	if f.MinAmountCents != nil {
		c.add("wr.amount_cents >= ?", *f.MinAmountCents)
	}
	if f.MaxAmountCents != nil {
		c.add("wr.amount_cents <= ?", *f.MaxAmountCents)
	}
	if f.From != nil {
		c.add("wr.requested_at >= ?", *f.From)
	}
	if f.To != nil {
		c.add("wr.requested_at < ?", dayAfter(*f.To))
	}
	return c
}

// withdrawalTx implements withdrawals.Tx over one *sql.Tx.
type withdrawalTx struct {
	tx  *sql.Tx
	now func() time.Time
}

func (t *withdrawalTx) GetForUpdate(ctx context.Context, id int64) (models.WithdrawalRequest, error) {
	query := `SELECT` + withdrawalColumns + `
		FROM withdrawal_requests wr
		WHERE wr.id = ?
		FOR UPDATE`

	var req models.WithdrawalRequest
	err := t.tx.QueryRowContext(ctx, query, id).Scan(withdrawalDest(&req)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.WithdrawalRequest{}, withdrawals.ErrNotFound
		}
		return models.WithdrawalRequest{}, fmt.Errorf("store: get withdrawal %d: %w", id, err)
	}
	return req, nil
}

func (t *withdrawalTx) ApplyDecision(ctx context.Context, id int64, d models.WithdrawalDecision) error {
	const query = `
		UPDATE withdrawal_requests
		SET status = ?,
			processed_by = ?,
			processed_at = ?,
			external_transaction_id = COALESCE(?, external_transaction_id),
			rejection_reason = COALESCE(?, rejection_reason),
			rejection_code = COALESCE(?, rejection_code),
			admin_notes = COALESCE(?, admin_notes)
		WHERE id = ?`

	result, err := t.tx.ExecContext(ctx, query,
		string(d.Status), d.ProcessedBy, d.ProcessedAt,
		d.ExternalTransactionID, d.RejectionReason, d.RejectionCode, d.AdminNotes,
		id,
	)
	if err != nil {
		return fmt.Errorf("store: update withdrawal %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update withdrawal %d: rows affected: %w", id, err)
	}
	if affected == 0 {
		return withdrawals.ErrNotFound
	}
	return nil
}

func (t *withdrawalTx) Debit(ctx context.Context, userID, amountCents int64, allowOverdraft bool, memo string) (int64, error) {
	return debitWallet(ctx, t.tx, t.now(), userID, amountCents, allowOverdraft, memo)
}
