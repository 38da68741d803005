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

// Wallets reads balances and ledger history for the payee view.
type Wallets struct {
	db *sql.DB
}

func NewWallets(db *sql.DB) *Wallets {
	return &Wallets{db: db}
}

// Get reads a user's wallet. Returns withdrawals.ErrWalletNotFound.
func (s *Wallets) Get(ctx context.Context, userID int64) (models.Wallet, error) {
	const query = `
		SELECT user_id, balance_cents, total_earned_cents, total_withdrawn_cents, updated_at
		FROM wallets
		WHERE user_id = ?`

	var w models.Wallet
	err := s.db.QueryRowContext(ctx, query, userID).
		Scan(&w.UserID, &w.BalanceCents, &w.TotalEarnedCents, &w.TotalWithdrawnCents, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Wallet{}, withdrawals.ErrWalletNotFound
		}
		return models.Wallet{}, fmt.Errorf("store: get wallet %d: %w", userID, err)
	}
	return w, nil
}

// RecentTransactions returns the newest ledger rows first.
func (s *Wallets) RecentTransactions(ctx context.Context, userID int64, limit int) ([]models.WalletTransaction, error) {
	const query = `
		SELECT id, user_id, type, amount_cents, balance_after_cents, notes, created_at
		FROM wallet_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: wallet transactions %d: %w", userID, err)
	}
	defer rows.Close()

	history := []models.WalletTransaction{}
	for rows.Next() {
		var tx models.WalletTransaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.AmountCents, &tx.BalanceAfterCents, &tx.Notes, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: wallet transactions scan: %w", err)
		}
		history = append(history, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: wallet transactions iterate: %w", err)
	}
	return history, nil
}

// debitWallet subtracts amountCents from the wallet and appends a ledger
// row. It MUST run inside a transaction: the wallet row is locked first so
// concurrent approvals serialize on it.
func debitWallet(ctx context.Context, q queryer, now time.Time, userID, amountCents int64, allowOverdraft bool, memo string) (int64, error) {
	// 1. Lock the wallet and read the current balance
	var balance int64
	err := q.QueryRowContext(ctx, "SELECT balance_cents FROM wallets WHERE user_id = ? FOR UPDATE", userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, withdrawals.ErrWalletNotFound
		}
		return 0, fmt.Errorf("store: lock wallet %d: %w", userID, err)
	}

	// 2. Conditional debit
	query := `
		UPDATE wallets
		SET balance_cents = balance_cents - ?,
			total_withdrawn_cents = total_withdrawn_cents + ?,
			updated_at = ?
		WHERE user_id = ?`
	args := []any{amountCents, amountCents, now, userID}
	if !allowOverdraft {
		query += " AND balance_cents >= ?"
		args = append(args, amountCents)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("store: debit wallet %d: %w", userID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: debit wallet %d: rows affected: %w", userID, err)
	}
	if affected == 0 {
		return 0, withdrawals.ErrInsufficientFunds
	}
	newBalance := balance - amountCents

	// 3. Ledger entry (negative amount for a debit)
	const ledger = `
		INSERT INTO wallet_transactions
		(user_id, type, amount_cents, balance_after_cents, notes, created_at)
		VALUES (?, 'withdrawal', ?, ?, ?, ?)`
	if _, err := q.ExecContext(ctx, ledger, userID, -amountCents, newBalance, memo, now); err != nil {
		return 0, fmt.Errorf("store: wallet ledger %d: %w", userID, err)
	}
	return newBalance, nil
}
