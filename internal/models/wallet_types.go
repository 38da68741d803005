package models

import "time"

// Wallet is the model for the 'wallets' table
type Wallet struct {
	UserID              int64     `json:"userId" db:"user_id"`
	BalanceCents        int64     `json:"balanceCents" db:"balance_cents"` // May go negative when overdraft is allowed
	TotalEarnedCents    int64     `json:"totalEarnedCents" db:"total_earned_cents"`
	TotalWithdrawnCents int64     `json:"totalWithdrawnCents" db:"total_withdrawn_cents"`
	UpdatedAt           time.Time `json:"updatedAt" db:"updated_at"`
}

// WalletTransaction is the model for the 'wallet_transactions' table
type WalletTransaction struct {
	ID                int64     `json:"id" db:"id"`
	UserID            int64     `json:"userId" db:"user_id"`
	Type              string    `json:"type" db:"type"`                // e.g., withdrawal, reward, bonus
	AmountCents       int64     `json:"amountCents" db:"amount_cents"` // Negative for debits
	BalanceAfterCents int64     `json:"balanceAfterCents" db:"balance_after_cents"`
	Notes             *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}
