package models

import "time"

// WithdrawalStatus is the lifecycle state of a payout request.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalRejected  WithdrawalStatus = "rejected"
	WithdrawalCompleted WithdrawalStatus = "completed"
)

// Valid reports whether s is one of the known withdrawal statuses.
func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalPending, WithdrawalApproved, WithdrawalRejected, WithdrawalCompleted:
		return true
	}
	return false
}

// Label returns the back-office display label.
func (s WithdrawalStatus) Label() string {
	switch s {
	case WithdrawalPending:
		return "En attente"
	case WithdrawalApproved:
		return "Approuvé"
	case WithdrawalRejected:
		return "Rejeté"
	case WithdrawalCompleted:
		return "Payé"
	}
	return string(s)
}

// WithdrawalAction is an administrator decision on a pending request.
type WithdrawalAction string

const (
	ActionApprove WithdrawalAction = "approve"
	ActionReject  WithdrawalAction = "reject"
	ActionHold    WithdrawalAction = "hold"
)

// Valid reports whether a is one of approve, reject or hold.
func (a WithdrawalAction) Valid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionHold:
		return true
	}
	return false
}

// WithdrawalRequest is the model for the 'withdrawal_requests' table
type WithdrawalRequest struct {
	ID             int64            `json:"id" db:"id"`
	UserID         int64            `json:"userId" db:"user_id"`
	AmountCents    int64            `json:"amountCents" db:"amount_cents"`
	Status         WithdrawalStatus `json:"status" db:"status"`
	PaymentMethod  string           `json:"paymentMethod" db:"payment_method"`
	PaymentDetails string           `json:"paymentDetails" db:"payment_details"`

	ExternalTransactionID *string `json:"externalTransactionId,omitempty" db:"external_transaction_id"`
	RejectionReason       *string `json:"rejectionReason,omitempty" db:"rejection_reason"`
	RejectionCode         *string `json:"rejectionCode,omitempty" db:"rejection_code"`
	AdminNotes            *string `json:"adminNotes,omitempty" db:"admin_notes"`
	ProcessedBy           *int64  `json:"processedBy,omitempty" db:"processed_by"`

	RequestedAt time.Time  `json:"requestedAt" db:"requested_at"`
	ProcessedAt *time.Time `json:"processedAt,omitempty" db:"processed_at"`
	CompletedAt *time.Time `json:"completedAt,omitempty" db:"completed_at"`
}

// WithdrawalDecision is the set of columns written when an administrator
// acts on a request. Nil pointers leave the column untouched.
type WithdrawalDecision struct {
	Status                WithdrawalStatus
	ProcessedBy           int64
	ProcessedAt           time.Time
	ExternalTransactionID *string
	RejectionReason       *string
	RejectionCode         *string
	AdminNotes            *string
}

// WithdrawalListItem is a request row enriched with payee statistics for
// the review screen.
type WithdrawalListItem struct {
	WithdrawalRequest

	PayeeName  string `json:"payeeName"`
	PayeeEmail string `json:"payeeEmail"`

	// Derived per-row statistics
	BalanceCents              int64      `json:"balanceCents"`
	LifetimeEarnedCents       int64      `json:"lifetimeEarnedCents"`
	LifetimeWithdrawnCents    int64      `json:"lifetimeWithdrawnCents"`
	CompletedTasks            int        `json:"completedTasks"`
	TotalTasks                int        `json:"totalTasks"`
	ValidationRate            float64    `json:"validationRate"`
	LastCompletedWithdrawalAt *time.Time `json:"lastCompletedWithdrawalAt,omitempty"`

	AmountDisplay string `json:"amountDisplay"`
	StatusLabel   string `json:"statusLabel"`
}

// WithdrawalFilter narrows list and stats queries. Bound from the query string.
type WithdrawalFilter struct {
	Status         WithdrawalStatus `form:"status"`
	PaymentMethod  string           `form:"paymentMethod"`
	Search         string           `form:"search"`
	MinAmountCents *int64           `form:"minAmount" binding:"omitempty,min=0"`
	MaxAmountCents *int64           `form:"maxAmount" binding:"omitempty,min=0"`
	From           *time.Time       `form:"from" time_format:"2006-01-02"`
	To             *time.Time       `form:"to" time_format:"2006-01-02"`
	SortBy         string           `form:"sortBy" binding:"omitempty,oneof=requested_at amount status processed_at"`
	SortOrder      string           `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
	Page           int              `form:"page" binding:"omitempty,min=1"`
	PageSize       int              `form:"pageSize" binding:"omitempty,min=1"`
}

// WithdrawalStatRow is the minimal projection the stats summary is built from.
type WithdrawalStatRow struct {
	Status      WithdrawalStatus
	AmountCents int64
	RequestedAt time.Time
	ProcessedAt *time.Time
}

// WithdrawalStats is the KPI strip on top of the withdrawals screen.
type WithdrawalStats struct {
	TotalPending       int        `json:"totalPending"`
	TotalApproved      int        `json:"totalApproved"`
	TotalRejected      int        `json:"totalRejected"`
	TotalCompleted     int        `json:"totalCompleted"`
	PendingAmountCents int64      `json:"pendingAmountCents"`
	AvgProcessingHours float64    `json:"avgProcessingHours"`
	OldestPendingAt    *time.Time `json:"oldestPendingAt,omitempty"`
}

// WithdrawalPage is one page of the withdrawals list.
type WithdrawalPage struct {
	Items      []WithdrawalListItem `json:"items"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"totalPages"`
	Stats      WithdrawalStats      `json:"stats"`
}
