package models

import "time"

// ExecutionStatus is the lifecycle state of one executant's attempt at a task.
type ExecutionStatus string

const (
	ExecutionAssigned   ExecutionStatus = "assigned"
	ExecutionInProgress ExecutionStatus = "in_progress"
	ExecutionSubmitted  ExecutionStatus = "submitted"
	ExecutionCompleted  ExecutionStatus = "completed"
	ExecutionRejected   ExecutionStatus = "rejected"
)

// Label returns the back-office display label.
func (s ExecutionStatus) Label() string {
	switch s {
	case ExecutionAssigned:
		return "Assignée"
	case ExecutionInProgress:
		return "En cours"
	case ExecutionSubmitted:
		return "Soumise"
	case ExecutionCompleted:
		return "Validée"
	case ExecutionRejected:
		return "Rejetée"
	}
	return string(s)
}

// TaskExecution is the model for the 'task_executions' table
type TaskExecution struct {
	ID          int64           `json:"id" db:"id"`
	TaskID      int64           `json:"taskId" db:"task_id"`
	ExecutantID int64           `json:"executantId" db:"executant_id"`
	Status      ExecutionStatus `json:"status" db:"status"`
	RewardCents int64           `json:"rewardCents" db:"reward_cents"`

	// Only meaningful once the execution is completed.
	BonusCents *int64 `json:"bonusCents,omitempty" db:"bonus_cents"`
	Rating     *int   `json:"rating,omitempty" db:"rating"`

	RejectionReason *string `json:"rejectionReason,omitempty" db:"rejection_reason"`
	RejectionCode   *string `json:"rejectionCode,omitempty" db:"rejection_code"`
	ReviewNotes     *string `json:"reviewNotes,omitempty" db:"review_notes"`
	ProofURL        *string `json:"proofUrl,omitempty" db:"proof_url"`

	SubmittedAt *time.Time `json:"submittedAt,omitempty" db:"submitted_at"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty" db:"reviewed_at"`
	CompletedAt *time.Time `json:"completedAt,omitempty" db:"completed_at"`
	ReviewerID  *int64     `json:"reviewerId,omitempty" db:"reviewer_id"`
}

// ExecutionReview is the update applied to one or more executions by a
// review decision. Status must be completed or rejected.
type ExecutionReview struct {
	Status          ExecutionStatus
	ReviewerID      int64
	ReviewedAt      time.Time
	Rating          *int
	BonusCents      *int64
	ReviewNotes     *string
	RejectionReason *string
	RejectionCode   *string
}

// PendingExecution is a submitted execution joined with what the reviewer
// needs to see.
type PendingExecution struct {
	TaskExecution

	CampaignID    int64  `json:"campaignId"`
	CampaignTitle string `json:"campaignTitle"`
	TaskTitle     string `json:"taskTitle"`
	ExecutantName string `json:"executantName"`

	RewardDisplay string `json:"rewardDisplay"`
	StatusLabel   string `json:"statusLabel"`
}

// ExecutionFilter narrows the pending-review queue. Bound from the query string.
type ExecutionFilter struct {
	CampaignID *int64     `form:"campaignId"`
	Search     string     `form:"search"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	SortBy     string     `form:"sortBy" binding:"omitempty,oneof=submitted_at reward"`
	SortOrder  string     `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"pageSize" binding:"omitempty,min=1"`
}

// ExecutionPage is one page of the pending-review queue.
type ExecutionPage struct {
	Items      []PendingExecution `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	TotalPages int                `json:"totalPages"`
}

// ExecutionStatRow is the projection the review stats are built from.
type ExecutionStatRow struct {
	Status      ExecutionStatus
	SubmittedAt *time.Time
	ReviewedAt  *time.Time
}

// ValidationStats is the KPI strip on top of the review queue.
type ValidationStats struct {
	Pending          int        `json:"pending"`
	ApprovedToday    int        `json:"approvedToday"`
	RejectedToday    int        `json:"rejectedToday"`
	AvgReviewMinutes float64    `json:"avgReviewMinutes"`
	OldestPendingAt  *time.Time `json:"oldestPendingAt,omitempty"`
}
