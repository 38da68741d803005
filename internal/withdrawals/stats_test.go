package withdrawals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/taskgig-backoffice/internal/models"
)

func TestSummarize_CountsAndPendingAmount(t *testing.T) {
	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	processed := func(h int) *time.Time {
		at := base.Add(time.Duration(h) * time.Hour)
		return &at
	}

	rows := []models.WithdrawalStatRow{
		{Status: models.WithdrawalPending, AmountCents: 1500, RequestedAt: base.Add(2 * time.Hour)},
		{Status: models.WithdrawalPending, AmountCents: 2500, RequestedAt: base},
		{Status: models.WithdrawalPending, AmountCents: 1000, RequestedAt: base.Add(5 * time.Hour)},
		{Status: models.WithdrawalApproved, AmountCents: 9999, RequestedAt: base, ProcessedAt: processed(1)},
		{Status: models.WithdrawalRejected, AmountCents: 700, RequestedAt: base, ProcessedAt: processed(3)},
		{Status: models.WithdrawalRejected, AmountCents: 800, RequestedAt: base},
		{Status: models.WithdrawalCompleted, AmountCents: 100, RequestedAt: base, ProcessedAt: processed(2)},
		{Status: models.WithdrawalCompleted, AmountCents: 200, RequestedAt: base, ProcessedAt: processed(5)},
		{Status: models.WithdrawalCompleted, AmountCents: 300, RequestedAt: base},
	}

	stats := Summarize(rows)

	assert.Equal(t, 3, stats.TotalPending)
	assert.Equal(t, 1, stats.TotalApproved)
	assert.Equal(t, 2, stats.TotalRejected)
	assert.Equal(t, 3, stats.TotalCompleted)
	assert.Equal(t, int64(5000), stats.PendingAmountCents)
	assert.Equal(t, 3.5, stats.AvgProcessingHours)
	require.NotNil(t, stats.OldestPendingAt)
	assert.Equal(t, base, *stats.OldestPendingAt)
}

func TestSummarize_Empty(t *testing.T) {
	stats := Summarize(nil)
	assert.Equal(t, models.WithdrawalStats{}, stats)
}

func TestReasonCode(t *testing.T) {
	assert.Equal(t, "preuve-illisible", ReasonCode("Preuve illisible"))
	assert.Equal(t, "compte-bloque", ReasonCode("  Compte bloqué! "))
}
