package withdrawals

import (
	"github.com/01moynul/taskgig-backoffice/internal/format"
	"github.com/01moynul/taskgig-backoffice/internal/models"
)

// Summarize folds request rows into the stats strip. Average processing
// time only considers completed requests that carry a processed timestamp.
func Summarize(rows []models.WithdrawalStatRow) models.WithdrawalStats {
	var (
		stats        models.WithdrawalStats
		totalSeconds float64
		timed        int
	)

	for _, r := range rows {
		switch r.Status {
		case models.WithdrawalPending:
			stats.TotalPending++
			stats.PendingAmountCents += r.AmountCents
			if stats.OldestPendingAt == nil || r.RequestedAt.Before(*stats.OldestPendingAt) {
				at := r.RequestedAt
				stats.OldestPendingAt = &at
			}
		case models.WithdrawalApproved:
			stats.TotalApproved++
		case models.WithdrawalRejected:
			stats.TotalRejected++
		case models.WithdrawalCompleted:
			stats.TotalCompleted++
			if r.ProcessedAt != nil {
				totalSeconds += r.ProcessedAt.Sub(r.RequestedAt).Seconds()
				timed++
			}
		}
	}

	if timed > 0 {
		stats.AvgProcessingHours = format.Hours(totalSeconds / float64(timed))
	}
	return stats
}
