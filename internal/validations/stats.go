package validations

import (
	"time"

	"github.com/01moynul/taskgig-backoffice/internal/format"
	"github.com/01moynul/taskgig-backoffice/internal/models"
)

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// Summarize folds execution rows into the review stats. Rows reviewed
// before dayStart only count when they are still pending.
func Summarize(rows []models.ExecutionStatRow, dayStart time.Time) models.ValidationStats {
	var (
		stats        models.ValidationStats
		totalSeconds float64
		timed        int
	)

	reviewedToday := func(r models.ExecutionStatRow) bool {
		return r.ReviewedAt != nil && !r.ReviewedAt.Before(dayStart)
	}

	for _, r := range rows {
		switch r.Status {
		case models.ExecutionSubmitted:
			stats.Pending++
			if r.SubmittedAt != nil && (stats.OldestPendingAt == nil || r.SubmittedAt.Before(*stats.OldestPendingAt)) {
				at := *r.SubmittedAt
				stats.OldestPendingAt = &at
			}
		case models.ExecutionCompleted:
			if !reviewedToday(r) {
				continue
			}
			stats.ApprovedToday++
			if r.SubmittedAt != nil {
				totalSeconds += r.ReviewedAt.Sub(*r.SubmittedAt).Seconds()
				timed++
			}
		case models.ExecutionRejected:
			if reviewedToday(r) {
				stats.RejectedToday++
			}
		}
	}

	if timed > 0 {
		stats.AvgReviewMinutes = format.Minutes(totalSeconds / float64(timed))
	}
	return stats
}
