package validations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/taskgig-backoffice/internal/format"
	"github.com/01moynul/taskgig-backoffice/internal/logging"
	"github.com/01moynul/taskgig-backoffice/internal/models"
)

var (
	fixedNow = time.Date(2026, 5, 2, 15, 0, 0, 0, time.UTC)
	errBoom  = errors.New("deadlock found")
)

const reviewerID = int64(3)

// fakeStore mirrors the column semantics of the MySQL update statements.
type fakeStore struct {
	executions map[int64]models.TaskExecution
	calls      [][]int64
	updateErr  error

	pending    []models.PendingExecution
	lastFilter models.ExecutionFilter
	statRows   []models.ExecutionStatRow
	statsSince time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{executions: map[int64]models.TaskExecution{}}
}

func (f *fakeStore) UpdateExecutions(ctx context.Context, ids []int64, r models.ExecutionReview) (int64, error) {
	f.calls = append(f.calls, ids)
	if f.updateErr != nil {
		return 0, f.updateErr
	}

	var n int64
	for _, id := range ids {
		e, ok := f.executions[id]
		if !ok {
			continue
		}
		reviewedAt := r.ReviewedAt
		reviewer := r.ReviewerID
		e.Status = r.Status
		e.ReviewedAt = &reviewedAt
		e.ReviewerID = &reviewer
		if r.ReviewNotes != nil {
			e.ReviewNotes = r.ReviewNotes
		}
		switch r.Status {
		case models.ExecutionCompleted:
			e.CompletedAt = &reviewedAt
			e.RejectionReason, e.RejectionCode = nil, nil
			if r.Rating != nil {
				e.Rating = r.Rating
			}
			if r.BonusCents != nil {
				e.BonusCents = r.BonusCents
			}
		case models.ExecutionRejected:
			e.CompletedAt, e.Rating, e.BonusCents = nil, nil, nil
			e.RejectionReason, e.RejectionCode = r.RejectionReason, r.RejectionCode
		}
		f.executions[id] = e
		n++
	}
	return n, nil
}

func (f *fakeStore) ListPending(ctx context.Context, filter models.ExecutionFilter) ([]models.PendingExecution, int, error) {
	f.lastFilter = filter
	return f.pending, len(f.pending), nil
}

func (f *fakeStore) StatRows(ctx context.Context, since time.Time) ([]models.ExecutionStatRow, error) {
	f.statsSince = since
	return f.statRows, nil
}

func newTestService(store Store) *Service {
	return NewService(store, logging.Discard(), Options{
		Formatter: format.New("XOF"),
		Now:       func() time.Time { return fixedNow },
	})
}

func seedSubmitted(store *fakeStore, ids ...int64) {
	submitted := fixedNow.Add(-3 * time.Hour)
	for _, id := range ids {
		store.executions[id] = models.TaskExecution{
			ID:          id,
			TaskID:      100,
			ExecutantID: 20 + id,
			Status:      models.ExecutionSubmitted,
			RewardCents: 2000,
			SubmittedAt: &submitted,
		}
	}
}

func TestApprove_WithRatingAndBonus(t *testing.T) {
	store := newFakeStore()
	seedSubmitted(store, 1)
	svc := newTestService(store)

	rating, bonus := 5, int64(500)
	err := svc.Approve(context.Background(), 1, ApproveInput{
		Rating:      &rating,
		BonusCents:  &bonus,
		ReviewNotes: "clean proof",
		ReviewerID:  reviewerID,
	})
	require.NoError(t, err)

	e := store.executions[1]
	assert.Equal(t, models.ExecutionCompleted, e.Status)
	require.NotNil(t, e.Rating)
	assert.Equal(t, 5, *e.Rating)
	require.NotNil(t, e.BonusCents)
	assert.Equal(t, int64(500), *e.BonusCents)
	require.NotNil(t, e.CompletedAt)
	require.NotNil(t, e.ReviewedAt)
	assert.False(t, e.CompletedAt.Before(*e.SubmittedAt))
	assert.False(t, e.ReviewedAt.Before(*e.SubmittedAt))
	assert.Equal(t, reviewerID, *e.ReviewerID)
	assert.Equal(t, "clean proof", *e.ReviewNotes)
}

func TestApprove_WithoutExtras(t *testing.T) {
	store := newFakeStore()
	seedSubmitted(store, 1)
	svc := newTestService(store)

	require.NoError(t, svc.Approve(context.Background(), 1, ApproveInput{ReviewerID: reviewerID}))

	e := store.executions[1]
	assert.Equal(t, models.ExecutionCompleted, e.Status)
	assert.Nil(t, e.Rating)
	assert.Nil(t, e.BonusCents)
	assert.NotNil(t, e.CompletedAt)
}

func TestApprove_RejectsBadInput(t *testing.T) {
	store := newFakeStore()
	seedSubmitted(store, 1)
	svc := newTestService(store)

	zero, six := 0, 6
	negative := int64(-1)

	assert.ErrorIs(t, svc.Approve(context.Background(), 1, ApproveInput{Rating: &zero}), ErrInvalidRating)
	assert.ErrorIs(t, svc.Approve(context.Background(), 1, ApproveInput{Rating: &six}), ErrInvalidRating)
	assert.ErrorIs(t, svc.Approve(context.Background(), 1, ApproveInput{BonusCents: &negative}), ErrInvalidBonus)
	assert.Empty(t, store.calls)
}

func TestApprove_NotFound(t *testing.T) {
	svc := newTestService(newFakeStore())
	assert.ErrorIs(t, svc.Approve(context.Background(), 42, ApproveInput{}), ErrNotFound)
}

func TestReject_TwiceIsLastWriteWins(t *testing.T) {
	store := newFakeStore()
	seedSubmitted(store, 1)
	svc := newTestService(store)

	require.NoError(t, svc.Reject(context.Background(), 1, RejectInput{
		Reason: "Capture d'écran floue", ReviewNotes: "first pass", ReviewerID: reviewerID,
	}))
	require.NoError(t, svc.Reject(context.Background(), 1, RejectInput{
		Reason: "Lien de preuve manquant", ReviewNotes: "second pass", ReviewerID: reviewerID,
	}))

	e := store.executions[1]
	assert.Equal(t, models.ExecutionRejected, e.Status)
	assert.Equal(t, "Lien de preuve manquant", *e.RejectionReason)
	assert.Equal(t, "lien-de-preuve-manquant", *e.RejectionCode)
	assert.Equal(t, "second pass", *e.ReviewNotes)
	assert.NotNil(t, e.ReviewedAt)
	assert.Nil(t, e.CompletedAt)
}

func TestReject_RequiresReason(t *testing.T) {
	store := newFakeStore()
	seedSubmitted(store, 1)
	svc := newTestService(store)

	err := svc.Reject(context.Background(), 1, RejectInput{Reason: "   "})
	require.ErrorIs(t, err, ErrReasonRequired)
	assert.Equal(t, models.ExecutionSubmitted, store.executions[1].Status)
}

func TestReject_AfterApprovalClearsReward(t *testing.T) {
	store := newFakeStore()
	seedSubmitted(store, 1)
	svc := newTestService(store)

	rating, bonus := 4, int64(100)
	require.NoError(t, svc.Approve(context.Background(), 1, ApproveInput{Rating: &rating, BonusCents: &bonus}))
	require.NoError(t, svc.Reject(context.Background(), 1, RejectInput{Reason: "fraud"}))

	e := store.executions[1]
	assert.Nil(t, e.Rating)
	assert.Nil(t, e.BonusCents)
	assert.Nil(t, e.CompletedAt)
}

func TestBulkReject_AppliesSharedReason(t *testing.T) {
	store := newFakeStore()
	seedSubmitted(store, 1, 2, 3)
	svc := newTestService(store)

	n, err := svc.BulkReject(context.Background(), []int64{1, 2, 3}, "reason X", reviewerID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.Len(t, store.calls, 1, "bulk must be a single batched write")

	for _, id := range []int64{1, 2, 3} {
		e := store.executions[id]
		assert.Equal(t, models.ExecutionRejected, e.Status, "execution %d", id)
		assert.Equal(t, "reason X", *e.RejectionReason, "execution %d", id)
	}
}

func TestBulkApprove_DedupesIDs(t *testing.T) {
	store := newFakeStore()
	seedSubmitted(store, 1, 2)
	svc := newTestService(store)

	n, err := svc.BulkApprove(context.Background(), []int64{2, 1, 2, 1}, reviewerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []int64{1, 2}, store.calls[0])
	assert.Equal(t, models.ExecutionCompleted, store.executions[1].Status)
	assert.Equal(t, models.ExecutionCompleted, store.executions[2].Status)
}

func TestBulk_Errors(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.BulkApprove(context.Background(), nil, reviewerID)
	assert.ErrorIs(t, err, ErrNoExecutions)

	_, err = svc.BulkReject(context.Background(), []int64{1}, "", reviewerID)
	assert.ErrorIs(t, err, ErrReasonRequired)

	store.updateErr = errBoom
	_, err = svc.BulkApprove(context.Background(), []int64{1, 2}, reviewerID)
	assert.ErrorIs(t, err, errBoom)
}

func TestGetPendingTasks(t *testing.T) {
	store := newFakeStore()
	store.pending = []models.PendingExecution{
		{TaskExecution: models.TaskExecution{ID: 1, RewardCents: 2000, Status: models.ExecutionSubmitted}, CampaignTitle: "Avis Google"},
		{TaskExecution: models.TaskExecution{ID: 2, RewardCents: 150000, Status: models.ExecutionSubmitted}, CampaignTitle: "Abonnement"},
	}
	svc := newTestService(store)

	page, err := svc.GetPendingTasks(context.Background(), models.ExecutionFilter{PageSize: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, "20,00 XOF", page.Items[0].RewardDisplay)
	assert.Equal(t, "1 500,00 XOF", page.Items[1].RewardDisplay)
	assert.Equal(t, "Soumise", page.Items[0].StatusLabel)
	assert.Equal(t, "submitted_at", store.lastFilter.SortBy)
	assert.Equal(t, "asc", store.lastFilter.SortOrder)
}

func TestGetPendingTasks_ReadsDatesInLocation(t *testing.T) {
	store := newFakeStore()
	plusTwo := time.FixedZone("UTC+2", 2*60*60)
	svc := NewService(store, logging.Discard(), Options{
		Location:  plusTwo,
		Formatter: format.New("XOF"),
		Now:       func() time.Time { return fixedNow },
	})

	// Dates arrive from the query string at midnight in the host zone.
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	_, err := svc.GetPendingTasks(context.Background(), models.ExecutionFilter{From: &from, To: &to})
	require.NoError(t, err)

	require.NotNil(t, store.lastFilter.From)
	require.NotNil(t, store.lastFilter.To)
	assert.True(t, time.Date(2026, 5, 1, 0, 0, 0, 0, plusTwo).Equal(*store.lastFilter.From))
	assert.True(t, time.Date(2026, 5, 2, 0, 0, 0, 0, plusTwo).Equal(*store.lastFilter.To))
	assert.Equal(t, plusTwo, store.lastFilter.From.Location())
}

func TestGetStats_UsesStartOfDay(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), store.statsSince)
}
