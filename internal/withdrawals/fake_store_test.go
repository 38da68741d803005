package withdrawals

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/01moynul/taskgig-backoffice/internal/models"
)

// fakeStore keeps requests and wallets in memory. RunInTx snapshots state
// and restores it when fn fails, like a database rollback.
type fakeStore struct {
	mu sync.Mutex

	requests map[int64]models.WithdrawalRequest
	balances map[int64]int64
	ledger   []string

	commits   int
	rollbacks int

	applyErr error
	debitErr error
	listErr  error

	listItems []models.WithdrawalListItem
	lastList  models.WithdrawalFilter
	lastStats models.WithdrawalFilter
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests: map[int64]models.WithdrawalRequest{},
		balances: map[int64]int64{},
	}
}

func (f *fakeStore) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	requests := maps.Clone(f.requests)
	balances := maps.Clone(f.balances)
	ledger := len(f.ledger)

	if err := fn(&fakeTx{store: f}); err != nil {
		f.requests = requests
		f.balances = balances
		f.ledger = f.ledger[:ledger]
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

func (f *fakeStore) List(ctx context.Context, filter models.WithdrawalFilter) ([]models.WithdrawalListItem, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = filter
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	items := append([]models.WithdrawalListItem(nil), f.listItems...)
	return items, len(f.requests), nil
}

func (f *fakeStore) StatRows(ctx context.Context, filter models.WithdrawalFilter) ([]models.WithdrawalStatRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastStats = filter
	rows := make([]models.WithdrawalStatRow, 0, len(f.requests))
	for _, r := range f.requests {
		rows = append(rows, models.WithdrawalStatRow{
			Status:      r.Status,
			AmountCents: r.AmountCents,
			RequestedAt: r.RequestedAt,
			ProcessedAt: r.ProcessedAt,
		})
	}
	return rows, nil
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) GetForUpdate(ctx context.Context, id int64) (models.WithdrawalRequest, error) {
	req, ok := t.store.requests[id]
	if !ok {
		return models.WithdrawalRequest{}, ErrNotFound
	}
	return req, nil
}

func (t *fakeTx) ApplyDecision(ctx context.Context, id int64, d models.WithdrawalDecision) error {
	if t.store.applyErr != nil {
		return t.store.applyErr
	}
	req, ok := t.store.requests[id]
	if !ok {
		return ErrNotFound
	}
	t.store.requests[id] = applyDecision(req, d)
	return nil
}

func (t *fakeTx) Debit(ctx context.Context, userID, amountCents int64, allowOverdraft bool, memo string) (int64, error) {
	if t.store.debitErr != nil {
		return 0, t.store.debitErr
	}
	balance, ok := t.store.balances[userID]
	if !ok {
		return 0, ErrWalletNotFound
	}
	if !allowOverdraft && balance < amountCents {
		return 0, ErrInsufficientFunds
	}
	balance -= amountCents
	t.store.balances[userID] = balance
	t.store.ledger = append(t.store.ledger, memo)
	return balance, nil
}

var errBoom = errors.New("connection reset")
