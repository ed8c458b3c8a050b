package services

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

// recordingPublisher captures published ids and optionally fails.
type recordingPublisher struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (p *recordingPublisher) PublishTransactionCreated(_ context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.ids = append(p.ids, id)
	return nil
}

func newLedgerFixture(t *testing.T) (*LedgerService, *recordingPublisher, int64) {
	t.Helper()
	store := newTestStore(t)
	pub := &recordingPublisher{}
	svc := NewLedgerService(store, pub)

	user, err := store.CreateUser(context.Background(), "Ada", "ada@example.com", "hash")
	require.NoError(t, err)
	return svc, pub, user.ID
}

func TestAddTransaction(t *testing.T) {
	svc, pub, userID := newLedgerFixture(t)
	ctx := context.Background()
	when := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)

	id, err := svc.AddTransaction(ctx, userID, core.Income, core.Money{Cents: 10000}, "salary", when)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, []int64{id}, pub.ids)

	txs, err := svc.ListTransactions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, core.Income, txs[0].Type)
	assert.Equal(t, int64(10000), txs[0].Amount.Cents)
	assert.Equal(t, "salary", txs[0].Description)
}

func TestAddTransactionValidation(t *testing.T) {
	svc, pub, userID := newLedgerFixture(t)
	ctx := context.Background()
	when := time.Now().UTC()

	_, err := svc.AddTransaction(ctx, userID, "transfer", core.Money{Cents: 100}, "", when)
	assert.ErrorIs(t, err, core.ErrInvalidType)

	_, err = svc.AddTransaction(ctx, userID, core.Expense, core.Money{Cents: -1}, "", when)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = svc.AddTransaction(ctx, userID, core.Expense, core.Money{Cents: 100}, "", time.Time{})
	assert.ErrorIs(t, err, core.ErrMissingField)

	assert.Empty(t, pub.ids, "rejected transactions must not be published")
}

func TestAddTransactionSurvivesPublishFailure(t *testing.T) {
	svc, pub, userID := newLedgerFixture(t)
	pub.err = errors.New("broker down")
	ctx := context.Background()

	id, err := svc.AddTransaction(ctx, userID, core.Income, core.Money{Cents: 500}, "tip", time.Now().UTC())
	require.NoError(t, err, "publish failure must not fail the write")
	assert.Positive(t, id)

	txs, err := svc.ListTransactions(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestSummaryMatchesEntries(t *testing.T) {
	svc, _, userID := newLedgerFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	var income, expenses int64
	for i := 0; i < 40; i++ {
		cents := int64(rng.Intn(100000))
		typ := core.Income
		if rng.Intn(2) == 0 {
			typ = core.Expense
			expenses += cents
		} else {
			income += cents
		}
		_, err := svc.AddTransaction(ctx, userID, typ, core.Money{Cents: cents}, "entry", time.Now().UTC())
		require.NoError(t, err)
	}

	sum, err := svc.Summary(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, income, sum.Income.Cents)
	assert.Equal(t, expenses, sum.Expenses.Cents)
	assert.Equal(t, income-expenses, sum.Balance.Cents)
}

func TestLedgerWithoutPublisher(t *testing.T) {
	store := newTestStore(t)
	svc := NewLedgerService(store, nil)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, "Ada", "ada@example.com", "hash")
	require.NoError(t, err)

	_, err = svc.AddTransaction(ctx, user.ID, core.Expense, core.Money{Cents: 100}, "coffee", time.Now().UTC())
	assert.NoError(t, err)
}
