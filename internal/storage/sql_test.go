package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fintrack/internal/core"
)

type SQLStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *SQLStore
}

func TestSQLStoreSuite(t *testing.T) {
	suite.Run(t, new(SQLStoreSuite))
}

func (s *SQLStoreSuite) SetupTest() {
	s.ctx = context.Background()
	store, err := NewSQLStore(DialectSQLite, filepath.Join(s.T().TempDir(), "test.db"))
	s.Require().NoError(err)
	s.store = store
}

func (s *SQLStoreSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *SQLStoreSuite) createUser(email string) *core.User {
	user, err := s.store.CreateUser(s.ctx, "Test User", email, "$2a$10$fakehashfakehashfakehash")
	s.Require().NoError(err)
	return user
}

func (s *SQLStoreSuite) createTransaction(userID int64, typ core.TransactionType, cents int64, occurredAt time.Time) int64 {
	id, err := s.store.CreateTransaction(s.ctx, &core.Transaction{
		UserID:      userID,
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Description: "test entry",
		OccurredAt:  occurredAt,
	})
	s.Require().NoError(err)
	return id
}

func (s *SQLStoreSuite) TestCreateAndGetUser() {
	user := s.createUser("ada@example.com")
	s.Positive(user.ID)
	s.Equal("ada@example.com", user.Email)

	byEmail, err := s.store.GetUserByEmail(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, byEmail.ID)
	s.Equal("Test User", byEmail.Name)

	byID, err := s.store.GetUserByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("ada@example.com", byID.Email)
}

func (s *SQLStoreSuite) TestGetUserNotFound() {
	_, err := s.store.GetUserByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, core.ErrNotFound)

	_, err = s.store.GetUserByID(s.ctx, 99999)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *SQLStoreSuite) TestDuplicateEmail() {
	s.createUser("dup@example.com")
	_, err := s.store.CreateUser(s.ctx, "Other", "dup@example.com", "hash")
	s.ErrorIs(err, core.ErrEmailTaken)
}

func (s *SQLStoreSuite) TestListTransactionsOrdering() {
	user := s.createUser("order@example.com")
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	oldest := s.createTransaction(user.ID, core.Income, 100, base.Add(-48*time.Hour))
	middle := s.createTransaction(user.ID, core.Expense, 200, base.Add(-24*time.Hour))
	newest := s.createTransaction(user.ID, core.Income, 300, base)

	txs, err := s.store.ListTransactions(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Require().Len(txs, 3)
	s.Equal(newest, txs[0].ID)
	s.Equal(middle, txs[1].ID)
	s.Equal(oldest, txs[2].ID)
}

func (s *SQLStoreSuite) TestListTransactionsTieBreak() {
	user := s.createUser("tie@example.com")
	when := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	first := s.createTransaction(user.ID, core.Income, 100, when)
	second := s.createTransaction(user.ID, core.Income, 200, when)

	txs, err := s.store.ListTransactions(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Require().Len(txs, 2)
	// Same occurred_at: later insert wins the tie.
	s.Equal(second, txs[0].ID)
	s.Equal(first, txs[1].ID)
}

func (s *SQLStoreSuite) TestSummarizeEmptyLedger() {
	user := s.createUser("empty@example.com")

	sum, err := s.store.SummarizeLedger(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Zero(sum.Balance.Cents)
	s.Zero(sum.Income.Cents)
	s.Zero(sum.Expenses.Cents)
}

func (s *SQLStoreSuite) TestSummarizeLedger() {
	user := s.createUser("sum@example.com")
	now := time.Now().UTC()

	s.createTransaction(user.ID, core.Income, 10000, now)
	s.createTransaction(user.ID, core.Income, 2500, now)
	s.createTransaction(user.ID, core.Expense, 4000, now)

	sum, err := s.store.SummarizeLedger(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(int64(12500), sum.Income.Cents)
	s.Equal(int64(4000), sum.Expenses.Cents)
	s.Equal(int64(8500), sum.Balance.Cents)
}

func (s *SQLStoreSuite) TestSummarizeIsolatesUsers() {
	alice := s.createUser("alice@example.com")
	bob := s.createUser("bob@example.com")
	now := time.Now().UTC()

	s.createTransaction(alice.ID, core.Income, 10000, now)
	s.createTransaction(bob.ID, core.Expense, 9999, now)

	sum, err := s.store.SummarizeLedger(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal(int64(10000), sum.Balance.Cents)
	s.Zero(sum.Expenses.Cents)

	txs, err := s.store.ListTransactions(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Len(txs, 1)
}

func (s *SQLStoreSuite) TestSessionLifecycle() {
	user := s.createUser("sess@example.com")
	now := time.Now().UTC().Truncate(time.Second)

	sess := core.Session{
		Token:     "token-abc",
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	s.Require().NoError(s.store.CreateSession(s.ctx, sess))

	got, err := s.store.GetSession(s.ctx, "token-abc")
	s.Require().NoError(err)
	s.Equal(user.ID, got.UserID)
	s.True(got.ExpiresAt.After(now))

	s.Require().NoError(s.store.DeleteSession(s.ctx, "token-abc"))
	_, err = s.store.GetSession(s.ctx, "token-abc")
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *SQLStoreSuite) TestDeleteExpiredSessions() {
	user := s.createUser("expiry@example.com")
	now := time.Now().UTC()

	s.Require().NoError(s.store.CreateSession(s.ctx, core.Session{
		Token: "expired", UserID: user.ID,
		CreatedAt: now.Add(-25 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}))
	s.Require().NoError(s.store.CreateSession(s.ctx, core.Session{
		Token: "live", UserID: user.ID,
		CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour),
	}))

	deleted, err := s.store.DeleteExpiredSessions(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)

	_, err = s.store.GetSession(s.ctx, "expired")
	s.ErrorIs(err, core.ErrNotFound)
	_, err = s.store.GetSession(s.ctx, "live")
	s.NoError(err)
}

func (s *SQLStoreSuite) TestExportBookkeeping() {
	user := s.createUser("export@example.com")
	now := time.Now().UTC()

	first := s.createTransaction(user.ID, core.Income, 100, now)
	second := s.createTransaction(user.ID, core.Expense, 200, now)

	pending, err := s.store.ListUnexported(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(first, pending[0].ID)
	s.Equal(second, pending[1].ID)

	s.Require().NoError(s.store.MarkExported(s.ctx, first))

	pending, err = s.store.ListUnexported(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(second, pending[0].ID)
}

func (s *SQLStoreSuite) TestListUnexportedHonorsLimit() {
	user := s.createUser("limit@example.com")
	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		s.createTransaction(user.ID, core.Income, 100, now)
	}

	pending, err := s.store.ListUnexported(s.ctx, 3)
	s.Require().NoError(err)
	s.Len(pending, 3)
}

func (s *SQLStoreSuite) TestGetTransaction() {
	user := s.createUser("get@example.com")
	when := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	id := s.createTransaction(user.ID, core.Expense, 4250, when)

	tx, err := s.store.GetTransaction(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(user.ID, tx.UserID)
	s.Equal(core.Expense, tx.Type)
	s.Equal(int64(4250), tx.Amount.Cents)
	s.True(tx.OccurredAt.Equal(when))

	_, err = s.store.GetTransaction(s.ctx, 99999)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *SQLStoreSuite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}
