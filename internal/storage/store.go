// Package storage persists users, transactions and sessions behind a single
// Store interface with swappable SQL backends (sqlite, postgres, mysql).
package storage

import (
	"context"

	"fintrack/internal/core"
)

// Store is the full capability set the services need from persistence.
// Every method runs a single statement; no multi-statement transactions
// are required by the domain.
type Store interface {
	// Users
	CreateUser(ctx context.Context, name, email, passwordHash string) (*core.User, error)
	GetUserByEmail(ctx context.Context, email string) (*core.User, error)
	GetUserByID(ctx context.Context, id int64) (*core.User, error)

	// Ledger
	CreateTransaction(ctx context.Context, t *core.Transaction) (int64, error)
	GetTransaction(ctx context.Context, id int64) (*core.Transaction, error)
	ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	// SummarizeLedger computes balance/income/expenses in one grouped-sum
	// query. An empty ledger yields the zero Summary.
	SummarizeLedger(ctx context.Context, userID int64) (core.Summary, error)

	// Sessions
	CreateSession(ctx context.Context, s core.Session) error
	GetSession(ctx context.Context, token string) (*core.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	// Export bookkeeping (worker reconciliation)
	ListUnexported(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkExported(ctx context.Context, id int64) error

	Ping(ctx context.Context) error
	Close() error
}
