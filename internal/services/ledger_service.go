package services

import (
	"context"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// EventPublisher announces new transactions to the export pipeline.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, transactionID int64) error
}

// LedgerService implements transaction writes, listings and the dashboard
// aggregation. The publisher is optional: without one, transactions are
// simply not announced and the reconciliation pass picks them up.
type LedgerService struct {
	store     storage.Store
	publisher EventPublisher
}

func NewLedgerService(store storage.Store, publisher EventPublisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher}
}

// AddTransaction validates and persists a ledger entry for the user and
// returns its id. Publishing is best effort: a broker outage must not
// fail the write.
func (s *LedgerService) AddTransaction(ctx context.Context, userID int64, typ core.TransactionType, amount core.Money, description string, occurredAt time.Time) (int64, error) {
	tx := core.Transaction{
		UserID:      userID,
		Type:        typ,
		Amount:      amount,
		Description: description,
		OccurredAt:  occurredAt,
	}
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	id, err := s.store.CreateTransaction(ctx, &tx)
	if err != nil {
		return 0, err
	}
	if s.publisher != nil {
		if err := s.publisher.PublishTransactionCreated(ctx, id); err != nil {
			slog.WarnContext(ctx, "failed to publish transaction created event",
				"transaction_id", id, "error", err)
		}
	}
	return id, nil
}

// ListTransactions returns the user's entries, most recent first.
func (s *LedgerService) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID)
}

// Summary aggregates the user's ledger into income, expenses and balance.
func (s *LedgerService) Summary(ctx context.Context, userID int64) (core.Summary, error) {
	return s.store.SummarizeLedger(ctx, userID)
}
