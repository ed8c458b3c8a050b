// Package worker exports newly created ledger entries to the configured
// external destination and reconciles anything the broker missed.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/storage"
)

// SyncWorker handles export of ledger entries to the external destination.
type SyncWorker struct {
	store     storage.Store
	exporter  export.LedgerExporter
	batchSize int
}

func NewSyncWorker(store storage.Store, exporter export.LedgerExporter, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     store,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleTransactionCreated processes a single transaction-created message.
// A transaction deleted between publish and delivery is acked as done, not
// requeued forever.
func (w *SyncWorker) HandleTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	slog.InfoContext(ctx, "processing transaction created message", "transaction_id", msg.ID)

	tx, err := w.store.GetTransaction(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "transaction no longer exists, skipping", "transaction_id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	return w.exportTransaction(ctx, *tx)
}

// ProcessUnexported exports entries the broker never delivered. Backup
// mechanism in case messages are lost or the worker was down.
func (w *SyncWorker) ProcessUnexported(ctx context.Context) error {
	pending, err := w.store.ListUnexported(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unexported: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "processing unexported transactions", "count", len(pending))

	exported := 0
	for _, tx := range pending {
		if err := w.exportTransaction(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "failed to export transaction",
				"transaction_id", tx.ID, "error", err)
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "reconciliation pass completed",
		"total", len(pending), "exported", exported)
	return nil
}

func (w *SyncWorker) exportTransaction(ctx context.Context, tx core.Transaction) error {
	owner, err := w.store.GetUserByID(ctx, tx.UserID)
	if err != nil {
		return fmt.Errorf("load transaction owner: %w", err)
	}

	ref, err := w.exporter.Append(ctx, *owner, tx)
	if err != nil {
		return fmt.Errorf("append to exporter: %w", err)
	}

	if err := w.store.MarkExported(ctx, tx.ID); err != nil {
		// The row landed; next reconciliation may export it again but the
		// message must not be requeued.
		slog.ErrorContext(ctx, "failed to mark transaction exported",
			"transaction_id", tx.ID, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "transaction exported",
		"transaction_id", tx.ID, "ref", ref, "amount_cents", tx.Amount.Cents)
	return nil
}
