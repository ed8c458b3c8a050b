package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"fintrack/internal/core"
)

// transactionJSON is the wire shape for a single ledger entry.
type transactionJSON struct {
	ID          int64   `json:"id"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Timestamp   string  `json:"timestamp"`
}

func toTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          tx.ID,
		Type:        string(tx.Type),
		Amount:      tx.Amount.Units(),
		Description: tx.Description,
		Timestamp:   tx.OccurredAt.UTC().Format(time.RFC3339),
	}
}

// handleDashboard returns the aggregated balance, income and expenses.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	summary, err := s.ledger.Summary(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "dashboard summary failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch dashboard data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{
		"balance":  summary.Balance.Units(),
		"income":   summary.Income.Units(),
		"expenses": summary.Expenses.Units(),
	})
}

// handleListTransactions returns the user's entries, most recent first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	txs, err := s.ledger.ListTransactions(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "list transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}

	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionJSON(tx))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAddTransaction creates a ledger entry from the submitted form data.
// The amount may arrive as a JSON number or a string.
func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req struct {
		Type        string `json:"type"`
		Amount      any    `json:"amount"`
		Description string `json:"description"`
		Date        string `json:"date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := parseAmountField(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	occurredAt, err := parseOccurredAt(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.ledger.AddTransaction(r.Context(), userID, core.TransactionType(req.Type), amount, req.Description, occurredAt)
	switch {
	case errors.Is(err, core.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		slog.ErrorContext(r.Context(), "add transaction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to add transaction")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
	}
}

// parseAmountField converts the decoded amount value. With decodeJSON using
// UseNumber, numbers arrive as json.Number and keep their literal text.
func parseAmountField(v any) (core.Money, error) {
	switch a := v.(type) {
	case nil:
		return core.Money{}, fmt.Errorf("%w: amount", core.ErrMissingField)
	case string:
		return core.ParseAmount(a)
	case fmt.Stringer:
		return core.ParseAmount(a.String())
	default:
		return core.Money{}, core.ErrInvalidAmount
	}
}
