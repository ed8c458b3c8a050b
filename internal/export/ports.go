// Package export defines the outbound port for the ledger export pipeline.
package export

import (
	"context"

	"fintrack/internal/core"
)

// LedgerExporter appends a ledger entry to an external destination and
// returns a reference to where it landed (e.g. a sheet range).
type LedgerExporter interface {
	Append(ctx context.Context, owner core.User, tx core.Transaction) (rowRef string, err error)
}
