// Package memory provides an in-memory LedgerExporter for tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/export"
)

type Row struct {
	Owner core.User
	Tx    core.Transaction
}

// Exporter records appended rows. Safe for concurrent use.
type Exporter struct {
	mu   sync.Mutex
	rows []Row
	// Err, when set, is returned by every Append.
	Err error
}

var _ export.LedgerExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Append(_ context.Context, owner core.User, tx core.Transaction) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return "", e.Err
	}
	e.rows = append(e.rows, Row{Owner: owner, Tx: tx})
	return fmt.Sprintf("row-%d", len(e.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (e *Exporter) Rows() []Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Row, len(e.rows))
	copy(out, e.rows)
	return out
}
