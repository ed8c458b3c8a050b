// Package backend selects and constructs the persistence backend from
// configuration: sqlite for single-binary deployments, postgres or mysql
// for a managed database.
package backend

import (
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/config"
	"fintrack/internal/storage"
)

type Type string

const (
	SQLite   Type = "sqlite"
	Postgres Type = "postgres"
	MySQL    Type = "mysql"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case SQLite, Postgres, MySQL:
		return true
	}
	return false
}

// Open builds the Store named by cfg.DataBackend. The caller owns the
// returned store and must Close it.
func Open(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	var (
		dialect storage.Dialect
		dsn     string
	)
	switch t {
	case SQLite:
		dialect, dsn = storage.DialectSQLite, cfg.SQLiteDBPath
	case Postgres:
		dialect, dsn = storage.DialectPostgres, cfg.DatabaseDSN
	case MySQL:
		dialect, dsn = storage.DialectMySQL, mysqlDSN(cfg.DatabaseDSN)
	}

	store, err := storage.NewSQLStore(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("initialize %s backend: %w", t, err)
	}

	logger.Info("initialized storage backend", "backend", t.String())
	return store, nil
}

// mysqlDSN makes sure parseTime is set so DATETIME columns scan into
// time.Time instead of []byte.
func mysqlDSN(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "parseTime=true"
}
