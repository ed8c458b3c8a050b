package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLStore implements Store over database/sql for any supported dialect.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore opens the database, runs migrations and returns a ready store.
// For sqlite the DSN is a file path and the parent directory is created.
func NewSQLStore(dialect Dialect, dsn string) (*SQLStore, error) {
	if !dialect.Valid() {
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
	if dialect == DialectSQLite {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLStore{db: db, dialect: dialect}, nil
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// insertID runs an INSERT and returns the new row id, papering over the
// RETURNING vs LastInsertId split between postgres and the other dialects.
func (s *SQLStore) insertID(ctx context.Context, query string, args ...any) (int64, error) {
	if s.dialect == DialectPostgres {
		var id int64
		err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*core.User, error) {
	now := time.Now().UTC()
	id, err := s.insertID(ctx,
		`INSERT INTO users (name, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		name, email, passwordHash, now,
	)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return nil, core.ErrEmailTaken
		}
		return nil, fmt.Errorf("%w: insert user: %v", core.ErrStorage, err)
	}
	return &core.User{ID: id, Name: name, Email: email, PasswordHash: passwordHash, CreatedAt: now}, nil
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, s.dialect.Rebind(
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`), email))
}

func (s *SQLStore) GetUserByID(ctx context.Context, id int64) (*core.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, s.dialect.Rebind(
		`SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`), id))
}

func (s *SQLStore) scanUser(row *sql.Row) (*core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan user: %v", core.ErrStorage, err)
	}
	return &u, nil
}

func (s *SQLStore) CreateTransaction(ctx context.Context, t *core.Transaction) (int64, error) {
	now := time.Now().UTC()
	id, err := s.insertID(ctx,
		`INSERT INTO transactions (user_id, type, amount_cents, description, occurred_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.UserID, string(t.Type), t.Amount.Cents, t.Description, t.OccurredAt.UTC(), now,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: insert transaction: %v", core.ErrStorage, err)
	}
	slog.InfoContext(ctx, "transaction saved",
		"id", id,
		"user_id", t.UserID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents)
	t.ID = id
	t.CreatedAt = now
	return id, nil
}

const transactionColumns = `id, user_id, type, amount_cents, description, occurred_at, created_at`

func (s *SQLStore) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`), id)
	var t core.Transaction
	var typ string
	err := row.Scan(&t.ID, &t.UserID, &typ, &t.Amount.Cents, &t.Description, &t.OccurredAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan transaction: %v", core.ErrStorage, err)
	}
	t.Type = core.TransactionType(typ)
	return &t, nil
}

func (s *SQLStore) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = ?
		 ORDER BY occurred_at DESC, id DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %v", core.ErrStorage, err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var typ string
		if err := rows.Scan(&t.ID, &t.UserID, &typ, &t.Amount.Cents, &t.Description, &t.OccurredAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan transaction: %v", core.ErrStorage, err)
		}
		t.Type = core.TransactionType(typ)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate transactions: %v", core.ErrStorage, err)
	}
	return out, nil
}

// SummarizeLedger pushes the aggregation into a single grouped-sum query;
// COALESCE keeps empty ledgers at zero instead of NULL.
func (s *SQLStore) SummarizeLedger(ctx context.Context, userID int64) (core.Summary, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(`
		SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE -amount_cents END), 0),
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0)
		FROM transactions
		WHERE user_id = ?`), userID)

	var sum core.Summary
	if err := row.Scan(&sum.Balance.Cents, &sum.Income.Cents, &sum.Expenses.Cents); err != nil {
		return core.Summary{}, fmt.Errorf("%w: summarize ledger: %v", core.ErrStorage, err)
	}
	return sum, nil
}

func (s *SQLStore) CreateSession(ctx context.Context, sess core.Session) error {
	_, err := s.db.ExecContext(ctx, s.dialect.Rebind(
		`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`),
		sess.Token, sess.UserID, sess.CreatedAt.UTC(), sess.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("%w: insert session: %v", core.ErrStorage, err)
	}
	return nil
}

func (s *SQLStore) GetSession(ctx context.Context, token string) (*core.Session, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(
		`SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?`), token)
	var sess core.Session
	err := row.Scan(&sess.Token, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan session: %v", core.ErrStorage, err)
	}
	return &sess, nil
}

func (s *SQLStore) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Rebind(
		`DELETE FROM sessions WHERE token = ?`), token); err != nil {
		return fmt.Errorf("%w: delete session: %v", core.ErrStorage, err)
	}
	return nil
}

func (s *SQLStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.dialect.Rebind(
		`DELETE FROM sessions WHERE expires_at <= ?`), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: delete expired sessions: %v", core.ErrStorage, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLStore) ListUnexported(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE exported_at IS NULL
		 ORDER BY id ASC
		 LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list unexported: %v", core.ErrStorage, err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (s *SQLStore) MarkExported(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Rebind(
		`UPDATE transactions SET exported_at = ? WHERE id = ?`), time.Now().UTC(), id); err != nil {
		return fmt.Errorf("%w: mark exported: %v", core.ErrStorage, err)
	}
	return nil
}
