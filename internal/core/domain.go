package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// User is an account identity. PasswordHash never leaves the server.
	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Transaction is a single immutable ledger entry owned by one user.
	// Amount is a non-negative magnitude; the sign is applied from Type
	// at aggregation time, never at storage time.
	Transaction struct {
		ID          int64
		UserID      int64
		Type        TransactionType
		Amount      Money
		Description string
		OccurredAt  time.Time
		CreatedAt   time.Time
	}

	// Session is a server-side login record referenced by an opaque token.
	// Expiry is an absolute window measured from creation.
	Session struct {
		Token     string
		UserID    int64
		CreatedAt time.Time
		ExpiresAt time.Time
	}

	// Summary is the aggregate view of a user's ledger. All fields are
	// derived; an empty ledger yields the zero value.
	Summary struct {
		Balance  Money
		Income   Money
		Expenses Money
	}
)

// Error taxonomy. Handlers map ErrAuth to 401 and everything else to 500;
// specific reasons wrap one of these three.
var (
	ErrValidation = errors.New("validation error")
	ErrAuth       = errors.New("auth error")
	ErrStorage    = errors.New("storage error")
)

var (
	ErrInvalidType        = wrap("invalid transaction type", ErrValidation)
	ErrInvalidAmount      = wrap("invalid amount", ErrValidation)
	ErrMissingField       = wrap("missing required field", ErrValidation)
	ErrEmailTaken         = wrap("email already registered", ErrValidation)
	ErrInvalidCredentials = wrap("invalid credentials", ErrAuth)
	ErrNoSession          = wrap("no valid session", ErrAuth)
	ErrNotFound           = wrap("not found", ErrStorage)
)

func wrap(msg string, kind error) error {
	return &kindError{msg: msg, kind: kind}
}

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.OccurredAt.IsZero() {
		return ErrMissingField
	}
	return nil
}

// ValidateRegistration checks registration input shape. Email uniqueness is
// a storage concern and is reported separately as ErrEmailTaken.
func ValidateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return ErrMissingField
	}
	if !strings.Contains(email, "@") {
		return wrap("malformed email", ErrValidation)
	}
	return nil
}

// Signed returns the amount with the sign implied by the transaction type.
func (t Transaction) Signed() int64 {
	if t.Type == Expense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}
