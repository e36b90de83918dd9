// Package store defines the persistence boundary: the Store interface both
// backends implement, its input types, and the sentinel errors handlers
// translate into HTTP statuses.
package store

import (
	"context"
	"errors"
	"time"

	"insights/internal/core"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

// NewUser carries the fields of a registration.
type NewUser struct {
	Email        string
	Name         string
	Locale       string
	Currency     string
	PasswordHash string
}

// UserUpdate carries a partial profile update; nil fields are left unchanged.
type UserUpdate struct {
	Name     *string
	Locale   *string
	Currency *string
	Province *string
	Phone    *string
}

// AccountInput identifies an account by owner and name for upsert.
type AccountInput struct {
	UserID      string
	Name        string
	Institution string
	Type        string
	Currency    string
}

// TransactionQuery filters and pages a transaction listing. Zero Limit means
// no page cap; a nil CategoryID means no category filter.
type TransactionQuery struct {
	UserID     string
	AccountID  string
	CategoryID *int
	From       time.Time
	To         time.Time
	Search     string
	Limit      int
	Offset     int
}

// Store is the persistence port. Implementations must be safe for concurrent
// use; every method returns defensive copies so callers cannot mutate stored
// state.
type Store interface {
	// Users
	CreateUser(ctx context.Context, input NewUser) (core.User, error)
	FindUserByEmail(ctx context.Context, email string) (core.User, error)
	FindUserByID(ctx context.Context, id string) (core.User, error)
	UpdateUser(ctx context.Context, id string, update UserUpdate) (core.User, error)

	// Sessions
	CreateSession(ctx context.Context, userID string, ttl time.Duration) (core.Session, error)
	DeleteSession(ctx context.Context, token string) error
	UserBySession(ctx context.Context, token string) (core.User, error)

	// Accounts
	ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
	UpsertAccount(ctx context.Context, input AccountInput) (core.Account, error)

	// Transactions
	CreateTransactions(ctx context.Context, inputs []core.TransactionInput) ([]core.Transaction, error)
	ListTransactions(ctx context.Context, query TransactionQuery) ([]core.Transaction, int, error)
	TransactionsForUser(ctx context.Context, userID string) ([]core.Transaction, error)
	UpdateTransactionCategory(ctx context.Context, userID, transactionID string, categoryID *int) (core.Transaction, error)

	// Insights
	InsightModules(ctx context.Context, userID string) ([]core.InsightModule, error)
	PutInsightModules(ctx context.Context, userID string, modules []core.InsightModule) error
	RecordInsightFeedback(ctx context.Context, feedback core.InsightFeedback) (core.InsightFeedback, error)

	Close() error
}
