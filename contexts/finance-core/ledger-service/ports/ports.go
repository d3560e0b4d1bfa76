package ports

import (
	"context"
	"time"

	"tally/contexts/finance-core/ledger-service/domain/entities"
)

// TransferLimits are the config-supplied authorization bounds checked inside
// the storage transaction, so the balance snapshot they act on is consistent.
type TransferLimits struct {
	MaxTransactionAmount int64
	MaxParallelDebtors   int
}

// BalanceDrift reports a cached balance that no longer matches the
// transaction aggregate for one user.
type BalanceDrift struct {
	UserID   string
	Cached   int64
	Computed int64
}

type UserRepository interface {
	CreateUser(ctx context.Context, user entities.User) error
	GetUser(ctx context.Context, userID string) (entities.User, error)
	ListUsers(ctx context.Context) ([]entities.User, error)
	UpdateVoucher(ctx context.Context, userID string, voucherID *string) error
	// GetCommunityUser resolves the distinguished special user.
	GetCommunityUser(ctx context.Context) (entities.User, error)
	// EnsureCommunityUser creates the special user when absent and returns
	// the current row either way.
	EnsureCommunityUser(ctx context.Context, user entities.User) (entities.User, error)
}

type TransactionRepository interface {
	// CreateTransaction appends the row and adjusts both balance caches in
	// one atomic storage transaction. The debtor ceiling is enforced against
	// the locked sender row; a losing race returns the retryable conflict
	// error.
	CreateTransaction(ctx context.Context, txn entities.Transaction, limits TransferLimits) (entities.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]entities.Transaction, error)
	// BalanceOf recomputes the exact balance from the transaction set.
	BalanceOf(ctx context.Context, userID string) (int64, error)
	ListBalanceDrift(ctx context.Context) ([]BalanceDrift, error)
	RepairBalance(ctx context.Context, userID string, balance int64) error
}

// EventPublisher hands a committed state change to the callback dispatcher.
// Publishing never blocks and never fails the producing operation.
type EventPublisher interface {
	Publish(eventType string, data map[string]any)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
