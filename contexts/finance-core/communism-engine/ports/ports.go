package ports

import (
	"context"
	"time"

	"tally/contexts/finance-core/communism-engine/domain/entities"
)

// UserRef is the slice of user state the engine needs for eligibility checks.
type UserRef struct {
	UserID     string
	Active     bool
	External   bool
	HasVoucher bool
}

// Eligible reports whether the user may take part in a communism: active,
// and vouched for when external.
func (u UserRef) Eligible() bool {
	return u.Active && (!u.External || u.HasVoucher)
}

type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (UserRef, error)
}

// SettlementTransaction is one participant-to-creator transfer of a
// settlement, written under the settlement's multi-transaction.
type SettlementTransaction struct {
	TransactionID string
	SenderID      string
	ReceiverID    string
	Amount        int64
	Reason        string
}

// Settlement is the full write set of one close operation.
type Settlement struct {
	MultiTransactionID string
	TotalAmount        int64
	Transactions       []SettlementTransaction
	SettledAt          time.Time
}

type CommunismRepository interface {
	CreateCommunism(ctx context.Context, communism entities.Communism) error
	GetCommunism(ctx context.Context, communismID string) (entities.Communism, error)
	ListCommunisms(ctx context.Context, activeOnly bool) ([]entities.Communism, error)
	// ReplaceParticipants swaps the participant set while the communism is
	// open; a mid-flight close surfaces the retryable conflict error.
	ReplaceParticipants(ctx context.Context, communismID string, participants []entities.Participant, updatedAt time.Time) error
	// Settle atomically writes the multi-transaction plus its child
	// transactions, adjusts the balance caches and marks the communism
	// settled. It fails with the conflict error when the row is no longer
	// open at write time.
	Settle(ctx context.Context, communismID string, settlement Settlement) error
	// Abort marks an open communism aborted without writing transactions.
	Abort(ctx context.Context, communismID string, abortedAt time.Time) error
}

type EventPublisher interface {
	Publish(eventType string, data map[string]any)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
