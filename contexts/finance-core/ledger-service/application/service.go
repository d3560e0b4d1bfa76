package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tally/contexts/finance-core/ledger-service/domain/entities"
	domainerrors "tally/contexts/finance-core/ledger-service/domain/errors"
	"tally/contexts/finance-core/ledger-service/ports"
)

// CreateUserInput is the write-model input for user creation.
type CreateUserInput struct {
	Name      string
	External  bool
	VoucherID string
}

// TransferInput is the write-model input for a direct value transfer.
type TransferInput struct {
	SenderID   string
	ReceiverID string
	Amount     int64
	Reason     string
}

// ConsumeInput pays quantity x price to the community user.
type ConsumeInput struct {
	UserID       string
	Quantity     int
	PricePerUnit int64
	Reason       string
}

// Service orchestrates ledger writes: user management, direct transfers and
// consumption. Every multi-row mutation happens inside one storage
// transaction owned by the repository.
type Service struct {
	Users                      ports.UserRepository
	Transactions               ports.TransactionRepository
	Publisher                  ports.EventPublisher
	Clock                      ports.Clock
	IDGen                      ports.IDGenerator
	MaxTransactionAmount       int64
	MaxParallelDebtors         int
	MaxSimultaneousConsumption int
	Logger                     *slog.Logger
}

func (s Service) CreateUser(ctx context.Context, input CreateUserInput) (entities.User, error) {
	logger := ResolveLogger(s.Logger)
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return entities.User{}, domainerrors.ErrInvalidUserInput
	}

	var voucherID *string
	if trimmed := strings.TrimSpace(input.VoucherID); trimmed != "" {
		if !input.External {
			return entities.User{}, domainerrors.ErrInvalidUserInput
		}
		voucher, err := s.Users.GetUser(ctx, trimmed)
		if err != nil {
			return entities.User{}, err
		}
		if voucher.External || !voucher.Active {
			return entities.User{}, domainerrors.ErrVoucherInvalid
		}
		voucherID = &voucher.UserID
	}

	userID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.User{}, err
	}
	now := s.now()
	user := entities.User{
		UserID:    userID,
		Name:      name,
		Balance:   0,
		Active:    true,
		External:  input.External,
		VoucherID: voucherID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		return entities.User{}, err
	}
	logger.Info("user created",
		"event", "ledger_user_created",
		"module", "finance-core/ledger-service",
		"layer", "application",
		"user_id", user.UserID,
		"external", user.External,
	)
	s.publish("user_created", map[string]any{
		"id":       user.UserID,
		"external": user.External,
	})
	return user, nil
}

// SetVoucher lets an internal user vouch for an external one. A nil voucher
// clears the reference, which is only allowed while the external user is not
// in debt.
func (s Service) SetVoucher(ctx context.Context, userID string, voucherID *string) (entities.User, error) {
	logger := ResolveLogger(s.Logger)
	user, err := s.Users.GetUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return entities.User{}, err
	}
	if !user.External {
		return entities.User{}, domainerrors.ErrInvalidUserInput
	}

	if voucherID == nil {
		balance, err := s.Transactions.BalanceOf(ctx, user.UserID)
		if err != nil {
			return entities.User{}, err
		}
		if balance < 0 {
			return entities.User{}, domainerrors.ErrVoucherDebt
		}
	} else {
		voucher, err := s.Users.GetUser(ctx, strings.TrimSpace(*voucherID))
		if err != nil {
			return entities.User{}, err
		}
		if voucher.External || !voucher.Active {
			return entities.User{}, domainerrors.ErrVoucherInvalid
		}
		voucherID = &voucher.UserID
	}

	if err := s.Users.UpdateVoucher(ctx, user.UserID, voucherID); err != nil {
		return entities.User{}, err
	}
	user.VoucherID = voucherID
	user.UpdatedAt = s.now()
	logger.Info("voucher updated",
		"event", "ledger_voucher_updated",
		"module", "finance-core/ledger-service",
		"layer", "application",
		"user_id", user.UserID,
		"has_voucher", voucherID != nil,
	)
	s.publish("user_updated", map[string]any{
		"id": user.UserID,
	})
	return user, nil
}

func (s Service) GetUser(ctx context.Context, userID string) (entities.User, error) {
	return s.Users.GetUser(ctx, strings.TrimSpace(userID))
}

func (s Service) ListUsers(ctx context.Context) ([]entities.User, error) {
	return s.Users.ListUsers(ctx)
}

func (s Service) CommunityUser(ctx context.Context) (entities.User, error) {
	return s.Users.GetCommunityUser(ctx)
}

// BalanceOf returns the exact balance derived from the transaction set, not
// the cached column. Authorization decisions must use this value.
func (s Service) BalanceOf(ctx context.Context, userID string) (int64, error) {
	if _, err := s.Users.GetUser(ctx, strings.TrimSpace(userID)); err != nil {
		return 0, err
	}
	return s.Transactions.BalanceOf(ctx, strings.TrimSpace(userID))
}

func (s Service) ListTransactions(ctx context.Context, userID string) ([]entities.Transaction, error) {
	return s.Transactions.ListTransactions(ctx, strings.TrimSpace(userID))
}

// Transfer performs a direct value transfer between two users.
func (s Service) Transfer(ctx context.Context, input TransferInput) (entities.Transaction, error) {
	logger := ResolveLogger(s.Logger)
	txn, err := s.transfer(ctx, input)
	if err != nil {
		logger.Warn("transfer rejected",
			"event", "ledger_transfer_rejected",
			"module", "finance-core/ledger-service",
			"layer", "application",
			"sender_id", strings.TrimSpace(input.SenderID),
			"receiver_id", strings.TrimSpace(input.ReceiverID),
			"amount", input.Amount,
			"error", err.Error(),
		)
		return entities.Transaction{}, err
	}
	logger.Info("transaction created",
		"event", "ledger_transaction_created",
		"module", "finance-core/ledger-service",
		"layer", "application",
		"transaction_id", txn.TransactionID,
		"sender_id", txn.SenderID,
		"receiver_id", txn.ReceiverID,
		"amount", txn.Amount,
	)
	s.publish("transaction_created", map[string]any{
		"id":       txn.TransactionID,
		"sender":   txn.SenderID,
		"receiver": txn.ReceiverID,
		"amount":   txn.Amount,
		"reason":   txn.Reason,
	})
	return txn, nil
}

// Consume pays quantity x price from the user to the community user.
func (s Service) Consume(ctx context.Context, input ConsumeInput) (entities.Transaction, error) {
	if input.Quantity < 1 || input.Quantity > s.MaxSimultaneousConsumption {
		return entities.Transaction{}, domainerrors.ErrInvalidQuantity
	}
	if input.PricePerUnit <= 0 {
		return entities.Transaction{}, domainerrors.ErrInvalidAmount
	}
	community, err := s.Users.GetCommunityUser(ctx)
	if err != nil {
		return entities.Transaction{}, err
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = "consumption"
	}
	return s.Transfer(ctx, TransferInput{
		SenderID:   input.UserID,
		ReceiverID: community.UserID,
		Amount:     int64(input.Quantity) * input.PricePerUnit,
		Reason:     fmt.Sprintf("consume: %s (%dx)", reason, input.Quantity),
	})
}

func (s Service) transfer(ctx context.Context, input TransferInput) (entities.Transaction, error) {
	senderID := strings.TrimSpace(input.SenderID)
	receiverID := strings.TrimSpace(input.ReceiverID)
	if input.Amount <= 0 {
		return entities.Transaction{}, domainerrors.ErrInvalidAmount
	}
	if s.MaxTransactionAmount > 0 && input.Amount > s.MaxTransactionAmount {
		return entities.Transaction{}, domainerrors.ErrAmountTooLarge
	}
	if senderID == "" || receiverID == "" {
		return entities.Transaction{}, domainerrors.ErrInvalidUserInput
	}
	if senderID == receiverID {
		return entities.Transaction{}, domainerrors.ErrSameUser
	}

	sender, err := s.Users.GetUser(ctx, senderID)
	if err != nil {
		return entities.Transaction{}, err
	}
	receiver, err := s.Users.GetUser(ctx, receiverID)
	if err != nil {
		return entities.Transaction{}, err
	}
	if !sender.Active || !receiver.Active {
		return entities.Transaction{}, domainerrors.ErrUserInactive
	}
	if sender.External && sender.VoucherID == nil {
		return entities.Transaction{}, domainerrors.ErrVoucherRequired
	}

	transactionID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Transaction{}, err
	}
	txn := entities.Transaction{
		TransactionID: transactionID,
		SenderID:      sender.UserID,
		ReceiverID:    receiver.UserID,
		Amount:        input.Amount,
		Reason:        strings.TrimSpace(input.Reason),
		CreatedAt:     s.now(),
	}
	return s.Transactions.CreateTransaction(ctx, txn, ports.TransferLimits{
		MaxTransactionAmount: s.MaxTransactionAmount,
		MaxParallelDebtors:   s.MaxParallelDebtors,
	})
}

func (s Service) publish(eventType string, data map[string]any) {
	// Publisher is optional for pure read/test wiring, so nil is a no-op.
	if s.Publisher == nil {
		return
	}
	s.Publisher.Publish(eventType, data)
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
