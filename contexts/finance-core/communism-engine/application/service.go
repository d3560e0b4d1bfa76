package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tally/contexts/finance-core/communism-engine/domain/entities"
	domainerrors "tally/contexts/finance-core/communism-engine/domain/errors"
	"tally/contexts/finance-core/communism-engine/ports"
)

// CreateCommunismInput opens a new group expense.
type CreateCommunismInput struct {
	CreatorID   string
	Amount      int64
	Description string
}

// CloseResult carries the settled communism and its settlement grouping.
type CloseResult struct {
	Communism        entities.Communism
	MultiTransaction entities.MultiTransaction
}

// Service orchestrates the communism lifecycle: open, participant changes,
// settlement and abort. Settlement writes are delegated to the repository as
// one atomic unit; events are published only after that unit has committed.
type Service struct {
	Communisms ports.CommunismRepository
	Users      ports.UserDirectory
	Publisher  ports.EventPublisher
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (s Service) CreateCommunism(ctx context.Context, input CreateCommunismInput) (entities.Communism, error) {
	logger := ResolveLogger(s.Logger)
	if input.Amount <= 0 {
		return entities.Communism{}, domainerrors.ErrInvalidAmount
	}
	creator, err := s.Users.GetUser(ctx, strings.TrimSpace(input.CreatorID))
	if err != nil {
		return entities.Communism{}, err
	}
	if !creator.Eligible() {
		return entities.Communism{}, domainerrors.ErrUserIneligible
	}

	communismID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Communism{}, err
	}
	now := s.now()
	communism := entities.Communism{
		CommunismID: communismID,
		Active:      true,
		Amount:      input.Amount,
		Description: strings.TrimSpace(input.Description),
		CreatorID:   creator.UserID,
		Participants: []entities.Participant{
			{UserID: creator.UserID, Quantity: 1},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Communisms.CreateCommunism(ctx, communism); err != nil {
		return entities.Communism{}, err
	}
	logger.Info("communism created",
		"event", "communism_created",
		"module", "finance-core/communism-engine",
		"layer", "application",
		"communism_id", communism.CommunismID,
		"creator_id", communism.CreatorID,
		"amount", communism.Amount,
	)
	s.publish("communism_created", map[string]any{
		"id":      communism.CommunismID,
		"creator": communism.CreatorID,
		"amount":  communism.Amount,
	})
	return communism, nil
}

func (s Service) GetCommunism(ctx context.Context, communismID string) (entities.Communism, error) {
	return s.Communisms.GetCommunism(ctx, strings.TrimSpace(communismID))
}

func (s Service) ListCommunisms(ctx context.Context, activeOnly bool) ([]entities.Communism, error) {
	return s.Communisms.ListCommunisms(ctx, activeOnly)
}

// maxParticipantQuantity bounds a single participant's weight so settlement
// arithmetic stays well within int64 range.
const maxParticipantQuantity = 1000

// SetParticipants replaces the participant mapping of an open communism.
// Quantity zero removes a participant; negative or oversized quantities are
// invalid.
func (s Service) SetParticipants(
	ctx context.Context,
	communismID string,
	quantities map[string]int64,
) (entities.Communism, error) {
	communism, err := s.Communisms.GetCommunism(ctx, strings.TrimSpace(communismID))
	if err != nil {
		return entities.Communism{}, err
	}
	if !communism.Active {
		return entities.Communism{}, domainerrors.ErrNotOpen
	}

	participants := make([]entities.Participant, 0, len(quantities))
	for userID, quantity := range quantities {
		if quantity < 0 || quantity > maxParticipantQuantity {
			return entities.Communism{}, domainerrors.ErrInvalidQuantity
		}
		if quantity == 0 {
			continue
		}
		user, err := s.Users.GetUser(ctx, strings.TrimSpace(userID))
		if err != nil {
			return entities.Communism{}, err
		}
		if !user.Eligible() {
			return entities.Communism{}, domainerrors.ErrUserIneligible
		}
		participants = append(participants, entities.Participant{
			UserID:   user.UserID,
			Quantity: quantity,
		})
	}

	now := s.now()
	if err := s.Communisms.ReplaceParticipants(ctx, communism.CommunismID, participants, now); err != nil {
		return entities.Communism{}, err
	}
	communism.Participants = participants
	communism.UpdatedAt = now
	s.publish("communism_updated", map[string]any{
		"id":           communism.CommunismID,
		"participants": len(participants),
	})
	return communism, nil
}

// CloseCommunism settles an open communism: the amount is split across the
// weighted participants and every non-creator share becomes one transaction
// to the creator, grouped under a fresh multi-transaction.
func (s Service) CloseCommunism(ctx context.Context, communismID string, issuerID string) (CloseResult, error) {
	logger := ResolveLogger(s.Logger)
	communism, err := s.Communisms.GetCommunism(ctx, strings.TrimSpace(communismID))
	if err != nil {
		return CloseResult{}, err
	}
	if !communism.Active {
		return CloseResult{}, domainerrors.ErrNotOpen
	}
	if strings.TrimSpace(issuerID) != communism.CreatorID {
		return CloseResult{}, domainerrors.ErrNotCreator
	}

	shares, err := entities.SplitShares(communism.Amount, communism.Participants)
	if err != nil {
		if errors.Is(err, domainerrors.ErrShareMismatch) {
			// Never expected; settling anyway would corrupt the ledger.
			logger.Error("settlement share mismatch",
				"event", "communism_share_mismatch",
				"module", "finance-core/communism-engine",
				"layer", "application",
				"communism_id", communism.CommunismID,
				"amount", communism.Amount,
			)
		}
		return CloseResult{}, err
	}

	multiTransactionID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return CloseResult{}, err
	}
	now := s.now()
	settlement := ports.Settlement{
		MultiTransactionID: multiTransactionID,
		TotalAmount:        communism.Amount,
		SettledAt:          now,
	}
	for _, share := range shares {
		if share.UserID == communism.CreatorID || share.Amount == 0 {
			continue
		}
		transactionID, err := s.IDGen.NewID(ctx)
		if err != nil {
			return CloseResult{}, err
		}
		settlement.Transactions = append(settlement.Transactions, ports.SettlementTransaction{
			TransactionID: transactionID,
			SenderID:      share.UserID,
			ReceiverID:    communism.CreatorID,
			Amount:        share.Amount,
			Reason:        fmt.Sprintf("communism: %s (%s)", communism.Description, communism.CommunismID),
		})
	}

	if err := s.Communisms.Settle(ctx, communism.CommunismID, settlement); err != nil {
		return CloseResult{}, err
	}

	communism.Active = false
	communism.MultiTransactionID = &settlement.MultiTransactionID
	communism.UpdatedAt = now
	logger.Info("communism settled",
		"event", "communism_settled",
		"module", "finance-core/communism-engine",
		"layer", "application",
		"communism_id", communism.CommunismID,
		"multi_transaction_id", settlement.MultiTransactionID,
		"transaction_count", len(settlement.Transactions),
	)
	s.publish("communism_closed", map[string]any{
		"id":           communism.CommunismID,
		"transactions": len(settlement.Transactions),
		"aborted":      false,
		"participants": len(communism.Participants),
	})
	return CloseResult{
		Communism: communism,
		MultiTransaction: entities.MultiTransaction{
			MultiTransactionID: settlement.MultiTransactionID,
			TotalAmount:        settlement.TotalAmount,
			CreatedAt:          now,
		},
	}, nil
}

// AbortCommunism cancels an open communism without writing transactions.
func (s Service) AbortCommunism(ctx context.Context, communismID string, issuerID string) (entities.Communism, error) {
	communism, err := s.Communisms.GetCommunism(ctx, strings.TrimSpace(communismID))
	if err != nil {
		return entities.Communism{}, err
	}
	if !communism.Active {
		return entities.Communism{}, domainerrors.ErrNotOpen
	}
	if strings.TrimSpace(issuerID) != communism.CreatorID {
		return entities.Communism{}, domainerrors.ErrNotCreator
	}

	now := s.now()
	if err := s.Communisms.Abort(ctx, communism.CommunismID, now); err != nil {
		return entities.Communism{}, err
	}
	communism.Active = false
	communism.Aborted = true
	communism.UpdatedAt = now
	ResolveLogger(s.Logger).Info("communism aborted",
		"event", "communism_aborted",
		"module", "finance-core/communism-engine",
		"layer", "application",
		"communism_id", communism.CommunismID,
	)
	s.publish("communism_closed", map[string]any{
		"id":           communism.CommunismID,
		"transactions": 0,
		"aborted":      true,
		"participants": len(communism.Participants),
	})
	return communism, nil
}

func (s Service) publish(eventType string, data map[string]any) {
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
