package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tally/contexts/finance-core/communism-engine/domain/entities"
	domainerrors "tally/contexts/finance-core/communism-engine/domain/errors"
	"tally/contexts/finance-core/communism-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// SystemClock satisfies ports.Clock with wall time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator satisfies ports.IDGenerator with random UUID strings.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(context.Context) (string, error) { return uuid.NewString(), nil }

func (r *Repository) GetUser(ctx context.Context, userID string) (ports.UserRef, error) {
	var row userProjectionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.UserRef{}, domainerrors.ErrUserNotFound
		}
		return ports.UserRef{}, r.logError("communism_repo_get_user_failed", err, "user_id", strings.TrimSpace(userID))
	}
	return ports.UserRef{
		UserID:     row.ID,
		Active:     row.Active,
		External:   row.External,
		HasVoucher: row.VoucherID != nil,
	}, nil
}

func (r *Repository) CreateCommunism(ctx context.Context, communism entities.Communism) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := communismModelFromEntity(communism)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return insertParticipants(tx, communism.CommunismID, communism.Participants)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("communism_repo_create_failed", err, "communism_id", communism.CommunismID)
	}
	return nil
}

func (r *Repository) GetCommunism(ctx context.Context, communismID string) (entities.Communism, error) {
	var row communismModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(communismID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Communism{}, domainerrors.ErrNotFound
		}
		return entities.Communism{}, r.logError("communism_repo_get_failed", err, "communism_id", strings.TrimSpace(communismID))
	}

	participants, err := r.loadParticipants(ctx, row.ID)
	if err != nil {
		return entities.Communism{}, err
	}
	return row.toEntity(participants), nil
}

func (r *Repository) ListCommunisms(ctx context.Context, activeOnly bool) ([]entities.Communism, error) {
	tx := r.db.WithContext(ctx).Model(&communismModel{})
	if activeOnly {
		tx = tx.Where("active = ?", true)
	}
	var rows []communismModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("communism_repo_list_failed", err)
	}
	items := make([]entities.Communism, 0, len(rows))
	for _, row := range rows {
		participants, err := r.loadParticipants(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, row.toEntity(participants))
	}
	return items, nil
}

func (r *Repository) ReplaceParticipants(
	ctx context.Context,
	communismID string,
	participants []entities.Participant,
	updatedAt time.Time,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockCommunism(tx, communismID)
		if err != nil {
			return err
		}
		if !row.Active {
			return domainerrors.ErrConflict
		}
		if err := tx.Where("communism_id = ?", communismID).
			Delete(&participantModel{}).Error; err != nil {
			return err
		}
		if err := insertParticipants(tx, communismID, participants); err != nil {
			return err
		}
		return tx.Model(&communismModel{}).
			Where("id = ?", communismID).
			Update("updated_at", updatedAt.UTC()).Error
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		return r.logError("communism_repo_replace_participants_failed", err, "communism_id", communismID)
	}
	return nil
}

func (r *Repository) Settle(ctx context.Context, communismID string, settlement ports.Settlement) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockCommunism(tx, communismID)
		if err != nil {
			return err
		}
		if !row.Active {
			return domainerrors.ErrConflict
		}

		multi := multiTransactionModel{
			ID:          settlement.MultiTransactionID,
			TotalAmount: settlement.TotalAmount,
			CreatedAt:   settlement.SettledAt.UTC(),
		}
		if err := tx.Create(&multi).Error; err != nil {
			return err
		}

		for _, txn := range settlement.Transactions {
			multiID := settlement.MultiTransactionID
			txnRow := transactionModel{
				ID:                 txn.TransactionID,
				SenderID:           txn.SenderID,
				ReceiverID:         txn.ReceiverID,
				Amount:             txn.Amount,
				Reason:             txn.Reason,
				MultiTransactionID: &multiID,
				CreatedAt:          settlement.SettledAt.UTC(),
			}
			if err := tx.Create(&txnRow).Error; err != nil {
				return err
			}
			if err := tx.Model(&userProjectionModel{}).
				Where("id = ?", txn.SenderID).
				Updates(map[string]any{
					"balance":    gorm.Expr("balance - ?", txn.Amount),
					"updated_at": settlement.SettledAt.UTC(),
				}).Error; err != nil {
				return err
			}
			if err := tx.Model(&userProjectionModel{}).
				Where("id = ?", txn.ReceiverID).
				Updates(map[string]any{
					"balance":    gorm.Expr("balance + ?", txn.Amount),
					"updated_at": settlement.SettledAt.UTC(),
				}).Error; err != nil {
				return err
			}
		}

		result := tx.Model(&communismModel{}).
			Where("id = ? AND active = ?", communismID, true).
			Updates(map[string]any{
				"active":               false,
				"multi_transaction_id": settlement.MultiTransactionID,
				"updated_at":           settlement.SettledAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrConflict
		}
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("communism_repo_settle_failed", err,
			"communism_id", communismID,
			"multi_transaction_id", settlement.MultiTransactionID,
		)
	}
	return nil
}

func (r *Repository) Abort(ctx context.Context, communismID string, abortedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&communismModel{}).
		Where("id = ? AND active = ?", strings.TrimSpace(communismID), true).
		Updates(map[string]any{
			"active":     false,
			"aborted":    true,
			"updated_at": abortedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("communism_repo_abort_failed", result.Error, "communism_id", strings.TrimSpace(communismID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) loadParticipants(ctx context.Context, communismID string) ([]entities.Participant, error) {
	var rows []participantModel
	if err := r.db.WithContext(ctx).
		Where("communism_id = ?", communismID).
		Order("user_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("communism_repo_load_participants_failed", err, "communism_id", communismID)
	}
	participants := make([]entities.Participant, 0, len(rows))
	for _, row := range rows {
		participants = append(participants, entities.Participant{
			UserID:   row.UserID,
			Quantity: row.Quantity,
		})
	}
	return participants, nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "finance-core/communism-engine",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("communism repository operation failed", fields...)
	return err
}

func lockCommunism(tx *gorm.DB, communismID string) (communismModel, error) {
	var row communismModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", strings.TrimSpace(communismID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return communismModel{}, domainerrors.ErrNotFound
		}
		return communismModel{}, err
	}
	return row, nil
}

func insertParticipants(tx *gorm.DB, communismID string, participants []entities.Participant) error {
	for _, participant := range participants {
		row := participantModel{
			CommunismID: communismID,
			UserID:      participant.UserID,
			Quantity:    participant.Quantity,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func isDomainError(err error) bool {
	return errors.Is(err, domainerrors.ErrNotFound) ||
		errors.Is(err, domainerrors.ErrConflict)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
