package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"tally/contexts/finance-core/ledger-service/domain/entities"
	domainerrors "tally/contexts/finance-core/ledger-service/domain/errors"
	"tally/contexts/finance-core/ledger-service/ports"

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

func (r *Repository) CreateUser(ctx context.Context, user entities.User) error {
	row := userModelFromEntity(user)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("ledger_repo_create_user_failed", err, "user_id", user.UserID)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, userID string) (entities.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrUserNotFound
		}
		return entities.User{}, r.logError("ledger_repo_get_user_failed", err, "user_id", strings.TrimSpace(userID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]entities.User, error) {
	var rows []userModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_users_failed", err)
	}
	items := make([]entities.User, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpdateVoucher(ctx context.Context, userID string, voucherID *string) error {
	result := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", strings.TrimSpace(userID)).
		Updates(map[string]any{
			"voucher_id": voucherID,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return r.logError("ledger_repo_update_voucher_failed", result.Error, "user_id", strings.TrimSpace(userID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}
	return nil
}

func (r *Repository) GetCommunityUser(ctx context.Context) (entities.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("special IS TRUE").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrCommunityMissing
		}
		return entities.User{}, r.logError("ledger_repo_get_community_failed", err)
	}
	return row.toEntity(), nil
}

func (r *Repository) EnsureCommunityUser(ctx context.Context, user entities.User) (entities.User, error) {
	existing, err := r.GetCommunityUser(ctx)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domainerrors.ErrCommunityMissing) {
		return entities.User{}, err
	}

	user.Special = true
	row := userModelFromEntity(user)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		// The unique special marker means a concurrent bootstrap won the
		// insert; read the winner instead of failing.
		if isUniqueViolation(err) {
			return r.GetCommunityUser(ctx)
		}
		return entities.User{}, r.logError("ledger_repo_ensure_community_failed", err)
	}
	return row.toEntity(), nil
}

func (r *Repository) CreateTransaction(
	ctx context.Context,
	txn entities.Transaction,
	limits ports.TransferLimits,
) (entities.Transaction, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock both user rows in a fixed order so two concurrent transfers
		// between the same pair cannot deadlock.
		ids := []string{txn.SenderID, txn.ReceiverID}
		sort.Strings(ids)
		var locked []userModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", ids).
			Order("id ASC").
			Find(&locked).Error; err != nil {
			return err
		}
		if len(locked) != 2 {
			return domainerrors.ErrUserNotFound
		}

		var sender, receiver userModel
		for _, row := range locked {
			switch row.ID {
			case txn.SenderID:
				sender = row
			case txn.ReceiverID:
				receiver = row
			}
		}
		if !sender.Active || !receiver.Active {
			return domainerrors.ErrUserInactive
		}

		senderSpecial := sender.Special != nil && *sender.Special
		if limits.MaxParallelDebtors > 0 && !senderSpecial &&
			sender.Balance >= 0 && sender.Balance-txn.Amount < 0 {
			var debtors int64
			if err := tx.Model(&userModel{}).
				Where("balance < 0").
				Count(&debtors).Error; err != nil {
				return err
			}
			if debtors >= int64(limits.MaxParallelDebtors) {
				return domainerrors.ErrTooManyDebtors
			}
		}

		row := transactionModel{
			ID:                 txn.TransactionID,
			SenderID:           txn.SenderID,
			ReceiverID:         txn.ReceiverID,
			Amount:             txn.Amount,
			Reason:             txn.Reason,
			MultiTransactionID: txn.MultiTransactionID,
			CreatedAt:          txn.CreatedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		if err := tx.Model(&userModel{}).
			Where("id = ?", sender.ID).
			Updates(map[string]any{
				"balance":    gorm.Expr("balance - ?", txn.Amount),
				"updated_at": txn.CreatedAt,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&userModel{}).
			Where("id = ?", receiver.ID).
			Updates(map[string]any{
				"balance":    gorm.Expr("balance + ?", txn.Amount),
				"updated_at": txn.CreatedAt,
			}).Error
	})
	if err != nil {
		if isDomainError(err) {
			return entities.Transaction{}, err
		}
		if isUniqueViolation(err) {
			return entities.Transaction{}, domainerrors.ErrConflict
		}
		return entities.Transaction{}, r.logError("ledger_repo_create_transaction_failed", err,
			"transaction_id", txn.TransactionID,
			"sender_id", txn.SenderID,
			"receiver_id", txn.ReceiverID,
		)
	}
	return txn, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]entities.Transaction, error) {
	tx := r.db.WithContext(ctx).Model(&transactionModel{})
	if strings.TrimSpace(userID) != "" {
		tx = tx.Where("sender_id = ? OR receiver_id = ?", strings.TrimSpace(userID), strings.TrimSpace(userID))
	}
	var rows []transactionModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_transactions_failed", err, "user_id", strings.TrimSpace(userID))
	}
	items := make([]entities.Transaction, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) BalanceOf(ctx context.Context, userID string) (int64, error) {
	id := strings.TrimSpace(userID)
	var received, sent int64
	if err := r.db.WithContext(ctx).Model(&transactionModel{}).
		Where("receiver_id = ?", id).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&received).Error; err != nil {
		return 0, r.logError("ledger_repo_balance_received_failed", err, "user_id", id)
	}
	if err := r.db.WithContext(ctx).Model(&transactionModel{}).
		Where("sender_id = ?", id).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sent).Error; err != nil {
		return 0, r.logError("ledger_repo_balance_sent_failed", err, "user_id", id)
	}
	return received - sent, nil
}

func (r *Repository) ListBalanceDrift(ctx context.Context) ([]ports.BalanceDrift, error) {
	users, err := r.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	var drifted []ports.BalanceDrift
	for _, user := range users {
		computed, err := r.BalanceOf(ctx, user.UserID)
		if err != nil {
			return nil, err
		}
		if computed != user.Balance {
			drifted = append(drifted, ports.BalanceDrift{
				UserID:   user.UserID,
				Cached:   user.Balance,
				Computed: computed,
			})
		}
	}
	return drifted, nil
}

func (r *Repository) RepairBalance(ctx context.Context, userID string, balance int64) error {
	result := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", strings.TrimSpace(userID)).
		Updates(map[string]any{
			"balance":    balance,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return r.logError("ledger_repo_repair_balance_failed", result.Error, "user_id", strings.TrimSpace(userID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "finance-core/ledger-service",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("ledger repository operation failed", fields...)
	return err
}

func isDomainError(err error) bool {
	return errors.Is(err, domainerrors.ErrUserNotFound) ||
		errors.Is(err, domainerrors.ErrUserInactive) ||
		errors.Is(err, domainerrors.ErrTooManyDebtors)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
