package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tally/contexts/integrations/callback-dispatcher/domain/entities"
	domainerrors "tally/contexts/integrations/callback-dispatcher/domain/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
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

func (r *Repository) CreateCallback(ctx context.Context, callback entities.Callback) error {
	row := callbackModel{
		ID:        callback.CallbackID,
		URL:       callback.URL,
		Secret:    callback.Secret,
		CreatedAt: callback.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicate
		}
		return r.logError("callback_repo_create_failed", err, "callback_id", callback.CallbackID)
	}
	return nil
}

func (r *Repository) ListCallbacks(ctx context.Context) ([]entities.Callback, error) {
	var rows []callbackModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("callback_repo_list_failed", err)
	}
	items := make([]entities.Callback, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) DeleteCallback(ctx context.Context, callbackID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(callbackID)).
		Delete(&callbackModel{})
	if result.Error != nil {
		return r.logError("callback_repo_delete_failed", result.Error, "callback_id", strings.TrimSpace(callbackID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "integrations/callback-dispatcher",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("callback repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
