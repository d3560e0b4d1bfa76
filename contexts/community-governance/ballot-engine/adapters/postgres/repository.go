package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tally/contexts/community-governance/ballot-engine/domain/entities"
	domainerrors "tally/contexts/community-governance/ballot-engine/domain/errors"
	"tally/contexts/community-governance/ballot-engine/ports"

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

func (r *Repository) GetUser(ctx context.Context, userID string) (ports.UserAccount, error) {
	var row userProjectionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.UserAccount{}, domainerrors.ErrUserNotFound
		}
		return ports.UserAccount{}, r.logError("ballot_repo_get_user_failed", err, "user_id", strings.TrimSpace(userID))
	}
	return ports.UserAccount{
		UserID:     row.ID,
		Active:     row.Active,
		External:   row.External,
		Permission: row.Permission,
		VoucherID:  row.VoucherID,
	}, nil
}

func (r *Repository) CommunityUserID(ctx context.Context) (string, error) {
	var row userProjectionModel
	err := r.db.WithContext(ctx).
		Where("special = ?", true).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domainerrors.ErrCommunityMissing
		}
		return "", r.logError("ballot_repo_community_lookup_failed", err)
	}
	return row.ID, nil
}

func (r *Repository) CreateBallot(ctx context.Context, ballot entities.Ballot) error {
	row := ballotModelFromEntity(ballot)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("ballot_repo_create_failed", err, "ballot_id", ballot.BallotID)
	}
	return nil
}

func (r *Repository) GetBallot(ctx context.Context, ballotID string) (entities.Ballot, []entities.Vote, error) {
	var row ballotModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(ballotID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Ballot{}, nil, domainerrors.ErrNotFound
		}
		return entities.Ballot{}, nil, r.logError("ballot_repo_get_failed", err, "ballot_id", strings.TrimSpace(ballotID))
	}

	votes, err := loadVotes(r.db.WithContext(ctx), row.ID)
	if err != nil {
		return entities.Ballot{}, nil, r.logError("ballot_repo_load_votes_failed", err, "ballot_id", row.ID)
	}
	return row.toEntity(), votes, nil
}

func (r *Repository) ListBallots(
	ctx context.Context,
	kind entities.BallotKind,
	openOnly bool,
) ([]entities.Ballot, error) {
	tx := r.db.WithContext(ctx).Model(&ballotModel{}).Where("kind = ?", string(kind))
	if openOnly {
		tx = tx.Where("state = ?", string(entities.StateOpen))
	}
	var rows []ballotModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("ballot_repo_list_failed", err, "kind", string(kind))
	}
	items := make([]entities.Ballot, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// RecordVote applies one vote and any resulting closure in a single
// transaction. The ballot row is locked first so two deciding votes cannot
// both settle; the loser observes the closed state and gets the conflict
// error.
func (r *Repository) RecordVote(ctx context.Context, params ports.RecordVoteParams) (ports.VoteResult, error) {
	var result ports.VoteResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row ballotModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", params.BallotID).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNotFound
			}
			return err
		}
		if row.State != string(entities.StateOpen) {
			return domainerrors.ErrConflict
		}

		vote, err := upsertVote(tx, params)
		if err != nil {
			return err
		}

		votes, err := loadVotes(tx, row.ID)
		if err != nil {
			return err
		}
		tally := entities.Tally(votes)
		state := entities.EvaluateTally(tally, params.Thresholds)

		updates := map[string]any{"modified_at": params.Now.UTC()}
		if state != entities.StateOpen {
			updates["state"] = string(state)
			updates["closed_at"] = params.Now.UTC()
			row.ClosedAt = ptrTime(params.Now.UTC())
		}
		if state == entities.StateAccepted {
			if err := applyAcceptance(tx, &row, params, updates); err != nil {
				return err
			}
		}
		if err := tx.Model(&ballotModel{}).Where("id = ?", row.ID).Updates(updates).Error; err != nil {
			return err
		}

		row.State = string(state)
		row.ModifiedAt = params.Now.UTC()
		result = ports.VoteResult{
			Ballot: row.toEntity(),
			Vote:   vote,
			Tally:  tally,
		}
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return ports.VoteResult{}, err
		}
		if isUniqueViolation(err) {
			return ports.VoteResult{}, domainerrors.ErrConflict
		}
		return ports.VoteResult{}, r.logError("ballot_repo_record_vote_failed", err,
			"ballot_id", params.BallotID,
			"voter_id", params.VoterID,
		)
	}
	return result, nil
}

func (r *Repository) Abort(ctx context.Context, ballotID string, closedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&ballotModel{}).
		Where("id = ? AND state = ?", strings.TrimSpace(ballotID), string(entities.StateOpen)).
		Updates(map[string]any{
			"state":       string(entities.StateAborted),
			"modified_at": closedAt.UTC(),
			"closed_at":   closedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("ballot_repo_abort_failed", result.Error, "ballot_id", strings.TrimSpace(ballotID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func upsertVote(tx *gorm.DB, params ports.RecordVoteParams) (entities.Vote, error) {
	var existing voteModel
	err := tx.Where("ballot_id = ? AND user_id = ?", params.BallotID, params.VoterID).
		First(&existing).
		Error
	switch {
	case err == nil:
		existing.Approve = params.Approve
		existing.ModifiedAt = params.Now.UTC()
		if err := tx.Model(&voteModel{}).Where("id = ?", existing.ID).Updates(map[string]any{
			"approve":     params.Approve,
			"modified_at": params.Now.UTC(),
		}).Error; err != nil {
			return entities.Vote{}, err
		}
		return existing.toEntity(), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		row := voteModel{
			ID:         params.VoteID,
			BallotID:   params.BallotID,
			UserID:     params.VoterID,
			Approve:    params.Approve,
			ModifiedAt: params.Now.UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return entities.Vote{}, err
		}
		return row.toEntity(), nil
	default:
		return entities.Vote{}, err
	}
}

func applyAcceptance(
	tx *gorm.DB,
	row *ballotModel,
	params ports.RecordVoteParams,
	updates map[string]any,
) error {
	switch entities.BallotKind(row.Kind) {
	case entities.KindRefund:
		txnRow := transactionModel{
			ID:         params.TransactionID,
			SenderID:   params.CommunityID,
			ReceiverID: row.CreatorID,
			Amount:     row.Amount,
			Reason:     params.Reason,
			CreatedAt:  params.Now.UTC(),
		}
		if err := tx.Create(&txnRow).Error; err != nil {
			return err
		}
		if err := tx.Model(&userProjectionModel{}).
			Where("id = ?", params.CommunityID).
			Updates(map[string]any{
				"balance":    gorm.Expr("balance - ?", row.Amount),
				"updated_at": params.Now.UTC(),
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&userProjectionModel{}).
			Where("id = ?", row.CreatorID).
			Updates(map[string]any{
				"balance":    gorm.Expr("balance + ?", row.Amount),
				"updated_at": params.Now.UTC(),
			}).Error; err != nil {
			return err
		}
		updates["transaction_id"] = params.TransactionID
		transactionID := params.TransactionID
		row.TransactionID = &transactionID
		return nil
	case entities.KindPoll:
		flagUpdates := map[string]any{"updated_at": params.Now.UTC()}
		switch entities.PollVariant(row.Variant) {
		case entities.VariantGetInternal:
			flagUpdates["external"] = false
			flagUpdates["voucher_id"] = nil
		case entities.VariantLoseInternal:
			flagUpdates["external"] = true
			flagUpdates["permission"] = false
		case entities.VariantGetPermission:
			flagUpdates["permission"] = true
		case entities.VariantLosePermission:
			flagUpdates["permission"] = false
		}
		return tx.Model(&userProjectionModel{}).
			Where("id = ?", row.TargetUserID).
			Updates(flagUpdates).Error
	}
	return nil
}

func loadVotes(tx *gorm.DB, ballotID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := tx.Where("ballot_id = ?", ballotID).
		Order("modified_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	votes := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		votes = append(votes, row.toEntity())
	}
	return votes, nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "community-governance/ballot-engine",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("ballot repository operation failed", fields...)
	return err
}

func isDomainError(err error) bool {
	return errors.Is(err, domainerrors.ErrNotFound) ||
		errors.Is(err, domainerrors.ErrConflict)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func ptrTime(t time.Time) *time.Time { return &t }
