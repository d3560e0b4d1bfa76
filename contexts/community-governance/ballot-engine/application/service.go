package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tally/contexts/community-governance/ballot-engine/domain/entities"
	domainerrors "tally/contexts/community-governance/ballot-engine/domain/errors"
	"tally/contexts/community-governance/ballot-engine/ports"
)

// CreateRefundInput opens a refund ballot asking the community to pay the
// creator back.
type CreateRefundInput struct {
	CreatorID   string
	Amount      int64
	Description string
}

// CreatePollInput opens a membership poll about the target user.
type CreatePollInput struct {
	CreatorID    string
	Variant      entities.PollVariant
	TargetUserID string
}

// BallotDetail bundles a ballot with its current votes.
type BallotDetail struct {
	Ballot entities.Ballot
	Votes  []entities.Vote
}

// VoteOutcome is the state of the ballot right after one vote was applied.
type VoteOutcome struct {
	Ballot entities.Ballot
	Vote   entities.Vote
	Tally  int64
}

// Service drives the ballot lifecycle. The deciding vote and its accepted
// outcome (refund payout or membership flag change) are applied by the
// repository in one unit of work; the service only prepares the inputs and
// publishes events after the fact.
type Service struct {
	Ballots    ports.BallotRepository
	Users      ports.UserDirectory
	Publisher  ports.EventPublisher
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Refund     entities.Thresholds
	Membership entities.Thresholds
	Logger     *slog.Logger
}

func (s Service) CreateRefund(ctx context.Context, input CreateRefundInput) (entities.Ballot, error) {
	if input.Amount <= 0 {
		return entities.Ballot{}, domainerrors.ErrInvalidAmount
	}
	creator, err := s.Users.GetUser(ctx, strings.TrimSpace(input.CreatorID))
	if err != nil {
		return entities.Ballot{}, err
	}
	if !creator.Active {
		return entities.Ballot{}, domainerrors.ErrUserInactive
	}

	ballotID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Ballot{}, err
	}
	now := s.now()
	ballot := entities.Ballot{
		BallotID:    ballotID,
		Kind:        entities.KindRefund,
		State:       entities.StateOpen,
		CreatorID:   creator.UserID,
		Amount:      input.Amount,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	if err := s.Ballots.CreateBallot(ctx, ballot); err != nil {
		return entities.Ballot{}, err
	}
	s.logInfo("refund ballot created", "refund_created",
		"ballot_id", ballot.BallotID,
		"creator_id", ballot.CreatorID,
		"amount", ballot.Amount,
	)
	s.publish("refund_created", map[string]any{
		"id":      ballot.BallotID,
		"creator": ballot.CreatorID,
		"amount":  ballot.Amount,
	})
	return ballot, nil
}

func (s Service) CreatePoll(ctx context.Context, input CreatePollInput) (entities.Ballot, error) {
	if !entities.ValidVariant(input.Variant) {
		return entities.Ballot{}, domainerrors.ErrInvalidVariant
	}
	creator, err := s.Users.GetUser(ctx, strings.TrimSpace(input.CreatorID))
	if err != nil {
		return entities.Ballot{}, err
	}
	if !creator.Active {
		return entities.Ballot{}, domainerrors.ErrUserInactive
	}
	target, err := s.Users.GetUser(ctx, strings.TrimSpace(input.TargetUserID))
	if err != nil {
		return entities.Ballot{}, err
	}
	if !target.Active {
		return entities.Ballot{}, domainerrors.ErrUserInactive
	}
	if err := validatePollTarget(input.Variant, target); err != nil {
		return entities.Ballot{}, err
	}

	ballotID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Ballot{}, err
	}
	now := s.now()
	ballot := entities.Ballot{
		BallotID:     ballotID,
		Kind:         entities.KindPoll,
		State:        entities.StateOpen,
		CreatorID:    creator.UserID,
		Variant:      input.Variant,
		TargetUserID: target.UserID,
		CreatedAt:    now,
		ModifiedAt:   now,
	}
	if err := s.Ballots.CreateBallot(ctx, ballot); err != nil {
		return entities.Ballot{}, err
	}
	s.logInfo("membership poll created", "poll_created",
		"ballot_id", ballot.BallotID,
		"creator_id", ballot.CreatorID,
		"variant", string(ballot.Variant),
		"target_user_id", ballot.TargetUserID,
	)
	s.publish("poll_created", map[string]any{
		"id":      ballot.BallotID,
		"creator": ballot.CreatorID,
		"variant": string(ballot.Variant),
		"user":    ballot.TargetUserID,
	})
	return ballot, nil
}

func (s Service) GetRefund(ctx context.Context, ballotID string) (BallotDetail, error) {
	return s.getBallot(ctx, ballotID, entities.KindRefund)
}

func (s Service) GetPoll(ctx context.Context, ballotID string) (BallotDetail, error) {
	return s.getBallot(ctx, ballotID, entities.KindPoll)
}

func (s Service) ListRefunds(ctx context.Context, openOnly bool) ([]entities.Ballot, error) {
	return s.Ballots.ListBallots(ctx, entities.KindRefund, openOnly)
}

func (s Service) ListPolls(ctx context.Context, openOnly bool) ([]entities.Ballot, error) {
	return s.Ballots.ListBallots(ctx, entities.KindPoll, openOnly)
}

func (s Service) VoteOnRefund(ctx context.Context, ballotID, voterID string, approve bool) (VoteOutcome, error) {
	return s.vote(ctx, ballotID, voterID, approve, entities.KindRefund)
}

func (s Service) VoteOnPoll(ctx context.Context, ballotID, voterID string, approve bool) (VoteOutcome, error) {
	return s.vote(ctx, ballotID, voterID, approve, entities.KindPoll)
}

func (s Service) AbortRefund(ctx context.Context, ballotID, issuerID string) (entities.Ballot, error) {
	return s.abort(ctx, ballotID, issuerID, entities.KindRefund)
}

func (s Service) AbortPoll(ctx context.Context, ballotID, issuerID string) (entities.Ballot, error) {
	return s.abort(ctx, ballotID, issuerID, entities.KindPoll)
}

func (s Service) getBallot(ctx context.Context, ballotID string, kind entities.BallotKind) (BallotDetail, error) {
	ballot, votes, err := s.Ballots.GetBallot(ctx, strings.TrimSpace(ballotID))
	if err != nil {
		return BallotDetail{}, err
	}
	if ballot.Kind != kind {
		return BallotDetail{}, domainerrors.ErrNotFound
	}
	return BallotDetail{Ballot: ballot, Votes: votes}, nil
}

func (s Service) vote(
	ctx context.Context,
	ballotID string,
	voterID string,
	approve bool,
	kind entities.BallotKind,
) (VoteOutcome, error) {
	detail, err := s.getBallot(ctx, ballotID, kind)
	if err != nil {
		return VoteOutcome{}, err
	}
	ballot := detail.Ballot
	if !ballot.Open() {
		return VoteOutcome{}, domainerrors.ErrNotOpen
	}
	voter, err := s.Users.GetUser(ctx, strings.TrimSpace(voterID))
	if err != nil {
		return VoteOutcome{}, err
	}
	if !voter.CanVote() {
		return VoteOutcome{}, domainerrors.ErrVoterIneligible
	}
	if ballot.Kind == entities.KindRefund && voter.UserID == ballot.CreatorID {
		return VoteOutcome{}, domainerrors.ErrOwnBallot
	}

	params := ports.RecordVoteParams{
		BallotID:   ballot.BallotID,
		VoterID:    voter.UserID,
		Approve:    approve,
		Now:        s.now(),
		Thresholds: s.thresholds(ballot.Kind),
	}
	if params.VoteID, err = s.IDGen.NewID(ctx); err != nil {
		return VoteOutcome{}, err
	}
	if ballot.Kind == entities.KindRefund {
		// Prepared up front so the repository can write the payout inside
		// the voting transaction when this vote crosses the threshold.
		if params.CommunityID, err = s.Users.CommunityUserID(ctx); err != nil {
			return VoteOutcome{}, err
		}
		if params.TransactionID, err = s.IDGen.NewID(ctx); err != nil {
			return VoteOutcome{}, err
		}
		params.Reason = fmt.Sprintf("refund: %s (%s)", ballot.Description, ballot.BallotID)
	}

	result, err := s.Ballots.RecordVote(ctx, params)
	if err != nil {
		return VoteOutcome{}, err
	}

	s.logInfo("ballot vote recorded", "ballot_vote_recorded",
		"ballot_id", result.Ballot.BallotID,
		"kind", string(result.Ballot.Kind),
		"voter_id", voter.UserID,
		"approve", approve,
		"tally", result.Tally,
		"state", string(result.Ballot.State),
	)
	s.publishVoteEvents(result.Ballot, voter.UserID)
	return VoteOutcome{
		Ballot: result.Ballot,
		Vote:   result.Vote,
		Tally:  result.Tally,
	}, nil
}

func (s Service) abort(
	ctx context.Context,
	ballotID string,
	issuerID string,
	kind entities.BallotKind,
) (entities.Ballot, error) {
	detail, err := s.getBallot(ctx, ballotID, kind)
	if err != nil {
		return entities.Ballot{}, err
	}
	ballot := detail.Ballot
	if !ballot.Open() {
		return entities.Ballot{}, domainerrors.ErrNotOpen
	}
	if strings.TrimSpace(issuerID) != ballot.CreatorID {
		return entities.Ballot{}, domainerrors.ErrNotCreator
	}

	now := s.now()
	if err := s.Ballots.Abort(ctx, ballot.BallotID, now); err != nil {
		return entities.Ballot{}, err
	}
	ballot.State = entities.StateAborted
	ballot.ModifiedAt = now
	ballot.ClosedAt = &now
	s.logInfo("ballot aborted", "ballot_aborted",
		"ballot_id", ballot.BallotID,
		"kind", string(ballot.Kind),
	)
	switch ballot.Kind {
	case entities.KindRefund:
		s.publish("refund_closed", map[string]any{
			"id":          ballot.BallotID,
			"accepted":    false,
			"aborted":     true,
			"transaction": nil,
		})
	case entities.KindPoll:
		s.publish("poll_closed", map[string]any{
			"id":        ballot.BallotID,
			"accepted":  false,
			"aborted":   true,
			"variant":   string(ballot.Variant),
			"user":      ballot.TargetUserID,
			"last_vote": nil,
		})
	}
	return ballot, nil
}

func (s Service) publishVoteEvents(ballot entities.Ballot, lastVoterID string) {
	switch {
	case ballot.Open() && ballot.Kind == entities.KindRefund:
		s.publish("refund_updated", map[string]any{
			"id":        ballot.BallotID,
			"last_vote": lastVoterID,
		})
	case ballot.Open():
		s.publish("poll_updated", map[string]any{
			"id":        ballot.BallotID,
			"last_vote": lastVoterID,
		})
	case ballot.Kind == entities.KindRefund:
		var transactionID any
		if ballot.TransactionID != nil {
			transactionID = *ballot.TransactionID
		}
		s.publish("refund_closed", map[string]any{
			"id":          ballot.BallotID,
			"accepted":    ballot.State == entities.StateAccepted,
			"aborted":     false,
			"transaction": transactionID,
		})
	default:
		s.publish("poll_closed", map[string]any{
			"id":        ballot.BallotID,
			"accepted":  ballot.State == entities.StateAccepted,
			"aborted":   false,
			"variant":   string(ballot.Variant),
			"user":      ballot.TargetUserID,
			"last_vote": lastVoterID,
		})
	}
}

func (s Service) thresholds(kind entities.BallotKind) entities.Thresholds {
	if kind == entities.KindRefund {
		return s.Refund
	}
	return s.Membership
}

func validatePollTarget(variant entities.PollVariant, target ports.UserAccount) error {
	switch variant {
	case entities.VariantGetInternal:
		if !target.External {
			return domainerrors.ErrInvalidTarget
		}
	case entities.VariantLoseInternal:
		if target.External {
			return domainerrors.ErrInvalidTarget
		}
	case entities.VariantGetPermission:
		if target.External || target.Permission {
			return domainerrors.ErrInvalidTarget
		}
	case entities.VariantLosePermission:
		if target.External || !target.Permission {
			return domainerrors.ErrInvalidTarget
		}
	}
	return nil
}

func (s Service) publish(eventType string, data map[string]any) {
	if s.Publisher == nil {
		return
	}
	s.Publisher.Publish(eventType, data)
}

func (s Service) logInfo(msg string, event string, args ...any) {
	fields := append([]any{
		"event", event,
		"module", "community-governance/ballot-engine",
		"layer", "application",
	}, args...)
	ResolveLogger(s.Logger).Info(msg, fields...)
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
