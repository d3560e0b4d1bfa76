package ports

import (
	"context"
	"time"

	"tally/contexts/community-governance/ballot-engine/domain/entities"
)

// UserAccount is the ballot engine's projection of a ledger user.
type UserAccount struct {
	UserID     string
	Active     bool
	External   bool
	Permission bool
	VoucherID  *string
}

// CanVote reports whether the account may cast ballot votes. Only active
// internal members holding the permission flag count towards consensus.
func (u UserAccount) CanVote() bool {
	return u.Active && !u.External && u.Permission
}

// UserDirectory resolves user accounts and the community user.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (UserAccount, error)
	CommunityUserID(ctx context.Context) (string, error)
}

// RecordVoteParams carries everything the repository needs to apply a vote
// and, when a threshold is crossed, the accepted outcome in one unit of
// work. TransactionID and Reason are only consumed when a refund ballot
// gets accepted by this vote; CommunityID is the payout sender.
type RecordVoteParams struct {
	BallotID      string
	VoteID        string
	VoterID       string
	Approve       bool
	Now           time.Time
	Thresholds    entities.Thresholds
	CommunityID   string
	TransactionID string
	Reason        string
}

// VoteResult is the post-vote view of the ballot.
type VoteResult struct {
	Ballot entities.Ballot
	Vote   entities.Vote
	Tally  int64
}

// BallotRepository persists ballots and votes. RecordVote must upsert the
// vote, re-evaluate the tally and apply any resulting state flip plus its
// side effects atomically; a ballot found closed inside that unit of work
// fails with the conflict error.
type BallotRepository interface {
	CreateBallot(ctx context.Context, ballot entities.Ballot) error
	GetBallot(ctx context.Context, ballotID string) (entities.Ballot, []entities.Vote, error)
	ListBallots(ctx context.Context, kind entities.BallotKind, openOnly bool) ([]entities.Ballot, error)
	RecordVote(ctx context.Context, params RecordVoteParams) (VoteResult, error)
	Abort(ctx context.Context, ballotID string, closedAt time.Time) error
}

// EventPublisher forwards domain events to the callback dispatcher. It
// never blocks and never fails the caller.
type EventPublisher interface {
	Publish(eventType string, data map[string]any)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
