package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tally/contexts/community-governance/ballot-engine/domain/entities"
	domainerrors "tally/contexts/community-governance/ballot-engine/domain/errors"
	"tally/contexts/community-governance/ballot-engine/ports"

	"github.com/google/uuid"
)

// Payout is a recorded refund transaction, exposed for assertions.
type Payout struct {
	TransactionID string
	SenderID      string
	ReceiverID    string
	Amount        int64
	Reason        string
}

// Store is the in-memory adapter used by tests and local wiring. One mutex
// guards all state so RecordVote applies the vote, the state flip and the
// accepted outcome as one atomic step, mirroring the postgres transaction.
type Store struct {
	mu          sync.Mutex
	users       map[string]ports.UserAccount
	communityID string
	balances    map[string]int64
	ballots     map[string]entities.Ballot
	votes       map[string][]entities.Vote
	payouts     map[string]Payout
	fixedNow    *time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]ports.UserAccount),
		balances: make(map[string]int64),
		ballots:  make(map[string]entities.Ballot),
		votes:    make(map[string][]entities.Vote),
		payouts:  make(map[string]Payout),
	}
}

func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pinned := now.UTC()
	s.fixedNow = &pinned
}

func (s *Store) SeedUser(user ports.UserAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UserID] = user
}

func (s *Store) SeedCommunity(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.communityID = userID
}

// Balance exposes the adjusted balance cache for assertions.
func (s *Store) Balance(userID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID]
}

// PayoutFor returns the refund transaction written on acceptance.
func (s *Store) PayoutFor(transactionID string) (Payout, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payout, found := s.payouts[transactionID]
	return payout, found
}

func (s *Store) GetUser(_ context.Context, userID string) (ports.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, found := s.users[strings.TrimSpace(userID)]
	if !found {
		return ports.UserAccount{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) CommunityUserID(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.communityID == "" {
		return "", domainerrors.ErrCommunityMissing
	}
	return s.communityID, nil
}

func (s *Store) CreateBallot(_ context.Context, ballot entities.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ballots[ballot.BallotID]; exists {
		return domainerrors.ErrConflict
	}
	s.ballots[ballot.BallotID] = ballot
	return nil
}

func (s *Store) GetBallot(_ context.Context, ballotID string) (entities.Ballot, []entities.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ballot, found := s.ballots[strings.TrimSpace(ballotID)]
	if !found {
		return entities.Ballot{}, nil, domainerrors.ErrNotFound
	}
	return ballot, append([]entities.Vote(nil), s.votes[ballot.BallotID]...), nil
}

func (s *Store) ListBallots(_ context.Context, kind entities.BallotKind, openOnly bool) ([]entities.Ballot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Ballot, 0, len(s.ballots))
	for _, ballot := range s.ballots {
		if ballot.Kind != kind {
			continue
		}
		if openOnly && !ballot.Open() {
			continue
		}
		items = append(items, ballot)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].BallotID < items[j].BallotID
	})
	return items, nil
}

func (s *Store) RecordVote(_ context.Context, params ports.RecordVoteParams) (ports.VoteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ballot, found := s.ballots[params.BallotID]
	if !found {
		return ports.VoteResult{}, domainerrors.ErrNotFound
	}
	if !ballot.Open() {
		return ports.VoteResult{}, domainerrors.ErrConflict
	}

	votes := s.votes[ballot.BallotID]
	var vote entities.Vote
	updated := false
	for i := range votes {
		if votes[i].UserID == params.VoterID {
			votes[i].Approve = params.Approve
			votes[i].ModifiedAt = params.Now
			vote = votes[i]
			updated = true
			break
		}
	}
	if !updated {
		vote = entities.Vote{
			VoteID:     params.VoteID,
			BallotID:   ballot.BallotID,
			UserID:     params.VoterID,
			Approve:    params.Approve,
			ModifiedAt: params.Now,
		}
		votes = append(votes, vote)
	}
	s.votes[ballot.BallotID] = votes

	tally := entities.Tally(votes)
	state := entities.EvaluateTally(tally, params.Thresholds)
	ballot.ModifiedAt = params.Now
	if state != entities.StateOpen {
		ballot.State = state
		closedAt := params.Now
		ballot.ClosedAt = &closedAt
		if state == entities.StateAccepted {
			s.applyAcceptance(&ballot, params)
		}
	}
	s.ballots[ballot.BallotID] = ballot
	return ports.VoteResult{Ballot: ballot, Vote: vote, Tally: tally}, nil
}

func (s *Store) Abort(_ context.Context, ballotID string, closedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ballot, found := s.ballots[ballotID]
	if !found {
		return domainerrors.ErrNotFound
	}
	if !ballot.Open() {
		return domainerrors.ErrConflict
	}
	ballot.State = entities.StateAborted
	ballot.ModifiedAt = closedAt
	ballot.ClosedAt = &closedAt
	s.ballots[ballotID] = ballot
	return nil
}

func (s *Store) applyAcceptance(ballot *entities.Ballot, params ports.RecordVoteParams) {
	switch ballot.Kind {
	case entities.KindRefund:
		s.balances[params.CommunityID] -= ballot.Amount
		s.balances[ballot.CreatorID] += ballot.Amount
		s.payouts[params.TransactionID] = Payout{
			TransactionID: params.TransactionID,
			SenderID:      params.CommunityID,
			ReceiverID:    ballot.CreatorID,
			Amount:        ballot.Amount,
			Reason:        params.Reason,
		}
		transactionID := params.TransactionID
		ballot.TransactionID = &transactionID
	case entities.KindPoll:
		target := s.users[ballot.TargetUserID]
		switch ballot.Variant {
		case entities.VariantGetInternal:
			target.External = false
			target.VoucherID = nil
		case entities.VariantLoseInternal:
			target.External = true
			target.Permission = false
		case entities.VariantGetPermission:
			target.Permission = true
		case entities.VariantLosePermission:
			target.Permission = false
		}
		s.users[ballot.TargetUserID] = target
	}
}

func (s *Store) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fixedNow != nil {
		return *s.fixedNow
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
