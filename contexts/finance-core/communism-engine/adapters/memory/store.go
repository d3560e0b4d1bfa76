package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tally/contexts/finance-core/communism-engine/domain/entities"
	domainerrors "tally/contexts/finance-core/communism-engine/domain/errors"
	"tally/contexts/finance-core/communism-engine/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter used by tests and local wiring. One mutex
// guards all state so the settle path is as atomic as the postgres
// transaction it mirrors.
type Store struct {
	mu          sync.Mutex
	users       map[string]ports.UserRef
	balances    map[string]int64
	communisms  map[string]entities.Communism
	settlements map[string]ports.Settlement
	fixedNow    *time.Time
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]ports.UserRef),
		balances:    make(map[string]int64),
		communisms:  make(map[string]entities.Communism),
		settlements: make(map[string]ports.Settlement),
	}
}

func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pinned := now.UTC()
	s.fixedNow = &pinned
}

func (s *Store) SeedUser(user ports.UserRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UserID] = user
}

// Balance exposes the adjusted balance cache for assertions.
func (s *Store) Balance(userID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID]
}

// SettlementFor returns the recorded settlement of a closed communism.
func (s *Store) SettlementFor(multiTransactionID string) (ports.Settlement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settlement, found := s.settlements[multiTransactionID]
	return settlement, found
}

func (s *Store) GetUser(_ context.Context, userID string) (ports.UserRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, found := s.users[strings.TrimSpace(userID)]
	if !found {
		return ports.UserRef{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) CreateCommunism(_ context.Context, communism entities.Communism) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.communisms[communism.CommunismID]; exists {
		return domainerrors.ErrConflict
	}
	s.communisms[communism.CommunismID] = cloneCommunism(communism)
	return nil
}

func (s *Store) GetCommunism(_ context.Context, communismID string) (entities.Communism, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	communism, found := s.communisms[strings.TrimSpace(communismID)]
	if !found {
		return entities.Communism{}, domainerrors.ErrNotFound
	}
	return cloneCommunism(communism), nil
}

func (s *Store) ListCommunisms(_ context.Context, activeOnly bool) ([]entities.Communism, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Communism, 0, len(s.communisms))
	for _, communism := range s.communisms {
		if activeOnly && !communism.Active {
			continue
		}
		items = append(items, cloneCommunism(communism))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CommunismID < items[j].CommunismID
	})
	return items, nil
}

func (s *Store) ReplaceParticipants(
	_ context.Context,
	communismID string,
	participants []entities.Participant,
	updatedAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	communism, found := s.communisms[communismID]
	if !found {
		return domainerrors.ErrNotFound
	}
	if !communism.Active {
		return domainerrors.ErrConflict
	}
	communism.Participants = append([]entities.Participant(nil), participants...)
	communism.UpdatedAt = updatedAt
	s.communisms[communismID] = communism
	return nil
}

func (s *Store) Settle(_ context.Context, communismID string, settlement ports.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	communism, found := s.communisms[communismID]
	if !found {
		return domainerrors.ErrNotFound
	}
	if !communism.Active {
		return domainerrors.ErrConflict
	}

	for _, txn := range settlement.Transactions {
		s.balances[txn.SenderID] -= txn.Amount
		s.balances[txn.ReceiverID] += txn.Amount
	}
	s.settlements[settlement.MultiTransactionID] = settlement

	communism.Active = false
	communism.MultiTransactionID = &settlement.MultiTransactionID
	communism.UpdatedAt = settlement.SettledAt
	s.communisms[communismID] = communism
	return nil
}

func (s *Store) Abort(_ context.Context, communismID string, abortedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	communism, found := s.communisms[communismID]
	if !found {
		return domainerrors.ErrNotFound
	}
	if !communism.Active {
		return domainerrors.ErrConflict
	}
	communism.Active = false
	communism.Aborted = true
	communism.UpdatedAt = abortedAt
	s.communisms[communismID] = communism
	return nil
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

func cloneCommunism(communism entities.Communism) entities.Communism {
	communism.Participants = append([]entities.Participant(nil), communism.Participants...)
	return communism
}
