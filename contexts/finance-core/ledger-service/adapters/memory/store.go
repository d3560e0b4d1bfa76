package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tally/contexts/finance-core/ledger-service/domain/entities"
	domainerrors "tally/contexts/finance-core/ledger-service/domain/errors"
	"tally/contexts/finance-core/ledger-service/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter used by tests and local wiring. All
// repository ports plus Clock and IDGenerator are served from one mutex so
// multi-row writes stay atomic, mirroring the storage transaction of the
// postgres adapter.
type Store struct {
	mu           sync.Mutex
	users        map[string]entities.User
	transactions []entities.Transaction
	fixedNow     *time.Time
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]entities.User),
	}
}

// SetNow pins the clock for deterministic tests.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pinned := now.UTC()
	s.fixedNow = &pinned
}

// SeedUser inserts or replaces a user row directly, bypassing validation.
func (s *Store) SeedUser(user entities.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UserID] = user
}

func (s *Store) CreateUser(_ context.Context, user entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.UserID]; exists {
		return domainerrors.ErrConflict
	}
	s.users[user.UserID] = user
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, found := s.users[strings.TrimSpace(userID)]
	if !found {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) ListUsers(_ context.Context) ([]entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.User, 0, len(s.users))
	for _, user := range s.users {
		items = append(items, user)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].UserID < items[j].UserID
	})
	return items, nil
}

func (s *Store) UpdateVoucher(_ context.Context, userID string, voucherID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, found := s.users[strings.TrimSpace(userID)]
	if !found {
		return domainerrors.ErrUserNotFound
	}
	user.VoucherID = voucherID
	user.UpdatedAt = s.nowLocked()
	s.users[user.UserID] = user
	return nil
}

func (s *Store) GetCommunityUser(_ context.Context) (entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Special {
			return user, nil
		}
	}
	return entities.User{}, domainerrors.ErrCommunityMissing
}

func (s *Store) EnsureCommunityUser(_ context.Context, user entities.User) (entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Special {
			return existing, nil
		}
	}
	user.Special = true
	s.users[user.UserID] = user
	return user, nil
}

func (s *Store) CreateTransaction(
	_ context.Context,
	txn entities.Transaction,
	limits ports.TransferLimits,
) (entities.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender, found := s.users[txn.SenderID]
	if !found {
		return entities.Transaction{}, domainerrors.ErrUserNotFound
	}
	receiver, found := s.users[txn.ReceiverID]
	if !found {
		return entities.Transaction{}, domainerrors.ErrUserNotFound
	}
	if !sender.Active || !receiver.Active {
		return entities.Transaction{}, domainerrors.ErrUserInactive
	}

	if limits.MaxParallelDebtors > 0 && sender.Balance >= 0 && sender.Balance-txn.Amount < 0 && !sender.Special {
		debtors := 0
		for _, user := range s.users {
			if user.Balance < 0 {
				debtors++
			}
		}
		if debtors >= limits.MaxParallelDebtors {
			return entities.Transaction{}, domainerrors.ErrTooManyDebtors
		}
	}

	sender.Balance -= txn.Amount
	receiver.Balance += txn.Amount
	sender.UpdatedAt = s.nowLocked()
	receiver.UpdatedAt = sender.UpdatedAt
	s.users[sender.UserID] = sender
	s.users[receiver.UserID] = receiver
	s.transactions = append(s.transactions, txn)
	return txn, nil
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]entities.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Transaction, 0, len(s.transactions))
	for _, txn := range s.transactions {
		if userID != "" && txn.SenderID != userID && txn.ReceiverID != userID {
			continue
		}
		items = append(items, txn)
	}
	return items, nil
}

func (s *Store) BalanceOf(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balanceLocked(userID), nil
}

func (s *Store) ListBalanceDrift(_ context.Context) ([]ports.BalanceDrift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var drifted []ports.BalanceDrift
	for _, user := range s.users {
		computed := s.balanceLocked(user.UserID)
		if computed != user.Balance {
			drifted = append(drifted, ports.BalanceDrift{
				UserID:   user.UserID,
				Cached:   user.Balance,
				Computed: computed,
			})
		}
	}
	sort.Slice(drifted, func(i, j int) bool {
		return drifted[i].UserID < drifted[j].UserID
	})
	return drifted, nil
}

func (s *Store) RepairBalance(_ context.Context, userID string, balance int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, found := s.users[userID]
	if !found {
		return domainerrors.ErrUserNotFound
	}
	user.Balance = balance
	user.UpdatedAt = s.nowLocked()
	s.users[userID] = user
	return nil
}

func (s *Store) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nowLocked()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) balanceLocked(userID string) int64 {
	var balance int64
	for _, txn := range s.transactions {
		if txn.ReceiverID == userID {
			balance += txn.Amount
		}
		if txn.SenderID == userID {
			balance -= txn.Amount
		}
	}
	return balance
}

func (s *Store) nowLocked() time.Time {
	if s.fixedNow != nil {
		return *s.fixedNow
	}
	return time.Now().UTC()
}
