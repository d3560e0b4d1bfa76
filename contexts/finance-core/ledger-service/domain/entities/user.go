package entities

import "time"

// User is a ledger participant. Balance is a cached aggregate of the
// transaction set in minor currency units; the transaction history stays the
// source of truth and the cache is reconciled by a background worker.
type User struct {
	UserID     string
	Name       string
	Balance    int64
	Permission bool
	Active     bool
	Special    bool
	External   bool
	VoucherID  *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Internal reports whether the user counts as a community-internal member.
func (u User) Internal() bool {
	return !u.External
}

// CanVote reports voting eligibility: internal membership plus the
// permission flag.
func (u User) CanVote() bool {
	return u.Active && !u.External && u.Permission
}
