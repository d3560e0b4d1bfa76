package errors

import "errors"

var (
	// Validation failures on ballot creation input.
	ErrInvalidAmount  = errors.New("refund amount must be positive")
	ErrInvalidVariant = errors.New("unknown poll variant")
	ErrInvalidTarget  = errors.New("poll target does not match the variant")

	// Lookup and lifecycle failures.
	ErrNotFound   = errors.New("ballot not found")
	ErrNotOpen    = errors.New("ballot is not open")
	ErrNotCreator = errors.New("only the creator may perform this operation")

	// Voting failures.
	ErrOwnBallot        = errors.New("refund creators cannot vote on their own refund")
	ErrVoterIneligible  = errors.New("voter lacks voting permission")
	ErrUserNotFound     = errors.New("user not found")
	ErrUserInactive     = errors.New("user is inactive")
	ErrCommunityMissing = errors.New("community user is not configured")

	// ErrConflict marks a lost race against a concurrent state change.
	// Callers may retry after re-reading.
	ErrConflict = errors.New("ballot was modified concurrently")
)
