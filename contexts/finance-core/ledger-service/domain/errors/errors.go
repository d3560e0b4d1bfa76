package errors

import "errors"

var (
	ErrInvalidAmount    = errors.New("transaction amount must be positive")
	ErrAmountTooLarge   = errors.New("transaction amount exceeds the configured maximum")
	ErrSameUser         = errors.New("sender and receiver must be different users")
	ErrInvalidQuantity  = errors.New("consumption quantity is out of range")
	ErrInvalidUserInput = errors.New("invalid user input")
	ErrUserNotFound     = errors.New("user not found")
	ErrUserInactive     = errors.New("user is not active")
	ErrVoucherRequired  = errors.New("external user has no voucher")
	ErrVoucherInvalid   = errors.New("voucher must be an active internal user")
	ErrVoucherDebt      = errors.New("voucher cannot be removed while the user is in debt")
	ErrTooManyDebtors   = errors.New("maximum number of parallel debtors reached")
	ErrCommunityMissing = errors.New("community user is not configured")
	ErrConflict         = errors.New("concurrent ledger mutation, retry the request")
	ErrBalanceMismatch  = errors.New("balance does not match the transaction aggregate")
)
