package errors

import "errors"

var (
	ErrInvalidAmount   = errors.New("communism amount must be positive")
	ErrInvalidQuantity = errors.New("participant quantity is out of range")
	ErrNoParticipants  = errors.New("communism has no participants with positive quantity")
	ErrNotFound        = errors.New("communism not found")
	ErrNotOpen         = errors.New("communism is not open")
	ErrNotCreator      = errors.New("only the creator may close or abort a communism")
	ErrUserNotFound    = errors.New("participant user not found")
	ErrUserIneligible  = errors.New("participant is inactive or lacks a voucher")
	ErrConflict        = errors.New("concurrent communism mutation, retry the request")
	ErrShareMismatch   = errors.New("settlement shares do not sum to the communism amount")
)
