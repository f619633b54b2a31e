package services

import "errors"

// Sentinel errors surfaced to callers. Handlers map these to HTTP statuses
// with errors.Is.
var (
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrEmailAlreadyUsed  = errors.New("email already used")
	ErrBuddyNotFound     = errors.New("buddy not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrSelfBuddy         = errors.New("cannot add yourself as a buddy")
	ErrAlreadyBuddies    = errors.New("users are already connected")
	ErrNotConnected      = errors.New("users are not connected")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
