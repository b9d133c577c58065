package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
)

// business logic errors
var (
	ErrValidation         = errors.New("invalid input")
	ErrForbidden          = errors.New("operation not permitted")
	ErrInvalidState       = errors.New("auction is not in a valid state for this operation")
	ErrBidTooLow          = errors.New("bid amount too low")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrBanned             = errors.New("account is banned")
)
