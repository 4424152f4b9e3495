package domain

import "errors"

// Domain errors
var (
	ErrUnauthorized      = errors.New("not an authorized driver")
	ErrAlreadyActive     = errors.New("driver already has an active ride")
	ErrRideGone          = errors.New("ride no longer available")
	ErrInsufficientSeats = errors.New("not enough seats remaining")
	ErrProtocolViolation = errors.New("seat count outside the button menu range")
	ErrInvalidField      = errors.New("unknown profile field")
	ErrDraftIncomplete   = errors.New("ride draft is missing required fields")
)
