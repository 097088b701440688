package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the backend transport
// return these (optionally wrapped) and services translate them into coded
// domain errors:
//   - ErrNotFound: record does not exist in the store
//   - ErrConflict: a write collided with an existing record
//   - ErrExpired: challenge or payment is past its expiry
//   - ErrAlreadyUsed: one-time code already consumed
//   - ErrInvalidState: entity is in the wrong state for the operation
//   - ErrUnavailable: dependency temporarily unavailable (open circuit, transport down)
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
