package reconciler

import "errors"

var (
	// ErrValidation is returned for malformed or contradictory declared
	// configuration. It is detected before any ledger read.
	ErrValidation = errors.New("invalid configuration")

	// ErrAuthorizationMismatch is returned when the supplied authority does
	// not match the pool's authority of record.
	ErrAuthorizationMismatch = errors.New("authorization mismatch")
)
