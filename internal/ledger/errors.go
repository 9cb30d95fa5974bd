// internal/ledger/errors.go
package ledger

import "errors"

// Every mutating operation is all-or-nothing: a failed call returns one of
// these sentinels (possibly wrapped) and leaves all stores unchanged. None of
// them is retryable by the core itself.
var (
	ErrUnauthorized    = errors.New("caller lacks the required role or identity")
	ErrNotFound        = errors.New("record not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrSystemHalted    = errors.New("ledger is halted")
	ErrNoEscrow        = errors.New("no escrow payment pending")
	ErrAlreadyReleased = errors.New("escrow payment already released")
	ErrTransferFailed  = errors.New("value transfer failed")
)

func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }
func IsHalted(err error) bool       { return errors.Is(err, ErrSystemHalted) }
