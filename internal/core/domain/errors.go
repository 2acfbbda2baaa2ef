package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no approval record exists for an address.
	ErrNotFound = errors.New("approval record not found")

	// ErrTransport covers an unreachable store or node and undecodable payloads.
	ErrTransport = errors.New("transport unavailable")

	// ErrValidation marks bad input. Use Validationf to attach detail.
	ErrValidation = errors.New("validation failed")

	ErrProviderMissing = errors.New("wallet provider is not available")
	ErrUserRejected    = errors.New("no account available")
	ErrWrongNetwork    = errors.New("please connect to BSC Mainnet or Testnet")
	ErrNotConnected    = errors.New("wallet not connected")
	ErrNotAdmin        = errors.New("connected account is not the contract admin")

	// ErrChainCall is returned when a state-changing call is rejected,
	// reverts, or cannot be confirmed.
	ErrChainCall = errors.New("chain call failed")
)

// Validationf returns an error wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
