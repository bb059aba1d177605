package basket

import "errors"

// Error kinds surfaced by the engine. Every mutating operation is
// all-or-nothing: when one of these is returned, no state was changed.
// Callers match them with errors.Is; the wrapped message carries the detail.
var (
	// ErrInvalidInput flags empty or mismatched argument lists.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized flags a caller lacking the required capability.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInsufficientFunds flags a caller balance too small for the pull.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrFundsTransfer flags a missing or insufficient allowance.
	ErrFundsTransfer = errors.New("funds transfer refused")
	// ErrTooManyHoldings flags a certificate at its holdings capacity.
	ErrTooManyHoldings = errors.New("too many holdings")
	// ErrInsufficientHolding flags an overdraw of a certificate holding.
	ErrInsufficientHolding = errors.New("insufficient holding")
	// ErrInvalidCustody flags a store against the wrong reserve custody.
	ErrInvalidCustody = errors.New("invalid custody")
	// ErrNotOwner flags a certificate operation by a non-owner.
	ErrNotOwner = errors.New("not the certificate owner")
	// ErrAdapterFailure flags a swap venue call that failed or returned an
	// invalid result.
	ErrAdapterFailure = errors.New("adapter failure")
	// ErrNoPaymentDue flags a release with nothing owed. It is a hard
	// failure so callers can tell "nothing to claim" from success.
	ErrNoPaymentDue = errors.New("no payment due")
	// ErrUnknownCertificate flags an operation on a certificate id the
	// registry never minted or already burned.
	ErrUnknownCertificate = errors.New("unknown certificate")
)
