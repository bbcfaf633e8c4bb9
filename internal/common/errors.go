// Package common defines the sentinel errors shared by the FlashVault client
// layers. Callers match them with errors.Is; concrete errors wrap one of these
// with %w so the user-facing message can be chosen from the category alone.
package common

import "errors"

var (
	// Missing or malformed settings (pinning credential, contract address).
	ErrConfiguration = errors.New("configuration error")

	// Empty required fields or content that does not match a known schema.
	ErrValidation = errors.New("validation error")

	// Transport failures and timeouts talking to a remote service.
	ErrNetwork = errors.New("network error")

	// The pinning service answered with a non-success status.
	ErrUpload = errors.New("upload failed")

	// Wallet-side refusals.
	ErrUserRejected      = errors.New("rejected by user")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// The contract is missing at the configured address or the call reverted.
	ErrContractUnavailable = errors.New("contract unavailable")

	ErrNotConnected = errors.New("wallet not connected")
	ErrNotFound     = errors.New("not found")
	ErrUnknown      = errors.New("unknown error")
)
