package wallet

import "errors"

// Error kinds surfaced by identity derivation and session linkage. Callers
// branch on these with errors.Is; the HTTP layer maps them to status codes.
var (
	// ErrNetworkUnavailable means the read-only chain client could not be
	// reached (or answered for the wrong chain) while deriving an identity.
	// Retryable.
	ErrNetworkUnavailable = errors.New("network unavailable")

	// ErrUnsupportedVersion means the configured account implementation
	// version has no known implementation contract.
	ErrUnsupportedVersion = errors.New("unsupported account implementation version")

	// ErrUnsupportedPolicy means a session policy other than the single
	// supported "unrestricted" grant was requested.
	ErrUnsupportedPolicy = errors.New("unsupported session policy")

	// ErrLinkageMismatch means the session binding resolved to a different
	// account than the owner derivation. Fatal to the current create/restore
	// attempt; a mismatching binding must never be persisted.
	ErrLinkageMismatch = errors.New("session linkage mismatch")
)
