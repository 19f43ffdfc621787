package auth

import "errors"

var (
	// ErrNotFoundOrExpired is returned when a presented token is unknown,
	// already redeemed, or past its expiry. The three cases are deliberately
	// indistinguishable so callers cannot probe which tokens ever existed.
	ErrNotFoundOrExpired = errors.New("token not found or expired")

	// ErrAlreadyConfigured is returned when adding a temporary allowlist
	// entry for an email that is part of the configured set.
	ErrAlreadyConfigured = errors.New("email already in configured allowlist")

	// ErrIsConfigured is returned when removing a temporary allowlist entry
	// for an email that is part of the configured set.
	ErrIsConfigured = errors.New("email is managed by configured allowlist")
)
