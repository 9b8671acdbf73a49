package resolver

import "errors"

var (
	// ErrUnavailable indicates a resolver could not be reached or
	// answered with an unexpected status. Callers degrade rather than
	// block unless they are a strict guard.
	ErrUnavailable = errors.New("resolver unavailable")

	// ErrInvalidResponse indicates a resolver answered with a body the
	// client could not decode
	ErrInvalidResponse = errors.New("invalid resolver response")

	// ErrNetworkRestricted indicates the employee backend answered with
	// a server error that, in this deployment, means the caller is off
	// the corporate network
	ErrNetworkRestricted = errors.New("employee backend requires the corporate network")

	// ErrSessionTokenMissing indicates the session-bearing endpoint had
	// no refresh token for the caller
	ErrSessionTokenMissing = errors.New("refresh token not available")
)
