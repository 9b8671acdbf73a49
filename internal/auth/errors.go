package auth

import "errors"

var (
	// ErrStateMismatch indicates the OAuth state cookie did not match the callback
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrExchangeFailed indicates the authorization code exchange failed
	ErrExchangeFailed = errors.New("authorization code exchange failed")

	// ErrUserInfo indicates the identity provider's profile endpoint failed
	ErrUserInfo = errors.New("failed to fetch user info")
)
