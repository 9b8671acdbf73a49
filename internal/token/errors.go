package token

import "errors"

var (
	// ErrNoSecret indicates the authority was constructed without a signing secret
	ErrNoSecret = errors.New("signing secret is not configured")

	// ErrTokenGeneration indicates token signing failed
	ErrTokenGeneration = errors.New("failed to generate token")

	// ErrInvalidToken indicates the token failed signature or structural checks
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token carried a valid signature but a past expiry
	ErrExpiredToken = errors.New("token expired")
)
