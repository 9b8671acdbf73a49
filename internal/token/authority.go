package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Authority signs and verifies the two session token kinds. It is a
// pure function of the configured secret, the claims and the TTLs;
// every call is independent and safe for concurrent use. Components
// receive an Authority explicitly, never through ambient configuration.
type Authority struct {
	secret     []byte
	issuer     string
	refreshTTL time.Duration
	accessTTL  time.Duration
}

// NewAuthority creates a token authority. It fails when the signing
// secret is empty; there is no fallback secret.
func NewAuthority(secret, issuer string, refreshTTL, accessTTL time.Duration) (*Authority, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Authority{
		secret:     []byte(secret),
		issuer:     issuer,
		refreshTTL: refreshTTL,
		accessTTL:  accessTTL,
	}, nil
}

// RefreshTTL returns the configured refresh token lifetime.
func (a *Authority) RefreshTTL() time.Duration { return a.refreshTTL }

// AccessTTL returns the configured access token lifetime.
func (a *Authority) AccessTTL() time.Duration { return a.accessTTL }

// IssueRefresh signs a long-lived refresh token for the given identity.
func (a *Authority) IssueRefresh(identity SessionClaims) (string, error) {
	return a.issue(identity, KindRefresh, a.refreshTTL)
}

// IssueAccess signs a short-lived access token for the given identity.
func (a *Authority) IssueAccess(identity SessionClaims) (string, error) {
	return a.issue(identity, KindAccess, a.accessTTL)
}

func (a *Authority) issue(identity SessionClaims, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := identity.Identity()
	claims.Kind = kind
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    a.issuer,
		ID:        uuid.New().String(),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return tokenString, nil
}

// VerifyRefresh validates a refresh token and returns its claims.
func (a *Authority) VerifyRefresh(tokenString string) (*SessionClaims, error) {
	return a.verify(tokenString, KindRefresh)
}

// VerifyAccess validates an access token and returns its claims.
func (a *Authority) VerifyAccess(tokenString string) (*SessionClaims, error) {
	return a.verify(tokenString, KindAccess)
}

// verify checks signature, expiry and kind. Tampered and expired
// tokens surface as distinct sentinels for logging, but callers must
// collapse both to "not authenticated" toward end users.
func (a *Authority) verify(tokenString, kind string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: wrong token kind", ErrInvalidToken)
	}

	return claims, nil
}
