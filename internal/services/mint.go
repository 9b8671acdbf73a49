package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-portalgate/portalgate/internal/metrics"
	"github.com/go-portalgate/portalgate/internal/resolver"
	"github.com/go-portalgate/portalgate/internal/token"
)

// Mint failure sentinels. Each maps to exactly one HTTP outcome in the
// handler; none of them leak token contents.
var (
	// ErrRefreshUnavailable indicates the session endpoint had no refresh token
	ErrRefreshUnavailable = errors.New("refresh token not available")

	// ErrRefreshInvalid indicates the refresh token failed verification
	ErrRefreshInvalid = errors.New("invalid or expired refresh token")

	// ErrAccessMissing indicates the request carried no access token cookie
	ErrAccessMissing = errors.New("missing access token in cookies")

	// ErrAccessInvalid indicates the access token failed signature checks
	ErrAccessInvalid = errors.New("invalid access token")

	// ErrAccessExpired indicates the access token's expiry has passed.
	// An expired access token cannot self-renew through this path.
	ErrAccessExpired = errors.New("access token expired")
)

// MintService re-validates both session tokens and mints a fresh
// access token. Every step is a hard gate: the first failure returns
// immediately and no cookie is touched.
type MintService struct {
	authority *token.Authority
	resolvers *resolver.Client
	rec       metrics.Recorder
}

// NewMintService creates the access token mint service
func NewMintService(
	authority *token.Authority,
	resolvers *resolver.Client,
	rec metrics.Recorder,
) *MintService {
	return &MintService{
		authority: authority,
		resolvers: resolvers,
		rec:       rec,
	}
}

// Mint runs the six gates: fetch the refresh token from the
// session-bearing endpoint, verify it, require the existing access
// cookie, verify it (signature and expiry), then sign a replacement.
// The new token's claims come from the verified refresh token, never
// from the outgoing access token, so a renewal chain cannot carry
// stale claims forward.
func (m *MintService) Mint(
	ctx context.Context,
	cookieHeader, accessCookie string,
) (string, *token.SessionClaims, error) {
	rawRefresh, err := m.resolvers.FetchSessionToken(ctx, cookieHeader)
	if err != nil {
		m.rec.RecordMintRequest("refresh_unavailable")
		return "", nil, fmt.Errorf("%w: %v", ErrRefreshUnavailable, err)
	}

	refreshClaims, err := m.authority.VerifyRefresh(rawRefresh)
	if err != nil {
		m.rec.RecordMintRequest("refresh_invalid")
		m.rec.RecordTokenVerification(token.KindRefresh, "invalid")
		return "", nil, fmt.Errorf("%w: %v", ErrRefreshInvalid, err)
	}
	m.rec.RecordTokenVerification(token.KindRefresh, "valid")

	if accessCookie == "" {
		m.rec.RecordMintRequest("access_missing")
		return "", nil, ErrAccessMissing
	}

	if _, err := m.authority.VerifyAccess(accessCookie); err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			m.rec.RecordMintRequest("access_expired")
			m.rec.RecordTokenVerification(token.KindAccess, "expired")
			return "", nil, ErrAccessExpired
		}
		m.rec.RecordMintRequest("access_invalid")
		m.rec.RecordTokenVerification(token.KindAccess, "invalid")
		return "", nil, fmt.Errorf("%w: %v", ErrAccessInvalid, err)
	}
	m.rec.RecordTokenVerification(token.KindAccess, "valid")

	newToken, err := m.authority.IssueAccess(*refreshClaims)
	if err != nil {
		m.rec.RecordMintRequest("error")
		return "", nil, err
	}

	m.rec.RecordMintRequest("success")
	m.rec.RecordTokenIssued(token.KindAccess, "mint")
	return newToken, refreshClaims, nil
}
