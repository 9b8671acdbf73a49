package services

import (
	"context"
	"fmt"
	"log"

	"github.com/go-portalgate/portalgate/internal/metrics"
	"github.com/go-portalgate/portalgate/internal/resolver"
	"github.com/go-portalgate/portalgate/internal/token"
)

// UserInfo is what a sign-in lane knows about the user before the
// employee backend enriches it. The primary lane fills it from the
// identity provider's profile endpoint; the backdoor lane from the
// credential form.
type UserInfo struct {
	Email       string
	Name        string
	JobTitle    string
	PhotoBase64 string // optional profile photo, forwarded best effort
}

// SignInResult carries the minted refresh token and the claim set it
// was minted from
type SignInResult struct {
	RefreshToken string
	Claims       token.SessionClaims
}

// SignInService is the sign-in contract shared by both lanes: resolve
// the employee mapping, capture the application list, mint the refresh
// token and register the login with the backend. Because both lanes
// run the same path, their tokens are indistinguishable in shape.
type SignInService struct {
	authority *token.Authority
	resolvers *resolver.Client
	rec       metrics.Recorder
}

// NewSignInService creates the shared sign-in service
func NewSignInService(
	authority *token.Authority,
	resolvers *resolver.Client,
	rec metrics.Recorder,
) *SignInService {
	return &SignInService{
		authority: authority,
		resolvers: resolvers,
		rec:       rec,
	}
}

// SignIn performs a complete sign-in for the given user. lane is a
// metrics label ("primary" or "backdoor"). requireRegistration makes a
// login-registry failure fatal; the primary lane tolerates it, the
// backdoor lane does not.
func (s *SignInService) SignIn(
	ctx context.Context,
	user UserInfo,
	lane string,
	requireRegistration bool,
) (*SignInResult, error) {
	claims := token.SessionClaims{
		Email:    user.Email,
		Name:     user.Name,
		JobTitle: user.JobTitle,
	}

	// A missing mapping is a valid outcome: the user signs in without
	// a business partner and the guards skip entitlement resolution.
	mapping, err := s.resolvers.EmployeeByEmail(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("employee resolution failed: %w", err)
	}
	if mapping != nil {
		claims.Partner = mapping.BP
		claims.CostCenter = mapping.CostCenter

		apps, err := s.resolvers.ApplicationsByEmail(ctx, user.Email)
		if err != nil {
			log.Printf("signin: application list unavailable for %s: %v", user.Email, err)
		} else {
			claims.ListApplication = apps
		}
	}

	refreshToken, err := s.authority.IssueRefresh(claims)
	if err != nil {
		return nil, err
	}
	s.rec.RecordTokenIssued(token.KindRefresh, lane)

	if err := s.resolvers.RegisterLogin(ctx, user.Email, refreshToken); err != nil {
		if requireRegistration {
			return nil, fmt.Errorf("login registration failed: %w", err)
		}
		log.Printf("signin: login registration failed for %s: %v", user.Email, err)
	}

	if user.PhotoBase64 != "" && claims.Partner != "" {
		if err := s.resolvers.UploadProfileImage(ctx, claims.Partner, user.PhotoBase64); err != nil {
			log.Printf("signin: profile image upload failed for %s: %v", user.Email, err)
		}
	}

	return &SignInResult{RefreshToken: refreshToken, Claims: claims}, nil
}
