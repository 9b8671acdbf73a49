package token

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
)

// Token kind constants, carried in the "type" claim
const (
	KindRefresh = "refresh"
	KindAccess  = "access"
)

// SessionClaims is the identity payload carried by both token kinds.
// The refresh token's claim set is the single source of truth: an
// access token never contains claims its refresh token does not.
type SessionClaims struct {
	Email           string          `json:"email"`
	Name            string          `json:"name"`
	JobTitle        string          `json:"job_title"`
	Partner         string          `json:"partner"`
	CostCenter      string          `json:"cost_center"`
	ListApplication json.RawMessage `json:"list_application,omitempty"`
	Kind            string          `json:"type"`

	jwt.RegisteredClaims
}

// Identity returns a copy of the claim set stripped of per-token
// metadata (expiry, issuance timestamp, jti, kind), suitable for
// re-issuing under a new kind and TTL.
func (c SessionClaims) Identity() SessionClaims {
	return SessionClaims{
		Email:           c.Email,
		Name:            c.Name,
		JobTitle:        c.JobTitle,
		Partner:         c.Partner,
		CostCenter:      c.CostCenter,
		ListApplication: c.ListApplication,
	}
}
