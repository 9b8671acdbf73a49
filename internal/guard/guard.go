package guard

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/go-portalgate/portalgate/internal/cookies"
	"github.com/go-portalgate/portalgate/internal/metrics"
	"github.com/go-portalgate/portalgate/internal/middleware"
	"github.com/go-portalgate/portalgate/internal/resolver"
	"github.com/go-portalgate/portalgate/internal/token"
)

const identityContextKey = "guard_identity"

// EntitlementSource resolves the application list for a verified
// identity. The standard and privileged guards plug in different
// backends but share every other step.
type EntitlementSource interface {
	Entitlements(ctx context.Context, claims *token.SessionClaims) ([]resolver.Application, error)
}

// EntitlementSourceFunc adapts a function to the EntitlementSource interface
type EntitlementSourceFunc func(ctx context.Context, claims *token.SessionClaims) ([]resolver.Application, error)

func (f EntitlementSourceFunc) Entitlements(
	ctx context.Context,
	claims *token.SessionClaims,
) ([]resolver.Application, error) {
	return f(ctx, claims)
}

// Decision is the guard's verdict for one render
type Decision int

const (
	// DecisionRender lets the view render, possibly with a nil identity
	DecisionRender Decision = iota
	// DecisionDenied vetoes the render: redirect to the access-denied view
	DecisionDenied
)

// Identity is the runtime projection of a verified refresh token plus
// the resolved application list. It lives for exactly one render and
// is never cached across requests.
type Identity struct {
	Claims      token.SessionClaims    `json:"claims"`
	Application []resolver.Application `json:"application"`
	RawToken    string                 `json:"-"`
}

// Guard verifies the refresh token and enriches the identity with
// entitlements before a protected view renders. StrictOnEmpty selects
// the privileged behavior: a zero-entitlement caller is denied, not
// merely un-enriched.
type Guard struct {
	authority     *token.Authority
	source        EntitlementSource
	strictOnEmpty bool
	rec           metrics.Recorder
}

// New creates a guard. source may be nil for views that need identity
// but no entitlement enrichment.
func New(
	authority *token.Authority,
	source EntitlementSource,
	strictOnEmpty bool,
	rec metrics.Recorder,
) *Guard {
	return &Guard{
		authority:     authority,
		source:        source,
		strictOnEmpty: strictOnEmpty,
		rec:           rec,
	}
}

// Authorize produces the render decision for one request. An absent or
// invalid refresh token yields a nil identity and a render decision:
// the view shows its own signed-out state. Entitlement resolution
// failures degrade to a nil application list; only a successful empty
// result denies, and only under the strict policy.
func (g *Guard) Authorize(ctx context.Context, rawRefresh string) (*Identity, Decision) {
	if rawRefresh == "" {
		return nil, DecisionRender
	}

	claims, err := g.authority.VerifyRefresh(rawRefresh)
	if err != nil {
		log.Printf("guard: refresh token rejected: %v", err)
		g.rec.RecordTokenVerification(token.KindRefresh, "invalid")
		return nil, DecisionRender
	}
	g.rec.RecordTokenVerification(token.KindRefresh, "valid")

	identity := &Identity{Claims: *claims, RawToken: rawRefresh}

	if claims.Partner == "" || g.source == nil {
		return identity, DecisionRender
	}

	apps, err := g.source.Entitlements(ctx, claims)
	if err != nil {
		log.Printf("guard: entitlement resolution failed for %s: %v", claims.Email, err)
		identity.Application = nil
		return identity, DecisionRender
	}

	if len(apps) == 0 && g.strictOnEmpty {
		log.Printf("guard: no entitlements for partner %s (%s), denying", claims.Partner, claims.Email)
		return nil, DecisionDenied
	}

	identity.Application = expandURLs(apps, claims)
	return identity, DecisionRender
}

// expandURLs substitutes identity placeholders in entitlement URLs.
// The descriptors are otherwise opaque pass-through data.
func expandURLs(apps []resolver.Application, claims *token.SessionClaims) []resolver.Application {
	out := make([]resolver.Application, len(apps))
	replacer := strings.NewReplacer(
		"{email}", claims.Email,
		"{bp}", claims.Partner,
	)
	for i, app := range apps {
		app.AppURL = replacer.Replace(app.AppURL)
		out[i] = app
	}
	return out
}

// Middleware adapts the guard to a gin handler chain: a denied
// decision short-circuits to the access-denied view, otherwise the
// identity (possibly nil) is stored on the request context.
func (g *Guard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := c.Cookie(cookies.RefreshToken)

		identity, decision := g.Authorize(c.Request.Context(), raw)
		if decision == DecisionDenied {
			c.Redirect(http.StatusFound, middleware.PathAccessDenied)
			c.Abort()
			return
		}

		if identity != nil {
			c.Set(identityContextKey, identity)
		}
		c.Next()
	}
}

// FromContext returns the identity stored by Middleware, or nil when
// the caller is not authenticated.
func FromContext(c *gin.Context) *Identity {
	if v, ok := c.Get(identityContextKey); ok {
		if id, ok := v.(*Identity); ok {
			return id
		}
	}
	return nil
}
