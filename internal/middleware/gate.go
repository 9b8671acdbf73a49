package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/go-portalgate/portalgate/internal/cookies"
	"github.com/go-portalgate/portalgate/internal/metrics"
	"github.com/go-portalgate/portalgate/internal/token"
)

// Route paths the gate recognizes by name
const (
	PathLogin        = "/login"
	PathDashboard    = "/dashboard"
	PathAdmin        = "/etekjero"
	PathAccessDenied = "/access-denied"
)

type routeClass int

const (
	routeAsset routeClass = iota
	routeLogin
	routeDashboard
	routeAdmin
	routeAccessDenied
	routeProtected
)

var routeClassNames = map[routeClass]string{
	routeAsset:        "asset",
	routeLogin:        "login",
	routeDashboard:    "dashboard",
	routeAdmin:        "admin",
	routeAccessDenied: "access_denied",
	routeProtected:    "protected",
}

var assetPrefixes = []string{"/static", "/api", "/auth", "/health", "/metrics"}

var assetSuffixes = []string{
	".png", ".jpg", ".jpeg", ".svg", ".ico", ".css", ".js",
}

func classify(path string) routeClass {
	for _, prefix := range assetPrefixes {
		if strings.HasPrefix(path, prefix) {
			return routeAsset
		}
	}
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(path, suffix) {
			return routeAsset
		}
	}

	switch path {
	case PathLogin:
		return routeLogin
	case PathDashboard:
		return routeDashboard
	case PathAdmin:
		return routeAdmin
	case PathAccessDenied:
		return routeAccessDenied
	default:
		return routeProtected
	}
}

// EdgeGate runs before any page is served. It verifies the refresh
// cookie and redirects on route class and authentication state alone:
// no entitlement resolution, no outbound calls. Authenticated users
// are funneled to the canonical dashboard landing page, with the admin
// and access-denied routes passing through unmodified.
func EdgeGate(authority *token.Authority, rec metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		class := classify(c.Request.URL.Path)
		if class == routeAsset {
			c.Next()
			return
		}

		authenticated := false
		if raw, err := c.Cookie(cookies.RefreshToken); err == nil && raw != "" {
			if _, verr := authority.VerifyRefresh(raw); verr == nil {
				authenticated = true
				rec.RecordTokenVerification(token.KindRefresh, "valid")
			} else {
				// Invalid and expired look the same from here on:
				// the token is treated as absent.
				log.Printf("edge gate: refresh token rejected: %v", verr)
				rec.RecordTokenVerification(token.KindRefresh, "invalid")
			}
		}

		className := routeClassNames[class]

		if !authenticated {
			if class == routeLogin {
				rec.RecordGateDecision(className, "forward")
				c.Next()
				return
			}
			rec.RecordGateDecision(className, "redirect_login")
			c.Redirect(http.StatusFound, PathLogin)
			c.Abort()
			return
		}

		switch class {
		case routeLogin:
			rec.RecordGateDecision(className, "redirect_dashboard")
			c.Redirect(http.StatusFound, PathDashboard)
			c.Abort()
		case routeDashboard, routeAdmin, routeAccessDenied:
			rec.RecordGateDecision(className, "forward")
			c.Next()
		default:
			rec.RecordGateDecision(className, "redirect_dashboard")
			c.Redirect(http.StatusFound, PathDashboard)
			c.Abort()
		}
	}
}
