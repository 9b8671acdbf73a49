package cookies

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Cookie names shared by the gate, the guard and the handlers
const (
	RefreshToken = "refresh_token"
	AccessToken  = "access_token"
)

// Both sign-in lanes use SameSite=Lax for the refresh cookie: the
// identity-provider callback lands on a cross-site navigation, which
// Strict would strip the cookie from. One cookie, one policy.
func set(c *gin.Context, name, value string, maxAge time.Duration, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetRefresh writes the long-lived refresh token cookie
func SetRefresh(c *gin.Context, token string, maxAge time.Duration, secure bool) {
	set(c, RefreshToken, token, maxAge, secure)
}

// SetAccess writes the short-lived access token cookie
func SetAccess(c *gin.Context, token string, maxAge time.Duration, secure bool) {
	set(c, AccessToken, token, maxAge, secure)
}

// Clear expires both session cookies
func Clear(c *gin.Context, secure bool) {
	for _, name := range []string{RefreshToken, AccessToken} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
