package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/go-portalgate/portalgate/internal/auth"
	"github.com/go-portalgate/portalgate/internal/config"
	"github.com/go-portalgate/portalgate/internal/cookies"
	"github.com/go-portalgate/portalgate/internal/middleware"
	"github.com/go-portalgate/portalgate/internal/resolver"
	"github.com/go-portalgate/portalgate/internal/services"
)

const sessionOAuthState = "oauth_state"

// OAuthHandler drives the primary identity-provider sign-in lane
type OAuthHandler struct {
	provider *auth.MicrosoftProvider
	signIn   *services.SignInService
	config   *config.Config
}

func NewOAuthHandler(
	provider *auth.MicrosoftProvider,
	ss *services.SignInService,
	cfg *config.Config,
) *OAuthHandler {
	return &OAuthHandler{
		provider: provider,
		signIn:   ss,
		config:   cfg,
	}
}

// Login handles GET /auth/login/microsoft: stash a state nonce in the
// session and send the user to the identity provider.
func (h *OAuthHandler) Login(c *gin.Context) {
	state := uuid.New().String()

	session := sessions.Default(c)
	session.Set(sessionOAuthState, state)
	if err := session.Save(); err != nil {
		log.Printf("oauth: failed to save state session: %v", err)
		c.Redirect(http.StatusFound, middleware.PathLogin+"?error=signin")
		return
	}

	c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

// Callback handles GET /auth/callback/microsoft: verify state, let the
// oauth2 library redeem the code, read the profile, then run the
// shared sign-in contract and set the refresh cookie.
func (h *OAuthHandler) Callback(c *gin.Context) {
	session := sessions.Default(c)
	savedState, _ := session.Get(sessionOAuthState).(string)
	session.Delete(sessionOAuthState)
	_ = session.Save()

	if savedState == "" || c.Query("state") != savedState {
		log.Printf("oauth: state mismatch on callback: %v", auth.ErrStateMismatch)
		c.Redirect(http.StatusFound, middleware.PathLogin+"?error=signin")
		return
	}

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, middleware.PathLogin+"?error=signin")
		return
	}

	ctx := c.Request.Context()

	providerToken, err := h.provider.Exchange(ctx, code)
	if err != nil {
		log.Printf("oauth: code exchange failed: %v", err)
		c.Redirect(http.StatusFound, middleware.PathLogin+"?error=signin")
		return
	}

	user, err := h.provider.FetchUserInfo(ctx, providerToken)
	if err != nil {
		log.Printf("oauth: user info fetch failed: %v", err)
		c.Redirect(http.StatusFound, middleware.PathLogin+"?error=signin")
		return
	}

	result, err := h.signIn.SignIn(ctx, *user, "primary", false)
	if err != nil {
		log.Printf("oauth: sign-in failed for %s: %v", user.Email, err)
		if errors.Is(err, resolver.ErrNetworkRestricted) {
			c.Redirect(http.StatusFound, middleware.PathLogin+"?error=vpn")
			return
		}
		c.Redirect(http.StatusFound, middleware.PathLogin+"?error=signin")
		return
	}

	cookies.SetRefresh(
		c,
		result.RefreshToken,
		h.config.RefreshTokenExpiration,
		h.config.IsProduction,
	)
	c.Redirect(http.StatusFound, middleware.PathDashboard)
}
