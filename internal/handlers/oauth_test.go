package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-portalgate/portalgate/internal/auth"
	"github.com/go-portalgate/portalgate/internal/config"
)

func oauthRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := auth.NewMicrosoftProvider(cfg)
	h := NewOAuthHandler(provider, nil, cfg)

	r := gin.New()
	r.Use(sessions.Sessions("portal_session", cookie.NewStore([]byte("test-session-secret"))))
	r.GET("/auth/login/microsoft", h.Login)
	r.GET("/auth/callback/microsoft", h.Callback)
	return r
}

func oauthTestConfig() *config.Config {
	cfg := handlerTestConfig("http://unused.invalid")
	cfg.AzureClientID = "client-id"
	cfg.AzureClientSecret = "client-secret"
	cfg.AzureTenantID = "tenant"
	cfg.AzureRedirectURL = "http://localhost:8080/auth/callback/microsoft"
	return cfg
}

func TestOAuthHandler_LoginRedirectsToProvider(t *testing.T) {
	r := oauthRouter(t, oauthTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/login/microsoft", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Contains(t, location.Host, "login.microsoftonline.com")
	assert.Equal(t, "client-id", location.Query().Get("client_id"))
	assert.NotEmpty(t, location.Query().Get("state"))

	// The state nonce survives in the session cookie for the callback
	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "portal_session" {
			found = true
		}
	}
	assert.True(t, found, "login must persist the state session")
}

func TestOAuthHandler_CallbackRejectsBadState(t *testing.T) {
	r := oauthRouter(t, oauthTestConfig())

	t.Run("no session at all", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback/microsoft?state=forged&code=x", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login?error=signin", w.Header().Get("Location"))
	})

	t.Run("state does not match the session", func(t *testing.T) {
		// Run a real login first to obtain a state session
		loginReq := httptest.NewRequest(http.MethodGet, "/auth/login/microsoft", nil)
		loginW := httptest.NewRecorder()
		r.ServeHTTP(loginW, loginReq)
		require.Equal(t, http.StatusFound, loginW.Code)

		req := httptest.NewRequest(http.MethodGet, "/auth/callback/microsoft?state=forged&code=x", nil)
		for _, c := range loginW.Result().Cookies() {
			req.AddCookie(c)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login?error=signin", w.Header().Get("Location"))
	})
}

func TestOAuthHandler_CallbackRequiresCode(t *testing.T) {
	r := oauthRouter(t, oauthTestConfig())

	// Valid state, missing code
	loginReq := httptest.NewRequest(http.MethodGet, "/auth/login/microsoft", nil)
	loginW := httptest.NewRecorder()
	r.ServeHTTP(loginW, loginReq)

	location, err := url.Parse(loginW.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback/microsoft?state="+state, nil)
	for _, c := range loginW.Result().Cookies() {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?error=signin", w.Header().Get("Location"))
}

func TestMicrosoftProvider_Enabled(t *testing.T) {
	cfg := oauthTestConfig()
	assert.True(t, auth.NewMicrosoftProvider(cfg).Enabled())

	cfg.AzureClientSecret = ""
	assert.False(t, auth.NewMicrosoftProvider(cfg).Enabled())
}
