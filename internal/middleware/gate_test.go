package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-portalgate/portalgate/internal/cookies"
	"github.com/go-portalgate/portalgate/internal/metrics"
	"github.com/go-portalgate/portalgate/internal/token"
)

func gateRouter(t *testing.T, authority *token.Authority) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(EdgeGate(authority, metrics.NewNoopRecorder()))

	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET(PathLogin, ok)
	r.GET(PathDashboard, ok)
	r.GET(PathAdmin, ok)
	r.GET(PathAccessDenied, ok)
	r.GET("/reports", ok)
	r.GET("/static/app.css", ok)
	r.POST("/api/token", ok)
	r.GET("/health", ok)
	return r
}

func gateAuthority(t *testing.T) *token.Authority {
	t.Helper()
	a, err := token.NewAuthority("gate-test-secret", "http://localhost:8080", time.Hour, time.Minute)
	require.NoError(t, err)
	return a
}

func gateRequest(r *gin.Engine, path, refreshCookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if refreshCookie != "" {
		req.AddCookie(&http.Cookie{Name: cookies.RefreshToken, Value: refreshCookie})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEdgeGate_Unauthenticated(t *testing.T) {
	a := gateAuthority(t)
	r := gateRouter(t, a)

	tests := []struct {
		name         string
		path         string
		wantStatus   int
		wantLocation string
	}{
		{"login page is served", PathLogin, http.StatusOK, ""},
		{"dashboard redirects to login", PathDashboard, http.StatusFound, PathLogin},
		{"admin redirects to login", PathAdmin, http.StatusFound, PathLogin},
		{"access denied redirects to login", PathAccessDenied, http.StatusFound, PathLogin},
		{"unknown page redirects to login", "/reports", http.StatusFound, PathLogin},
		{"static asset bypasses the gate", "/static/app.css", http.StatusOK, ""},
		{"health bypasses the gate", "/health", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := gateRequest(r, tt.path, "")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantLocation, w.Header().Get("Location"))
		})
	}
}

func TestEdgeGate_Authenticated(t *testing.T) {
	a := gateAuthority(t)
	r := gateRouter(t, a)

	refresh, err := a.IssueRefresh(token.SessionClaims{Email: "dev@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name         string
		path         string
		wantStatus   int
		wantLocation string
	}{
		{"login redirects to dashboard", PathLogin, http.StatusFound, PathDashboard},
		{"dashboard is served", PathDashboard, http.StatusOK, ""},
		{"admin is served", PathAdmin, http.StatusOK, ""},
		{"access denied is served", PathAccessDenied, http.StatusOK, ""},
		{"unknown page funnels to dashboard", "/reports", http.StatusFound, PathDashboard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := gateRequest(r, tt.path, refresh)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantLocation, w.Header().Get("Location"))
		})
	}
}

func TestEdgeGate_InvalidTokenTreatedAsAbsent(t *testing.T) {
	a := gateAuthority(t)
	r := gateRouter(t, a)

	w := gateRequest(r, PathDashboard, "not-a-jwt")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, PathLogin, w.Header().Get("Location"))

	// Tokens signed by another authority are equally absent
	other, err := token.NewAuthority("some-other-secret", "http://localhost:8080", time.Hour, time.Minute)
	require.NoError(t, err)
	foreign, err := other.IssueRefresh(token.SessionClaims{Email: "dev@example.com"})
	require.NoError(t, err)

	w = gateRequest(r, PathDashboard, foreign)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, PathLogin, w.Header().Get("Location"))
}

func TestEdgeGate_ExpiredTokenTreatedAsAbsent(t *testing.T) {
	expired, err := token.NewAuthority("gate-test-secret", "http://localhost:8080", -time.Minute, -time.Minute)
	require.NoError(t, err)
	staleToken, err := expired.IssueRefresh(token.SessionClaims{Email: "dev@example.com"})
	require.NoError(t, err)

	a := gateAuthority(t)
	r := gateRouter(t, a)

	w := gateRequest(r, PathLogin, staleToken)
	assert.Equal(t, http.StatusOK, w.Code, "expired token must not bounce the login page")

	w = gateRequest(r, PathDashboard, staleToken)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, PathLogin, w.Header().Get("Location"))
}

func TestEdgeGate_AccessTokenIsNotASession(t *testing.T) {
	a := gateAuthority(t)
	r := gateRouter(t, a)

	access, err := a.IssueAccess(token.SessionClaims{Email: "dev@example.com"})
	require.NoError(t, err)

	// An access token in the refresh cookie slot fails kind verification
	w := gateRequest(r, PathDashboard, access)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, PathLogin, w.Header().Get("Location"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want routeClass
	}{
		{"/login", routeLogin},
		{"/dashboard", routeDashboard},
		{"/etekjero", routeAdmin},
		{"/access-denied", routeAccessDenied},
		{"/reports", routeProtected},
		{"/", routeProtected},
		{"/static/logo.png", routeAsset},
		{"/api/token", routeAsset},
		{"/auth/login/microsoft", routeAsset},
		{"/health", routeAsset},
		{"/metrics", routeAsset},
		{"/favicon.ico", routeAsset},
		{"/bundle.js", routeAsset},
		{"/theme.css", routeAsset},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.path))
		})
	}
}
