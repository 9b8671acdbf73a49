package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-portalgate/portalgate/internal/config"
	"github.com/go-portalgate/portalgate/internal/cookies"
)

func pagesRouter() (*gin.Engine, *PageHandler) {
	gin.SetMode(gin.TestMode)
	h := NewPageHandler(&config.Config{
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 168 * time.Hour,
	})

	r := gin.New()
	r.GET("/login", h.Login)
	r.GET("/logout", h.Logout)
	r.GET("/access-denied", h.AccessDenied)
	return r, h
}

func TestPageHandler_LoginMessages(t *testing.T) {
	r, _ := pagesRouter()

	tests := []struct {
		name        string
		query       string
		wantMessage string
	}{
		{"no error", "", ""},
		{"vpn error", "?error=vpn", "Connect to the corporate network and try again"},
		{"signin error", "?error=signin", "An error occurred during sign in"},
		{"unknown error ignored", "?error=other", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/login"+tt.query, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			if tt.wantMessage == "" {
				assert.NotContains(t, w.Body.String(), "message")
			} else {
				assert.Contains(t, w.Body.String(), tt.wantMessage)
			}
		})
	}
}

func TestPageHandler_LogoutClearsSession(t *testing.T) {
	r, _ := pagesRouter()

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: cookies.RefreshToken, Value: "tok"})
	req.AddCookie(&http.Cookie{Name: cookies.AccessToken, Value: "tok"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	cleared := map[string]bool{}
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			cleared[c.Name] = true
		}
	}
	require.True(t, cleared[cookies.RefreshToken], "refresh cookie must be expired")
	require.True(t, cleared[cookies.AccessToken], "access cookie must be expired")
}
