package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-portalgate/portalgate/internal/config"
	"github.com/go-portalgate/portalgate/internal/cookies"
	"github.com/go-portalgate/portalgate/internal/services"
)

// Error code returned when the outgoing access token has already
// expired; clients treat it as a signal to re-authenticate.
const codeAccessExpired = "ACCESS_EXPIRED"

type TokenHandler struct {
	mintService *services.MintService
	config      *config.Config
}

func NewTokenHandler(ms *services.MintService, cfg *config.Config) *TokenHandler {
	return &TokenHandler{
		mintService: ms,
		config:      cfg,
	}
}

// Mint handles POST /api/token: re-validate both session tokens and
// set a fresh access token cookie. Failures return without touching
// any cookie.
func (h *TokenHandler) Mint(c *gin.Context) {
	accessCookie, _ := c.Cookie(cookies.AccessToken)

	newToken, _, err := h.mintService.Mint(
		c.Request.Context(),
		c.GetHeader("Cookie"),
		accessCookie,
	)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRefreshUnavailable):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Refresh token not available",
			})
		case errors.Is(err, services.ErrRefreshInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired refresh token",
			})
		case errors.Is(err, services.ErrAccessMissing):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Missing access token in cookies",
			})
		case errors.Is(err, services.ErrAccessExpired):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Access token expired",
				"code":  codeAccessExpired,
			})
		case errors.Is(err, services.ErrAccessInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid access token",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to mint access token",
			})
		}
		return
	}

	cookies.SetAccess(c, newToken, h.config.AccessTokenExpiration, h.config.IsProduction)
	c.JSON(http.StatusOK, gin.H{
		"access_token": newToken,
	})
}
