package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-portalgate/portalgate/internal/config"
	"github.com/go-portalgate/portalgate/internal/cookies"
	"github.com/go-portalgate/portalgate/internal/resolver"
	"github.com/go-portalgate/portalgate/internal/services"
)

// BackdoorHandler is the alternate credential intake. It runs the same
// sign-in contract as the identity-provider lane, so the refresh token
// it produces is indistinguishable from the primary lane's.
type BackdoorHandler struct {
	signIn *services.SignInService
	config *config.Config
}

func NewBackdoorHandler(ss *services.SignInService, cfg *config.Config) *BackdoorHandler {
	return &BackdoorHandler{
		signIn: ss,
		config: cfg,
	}
}

type backdoorUserInfo struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	JobTitle string `json:"jobTitle"`
}

type backdoorRequest struct {
	UserInfo *backdoorUserInfo `json:"userInfo" binding:"required"`
}

// Login handles POST /api/backdoor/login
func (h *BackdoorHandler) Login(c *gin.Context) {
	var req backdoorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "User info is required"})
		return
	}

	if !h.verifyPassword(req.UserInfo.Password) {
		// Same answer for wrong password and unknown account
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	result, err := h.signIn.SignIn(
		c.Request.Context(),
		services.UserInfo{
			Email:    req.UserInfo.Email,
			Name:     req.UserInfo.Name,
			JobTitle: req.UserInfo.JobTitle,
		},
		"backdoor",
		true, // registration failure is fatal on this lane
	)
	if err != nil {
		log.Printf("backdoor: sign-in failed for %s: %v", req.UserInfo.Email, err)
		if errors.Is(err, resolver.ErrNetworkRestricted) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "Employee backend unreachable; connect to the corporate network",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	cookies.SetRefresh(
		c,
		result.RefreshToken,
		h.config.RefreshTokenExpiration,
		h.config.IsProduction,
	)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
	})
}

// verifyPassword checks the submitted password against the configured
// bcrypt hash. An unset hash is tolerated outside production so the
// lane stays usable in development, with a loud log line each time.
func (h *BackdoorHandler) verifyPassword(password string) bool {
	if h.config.BackdoorPasswordHash == "" {
		log.Printf("backdoor: WARNING: no password hash configured, accepting any credential")
		return !h.config.IsProduction
	}
	err := bcrypt.CompareHashAndPassword(
		[]byte(h.config.BackdoorPasswordHash),
		[]byte(password),
	)
	return err == nil
}
