package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-portalgate/portalgate/internal/config"
	"github.com/go-portalgate/portalgate/internal/cookies"
	"github.com/go-portalgate/portalgate/internal/guard"
	"github.com/go-portalgate/portalgate/internal/middleware"
)

// PageHandler serves the protected view endpoints. Rendering proper is
// the frontend's job; these handlers return the render props the
// guards produced, which is all the auth subsystem owes a view.
type PageHandler struct {
	config *config.Config
}

func NewPageHandler(cfg *config.Config) *PageHandler {
	return &PageHandler{config: cfg}
}

// Login serves the sign-in page payload. The edge gate guarantees only
// unauthenticated callers reach it.
func (h *PageHandler) Login(c *gin.Context) {
	payload := gin.H{"page": "login"}
	switch c.Query("error") {
	case "vpn":
		payload["message"] = "Connect to the corporate network and try again"
	case "signin":
		payload["message"] = "An error occurred during sign in"
	}
	c.JSON(http.StatusOK, payload)
}

// Dashboard serves the standard protected view. A nil identity renders
// the view's own signed-out state rather than erroring.
func (h *PageHandler) Dashboard(c *gin.Context) {
	identity := guard.FromContext(c)
	if identity == nil {
		c.JSON(http.StatusOK, gin.H{"page": "dashboard", "identity": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":     "dashboard",
		"identity": identity,
	})
}

// Admin serves the privileged view. The strict guard has already
// denied zero-entitlement callers before this runs.
func (h *PageHandler) Admin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":     "admin",
		"identity": guard.FromContext(c),
	})
}

// AccessDenied serves the denial page
func (h *PageHandler) AccessDenied(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "access-denied"})
}

// Logout clears both session cookies and sends the user to the login page
func (h *PageHandler) Logout(c *gin.Context) {
	cookies.Clear(c, h.config.IsProduction)
	c.Redirect(http.StatusFound, middleware.PathLogin)
}
