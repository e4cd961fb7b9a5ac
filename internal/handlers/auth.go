package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/lovenest/internal/middleware"
	"github.com/thereayou/lovenest/internal/services"
	"github.com/thereayou/lovenest/pkg/auth"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login issues a token and refreshes last_seen_at.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout blacklists the presented token until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	rawToken := c.GetString(middleware.TokenKey)
	if rawToken == "" {
		var err error
		if rawToken, err = auth.ExtractTokenFromHeader(c.Request); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	if err := h.auth.Logout(c.Request.Context(), rawToken); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
