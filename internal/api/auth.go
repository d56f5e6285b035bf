package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/errs"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// AuthHandler issues and revokes auth tokens
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	tokens := router.Group("/auth/token")
	handle(tokens, http.MethodPost, "/login", h.Login)
	handle(tokens, http.MethodPost, "/logout", middleware.RequireAuth(h.auth), h.Logout)
}

// Login exchanges email and password for a token
func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, types.TokenResponse{AuthToken: token})
}

// Logout revokes the token the request was made with
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		_ = c.Error(errs.ErrNotAuthenticated)
		return
	}
	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
