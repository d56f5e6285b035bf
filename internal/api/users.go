package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserHandler serves accounts, profiles and subscriptions
type UserHandler struct {
	auth          *service.AuthService
	users         *service.UserService
	subscriptions *service.SubscriptionService
}

func NewUserHandler(auth *service.AuthService, users *service.UserService, subscriptions *service.SubscriptionService) *UserHandler {
	return &UserHandler{auth: auth, users: users, subscriptions: subscriptions}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	requireAuth := middleware.RequireAuth(h.auth)

	handle(users, http.MethodPost, "", h.Register)
	handle(users, http.MethodGet, "", middleware.OptionalAuth(h.auth), h.List)
	handle(users, http.MethodGet, "/me", requireAuth, h.Me)
	handle(users, http.MethodPost, "/set_password", requireAuth, h.SetPassword)
	handle(users, http.MethodGet, "/subscriptions", requireAuth, h.Subscriptions)
	handle(users, http.MethodGet, "/:id", requireAuth, h.Get)
	handle(users, http.MethodPost, "/:id/subscribe", requireAuth, h.Subscribe)
	handle(users, http.MethodDelete, "/:id/subscribe", requireAuth, h.Unsubscribe)
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, types.RegisterResponse{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (h *UserHandler) List(c *gin.Context) {
	page, err := pagination(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	users, count, err := h.users.List(c.Request.Context(), page, middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, users, count, page))
}

func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, h.users.Me(middleware.CurrentUser(c)))
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.users.Get(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.auth.SetPassword(c.Request.Context(), middleware.CurrentUser(c), req); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	page, err := pagination(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	entries, count, err := h.subscriptions.Subscriptions(c.Request.Context(), middleware.CurrentUser(c), page, recipesLimit(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, entries, count, page))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	entry, err := h.subscriptions.Subscribe(c.Request.Context(), id, middleware.CurrentUser(c), recipesLimit(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.subscriptions.Unsubscribe(c.Request.Context(), id, middleware.CurrentUser(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
