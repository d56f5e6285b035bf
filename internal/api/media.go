package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
)

// MediaHandler serves images kept by the database image store
type MediaHandler struct {
	store *service.DatabaseImageStore
}

func NewMediaHandler(store *service.DatabaseImageStore) *MediaHandler {
	return &MediaHandler{store: store}
}

func (h *MediaHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/recipes/:name", h.Get)
}

func (h *MediaHandler) Get(c *gin.Context) {
	img, err := h.store.Open(c.Request.Context(), c.Param("name"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, img.ContentType, img.Data)
}
