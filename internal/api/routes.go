package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Services are the collaborators the HTTP handlers call into
type Services struct {
	Auth          *service.AuthService
	Users         *service.UserService
	Subscriptions *service.SubscriptionService
	Catalog       *service.CatalogService
	Recipes       *service.RecipeService
	Favorites     *service.FavoriteService
	Cart          *service.CartService

	// Media serves stored images. It is nil when images live in S3.
	Media *service.DatabaseImageStore

	// RecipeLimiter throttles recipe creation. It is nil without Redis.
	RecipeLimiter *middleware.RateLimiter
}

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, svcs Services) {
	router.GET("/health", HealthCheck)

	apiGroup := router.Group("/api")

	NewAuthHandler(svcs.Auth).RegisterRoutes(apiGroup)
	NewUserHandler(svcs.Auth, svcs.Users, svcs.Subscriptions).RegisterRoutes(apiGroup)
	NewCatalogHandler(svcs.Catalog).RegisterRoutes(apiGroup)
	NewRecipeHandler(svcs.Auth, svcs.Recipes, svcs.Favorites, svcs.Cart, svcs.RecipeLimiter).RegisterRoutes(apiGroup)

	if svcs.Media != nil {
		NewMediaHandler(svcs.Media).RegisterRoutes(router.Group("/media"))
	}
}
