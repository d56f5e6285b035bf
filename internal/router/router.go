package router

import (
	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
)

// Options configure the engine built by New
type Options struct {
	CORSOrigins []string
	// Metrics is optional. When set, requests are instrumented and the
	// registry is exposed on /metrics.
	Metrics *middleware.Metrics
}

// New builds the gin engine with the middleware chain and all routes
func New(log *logger.Logger, opts Options, svcs api.Services) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.RedirectTrailingSlash = false

	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestLogger(log))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	router.Use(middleware.CORS(opts.CORSOrigins))
	router.Use(middleware.ErrorHandler(log))

	api.RegisterRoutes(router, svcs)

	return router
}
