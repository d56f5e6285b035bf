package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/errs"
	"github.com/pageza/foodgram/backend/internal/logger"
)

// ErrorHandler renders the last error a handler attached to the context.
// Unclassified errors are logged and hidden behind a generic 500.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		status := errs.StatusCode(err)
		if status == http.StatusInternalServerError {
			log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		}
		if c.Writer.Written() {
			return
		}
		c.JSON(status, errs.Body(err))
	}
}

// Recovery turns panics into a logged 500
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered", "method", c.Request.Method, "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	})
}
