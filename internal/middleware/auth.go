package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/errs"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	userKey   = "user"
	claimsKey = "claims"
)

// Authenticator resolves a token into the user it was issued to
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, *types.TokenClaims, error)
}

// RequireAuth rejects requests without a valid token
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			_ = c.Error(errs.ErrNotAuthenticated)
			c.Abort()
			return
		}
		if !authenticate(c, auth, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the user when a token is sent and lets anonymous
// requests through. A token that is sent but invalid is still rejected.
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if !authenticate(c, auth, token) {
				return
			}
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, auth Authenticator, token string) bool {
	user, claims, err := auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return false
	}
	c.Set(userKey, user)
	c.Set(claimsKey, claims)
	return true
}

// bearerToken extracts the token from "Authorization: Bearer <t>" or the
// "Token <t>" form
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found {
		return "", false
	}
	switch strings.ToLower(scheme) {
	case "bearer", "token":
	default:
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// CurrentUser returns the authenticated user or nil for anonymous requests
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentClaims returns the claims of the request token
func CurrentClaims(c *gin.Context) *types.TokenClaims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*types.TokenClaims); ok {
			return claims
		}
	}
	return nil
}
