package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims represents the claims in an auth token. The registered ID
// (jti) identifies the token for revocation.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID uint `json:"user_id"`
}

// TokenResponse is returned by the login endpoint
type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}
