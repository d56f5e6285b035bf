package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/errs"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

const tokenIssuer = "foodgram"

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

var (
	errInvalidCredentials = errs.NewValidation("non_field_errors", "Unable to log in with provided credentials.")
	errInvalidToken       = &errs.UnauthenticatedError{Message: "Invalid token."}
)

// AuthService manages accounts and auth tokens
type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
	tokenTTL  time.Duration
	revoker   TokenRevoker
	log       *logger.Logger
}

// NewAuthService creates a new AuthService. revoker may be nil, in which
// case logout cannot invalidate tokens before they expire.
func NewAuthService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration, revoker TokenRevoker, log *logger.Logger) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		revoker:   revoker,
		log:       log.With("service", "AuthService"),
	}
}

// Register creates a new account
func (s *AuthService) Register(ctx context.Context, req types.RegisterRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	if err := validateRegistration(req); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, req.Email, req.Username); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race against a concurrent registration
			if uerr := s.checkUnique(ctx, req.Email, req.Username); uerr != nil {
				return nil, uerr
			}
			return nil, errs.NewValidation("username", "A user with that username already exists.")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func validateRegistration(req types.RegisterRequest) error {
	verr := &errs.ValidationError{}
	checkLength(verr, "email", req.Email, 254)
	checkLength(verr, "username", req.Username, 150)
	checkLength(verr, "first_name", req.FirstName, 150)
	checkLength(verr, "last_name", req.LastName, 150)
	checkLength(verr, "password", req.Password, 150)
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		verr.Add("email", "Enter a valid email address.")
	}
	if req.Username != "" && !usernamePattern.MatchString(req.Username) {
		verr.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	return verr.OrNil()
}

func checkLength(verr *errs.ValidationError, field, value string, max int) {
	switch {
	case value == "":
		verr.Add(field, "This field is required.")
	case len([]rune(value)) > max:
		verr.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", max))
	}
}

func (s *AuthService) checkUnique(ctx context.Context, email, username string) error {
	verr := &errs.ValidationError{}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		verr.Add("email", "A user with that email already exists.")
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		verr.Add("username", "A user with that username already exists.")
	}
	return verr.OrNil()
}

// Login checks the credentials and issues a new token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errInvalidCredentials
		}
		return "", err
	}
	if !user.IsActive {
		return "", errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", errInvalidCredentials
	}

	token, err := s.GenerateToken(&user)
	if err != nil {
		return "", err
	}
	s.log.Info("user logged in", "user_id", user.ID)
	return token, nil
}

// Logout revokes the token described by claims until it would expire
func (s *AuthService) Logout(ctx context.Context, claims *types.TokenClaims) error {
	if s.revoker == nil {
		s.log.Warn("token revocation unavailable, logout is a no-op", "user_id", claims.UserID)
		return nil
	}

	ttl := s.tokenTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.log.Info("user logged out", "user_id", claims.UserID)
	return nil
}

// SetPassword replaces the password of user after checking the current one
func (s *AuthService) SetPassword(ctx context.Context, user *models.User, req types.SetPasswordRequest) error {
	verr := &errs.ValidationError{}
	checkLength(verr, "new_password", req.NewPassword, 150)
	checkLength(verr, "current_password", req.CurrentPassword, 150)
	if !verr.Empty() {
		return verr
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return errs.NewValidation("current_password", "Invalid password.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	user.PasswordHash = string(hash)

	s.log.Info("password changed", "user_id", user.ID)
	return nil
}

// GenerateToken signs a new token for user
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		UserID: user.ID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken verifies the signature and expiry of tokenString
func (s *AuthService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// Authenticate resolves a token into an active, non-revoked user
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, *types.TokenClaims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, nil, err
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, nil, errInvalidToken
		}
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errInvalidToken
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, &errs.UnauthenticatedError{Message: "User inactive or deleted."}
	}
	return &user, claims, nil
}
