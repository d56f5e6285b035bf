package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/errs"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func validRegistration() types.RegisterRequest {
	return types.RegisterRequest{
		Email:     "vasya@example.com",
		Username:  "vasya.pupkin",
		FirstName: "Vasya",
		LastName:  "Pupkin",
		Password:  "Qwerty123",
	}
}

func TestRegister(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	svc := service.NewAuthService(db, "test-secret", time.Hour, nil, logger.Nop())
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "Qwerty123", user.PasswordHash)

	t.Run("duplicate email and username", func(t *testing.T) {
		_, err := svc.Register(ctx, validRegistration())
		var verr *errs.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "email")
		assert.Contains(t, verr.Fields, "username")
	})

	t.Run("invalid fields", func(t *testing.T) {
		req := validRegistration()
		req.Email = "nope"
		req.Username = "bad name!"
		req.FirstName = strings.Repeat("x", 151)
		req.LastName = ""
		_, err := svc.Register(ctx, req)

		var verr *errs.ValidationError
		require.ErrorAs(t, err, &verr)
		for _, field := range []string{"email", "username", "first_name", "last_name"} {
			assert.Contains(t, verr.Fields, field)
		}
	})
}

func TestLoginAndAuthenticate(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	revoker := &mocks.TokenRevoker{}
	svc := service.NewAuthService(db, "test-secret", time.Hour, revoker, logger.Nop())
	ctx := context.Background()
	user := testhelpers.CreateUser(t, db, "alice")

	_, err := svc.Login(ctx, user.Email, "wrong")
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	_, err = svc.Login(ctx, "missing@example.com", testhelpers.DefaultPassword)
	require.ErrorAs(t, err, &verr)

	token, err := svc.Login(ctx, user.Email, testhelpers.DefaultPassword)
	require.NoError(t, err)

	revoker.On("IsRevoked", mock.Anything, mock.Anything).Return(false, nil).Once()
	got, claims, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.ID, claims.UserID)
	assert.NotEmpty(t, claims.ID)

	revoker.On("Revoke", mock.Anything, claims.ID, mock.AnythingOfType("time.Duration")).Return(nil).Once()
	require.NoError(t, svc.Logout(ctx, claims))

	revoker.On("IsRevoked", mock.Anything, claims.ID).Return(true, nil).Once()
	_, _, err = svc.Authenticate(ctx, token)
	var unauth *errs.UnauthenticatedError
	assert.ErrorAs(t, err, &unauth)

	revoker.AssertExpectations(t)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	svc := service.NewAuthService(db, "test-secret", time.Hour, nil, logger.Nop())
	other := service.NewAuthService(db, "other-secret", time.Hour, nil, logger.Nop())
	expired := service.NewAuthService(db, "test-secret", -time.Minute, nil, logger.Nop())
	ctx := context.Background()
	user := testhelpers.CreateUser(t, db, "alice")

	var unauth *errs.UnauthenticatedError

	_, _, err := svc.Authenticate(ctx, "garbage")
	assert.ErrorAs(t, err, &unauth)

	forged, err := other.GenerateToken(user)
	require.NoError(t, err)
	_, _, err = svc.Authenticate(ctx, forged)
	assert.ErrorAs(t, err, &unauth)

	old, err := expired.GenerateToken(user)
	require.NoError(t, err)
	_, _, err = svc.Authenticate(ctx, old)
	assert.ErrorAs(t, err, &unauth)

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)
	_, _, err = svc.Authenticate(ctx, token)
	assert.ErrorAs(t, err, &unauth)
}

func TestLogoutWithoutRevoker(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	svc := service.NewAuthService(db, "test-secret", time.Hour, nil, logger.Nop())
	user := testhelpers.CreateUser(t, db, "alice")

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)
	_, claims, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)

	assert.NoError(t, svc.Logout(context.Background(), claims))
}

func TestSetPassword(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	svc := service.NewAuthService(db, "test-secret", time.Hour, nil, logger.Nop())
	ctx := context.Background()
	user := testhelpers.CreateUser(t, db, "alice")

	err := svc.SetPassword(ctx, user, types.SetPasswordRequest{NewPassword: "new-pass", CurrentPassword: "wrong"})
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "current_password")

	err = svc.SetPassword(ctx, user, types.SetPasswordRequest{})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "new_password")
	assert.Contains(t, verr.Fields, "current_password")

	err = svc.SetPassword(ctx, user, types.SetPasswordRequest{NewPassword: strings.Repeat("p", 151), CurrentPassword: testhelpers.DefaultPassword})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "new_password")

	require.NoError(t, svc.SetPassword(ctx, user, types.SetPasswordRequest{NewPassword: "new-pass", CurrentPassword: testhelpers.DefaultPassword}))

	_, err = svc.Login(ctx, user.Email, testhelpers.DefaultPassword)
	assert.Error(t, err)
	_, err = svc.Login(ctx, user.Email, "new-pass")
	assert.NoError(t, err)
}

func TestRedisTokenRevoker(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	revoker := service.NewRedisTokenRevoker(client)
	ctx := context.Background()

	revoked, err := revoker.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, revoker.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = revoker.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := client.TTL(ctx, "revoked_token:jti-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
