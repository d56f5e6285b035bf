// Package mocks holds testify mocks for the collaborators services depend on
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// TokenRevoker is a mock implementation of service.TokenRevoker
type TokenRevoker struct {
	mock.Mock
}

func (m *TokenRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *TokenRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}
