package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/foodgram/backend/internal/service"
)

// ImageStore is a mock implementation of service.ImageStore
type ImageStore struct {
	mock.Mock
}

func (m *ImageStore) Save(ctx context.Context, img *service.ImageFile) (string, error) {
	args := m.Called(ctx, img)
	return args.String(0), args.Error(1)
}

func (m *ImageStore) Delete(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}
