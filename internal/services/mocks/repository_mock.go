// filepath: internal/services/mocks/repository_mock.go
package mocks

import (
	"context"

	"backuphub/internal/models"
	"backuphub/internal/services"

	"github.com/stretchr/testify/mock"
)

// MockRepositoryService is a mock implementation of services.RepositoryService
type MockRepositoryService struct {
	mock.Mock
}

var _ services.RepositoryService = (*MockRepositoryService)(nil)

func (m *MockRepositoryService) List() []models.Repository {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.Repository)
}

func (m *MockRepositoryService) Get(name string) (*models.Repository, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Repository), args.Error(1)
}

func (m *MockRepositoryService) Create(ctx context.Context, payload models.RepositoryCreatePayload) (*models.Repository, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Repository), args.Error(1)
}

func (m *MockRepositoryService) Update(ctx context.Context, name string, payload models.RepositoryUpdatePayload) (*models.Repository, error) {
	args := m.Called(ctx, name, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Repository), args.Error(1)
}

func (m *MockRepositoryService) Destroy(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockRepositoryService) Compact(ctx context.Context, name string, blocking bool) error {
	args := m.Called(ctx, name, blocking)
	return args.Error(0)
}
