// filepath: internal/services/mocks/user_mock.go
package mocks

import (
	"time"

	"backuphub/internal/models"
	"backuphub/internal/services"

	"github.com/stretchr/testify/mock"
)

// MockUserService is a mock implementation of services.UserService
type MockUserService struct {
	mock.Mock
}

// Compile-time check to ensure interface compliance
var _ services.UserService = (*MockUserService)(nil)

func (m *MockUserService) Operator() (*models.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetUser(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateNotifications(username string, settings models.NotificationSettings) (*models.NotificationSettings, error) {
	args := m.Called(username, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationSettings), args.Error(1)
}

func (m *MockUserService) CreateToken(username, name string, perms models.Permissions, ttl time.Duration) (string, *models.TokenInfo, error) {
	args := m.Called(username, name, perms, ttl)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.TokenInfo), args.Error(2)
}

func (m *MockUserService) ImportToken(username, name, secret string, perms models.Permissions) error {
	args := m.Called(username, name, secret, perms)
	return args.Error(0)
}

func (m *MockUserService) ListTokens(username string) ([]models.TokenInfo, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TokenInfo), args.Error(1)
}

func (m *MockUserService) RevokeToken(username, name string) error {
	args := m.Called(username, name)
	return args.Error(0)
}

func (m *MockUserService) ResolveToken(secret string) (*models.User, *models.TokenInfo, error) {
	args := m.Called(secret)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(*models.TokenInfo), args.Error(2)
}

func (m *MockUserService) EnsureOperator(seed models.User) (*models.User, error) {
	args := m.Called(seed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
