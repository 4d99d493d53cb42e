// filepath: internal/services/mocks/monitor_mock.go
package mocks

import (
	"context"

	"backuphub/internal/models"
	"backuphub/internal/services"

	"github.com/stretchr/testify/mock"
)

// MockMonitorService is a mock implementation of services.MonitorService
type MockMonitorService struct {
	mock.Mock
}

var _ services.MonitorService = (*MockMonitorService)(nil)

func (m *MockMonitorService) Start() {
	m.Called()
}

func (m *MockMonitorService) Stop() {
	m.Called()
}

func (m *MockMonitorService) TriggerStatus(ctx context.Context) (*models.StatusReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StatusReport), args.Error(1)
}

func (m *MockMonitorService) TriggerUsage(ctx context.Context) (*models.UsageReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UsageReport), args.Error(1)
}
