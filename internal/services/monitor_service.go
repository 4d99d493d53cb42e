// filepath: internal/services/monitor_service.go
package services

import (
	"context"
	"time"

	"backuphub/internal/models"
	"backuphub/internal/monitor"
)

var _ MonitorService = (*monitorService)(nil)

// monitorService manages the lifecycle of the background reconciliation worker
// and provides methods for manual triggering.
type monitorService struct {
	worker  *monitor.Service
	enabled bool
}

// NewMonitorService creates a new MonitorService. When enabled is false Start
// is a no-op but cycles can still be triggered manually.
func NewMonitorService(deps monitor.Dependencies, statusInterval, usageInterval time.Duration, enabled bool) *monitorService {
	return &monitorService{
		worker:  monitor.NewService(deps, statusInterval, usageInterval),
		enabled: enabled,
	}
}

// Start begins the background worker.
func (s *monitorService) Start() {
	if s.enabled {
		s.worker.Start()
	}
}

// Stop terminates the background worker.
func (s *monitorService) Stop() {
	s.worker.Stop()
}

// TriggerStatus runs one status cycle now, alongside the schedule.
func (s *monitorService) TriggerStatus(ctx context.Context) (*models.StatusReport, error) {
	return s.worker.RunStatus(ctx)
}

// TriggerUsage runs one usage cycle now, alongside the schedule.
func (s *monitorService) TriggerUsage(ctx context.Context) (*models.UsageReport, error) {
	return s.worker.RunUsage(ctx)
}
