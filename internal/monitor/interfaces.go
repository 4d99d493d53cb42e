// filepath: internal/monitor/interfaces.go
package monitor

import (
	"context"

	"backuphub/internal/models"
)

// RepoTX defines the repository store methods required by the monitor.
type RepoTX interface {
	List() []models.Repository
	Update(fn func([]models.Repository) ([]models.Repository, error), recordHistory bool) error
}

// UserTX resolves the operator who receives alerts.
type UserTX interface {
	Operator() (*models.User, error)
}

// ScannerTX defines the fleet-wide toolset scans. Both may fail with
// shared.ErrAlreadyRunning when a previous scan is still in flight.
type ScannerTX interface {
	ScanFreshness(ctx context.Context) ([]models.FreshnessEntry, error)
	ScanUsage(ctx context.Context) ([]models.UsageEntry, error)
}

// NotifierTX delivers one alert naming every down repository.
type NotifierTX interface {
	Dispatch(ctx context.Context, recipient models.User, aliases []string)
}
