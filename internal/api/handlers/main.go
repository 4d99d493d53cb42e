// filepath: internal/api/handlers/main.go
package handlers

import (
	"backuphub/internal/config"
	"backuphub/internal/services"
)

// Handlers holds the shared dependencies of the API handlers.
type Handlers struct {
	Repositories services.RepositoryService
	User         services.UserService
	Monitor      services.MonitorService
	Auditor      services.Auditor

	Cfg *config.Config
}

// NewHandlers creates a new instance of Handlers with its dependencies.
func NewHandlers(
	repositories services.RepositoryService,
	user services.UserService,
	monitor services.MonitorService,
	auditor services.Auditor,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		Repositories: repositories,
		User:         user,
		Monitor:      monitor,
		Auditor:      auditor,
		Cfg:          cfg,
	}
}
