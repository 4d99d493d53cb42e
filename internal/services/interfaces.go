// filepath: internal/services/interfaces.go
package services

import (
	"context"
	"time"

	"backuphub/internal/models"
)

// Auditor defines the interface for recording security-relevant events.
type Auditor interface {
	// Log records an event.
	// ctx: context to trace request IDs (if available)
	// action: what happened (e.g., "repository.create", "repository.delete")
	// actor: who did it (username or token name)
	// resource: what was affected (e.g., "Repository:a1b2c3d4")
	// details: structured metadata about the event
	Log(ctx context.Context, action string, actor string, resource string, details map[string]interface{})
}

// Toolset is the subset of the process gateway used by the repository service.
type Toolset interface {
	Provision(ctx context.Context, publicKey string, quotaBytes int64, appendOnly bool) (string, error)
	Destroy(ctx context.Context, name string) error
	Resize(ctx context.Context, name, publicKey string, quotaBytes int64, appendOnly bool) error
	Compact(ctx context.Context, name string, blocking bool) error
}

// RepositoryService defines the interface for the repository service.
type RepositoryService interface {
	List() []models.Repository
	Get(name string) (*models.Repository, error)
	Create(ctx context.Context, payload models.RepositoryCreatePayload) (*models.Repository, error)
	Update(ctx context.Context, name string, payload models.RepositoryUpdatePayload) (*models.Repository, error)
	Destroy(ctx context.Context, name string) error
	Compact(ctx context.Context, name string, blocking bool) error
}

// UserService defines the interface for the user service.
type UserService interface {
	Operator() (*models.User, error)
	GetUser(username string) (*models.User, error)
	UpdateNotifications(username string, settings models.NotificationSettings) (*models.NotificationSettings, error)
	CreateToken(username, name string, perms models.Permissions, ttl time.Duration) (string, *models.TokenInfo, error)
	ImportToken(username, name, secret string, perms models.Permissions) error
	ListTokens(username string) ([]models.TokenInfo, error)
	RevokeToken(username, name string) error
	ResolveToken(secret string) (*models.User, *models.TokenInfo, error)
	EnsureOperator(seed models.User) (*models.User, error)
}

// MonitorService defines the interface for the monitor service.
type MonitorService interface {
	Start()
	Stop()
	TriggerStatus(ctx context.Context) (*models.StatusReport, error)
	TriggerUsage(ctx context.Context) (*models.UsageReport, error)
}
