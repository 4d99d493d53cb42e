// filepath: internal/services/repository_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"backuphub/internal/gateway"
	"backuphub/internal/logging"
	"backuphub/internal/models"
	"backuphub/internal/repository"
	"backuphub/internal/shared"
)

var _ RepositoryService = (*repositoryService)(nil)

// repositoryService keeps the repository collection and the toolset in step.
type repositoryService struct {
	Repos   *repository.RepositoryStore
	Toolset Toolset
}

// NewRepositoryService creates a new RepositoryService.
func NewRepositoryService(repos *repository.RepositoryStore, toolset Toolset) *repositoryService {
	return &repositoryService{Repos: repos, Toolset: toolset}
}

// === Pass-through Store Methods ===

func (s *repositoryService) List() []models.Repository {
	return s.Repos.List()
}

func (s *repositoryService) Get(name string) (*models.Repository, error) {
	return s.Repos.FindByName(name)
}

// === Business Logic Methods ===

// Create validates the payload, provisions the repository and records it.
// The record starts down with zero usage until the first scan.
func (s *repositoryService) Create(ctx context.Context, payload models.RepositoryCreatePayload) (*models.Repository, error) {
	alias := strings.TrimSpace(payload.Alias)
	if alias == "" {
		return nil, shared.Invalid("alias is required")
	}
	if payload.AlertThresholdSeconds < 0 {
		return nil, shared.Invalid("alertThresholdSeconds must not be negative")
	}
	if err := gateway.ValidateQuota(payload.StorageQuotaBytes); err != nil {
		return nil, err
	}
	key, err := gateway.ValidatePublicKey(payload.PublicKey)
	if err != nil {
		return nil, err
	}
	if repository.HasPublicKey(s.Repos.List(), key, "") {
		return nil, fmt.Errorf("public key already in use: %w", shared.ErrConflict)
	}

	name, err := s.Toolset.Provision(ctx, key, payload.StorageQuotaBytes, payload.AppendOnly)
	if err != nil {
		logging.Log.Errorf("RepositoryService: Provisioning failed for alias '%s': %v", alias, err)
		return nil, err
	}

	var created models.Repository
	err = s.Repos.Update(func(items []models.Repository) ([]models.Repository, error) {
		// The key may have been taken while the toolset was running.
		if repository.HasPublicKey(items, key, "") {
			return nil, fmt.Errorf("public key already in use: %w", shared.ErrConflict)
		}
		for _, r := range items {
			if r.Name == name {
				return nil, fmt.Errorf("repository %s already recorded: %w", name, shared.ErrConflict)
			}
		}
		created = models.Repository{
			ID:                    repository.NextID(items),
			Alias:                 alias,
			Name:                  name,
			AlertThresholdSeconds: payload.AlertThresholdSeconds,
			StorageQuotaBytes:     payload.StorageQuotaBytes,
			PublicKey:             key,
			Comment:               payload.Comment,
			LanOnly:               payload.LanOnly,
			AppendOnly:            payload.AppendOnly,
		}
		return append(items, created), nil
	}, true)
	if err != nil {
		logging.Log.Errorf("RepositoryService: Failed to record repository '%s': %v", name, err)
		if delErr := s.Toolset.Destroy(context.WithoutCancel(ctx), name); delErr != nil {
			logging.Log.Errorf("CRITICAL: Failed to rollback provisioning of '%s': %v", name, delErr)
		}
		return nil, err
	}

	logging.Log.Infof("RepositoryService: Repository created: %s (%s)", name, alias)
	return &created, nil
}

// Update applies a partial update. Key, quota and append-only changes are
// pushed to the toolset before the record is written.
func (s *repositoryService) Update(ctx context.Context, name string, payload models.RepositoryUpdatePayload) (*models.Repository, error) {
	if err := gateway.ValidateName(name); err != nil {
		return nil, err
	}
	existing, err := s.Repos.FindByName(name)
	if err != nil {
		return nil, err
	}

	if payload.Alias != nil && strings.TrimSpace(*payload.Alias) == "" {
		return nil, shared.Invalid("alias must not be empty")
	}
	if payload.AlertThresholdSeconds != nil && *payload.AlertThresholdSeconds < 0 {
		return nil, shared.Invalid("alertThresholdSeconds must not be negative")
	}

	key, quota, appendOnly := existing.PublicKey, existing.StorageQuotaBytes, existing.AppendOnly
	if payload.PublicKey != nil {
		if key, err = gateway.ValidatePublicKey(*payload.PublicKey); err != nil {
			return nil, err
		}
		if repository.HasPublicKey(s.Repos.List(), key, name) {
			return nil, fmt.Errorf("public key already in use: %w", shared.ErrConflict)
		}
	}
	if payload.StorageQuotaBytes != nil {
		if err := gateway.ValidateQuota(*payload.StorageQuotaBytes); err != nil {
			return nil, err
		}
		quota = *payload.StorageQuotaBytes
	}
	if payload.AppendOnly != nil {
		appendOnly = *payload.AppendOnly
	}

	if key != existing.PublicKey || quota != existing.StorageQuotaBytes || appendOnly != existing.AppendOnly {
		if err := s.Toolset.Resize(ctx, name, key, quota, appendOnly); err != nil {
			logging.Log.Errorf("RepositoryService: Resize failed for '%s': %v", name, err)
			return nil, err
		}
	}

	var updated models.Repository
	err = s.Repos.Update(func(items []models.Repository) ([]models.Repository, error) {
		for i := range items {
			if items[i].Name != name {
				continue
			}
			r := &items[i]
			if payload.Alias != nil {
				r.Alias = strings.TrimSpace(*payload.Alias)
			}
			if payload.AlertThresholdSeconds != nil {
				r.AlertThresholdSeconds = *payload.AlertThresholdSeconds
			}
			if payload.Comment != nil {
				r.Comment = *payload.Comment
			}
			if payload.LanOnly != nil {
				r.LanOnly = *payload.LanOnly
			}
			r.PublicKey, r.StorageQuotaBytes, r.AppendOnly = key, quota, appendOnly
			updated = *r
			return items, nil
		}
		return nil, shared.ErrNotFound
	}, true)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Destroy removes the repository from the toolset and then from the collection.
func (s *repositoryService) Destroy(ctx context.Context, name string) error {
	if err := gateway.ValidateName(name); err != nil {
		return err
	}
	if _, err := s.Repos.FindByName(name); err != nil {
		return err
	}
	if err := s.Toolset.Destroy(ctx, name); err != nil {
		logging.Log.Errorf("RepositoryService: Destroy failed for '%s': %v", name, err)
		return err
	}
	removed, err := s.Repos.Remove(name)
	if err != nil {
		return err
	}
	if !removed {
		return shared.ErrNotFound
	}
	logging.Log.Infof("RepositoryService: Repository destroyed: %s", name)
	return nil
}

// Compact frees space in an existing repository.
func (s *repositoryService) Compact(ctx context.Context, name string, blocking bool) error {
	if err := gateway.ValidateName(name); err != nil {
		return err
	}
	if _, err := s.Repos.FindByName(name); err != nil {
		return err
	}
	return s.Toolset.Compact(ctx, name, blocking)
}
