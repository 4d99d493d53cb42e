// filepath: internal/repository/open.go
package repository

import (
	"fmt"
	"path/filepath"

	"backuphub/internal/config"
	"backuphub/internal/logging"
	"backuphub/internal/models"
	"backuphub/internal/store"

	"github.com/juju/clock"
	"github.com/spf13/afero"
)

const (
	RepositoryFile = "repo.json"
	UserFile       = "users.json"
	HistoryDir     = "history"
)

// Stores bundles the two collections backing the application.
type Stores struct {
	Repositories *RepositoryStore
	Users        *UserStore
}

// Open builds both stores inside cfg.Storage.DataDir on fs.
func Open(fs afero.Fs, cfg *config.Config, clk clock.Clock) (*Stores, error) {
	dataDir := cfg.Storage.DataDir
	if err := fs.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	var repoOpts, userOpts []store.Option
	if cfg.HistoryEnabled() {
		historyDir := filepath.Join(dataDir, HistoryDir)
		repoOpts = append(repoOpts, store.WithHistory(store.NewHistory(fs, historyDir, "repo", cfg.Storage.HistoryRetention, clk)))
		userOpts = append(userOpts, store.WithHistory(store.NewHistory(fs, historyDir, "users", cfg.Storage.HistoryRetention, clk)))
	}

	logging.Log.Infof("Opening collections in %s (history: %t)", dataDir, cfg.HistoryEnabled())

	return &Stores{
		Repositories: NewRepositoryStore(store.NewDocument[models.Repository](fs, filepath.Join(dataDir, RepositoryFile), repoOpts...)),
		Users:        NewUserStore(store.NewDocument[models.User](fs, filepath.Join(dataDir, UserFile), userOpts...)),
	}, nil
}
