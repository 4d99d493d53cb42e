package repository

import (
	"errors"
	"testing"
	"time"

	"backuphub/internal/config"
	"backuphub/internal/models"
	"backuphub/internal/shared"

	"github.com/juju/clock/testclock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStores(t *testing.T) (*Stores, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	cfg := &config.Config{}
	require.NoError(t, cfg.ParseAndValidate())
	stores, err := Open(fs, cfg, testclock.NewClock(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	return stores, fs
}

func TestNextID(t *testing.T) {
	assert.Equal(t, 0, NextID(nil))
	assert.Equal(t, 1, NextID([]models.Repository{{ID: 0}}))
	assert.Equal(t, 8, NextID([]models.Repository{{ID: 3}, {ID: 7}, {ID: 1}}))
}

func TestHasPublicKey(t *testing.T) {
	items := []models.Repository{
		{Name: "a1b2c3d4", PublicKey: "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIKey1 laptop"},
		{Name: "deadbeef", PublicKey: "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIKey2"},
	}

	assert.True(t, HasPublicKey(items, "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIKey1", ""))
	assert.True(t, HasPublicKey(items, "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIKey2 other-comment", ""))
	assert.False(t, HasPublicKey(items, "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIKey3", ""))
	// A record never conflicts with itself.
	assert.False(t, HasPublicKey(items, "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIKey1", "a1b2c3d4"))
	assert.False(t, HasPublicKey(items, "", ""))
}

func TestRepositoryStore(t *testing.T) {
	stores, fs := openTestStores(t)
	repos := stores.Repositories

	t.Run("FindByName on empty store", func(t *testing.T) {
		_, err := repos.FindByName("a1b2c3d4")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	require.NoError(t, repos.Replace([]models.Repository{
		{ID: 0, Alias: "laptop", Name: "a1b2c3d4"},
		{ID: 1, Alias: "server", Name: "deadbeef"},
	}, false))

	t.Run("FindByName", func(t *testing.T) {
		r, err := repos.FindByName("deadbeef")
		require.NoError(t, err)
		assert.Equal(t, "server", r.Alias)
	})

	t.Run("Remove", func(t *testing.T) {
		removed, err := repos.Remove("a1b2c3d4")
		require.NoError(t, err)
		assert.True(t, removed)
		assert.Len(t, repos.List(), 1)

		removed, err = repos.Remove("a1b2c3d4")
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("Remove records history", func(t *testing.T) {
		exists, err := afero.Exists(fs, "data/history/repo-2026-06-01.log")
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestUserStore(t *testing.T) {
	stores, _ := openTestStores(t)
	users := stores.Users

	_, err := users.Operator()
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	require.NoError(t, users.Update(func(items []models.User) ([]models.User, error) {
		return append(items,
			models.User{ID: NextUserID(items), Username: "admin", Tokens: []models.AccessToken{{Name: "ci", Token: "digest-1"}}},
		), nil
	}, false))
	require.NoError(t, users.Update(func(items []models.User) ([]models.User, error) {
		return append(items, models.User{ID: NextUserID(items), Username: "backup-viewer"}), nil
	}, false))

	op, err := users.Operator()
	require.NoError(t, err)
	assert.Equal(t, "admin", op.Username)

	u, err := users.FindByUsername("backup-viewer")
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)

	_, err = users.FindByUsername("nobody")
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	owner, token, err := users.FindToken("digest-1")
	require.NoError(t, err)
	assert.Equal(t, "admin", owner.Username)
	assert.Equal(t, "ci", token.Name)

	_, _, err = users.FindToken("digest-2")
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
