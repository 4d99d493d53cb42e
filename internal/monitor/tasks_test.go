// filepath: internal/monitor/tasks_test.go
package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"backuphub/internal/config"
	"backuphub/internal/models"
	"backuphub/internal/repository"
	"backuphub/internal/shared"

	"github.com/juju/clock/testclock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockScanner is a mock implementation of ScannerTX.
type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) ScanFreshness(ctx context.Context) ([]models.FreshnessEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FreshnessEntry), args.Error(1)
}

func (m *MockScanner) ScanUsage(ctx context.Context) ([]models.UsageEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UsageEntry), args.Error(1)
}

// MockUsers is a mock implementation of UserTX.
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Operator() (*models.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockNotifier is a mock implementation of NotifierTX.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Dispatch(ctx context.Context, recipient models.User, aliases []string) {
	m.Called(ctx, recipient, aliases)
}

var testNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func ptr(v int64) *int64 { return &v }

// setupTest creates dependencies backed by an in-memory repository store.
func setupTest(t *testing.T, repos []models.Repository) (Dependencies, *repository.RepositoryStore, *MockScanner, *MockUsers, *MockNotifier) {
	t.Helper()
	cfg := &config.Config{}
	require.NoError(t, cfg.ParseAndValidate())
	clk := testclock.NewClock(testNow)
	stores, err := repository.Open(afero.NewMemMapFs(), cfg, clk)
	require.NoError(t, err)
	if repos != nil {
		require.NoError(t, stores.Repositories.Replace(repos, false))
	}

	scanner, users, notifier := new(MockScanner), new(MockUsers), new(MockNotifier)
	deps := Dependencies{
		Repos:    stores.Repositories,
		Users:    users,
		Scanner:  scanner,
		Notifier: notifier,
		Clock:    clk,
	}
	return deps, stores.Repositories, scanner, users, notifier
}

func TestReconcile(t *testing.T) {
	now := testNow.Unix()

	testCases := []struct {
		name          string
		repo          models.Repository
		lastSave      *int64
		wantStatus    bool
		wantAlert     bool
		wantAlertedAt *int64
	}{
		{
			name:       "fresh within threshold",
			repo:       models.Repository{Name: "a1b2c3d4", Alias: "laptop", AlertThresholdSeconds: 3600},
			lastSave:   ptr(now - 1800),
			wantStatus: true,
		},
		{
			name:          "stale, never alerted",
			repo:          models.Repository{Name: "a1b2c3d4", Alias: "laptop", AlertThresholdSeconds: 3600, Status: true},
			lastSave:      ptr(now - 7200),
			wantStatus:    false,
			wantAlert:     true,
			wantAlertedAt: ptr(now),
		},
		{
			name:          "stale, alerted inside suppression window",
			repo:          models.Repository{Name: "a1b2c3d4", Alias: "laptop", AlertThresholdSeconds: 3600, LastAlertSentAt: ptr(now - 1000)},
			lastSave:      ptr(now - 7200),
			wantStatus:    false,
			wantAlertedAt: ptr(now - 1000),
		},
		{
			name:          "stale, suppression window exactly elapsed",
			repo:          models.Repository{Name: "a1b2c3d4", Alias: "laptop", AlertThresholdSeconds: 3600, LastAlertSentAt: ptr(now - SuppressionWindow)},
			lastSave:      ptr(now - 7200),
			wantStatus:    false,
			wantAlertedAt: ptr(now - SuppressionWindow),
		},
		{
			name:          "stale, suppression window passed",
			repo:          models.Repository{Name: "a1b2c3d4", Alias: "laptop", AlertThresholdSeconds: 3600, LastAlertSentAt: ptr(now - SuppressionWindow - 1)},
			lastSave:      ptr(now - 7200),
			wantStatus:    false,
			wantAlert:     true,
			wantAlertedAt: ptr(now),
		},
		{
			name:       "alerting disabled",
			repo:       models.Repository{Name: "a1b2c3d4", Alias: "laptop", AlertThresholdSeconds: 0},
			lastSave:   ptr(now - 7200),
			wantStatus: false,
		},
		{
			name:       "exactly at threshold is up",
			repo:       models.Repository{Name: "a1b2c3d4", Alias: "laptop", AlertThresholdSeconds: 3600},
			lastSave:   ptr(now - 3600),
			wantStatus: true,
		},
		{
			name:       "no freshness entry leaves record unchanged",
			repo:       models.Repository{Name: "a1b2c3d4", Alias: "laptop", AlertThresholdSeconds: 3600, Status: true, LastSaveAt: now - 99999},
			wantStatus: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var fresh []models.FreshnessEntry
			if tc.lastSave != nil {
				fresh = append(fresh, models.FreshnessEntry{Name: tc.repo.Name, LastSave: *tc.lastSave})
			}
			// Another repository's data must not affect this one.
			fresh = append(fresh, models.FreshnessEntry{Name: "ffffffff", LastSave: 1})

			input := []models.Repository{tc.repo}
			updated, alerts := Reconcile(input, fresh, now)

			require.Len(t, updated, 1)
			assert.Equal(t, tc.wantStatus, updated[0].Status)
			if tc.lastSave != nil {
				assert.Equal(t, *tc.lastSave, updated[0].LastSaveAt)
			} else {
				assert.Equal(t, tc.repo.LastSaveAt, updated[0].LastSaveAt)
			}
			if tc.wantAlert {
				assert.Equal(t, []string{"laptop"}, alerts)
			} else {
				assert.Empty(t, alerts)
			}
			assert.Equal(t, tc.wantAlertedAt, updated[0].LastAlertSentAt)
			// Input is untouched.
			assert.Equal(t, tc.repo, input[0])
		})
	}
}

func TestRunStatusCycle_AlertsAndPersists(t *testing.T) {
	now := testNow.Unix()
	deps, repos, scanner, users, notifier := setupTest(t, []models.Repository{
		{ID: 0, Name: "a1b2c3d4", Alias: "laptop", AlertThresholdSeconds: 3600},
		{ID: 1, Name: "deadbeef", Alias: "nas", AlertThresholdSeconds: 3600},
		{ID: 2, Name: "0badc0de", Alias: "phone", AlertThresholdSeconds: 3600, LastAlertSentAt: ptr(now - 1000)},
		{ID: 3, Name: "cafebabe", Alias: "unscanned", AlertThresholdSeconds: 0},
	})
	operator := &models.User{Username: "admin", EmailAlertEnabled: true}

	scanner.On("ScanFreshness", mock.Anything).Return([]models.FreshnessEntry{
		{Name: "a1b2c3d4", LastSave: now - 1800},
		{Name: "deadbeef", LastSave: now - 7200},
		{Name: "0badc0de", LastSave: now - 7200},
	}, nil).Once()
	users.On("Operator").Return(operator, nil).Once()
	notifier.On("Dispatch", mock.Anything, *operator, []string{"nas"}).Return().Once()

	report, err := RunStatusCycle(context.Background(), deps)
	require.NoError(t, err)

	assert.False(t, report.NoOp)
	assert.NotEmpty(t, report.CycleID)
	assert.Equal(t, 4, report.Checked)
	assert.Equal(t, 3, report.Updated)
	assert.Equal(t, 3, report.Down)
	assert.Equal(t, 1, report.AlertsSent)

	laptop, err := repos.FindByName("a1b2c3d4")
	require.NoError(t, err)
	assert.True(t, laptop.Status)
	assert.Equal(t, now-1800, laptop.LastSaveAt)

	nas, err := repos.FindByName("deadbeef")
	require.NoError(t, err)
	assert.False(t, nas.Status)
	require.NotNil(t, nas.LastAlertSentAt)
	assert.Equal(t, now, *nas.LastAlertSentAt)

	phone, err := repos.FindByName("0badc0de")
	require.NoError(t, err)
	assert.Equal(t, now-1000, *phone.LastAlertSentAt)

	scanner.AssertExpectations(t)
	users.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestRunStatusCycle_SecondCycleIsSuppressed(t *testing.T) {
	now := testNow.Unix()
	deps, _, scanner, users, notifier := setupTest(t, []models.Repository{
		{ID: 0, Name: "deadbeef", Alias: "nas", AlertThresholdSeconds: 3600},
	})
	fresh := []models.FreshnessEntry{{Name: "deadbeef", LastSave: now - 7200}}

	scanner.On("ScanFreshness", mock.Anything).Return(fresh, nil).Twice()
	users.On("Operator").Return(&models.User{Username: "admin"}, nil).Once()
	notifier.On("Dispatch", mock.Anything, mock.Anything, []string{"nas"}).Return().Once()

	first, err := RunStatusCycle(context.Background(), deps)
	require.NoError(t, err)
	assert.Equal(t, 1, first.AlertsSent)

	deps.Clock.(*testclock.Clock).Advance(1000 * time.Second)

	second, err := RunStatusCycle(context.Background(), deps)
	require.NoError(t, err)
	assert.Equal(t, 0, second.AlertsSent)

	notifier.AssertNumberOfCalls(t, "Dispatch", 1)
}

func TestRunStatusCycle_NoOp(t *testing.T) {
	t.Run("No freshness entries", func(t *testing.T) {
		deps, repos, scanner, _, notifier := setupTest(t, []models.Repository{{Name: "deadbeef", Alias: "nas", AlertThresholdSeconds: 60}})
		scanner.On("ScanFreshness", mock.Anything).Return([]models.FreshnessEntry{}, nil).Once()

		report, err := RunStatusCycle(context.Background(), deps)
		require.NoError(t, err)
		assert.True(t, report.NoOp)
		notifier.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)

		r, err := repos.FindByName("deadbeef")
		require.NoError(t, err)
		assert.Nil(t, r.LastAlertSentAt)
	})

	t.Run("No repositories", func(t *testing.T) {
		deps, _, scanner, _, _ := setupTest(t, nil)
		scanner.On("ScanFreshness", mock.Anything).Return([]models.FreshnessEntry{{Name: "deadbeef", LastSave: 1}}, nil).Once()

		report, err := RunStatusCycle(context.Background(), deps)
		require.NoError(t, err)
		assert.True(t, report.NoOp)
	})
}

func TestRunStatusCycle_ScanErrors(t *testing.T) {
	t.Run("Already running", func(t *testing.T) {
		deps, _, scanner, _, _ := setupTest(t, nil)
		scanner.On("ScanFreshness", mock.Anything).Return(nil, shared.ErrAlreadyRunning).Once()

		_, err := RunStatusCycle(context.Background(), deps)
		assert.ErrorIs(t, err, shared.ErrAlreadyRunning)
	})

	t.Run("Process failure", func(t *testing.T) {
		deps, _, scanner, _, _ := setupTest(t, nil)
		scanner.On("ScanFreshness", mock.Anything).Return(nil, &shared.ProcessError{Op: "scanFreshness", Diagnostic: "boom"}).Once()

		_, err := RunStatusCycle(context.Background(), deps)
		assert.True(t, errors.Is(err, shared.ErrExternalProcess))
	})
}

func TestRunStatusCycle_PersistsWithoutOperator(t *testing.T) {
	now := testNow.Unix()
	deps, repos, scanner, users, notifier := setupTest(t, []models.Repository{
		{Name: "deadbeef", Alias: "nas", AlertThresholdSeconds: 3600},
	})
	scanner.On("ScanFreshness", mock.Anything).Return([]models.FreshnessEntry{{Name: "deadbeef", LastSave: now - 7200}}, nil).Once()
	users.On("Operator").Return(nil, shared.ErrNotFound).Once()

	_, err := RunStatusCycle(context.Background(), deps)
	require.NoError(t, err)

	notifier.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
	r, err := repos.FindByName("deadbeef")
	require.NoError(t, err)
	assert.Equal(t, now-7200, r.LastSaveAt)
}

func TestRunStatusCycle_KeepsConcurrentMutations(t *testing.T) {
	now := testNow.Unix()
	deps, repos, scanner, _, _ := setupTest(t, []models.Repository{
		{ID: 0, Name: "a1b2c3d4", Alias: "laptop", AlertThresholdSeconds: 3600},
	})

	// A repository is created and an alias renamed while the scan runs.
	scanner.On("ScanFreshness", mock.Anything).Run(func(args mock.Arguments) {
		require.NoError(t, repos.Update(func(items []models.Repository) ([]models.Repository, error) {
			items[0].Alias = "work-laptop"
			return append(items, models.Repository{ID: 1, Name: "deadbeef", Alias: "nas"}), nil
		}, false))
	}).Return([]models.FreshnessEntry{{Name: "a1b2c3d4", LastSave: now - 60}}, nil).Once()

	// The scan mutation happens before List, so the cycle sees both records.
	_, err := RunStatusCycle(context.Background(), deps)
	require.NoError(t, err)

	all := repos.List()
	require.Len(t, all, 2)
	assert.Equal(t, "work-laptop", all[0].Alias)
	assert.True(t, all[0].Status)
	assert.Equal(t, "nas", all[1].Alias)
}

func TestRunUsageCycle(t *testing.T) {
	deps, repos, scanner, _, _ := setupTest(t, []models.Repository{
		{Name: "a1b2c3d4", StorageUsedBytes: 10},
		{Name: "deadbeef", StorageUsedBytes: 20},
	})
	scanner.On("ScanUsage", mock.Anything).Return([]models.UsageEntry{{Name: "deadbeef", Size: 4096}, {Name: "ffffffff", Size: 1}}, nil).Once()

	report, err := RunUsageCycle(context.Background(), deps)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)

	a, _ := repos.FindByName("a1b2c3d4")
	b, _ := repos.FindByName("deadbeef")
	assert.Equal(t, int64(10), a.StorageUsedBytes)
	assert.Equal(t, int64(4096), b.StorageUsedBytes)
}

func TestRunUsageCycle_ScanError(t *testing.T) {
	deps, _, scanner, _, _ := setupTest(t, nil)
	scanner.On("ScanUsage", mock.Anything).Return(nil, shared.ErrAlreadyRunning).Once()

	_, err := RunUsageCycle(context.Background(), deps)
	assert.ErrorIs(t, err, shared.ErrAlreadyRunning)
}
