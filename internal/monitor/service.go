// filepath: internal/monitor/service.go
package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"backuphub/internal/logging"
	"backuphub/internal/models"
	"backuphub/internal/shared"

	"github.com/juju/clock"
)

// Service provides the background worker running the status and usage cycles.
type Service struct {
	Deps Dependencies

	statusInterval time.Duration
	usageInterval  time.Duration

	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

// NewService creates a new monitor service. A zero interval disables that cycle.
func NewService(deps Dependencies, statusInterval, usageInterval time.Duration) *Service {
	if deps.Clock == nil {
		deps.Clock = clock.WallClock
	}
	return &Service{
		Deps:           deps,
		statusInterval: statusInterval,
		usageInterval:  usageInterval,
		stopCh:         make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Start runs both cycles once and then on their intervals until Stop.
func (s *Service) Start() {
	logging.Log.Infof("Starting background monitor (status every %v, usage every %v).", s.statusInterval, s.usageInterval)
	s.started.Store(true)
	go s.run()
}

// Stop terminates the background worker and waits for it to exit.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		logging.Log.Info("Stopping background monitor.")
		close(s.stopCh)
	})
	if s.started.Load() {
		<-s.done
	}
}

func (s *Service) run() {
	defer close(s.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	var statusTimer, usageTimer clock.Timer
	var statusC, usageC <-chan time.Time
	if s.statusInterval > 0 {
		s.RunStatus(ctx)
		statusTimer = s.Deps.Clock.NewTimer(s.statusInterval)
		defer statusTimer.Stop()
		statusC = statusTimer.Chan()
	}
	if s.usageInterval > 0 {
		s.RunUsage(ctx)
		usageTimer = s.Deps.Clock.NewTimer(s.usageInterval)
		defer usageTimer.Stop()
		usageC = usageTimer.Chan()
	}

	for {
		select {
		case <-statusC:
			s.RunStatus(ctx)
			statusTimer.Reset(s.statusInterval)
			logging.Log.Debugf("Next status check scheduled in %v.", s.statusInterval)
		case <-usageC:
			s.RunUsage(ctx)
			usageTimer.Reset(s.usageInterval)
			logging.Log.Debugf("Next usage check scheduled in %v.", s.usageInterval)
		case <-s.stopCh:
			return
		}
	}
}

// RunStatus runs one status cycle and logs its outcome.
func (s *Service) RunStatus(ctx context.Context) (*models.StatusReport, error) {
	report, err := RunStatusCycle(ctx, s.Deps)
	logCycleError("status", err)
	return report, err
}

// RunUsage runs one usage cycle and logs its outcome.
func (s *Service) RunUsage(ctx context.Context) (*models.UsageReport, error) {
	report, err := RunUsageCycle(ctx, s.Deps)
	logCycleError("usage", err)
	return report, err
}

func logCycleError(cycle string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrAlreadyRunning):
		logging.Log.Warnf("Skipping %s cycle: previous scan still running.", cycle)
	default:
		logging.Log.Errorf("Monitor %s cycle failed: %v", cycle, err)
	}
}
