// filepath: internal/monitor/tasks.go
package monitor

import (
	"context"
	"fmt"

	"backuphub/internal/logging"
	"backuphub/internal/models"

	"github.com/juju/clock"
	"github.com/oklog/ulid/v2"
)

// SuppressionWindow is the minimum number of seconds between two alerts for
// a repository that stays down.
const SuppressionWindow int64 = 90000

// Dependencies defines the collaborators of a reconciliation cycle.
type Dependencies struct {
	Repos    RepoTX
	Users    UserTX
	Scanner  ScannerTX
	Notifier NotifierTX
	Clock    clock.Clock
}

// Reconcile applies freshness data to repos at unix time now. It returns the
// updated records and the aliases that need an alert; the input is not modified.
// Records without a freshness entry keep their status.
func Reconcile(repos []models.Repository, fresh []models.FreshnessEntry, now int64) ([]models.Repository, []string) {
	lastSave := make(map[string]int64, len(fresh))
	for _, f := range fresh {
		lastSave[f.Name] = f.LastSave
	}

	updated := make([]models.Repository, len(repos))
	copy(updated, repos)

	var alerts []string
	for i := range updated {
		r := &updated[i]
		if last, ok := lastSave[r.Name]; ok {
			r.LastSaveAt = last
			r.Status = now-last <= r.AlertThresholdSeconds
		}
		if needsAlert(*r, now) {
			sentAt := now
			r.LastAlertSentAt = &sentAt
			alerts = append(alerts, r.Alias)
		}
	}
	return updated, alerts
}

func needsAlert(r models.Repository, now int64) bool {
	if r.Status || r.AlertThresholdSeconds == 0 {
		return false
	}
	return r.LastAlertSentAt == nil || now-*r.LastAlertSentAt > SuppressionWindow
}

// RunStatusCycle scans freshness, updates every repository status, alerts the
// operator about down repositories and persists the result in one write.
func RunStatusCycle(ctx context.Context, deps Dependencies) (*models.StatusReport, error) {
	report := &models.StatusReport{CycleID: newCycleID(deps.Clock)}
	log := logging.Log.WithField("cycle", report.CycleID)

	fresh, err := deps.Scanner.ScanFreshness(ctx)
	if err != nil {
		return report, fmt.Errorf("freshness scan: %w", err)
	}

	repos := deps.Repos.List()
	if len(repos) == 0 || len(fresh) == 0 {
		log.Debugf("Status cycle has nothing to do (%d repositories, %d freshness entries).", len(repos), len(fresh))
		report.NoOp = true
		return report, nil
	}

	now := deps.Clock.Now().Unix()
	updated, alerts := Reconcile(repos, fresh, now)

	seen := make(map[string]bool, len(fresh))
	for _, f := range fresh {
		seen[f.Name] = true
	}
	patches := make(map[string]models.Repository, len(updated))
	for _, r := range updated {
		if seen[r.Name] {
			report.Updated++
		}
		if !r.Status {
			report.Down++
		}
		patches[r.Name] = r
	}
	report.Checked = len(updated)

	if len(alerts) > 0 {
		report.AlertsSent = len(alerts)
		report.Alerted = alerts
		user, err := deps.Users.Operator()
		if err != nil {
			log.Warnf("Cannot notify about %d down repositories: no operator account (%v)", len(alerts), err)
		} else {
			log.Infof("Dispatching alert for %d down repositories.", len(alerts))
			deps.Notifier.Dispatch(ctx, *user, alerts)
		}
	}

	// Apply the monitor-owned fields onto the latest collection so concurrent
	// API mutations made during the scan survive.
	err = deps.Repos.Update(func(current []models.Repository) ([]models.Repository, error) {
		for i := range current {
			p, ok := patches[current[i].Name]
			if !ok {
				continue
			}
			current[i].LastSaveAt = p.LastSaveAt
			current[i].Status = p.Status
			current[i].LastAlertSentAt = p.LastAlertSentAt
		}
		return current, nil
	}, false)
	if err != nil {
		return report, fmt.Errorf("persist status: %w", err)
	}

	log.Infof("Status cycle finished: %d checked, %d updated, %d down, %d alerted.",
		report.Checked, report.Updated, report.Down, report.AlertsSent)
	return report, nil
}

// RunUsageCycle refreshes storageUsedBytes from the usage scan.
func RunUsageCycle(ctx context.Context, deps Dependencies) (*models.UsageReport, error) {
	report := &models.UsageReport{CycleID: newCycleID(deps.Clock)}
	log := logging.Log.WithField("cycle", report.CycleID)

	usage, err := deps.Scanner.ScanUsage(ctx)
	if err != nil {
		return report, fmt.Errorf("usage scan: %w", err)
	}
	if len(usage) == 0 || len(deps.Repos.List()) == 0 {
		report.NoOp = true
		return report, nil
	}

	used := make(map[string]int64, len(usage))
	for _, u := range usage {
		used[u.Name] = u.Size
	}

	err = deps.Repos.Update(func(current []models.Repository) ([]models.Repository, error) {
		report.Updated = 0
		for i := range current {
			if size, ok := used[current[i].Name]; ok {
				current[i].StorageUsedBytes = size
				report.Updated++
			}
		}
		return current, nil
	}, false)
	if err != nil {
		return report, fmt.Errorf("persist usage: %w", err)
	}

	log.Infof("Usage cycle finished: %d repositories refreshed.", report.Updated)
	return report, nil
}

func newCycleID(clk clock.Clock) string {
	return ulid.MustNew(ulid.Timestamp(clk.Now()), ulid.DefaultEntropy()).String()
}
