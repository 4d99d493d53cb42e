// Package gateway is the only code allowed to invoke the backup toolset.
// Every argument is validated before a process is started and passed as a
// discrete argv element.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"backuphub/internal/logging"
	"backuphub/internal/models"
	"backuphub/internal/shared"

	"github.com/sirupsen/logrus"
)

// Toolset script names, resolved inside the configured directory.
const (
	ScriptCreate    = "createRepo.sh"
	ScriptDelete    = "deleteRepo.sh"
	ScriptUpdate    = "updateRepo.sh"
	ScriptCompact   = "compactRepo.sh"
	ScriptUsage     = "getStorageUsed.sh"
	ScriptFreshness = "getLastSave.sh"
)

// Gateway invokes toolset scripts and parses their output.
type Gateway struct {
	runner Runner
	dir    string

	usageRunning     atomic.Bool
	freshnessRunning atomic.Bool

	background sync.WaitGroup
}

// New returns a Gateway running scripts from dir through runner.
func New(runner Runner, dir string) *Gateway {
	return &Gateway{runner: runner, dir: dir}
}

// Provision creates a repository for publicKey and returns the name printed by the toolset.
func (g *Gateway) Provision(ctx context.Context, publicKey string, quotaBytes int64, appendOnly bool) (string, error) {
	key, err := ValidatePublicKey(publicKey)
	if err != nil {
		return "", err
	}
	if err := ValidateQuota(quotaBytes); err != nil {
		return "", err
	}

	out, err := g.run(ctx, "provision", "", ScriptCreate, key, strconv.FormatInt(quotaBytes, 10), strconv.FormatBool(appendOnly))
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(string(out))
	if !nameRe.MatchString(name) {
		return "", &shared.ProcessError{Op: "provision", Diagnostic: fmt.Sprintf("unexpected repository name %q", name)}
	}
	return name, nil
}

// Destroy deletes the repository and its data.
func (g *Gateway) Destroy(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	_, err := g.run(ctx, "destroy", name, ScriptDelete, name)
	return err
}

// Resize updates key, quota and append-only mode of an existing repository.
func (g *Gateway) Resize(ctx context.Context, name, publicKey string, quotaBytes int64, appendOnly bool) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	key, err := ValidatePublicKey(publicKey)
	if err != nil {
		return err
	}
	if err := ValidateQuota(quotaBytes); err != nil {
		return err
	}
	_, err = g.run(ctx, "resize", name, ScriptUpdate, name, key, strconv.FormatInt(quotaBytes, 10), strconv.FormatBool(appendOnly))
	return err
}

// Compact frees space in the repository. When blocking is false the command
// runs in the background and its outcome is only logged.
func (g *Gateway) Compact(ctx context.Context, name string, blocking bool) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if blocking {
		_, err := g.run(ctx, "compact", name, ScriptCompact, name)
		return err
	}

	g.background.Add(1)
	go func() {
		defer g.background.Done()
		if _, err := g.run(ctx, "compact", name, ScriptCompact, name); err != nil {
			logging.Log.WithField("repository", name).Errorf("Background compaction failed: %v", err)
			return
		}
		logging.Log.WithField("repository", name).Info("Background compaction finished.")
	}()
	return nil
}

// Wait blocks until background compactions have finished.
func (g *Gateway) Wait() {
	g.background.Wait()
}

// ScanUsage reports the used bytes of every repository. Only one scan runs at
// a time; an overlapping call fails with shared.ErrAlreadyRunning.
func (g *Gateway) ScanUsage(ctx context.Context) ([]models.UsageEntry, error) {
	release, ok := acquire(&g.usageRunning)
	if !ok {
		return nil, shared.ErrAlreadyRunning
	}
	defer release()

	out, err := g.run(ctx, "scanUsage", "", ScriptUsage)
	if err != nil {
		return nil, err
	}
	entries, err := decodeUsage(out)
	if err != nil {
		return nil, &shared.ProcessError{Op: "scanUsage", Diagnostic: "malformed output", Err: err}
	}
	return entries, nil
}

// ScanFreshness reports the last save time of every repository. Only one scan
// runs at a time; an overlapping call fails with shared.ErrAlreadyRunning.
func (g *Gateway) ScanFreshness(ctx context.Context) ([]models.FreshnessEntry, error) {
	release, ok := acquire(&g.freshnessRunning)
	if !ok {
		return nil, shared.ErrAlreadyRunning
	}
	defer release()

	out, err := g.run(ctx, "scanFreshness", "", ScriptFreshness)
	if err != nil {
		return nil, err
	}
	entries, err := decodeFreshness(out)
	if err != nil {
		return nil, &shared.ProcessError{Op: "scanFreshness", Diagnostic: "malformed output", Err: err}
	}
	return entries, nil
}

func acquire(flag *atomic.Bool) (release func(), ok bool) {
	if !flag.CompareAndSwap(false, true) {
		return nil, false
	}
	return func() { flag.Store(false) }, true
}

// run executes script to completion. The caller's cancellation is not
// propagated; the runner's own timeout is the only bound on a toolset command.
func (g *Gateway) run(ctx context.Context, op, target, script string, args ...string) ([]byte, error) {
	log := logging.Log.WithFields(logrus.Fields{"op": op, "repository": target})
	log.Debug("Invoking toolset.")

	out, err := g.runner.Run(context.WithoutCancel(ctx), filepath.Join(g.dir, script), args...)
	if err != nil {
		perr := &shared.ProcessError{Op: op, Target: target, Err: err}
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			perr.Diagnostic = exitErr.Stderr
			perr.Err = exitErr.Err
		}
		log.Errorf("Toolset command failed: %v", perr)
		return nil, perr
	}
	return out, nil
}

type usageRecord struct {
	Name *string `json:"name"`
	Size *int64  `json:"size"`
}

type freshnessRecord struct {
	Name     *string `json:"name"`
	LastSave *int64  `json:"lastSave"`
}

func decodeUsage(out []byte) ([]models.UsageEntry, error) {
	var raw []usageRecord
	if err := decodeStrict(out, &raw); err != nil {
		return nil, err
	}
	entries := make([]models.UsageEntry, 0, len(raw))
	for i, r := range raw {
		if r.Name == nil || r.Size == nil {
			return nil, fmt.Errorf("entry %d: name and size are required", i)
		}
		if err := ValidateName(*r.Name); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if *r.Size < 0 {
			return nil, fmt.Errorf("entry %d: negative size", i)
		}
		entries = append(entries, models.UsageEntry{Name: *r.Name, Size: *r.Size})
	}
	return entries, nil
}

func decodeFreshness(out []byte) ([]models.FreshnessEntry, error) {
	var raw []freshnessRecord
	if err := decodeStrict(out, &raw); err != nil {
		return nil, err
	}
	entries := make([]models.FreshnessEntry, 0, len(raw))
	for i, r := range raw {
		if r.Name == nil || r.LastSave == nil {
			return nil, fmt.Errorf("entry %d: name and lastSave are required", i)
		}
		if err := ValidateName(*r.Name); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if *r.LastSave < 0 {
			return nil, fmt.Errorf("entry %d: negative lastSave", i)
		}
		entries = append(entries, models.FreshnessEntry{Name: *r.Name, LastSave: *r.LastSave})
	}
	return entries, nil
}

// decodeStrict decodes exactly one JSON value with no unknown fields.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after JSON array")
	}
	return nil
}
