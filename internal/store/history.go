package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/spf13/afero"
)

// DefaultRetention is the number of dated history files kept per prefix.
const DefaultRetention = 8

// History is an append-only log of collection snapshots, one file per day.
type History struct {
	fs     afero.Fs
	dir    string
	prefix string
	retain int
	clock  clock.Clock
}

// NewHistory returns a History writing <dir>/<prefix>-YYYY-MM-DD.log files and
// keeping the newest retain of them. A nil clock means the wall clock.
func NewHistory(fs afero.Fs, dir, prefix string, retain int, clk clock.Clock) *History {
	if retain <= 0 {
		retain = DefaultRetention
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &History{fs: fs, dir: dir, prefix: prefix, retain: retain, clock: clk}
}

// Append writes a timestamped, pretty-printed snapshot to today's file and
// then prunes old files.
func (h *History) Append(snapshot []byte) error {
	now := h.clock.Now().UTC()

	if err := h.fs.MkdirAll(h.dir, 0o750); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, snapshot, "", "    "); err != nil {
		// Not valid JSON, keep the raw bytes.
		pretty.Reset()
		pretty.Write(snapshot)
	}

	var entry bytes.Buffer
	fmt.Fprintf(&entry, "==== %s ====\n", now.Format(time.RFC3339))
	entry.Write(pretty.Bytes())
	entry.WriteString("\n\n")

	path := filepath.Join(h.dir, h.fileName(now))
	f, err := h.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	if _, err := f.Write(entry.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("append history: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close history file: %w", err)
	}

	return h.prune()
}

// Files lists the history files for this prefix, oldest first.
func (h *History) Files() ([]string, error) {
	entries, err := afero.ReadDir(h.fs, h.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, h.prefix+"-") && strings.HasSuffix(name, ".log") {
			files = append(files, name)
		}
	}
	// ISO dates in the name make lexicographic order chronological.
	sort.Strings(files)
	return files, nil
}

func (h *History) prune() error {
	files, err := h.Files()
	if err != nil {
		return fmt.Errorf("list history files: %w", err)
	}
	for len(files) > h.retain {
		if err := h.fs.Remove(filepath.Join(h.dir, files[0])); err != nil {
			return fmt.Errorf("remove old history file %s: %w", files[0], err)
		}
		files = files[1:]
	}
	return nil
}

func (h *History) fileName(t time.Time) string {
	return fmt.Sprintf("%s-%s.log", h.prefix, t.Format("2006-01-02"))
}
