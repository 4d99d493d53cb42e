// Package store persists whole collections of records as JSON documents.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"backuphub/internal/logging"
	"backuphub/internal/shared"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Document is a mutex-guarded JSON file holding a collection of T.
// Every read and write covers the whole collection.
type Document[T any] struct {
	mu      sync.Mutex
	fs      afero.Fs
	path    string
	history *History
}

// Option configures a Document.
type Option func(*options)

type options struct {
	history *History
}

// WithHistory makes writes with recordHistory=true append the previous
// snapshot to h before overwriting.
func WithHistory(h *History) Option {
	return func(o *options) { o.history = h }
}

// NewDocument returns a Document stored at path on fs.
func NewDocument[T any](fs afero.Fs, path string, opts ...Option) *Document[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Document[T]{fs: fs, path: path, history: o.history}
}

// Read returns the current collection. A missing or unparseable file yields an
// empty collection; the failure is logged, never returned.
func (d *Document[T]) Read() []T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.read()
}

// Write atomically replaces the collection.
func (d *Document[T]) Write(items []T, recordHistory bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(items, recordHistory)
}

// Update runs fn on the current collection and writes its result, all under
// the lock. fn must not block on external I/O. If fn returns an error nothing
// is written and the error is returned as is. A file that exists but does not
// parse is left untouched and reported as a *shared.StorageError.
func (d *Document[T]) Update(fn func(items []T) ([]T, error), recordHistory bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, err := d.load()
	if err != nil {
		logging.Log.WithField("path", d.path).Errorf("Refusing to update unreadable collection: %v", err)
		return &shared.StorageError{Path: d.path, Err: err}
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	return d.write(next, recordHistory)
}

func (d *Document[T]) read() []T {
	items, err := d.load()
	if err != nil {
		logging.Log.WithFields(logrus.Fields{"path": d.path, "error": err}).Error("COLLECTION FILE IS UNREADABLE, serving an empty collection")
		return []T{}
	}
	return items
}

// load returns the collection on disk. A missing file is an empty collection.
func (d *Document[T]) load() ([]T, error) {
	data, err := afero.ReadFile(d.fs, d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Log.WithField("path", d.path).Warn("Collection file does not exist yet, starting empty.")
			return []T{}, nil
		}
		return nil, fmt.Errorf("read: %w", err)
	}

	items := []T{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (d *Document[T]) write(items []T, recordHistory bool) error {
	if items == nil {
		items = []T{}
	}

	data, err := json.MarshalIndent(items, "", "    ")
	if err != nil {
		return &shared.StorageError{Path: d.path, Err: fmt.Errorf("encode: %w", err)}
	}

	if recordHistory && d.history != nil {
		d.recordHistory()
	}

	dir := filepath.Dir(d.path)
	if err := d.fs.MkdirAll(dir, 0o750); err != nil {
		return &shared.StorageError{Path: d.path, Err: err}
	}

	tmp, err := afero.TempFile(d.fs, dir, "."+filepath.Base(d.path)+"-*.tmp")
	if err != nil {
		return &shared.StorageError{Path: d.path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		d.fs.Remove(tmpName)
		return &shared.StorageError{Path: d.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		d.fs.Remove(tmpName)
		return &shared.StorageError{Path: d.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		d.fs.Remove(tmpName)
		return &shared.StorageError{Path: d.path, Err: err}
	}
	if err := d.fs.Rename(tmpName, d.path); err != nil {
		d.fs.Remove(tmpName)
		return &shared.StorageError{Path: d.path, Err: err}
	}
	return nil
}

// recordHistory appends the on-disk snapshot to the history log.
// Failures are logged and swallowed.
func (d *Document[T]) recordHistory() {
	previous, err := afero.ReadFile(d.fs, d.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Log.Warnf("History: could not read previous snapshot of %s: %v", d.path, err)
		}
		return
	}
	if err := d.history.Append(previous); err != nil {
		logging.Log.Warnf("History: could not record snapshot of %s: %v", d.path, err)
	}
}
