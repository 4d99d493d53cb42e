// filepath: internal/repository/repositories.go
package repository

import (
	"errors"
	"strings"

	"backuphub/internal/models"
	"backuphub/internal/shared"
	"backuphub/internal/store"
)

// RepositoryStore is the typed collection of backup repository records.
type RepositoryStore struct {
	doc *store.Document[models.Repository]
}

// NewRepositoryStore wraps an already configured document.
func NewRepositoryStore(doc *store.Document[models.Repository]) *RepositoryStore {
	return &RepositoryStore{doc: doc}
}

// List returns every repository record.
func (s *RepositoryStore) List() []models.Repository {
	return s.doc.Read()
}

// FindByName returns the record with the given system name.
func (s *RepositoryStore) FindByName(name string) (*models.Repository, error) {
	for _, r := range s.doc.Read() {
		if r.Name == name {
			repo := r
			return &repo, nil
		}
	}
	return nil, shared.ErrNotFound
}

// Replace overwrites the whole collection.
func (s *RepositoryStore) Replace(items []models.Repository, recordHistory bool) error {
	return s.doc.Write(items, recordHistory)
}

// Update runs a locked read-modify-write on the collection.
func (s *RepositoryStore) Update(fn func([]models.Repository) ([]models.Repository, error), recordHistory bool) error {
	return s.doc.Update(fn, recordHistory)
}

// Remove deletes the record named name. It reports false when no such record
// exists, in which case nothing is written.
func (s *RepositoryStore) Remove(name string) (bool, error) {
	removed := false
	err := s.doc.Update(func(items []models.Repository) ([]models.Repository, error) {
		out := items[:0:0]
		for _, r := range items {
			if r.Name == name {
				removed = true
				continue
			}
			out = append(out, r)
		}
		if !removed {
			return nil, shared.ErrNotFound
		}
		return out, nil
	}, true)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	return removed, err
}

// NextID returns max(id)+1, or 0 for an empty collection.
func NextID(items []models.Repository) int {
	if len(items) == 0 {
		return 0
	}
	max := items[0].ID
	for _, r := range items[1:] {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}

// HasPublicKey reports whether any record other than exceptName uses key.
// Keys are compared by type and blob; the trailing comment is ignored.
func HasPublicKey(items []models.Repository, key, exceptName string) bool {
	want := keyIdentity(key)
	if want == "" {
		return false
	}
	for _, r := range items {
		if r.Name == exceptName && exceptName != "" {
			continue
		}
		if keyIdentity(r.PublicKey) == want {
			return true
		}
	}
	return false
}

func keyIdentity(key string) string {
	fields := strings.Fields(key)
	if len(fields) < 2 {
		return strings.TrimSpace(key)
	}
	return fields[0] + " " + fields[1]
}
