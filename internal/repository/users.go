// filepath: internal/repository/users.go
package repository

import (
	"fmt"

	"backuphub/internal/models"
	"backuphub/internal/shared"
	"backuphub/internal/store"
)

// UserStore is the typed collection of operator accounts.
type UserStore struct {
	doc *store.Document[models.User]
}

// NewUserStore wraps an already configured document.
func NewUserStore(doc *store.Document[models.User]) *UserStore {
	return &UserStore{doc: doc}
}

// List returns every user record.
func (s *UserStore) List() []models.User {
	return s.doc.Read()
}

// Operator returns the first user, who receives all alerts.
func (s *UserStore) Operator() (*models.User, error) {
	users := s.doc.Read()
	if len(users) == 0 {
		return nil, shared.ErrNotFound
	}
	u := users[0]
	return &u, nil
}

// FindByUsername returns the user with the given name.
func (s *UserStore) FindByUsername(username string) (*models.User, error) {
	for _, u := range s.doc.Read() {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, shared.ErrNotFound)
}

// FindToken returns the owner and entry of the token with the given digest.
func (s *UserStore) FindToken(digest string) (*models.User, *models.AccessToken, error) {
	for _, u := range s.doc.Read() {
		for _, t := range u.Tokens {
			if t.Token == digest {
				user, token := u, t
				return &user, &token, nil
			}
		}
	}
	return nil, nil, shared.ErrNotFound
}

// Update runs a locked read-modify-write on the collection.
func (s *UserStore) Update(fn func([]models.User) ([]models.User, error), recordHistory bool) error {
	return s.doc.Update(fn, recordHistory)
}

// NextUserID returns max(id)+1, or 0 for an empty collection.
func NextUserID(items []models.User) int {
	next := 0
	for _, u := range items {
		if u.ID >= next {
			next = u.ID + 1
		}
	}
	return next
}
