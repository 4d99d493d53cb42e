// filepath: internal/services/user_service.go
package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"backuphub/internal/logging"
	"backuphub/internal/models"
	"backuphub/internal/repository"
	"backuphub/internal/shared"

	"github.com/juju/clock"
	"github.com/patrickmn/go-cache"
)

var _ UserService = (*userService)(nil)

const (
	tokenPrefix     = "bkh_"
	minSecretLength = 16
	resolveCacheTTL = time.Minute
)

// resolved is a cached token lookup.
type resolved struct {
	user  models.User
	token models.AccessToken
}

// userService handles the operator account, its preferences and API tokens.
type userService struct {
	Users *repository.UserStore
	Clock clock.Clock

	resolveCache *cache.Cache
}

// NewUserService creates a new UserService.
func NewUserService(users *repository.UserStore, clk clock.Clock) *userService {
	if clk == nil {
		clk = clock.WallClock
	}
	return &userService{
		Users:        users,
		Clock:        clk,
		resolveCache: cache.New(resolveCacheTTL, 2*resolveCacheTTL),
	}
}

// === Pass-through Store Methods ===

// Operator returns the account that receives alerts.
func (s *userService) Operator() (*models.User, error) {
	return s.Users.Operator()
}

// GetUser retrieves a user by username.
func (s *userService) GetUser(username string) (*models.User, error) {
	return s.Users.FindByUsername(username)
}

// === Business Logic Methods ===

// UpdateNotifications replaces the alert preferences of username.
func (s *userService) UpdateNotifications(username string, settings models.NotificationSettings) (*models.NotificationSettings, error) {
	if settings.PushMode == "" {
		settings.PushMode = models.PushModeEmbedded
	}
	if !settings.PushMode.Valid() {
		return nil, shared.Invalid("unknown pushMode %q", settings.PushMode)
	}
	settings.PushRelayURL = strings.TrimSpace(settings.PushRelayURL)
	if settings.PushRelayURL != "" || (settings.PushAlertEnabled && settings.PushMode == models.PushModeRemoteRelay) {
		if err := validateRelayURL(settings.PushRelayURL); err != nil {
			return nil, err
		}
	}
	targets := make([]string, 0, len(settings.PushTargets))
	for _, t := range settings.PushTargets {
		if t = strings.TrimSpace(t); t != "" {
			targets = append(targets, t)
		}
	}
	settings.PushTargets = targets

	err := s.mutateUser(username, func(u *models.User) error {
		u.EmailAlertEnabled = settings.EmailAlertEnabled
		u.PushAlertEnabled = settings.PushAlertEnabled
		u.PushMode = settings.PushMode
		u.PushTargets = settings.PushTargets
		u.PushRelayURL = settings.PushRelayURL
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.Log.Infof("UserService: Notification settings updated for '%s'", username)
	return &settings, nil
}

// CreateToken issues a new API token and returns its secret. The secret is
// never stored and cannot be recovered later. A zero ttl never expires.
func (s *userService) CreateToken(username, name string, perms models.Permissions, ttl time.Duration) (string, *models.TokenInfo, error) {
	if ttl < 0 {
		return "", nil, shared.Invalid("token lifetime must not be negative")
	}
	secret, err := generateSecret()
	if err != nil {
		return "", nil, err
	}
	var expiresAt *int64
	if ttl > 0 {
		exp := s.Clock.Now().Add(ttl).Unix()
		expiresAt = &exp
	}
	info, err := s.addToken(username, name, secret, perms, expiresAt)
	if err != nil {
		return "", nil, err
	}
	return secret, info, nil
}

// ImportToken records a token whose secret was chosen by the operator.
func (s *userService) ImportToken(username, name, secret string, perms models.Permissions) error {
	if len(secret) < minSecretLength {
		return shared.Invalid("token secret must be at least %d characters", minSecretLength)
	}
	_, err := s.addToken(username, name, secret, perms, nil)
	return err
}

func (s *userService) addToken(username, name, secret string, perms models.Permissions, expiresAt *int64) (*models.TokenInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.Invalid("token name is required")
	}
	if perms.Empty() {
		return nil, shared.Invalid("token needs at least one permission")
	}

	digest := Digest(secret)
	if _, _, err := s.Users.FindToken(digest); err == nil {
		return nil, fmt.Errorf("token secret already in use: %w", shared.ErrConflict)
	}

	token := models.AccessToken{
		Token:       digest,
		Name:        name,
		CreatedAt:   s.Clock.Now().Unix(),
		ExpiresAt:   expiresAt,
		Permissions: perms,
	}
	err := s.mutateUser(username, func(u *models.User) error {
		for _, t := range u.Tokens {
			if t.Name == name {
				return fmt.Errorf("token %q already exists: %w", name, shared.ErrConflict)
			}
		}
		u.Tokens = append(u.Tokens, token)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Log.Infof("UserService: Token '%s' created for '%s'", name, username)
	info := tokenInfo(token)
	return &info, nil
}

// ListTokens returns the tokens of username without their digests.
func (s *userService) ListTokens(username string) ([]models.TokenInfo, error) {
	user, err := s.Users.FindByUsername(username)
	if err != nil {
		return nil, err
	}
	infos := make([]models.TokenInfo, 0, len(user.Tokens))
	for _, t := range user.Tokens {
		infos = append(infos, tokenInfo(t))
	}
	return infos, nil
}

// RevokeToken deletes the named token.
func (s *userService) RevokeToken(username, name string) error {
	err := s.mutateUser(username, func(u *models.User) error {
		for i, t := range u.Tokens {
			if t.Name == name {
				u.Tokens = append(u.Tokens[:i], u.Tokens[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("token %q: %w", name, shared.ErrNotFound)
	})
	if err != nil {
		return err
	}
	logging.Log.Infof("UserService: Token '%s' revoked for '%s'", name, username)
	return nil
}

// ResolveToken maps a presented secret to its owner and token.
func (s *userService) ResolveToken(secret string) (*models.User, *models.TokenInfo, error) {
	if secret == "" {
		return nil, nil, shared.ErrUnauthorized
	}
	digest := Digest(secret)

	var hit resolved
	if cached, ok := s.resolveCache.Get(digest); ok {
		hit = cached.(resolved)
	} else {
		user, token, err := s.Users.FindToken(digest)
		if err != nil {
			return nil, nil, shared.ErrUnauthorized
		}
		hit = resolved{user: *user, token: *token}
		s.resolveCache.SetDefault(digest, hit)
	}

	if hit.token.Expired(s.Clock.Now().Unix()) {
		return nil, nil, fmt.Errorf("token %q expired: %w", hit.token.Name, shared.ErrUnauthorized)
	}
	user := hit.user
	info := tokenInfo(hit.token)
	return &user, &info, nil
}

// EnsureOperator creates the user described by seed unless one with the same
// username exists. The existing or new record is returned.
func (s *userService) EnsureOperator(seed models.User) (*models.User, error) {
	seed.Username = strings.TrimSpace(seed.Username)
	if seed.Username == "" {
		return nil, shared.Invalid("username is required")
	}
	if seed.PushMode == "" {
		seed.PushMode = models.PushModeEmbedded
	}
	if !seed.PushMode.Valid() {
		return nil, shared.Invalid("unknown pushMode %q", seed.PushMode)
	}

	var result models.User
	err := s.Users.Update(func(items []models.User) ([]models.User, error) {
		for _, u := range items {
			if u.Username == seed.Username {
				result = u
				return nil, errUnchanged
			}
		}
		seed.ID = repository.NextUserID(items)
		seed.Tokens = nil
		result = seed
		return append(items, seed), nil
	}, true)
	if err == errUnchanged {
		return &result, nil
	}
	if err != nil {
		return nil, err
	}
	logging.Log.Infof("UserService: User '%s' created", seed.Username)
	return &result, nil
}

// errUnchanged aborts an Update without writing.
var errUnchanged = shared.Error("unchanged")

// mutateUser applies fn to the named user inside one locked write and drops
// cached token lookups.
func (s *userService) mutateUser(username string, fn func(*models.User) error) error {
	err := s.Users.Update(func(items []models.User) ([]models.User, error) {
		for i := range items {
			if items[i].Username == username {
				if err := fn(&items[i]); err != nil {
					return nil, err
				}
				return items, nil
			}
		}
		return nil, fmt.Errorf("user %q: %w", username, shared.ErrNotFound)
	}, true)
	if err == nil {
		s.resolveCache.Flush()
	}
	return err
}

// Digest returns the stored form of a token secret.
func Digest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func tokenInfo(t models.AccessToken) models.TokenInfo {
	return models.TokenInfo{
		Name:        t.Name,
		CreatedAt:   t.CreatedAt,
		ExpiresAt:   t.ExpiresAt,
		Permissions: t.Permissions,
	}
}

func generateSecret() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token secret: %w", err)
	}
	return tokenPrefix + hex.EncodeToString(b), nil
}

func validateRelayURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return shared.Invalid("pushRelayURL must be an absolute http(s) URL")
	}
	return nil
}
