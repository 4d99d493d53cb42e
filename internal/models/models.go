// filepath: internal/models/models.go
// Package models contains the core data structures for the application.
package models

import "strings"

// Repository is the persisted description of one backup destination.
type Repository struct {
	ID                    int    `json:"id"`
	Alias                 string `json:"alias"`
	Name                  string `json:"name"` // 8 lowercase hex chars, assigned by the toolset
	Status                bool   `json:"status"`
	LastSaveAt            int64  `json:"lastSaveAt"`
	AlertThresholdSeconds int64  `json:"alertThresholdSeconds"` // 0 disables alerting
	StorageQuotaBytes     int64  `json:"storageQuotaBytes"`
	StorageUsedBytes      int64  `json:"storageUsedBytes"`
	PublicKey             string `json:"publicKey"`
	Comment               string `json:"comment"`
	LanOnly               bool   `json:"lanOnly"`
	AppendOnly            bool   `json:"appendOnly"`
	LastAlertSentAt       *int64 `json:"lastAlertSentAt,omitempty"`
}

// RepositoryCreatePayload is used for the POST /api/repositories request.
type RepositoryCreatePayload struct {
	Alias                 string `json:"alias"`
	PublicKey             string `json:"publicKey"`
	StorageQuotaBytes     int64  `json:"storageQuotaBytes"`
	AlertThresholdSeconds int64  `json:"alertThresholdSeconds"`
	Comment               string `json:"comment"`
	LanOnly               bool   `json:"lanOnly"`
	AppendOnly            bool   `json:"appendOnly"`
}

// RepositoryUpdatePayload is used for the PATCH /api/repositories/{name} request.
// Nil fields are left unchanged.
type RepositoryUpdatePayload struct {
	Alias                 *string `json:"alias,omitempty"`
	PublicKey             *string `json:"publicKey,omitempty"`
	StorageQuotaBytes     *int64  `json:"storageQuotaBytes,omitempty"`
	AlertThresholdSeconds *int64  `json:"alertThresholdSeconds,omitempty"`
	Comment               *string `json:"comment,omitempty"`
	LanOnly               *bool   `json:"lanOnly,omitempty"`
	AppendOnly            *bool   `json:"appendOnly,omitempty"`
}

// PushMode selects how push alerts are delivered.
type PushMode string

const (
	PushModeEmbedded    PushMode = "embedded"
	PushModeRemoteRelay PushMode = "remote-relay"
)

// Valid reports whether m is a known push mode.
func (m PushMode) Valid() bool {
	return m == PushModeEmbedded || m == PushModeRemoteRelay
}

// User is the operator account holding notification preferences and API tokens.
type User struct {
	ID                int           `json:"id"`
	Username          string        `json:"username"`
	Email             string        `json:"email"`
	EmailAlertEnabled bool          `json:"emailAlertEnabled"`
	PushAlertEnabled  bool          `json:"pushAlertEnabled"`
	PushMode          PushMode      `json:"pushMode"`
	PushTargets       []string      `json:"pushTargets"`
	PushRelayURL      string        `json:"pushRelayURL"`
	Tokens            []AccessToken `json:"tokens,omitempty"`
}

// AccessToken is an API key. Token holds the SHA-256 hex digest of the secret.
type AccessToken struct {
	Token       string      `json:"token"`
	Name        string      `json:"name"`
	CreatedAt   int64       `json:"createdAt"`
	ExpiresAt   *int64      `json:"expiresAt,omitempty"`
	Permissions Permissions `json:"permissions"`
}

// Expired reports whether the token is past its expiry at unix time now.
func (t AccessToken) Expired(now int64) bool {
	return t.ExpiresAt != nil && now >= *t.ExpiresAt
}

// Permissions is the set of operations a caller may perform.
type Permissions struct {
	Create bool `json:"create"`
	Read   bool `json:"read"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

// Permission names accepted by Has and ParsePermissions.
const (
	PermCreate = "create"
	PermRead   = "read"
	PermUpdate = "update"
	PermDelete = "delete"
)

// Has reports whether the named permission is granted.
func (p Permissions) Has(name string) bool {
	switch name {
	case PermCreate:
		return p.Create
	case PermRead:
		return p.Read
	case PermUpdate:
		return p.Update
	case PermDelete:
		return p.Delete
	default:
		return false
	}
}

// Empty reports whether no permission is granted.
func (p Permissions) Empty() bool {
	return !p.Create && !p.Read && !p.Update && !p.Delete
}

// ParsePermissions builds a permission set from names like "read,update".
// Unknown names are returned in the second value.
func ParsePermissions(names []string) (Permissions, []string) {
	var p Permissions
	var unknown []string
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case PermCreate:
			p.Create = true
		case PermRead:
			p.Read = true
		case PermUpdate:
			p.Update = true
		case PermDelete:
			p.Delete = true
		case "":
		default:
			unknown = append(unknown, n)
		}
	}
	return p, unknown
}

// TokenInfo is the client-facing view of an AccessToken, without the digest.
type TokenInfo struct {
	Name        string      `json:"name"`
	CreatedAt   int64       `json:"createdAt"`
	ExpiresAt   *int64      `json:"expiresAt,omitempty"`
	Permissions Permissions `json:"permissions"`
}

// NotificationSettings is used for the GET/PUT /api/account/notifications requests.
type NotificationSettings struct {
	EmailAlertEnabled bool     `json:"emailAlertEnabled"`
	PushAlertEnabled  bool     `json:"pushAlertEnabled"`
	PushMode          PushMode `json:"pushMode"`
	PushTargets       []string `json:"pushTargets"`
	PushRelayURL      string   `json:"pushRelayURL"`
}

// UsageEntry is one record of the storage usage scan.
type UsageEntry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// FreshnessEntry is one record of the last-save scan.
type FreshnessEntry struct {
	Name     string `json:"name"`
	LastSave int64  `json:"lastSave"`
}

// StatusReport summarizes one status reconciliation cycle.
type StatusReport struct {
	CycleID    string   `json:"cycle_id"`
	NoOp       bool     `json:"no_op"`
	Checked    int      `json:"checked"`
	Updated    int      `json:"updated"`
	Down       int      `json:"down"`
	AlertsSent int      `json:"alerts_sent"`
	Alerted    []string `json:"alerted,omitempty"`
}

// UsageReport summarizes one storage usage refresh.
type UsageReport struct {
	CycleID string `json:"cycle_id"`
	NoOp    bool   `json:"no_op"`
	Updated int    `json:"updated"`
}
