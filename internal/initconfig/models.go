// filepath: internal/initconfig/models.go
package initconfig

// InitConfig is the root struct for parsing the TOML initialization file.
type InitConfig struct {
	Users []InitUser `toml:"user"`
}

// InitUser represents a user entry in the TOML config file.
type InitUser struct {
	Username          string      `toml:"username"`
	Email             string      `toml:"email"`
	EmailAlertEnabled bool        `toml:"email_alert_enabled"`
	PushAlertEnabled  bool        `toml:"push_alert_enabled"`
	PushMode          string      `toml:"push_mode"`
	PushTargets       []string    `toml:"push_targets"`
	PushRelayURL      string      `toml:"push_relay_url"`
	Tokens            []InitToken `toml:"token"`
}

// InitToken is an API token whose secret is chosen by the operator.
type InitToken struct {
	Name        string   `toml:"name"`
	Secret      string   `toml:"secret"`
	Permissions []string `toml:"permissions"`
}
