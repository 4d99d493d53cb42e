// filepath: internal/initconfig/init.go
package initconfig

import (
	"bytes"
	"errors"
	"strings"

	"backuphub/internal/logging"
	"backuphub/internal/models"
	"backuphub/internal/services"
	"backuphub/internal/shared"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
)

// Run executes the one-time initialization from the config file.
func Run(userSvc services.UserService, fs afero.Fs, configPath string) {
	logging.Log.Infof("Initialization config file found at: %s. Processing...", configPath)

	data, err := afero.ReadFile(fs, configPath)
	if err != nil {
		logging.Log.Errorf("Failed to read init config file '%s': %v", configPath, err)
		return
	}

	var config InitConfig
	if _, err := toml.Decode(string(data), &config); err != nil {
		logging.Log.Errorf("Failed to parse TOML init config file '%s': %v", configPath, err)
		return
	}

	logging.Log.Infof("Found %d user(s) in init config.", len(config.Users))

	if processUsers(userSvc, config.Users) {
		clearSecrets(fs, &config, configPath)
	}
}

// processUsers creates missing users and imports their tokens. It reports
// whether any secret was present in the file.
func processUsers(userSvc services.UserService, users []InitUser) bool {
	hadSecrets := false
	for _, u := range users {
		if strings.TrimSpace(u.Username) == "" {
			logging.Log.Warnf("Skipping user with empty username.")
			continue
		}

		user, err := userSvc.EnsureOperator(models.User{
			Username:          u.Username,
			Email:             u.Email,
			EmailAlertEnabled: u.EmailAlertEnabled,
			PushAlertEnabled:  u.PushAlertEnabled,
			PushMode:          models.PushMode(u.PushMode),
			PushTargets:       u.PushTargets,
			PushRelayURL:      u.PushRelayURL,
		})
		if err != nil {
			logging.Log.Errorf("Failed to create user '%s': %v", u.Username, err)
			continue
		}

		for _, t := range u.Tokens {
			if t.Secret == "" {
				continue
			}
			hadSecrets = true
			perms, unknown := models.ParsePermissions(t.Permissions)
			if len(unknown) > 0 {
				logging.Log.Warnf("Token '%s' of '%s' has unknown permissions %v, ignoring them.", t.Name, user.Username, unknown)
			}
			err := userSvc.ImportToken(user.Username, t.Name, t.Secret, perms)
			switch {
			case errors.Is(err, shared.ErrConflict):
				logging.Log.Infof("Skipping token '%s' of '%s': already exists.", t.Name, user.Username)
			case err != nil:
				logging.Log.Errorf("Failed to import token '%s' of '%s': %v", t.Name, user.Username, err)
			default:
				logging.Log.Infof("Successfully imported token '%s' of '%s'.", t.Name, user.Username)
			}
		}
	}
	return hadSecrets
}

// clearSecrets attempts to overwrite the config file with token secrets removed.
func clearSecrets(fs afero.Fs, config *InitConfig, configPath string) {
	logging.Log.Info("Attempting to clear token secrets from init config file...")

	for i := range config.Users {
		for j := range config.Users[i].Tokens {
			config.Users[i].Tokens[j].Secret = ""
		}
	}

	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(config); err != nil {
		logging.Log.Warnf("Could not re-encode config to clear secrets: %v", err)
		logging.Log.Warnf("SECURITY: Please manually remove token secrets from '%s'", configPath)
		return
	}

	if err := afero.WriteFile(fs, configPath, buf.Bytes(), 0o600); err != nil {
		logging.Log.Warnf("Failed to write back to config file to clear secrets: %v", err)
		logging.Log.Warnf("SECURITY: Please manually remove token secrets from '%s'", configPath)
		return
	}

	logging.Log.Info("Successfully cleared token secrets from init config file.")
}
