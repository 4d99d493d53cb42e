// filepath: internal/cli/config_loader.go
package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"backuphub/internal/config"
	"backuphub/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BACKUPHUB_PORT.
const EnvPrefix = "BACKUPHUB"

// initializeConfig loads the config file and applies environment and flag
// overrides, in that order of increasing precedence.
func initializeConfig(options *GlobalOptions, cmd *cobra.Command) error {
	env := newEnv()

	// 1. Check environment variable for config path first
	if !cmd.Flags().Changed("config_path") && env.IsSet("config_path") {
		options.CfgFilePath = env.GetString("config_path")
	}

	cfg, err := config.LoadConfig(options.CfgFilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg = &config.Config{}
		} else {
			return fmt.Errorf("failed to load configuration from %s: %w", options.CfgFilePath, err)
		}
	}

	// 2. Apply Overrides (Env Vars and CLI Flags)
	applyOverrides(cfg, options, env, cmd)

	// 3. Validate
	if err := cfg.ParseAndValidate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// 4. Initialize Logging
	logging.Init(cfg.Logging.Level, cfg.Logging.File)

	options.Conf = cfg
	return nil
}

func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

func applyOverrides(c *config.Config, options *GlobalOptions, env *viper.Viper, cmd *cobra.Command) {
	// --- Environment Variables ---
	if env.IsSet("port") {
		c.Server.Port = env.GetInt("port")
	}
	if env.IsSet("log_level") {
		c.Logging.Level = env.GetString("log_level")
	}
	if env.IsSet("log_file") {
		c.Logging.File = env.GetString("log_file")
	}
	if env.IsSet("audit_enabled") {
		c.Logging.AuditEnabled = env.GetBool("audit_enabled")
	}
	if env.IsSet("data_dir") {
		c.Storage.DataDir = env.GetString("data_dir")
	}
	if env.IsSet("toolset_dir") {
		c.Toolset.Dir = env.GetString("toolset_dir")
	}
	if env.IsSet("monitor_enabled") {
		enabled := env.GetBool("monitor_enabled")
		c.Monitor.Enabled = &enabled
	}
	if env.IsSet("mail_password") {
		c.Mail.Password = env.GetString("mail_password")
	}
	if !cmd.Flags().Changed("init_config") && env.IsSet("init_config") {
		options.InitConfig = env.GetString("init_config")
	}

	// --- CLI Flags (Take precedence) ---
	if options.Port != 0 {
		c.Server.Port = options.Port
	}
	if options.LogLevel != "" {
		c.Logging.Level = options.LogLevel
	}
	if options.LogFile != "" {
		c.Logging.File = options.LogFile
	}
	if options.DataDir != "" {
		c.Storage.DataDir = options.DataDir
	}
	if cmd.Flags().Changed("audit-enabled") {
		c.Logging.AuditEnabled = options.AuditEnabled
	}
}
