// filepath: internal/cli/cli.go
package cli

import (
	"fmt"
	"os"

	"backuphub/internal/config"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// GlobalOptions holds the flag values shared by all commands and the
// configuration they resolve to.
type GlobalOptions struct {
	CfgFilePath  string
	LogLevel     string
	LogFile      string
	DataDir      string
	Port         int
	InitConfig   string
	AuditEnabled bool

	Conf *config.Config
}

// NewRootCMD builds the command tree. The root command runs the server.
func NewRootCMD() (*cobra.Command, *GlobalOptions) {
	options := &GlobalOptions{}

	rootCMD := &cobra.Command{
		Use:     "backuphub",
		Short:   "backuphub backup repository manager",
		Long:    "Manages SSH backup repositories on a storage host, monitors backup freshness and alerts the operator.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeConfig(options, cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(options)
		},
		SilenceUsage: true,
	}

	options.registerFlags(rootCMD)

	rootCMD.AddCommand(NewCheckCommand(options))
	rootCMD.AddCommand(NewTokenCommand(options))

	return rootCMD, options
}

func (options *GlobalOptions) registerFlags(cmd *cobra.Command) {
	// flags that can be used for each command
	cmd.PersistentFlags().StringVar(&options.CfgFilePath, "config_path", "config.toml", "Path to the base configuration file. (Env: BACKUPHUB_CONFIG_PATH)")
	cmd.PersistentFlags().StringVar(&options.LogLevel, "log-level", "", "Logging level (debug, info, warn, error). (Env: BACKUPHUB_LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&options.LogFile, "log-file", "", "Write logs to this file instead of stdout. (Env: BACKUPHUB_LOG_FILE)")
	cmd.PersistentFlags().StringVar(&options.DataDir, "data-dir", "", "Directory holding repo.json and users.json. (Env: BACKUPHUB_DATA_DIR)")

	// server flags
	cmd.Flags().IntVar(&options.Port, "port", 0, "Port for the HTTP server. (Env: BACKUPHUB_PORT)")
	cmd.Flags().StringVar(&options.InitConfig, "init_config", "", "Path to a TOML file for one-time initialization of users and tokens. (Env: BACKUPHUB_INIT_CONFIG)")
	cmd.Flags().BoolVar(&options.AuditEnabled, "audit-enabled", false, "Enable audit logging of repository changes. (Env: BACKUPHUB_AUDIT_ENABLED=true)")
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	rootCmd, _ := NewRootCMD()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
