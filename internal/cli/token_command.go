// filepath: internal/cli/token_command.go
package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"backuphub/internal/models"
	"backuphub/internal/services"
	"backuphub/internal/shared"

	"github.com/juju/clock"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// tokenOptions holds the flags of the token subcommands.
type tokenOptions struct {
	User        string
	Name        string
	Permissions []string
	Expires     string
}

// NewTokenCommand manages API tokens of the operator account from the shell.
func NewTokenCommand(options *GlobalOptions) *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API tokens",
	}
	cmd.PersistentFlags().StringVar(&opts.User, "user", "", "Owner of the token. Defaults to the operator account.")

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a token and print its secret once",
		RunE: func(cmd *cobra.Command, args []string) error {
			userSvc, username, err := tokenTarget(options, opts)
			if err != nil {
				return err
			}
			perms, unknown := models.ParsePermissions(opts.Permissions)
			if len(unknown) > 0 {
				return fmt.Errorf("unknown permission(s): %s", strings.Join(unknown, ", "))
			}
			var ttl time.Duration
			if opts.Expires != "" {
				if ttl, err = shared.ParseDuration(opts.Expires); err != nil {
					return err
				}
			}
			secret, info, err := userSvc.CreateToken(username, opts.Name, perms, ttl)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Token '%s' created for %s.\n", info.Name, username)
			fmt.Fprintf(out, "Secret (shown only once): %s\n", secret)
			return nil
		},
	}
	addTokenFlags(createCmd.Flags(), opts)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tokens without their secrets",
		RunE: func(cmd *cobra.Command, args []string) error {
			userSvc, username, err := tokenTarget(options, opts)
			if err != nil {
				return err
			}
			tokens, err := userSvc.ListTokens(username)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPERMISSIONS\tCREATED\tEXPIRES")
			for _, t := range tokens {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Name, formatPermissions(t.Permissions), formatUnix(&t.CreatedAt), formatUnix(t.ExpiresAt))
			}
			return w.Flush()
		},
	}

	revokeCmd := &cobra.Command{
		Use:   "revoke NAME",
		Short: "Revoke a token by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userSvc, username, err := tokenTarget(options, opts)
			if err != nil {
				return err
			}
			if err := userSvc.RevokeToken(username, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token '%s' revoked.\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(createCmd, listCmd, revokeCmd)
	return cmd
}

func addTokenFlags(flags *pflag.FlagSet, opts *tokenOptions) {
	flags.StringVar(&opts.Name, "name", "", "Unique token name.")
	flags.StringSliceVar(&opts.Permissions, "perm", []string{models.PermRead}, "Granted permissions: create, read, update, delete.")
	flags.StringVar(&opts.Expires, "expires", "", "Lifetime such as 30d or 12h. Empty never expires.")
}

// tokenTarget opens the user store and resolves the account to act on.
func tokenTarget(options *GlobalOptions, opts *tokenOptions) (services.UserService, string, error) {
	a, err := buildApp(options.Conf, afero.NewOsFs(), clock.WallClock)
	if err != nil {
		return nil, "", err
	}
	if opts.User != "" {
		return a.user, opts.User, nil
	}
	operator, err := a.user.Operator()
	if err != nil {
		return nil, "", fmt.Errorf("no operator account, pass --user or run the server with --init_config first: %w", err)
	}
	return a.user, operator.Username, nil
}

func formatPermissions(p models.Permissions) string {
	var names []string
	for _, n := range []string{models.PermCreate, models.PermRead, models.PermUpdate, models.PermDelete} {
		if p.Has(n) {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}

func formatUnix(ts *int64) string {
	if ts == nil {
		return "never"
	}
	return time.Unix(*ts, 0).UTC().Format(time.RFC3339)
}
