package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/resolvd/internal/adapters/auth"
)

// TokenCmd returns the token command
func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage hub bearer tokens",
	}

	var userID, username string
	var ttl time.Duration
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Sign a staff token with the configured secret",
		Long: `Sign a hub bearer token with auth.jwt_secret.

Examples:
  resolvd token issue --user alex
  resolvd token issue --user u-17 --name "Alex Doe" --ttl 1h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if ttl == 0 {
				ttl = cfg.Auth.TokenTTL
			}
			token, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Issue(userID, username, ttl)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issue.Flags().StringVar(&userID, "user", "", "staff user id (required)")
	issue.Flags().StringVar(&username, "name", "", "display name recorded on the timeline (default: user id)")
	issue.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.token_ttl)")
	_ = issue.MarkFlagRequired("user")

	cmd.AddCommand(issue)
	return cmd
}
