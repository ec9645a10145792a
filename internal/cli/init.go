package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/resolvd/internal/config"
	"github.com/example/resolvd/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var force bool
	var dbPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config and create the database",
		Long: `Write a default config file (with a fresh JWT signing secret) and
initialize the SQLite database it points at.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path, err := resolveConfigPath()
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}

			cfg := config.Default()
			secret, err := newSecret()
			if err != nil {
				return fmt.Errorf("failed to generate jwt secret: %w", err)
			}
			cfg.Auth.JWTSecret = secret
			if dbPath != "" {
				cfg.Database.Path = dbPath
			}

			if err := config.SaveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Config written to %s\n", path)

			database, err := db.Open(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer database.Close()
			fmt.Fprintf(out, "✓ Database initialized at %s\n", cfg.Database.Path)

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintln(out, "  resolvd token issue --user alex   # hub token")
			fmt.Fprintln(out, "  resolvd serve")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config")
	cmd.Flags().StringVar(&dbPath, "db", "", "database path to write into the config")

	return cmd
}

func newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
