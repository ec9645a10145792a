// Package cli implements the resolvd subcommands.
package cli

import (
	"context"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/example/resolvd/internal/config"
	"github.com/example/resolvd/internal/ctxutil"
	"github.com/example/resolvd/internal/logging"
	"github.com/example/resolvd/internal/wire"
)

var configPath string

// BindConfigFlag adds the global --config flag to root and hands the chosen
// path to the wire package before any subcommand runs.
func BindConfigFlag(root *cobra.Command) {
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.resolvd/config.yaml)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		wire.SetConfigPath(configPath)
		return nil
	}
}

// resolveConfigPath returns the --config value or the default location.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

// loadConfig loads the active config file and sets up logging from it.
func loadConfig() (*config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := logging.Init(cfg.Log.Level, cfg.Log.Pretty); err != nil {
		return nil, err
	}
	return cfg, nil
}

// staffContext returns a context whose actor is the --as flag or the OS user.
func staffContext(cmd *cobra.Command) context.Context {
	actor, _ := cmd.Flags().GetString("as")
	if actor == "" {
		actor = defaultActor()
	}
	return ctxutil.WithActorID(cmd.Context(), actor)
}

func defaultActor() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return "cli"
}
