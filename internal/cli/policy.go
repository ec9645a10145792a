package cli

import (
	"github.com/spf13/cobra"

	cliadapter "github.com/example/resolvd/internal/adapters/cli"
)

// PolicyCmd returns the policy command
func PolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the resolution policy",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the compiled ladders, intents and windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pol, err := cfg.CompilePolicy()
			if err != nil {
				return err
			}
			cliadapter.PrintPolicy(cmd.OutOrStdout(), pol)
			return nil
		},
	})
	return cmd
}
