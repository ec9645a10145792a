package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/resolvd/internal/cli"
	"github.com/example/resolvd/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "resolvd",
		Short:   "resolvd - customer-support resolution service",
		Version: version.String(),
		Long: `resolvd walks customers through refund, shipping and subscription issues
with an escalating-offer ladder and records the outcome as a case for the
support hub.`,
		SilenceUsage: true,
	}
	cli.BindConfigFlag(rootCmd)

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.DoctorCmd())

	// Hub commands
	rootCmd.AddCommand(cli.CaseCmd())
	rootCmd.AddCommand(cli.PolicyCmd())
	rootCmd.AddCommand(cli.TokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
