package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/resolvd/internal/adapters/orders"
	"github.com/example/resolvd/internal/adapters/redislock"
	"github.com/example/resolvd/internal/config"
	"github.com/example/resolvd/internal/db"
)

const (
	checkOK   = "✓"
	checkWarn = "⚠"
	checkFail = "✗"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for configuration validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the resolvd configuration and its collaborators",
		Long: `Health check for a resolvd installation.

Validates:
- Config file parses and passes validation
- Policy compiles
- Database opens and its schema is current
- Order source and session lock backend are reachable
- A hub signing secret is configured

Examples:
  resolvd doctor              # Run full health check
  resolvd doctor --quiet      # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath()
			if err != nil {
				return err
			}
			results := runChecks(cmd.Context(), path)

			hasErrors := false
			for _, r := range results {
				if r.Status == checkFail {
					hasErrors = true
					break
				}
			}

			if !quiet {
				printResults(cmd.OutOrStdout(), results, hasErrors)
			}
			if hasErrors {
				return fmt.Errorf("configuration validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - exit code only")

	return cmd
}

func runChecks(ctx context.Context, path string) []CheckResult {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return []CheckResult{{Name: "Config", Status: checkFail, Details: "  " + err.Error()}}
	}
	return []CheckResult{
		{Name: "Config", Status: checkOK},
		checkPolicy(cfg),
		checkDatabase(cfg),
		checkOrders(cfg),
		checkSessionLock(ctx, cfg),
		checkAuth(cfg),
	}
}

func checkPolicy(cfg *config.Config) CheckResult {
	if _, err := cfg.CompilePolicy(); err != nil {
		return CheckResult{Name: "Policy", Status: checkFail, Details: "  " + err.Error()}
	}
	return CheckResult{Name: "Policy", Status: checkOK}
}

func checkDatabase(cfg *config.Config) CheckResult {
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return CheckResult{Name: "Database", Status: checkFail, Details: "  " + err.Error()}
	}
	defer database.Close()

	current, err := db.CurrentVersion(database)
	if err != nil {
		return CheckResult{Name: "Database", Status: checkFail, Details: "  " + err.Error()}
	}
	if latest := db.LatestVersion(); current != latest {
		return CheckResult{
			Name:    "Database",
			Status:  checkWarn,
			Details: fmt.Sprintf("  schema version %d, expected %d", current, latest),
		}
	}
	return CheckResult{Name: "Database", Status: checkOK}
}

func checkOrders(cfg *config.Config) CheckResult {
	if cfg.Orders.Source == config.OrdersHTTP {
		return CheckResult{
			Name:    "Orders",
			Status:  checkWarn,
			Details: fmt.Sprintf("  using %s; reachability is checked on first lookup", cfg.Orders.URL),
		}
	}
	if _, err := orders.LoadFixtureLookup(cfg.Orders.FixturesPath); err != nil {
		return CheckResult{Name: "Orders", Status: checkFail, Details: "  " + err.Error()}
	}
	return CheckResult{Name: "Orders", Status: checkOK}
}

func checkSessionLock(ctx context.Context, cfg *config.Config) CheckResult {
	if cfg.SessionLock.Backend != config.LockRedis {
		return CheckResult{Name: "Session lock", Status: checkOK}
	}
	client := redislock.NewClient(cfg.SessionLock.RedisAddr, cfg.SessionLock.RedisPassword, cfg.SessionLock.RedisDB)
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return CheckResult{Name: "Session lock", Status: checkFail, Details: fmt.Sprintf("  redis %s: %v", cfg.SessionLock.RedisAddr, err)}
	}
	return CheckResult{Name: "Session lock", Status: checkOK}
}

func checkAuth(cfg *config.Config) CheckResult {
	if cfg.Auth.JWTSecret == "" {
		return CheckResult{
			Name:    "Auth",
			Status:  checkWarn,
			Details: "  auth.jwt_secret is empty; hub routes will reject every token",
		}
	}
	return CheckResult{Name: "Auth", Status: checkOK}
}

func printResults(out io.Writer, results []CheckResult, hasErrors bool) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Check              Status")
	fmt.Fprintln(out, "─────────────────────────")
	for _, r := range results {
		fmt.Fprintf(out, "%-18s %s\n", r.Name, statusMark(r.Status))
	}
	fmt.Fprintln(out)

	hasDetails := false
	for _, r := range results {
		if r.Status != checkOK && r.Details != "" {
			if !hasDetails {
				fmt.Fprintln(out, "Details:")
				hasDetails = true
			}
			fmt.Fprintf(out, "\n%s:\n%s\n", r.Name, r.Details)
		}
	}

	if hasErrors {
		fmt.Fprintln(out, "\n⚠ Issues found.")
	} else {
		fmt.Fprintln(out, "All checks passed.")
	}
}

func statusMark(status string) string {
	switch status {
	case checkOK:
		return color.New(color.FgGreen).Sprint(status)
	case checkWarn:
		return color.New(color.FgYellow).Sprint(status)
	default:
		return color.New(color.FgRed).Sprint(status)
	}
}
