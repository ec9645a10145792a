package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/resolvd/internal/ports/primary"
	"github.com/example/resolvd/internal/wire"
)

// CaseCmd returns the case command
func CaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Work the case hub from the terminal",
		Long:  "List, inspect and update cases in the local case store",
	}
	cmd.PersistentFlags().String("as", "", "staff name recorded on the timeline (default: OS user)")

	cmd.AddCommand(caseListCmd())
	cmd.AddCommand(caseShowCmd())
	cmd.AddCommand(caseStatusCmd())
	cmd.AddCommand(caseAssignCmd())
	cmd.AddCommand(caseCommentCmd())
	cmd.AddCommand(caseTimelineCmd())
	cmd.AddCommand(caseStatsCmd())
	return cmd
}

func caseListCmd() *cobra.Command {
	var filters primary.CaseFilters

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cases, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := wire.Shared()
			if err != nil {
				return err
			}
			return c.CaseAdapterWithOutput(cmd.OutOrStdout()).List(staffContext(cmd), filters)
		},
	}

	cmd.Flags().StringVarP(&filters.Status, "status", "s", "", "filter by status (open, in_progress, resolved, closed, active)")
	cmd.Flags().StringVarP(&filters.CaseType, "type", "t", "", "filter by case type")
	cmd.Flags().StringVar(&filters.ResolutionType, "resolution", "", "filter by resolution type")
	cmd.Flags().StringVar(&filters.CustomerEmail, "email", "", "filter by customer email")
	cmd.Flags().StringVar(&filters.Assignee, "assignee", "", "filter by assignee")
	cmd.Flags().IntVarP(&filters.Limit, "limit", "n", 50, "maximum number of cases")
	cmd.Flags().IntVar(&filters.Offset, "offset", 0, "skip this many cases")

	return cmd
}

func caseShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [case-id]",
		Short: "Show case details and comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := wire.Shared()
			if err != nil {
				return err
			}
			return c.CaseAdapterWithOutput(cmd.OutOrStdout()).Show(staffContext(cmd), args[0])
		},
	}
}

func caseStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [case-id] [status]",
		Short: "Move a case to open, in_progress, resolved or closed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := wire.Shared()
			if err != nil {
				return err
			}
			return c.CaseAdapterWithOutput(cmd.OutOrStdout()).SetStatus(staffContext(cmd), args[0], args[1])
		},
	}
}

func caseAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign [case-id] [assignee]",
		Short: "Assign a case (omit assignee to unassign)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := wire.Shared()
			if err != nil {
				return err
			}
			assignee := ""
			if len(args) == 2 {
				assignee = args[1]
			}
			return c.CaseAdapterWithOutput(cmd.OutOrStdout()).Assign(staffContext(cmd), args[0], assignee)
		},
	}
}

func caseCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment [case-id] [text]",
		Short: "Add a staff note to a case",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := wire.Shared()
			if err != nil {
				return err
			}
			return c.CaseAdapterWithOutput(cmd.OutOrStdout()).Comment(staffContext(cmd), args[0], args[1])
		},
	}
}

func caseTimelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timeline [case-id]",
		Short: "Show a case's audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := wire.Shared()
			if err != nil {
				return err
			}
			return c.CaseAdapterWithOutput(cmd.OutOrStdout()).Timeline(staffContext(cmd), args[0])
		},
	}
}

func caseStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarise the case store",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := wire.Shared()
			if err != nil {
				return err
			}
			return c.CaseAdapterWithOutput(cmd.OutOrStdout()).Stats(staffContext(cmd))
		},
	}
}
