// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/example/resolvd/internal/core/supportcase"
	"github.com/example/resolvd/internal/ports/primary"
)

const timeLayout = "2006-01-02 15:04"

// CaseAdapter translates hub CLI operations to CaseService calls.
type CaseAdapter struct {
	service primary.CaseService
	out     io.Writer
}

// NewCaseAdapter creates a new CaseAdapter with the given service.
func NewCaseAdapter(service primary.CaseService, out io.Writer) *CaseAdapter {
	return &CaseAdapter{
		service: service,
		out:     out,
	}
}

// List lists cases matching filters.
func (a *CaseAdapter) List(ctx context.Context, filters primary.CaseFilters) error {
	cases, err := a.service.ListCases(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list cases: %w", err)
	}

	if len(cases) == 0 {
		fmt.Fprintln(a.out, "No cases found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-20s %-12s %-12s %-24s %-10s %-9s %s\n", "ID", "TYPE", "STATUS", "RESOLUTION", "REFUND", "SLA", "CUSTOMER")
	fmt.Fprintln(a.out, "──────────────────────────────────────────────────────────────────────────────────────────────────────")
	for _, c := range cases {
		fmt.Fprintf(a.out, "%-20s %-12s %s %-24s %-10s %s %s\n",
			c.ID, c.CaseType, pad(statusLabel(c.Status), string(c.Status), 12),
			c.ResolutionType, refundLabel(c), pad(slaLabel(c.SLA), string(c.SLA), 9), c.CustomerEmail)
	}
	fmt.Fprintln(a.out)
	return nil
}

// Show displays a case with its comments.
func (a *CaseAdapter) Show(ctx context.Context, caseID string) error {
	c, err := a.service.GetCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to get case: %w", err)
	}

	fmt.Fprintf(a.out, "\nCase:       %s\n", c.ID)
	fmt.Fprintf(a.out, "Type:       %s\n", c.CaseType)
	fmt.Fprintf(a.out, "Status:     %s\n", statusLabel(c.Status))
	fmt.Fprintf(a.out, "SLA:        %s\n", slaLabel(c.SLA))
	fmt.Fprintf(a.out, "Customer:   %s", c.CustomerEmail)
	if c.CustomerName != "" {
		fmt.Fprintf(a.out, " (%s)", c.CustomerName)
	}
	fmt.Fprintln(a.out)
	if c.OrderNumber != "" {
		fmt.Fprintf(a.out, "Order:      %s (total %s)\n", c.OrderNumber, c.OrderTotal.Display())
	}
	if len(c.SelectedItemIDs) > 0 {
		fmt.Fprintf(a.out, "Items:      %s\n", strings.Join(c.SelectedItemIDs, ", "))
	}
	if c.Intent != "" {
		fmt.Fprintf(a.out, "Intent:     %s\n", c.Intent)
	}
	fmt.Fprintf(a.out, "Resolution: %s\n", c.ResolutionType)
	if c.RefundAmount != nil {
		fmt.Fprintf(a.out, "Refund:     %s (%d%%)\n", c.RefundAmount.Display(), c.RefundPercentage)
	}
	if c.Assignee != "" {
		fmt.Fprintf(a.out, "Assignee:   %s\n", c.Assignee)
	}
	fmt.Fprintf(a.out, "Created:    %s\n", c.CreatedAt.Format(timeLayout))
	if c.ResolvedAt != nil {
		fmt.Fprintf(a.out, "Resolved:   %s\n", c.ResolvedAt.Format(timeLayout))
	}

	comments, err := a.service.ListComments(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to list comments: %w", err)
	}
	if len(comments) > 0 {
		fmt.Fprintln(a.out, "\nComments:")
		for _, cm := range comments {
			fmt.Fprintf(a.out, "  [%s] %s: %s\n", cm.CreatedAt.Format(timeLayout), cm.Author, cm.Body)
		}
	}
	fmt.Fprintln(a.out)
	return nil
}

// SetStatus moves a case to a new status.
func (a *CaseAdapter) SetStatus(ctx context.Context, caseID, status string) error {
	c, err := a.service.UpdateStatus(ctx, caseID, supportcase.Status(status))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Case %s is now %s\n", c.ID, statusLabel(c.Status))
	return nil
}

// Assign sets the case owner; an empty assignee unassigns.
func (a *CaseAdapter) Assign(ctx context.Context, caseID, assignee string) error {
	c, err := a.service.Assign(ctx, caseID, assignee)
	if err != nil {
		return err
	}
	if c.Assignee == "" {
		fmt.Fprintf(a.out, "✓ Case %s unassigned\n", c.ID)
		return nil
	}
	fmt.Fprintf(a.out, "✓ Case %s assigned to %s\n", c.ID, c.Assignee)
	return nil
}

// Comment adds a staff note.
func (a *CaseAdapter) Comment(ctx context.Context, caseID, body string) error {
	cm, err := a.service.AddComment(ctx, caseID, body)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Comment %s added to %s\n", cm.ID, caseID)
	return nil
}

// Timeline prints a case's audit trail.
func (a *CaseAdapter) Timeline(ctx context.Context, caseID string) error {
	entries, err := a.service.Timeline(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to get timeline: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No timeline entries")
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-8s %-8s", e.CreatedAt.Format(timeLayout), e.Actor, e.Action)
		switch {
		case e.Field != "":
			line += fmt.Sprintf(" %s: %s → %s", e.Field, orDash(e.OldValue), orDash(e.NewValue))
		case e.NewValue != "":
			line += " " + e.NewValue
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

// Stats prints the hub dashboard summary.
func (a *CaseAdapter) Stats(ctx context.Context) error {
	stats, err := a.service.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}
	fmt.Fprintf(a.out, "\nCases:          %d\n", stats.Total)
	for _, s := range []supportcase.Status{supportcase.StatusOpen, supportcase.StatusInProgress, supportcase.StatusResolved, supportcase.StatusClosed} {
		fmt.Fprintf(a.out, "  %-12s  %d\n", s, stats.ByStatus[string(s)])
	}
	fmt.Fprintf(a.out, "Total refunded: %s\n", stats.TotalRefunded.Display())
	fmt.Fprintf(a.out, "SLA warning:    %s\n", color.New(color.FgYellow).Sprint(stats.SLAWarning))
	fmt.Fprintf(a.out, "SLA breached:   %s\n\n", color.New(color.FgRed).Sprint(stats.SLABreached))
	return nil
}

func statusLabel(s supportcase.Status) string {
	switch s {
	case supportcase.StatusOpen:
		return color.New(color.FgCyan).Sprint(s)
	case supportcase.StatusInProgress:
		return color.New(color.FgBlue).Sprint(s)
	case supportcase.StatusResolved:
		return color.New(color.FgGreen).Sprint(s)
	default:
		return string(s)
	}
}

func slaLabel(s supportcase.SLAState) string {
	switch s {
	case supportcase.SLAWarning:
		return color.New(color.FgYellow).Sprint(s)
	case supportcase.SLABreached:
		return color.New(color.FgRed, color.Bold).Sprint(s)
	default:
		return string(s)
	}
}

func refundLabel(c *primary.Case) string {
	if c.RefundAmount == nil {
		return "-"
	}
	return c.RefundAmount.Display()
}

// pad right-pads a coloured label to width based on its visible text.
func pad(label, plain string, width int) string {
	if n := width - len(plain); n > 0 {
		return label + strings.Repeat(" ", n)
	}
	return label
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
