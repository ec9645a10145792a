package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/resolvd/internal/core/policy"
)

// PrintPolicy writes the compiled policy tables.
func PrintPolicy(out io.Writer, pol *policy.Policy) {
	bold := color.New(color.Bold)

	bold.Fprintln(out, "\nLadders")
	for _, lt := range pol.LadderTypes() {
		ladder, _ := pol.Ladder(lt)
		fmt.Fprintf(out, "  %-13s", lt)
		for i, r := range ladder.Rungs() {
			if i > 0 {
				fmt.Fprint(out, " → ")
			}
			fmt.Fprintf(out, "%d%%", r.Percentage)
			if r.IncludesReship {
				fmt.Fprint(out, "+reship")
			}
		}
		fmt.Fprintln(out)
	}

	bold.Fprintln(out, "\nIntents")
	for _, in := range pol.Intents() {
		fmt.Fprintf(out, "  %-20s %-13s %s\n", in.Key, in.Ladder, in.Label)
	}

	sla := pol.SLA()
	bold.Fprintln(out, "\nWindows")
	fmt.Fprintf(out, "  guarantee     %d days\n", pol.GuaranteeDays())
	fmt.Fprintf(out, "  sla warning   %s\n", sla.Warning)
	fmt.Fprintf(out, "  sla breach    %s\n\n", sla.Breach)
}
