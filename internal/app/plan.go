package app

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// writePlan prints every job with its resolved parameters and command line.
func (a *App) writePlan(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tAFTER\tPARAMETERS\tCOMMAND")
	for _, j := range a.graph.Jobs() {
		after := "-"
		if deps := a.graph.Dependencies(j.ID); len(deps) > 0 {
			after = fmt.Sprintf("%d jobs", len(deps))
		}
		source := "-"
		if j.Sample != nil {
			source = j.Resolution.Step.String()
			if j.Resolution.Key != "" {
				source += " " + j.Resolution.Key
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", j.ID, after, source, j.Command.String())
	}
	return tw.Flush()
}
