package executor

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/vk/trimgrid/internal/job"
)

// Summary is the final report of a run.
type Summary struct {
	RunID     string        `json:"run_id"`
	Jobs      []job.Status  `json:"jobs"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Pending   int           `json:"not_run"`
	Reused    int           `json:"reused"`
	Duration  time.Duration `json:"duration_ns"`
}

func newSummary(runID string, g *job.Graph, d time.Duration) *Summary {
	s := &Summary{RunID: runID, Jobs: g.Snapshot(), Duration: d}
	for _, st := range s.Jobs {
		switch st.State {
		case job.Succeeded:
			s.Succeeded++
			if st.Reused {
				s.Reused++
			}
		case job.Failed:
			s.Failed++
		default:
			s.Pending++
		}
	}
	return s
}

// OK reports whether every job succeeded.
func (s *Summary) OK() bool {
	return s.Failed == 0 && s.Pending == 0
}

// Status is "succeeded" or "failed" for the run as a whole.
func (s *Summary) Status() string {
	if s.OK() {
		return "succeeded"
	}
	return "failed"
}

// Write renders the summary as a table.
func (s *Summary) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "RUN %s: %s (%d succeeded, %d reused, %d failed, %d not run) in %s\n",
		s.RunID, s.Status(), s.Succeeded, s.Reused, s.Failed, s.Pending, s.Duration.Round(time.Millisecond))
	fmt.Fprintln(tw, "JOB\tSTATE\tATTEMPTS\tDURATION\tDETAIL")
	for _, st := range s.Jobs {
		detail := ""
		switch {
		case st.Reused:
			detail = "reused earlier outputs"
		case st.State == job.Failed:
			detail = fmt.Sprintf("%s: %s (log: %s)", st.Failure, st.Error, st.LogPath)
		case st.State == job.Pending:
			detail = "not run: dependencies did not succeed"
		}
		dur := time.Duration(st.DurationMS) * time.Millisecond
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", st.ID, st.State, st.Attempts, dur, detail)
	}
	return tw.Flush()
}
