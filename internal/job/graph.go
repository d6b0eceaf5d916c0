package job

import (
	"github.com/vk/trimgrid/internal/dag"
)

// Graph owns every job of one run together with their dependency structure.
type Graph struct {
	dag       *dag.Graph
	jobs      map[string]*Job
	order     []string
	trims     []*Job
	aggregate *Job
}

// Jobs returns all jobs in dependency order.
func (g *Graph) Jobs() []*Job {
	out := make([]*Job, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.jobs[id])
	}
	return out
}

// Job looks up a job by id.
func (g *Graph) Job(id string) (*Job, bool) {
	j, ok := g.jobs[id]
	return j, ok
}

// Len returns the number of jobs.
func (g *Graph) Len() int { return len(g.jobs) }

// Trims returns the trim jobs ordered by sample name.
func (g *Graph) Trims() []*Job { return append([]*Job(nil), g.trims...) }

// Aggregate returns the single aggregate job.
func (g *Graph) Aggregate() *Job { return g.aggregate }

// Roots returns the jobs with no dependencies.
func (g *Graph) Roots() []*Job {
	return g.lookup(g.dag.Roots())
}

// Dependencies returns the jobs the given job waits for.
func (g *Graph) Dependencies(id string) []*Job {
	ids, err := g.dag.Dependencies(id)
	if err != nil {
		return nil
	}
	return g.lookup(ids)
}

// Dependents returns the jobs waiting for the given job.
func (g *Graph) Dependents(id string) []*Job {
	ids, err := g.dag.Dependents(id)
	if err != nil {
		return nil
	}
	return g.lookup(ids)
}

func (g *Graph) lookup(ids []string) []*Job {
	out := make([]*Job, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.jobs[id])
	}
	return out
}

// Status is a point-in-time, serializable view of one job.
type Status struct {
	ID         string      `json:"id"`
	Kind       Kind        `json:"kind"`
	Sample     string      `json:"sample,omitempty"`
	State      State       `json:"state"`
	Failure    FailureKind `json:"failure,omitempty"`
	Error      string      `json:"error,omitempty"`
	Attempts   int         `json:"attempts,omitempty"`
	Reused     bool        `json:"reused,omitempty"`
	DurationMS int64       `json:"duration_ms,omitempty"`
	LogPath    string      `json:"log,omitempty"`
}

// Snapshot returns the status of every job in dependency order.
func (g *Graph) Snapshot() []Status {
	out := make([]Status, 0, len(g.order))
	for _, j := range g.Jobs() {
		res := j.Result()
		st := Status{
			ID:         j.ID,
			Kind:       j.Kind,
			State:      res.State,
			Failure:    res.Failure,
			Attempts:   res.Attempts,
			Reused:     res.Reused,
			DurationMS: res.Duration().Milliseconds(),
			LogPath:    j.LogPath,
		}
		if j.Sample != nil {
			st.Sample = j.Sample.Name
		}
		if res.Err != nil {
			st.Error = res.Err.Error()
		}
		out = append(out, st)
	}
	return out
}
