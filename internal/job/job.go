package job

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/trimgrid/internal/manifest"
	"github.com/vk/trimgrid/internal/params"
	"github.com/vk/trimgrid/internal/tools"
	"github.com/vk/trimgrid/internal/verify"
)

// Kind distinguishes the two job kinds.
type Kind int

const (
	TrimKind Kind = iota
	AggregateKind
)

func (k Kind) String() string {
	if k == AggregateKind {
		return "aggregate"
	}
	return "trim"
}

// MarshalText renders the kind by name in JSON and logs.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Resources are the per-job requirements handed to the scheduler. Only
// Threads is enforced (against an optional thread budget); MemoryMB is
// advisory and TimeBudget bounds the wall time of each attempt.
type Resources struct {
	Threads    int
	MemoryMB   int
	TimeBudget time.Duration
}

// Result is the record of a job that reached a terminal state.
type Result struct {
	State      State
	Failure    FailureKind
	Err        error
	Attempts   int
	Reused     bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall time between dispatch and the terminal transition.
func (r Result) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Job is one unit of work: a single external process invocation plus the
// artifacts it must leave behind.
type Job struct {
	ID   string
	Kind Kind

	// Sample, Config and Resolution are set for trim jobs only.
	Sample     *manifest.Sample
	Config     params.TrimConfig
	Resolution params.Resolution

	Command   tools.Command
	Inputs    []string
	Outputs   []verify.Artifact
	Resources Resources
	LogPath   string

	state       atomic.Int32
	pendingDeps atomic.Int32
	started     atomic.Int64

	mu     sync.Mutex
	result Result
}

// State atomically returns the job's state.
func (j *Job) State() State {
	return State(j.state.Load())
}

// Start moves the job from Pending to Running. It returns false if the job
// was not Pending.
func (j *Job) Start(now time.Time) bool {
	if !j.state.CompareAndSwap(int32(Pending), int32(Running)) {
		return false
	}
	j.started.Store(now.UnixNano())
	return true
}

// Finish records the result and moves the job from Running to the result's
// terminal state. A job's result is never replaced once terminal; Finish
// returns false if the job was not Running or the state is not terminal.
func (j *Job) Finish(res Result, now time.Time) bool {
	if !res.State.Terminal() {
		return false
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.State() != Running {
		return false
	}
	res.StartedAt = time.Unix(0, j.started.Load())
	res.FinishedAt = now
	if res.State == Succeeded {
		res.Failure, res.Err = NoFailure, nil
	} else if res.Failure == NoFailure {
		res.Failure = Classify(res.Err)
	}
	j.result = res
	j.state.Store(int32(res.State))
	return true
}

// Result returns the terminal record. For non-terminal jobs only State is
// meaningful.
func (j *Job) Result() Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.State().Terminal() {
		return Result{State: j.State()}
	}
	return j.result
}

// PendingDeps returns the number of dependencies not yet Succeeded.
func (j *Job) PendingDeps() int32 {
	return j.pendingDeps.Load()
}

// ResolveDep records that one dependency succeeded and returns how many are
// still outstanding.
func (j *Job) ResolveDep() int32 {
	return j.pendingDeps.Add(-1)
}
