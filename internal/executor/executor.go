package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vk/trimgrid/internal/ctxlog"
	"github.com/vk/trimgrid/internal/job"
	"github.com/vk/trimgrid/internal/ledger"
	"github.com/vk/trimgrid/internal/procrun"
	"golang.org/x/sync/semaphore"
)

// ErrRunFailed is returned by Run when any job failed or was never dispatched.
var ErrRunFailed = errors.New("run failed")

// Options configures an Executor.
type Options struct {
	// Workers is the number of jobs that may run at once.
	Workers int
	// MaxThreads caps the sum of thread requests of running jobs. Zero
	// disables the cap.
	MaxThreads int
	// Retries is the number of extra attempts after a process failure or a
	// timeout.
	Retries int
	// Force reruns every job even when the ledger shows valid, unchanged
	// outputs from an earlier run.
	Force bool
	// RunID tags ledger records written by this run.
	RunID string
}

// Executor runs one job graph to completion.
type Executor struct {
	graph   *job.Graph
	runner  procrun.Runner
	ledger  ledger.Ledger
	opts    Options
	threads *semaphore.Weighted
	now     func() time.Time
}

// New creates an executor. A nil ledger disables output reuse, so every job
// runs.
func New(g *job.Graph, runner procrun.Runner, l ledger.Ledger, opts Options) *Executor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	e := &Executor{
		graph:  g,
		runner: runner,
		ledger: l,
		opts:   opts,
		now:    time.Now,
	}
	if opts.MaxThreads > 0 {
		e.threads = semaphore.NewWeighted(int64(opts.MaxThreads))
	}
	return e
}

// Run executes the graph and always returns a summary. The error is non-nil
// when the run did not fully succeed.
func (e *Executor) Run(ctx context.Context) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)
	started := e.now()

	work := make(chan *job.Job)
	done := make(chan *job.Job)

	var wg sync.WaitGroup
	logger.Debug("Starting worker pool.", "workers", e.opts.Workers)
	for i := 0; i < e.opts.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			e.worker(ctx, workerID, work, done)
		}(i)
	}

	ready := e.graph.Roots()
	logger.Debug("Found root jobs.", "count", len(ready))

	inflight := 0
	ctxDone := ctx.Done()
	for len(ready) > 0 || inflight > 0 {
		var send chan<- *job.Job
		var next *job.Job
		if len(ready) > 0 && ctx.Err() == nil {
			send, next = work, ready[0]
		}
		if send == nil && inflight == 0 {
			break
		}

		select {
		case send <- next:
			ready = ready[1:]
			inflight++
		case j := <-done:
			inflight--
			if j.State() != job.Succeeded {
				continue
			}
			for _, dependent := range e.graph.Dependents(j.ID) {
				if dependent.ResolveDep() == 0 {
					logger.Debug("Unlocking dependent job.", "job", dependent.ID, "after", j.ID)
					ready = append(ready, dependent)
				}
			}
		case <-ctxDone:
			logger.Warn("Run canceled, no further jobs will be dispatched.", "running", inflight, "queued", len(ready))
			ctxDone = nil
		}
	}
	close(work)
	wg.Wait()

	summary := newSummary(e.opts.RunID, e.graph, e.now().Sub(started))
	if summary.OK() {
		logger.Info("All jobs succeeded.", "jobs", len(summary.Jobs), "reused", summary.Reused)
		return summary, nil
	}

	var failed []string
	for _, st := range summary.Jobs {
		if st.State != job.Succeeded {
			failed = append(failed, st.ID)
		}
	}
	logger.Error("Run finished with unsuccessful jobs.", "failed", summary.Failed, "not_run", summary.Pending)
	return summary, fmt.Errorf("%w: %s", ErrRunFailed, strings.Join(failed, ", "))
}
