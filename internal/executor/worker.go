package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vk/trimgrid/internal/ctxlog"
	"github.com/vk/trimgrid/internal/job"
	"github.com/vk/trimgrid/internal/ledger"
	"github.com/vk/trimgrid/internal/verify"
)

// worker is the processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, workerID int, work <-chan *job.Job, done chan<- *job.Job) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "worker", workerID)

	for j := range work {
		e.execute(ctx, workerID, j)
		done <- j
	}
	logger.Debug("Worker finished.", "worker", workerID)
}

// execute drives one job from Pending to a terminal state.
func (e *Executor) execute(ctx context.Context, workerID int, j *job.Job) {
	ctx, logger := ctxlog.With(ctx, "job", j.ID, "worker", workerID)

	if !j.Start(e.now()) {
		logger.Error("Job dispatched while not pending.", "state", j.State())
		return
	}
	logger.Info("▶️ Starting job", "command", j.Command.String())

	res := e.run(ctx, j)
	j.Finish(res, e.now())

	final := j.Result()
	switch {
	case final.State == job.Succeeded && final.Reused:
		logger.Info("♻️ Reusing valid outputs from an earlier run")
	case final.State == job.Succeeded:
		logger.Info("✅ Finished job", "attempts", final.Attempts, "duration", final.Duration())
	default:
		logger.Error("❌ Job failed", "failure", final.Failure, "error", final.Err, "attempts", final.Attempts, "log", j.LogPath)
	}
}

func (e *Executor) run(ctx context.Context, j *job.Job) job.Result {
	logger := ctxlog.FromContext(ctx)

	fingerprint, reuse := e.reusable(ctx, j)
	if reuse {
		return job.Result{State: job.Succeeded, Reused: true}
	}

	if e.threads != nil {
		n := int64(min(max(j.Resources.Threads, 1), e.opts.MaxThreads))
		if err := e.threads.Acquire(ctx, n); err != nil {
			return job.Result{State: job.Failed, Err: err}
		}
		defer e.threads.Release(n)
	}

	var err error
	attempts := 0
	for attempts <= e.opts.Retries {
		attempts++
		if err = e.attempt(ctx, j); err == nil {
			break
		}
		kind := job.Classify(err)
		if ctx.Err() != nil || (kind != job.ProcessFailure && kind != job.TimeoutFailure) {
			break
		}
		if attempts <= e.opts.Retries {
			logger.Warn("Attempt failed, retrying.", "attempt", attempts, "failure", kind, "error", err)
		}
	}

	if err != nil {
		e.forget(ctx, j)
		return job.Result{State: job.Failed, Err: err, Attempts: attempts}
	}
	e.remember(ctx, j, fingerprint)
	return job.Result{State: job.Succeeded, Attempts: attempts}
}

// attempt runs the job's process once and verifies its outputs.
func (e *Executor) attempt(ctx context.Context, j *job.Job) error {
	if err := prepareOutputs(j.Outputs); err != nil {
		return fmt.Errorf("%w: prepare outputs: %v", job.ErrJobProcessFailure, err)
	}

	runCtx := ctx
	budget := j.Resources.TimeBudget
	if budget > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	cmd := j.Command
	cmd.Env = append(append([]string(nil), cmd.Env...),
		"TRIMGRID_JOB="+j.ID,
		"TRIMGRID_THREADS="+strconv.Itoa(max(j.Resources.Threads, 1)),
		"TRIMGRID_MEMORY_MB="+strconv.Itoa(j.Resources.MemoryMB),
	)

	if err := e.runner.Run(runCtx, cmd, j.LogPath); err != nil {
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return fmt.Errorf("%w: exceeded time budget of %s", job.ErrTimeout, budget)
		default:
			return fmt.Errorf("%w: %v", job.ErrJobProcessFailure, err)
		}
	}

	return verify.Verify(j.Outputs)
}

// reusable reports whether the job can be satisfied by an earlier run's
// outputs: the ledger must hold a record with the same fingerprint and the
// outputs must still verify. The fingerprint is returned either way so a
// successful run can record it.
func (e *Executor) reusable(ctx context.Context, j *job.Job) (string, bool) {
	if e.ledger == nil {
		return "", false
	}
	logger := ctxlog.FromContext(ctx)

	fingerprint, err := ledger.Fingerprint(j.Command, j.Inputs)
	if err != nil {
		logger.Debug("Cannot fingerprint job, it will run.", "error", err)
		return "", false
	}
	if e.opts.Force {
		return fingerprint, false
	}

	rec, found, err := e.ledger.Get(j.ID)
	if err != nil {
		logger.Warn("Ledger lookup failed, job will run.", "error", err)
		return fingerprint, false
	}
	if !found || rec.Fingerprint != fingerprint {
		return fingerprint, false
	}
	if err := verify.Verify(j.Outputs); err != nil {
		logger.Info("Earlier outputs are no longer valid, job will run.", "error", err)
		return fingerprint, false
	}
	return fingerprint, true
}

func (e *Executor) remember(ctx context.Context, j *job.Job, fingerprint string) {
	if e.ledger == nil || fingerprint == "" {
		return
	}
	rec := ledger.Record{JobID: j.ID, Fingerprint: fingerprint, RunID: e.opts.RunID, CompletedAt: e.now().UTC()}
	if err := e.ledger.Put(rec); err != nil {
		ctxlog.FromContext(ctx).Warn("Could not record job completion.", "error", err)
	}
}

func (e *Executor) forget(ctx context.Context, j *job.Job) {
	if e.ledger == nil {
		return
	}
	if err := e.ledger.Delete(j.ID); err != nil {
		ctxlog.FromContext(ctx).Warn("Could not clear ledger record.", "error", err)
	}
}

// prepareOutputs removes stale artifacts so that verification only ever
// sees what this attempt produced, and creates their parent directories.
func prepareOutputs(outputs []verify.Artifact) error {
	for _, a := range outputs {
		if err := os.RemoveAll(a.Path); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
			return err
		}
	}
	return nil
}
