// Package procrun runs one external command per job, capturing its combined
// output to a log file and killing its whole process group when the context
// ends.
package procrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/vk/trimgrid/internal/ctxlog"
	"github.com/vk/trimgrid/internal/tools"
)

// Runner executes a command to completion.
type Runner interface {
	Run(ctx context.Context, cmd tools.Command, logPath string) error
}

// ExitError reports a process that ran but exited unsuccessfully.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Command, e.Code)
}

// Exec is the os/exec backed Runner.
type Exec struct {
	// Env is appended to the current environment of every process.
	Env []string
	// KillGrace is how long a process group gets after SIGTERM before SIGKILL.
	KillGrace time.Duration
}

// NewExec returns a runner with a short kill grace period.
func NewExec() *Exec {
	return &Exec{KillGrace: 5 * time.Second}
}

// Run starts the command and waits for it. When ctx is done first the
// process group is terminated and ctx.Err() is returned.
func (e *Exec) Run(ctx context.Context, cmd tools.Command, logPath string) error {
	logger := ctxlog.FromContext(ctx)

	logFile, err := openLog(logPath)
	if err != nil {
		return err
	}
	defer logFile.Close()
	fmt.Fprintf(logFile, "# %s\n# started %s\n", cmd.String(), time.Now().Format(time.RFC3339))

	c := exec.Command(cmd.Path, cmd.Args...)
	c.Stdout = logFile
	c.Stderr = logFile
	if env := append(append([]string(nil), e.Env...), cmd.Env...); len(env) > 0 {
		c.Env = append(os.Environ(), env...)
	}
	setProcessGroup(c)

	if err := c.Start(); err != nil {
		return fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	logger.Debug("Process started.", "pid", c.Process.Pid, "command", cmd.Path)

	waitCh := make(chan error, 1)
	go func() { waitCh <- c.Wait() }()

	select {
	case err := <-waitCh:
		fmt.Fprintf(logFile, "# finished %s\n", time.Now().Format(time.RFC3339))
		return exitError(cmd, err)
	case <-ctx.Done():
		logger.Warn("Terminating process group.", "pid", c.Process.Pid, "reason", ctx.Err())
		terminate(c, waitCh, e.KillGrace)
		fmt.Fprintf(logFile, "# killed: %v\n", ctx.Err())
		return ctx.Err()
	}
}

func exitError(cmd tools.Command, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: cmd.Path, Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("wait %s: %w", cmd.Path, err)
}

// terminate signals the process group, escalating to a kill after grace.
func terminate(c *exec.Cmd, waitCh <-chan error, grace time.Duration) {
	signalGroup(c, false)
	if grace <= 0 {
		signalGroup(c, true)
		<-waitCh
		return
	}
	select {
	case <-waitCh:
	case <-time.After(grace):
		signalGroup(c, true)
		<-waitCh
	}
}

func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open job log: %w", err)
	}
	return f, nil
}
