package job

import (
	"context"
	"errors"

	"github.com/vk/trimgrid/internal/verify"
)

// State is the execution state of a job. Succeeded and Failed are terminal.
type State int32

const (
	Pending State = iota
	Running
	Succeeded
	Failed
)

var stateNames = [...]string{"pending", "running", "succeeded", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) && s >= 0 {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed
}

// MarshalText renders the state by name in JSON and logs.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	// ErrEmptySampleSet is returned by Build when there is nothing to trim.
	ErrEmptySampleSet = errors.New("empty sample set")
	// ErrInvalidSampleName is returned by Build for names unusable as file names.
	ErrInvalidSampleName = errors.New("invalid sample name")

	// ErrJobProcessFailure marks an external process that exited unsuccessfully.
	ErrJobProcessFailure = errors.New("job process failure")
	// ErrTimeout marks a job killed for exceeding its time budget.
	ErrTimeout = errors.New("timeout")
	// ErrIncompleteOutput marks a job whose artifacts failed verification.
	ErrIncompleteOutput = verify.ErrIncompleteOutput
)

// FailureKind names the reason a job ended Failed.
type FailureKind string

const (
	NoFailure        FailureKind = ""
	ProcessFailure   FailureKind = "JobProcessFailure"
	IncompleteOutput FailureKind = "IncompleteOutput"
	TimeoutFailure   FailureKind = "Timeout"
	CanceledFailure  FailureKind = "Canceled"
)

// Classify maps an execution error to its failure kind.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return NoFailure
	case errors.Is(err, ErrTimeout):
		return TimeoutFailure
	case errors.Is(err, ErrIncompleteOutput):
		return IncompleteOutput
	case errors.Is(err, context.Canceled):
		return CanceledFailure
	default:
		return ProcessFailure
	}
}
