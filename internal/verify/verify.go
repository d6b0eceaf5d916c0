// Package verify checks that a job's declared output artifacts exist and are
// non-empty before the job may be marked as succeeded.
package verify

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrIncompleteOutput is matched by every verification failure.
var ErrIncompleteOutput = errors.New("incomplete output")

// Artifact is one declared output. Directory artifacts must contain at least
// one entry; file artifacts must have a non-zero size.
type Artifact struct {
	Path string `json:"path"`
	Dir  bool   `json:"dir,omitempty"`
}

// Problem describes why a single artifact failed verification.
type Problem struct {
	Path   string
	Reason string
}

// IncompleteError lists every artifact that failed verification.
type IncompleteError struct {
	Problems []Problem
}

func (e *IncompleteError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s (%s)", p.Path, p.Reason))
	}
	return fmt.Sprintf("%s: %s", ErrIncompleteOutput, strings.Join(parts, ", "))
}

func (e *IncompleteError) Unwrap() error { return ErrIncompleteOutput }

// Verify checks all artifacts and reports every failure, not just the first.
func Verify(artifacts []Artifact) error {
	var problems []Problem
	for _, a := range artifacts {
		if reason := check(a); reason != "" {
			problems = append(problems, Problem{Path: a.Path, Reason: reason})
		}
	}
	if len(problems) > 0 {
		return &IncompleteError{Problems: problems}
	}
	return nil
}

func check(a Artifact) string {
	info, err := os.Stat(a.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "missing"
		}
		return err.Error()
	}

	if a.Dir {
		if !info.IsDir() {
			return "not a directory"
		}
		empty, err := dirEmpty(a.Path)
		if err != nil {
			return err.Error()
		}
		if empty {
			return "empty directory"
		}
		return ""
	}

	if info.IsDir() {
		return "is a directory"
	}
	if info.Size() == 0 {
		return "zero length"
	}
	return ""
}

func dirEmpty(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	return false, err
}
