package snapshot

import (
	"errors"
	"fmt"
	"strings"

	"snapkit/internal/casestore"
	"snapkit/internal/compare"
)

var (
	// ErrMissingBaseline is the sentinel wrapped by MissingBaselineError.
	ErrMissingBaseline = errors.New("missing baseline")

	// ErrSnapshotMismatch is the sentinel wrapped by MismatchError.
	ErrSnapshotMismatch = errors.New("snapshot mismatch")

	// ErrEvaluation is the sentinel wrapped by EvaluationError.
	ErrEvaluation = errors.New("evaluation failed")
)

// MissingBaselineError reports a case that has inputs but no expected outputs.
type MissingBaselineError struct {
	Case string
}

func (e *MissingBaselineError) Error() string {
	return fmt.Sprintf("%s: no expected outputs (run update to create a baseline)", e.Case)
}

func (e *MissingBaselineError) Unwrap() error { return ErrMissingBaseline }

// MismatchError reports a case whose outputs differ from its baseline.
type MismatchError struct {
	Case  string
	Diffs []compare.Diff
}

func (e *MismatchError) Error() string {
	paths := make([]string, len(e.Diffs))
	for i, d := range e.Diffs {
		paths[i] = fmt.Sprintf("%s (%s)", d.Path, d.Kind)
	}
	return fmt.Sprintf("%s: outputs differ from baseline: %s", e.Case, strings.Join(paths, ", "))
}

func (e *MismatchError) Unwrap() error { return ErrSnapshotMismatch }

// EvaluationError reports a failure of the system under test itself, as
// opposed to a change in what it produces.
type EvaluationError struct {
	Case string
	Err  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%s: evaluation failed: %v", e.Case, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *EvaluationError) Unwrap() []error { return []error{ErrEvaluation, e.Err} }

// DuplicateCaseError reports that create would have overwritten a case.
type DuplicateCaseError struct {
	Case string
}

func (e *DuplicateCaseError) Error() string {
	return fmt.Sprintf("%s: case already exists", e.Case)
}

func (e *DuplicateCaseError) Unwrap() error { return casestore.ErrDuplicateCase }

// NoStagingInputsError reports that create found nothing to seed a case with.
type NoStagingInputsError struct {
	Dir string // staging directory, if known
}

func (e *NoStagingInputsError) Error() string {
	if e.Dir == "" {
		return "no staging inputs to create a case from"
	}
	return fmt.Sprintf("no staging inputs in %s to create a case from", e.Dir)
}

func (e *NoStagingInputsError) Unwrap() error { return casestore.ErrNoStagingInputs }
