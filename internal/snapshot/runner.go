// Package snapshot runs the system under test against every stored case and
// either checks, refreshes or seeds the expected outputs.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"snapkit/internal/casestore"
	"snapkit/internal/compare"
	"snapkit/internal/evaluator"
	"snapkit/internal/fileset"
)

// Runner drives the snapshot workflow over a case store.
type Runner struct {
	Store      casestore.Store
	Evaluator  evaluator.Evaluator
	Comparator *compare.Comparator // nil means compare.New()
	Jobs       int                 // concurrent evaluations; values below 1 mean 1
	Logger     *slog.Logger        // nil discards diagnostics
}

func (r *Runner) comparator() *compare.Comparator {
	if r.Comparator == nil {
		return compare.New()
	}
	return r.Comparator
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}

// Run evaluates every case and compares the outputs with its baseline.
// Every case is checked; the returned error joins all failing cases and is
// nil only if all of them passed.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	cases, err := r.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	report := &Report{Mode: ModeRun}
	report.Results = r.forEach(ctx, cases, false, r.check)
	return report, report.Err()
}

// Update evaluates every case and stores its outputs as the new baseline.
// The first evaluation failure stops the update and is returned; cases
// already written keep their new baselines.
func (r *Runner) Update(ctx context.Context) (*Report, error) {
	cases, err := r.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	report := &Report{Mode: ModeUpdate}
	report.Results = r.forEach(ctx, cases, true, func(ctx context.Context, c casestore.Case) Result {
		return r.refresh(ctx, c, StatusUpdated)
	})
	return report, report.firstErr()
}

// Create seeds a new case from staging and writes its first baseline.
func (r *Runner) Create(ctx context.Context, staging fileset.FileSet) (*Report, error) {
	report := &Report{Mode: ModeCreate}
	if len(staging) == 0 {
		return report, &NoStagingInputsError{}
	}
	c, err := r.Store.Create(ctx, staging)
	if err != nil {
		switch {
		case errors.Is(err, casestore.ErrDuplicateCase):
			return report, &DuplicateCaseError{Case: c.Name}
		case errors.Is(err, casestore.ErrNoStagingInputs):
			return report, &NoStagingInputsError{}
		}
		return report, fmt.Errorf("creating case: %w", err)
	}
	r.logger().Info("created case", "case", c.Name, "inputs", len(staging))

	res := r.refresh(ctx, c, StatusCreated)
	report.Results = []Result{res}
	return report, res.Err
}

// check evaluates one case in run mode.
func (r *Runner) check(ctx context.Context, c casestore.Case) Result {
	actual, err := r.evaluate(ctx, c)
	if err != nil {
		return Result{Case: c.Name, Status: StatusError, Err: err}
	}
	expected, err := r.Store.ReadExpectedOutputs(ctx, c)
	if errors.Is(err, casestore.ErrBaselineAbsent) {
		return Result{Case: c.Name, Status: StatusMissing, Err: &MissingBaselineError{Case: c.Name}}
	}
	if err != nil {
		return Result{Case: c.Name, Status: StatusError, Err: fmt.Errorf("%s: reading baseline: %w", c.Name, err)}
	}
	if diffs := r.comparator().Compare(expected, actual); len(diffs) > 0 {
		return Result{
			Case:   c.Name,
			Status: StatusMismatch,
			Diffs:  diffs,
			Err:    &MismatchError{Case: c.Name, Diffs: diffs},
		}
	}
	return Result{Case: c.Name, Status: StatusPass}
}

// refresh evaluates one case and overwrites its baseline.
func (r *Runner) refresh(ctx context.Context, c casestore.Case, done Status) Result {
	actual, err := r.evaluate(ctx, c)
	if err != nil {
		return Result{Case: c.Name, Status: StatusError, Err: err}
	}
	if err := r.Store.WriteExpectedOutputs(ctx, c, r.comparator().Filter(actual)); err != nil {
		return Result{Case: c.Name, Status: StatusError, Err: fmt.Errorf("%s: writing baseline: %w", c.Name, err)}
	}
	return Result{Case: c.Name, Status: done}
}

// evaluate reads a case's inputs and runs the evaluator on them. Only a
// failing evaluator is an EvaluationError; unreadable inputs are store errors.
func (r *Runner) evaluate(ctx context.Context, c casestore.Case) (fileset.FileSet, error) {
	inputs, err := r.Store.ReadInputs(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("%s: reading inputs: %w", c.Name, err)
	}
	start := time.Now()
	out, err := r.Evaluator.Evaluate(ctx, inputs)
	r.logger().Debug("evaluated case", "case", c.Name, "elapsed", time.Since(start), "outputs", len(out), "err", err)
	if err != nil {
		return nil, &EvaluationError{Case: c.Name, Err: err}
	}
	return out, nil
}

type workItem struct {
	index int
	c     casestore.Case
}

var errStopped = errors.New("not run after an earlier failure")

// forEach applies fn to every case on a pool of r.Jobs workers and returns
// the results in case order. With stopOnError the first failing result stops
// the pool; cases already in flight finish, cases not yet started are
// reported as skipped.
func (r *Runner) forEach(ctx context.Context, cases []casestore.Case, stopOnError bool, fn func(context.Context, casestore.Case) Result) []Result {
	results := make([]Result, len(cases))
	if len(cases) == 0 {
		return results
	}

	jobs := r.Jobs
	if jobs < 1 {
		jobs = 1
	}
	if jobs > len(cases) {
		jobs = len(cases)
	}

	stop := make(chan struct{})
	var stopOnce sync.Once
	workCh := make(chan workItem)
	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				if stopped(stop) || ctx.Err() != nil {
					continue
				}
				res := fn(ctx, w.c)
				results[w.index] = res
				if stopOnError && res.Failed() {
					stopOnce.Do(func() { close(stop) })
				}
			}
		}()
	}

	for i, c := range cases {
		if stopped(stop) || ctx.Err() != nil {
			break
		}
		workCh <- workItem{index: i, c: c}
	}
	close(workCh)
	wg.Wait()

	cause := ctx.Err()
	if cause == nil {
		cause = errStopped
	}
	for i, c := range cases {
		if results[i].Status == "" {
			results[i] = Result{Case: c.Name, Status: StatusSkipped, Err: cause}
		}
	}
	return results
}

func stopped(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

// ReadStaging reads the staging inputs used by create. A missing or empty
// directory yields a NoStagingInputsError.
func ReadStaging(dir string) (fileset.FileSet, error) {
	set, err := fileset.Read(dir)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(set) == 0) {
		return nil, &NoStagingInputsError{Dir: dir}
	}
	if err != nil {
		return nil, fmt.Errorf("reading staging inputs: %w", err)
	}
	return set, nil
}
