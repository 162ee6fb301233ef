package snapshot

import (
	"errors"

	"snapkit/internal/compare"
)

// Mode selects what the runner does with each case.
type Mode string

const (
	ModeRun    Mode = "run"
	ModeUpdate Mode = "update"
	ModeCreate Mode = "create"
)

// ParseMode validates a mode name. The empty string means ModeRun.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeRun:
		return ModeRun, nil
	case ModeUpdate, ModeCreate:
		return Mode(s), nil
	}
	return "", errors.New(`mode must be one of "run", "update", "create"`)
}

// Status is the outcome of one case.
type Status string

const (
	StatusPass     Status = "pass"
	StatusMismatch Status = "mismatch"
	StatusMissing  Status = "missing"
	StatusError    Status = "error"
	StatusUpdated  Status = "updated"
	StatusCreated  Status = "created"
	StatusSkipped  Status = "skipped" // not attempted after an earlier failure or cancellation
)

// Result is the outcome of one case.
type Result struct {
	Case   string         `json:"case"`
	Status Status         `json:"status"`
	Diffs  []compare.Diff `json:"diffs,omitempty"`
	Err    error          `json:"-"`
}

// Failed reports whether the result counts against the run.
func (r Result) Failed() bool {
	switch r.Status {
	case StatusMismatch, StatusMissing, StatusError:
		return true
	}
	return false
}

// Report collects the results of one runner invocation in case order.
type Report struct {
	Mode    Mode     `json:"mode"`
	Results []Result `json:"results"`
}

// Failed returns the failing results.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

// Count returns the number of results with the given status.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Err aggregates every failing case into one error, or returns nil if no
// case failed. Each per-case error remains reachable with errors.As.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, res.Err)
	}
	if len(errs) == 0 {
		for _, res := range r.Results {
			if res.Status == StatusSkipped && res.Err != nil {
				return res.Err
			}
		}
		return nil
	}
	return errors.Join(errs...)
}

// firstErr returns the earliest failing case's error in case order.
func (r *Report) firstErr() error {
	if failed := r.Failed(); len(failed) > 0 {
		return failed[0].Err
	}
	return r.Err()
}
