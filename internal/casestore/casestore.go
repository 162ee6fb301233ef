// Package casestore defines the storage interface for snapshot test cases.
//
// A case is a named pair of input and expected-output file sets. Cases are
// named Case01, Case02, ... and ordered by their numeric suffix.
package casestore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"snapkit/internal/fileset"
)

// Directory names inside a case.
const (
	DirInputs          = "Inputs"
	DirExpectedOutputs = "ExpectedOutputs"
)

// NamePrefix precedes the numeric suffix of every case name.
const NamePrefix = "Case"

// Case identifies one stored test case.
type Case struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
	Dir    string `json:"dir"`
}

// Store defines the interface for case persistence.
type Store interface {
	// Init prepares the store root and repairs interrupted writes.
	Init(ctx context.Context) error

	// List returns all cases ordered by numeric suffix.
	// An empty or missing root yields an empty slice, not an error.
	List(ctx context.Context) ([]Case, error)

	// Get returns the case with the given name.
	// Returns ErrCaseNotFound if it doesn't exist.
	Get(ctx context.Context, name string) (Case, error)

	// Create allocates the lowest unused suffix and copies staging into the
	// new case's inputs. The expected outputs are left absent.
	// Returns ErrNoStagingInputs if staging is empty and ErrDuplicateCase if
	// the allocated case already exists.
	Create(ctx context.Context, staging fileset.FileSet) (Case, error)

	// ReadInputs returns the case's input set.
	ReadInputs(ctx context.Context, c Case) (fileset.FileSet, error)

	// ReadExpectedOutputs returns the case's baseline.
	// Returns ErrBaselineAbsent if the case has no baseline yet.
	ReadExpectedOutputs(ctx context.Context, c Case) (fileset.FileSet, error)

	// WriteExpectedOutputs replaces the case's baseline. Readers observe
	// either the previous set or the new one, never a partial write.
	WriteExpectedOutputs(ctx context.Context, c Case, outputs fileset.FileSet) error
}

// FormatName returns the case name for suffix n, zero-padded to two digits.
func FormatName(n int) string {
	return fmt.Sprintf("%s%02d", NamePrefix, n)
}

// ParseName extracts the numeric suffix from a case name.
// Only canonical names (those FormatName produces for n >= 1) are accepted,
// so "Case1" and "Case007" are rejected.
func ParseName(name string) (int, bool) {
	digits, ok := strings.CutPrefix(name, NamePrefix)
	if !ok || digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || FormatName(n) != name {
		return 0, false
	}
	return n, true
}

// NextNumber returns the lowest positive suffix not used by cases.
func NextNumber(cases []Case) int {
	used := make(map[int]bool, len(cases))
	for _, c := range cases {
		used[c.Number] = true
	}
	n := 1
	for used[n] {
		n++
	}
	return n
}
