package casestore

import "errors"

var (
	// ErrCaseNotFound is returned when a case does not exist.
	ErrCaseNotFound = errors.New("case not found")

	// ErrDuplicateCase is returned when Create would overwrite an existing case.
	ErrDuplicateCase = errors.New("case already exists")

	// ErrNoStagingInputs is returned when Create is given an empty input set.
	ErrNoStagingInputs = errors.New("no staging inputs")

	// ErrBaselineAbsent is returned when a case has inputs but no expected outputs.
	ErrBaselineAbsent = errors.New("expected outputs absent")
)
