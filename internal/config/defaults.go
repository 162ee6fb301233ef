package config

import (
	"strconv"
	"strings"

	"snapkit/internal/compare"
)

// Config keys.
const (
	KeySnapshotsDir     = "snapshots.dir"
	KeyStagingDir       = "staging.dir"
	KeyEvaluatorCommand = "evaluator.command"
	KeyEvaluatorTimeout = "evaluator.timeout"
	KeyCompareAbsTol    = "compare.atol"
	KeyCompareRelTol    = "compare.rtol"
	KeyCompareIgnore    = "compare.ignore"
	KeyRunJobs          = "run.jobs"
)

// DefaultValues returns the default config map for the core keys.
func DefaultValues() map[string]string {
	return map[string]string{
		KeySnapshotsDir:     "tests/snapshots",
		KeyStagingDir:       "Inputs",
		KeyEvaluatorCommand: "",
		KeyEvaluatorTimeout: "0",
		KeyCompareAbsTol:    strconv.FormatFloat(compare.DefaultAbsTol, 'g', -1, 64),
		KeyCompareRelTol:    strconv.FormatFloat(compare.DefaultRelTol, 'g', -1, 64),
		KeyCompareIgnore:    strings.Join(compare.DefaultIgnore, ","),
		KeyRunJobs:          "1",
	}
}

// ApplyDefaults fills any missing core keys in s with their default values.
func ApplyDefaults(s Store) error {
	defaults := DefaultValues()
	all := s.All()
	for k, v := range defaults {
		if _, exists := all[k]; !exists {
			if err := s.Set(k, v); err != nil {
				return err
			}
		}
	}
	return nil
}
