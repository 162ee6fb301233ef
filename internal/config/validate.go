package config

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// validators maps known keys to their checks. A nil check accepts any value.
var validators = map[string]func(string) error{
	KeySnapshotsDir:     nonEmptyPath,
	KeyStagingDir:       nonEmptyPath,
	KeyEvaluatorCommand: nil,
	KeyEvaluatorTimeout: duration,
	KeyCompareAbsTol:    nonNegativeFloat,
	KeyCompareRelTol:    nonNegativeFloat,
	KeyCompareIgnore:    nil,
	KeyRunJobs:          positiveInt,
}

// IsKnownKey reports whether key is a core snapkit key.
func IsKnownKey(key string) bool {
	_, ok := validators[key]
	return ok
}

// ValidateValue checks a single value for key. Unknown keys are accepted.
func ValidateValue(key, val string) error {
	check := validators[key]
	if check == nil {
		return nil
	}
	if err := check(val); err != nil {
		return fmt.Errorf("%s: %v", key, err)
	}
	return nil
}

// Validate checks all values in s for known keys. It returns an error
// describing every invalid value found, or nil if all values are valid.
func Validate(s Store) error {
	all := s.All()
	var errs []string

	for key := range validators {
		val, ok := all[key]
		if !ok {
			continue
		}
		if err := ValidateValue(key, val); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) == 0 {
		return nil
	}
	sort.Strings(errs)
	return fmt.Errorf("%w:\n  %s", ErrInvalidConfig, strings.Join(errs, "\n  "))
}

func nonEmptyPath(val string) error {
	if strings.TrimSpace(val) == "" {
		return fmt.Errorf("must be a non-empty path")
	}
	if filepath.Clean(val) == "." {
		return fmt.Errorf("must not be the project root itself, got %q", val)
	}
	return nil
}

func duration(val string) error {
	if _, err := parseDuration(val); err != nil {
		return fmt.Errorf("must be a duration like 30s or 0 for none, got %q", val)
	}
	return nil
}

func nonNegativeFloat(val string) error {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("must be a non-negative number, got %q", val)
	}
	return nil
}

func positiveInt(val string) error {
	n, err := strconv.Atoi(val)
	if err != nil || n < 1 {
		return fmt.Errorf("must be a positive integer, got %q", val)
	}
	return nil
}

// parseDuration accepts Go durations and a bare "0".
func parseDuration(val string) (time.Duration, error) {
	if val == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", val)
	}
	return d, nil
}
