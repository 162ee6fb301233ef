package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Settings is the typed view of a validated Store.
type Settings struct {
	SnapshotsDir     string // absolute
	StagingDir       string // absolute
	EvaluatorCommand string // empty selects the built-in model
	EvaluatorTimeout time.Duration
	AbsTol           float64
	RelTol           float64
	Ignore           []string
	Jobs             int
}

// Load validates s and resolves it into Settings. Keys missing from s take
// their default values; relative directories resolve against root.
func Load(s Store, root string) (Settings, error) {
	if err := Validate(s); err != nil {
		return Settings{}, err
	}
	defaults := DefaultValues()
	get := func(key string) string {
		if v, ok := s.Get(key); ok {
			return v
		}
		return defaults[key]
	}

	var st Settings
	st.SnapshotsDir = resolve(root, get(KeySnapshotsDir))
	st.StagingDir = resolve(root, get(KeyStagingDir))
	st.EvaluatorCommand = strings.TrimSpace(get(KeyEvaluatorCommand))

	var err error
	if st.EvaluatorTimeout, err = parseDuration(get(KeyEvaluatorTimeout)); err != nil {
		return Settings{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, KeyEvaluatorTimeout, err)
	}
	if st.AbsTol, err = strconv.ParseFloat(get(KeyCompareAbsTol), 64); err != nil {
		return Settings{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, KeyCompareAbsTol, err)
	}
	if st.RelTol, err = strconv.ParseFloat(get(KeyCompareRelTol), 64); err != nil {
		return Settings{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, KeyCompareRelTol, err)
	}
	if st.Jobs, err = strconv.Atoi(get(KeyRunJobs)); err != nil {
		return Settings{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, KeyRunJobs, err)
	}
	st.Ignore = splitList(get(KeyCompareIgnore))
	return st, nil
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// splitList parses a comma-separated extension list, dropping leading dots
// and blanks.
func splitList(val string) []string {
	var out []string
	for _, f := range strings.Split(val, ",") {
		f = strings.TrimPrefix(strings.TrimSpace(f), ".")
		if f != "" {
			out = append(out, strings.ToLower(f))
		}
	}
	return out
}
