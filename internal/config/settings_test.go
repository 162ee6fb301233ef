package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()
	st, err := Load(&memStore{data: map[string]string{}}, root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Settings{
		SnapshotsDir: filepath.Join(root, "tests", "snapshots"),
		StagingDir:   filepath.Join(root, "Inputs"),
		AbsTol:       1e-8,
		RelTol:       0,
		Ignore:       []string{"html"},
		Jobs:         1,
	}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadValues(t *testing.T) {
	root := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere")
	s := &memStore{data: map[string]string{
		"snapshots.dir":     abs,
		"staging.dir":       "data/current",
		"evaluator.command": "  python -m model  ",
		"evaluator.timeout": "1m30s",
		"compare.atol":      "0.5",
		"compare.rtol":      "1e-3",
		"compare.ignore":    " .HTML, png ,,",
		"run.jobs":          "6",
	}}
	st, err := Load(s, root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Settings{
		SnapshotsDir:     abs,
		StagingDir:       filepath.Join(root, "data", "current"),
		EvaluatorCommand: "python -m model",
		EvaluatorTimeout: 90 * time.Second,
		AbsTol:           0.5,
		RelTol:           1e-3,
		Ignore:           []string{"html", "png"},
		Jobs:             6,
	}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		key, val string
		ok       bool
	}{
		{"run.jobs", "4", true},
		{"run.jobs", "0", false},
		{"run.jobs", "many", false},
		{"compare.atol", "0", true},
		{"compare.atol", "-1", false},
		{"compare.atol", "NaN", false},
		{"compare.rtol", "abc", false},
		{"evaluator.timeout", "0", true},
		{"evaluator.timeout", "45s", true},
		{"evaluator.timeout", "-5s", false},
		{"evaluator.timeout", "soon", false},
		{"snapshots.dir", "", false},
		{"snapshots.dir", ".", false},
		{"staging.dir", "Inputs", true},
		{"evaluator.command", "", true},
		{"custom.key", "anything", true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.val, func(t *testing.T) {
			err := Validate(&memStore{data: map[string]string{tt.key: tt.val}})
			if tt.ok && err != nil {
				t.Errorf("Validate: %v", err)
			}
			if !tt.ok {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("Validate error = %v, want ErrInvalidConfig", err)
				}
				if !strings.Contains(err.Error(), tt.key) {
					t.Errorf("error %q should name %s", err, tt.key)
				}
			}
		})
	}
}

func TestValidateReportsEveryKey(t *testing.T) {
	err := Validate(&memStore{data: map[string]string{"run.jobs": "0", "compare.atol": "x"}})
	if err == nil {
		t.Fatal("Validate should fail")
	}
	for _, key := range []string{"run.jobs", "compare.atol"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q should name %s", err, key)
		}
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(&memStore{data: map[string]string{"run.jobs": "-2"}}, t.TempDir())
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load error = %v, want ErrInvalidConfig", err)
	}
}
