package config

import (
	"testing"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvSnapshotsDir, "ci/snapshots")
	t.Setenv(EnvStagingDir, "")
	t.Setenv(EnvEvaluator, "./model.sh")
	t.Setenv(EnvJobs, "3")

	s := &memStore{data: map[string]string{
		"snapshots.dir": "tests/snapshots",
		"staging.dir":   "Inputs",
		"compare.atol":  "1e-08",
	}}
	ApplyEnvOverrides(s)

	want := map[string]string{
		"snapshots.dir":     "ci/snapshots",
		"staging.dir":       "Inputs",
		"evaluator.command": "./model.sh",
		"run.jobs":          "3",
		"compare.atol":      "1e-08",
	}
	for k, v := range want {
		if got, _ := s.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestApplyEnvOverrides_NoOverride(t *testing.T) {
	for _, o := range envOverrides {
		t.Setenv(o.env, "")
	}

	s := &memStore{data: map[string]string{"run.jobs": "2"}}
	ApplyEnvOverrides(s)

	if v, _ := s.Get("run.jobs"); v != "2" {
		t.Errorf("run.jobs = %q, want %q (should not change)", v, "2")
	}
	if _, ok := s.Get("evaluator.command"); ok {
		t.Error("evaluator.command should stay unset")
	}
}
