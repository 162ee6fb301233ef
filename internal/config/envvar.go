package config

import "os"

// Environment variable names for snapkit configuration.
const (
	EnvRoot         = "SNAPKIT_ROOT"          // Project directory
	EnvSnapshotsDir = "SNAPKIT_SNAPSHOTS_DIR" // Override snapshots.dir
	EnvStagingDir   = "SNAPKIT_STAGING_DIR"   // Override staging.dir
	EnvEvaluator    = "SNAPKIT_EVALUATOR"     // Override evaluator.command
	EnvJobs         = "SNAPKIT_JOBS"          // Override run.jobs
	EnvJSON         = "SNAPKIT_JSON"          // Enable JSON output ("1" or "true")
)

// envOverrides maps override variables to the keys they replace.
var envOverrides = []struct{ env, key string }{
	{EnvSnapshotsDir, KeySnapshotsDir},
	{EnvStagingDir, KeyStagingDir},
	{EnvEvaluator, KeyEvaluatorCommand},
	{EnvJobs, KeyRunJobs},
}

// ApplyEnvOverrides checks the SNAPKIT_* override variables and replaces the
// corresponding config values in memory. These overrides are not persisted
// to the config file.
func ApplyEnvOverrides(s Store) {
	for _, o := range envOverrides {
		if v := os.Getenv(o.env); v != "" {
			s.SetInMemory(o.key, v)
		}
	}
}
