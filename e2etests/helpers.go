package e2etests

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"snapkit/internal/fileset"
)

// TestCase is a named e2e scenario. Seed is written into the project after
// init, before Fn runs.
type TestCase struct {
	Name string
	Seed fileset.FileSet
	Fn   func(r *Runner, n *Normalizer, sandbox string) (string, error)
}

// testCases is the ordered registry of all e2e test cases.
var testCases = []TestCase{
	{Name: "01_create_run", Fn: caseCreateRun},
	{Name: "02_mismatch_update", Fn: caseMismatchUpdate},
	{Name: "03_missing_baseline", Seed: missingBaselineSeed, Fn: caseMissingBaseline},
	{Name: "04_evaluation_error", Fn: caseEvaluationError},
	{Name: "05_config", Fn: caseConfig},
	{Name: "06_export_import", Fn: caseExportImport},
}

// section writes a section header and content to the builder.
func section(out *strings.Builder, label string, content string) {
	out.WriteString("=== ")
	out.WriteString(label)
	out.WriteString(" ===\n")
	out.WriteString(content)
	out.WriteString("\n\n")
}

// sectionRun writes a command's normalized stdout, stderr and exit code.
func sectionRun(out *strings.Builder, n *Normalizer, label string, res RunResult) {
	var parts []string
	if s := n.Normalize(res.Stdout); s != "" {
		parts = append(parts, s)
	}
	if s := n.Normalize(res.Stderr); s != "" {
		parts = append(parts, "--- stderr ---\n"+s)
	}
	parts = append(parts, fmt.Sprintf("EXIT_CODE: %d", res.ExitCode))
	section(out, label, strings.Join(parts, "\n"))
}

// mustRun runs a command and returns the result, failing the test case on error.
func mustRun(r *Runner, sandbox string, args ...string) (RunResult, error) {
	result := r.Run(sandbox, args...)
	if result.ExitCode != 0 {
		return result, fmt.Errorf("command %v failed (exit %d): %s", args, result.ExitCode, result.Stderr)
	}
	return result, nil
}

// writeFile writes content to a slash-separated path inside the sandbox.
func writeFile(sandbox, rel, content string) error {
	p := filepath.Join(sandbox, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	return os.WriteFile(p, []byte(content), 0644)
}

// readFile returns the normalized content of a sandbox file.
func readFile(n *Normalizer, sandbox, rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(sandbox, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}
	return n.Normalize(string(data)), nil
}
