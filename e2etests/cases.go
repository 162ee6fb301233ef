package e2etests

import (
	"os"
	"path/filepath"
	"strings"

	"snapkit/internal/fileset"
)

const caseDir = "tests/snapshots/"

// 01: Create cases from the sample staging inputs and run them.
func caseCreateRun(r *Runner, n *Normalizer, sandbox string) (string, error) {
	var out strings.Builder

	sectionRun(&out, n, "create from sample inputs", r.Run(sandbox, "create"))
	sectionRun(&out, n, "run", r.Run(sandbox, "run"))
	sectionRun(&out, n, "list", r.Run(sandbox, "list"))
	sectionRun(&out, n, "create again", r.Run(sandbox, "create"))
	sectionRun(&out, n, "run both", r.Run(sandbox, "run"))

	return out.String(), nil
}

// 02: A changed input fails the run until update records new outputs.
func caseMismatchUpdate(r *Runner, n *Normalizer, sandbox string) (string, error) {
	var out strings.Builder

	if _, err := mustRun(r, sandbox, "create"); err != nil {
		return "", err
	}
	if err := writeFile(sandbox, caseDir+"Case01/Inputs/settings.json", `{"a": 10, "b": 1}`+"\n"); err != nil {
		return "", err
	}

	sectionRun(&out, n, "run after inputs change", r.Run(sandbox, "run"))
	sectionRun(&out, n, "update", r.Run(sandbox, "update"))

	baseline, err := readFile(n, sandbox, caseDir+"Case01/ExpectedOutputs/df.csv")
	if err != nil {
		return "", err
	}
	section(&out, "expected outputs after update", baseline)

	sectionRun(&out, n, "run after update", r.Run(sandbox, "run"))

	return out.String(), nil
}

// missingBaselineSeed is a hand-written case with inputs and no baseline.
var missingBaselineSeed = fileset.FileSet{
	caseDir + "Case02/Inputs/settings.json": []byte(`{"a": 5, "b": 8}` + "\n"),
}

// 03: A case without expected outputs is reported as missing. Create fills
// the free Case01 slot below the seeded Case02.
func caseMissingBaseline(r *Runner, n *Normalizer, sandbox string) (string, error) {
	var out strings.Builder

	if _, err := mustRun(r, sandbox, "create"); err != nil {
		return "", err
	}

	sectionRun(&out, n, "run with missing baseline", r.Run(sandbox, "run"))
	sectionRun(&out, n, "update records baseline", r.Run(sandbox, "update"))
	sectionRun(&out, n, "run", r.Run(sandbox, "run"))

	return out.String(), nil
}

// 04: Evaluation failures and empty staging.
func caseEvaluationError(r *Runner, n *Normalizer, sandbox string) (string, error) {
	var out strings.Builder

	if _, err := mustRun(r, sandbox, "create"); err != nil {
		return "", err
	}
	if err := writeFile(sandbox, caseDir+"Case01/Inputs/settings.json", `{"a": 1}`+"\n"); err != nil {
		return "", err
	}

	sectionRun(&out, n, "run with broken inputs", r.Run(sandbox, "run"))
	sectionRun(&out, n, "update stops at the error", r.Run(sandbox, "update"))

	if err := os.RemoveAll(filepath.Join(sandbox, "Inputs")); err != nil {
		return "", err
	}
	sectionRun(&out, n, "create without staging inputs", r.Run(sandbox, "create"))

	return out.String(), nil
}

// 05: Config get, set, list and validation.
func caseConfig(r *Runner, n *Normalizer, sandbox string) (string, error) {
	var out strings.Builder

	sectionRun(&out, n, "config set compare.atol", r.Run(sandbox, "config", "set", "compare.atol", "1e-6"))
	sectionRun(&out, n, "config get compare.atol", r.Run(sandbox, "config", "get", "compare.atol"))
	sectionRun(&out, n, "config set invalid run.jobs", r.Run(sandbox, "config", "set", "run.jobs", "0"))
	sectionRun(&out, n, "config list", r.Run(sandbox, "config", "list"))
	sectionRun(&out, n, "config validate", r.Run(sandbox, "config", "validate"))
	sectionRun(&out, n, "unknown flag", r.Run(sandbox, "run", "--bogus"))

	return out.String(), nil
}

// 06: Export a case, import it into staging and create a copy.
func caseExportImport(r *Runner, n *Normalizer, sandbox string) (string, error) {
	var out strings.Builder

	if _, err := mustRun(r, sandbox, "create"); err != nil {
		return "", err
	}

	sectionRun(&out, n, "export to stdout", r.Run(sandbox, "export", "Case01"))
	sectionRun(&out, n, "export to file", r.Run(sandbox, "export", "Case01", "-o", "case.txtar"))
	sectionRun(&out, n, "import into non-empty staging", r.Run(sandbox, "import", "case.txtar"))
	sectionRun(&out, n, "import with force", r.Run(sandbox, "import", "--force", "case.txtar"))
	sectionRun(&out, n, "create from imported inputs", r.Run(sandbox, "create"))
	sectionRun(&out, n, "run", r.Run(sandbox, "run"))

	return out.String(), nil
}
