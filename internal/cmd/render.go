package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"snapkit/internal/compare"
	"snapkit/internal/snapshot"
)

// jsonResult is the JSON form of a snapshot.Result.
type jsonResult struct {
	Case   string         `json:"case"`
	Status string         `json:"status"`
	Error  string         `json:"error,omitempty"`
	Diffs  []compare.Diff `json:"diffs,omitempty"`
}

type jsonReport struct {
	Mode    string         `json:"mode"`
	Passed  bool           `json:"passed"`
	Counts  map[string]int `json:"counts"`
	Results []jsonResult   `json:"results"`
}

func toJSONReport(r *snapshot.Report) jsonReport {
	out := jsonReport{
		Mode:    string(r.Mode),
		Passed:  len(r.Failed()) == 0 && r.Count(snapshot.StatusSkipped) == 0,
		Counts:  map[string]int{},
		Results: make([]jsonResult, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		jr := jsonResult{Case: res.Case, Status: string(res.Status), Diffs: res.Diffs}
		if res.Err != nil {
			jr.Error = res.Err.Error()
		}
		out.Results = append(out.Results, jr)
		out.Counts[string(res.Status)]++
	}
	return out
}

// statusLabels are the fixed-width labels used in text reports.
var statusLabels = map[snapshot.Status]string{
	snapshot.StatusPass:     "PASS",
	snapshot.StatusMismatch: "FAIL",
	snapshot.StatusMissing:  "MISSING",
	snapshot.StatusError:    "ERROR",
	snapshot.StatusUpdated:  "UPDATED",
	snapshot.StatusCreated:  "CREATED",
	snapshot.StatusSkipped:  "SKIPPED",
}

// renderReport writes a runner report as text or JSON.
func renderReport(app *App, r *snapshot.Report) error {
	if app.JSON {
		return json.NewEncoder(app.Out).Encode(toJSONReport(r))
	}

	if len(r.Results) == 0 {
		fmt.Fprintln(app.Out, "No cases found")
		return nil
	}

	for _, res := range r.Results {
		label := fmt.Sprintf("%-8s", statusLabels[res.Status])
		switch res.Status {
		case snapshot.StatusPass, snapshot.StatusUpdated, snapshot.StatusCreated:
			label = app.SuccessColor(label)
		case snapshot.StatusMissing, snapshot.StatusSkipped:
			label = app.WarnColor(label)
		default:
			label = app.FailColor(label)
		}
		fmt.Fprintf(app.Out, "%s %s%s\n", label, res.Case, resultNote(res))
		for _, d := range res.Diffs {
			fmt.Fprintf(app.Out, "  %s\n", strings.ReplaceAll(d.String(), "\n", "\n  "))
		}
	}

	fmt.Fprintln(app.Out)
	fmt.Fprintln(app.Out, summaryLine(r))
	return nil
}

// resultNote is the text after the case name on a report line.
func resultNote(res snapshot.Result) string {
	switch res.Status {
	case snapshot.StatusMissing:
		return " (no expected outputs; run `snapkit update` to record them)"
	case snapshot.StatusError:
		if ee, ok := res.Err.(*snapshot.EvaluationError); ok {
			return ": " + ee.Err.Error()
		}
		if res.Err != nil {
			return ": " + res.Err.Error()
		}
	case snapshot.StatusSkipped:
		if res.Err != nil {
			return " (" + res.Err.Error() + ")"
		}
	}
	return ""
}

// summaryLine counts results by status in a fixed order.
func summaryLine(r *snapshot.Report) string {
	order := []struct {
		status snapshot.Status
		word   string
	}{
		{snapshot.StatusPass, "passed"},
		{snapshot.StatusMismatch, "failed"},
		{snapshot.StatusMissing, "missing"},
		{snapshot.StatusError, "errored"},
		{snapshot.StatusUpdated, "updated"},
		{snapshot.StatusCreated, "created"},
		{snapshot.StatusSkipped, "skipped"},
	}
	var parts []string
	for _, o := range order {
		if n := r.Count(o.status); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, o.word))
		}
	}
	return strings.Join(parts, ", ")
}
