// run.go contains the plan execution path shared by the release and dev
// commands: history bookkeeping, resume-point resolution, sequencing,
// and result reporting.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/history"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/model"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/plan"
)

// executePlan runs a plan with history recording and progress output.
//
// When resume is true, the most recent non-succeeded run of the same plan
// and version determines the starting step: steps it already completed are
// skipped, execution restarts at the failing step. Every invocation records
// a fresh run, so a resumed run that fails again is itself resumable.
func executePlan(ctx context.Context, rc *runContext, p *plan.Plan, resume bool) error {
	store, err := history.Open(rc.historyPath())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	startAt := ""
	if resume {
		startAt, err = resolveResumePoint(store, p)
		if err != nil {
			return err
		}
		VerboseLog("Resuming %s %s from step %q", p.Name, p.Version, startAt)
	}

	runID, err := store.BeginRun(p.Name, p.Version, time.Now())
	if err != nil {
		return model.WrapCLIError(model.ExitHistoryError, "failed to record the run", err)
	}

	observers := []plan.Observer{history.NewRecorder(store, runID, VerboseLog)}
	if !IsJSONOutput() {
		observers = append(observers, progressPrinter{})
	}

	seq := plan.NewSequencer(observers...)
	report, runErr := seq.Run(ctx, p, startAt)
	if report == nil {
		// The plan had no step matching startAt; nothing executed.
		_ = store.FinishRun(runID, model.RunFailed, "", time.Now())
		return model.WrapCLIError(model.ExitGeneralError, "cannot resume", runErr)
	}

	status := model.RunSucceeded
	if !report.Succeeded() {
		status = model.RunFailed
	}
	if err := store.FinishRun(runID, status, report.FailedStep, time.Now()); err != nil {
		VerboseLog("history: %v", err)
	}

	printRunReport(report, runID)

	if runErr != nil {
		return model.WrapCLIError(exitCodeFor(report.Err),
			fmt.Sprintf("%s halted at step %q", p.Name, report.FailedStep), report.Err)
	}
	return nil
}

// resolveResumePoint finds the first step of the plan that the latest
// unfinished run did not complete.
func resolveResumePoint(store *history.Store, p *plan.Plan) (string, error) {
	rec, err := store.LatestResumable(p.Name, p.Version)
	if err != nil {
		return "", model.WrapCLIError(model.ExitHistoryError, "failed to look up resumable runs", err)
	}
	if rec == nil {
		return "", model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("no failed %s run for version %s to resume", p.Name, p.Version))
	}

	// Load the per-step trail to find where the run stopped. The recorded
	// failed_step alone is not enough for runs killed mid-step.
	full, err := store.Run(rec.ID)
	if err != nil {
		return "", model.WrapCLIError(model.ExitHistoryError, "failed to load run detail", err)
	}

	done := make(map[string]bool)
	for _, s := range full.Steps {
		if s.Status == model.StepOK || s.Status == model.StepSkipped {
			done[s.StepID] = true
		}
	}
	for _, s := range p.Steps {
		if !done[s.ID] {
			return s.ID, nil
		}
	}
	// Every step completed; run the whole plan again rather than guessing.
	return "", nil
}

// exitCodeFor extracts the exit code carried by an error chain,
// defaulting to the general error code.
func exitCodeFor(err error) model.ExitCode {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return model.ExitGeneralError
}

// runStepJSON is the JSON output structure for a single step outcome.
type runStepJSON struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	DurationMS  int64  `json:"durationMs,omitempty"`
}

// printRunReport outputs the run outcome in text or JSON format.
func printRunReport(report *plan.Report, runID int64) {
	if IsJSONOutput() {
		printRunReportJSON(report, runID)
	} else {
		printRunReportText(report, runID)
	}
}

// printRunReportJSON outputs the run outcome as structured JSON.
func printRunReportJSON(report *plan.Report, runID int64) {
	type resultJSON struct {
		Plan       string        `json:"plan"`
		Version    string        `json:"version"`
		RunID      int64         `json:"runId"`
		Status     string        `json:"status"`
		FailedStep string        `json:"failedStep,omitempty"`
		Steps      []runStepJSON `json:"steps"`
	}

	status := model.RunSucceeded
	if !report.Succeeded() {
		status = model.RunFailed
	}

	result := resultJSON{
		Plan:       report.Plan.Name,
		Version:    report.Plan.Version,
		RunID:      runID,
		Status:     status.String(),
		FailedStep: report.FailedStep,
		Steps:      make([]runStepJSON, 0, len(report.Results)),
	}

	for _, r := range report.Results {
		entry := runStepJSON{
			ID:          r.Step.ID,
			Description: r.Step.Description,
			Status:      r.Status.String(),
			DurationMS:  r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			entry.Error = r.Err.Error()
		}
		result.Steps = append(result.Steps, entry)
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printRunReportText outputs a short human-readable run summary.
// Per-step detail was already streamed by the progress printer.
func printRunReportText(report *plan.Report, runID int64) {
	if report.Succeeded() {
		fmt.Printf("%s %s completed (%d steps, run #%d)\n",
			report.Plan.Name, report.Plan.Version, len(report.Results), runID)
		return
	}
	fmt.Printf("%s %s halted at step %q (run #%d)\n",
		report.Plan.Name, report.Plan.Version, report.FailedStep, runID)
	fmt.Printf("Fix the underlying problem, then resume with: swiftly-release %s %s --resume\n",
		report.Plan.Name, report.Plan.Version)
}
