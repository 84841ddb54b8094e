package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/model"
)

// Step is a single named release action within a plan.
type Step struct {
	// ID is the step identifier, unique within its plan (e.g. "merge").
	// Failure reports and resume targeting use this identifier.
	ID string

	// Description is the human-readable summary shown in plan listings
	// and progress output.
	Description string

	// Run executes the step's action. A nil Run marks an informational
	// step that always succeeds (e.g. printing upload instructions is
	// attached as a Run that only writes output).
	Run func(ctx context.Context) error
}

// Plan is an ordered sequence of release steps for one version.
type Plan struct {
	// Name identifies the plan flavor: "release" or "dev".
	Name string

	// Version is the version string the plan operates on.
	Version string

	// Steps is the ordered step list. Order is significant.
	Steps []Step
}

// StepIndex returns the position of the step with the given ID,
// or -1 if the plan has no such step.
func (p *Plan) StepIndex(id string) int {
	for i, s := range p.Steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// StepResult is the outcome of one step within a run.
type StepResult struct {
	// Step is the step this result belongs to.
	Step Step

	// Status is the outcome: ok, failed, skipped, or pending
	// (pending for steps after the failure point).
	Status model.StepStatus

	// Err is the failure cause for a failed step, nil otherwise.
	Err error

	// Duration is how long the step's action ran. Zero for steps that
	// were skipped or never reached.
	Duration time.Duration
}

// Report is the complete outcome of a sequencer run.
type Report struct {
	// Plan is the plan that was executed.
	Plan *Plan

	// Results holds one entry per plan step, in plan order, regardless of
	// how far the run got.
	Results []StepResult

	// FailedStep is the ID of the failing step, empty on success.
	FailedStep string

	// Err is the failing step's error, nil on success.
	Err error
}

// Succeeded reports whether every executed step completed.
func (r *Report) Succeeded() bool {
	return r.FailedStep == ""
}

// Observer receives step lifecycle notifications during a run. The CLI uses
// an observer to print live progress; the history store uses one to record
// per-step outcomes as they happen, so a killed process still leaves a
// resumable trail.
type Observer interface {
	// StepStarted is called immediately before a step's action runs.
	// position is zero-based; total is the plan's step count.
	StepStarted(step Step, position, total int)

	// StepFinished is called after a step resolves to ok, failed or skipped.
	StepFinished(result StepResult, position, total int)
}

// Sequencer executes plans. It carries no state between runs.
type Sequencer struct {
	observers []Observer
}

// NewSequencer creates a Sequencer notifying the given observers.
// Nil observers are ignored.
func NewSequencer(observers ...Observer) *Sequencer {
	s := &Sequencer{}
	for _, o := range observers {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
	return s
}

// Run executes the plan's steps in order, halting at the first failure.
//
// If startAt is non-empty, steps before it are marked skipped instead of
// executed; this implements resuming a previously failed run from its
// failing step. Run fails immediately if startAt names no step in the plan.
//
// The returned Report always has one result per plan step. On failure the
// returned error carries the failing step's identifier and wraps its cause,
// and steps after the failure point are left pending — they are never
// executed, matching the fail-fast contract.
func (s *Sequencer) Run(ctx context.Context, p *Plan, startAt string) (*Report, error) {
	report := &Report{Plan: p}

	start := 0
	if startAt != "" {
		start = p.StepIndex(startAt)
		if start < 0 {
			return nil, fmt.Errorf("plan %q has no step %q to resume from", p.Name, startAt)
		}
	}

	total := len(p.Steps)
	for i, step := range p.Steps {
		// Steps after a failure are recorded as pending without
		// notifying observers — they were never reached.
		if report.FailedStep != "" {
			report.Results = append(report.Results, StepResult{Step: step, Status: model.StepPending})
			continue
		}

		if i < start {
			result := StepResult{Step: step, Status: model.StepSkipped}
			report.Results = append(report.Results, result)
			for _, o := range s.observers {
				o.StepFinished(result, i, total)
			}
			continue
		}

		// A cancelled context fails the run at the step it would have
		// executed next.
		if err := ctx.Err(); err != nil {
			result := StepResult{Step: step, Status: model.StepFailed, Err: err}
			report.Results = append(report.Results, result)
			report.FailedStep = step.ID
			report.Err = err
			for _, o := range s.observers {
				o.StepFinished(result, i, total)
			}
			continue
		}

		for _, o := range s.observers {
			o.StepStarted(step, i, total)
		}

		began := time.Now()
		var err error
		if step.Run != nil {
			err = step.Run(ctx)
		}
		elapsed := time.Since(began)

		result := StepResult{Step: step, Status: model.StepOK, Duration: elapsed}
		if err != nil {
			result.Status = model.StepFailed
			result.Err = err
			report.FailedStep = step.ID
			report.Err = err
		}
		report.Results = append(report.Results, result)
		for _, o := range s.observers {
			o.StepFinished(result, i, total)
		}
	}

	if report.FailedStep != "" {
		return report, fmt.Errorf("step %q failed: %w", report.FailedStep, report.Err)
	}
	return report, nil
}
