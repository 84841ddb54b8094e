package history

import (
	"time"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/model"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/plan"
)

// Recorder is a plan.Observer that persists step outcomes to the store as
// they resolve. Recording failures are swallowed after being noted through
// the warn callback: a broken history database must not abort a release
// that is otherwise succeeding.
type Recorder struct {
	store *Store
	runID int64
	warn  func(format string, args ...interface{})
}

// NewRecorder creates a Recorder for the given run. warn receives printf-style
// diagnostics for store write failures; nil disables them.
func NewRecorder(store *Store, runID int64, warn func(format string, args ...interface{})) *Recorder {
	if warn == nil {
		warn = func(string, ...interface{}) {}
	}
	return &Recorder{store: store, runID: runID, warn: warn}
}

// StepStarted satisfies plan.Observer. Start events are not persisted;
// only resolved outcomes matter for history and resume.
func (r *Recorder) StepStarted(plan.Step, int, int) {}

// StepFinished satisfies plan.Observer and writes the step outcome.
func (r *Recorder) StepFinished(result plan.StepResult, position, _ int) {
	rec := model.StepRecord{
		StepID:     result.Step.ID,
		Position:   position,
		Status:     result.Status,
		FinishedAt: time.Now().UTC(),
	}
	if result.Err != nil {
		rec.Error = result.Err.Error()
	}
	if err := r.store.RecordStep(r.runID, rec); err != nil {
		r.warn("history: %v", err)
	}
}
