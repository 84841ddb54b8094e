// progress.go renders live step progress during a plan run.
//
// Progress lines go to stderr so stdout stays reserved for the final
// command output (text or JSON). Colors degrade gracefully: fatih/color
// disables itself on non-TTY output.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/model"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/plan"
)

var (
	okMark      = color.New(color.FgGreen).Sprint("ok")
	failedMark  = color.New(color.FgRed).Sprint("failed")
	skippedMark = color.New(color.FgYellow).Sprint("skipped")
)

// progressPrinter is a plan.Observer that prints one line per step.
//
//	[3/9] set version to 1.12 in swiftly/__init__.py ... ok (12ms)
type progressPrinter struct{}

// StepStarted satisfies plan.Observer. The step line is printed on finish
// so the status and duration land on the same line.
func (progressPrinter) StepStarted(step plan.Step, position, total int) {
	VerboseLog("starting step %q", step.ID)
}

// StepFinished satisfies plan.Observer.
func (progressPrinter) StepFinished(result plan.StepResult, position, total int) {
	mark := okMark
	switch result.Status {
	case model.StepFailed:
		mark = failedMark
	case model.StepSkipped:
		mark = skippedMark
	}

	line := fmt.Sprintf("[%d/%d] %s ... %s", position+1, total, result.Step.Description, mark)
	if result.Status == model.StepOK && result.Duration > 0 {
		line += fmt.Sprintf(" (%s)", FormatDuration(result.Duration))
	}
	fmt.Fprintln(os.Stderr, line)
}

// FormatDuration renders a step duration compactly: sub-second durations in
// milliseconds, everything else in seconds with one decimal.
//
// This function is exported for testing purposes (tested in progress_test.go).
//
// Example:
//
//	12*time.Millisecond → "12ms"
//	1500*time.Millisecond → "1.5s"
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		ms := d.Milliseconds()
		if ms == 0 {
			ms = 1
		}
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
