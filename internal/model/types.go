package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for the release error taxonomy. Collaborator packages wrap
// these with fmt.Errorf("%w: ...") so callers can classify failures with
// errors.Is while still seeing the underlying tool output.
var (
	// ErrInvalidVersionKind indicates a version parity mismatch: a release
	// operation was given a release version where a development version was
	// required, or vice versa.
	ErrInvalidVersionKind = errors.New("invalid version kind")

	// ErrVCSOperationFailed indicates that a git operation (checkout, merge,
	// commit, tag, push, ...) exited non-zero. The wrapped error text carries
	// git's stderr output.
	ErrVCSOperationFailed = errors.New("vcs operation failed")

	// ErrPackagingFailed indicates that the artifact archive could not be
	// created, typically because the requested ref does not resolve.
	ErrPackagingFailed = errors.New("packaging failed")
)

// StepStatus represents the outcome of a single release step within a run.
// The lifecycle is linear: every step is defined statically, executed at most
// once per run, and never retried automatically.
//
//	[pending] → ok
//	[pending] → failed   (halts the run; later steps stay pending)
//	[pending] → skipped  (already completed in the run being resumed)
type StepStatus string

const (
	// StepOK indicates the step's action completed without error.
	StepOK StepStatus = "ok"

	// StepFailed indicates the step's action returned an error.
	// The sequencer halts the run at the first failed step.
	StepFailed StepStatus = "failed"

	// StepSkipped indicates the step was not executed because it already
	// completed in a previous run that is now being resumed.
	StepSkipped StepStatus = "skipped"

	// StepPending indicates the step has not been reached. Steps after a
	// failure remain pending.
	StepPending StepStatus = "pending"
)

// String returns the string representation of StepStatus.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands and run reports.
func (s StepStatus) String() string {
	return string(s)
}

// IsValid checks whether the StepStatus value is one of the
// predefined valid states.
func (s StepStatus) IsValid() bool {
	switch s {
	case StepOK, StepFailed, StepSkipped, StepPending:
		return true
	default:
		return false
	}
}

// ParseStepStatus converts a string to a StepStatus.
// Returns an error if the string does not match any valid status.
func ParseStepStatus(s string) (StepStatus, error) {
	status := StepStatus(strings.ToLower(s))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid step status: %q (valid: ok, failed, skipped, pending)", s)
	}
	return status, nil
}

// RunStatus represents the overall outcome of a release run.
type RunStatus string

const (
	// RunInProgress indicates the run has started and not yet finished.
	// A run left in this state (e.g. the process was killed) is treated
	// like a failed run for resume purposes.
	RunInProgress RunStatus = "in-progress"

	// RunSucceeded indicates every step in the plan completed.
	RunSucceeded RunStatus = "succeeded"

	// RunFailed indicates the run halted at a failing step.
	RunFailed RunStatus = "failed"
)

// String returns the string representation of RunStatus.
func (s RunStatus) String() string {
	return string(s)
}

// IsValid checks whether the RunStatus value is one of the
// predefined valid states.
func (s RunStatus) IsValid() bool {
	switch s {
	case RunInProgress, RunSucceeded, RunFailed:
		return true
	default:
		return false
	}
}

// ParseRunStatus converts a string to a RunStatus.
// Returns an error if the string does not match any valid status.
func ParseRunStatus(s string) (RunStatus, error) {
	status := RunStatus(strings.ToLower(s))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid run status: %q (valid: in-progress, succeeded, failed)", s)
	}
	return status, nil
}

// Artifact describes a packaged release archive. An artifact is keyed by its
// version string, created once per release, and immutable thereafter — the
// packager refuses to overwrite an existing archive unless forced.
type Artifact struct {
	// Name is the project name used as the archive prefix (e.g. "swiftly").
	Name string `json:"name" yaml:"name"`

	// Version is the release version the artifact was built for.
	Version string `json:"version" yaml:"version"`

	// Ref is the git ref the archive was produced from (tag, branch or SHA).
	Ref string `json:"ref" yaml:"ref"`

	// Commit is the resolved commit SHA of Ref at packaging time.
	Commit string `json:"commit" yaml:"commit"`

	// Path is the absolute filesystem path of the archive file.
	Path string `json:"path" yaml:"path"`

	// SHA256 is the hex-encoded SHA-256 digest of the archive bytes.
	SHA256 string `json:"sha256" yaml:"sha256"`

	// SizeBytes is the archive file size.
	SizeBytes int64 `json:"sizeBytes" yaml:"sizeBytes"`

	// CreatedAt is the timestamp when the archive was written. It is
	// recorded in the manifest only; the archive bytes themselves are
	// deterministic for a given commit.
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// StepRecord is the persisted outcome of a single step within a recorded run.
type StepRecord struct {
	// StepID is the step identifier within the plan (e.g. "merge", "tag").
	StepID string `json:"stepId"`

	// Position is the zero-based index of the step within the plan.
	Position int `json:"position"`

	// Status is the recorded outcome of the step.
	Status StepStatus `json:"status"`

	// Error is the error text for a failed step, empty otherwise.
	Error string `json:"error,omitempty"`

	// FinishedAt is when the step outcome was recorded.
	FinishedAt time.Time `json:"finishedAt"`
}

// RunRecord is a persisted release run: which plan ran for which version,
// how it ended, and the per-step outcomes. Runs are recorded by the history
// store and power both the `history` command and `release --resume`.
type RunRecord struct {
	// ID is the store-assigned run identifier.
	ID int64 `json:"id"`

	// Plan is the plan name ("release" or "dev").
	Plan string `json:"plan"`

	// Version is the version string the run was cut for.
	Version string `json:"version"`

	// Status is the overall run outcome.
	Status RunStatus `json:"status"`

	// FailedStep is the identifier of the failing step for failed runs,
	// empty otherwise.
	FailedStep string `json:"failedStep,omitempty"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"startedAt"`

	// FinishedAt is when the run ended; zero while in progress.
	FinishedAt time.Time `json:"finishedAt,omitempty"`

	// Steps holds the per-step outcomes in plan order. Populated only when
	// a single run is loaded in full, not in run listings.
	Steps []StepRecord `json:"steps,omitempty"`
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and CI
// systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates release.jsonc was missing or invalid.
	ExitConfigError ExitCode = 2

	// ExitVersionError indicates a version parity or format problem
	// (see ErrInvalidVersionKind).
	ExitVersionError ExitCode = 3

	// ExitVCSError indicates a git operation failed
	// (see ErrVCSOperationFailed).
	ExitVCSError ExitCode = 4

	// ExitPackagingError indicates artifact creation failed
	// (see ErrPackagingFailed).
	ExitPackagingError ExitCode = 5

	// ExitHistoryError indicates the run-history store could not be
	// opened or written.
	ExitHistoryError ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
// This follows Go's error wrapping convention introduced in Go 1.13.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
