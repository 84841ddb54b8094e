// Package model defines the domain types and value objects for the
// swiftly-release CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (Artifact, RunRecord, StepRecord, etc.) are transient
// representations of a single release run; durable run history lives in
// the internal/history SQLite store.
//
// The package also defines exit codes (ExitCode), the sentinel errors of the
// release error taxonomy, and a custom error type (CLIError) that carries
// exit codes for proper OS process exit handling.
package model
