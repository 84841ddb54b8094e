// Package history persists release runs in a per-repository SQLite database.
//
// Every run records its plan, version, overall outcome and per-step results.
// The store serves two consumers: the `history` command, which lists and
// inspects past runs, and `release --resume`, which looks up the most recent
// unfinished run for a version to restart the plan at its failing step.
//
// The database uses the pure-Go modernc.org/sqlite driver (no CGO) and an
// embedded schema applied on open, so the store needs no external setup.
// Steps are recorded as they finish, not at the end of the run — a killed
// process still leaves a resumable trail.
package history
