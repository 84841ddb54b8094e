// Package plan defines release plans and the sequencer that drives them.
//
// A Plan is an ordered list of named Steps; order is significant and every
// step executes at most once per run. The Sequencer runs steps strictly in
// order, halts at the first failure, and reports the failing step's
// identifier and cause. Nothing is rolled back: the release process assumes
// an operator inspects a failed run and either fixes the repository by hand
// or resumes from the failed step.
//
// Execution is single-threaded and sequential: a release is a serial
// mutation of branch state, and at most one release is in flight.
package plan
