// Package vcs provides the git operations used by the release plans.
//
// All operations are performed via os/exec calls to the git binary, rather
// than using a Git library like go-git. This approach:
//   - Avoids CGO dependencies (libgit2)
//   - Uses the exact same Git behavior the user sees in their terminal
//   - Matches the manual release process this tool automates, which is a
//     sequence of plain git commands
//
// Every failing git invocation is wrapped in model.CLIError with ExitVCSError
// and carries model.ErrVCSOperationFailed plus git's stderr text, so the
// sequencer can treat any VCS failure as fatal for the run while the CLI maps
// it to the right exit code.
package vcs
