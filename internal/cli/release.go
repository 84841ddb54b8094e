// Package cli — release.go implements the "swiftly-release release" command.
//
// The release command is the primary operation: it cuts a release by running
// the built-in release plan against the enclosing repository.
//
// Orchestration steps (assembled by the plan builder):
//  1. Check out the release branch
//  2. Merge the development branch
//  3. Set the release version in the configured source file
//  4. Roll the changelog heading to the release version and date
//  5. Commit "Releasing <version>" and tag v<version>
//  6. Optionally build and relocate documentation
//  7. Package the tagged tree into a checksummed tar.gz artifact
//  8. Push branch and tag, then print registry upload instructions
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/version"
)

// releaseFlags holds the flag values for the release command.
type releaseFlags struct {
	// resume restarts the most recent failed run of this version at its
	// failing step instead of starting from the top.
	resume bool
}

// NewReleaseCommand creates the "release" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewReleaseCommand() *cobra.Command {
	flags := &releaseFlags{}

	cmd := &cobra.Command{
		Use:   "release <version>",
		Short: "Cut a release of the given version",
		Long: `Run the full release plan for the given version.

The version must be a release version — its final numeric component must be
even — and must be the direct successor of the development version currently
recorded in the source tree.

On failure the run halts at the failing step; nothing is rolled back. After
fixing the underlying problem, re-run with --resume to restart the same run
at the failing step.

Examples:
  swiftly-release release 1.12
  swiftly-release release 1.12 --resume
  swiftly-release release 1.12 --json`,

		// Args validates that exactly one positional argument (the version)
		// is provided.
		Args: cobra.ExactArgs(1),

		// RunE is used instead of Run so we can return errors. Cobra will
		// pass them to the Execute error handler in root.go.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd, args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.resume, "resume", false, "Resume the most recent failed run at its failing step")

	return cmd
}

// runRelease builds and executes the release plan for the given version.
func runRelease(cmd *cobra.Command, verArg string, flags *releaseFlags) error {
	rc, err := loadRunContext()
	if err != nil {
		return err
	}

	ver, err := version.Parse(verArg)
	if err != nil {
		return err
	}

	builder := rc.builder()
	if IsJSONOutput() {
		// Keep stdout clean for the JSON report; step output (artifact
		// line, upload instructions) moves to stderr.
		builder.Out = os.Stderr
	}

	p, err := builder.ReleasePlan(ver)
	if err != nil {
		return err
	}

	return executePlan(cmd.Context(), rc, p, flags.resume)
}
