// Package cli — dev.go implements the "swiftly-release dev" command.
//
// The dev command reopens development after a release: it checks out the
// development branch, merges the release commit back, bumps the version file
// to the next development version, opens a fresh changelog section, commits,
// and pushes. It is the dual of the release command — release → development
// is the only legal transition after a release completes.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/version"
)

// devFlags holds the flag values for the dev command.
type devFlags struct {
	// resume restarts the most recent failed run of this version at its
	// failing step instead of starting from the top.
	resume bool
}

// NewDevCommand creates the "dev" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewDevCommand() *cobra.Command {
	flags := &devFlags{}

	cmd := &cobra.Command{
		Use:   "dev <version>",
		Short: "Reopen development on the given version after a release",
		Long: `Run the post-release plan for the given development version.

The version must be a development version — its final numeric component must
be odd — and must be the direct successor of the release version currently
recorded in the source tree.

Examples:
  swiftly-release dev 1.13
  swiftly-release dev 1.13 --resume`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(cmd, args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.resume, "resume", false, "Resume the most recent failed run at its failing step")

	return cmd
}

// runDev builds and executes the dev plan for the given version.
func runDev(cmd *cobra.Command, verArg string, flags *devFlags) error {
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
		builder.Out = os.Stderr
	}

	p, err := builder.DevPlan(ver)
	if err != nil {
		return err
	}

	return executePlan(cmd.Context(), rc, p, flags.resume)
}
