// Package cli — package.go implements the "swiftly-release package" command.
//
// The package command runs the artifact packager alone: it archives a git
// ref into a checksummed tar.gz plus YAML manifest without touching
// branches, versions, or the changelog. Useful for rebuilding an artifact
// for a past release tag or for inspecting what a release would ship.
package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/archive"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/model"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/version"
)

// packageFlags holds the flag values for the package command.
type packageFlags struct {
	// versionStr overrides the artifact version. When empty, the version is
	// read from the configured version file in the current working tree.
	versionStr string

	// output overrides the configured output directory.
	output string

	// force overwrites an existing archive for the same version.
	force bool
}

// NewPackageCommand creates the "package" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewPackageCommand() *cobra.Command {
	flags := &packageFlags{}

	cmd := &cobra.Command{
		Use:   "package <ref>",
		Short: "Package a git ref into a release artifact",
		Long: `Archive the tree at the given git ref (tag, branch, or commit) into a
tar.gz artifact with a SHA-256 manifest.

The artifact version defaults to the version currently recorded in the
configured version file; pass --version to package a different one.

Examples:
  swiftly-release package v1.12
  swiftly-release package master --version 1.12
  swiftly-release package v1.10 --output /tmp/rebuild --force`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackage(args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.versionStr, "version", "", "Artifact version (default: version file contents)")
	cmd.Flags().StringVar(&flags.output, "output", "", "Output directory (default: config outputDir)")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Overwrite an existing archive for the same version")

	return cmd
}

// runPackage resolves the artifact version and invokes the packager.
func runPackage(ref string, flags *packageFlags) error {
	rc, err := loadRunContext()
	if err != nil {
		return err
	}

	var ver version.Version
	if flags.versionStr != "" {
		ver, err = version.Parse(flags.versionStr)
		if err != nil {
			return err
		}
	} else {
		pattern, perr := rc.Config.CompileVersionPattern()
		if perr != nil {
			return model.WrapCLIError(model.ExitConfigError, "invalid version pattern", perr)
		}
		rw, rerr := version.NewRewriter(filepath.Join(rc.RepoRoot, rc.Config.VersionFile), pattern)
		if rerr != nil {
			return model.WrapCLIError(model.ExitConfigError, "invalid version pattern", rerr)
		}
		ver, err = rw.Current()
		if err != nil {
			return model.WrapCLIError(model.ExitVersionError, "cannot determine artifact version", err)
		}
	}
	VerboseLog("Packaging %s at version %s", ref, ver)

	outputDir := flags.output
	if outputDir == "" {
		outputDir = filepath.Join(rc.RepoRoot, rc.Config.OutputDir)
	}

	packager := archive.NewPackager(rc.Git)
	artifact, err := packager.Package(rc.RepoRoot, ref, ver, rc.Config.Name, archive.Options{
		OutputDir: outputDir,
		Force:     flags.force,
	})
	if err != nil {
		return err
	}

	printArtifact(artifact)
	return nil
}

// printArtifact outputs the artifact details in text or JSON format.
func printArtifact(artifact *model.Artifact) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(artifact, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Packaged %s %s\n", artifact.Name, artifact.Version)
	fmt.Printf("  Ref:     %s (%s)\n", artifact.Ref, artifact.Commit)
	fmt.Printf("  Archive: %s (%d bytes)\n", artifact.Path, artifact.SizeBytes)
	fmt.Printf("  SHA256:  %s\n", artifact.SHA256)
}
