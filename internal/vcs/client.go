package vcs

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/model"
)

// Client provides git operations by invoking the git CLI.
//
// It is currently stateless — all methods receive the repository path
// as a parameter. The struct exists as a receiver to support future
// extensions such as a configurable git binary path.
type Client struct{}

// NewClient creates a new git Client instance.
//
// Currently there is no initialization logic, but this constructor
// follows Go convention and allows us to add setup code later
// (e.g., verifying git is installed) without breaking callers.
func NewClient() *Client {
	return &Client{}
}

// Checkout switches the working tree to the given branch.
func (c *Client) Checkout(repoPath, branch string) error {
	_, err := runGit(repoPath, "checkout", branch)
	return err
}

// Merge merges the given branch into the currently checked-out branch.
// The merge uses git's default fast-forward behavior; a conflicting merge
// fails and leaves resolution to the operator, matching the manual process.
func (c *Client) Merge(repoPath, from string) error {
	_, err := runGit(repoPath, "merge", from)
	return err
}

// Commit stages all tracked changes and records a commit with the given
// message. The -a flag mirrors the manual `git commit -a -m ...` the release
// process uses after editing the version file and changelog.
func (c *Client) Commit(repoPath, message string) error {
	_, err := runGit(repoPath, "commit", "-a", "-m", message)
	return err
}

// Tag creates an annotated tag at HEAD.
func (c *Client) Tag(repoPath, name, message string) error {
	_, err := runGit(repoPath, "tag", "-a", name, "-m", message)
	return err
}

// Push pushes the given refs (branches and/or tags) to the named remote.
func (c *Client) Push(repoPath, remote string, refs ...string) error {
	args := append([]string{"push", remote}, refs...)
	_, err := runGit(repoPath, args...)
	return err
}

// BranchExists checks whether a branch with the given name exists in the
// repository.
//
// This uses `git rev-parse --verify <branch>` which exits with code 0 if the
// ref exists and non-zero otherwise. We only care about the exit code, not
// the output (which would be the commit SHA).
func (c *Client) BranchExists(repoPath, branch string) bool {
	_, err := runGit(repoPath, "rev-parse", "--verify", branch)
	return err == nil
}

// CurrentBranch returns the name of the currently checked-out branch
// at the given path.
//
// Uses `git rev-parse --abbrev-ref HEAD` which returns the short branch name
// (e.g., "master" instead of "refs/heads/master"). Returns "HEAD" if the
// repository is in a detached HEAD state.
func (c *Client) CurrentBranch(repoPath string) (string, error) {
	output, err := runGit(repoPath, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// RevParse resolves a ref (branch, tag, or SHA prefix) to its full commit SHA.
func (c *Client) RevParse(repoPath, ref string) (string, error) {
	output, err := runGit(repoPath, "rev-parse", "--verify", ref+"^{commit}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// RepoRoot returns the absolute path to the top-level directory of the
// Git repository containing the given path.
//
// This uses `git rev-parse --show-toplevel` which works correctly from any
// subdirectory of the working tree.
func (c *Client) RepoRoot(path string) (string, error) {
	output, err := runGit(path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	// Trim whitespace/newline from git output.
	return strings.TrimSpace(output), nil
}

// IsClean reports whether the working tree has no uncommitted changes to
// tracked files. Untracked files do not count: the release process only
// cares that nothing staged or modified would leak into the release commit.
func (c *Client) IsClean(repoPath string) (bool, error) {
	output, err := runGit(repoPath, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) == "", nil
}

// Archive writes a tar.gz archive of the given ref's tree to outPath.
// Every path inside the archive is placed under the given prefix directory.
//
// `git archive` output is deterministic for a given commit: entry order is
// the tree order and entry mtimes come from the commit timestamp, so
// packaging the same ref twice over an unchanged tree yields byte-identical
// archives.
func (c *Client) Archive(repoPath, ref, prefix, outPath string) error {
	_, err := runGit(repoPath, "archive",
		"--format=tar.gz",
		"--prefix="+prefix+"/",
		"--output="+outPath,
		ref)
	return err
}

// runGit executes a git command with the given arguments in the specified
// directory.
//
// It captures stdout and stderr separately. On success (exit code 0), it
// returns the stdout output. On failure, it returns a model.CLIError with
// ExitVCSError wrapping model.ErrVCSOperationFailed, including the stderr
// output in the error message for debugging.
//
// The repoPath parameter is passed to git via the -C flag, which causes git
// to change to that directory before doing anything else. This avoids the need
// to change the process's working directory.
func runGit(repoPath string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)

	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.Command("git", fullArgs...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Fold git's stderr into the sentinel wrap so callers can both
		// classify the failure (errors.Is) and read the tool's own message.
		stderrStr := strings.TrimSpace(stderr.String())
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))

		underlying := fmt.Errorf("%w: %v", model.ErrVCSOperationFailed, err)
		if stderrStr != "" {
			underlying = fmt.Errorf("%w: %v: %s", model.ErrVCSOperationFailed, err, stderrStr)
		}
		return "", model.WrapCLIError(model.ExitVCSError, message, underlying)
	}

	return stdout.String(), nil
}
