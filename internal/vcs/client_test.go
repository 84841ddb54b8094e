package vcs

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/model"
)

// setupTestRepo creates a temporary directory with an initialized Git
// repository containing a single commit. Most client operations need at least
// one commit to exist, because branches need a commit to point to.
//
// The function uses t.TempDir() which automatically cleans up after the test.
// It also configures a local user.name and user.email so that `git commit`
// works in CI environments where global git config may not be set.
//
// Returns the absolute path to the temporary repository.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	runTestGit(t, dir, "init")

	// Configure user identity at the repo level so `git commit` works
	// even in environments without a global Git configuration (e.g., CI).
	runTestGit(t, dir, "config", "user.email", "test@example.com")
	runTestGit(t, dir, "config", "user.name", "Test User")

	initialFile := filepath.Join(dir, "README.md")
	err := os.WriteFile(initialFile, []byte("# Test Repo\n"), 0644)
	require.NoError(t, err, "failed to create initial file")

	runTestGit(t, dir, "add", ".")
	runTestGit(t, dir, "commit", "-m", "initial commit")

	return dir
}

// runTestGit is a test helper that runs a git command in the specified
// directory and fails the test immediately if the command exits with a
// non-zero status. This keeps test setup code concise by avoiding repetitive
// error checks.
func runTestGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
	return string(output)
}

// TestCheckout verifies that Checkout switches the working tree to an
// existing branch.
func TestCheckout(t *testing.T) {
	repoPath := setupTestRepo(t)
	c := NewClient()

	runTestGit(t, repoPath, "branch", "feature")

	err := c.Checkout(repoPath, "feature")
	require.NoError(t, err)

	branch, err := c.CurrentBranch(repoPath)
	require.NoError(t, err)
	assert.Equal(t, "feature", branch)
}

// TestCheckoutMissingBranch verifies that checking out a branch that does not
// exist fails with the VCS error classification.
func TestCheckoutMissingBranch(t *testing.T) {
	repoPath := setupTestRepo(t)
	c := NewClient()

	err := c.Checkout(repoPath, "no-such-branch")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrVCSOperationFailed))
}

// TestMerge verifies that Merge brings a side branch's commit into the
// current branch.
func TestMerge(t *testing.T) {
	repoPath := setupTestRepo(t)
	c := NewClient()

	base, err := c.CurrentBranch(repoPath)
	require.NoError(t, err)

	// Commit a new file on a side branch.
	runTestGit(t, repoPath, "checkout", "-b", "side")
	err = os.WriteFile(filepath.Join(repoPath, "side.txt"), []byte("side\n"), 0644)
	require.NoError(t, err)
	runTestGit(t, repoPath, "add", ".")
	runTestGit(t, repoPath, "commit", "-m", "side work")

	// Merge it back into the base branch.
	require.NoError(t, c.Checkout(repoPath, base))
	err = c.Merge(repoPath, "side")
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(repoPath, "side.txt"))
	assert.NoError(t, statErr, "merged file should be present on the base branch")
}

// TestMergeMissingBranch verifies that merging a branch that does not exist
// fails with ErrVCSOperationFailed and a CLIError carrying the VCS exit code.
func TestMergeMissingBranch(t *testing.T) {
	repoPath := setupTestRepo(t)
	c := NewClient()

	err := c.Merge(repoPath, "1.2")
	require.Error(t, err)

	assert.True(t, errors.Is(err, model.ErrVCSOperationFailed),
		"merge failure should wrap ErrVCSOperationFailed")

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitVCSError, cliErr.Code)
}

// TestCommit verifies that Commit records staged tracked changes.
func TestCommit(t *testing.T) {
	repoPath := setupTestRepo(t)
	c := NewClient()

	// Modify a tracked file; commit -a picks it up without an explicit add.
	err := os.WriteFile(filepath.Join(repoPath, "README.md"), []byte("# Updated\n"), 0644)
	require.NoError(t, err)

	err = c.Commit(repoPath, "Releasing 1.12")
	require.NoError(t, err)

	subject := runTestGit(t, repoPath, "log", "-1", "--format=%s")
	assert.Contains(t, subject, "Releasing 1.12")

	clean, err := c.IsClean(repoPath)
	require.NoError(t, err)
	assert.True(t, clean, "working tree should be clean after commit")
}

// TestCommitNothingToCommit verifies that committing a clean tree fails,
// surfacing git's own refusal as a VCS error.
func TestCommitNothingToCommit(t *testing.T) {
	repoPath := setupTestRepo(t)
	c := NewClient()

	err := c.Commit(repoPath, "empty")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrVCSOperationFailed))
}

// TestTag verifies that Tag creates an annotated tag at HEAD.
func TestTag(t *testing.T) {
	repoPath := setupTestRepo(t)
	c := NewClient()

	err := c.Tag(repoPath, "v1.12", "swiftly 1.12")
	require.NoError(t, err)

	tags := runTestGit(t, repoPath, "tag", "--list")
	assert.Contains(t, tags, "v1.12")

	// An annotated tag is its own object, distinct from the commit.
	objType := runTestGit(t, repoPath, "cat-file", "-t", "v1.12")
	assert.Contains(t, objType, "tag")
}

// TestPush verifies that Push delivers a branch and a tag to a remote,
// using a local bare repository as the remote.
func TestPush(t *testing.T) {
	repoPath := setupTestRepo(t)
	c := NewClient()

	// Create a bare repository to act as the remote.
	remotePath := filepath.Join(t.TempDir(), "remote.git")
	cmd := exec.Command("git", "init", "--bare", remotePath)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git init --bare failed: %s", string(output))

	runTestGit(t, repoPath, "remote", "add", "origin", remotePath)

	branch, err := c.CurrentBranch(repoPath)
	require.NoError(t, err)

	require.NoError(t, c.Tag(repoPath, "v1.12", "swiftly 1.12"))

	err = c.Push(repoPath, "origin", branch, "v1.12")
	require.NoError(t, err)

	// The remote must now know both refs.
	cmd = exec.Command("git", "-C", remotePath, "show-ref")
	output, err = cmd.CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(output), "refs/heads/"+branch)
	assert.Contains(t, string(output), "refs/tags/v1.12")
}

// TestPushNoRemote verifies that pushing to an unconfigured remote fails
// with the VCS error classification.
func TestPushNoRemote(t *testing.T) {
	repoPath := setupTestRepo(t)
	c := NewClient()

	err := c.Push(repoPath, "origin", "master")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrVCSOperationFailed))
}

// TestBranchExists verifies branch presence detection.
func TestBranchExists(t *testing.T) {
	repoPath := setupTestRepo(t)
	c := NewClient()

	branch, err := c.CurrentBranch(repoPath)
	require.NoError(t, err)

	assert.True(t, c.BranchExists(repoPath, branch))
	assert.False(t, c.BranchExists(repoPath, "non-existent-branch-xyz"))

	runTestGit(t, repoPath, "branch", "dev")
	assert.True(t, c.BranchExists(repoPath, "dev"))
}

// TestRevParse verifies ref resolution to a full commit SHA.
func TestRevParse(t *testing.T) {
	repoPath := setupTestRepo(t)
	c := NewClient()

	sha, err := c.RevParse(repoPath, "HEAD")
	require.NoError(t, err)
	assert.Len(t, sha, 40, "rev-parse should return a full SHA-1")

	// Tags resolve to the commit they point at.
	require.NoError(t, c.Tag(repoPath, "v1.12", "msg"))
	tagSHA, err := c.RevParse(repoPath, "v1.12")
	require.NoError(t, err)
	assert.Equal(t, sha, tagSHA, "annotated tag should peel to the tagged commit")

	_, err = c.RevParse(repoPath, "bogus-ref")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrVCSOperationFailed))
}

// TestRepoRoot verifies top-level discovery from the root and from a
// subdirectory.
func TestRepoRoot(t *testing.T) {
	repoPath := setupTestRepo(t)
	c := NewClient()

	subDir := filepath.Join(repoPath, "sub", "dir")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	root, err := c.RepoRoot(subDir)
	require.NoError(t, err)

	// Resolve symlinks on both sides for comparison because macOS uses
	// /var -> /private/var symlinks in temporary directories.
	resolvedRepo, _ := filepath.EvalSymlinks(repoPath)
	resolvedRoot, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, resolvedRepo, resolvedRoot)
}

// TestIsClean verifies that modified tracked files dirty the tree while
// untracked files do not.
func TestIsClean(t *testing.T) {
	repoPath := setupTestRepo(t)
	c := NewClient()

	clean, err := c.IsClean(repoPath)
	require.NoError(t, err)
	assert.True(t, clean)

	// Untracked files do not count as dirty.
	err = os.WriteFile(filepath.Join(repoPath, "untracked.txt"), []byte("x\n"), 0644)
	require.NoError(t, err)
	clean, err = c.IsClean(repoPath)
	require.NoError(t, err)
	assert.True(t, clean)

	// A modified tracked file does.
	err = os.WriteFile(filepath.Join(repoPath, "README.md"), []byte("changed\n"), 0644)
	require.NoError(t, err)
	clean, err = c.IsClean(repoPath)
	require.NoError(t, err)
	assert.False(t, clean)
}

// TestArchive verifies that Archive produces a readable tar.gz with the
// configured path prefix.
func TestArchive(t *testing.T) {
	repoPath := setupTestRepo(t)
	c := NewClient()

	outPath := filepath.Join(t.TempDir(), "swiftly-1.12.tar.gz")
	err := c.Archive(repoPath, "HEAD", "swiftly-1.12", outPath)
	require.NoError(t, err)

	// tar reads the archive back; every entry must carry the prefix.
	cmd := exec.Command("tar", "-tzf", outPath)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "tar -tzf failed: %s", string(output))
	assert.Contains(t, string(output), "swiftly-1.12/README.md")
}

// TestArchiveBadRef verifies that archiving an unknown ref fails.
func TestArchiveBadRef(t *testing.T) {
	repoPath := setupTestRepo(t)
	c := NewClient()

	outPath := filepath.Join(t.TempDir(), "out.tar.gz")
	err := c.Archive(repoPath, "no-such-ref", "prefix", outPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrVCSOperationFailed))
}
