package changelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/version"
)

// writeChangelog creates a changelog file with the given content and returns
// an Editor for it.
func writeChangelog(t *testing.T, content string) *Editor {
	t.Helper()

	path := filepath.Join(t.TempDir(), "CHANGELOG.md")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return NewEditor(path)
}

// readBack returns the editor's file content after an edit.
func readBack(t *testing.T, e *Editor) string {
	t.Helper()

	data, err := os.ReadFile(e.Path)
	require.NoError(t, err)
	return string(data)
}

var rollDate = time.Date(2013, 6, 3, 10, 30, 0, 0, time.UTC)

// TestRoll verifies that the in-development heading is promoted to a dated
// release heading and the section body survives untouched.
func TestRoll(t *testing.T) {
	e := writeChangelog(t, `# Changelog

## 1.11 (in development)

- added things

## 1.10 — 2013-01-15

- older things
`)

	err := e.Roll(version.MustParse("1.12"), rollDate)
	require.NoError(t, err)

	content := readBack(t, e)
	assert.Contains(t, content, "## 1.12 — 2013-06-03")
	assert.NotContains(t, content, "(in development)")
	assert.Contains(t, content, "- added things", "section body must survive the roll")
	assert.Contains(t, content, "## 1.10 — 2013-01-15", "older sections must be untouched")
}

// TestRollUnreleasedHeading verifies that a bare "## Unreleased" heading is
// accepted as the in-development marker.
func TestRollUnreleasedHeading(t *testing.T) {
	e := writeChangelog(t, "# Changelog\n\n## Unreleased\n\n- pending work\n")

	err := e.Roll(version.MustParse("1.12"), rollDate)
	require.NoError(t, err)

	content := readBack(t, e)
	assert.Contains(t, content, "## 1.12 — 2013-06-03")
	assert.NotContains(t, content, "Unreleased")
}

// TestRollNoOpenHeading verifies that rolling a changelog without an
// in-development heading fails, which is the signal that the release was
// already rolled (e.g. by a previous attempt of a resumed run).
func TestRollNoOpenHeading(t *testing.T) {
	e := writeChangelog(t, "# Changelog\n\n## 1.10 — 2013-01-15\n\n- released\n")

	err := e.Roll(version.MustParse("1.12"), rollDate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no in-development heading")
}

// TestOpenDevelopment verifies that a fresh in-development heading is
// inserted above the newest release section, keeping the title on top.
func TestOpenDevelopment(t *testing.T) {
	e := writeChangelog(t, `# Changelog

## 1.12 — 2013-06-03

- the release
`)

	err := e.OpenDevelopment(version.MustParse("1.13"))
	require.NoError(t, err)

	content := readBack(t, e)
	assert.Contains(t, content, "## 1.13 (in development)")

	// The new heading sits between the title and the newest release.
	titleIdx := indexOf(content, "# Changelog")
	devIdx := indexOf(content, "## 1.13 (in development)")
	relIdx := indexOf(content, "## 1.12 — 2013-06-03")
	assert.Less(t, titleIdx, devIdx)
	assert.Less(t, devIdx, relIdx)
}

// TestOpenDevelopmentAlreadyOpen verifies that opening a second
// in-development section fails.
func TestOpenDevelopmentAlreadyOpen(t *testing.T) {
	e := writeChangelog(t, "# Changelog\n\n## 1.13 (in development)\n")

	err := e.OpenDevelopment(version.MustParse("1.15"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already has an open in-development heading")
}

// TestOpenDevelopmentEmptyChangelog verifies the heading is appended when the
// changelog has no version headings yet.
func TestOpenDevelopmentEmptyChangelog(t *testing.T) {
	e := writeChangelog(t, "# Changelog\n")

	err := e.OpenDevelopment(version.MustParse("0.1"))
	require.NoError(t, err)

	content := readBack(t, e)
	assert.Contains(t, content, "## 0.1 (in development)")
}

// TestRollThenOpenCycle verifies the two edits compose into the release
// cadence: roll the released section, then open the next development one.
func TestRollThenOpenCycle(t *testing.T) {
	e := writeChangelog(t, "# Changelog\n\n## 1.11 (in development)\n\n- work\n")

	require.NoError(t, e.Roll(version.MustParse("1.12"), rollDate))
	require.NoError(t, e.OpenDevelopment(version.MustParse("1.13")))

	content := readBack(t, e)
	devIdx := indexOf(content, "## 1.13 (in development)")
	relIdx := indexOf(content, "## 1.12 — 2013-06-03")
	assert.GreaterOrEqual(t, devIdx, 0)
	assert.Less(t, devIdx, relIdx, "the new development section opens above the release")
}

// indexOf is strings.Index with a large negative miss value so ordering
// assertions fail loudly when a substring is absent.
func indexOf(s, sub string) int {
	if idx := strings.Index(s, sub); idx >= 0 {
		return idx
	}
	return -1000
}
