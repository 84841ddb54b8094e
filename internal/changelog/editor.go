package changelog

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/version"
)

// developmentHeading matches an in-development version heading line.
// Group 1 is the version string. A bare "## Unreleased" heading is also
// accepted for changelogs that never carry the development version number.
var developmentHeading = regexp.MustCompile(`(?m)^## (?:([0-9.]+) \(in development\)|Unreleased)\s*$`)

// Editor performs the two changelog mutations of the release cycle.
type Editor struct {
	// Path is the changelog file location.
	Path string
}

// NewEditor creates an Editor for the given changelog file.
func NewEditor(path string) *Editor {
	return &Editor{Path: path}
}

// Roll promotes the in-development heading to a released heading with the
// release version and date:
//
//	## 1.13 (in development)   →   ## 1.14 — 2013-06-03
//
// The heading's version (when present) is not required to match: the
// development version it was opened under is one bump behind the release
// version being cut. Fails if the changelog has no in-development heading,
// which usually means the release was already rolled.
func (e *Editor) Roll(released version.Version, date time.Time) error {
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return fmt.Errorf("read changelog: %w", err)
	}

	loc := developmentHeading.FindIndex(data)
	if loc == nil {
		return fmt.Errorf("changelog %s has no in-development heading to roll", e.Path)
	}

	heading := fmt.Sprintf("## %s — %s", released, date.Format("2006-01-02"))

	var out strings.Builder
	out.Write(data[:loc[0]])
	out.WriteString(heading)
	out.Write(data[loc[1]:])

	return e.write(out.String())
}

// OpenDevelopment prepends a fresh in-development heading for the next
// development version. The heading is inserted above the first existing
// version heading so any leading title/preamble stays at the top.
// Fails if an in-development heading is already open.
func (e *Editor) OpenDevelopment(next version.Version) error {
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return fmt.Errorf("read changelog: %w", err)
	}

	if developmentHeading.Match(data) {
		return fmt.Errorf("changelog %s already has an open in-development heading", e.Path)
	}

	heading := fmt.Sprintf("## %s (in development)\n\n", next)

	// Insert above the first version heading; append at the end when the
	// changelog has no headings yet.
	anyHeading := regexp.MustCompile(`(?m)^## `)
	loc := anyHeading.FindIndex(data)

	var out strings.Builder
	if loc == nil {
		out.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			out.WriteByte('\n')
		}
		out.WriteString("\n")
		out.WriteString(heading)
	} else {
		out.Write(data[:loc[0]])
		out.WriteString(heading)
		out.Write(data[loc[0]:])
	}

	return e.write(out.String())
}

// write persists the edited changelog preserving the original file mode.
func (e *Editor) write(content string) error {
	info, err := os.Stat(e.Path)
	if err != nil {
		return fmt.Errorf("stat changelog: %w", err)
	}
	if err := os.WriteFile(e.Path, []byte(content), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write changelog: %w", err)
	}
	return nil
}
