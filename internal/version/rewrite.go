// rewrite.go implements the file-edit collaborator that applies a derived
// version to the designated source location.
//
// NextRelease/NextDevelopment are pure; all observable file mutation lives
// here. The rewriter locates the version string via a configured regular
// expression whose single capture group marks the exact bytes to replace,
// so the surrounding assignment syntax (Python, shell, Makefile, ...) is
// preserved untouched.
package version

import (
	"fmt"
	"os"
	"regexp"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/model"
)

// Rewriter rewrites the version string inside a single source file.
type Rewriter struct {
	// Path is the file containing the version string (e.g. "swiftly/__init__.py").
	Path string

	// Pattern locates the version string. It must contain exactly one
	// capture group, which matches the version itself.
	Pattern *regexp.Regexp
}

// NewRewriter creates a Rewriter for the given file and pattern.
// The pattern must contain exactly one capture group.
func NewRewriter(path string, pattern *regexp.Regexp) (*Rewriter, error) {
	if pattern.NumSubexp() != 1 {
		return nil, fmt.Errorf("version pattern %q must have exactly one capture group, has %d",
			pattern, pattern.NumSubexp())
	}
	return &Rewriter{Path: path, Pattern: pattern}, nil
}

// Current reads the version currently recorded in the file.
// Fails if the file is unreadable, the pattern does not match, or the
// captured string is not a valid version.
func (r *Rewriter) Current() (Version, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return "", fmt.Errorf("read version file: %w", err)
	}

	loc := r.Pattern.FindSubmatchIndex(data)
	if loc == nil {
		return "", fmt.Errorf("version pattern %q not found in %s", r.Pattern, r.Path)
	}
	return Parse(string(data[loc[2]:loc[3]]))
}

// Rewrite replaces the version string in the file, verifying that the file
// currently records the expected `from` version. The verification guards
// against rewriting a tree that is not in the state the plan assumed
// (e.g. a resumed run whose set-version step already landed).
func (r *Rewriter) Rewrite(from, to Version) error {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return fmt.Errorf("read version file: %w", err)
	}

	loc := r.Pattern.FindSubmatchIndex(data)
	if loc == nil {
		return fmt.Errorf("version pattern %q not found in %s", r.Pattern, r.Path)
	}

	current := string(data[loc[2]:loc[3]])
	if current != from.String() {
		return fmt.Errorf("%w: %s records version %q, expected %q",
			model.ErrInvalidVersionKind, r.Path, current, from)
	}

	// Splice the new version into the capture group's byte range, leaving
	// everything outside it untouched.
	out := make([]byte, 0, len(data)+len(to)-len(current))
	out = append(out, data[:loc[2]]...)
	out = append(out, to.String()...)
	out = append(out, data[loc[3]:]...)

	info, err := os.Stat(r.Path)
	if err != nil {
		return fmt.Errorf("stat version file: %w", err)
	}
	if err := os.WriteFile(r.Path, out, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write version file: %w", err)
	}
	return nil
}
