package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/model"
)

// Kind classifies a version by the parity of its final component.
type Kind string

const (
	// KindRelease marks a published release version (even final component).
	KindRelease Kind = "release"

	// KindDevelopment marks an in-development version (odd final component).
	KindDevelopment Kind = "development"
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	return string(k)
}

// Version is a validated dotted-decimal version string such as "1.12".
// Construct values via Parse; the zero value is not a valid version.
type Version string

// String returns the version as written, e.g. "1.12".
func (v Version) String() string {
	return string(v)
}

// Parse validates s as a dotted sequence of decimal components and returns
// it as a Version. Leading/trailing whitespace is rejected, as are empty
// components ("1..2") and non-numeric components ("1.2rc1"), since the
// parity scheme has no meaning for such strings.
func Parse(s string) (Version, error) {
	if s == "" {
		return "", fmt.Errorf("%w: version string is empty", model.ErrInvalidVersionKind)
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return "", fmt.Errorf("%w: version %q has an empty component", model.ErrInvalidVersionKind, s)
		}
		if _, err := strconv.Atoi(part); err != nil {
			return "", fmt.Errorf("%w: version %q has non-numeric component %q", model.ErrInvalidVersionKind, s, part)
		}
	}
	return Version(s), nil
}

// MustParse is like Parse but panics on invalid input.
// Intended for literals in tests and built-in defaults.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// components splits the version into its numeric parts.
// The version is assumed to have passed Parse.
func (v Version) components() []int {
	parts := strings.Split(string(v), ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, _ := strconv.Atoi(p)
		nums[i] = n
	}
	return nums
}

// Kind returns the parity kind of the version: KindRelease if the final
// component is even, KindDevelopment if it is odd.
func (v Version) Kind() (Kind, error) {
	if _, err := Parse(string(v)); err != nil {
		return "", err
	}
	nums := v.components()
	if nums[len(nums)-1]%2 == 0 {
		return KindRelease, nil
	}
	return KindDevelopment, nil
}

// bumpFinal returns a copy of the version with its final component
// incremented by one. Incrementing by one always flips parity, so the
// result is the immediate successor in the alternation scheme.
func (v Version) bumpFinal() Version {
	nums := v.components()
	nums[len(nums)-1]++

	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return Version(strings.Join(parts, "."))
}

// NextRelease derives the release version that follows the given development
// version: the final component is incremented by one, producing an even
// suffix. Fails with model.ErrInvalidVersionKind if current is not a
// development version.
//
// Example: NextRelease("1.11") returns "1.12".
func NextRelease(current Version) (Version, error) {
	kind, err := current.Kind()
	if err != nil {
		return "", err
	}
	if kind != KindDevelopment {
		return "", fmt.Errorf("%w: %s is a %s version, next release requires a development version",
			model.ErrInvalidVersionKind, current, kind)
	}
	return current.bumpFinal(), nil
}

// NextDevelopment is the dual of NextRelease: it derives the development
// version that follows the given release version, producing an odd suffix.
// Fails with model.ErrInvalidVersionKind if current is not a release version.
//
// Example: NextDevelopment("1.12") returns "1.13".
func NextDevelopment(current Version) (Version, error) {
	kind, err := current.Kind()
	if err != nil {
		return "", err
	}
	if kind != KindRelease {
		return "", fmt.Errorf("%w: %s is a %s version, next development requires a release version",
			model.ErrInvalidVersionKind, current, kind)
	}
	return current.bumpFinal(), nil
}
