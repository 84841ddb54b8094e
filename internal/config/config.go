package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tidwall/jsonc"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/model"
)

// DefaultVersionPattern locates a `VERSION = '1.12'` style assignment.
// The single capture group marks the version string itself.
const DefaultVersionPattern = `VERSION\s*=\s*['"]([0-9.]+)['"]`

// candidateFiles are the config file names probed at the repository root,
// in priority order.
var candidateFiles = []string{"release.jsonc", ".release.jsonc", "release.json"}

// Config is the parsed release configuration for one repository.
//
// Only versionFile is required; everything else has a default that matches
// the conventional master/dev branch layout.
type Config struct {
	// Name is the project name, used as the artifact archive prefix and in
	// commit messages. Defaults to the repository directory name.
	Name string `json:"name"`

	// ReleaseBranch is the branch releases are cut on. Default "master".
	ReleaseBranch string `json:"releaseBranch"`

	// DevelopmentBranch is the branch merged into ReleaseBranch at the start
	// of a release, and checked out again for the post-release version bump.
	// Default "dev".
	DevelopmentBranch string `json:"developmentBranch"`

	// Remote is the git remote pushed to. Default "origin".
	Remote string `json:"remote"`

	// VersionFile is the repository-relative path of the file holding the
	// version string (e.g. "swiftly/__init__.py"). Required.
	VersionFile string `json:"versionFile"`

	// VersionPattern is a regular expression with exactly one capture group
	// matching the version string inside VersionFile.
	// Defaults to DefaultVersionPattern.
	VersionPattern string `json:"versionPattern"`

	// Changelog is the repository-relative changelog path. An empty string
	// disables the changelog steps. Default "CHANGELOG.md".
	Changelog string `json:"changelog"`

	// DocsCommand, when non-empty, is run from the repository root during a
	// release to regenerate documentation (e.g. ["make", "html"]). The tool
	// never inspects the output, it only relocates it.
	DocsCommand []string `json:"docsCommand,omitempty"`

	// DocsOutput is the directory DocsCommand produces, relative to the
	// repository root. It is moved under OutputDir as docs-<version>.
	// Required when DocsCommand is set.
	DocsOutput string `json:"docsOutput,omitempty"`

	// OutputDir is where artifacts, manifests and relocated docs are
	// written, relative to the repository root. Default "dist".
	OutputDir string `json:"outputDir"`

	// RegistryURL, when set, is included in the upload instructions printed
	// at the end of a release. The upload itself is not automated.
	RegistryURL string `json:"registryUrl,omitempty"`

	// HistoryDB is the run-history SQLite database path, relative to the
	// repository root. Default ".swiftly-release/history.db".
	HistoryDB string `json:"historyDb"`
}

// Find locates the release config file at the repository root.
//
// Returns a CLIError with ExitConfigError if no candidate file exists —
// the tool refuses to guess branch names and version-file locations.
func Find(repoRoot string) (string, error) {
	for _, name := range candidateFiles {
		path := filepath.Join(repoRoot, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", model.NewCLIError(model.ExitConfigError,
		fmt.Sprintf("no release config found in %s (expected release.jsonc)", repoRoot))
}

// Load reads and parses a release config file, then applies defaults and
// validates the result. repoRoot is used to derive the default project name.
func Load(path, repoRoot string) (*Config, error) {
	// os.ReadFile handles the open-read-close lifecycle in a single call.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("release config not found: %s", path), err)
		}
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to read release config %s", path), err)
	}

	// Strip JSONC comments (// and /* */) and trailing commas before
	// parsing. Release configs are hand-maintained and commonly annotated.
	cleanJSON := jsonc.ToJSON(data)

	var cfg Config
	if err := json.Unmarshal(cleanJSON, &cfg); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to parse release config %s", path), err)
	}

	cfg.applyDefaults(repoRoot)
	if err := cfg.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("invalid release config %s", path), err)
	}
	return &cfg, nil
}

// applyDefaults fills unset fields with their conventional values.
func (c *Config) applyDefaults(repoRoot string) {
	if c.Name == "" {
		c.Name = filepath.Base(repoRoot)
	}
	if c.ReleaseBranch == "" {
		c.ReleaseBranch = "master"
	}
	if c.DevelopmentBranch == "" {
		c.DevelopmentBranch = "dev"
	}
	if c.Remote == "" {
		c.Remote = "origin"
	}
	if c.VersionPattern == "" {
		c.VersionPattern = DefaultVersionPattern
	}
	if c.Changelog == "" {
		c.Changelog = "CHANGELOG.md"
	}
	if c.OutputDir == "" {
		c.OutputDir = "dist"
	}
	if c.HistoryDB == "" {
		c.HistoryDB = filepath.Join(".swiftly-release", "history.db")
	}
}

// Validate checks the config for structural problems that would surface
// mid-release otherwise: a missing version file reference, a version pattern
// that cannot locate a single version string, or a docs command without a
// known output directory.
func (c *Config) Validate() error {
	if c.VersionFile == "" {
		return fmt.Errorf("versionFile must be set")
	}
	if filepath.IsAbs(c.VersionFile) {
		return fmt.Errorf("versionFile must be relative to the repository root, got %q", c.VersionFile)
	}
	if _, err := c.CompileVersionPattern(); err != nil {
		return err
	}
	if len(c.DocsCommand) > 0 && c.DocsOutput == "" {
		return fmt.Errorf("docsOutput must be set when docsCommand is configured")
	}
	return nil
}

// CompileVersionPattern compiles VersionPattern and checks that it captures
// exactly one group — the version string the rewriter splices.
func (c *Config) CompileVersionPattern() (*regexp.Regexp, error) {
	re, err := regexp.Compile(c.VersionPattern)
	if err != nil {
		return nil, fmt.Errorf("versionPattern does not compile: %w", err)
	}
	if re.NumSubexp() != 1 {
		return nil, fmt.Errorf("versionPattern must have exactly one capture group, has %d", re.NumSubexp())
	}
	return re, nil
}
