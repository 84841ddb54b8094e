// builder.go assembles the two built-in plans of the release cycle.
//
// The release plan automates the traditional runbook sequence: check out the
// release branch, merge development work, set the release version, roll the
// changelog, commit, tag, build docs, package the artifact, push. The dev
// plan is the post-release dual that reopens development on the odd-suffixed
// successor version. Both plans delegate every action to a collaborator
// package (vcs, version, changelog, archive) so each step stays testable in
// isolation.
package plan

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/archive"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/changelog"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/config"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/model"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/vcs"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/version"
)

// Builder constructs the built-in release and dev plans for one repository.
type Builder struct {
	// RepoRoot is the absolute repository path all steps operate on.
	RepoRoot string

	// Config is the loaded release configuration.
	Config *config.Config

	// Git performs all VCS operations.
	Git *vcs.Client

	// Out receives step output such as the final upload instructions.
	// Defaults to os.Stdout.
	Out io.Writer

	// Now is the timestamp source for changelog dates, overridable in tests.
	Now func() time.Time
}

// NewBuilder creates a Builder with default output and clock.
func NewBuilder(repoRoot string, cfg *config.Config, git *vcs.Client) *Builder {
	return &Builder{
		RepoRoot: repoRoot,
		Config:   cfg,
		Git:      git,
		Out:      os.Stdout,
		Now:      time.Now,
	}
}

// rewriter builds the version-file rewriter from the configuration.
func (b *Builder) rewriter() (*version.Rewriter, error) {
	pattern, err := b.Config.CompileVersionPattern()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid version pattern", err)
	}
	return version.NewRewriter(filepath.Join(b.RepoRoot, b.Config.VersionFile), pattern)
}

// ReleasePlan builds the plan that cuts the given release version.
//
// The version must be a release (even-suffixed) version; the set-version
// step additionally verifies at run time that the tree currently records
// the development version this release succeeds, enforcing the
// release ↔ development alternation.
func (b *Builder) ReleasePlan(ver version.Version) (*Plan, error) {
	kind, err := ver.Kind()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitVersionError, "invalid release version", err)
	}
	if kind != version.KindRelease {
		return nil, model.WrapCLIError(model.ExitVersionError,
			fmt.Sprintf("%s is a %s version", ver, kind),
			fmt.Errorf("%w: release requires an even-suffixed version", model.ErrInvalidVersionKind))
	}

	rw, err := b.rewriter()
	if err != nil {
		return nil, err
	}

	cfg := b.Config
	tag := "v" + ver.String()
	p := &Plan{Name: "release", Version: ver.String()}

	p.Steps = append(p.Steps, Step{
		ID:          "checkout",
		Description: fmt.Sprintf("check out %s", cfg.ReleaseBranch),
		Run: func(ctx context.Context) error {
			return b.Git.Checkout(b.RepoRoot, cfg.ReleaseBranch)
		},
	})

	if cfg.DevelopmentBranch != cfg.ReleaseBranch {
		p.Steps = append(p.Steps, Step{
			ID:          "merge",
			Description: fmt.Sprintf("merge %s into %s", cfg.DevelopmentBranch, cfg.ReleaseBranch),
			Run: func(ctx context.Context) error {
				return b.Git.Merge(b.RepoRoot, cfg.DevelopmentBranch)
			},
		})
	}

	p.Steps = append(p.Steps, Step{
		ID:          "set-version",
		Description: fmt.Sprintf("set version to %s in %s", ver, cfg.VersionFile),
		Run: func(ctx context.Context) error {
			current, err := rw.Current()
			if err != nil {
				return err
			}
			next, err := version.NextRelease(current)
			if err != nil {
				return err
			}
			if next != ver {
				return fmt.Errorf("%w: tree is at %s, whose next release is %s, not %s",
					model.ErrInvalidVersionKind, current, next, ver)
			}
			return rw.Rewrite(current, ver)
		},
	})

	if cfg.Changelog != "" {
		p.Steps = append(p.Steps, Step{
			ID:          "changelog",
			Description: fmt.Sprintf("roll %s for %s", cfg.Changelog, ver),
			Run: func(ctx context.Context) error {
				editor := changelog.NewEditor(filepath.Join(b.RepoRoot, cfg.Changelog))
				return editor.Roll(ver, b.Now())
			},
		})
	}

	p.Steps = append(p.Steps, Step{
		ID:          "commit",
		Description: fmt.Sprintf("commit %q", "Releasing "+ver.String()),
		Run: func(ctx context.Context) error {
			return b.Git.Commit(b.RepoRoot, "Releasing "+ver.String())
		},
	})

	p.Steps = append(p.Steps, Step{
		ID:          "tag",
		Description: fmt.Sprintf("tag %s", tag),
		Run: func(ctx context.Context) error {
			return b.Git.Tag(b.RepoRoot, tag, cfg.Name+" "+ver.String())
		},
	})

	if len(cfg.DocsCommand) > 0 {
		p.Steps = append(p.Steps, Step{
			ID:          "docs",
			Description: fmt.Sprintf("build documentation (%s)", strings.Join(cfg.DocsCommand, " ")),
			Run: func(ctx context.Context) error {
				return b.buildDocs(ctx, ver)
			},
		})
	}

	p.Steps = append(p.Steps, Step{
		ID:          "package",
		Description: fmt.Sprintf("package %s as %s-%s.tar.gz", tag, cfg.Name, ver),
		Run: func(ctx context.Context) error {
			packager := archive.NewPackager(b.Git)
			artifact, err := packager.Package(b.RepoRoot, tag, ver, cfg.Name, archive.Options{
				OutputDir: filepath.Join(b.RepoRoot, cfg.OutputDir),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(b.out(), "  artifact: %s (sha256 %s)\n", artifact.Path, artifact.SHA256)
			return nil
		},
	})

	p.Steps = append(p.Steps, Step{
		ID:          "push",
		Description: fmt.Sprintf("push %s and %s to %s", cfg.ReleaseBranch, tag, cfg.Remote),
		Run: func(ctx context.Context) error {
			return b.Git.Push(b.RepoRoot, cfg.Remote, cfg.ReleaseBranch, tag)
		},
	})

	p.Steps = append(p.Steps, Step{
		ID:          "publish-note",
		Description: "print registry upload instructions",
		Run: func(ctx context.Context) error {
			b.printUploadInstructions(ver)
			return nil
		},
	})

	return p, nil
}

// DevPlan builds the post-release plan that reopens development on the
// given development version.
func (b *Builder) DevPlan(ver version.Version) (*Plan, error) {
	kind, err := ver.Kind()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitVersionError, "invalid development version", err)
	}
	if kind != version.KindDevelopment {
		return nil, model.WrapCLIError(model.ExitVersionError,
			fmt.Sprintf("%s is a %s version", ver, kind),
			fmt.Errorf("%w: dev requires an odd-suffixed version", model.ErrInvalidVersionKind))
	}

	rw, err := b.rewriter()
	if err != nil {
		return nil, err
	}

	cfg := b.Config
	p := &Plan{Name: "dev", Version: ver.String()}

	p.Steps = append(p.Steps, Step{
		ID:          "checkout",
		Description: fmt.Sprintf("check out %s", cfg.DevelopmentBranch),
		Run: func(ctx context.Context) error {
			return b.Git.Checkout(b.RepoRoot, cfg.DevelopmentBranch)
		},
	})

	if cfg.DevelopmentBranch != cfg.ReleaseBranch {
		p.Steps = append(p.Steps, Step{
			ID:          "merge",
			Description: fmt.Sprintf("merge %s into %s", cfg.ReleaseBranch, cfg.DevelopmentBranch),
			Run: func(ctx context.Context) error {
				return b.Git.Merge(b.RepoRoot, cfg.ReleaseBranch)
			},
		})
	}

	p.Steps = append(p.Steps, Step{
		ID:          "set-version",
		Description: fmt.Sprintf("set version to %s in %s", ver, cfg.VersionFile),
		Run: func(ctx context.Context) error {
			current, err := rw.Current()
			if err != nil {
				return err
			}
			next, err := version.NextDevelopment(current)
			if err != nil {
				return err
			}
			if next != ver {
				return fmt.Errorf("%w: tree is at %s, whose next development version is %s, not %s",
					model.ErrInvalidVersionKind, current, next, ver)
			}
			return rw.Rewrite(current, ver)
		},
	})

	if cfg.Changelog != "" {
		p.Steps = append(p.Steps, Step{
			ID:          "changelog",
			Description: fmt.Sprintf("open %s section in %s", ver, cfg.Changelog),
			Run: func(ctx context.Context) error {
				editor := changelog.NewEditor(filepath.Join(b.RepoRoot, cfg.Changelog))
				return editor.OpenDevelopment(ver)
			},
		})
	}

	p.Steps = append(p.Steps, Step{
		ID:          "commit",
		Description: fmt.Sprintf("commit %q", "Version bump to "+ver.String()),
		Run: func(ctx context.Context) error {
			return b.Git.Commit(b.RepoRoot, "Version bump to "+ver.String())
		},
	})

	p.Steps = append(p.Steps, Step{
		ID:          "push",
		Description: fmt.Sprintf("push %s to %s", cfg.DevelopmentBranch, cfg.Remote),
		Run: func(ctx context.Context) error {
			return b.Git.Push(b.RepoRoot, cfg.Remote, cfg.DevelopmentBranch)
		},
	})

	return p, nil
}

// buildDocs runs the configured docs builder and relocates its output under
// the artifact output directory. The builder's output is opaque to us: it is
// moved, never parsed.
func (b *Builder) buildDocs(ctx context.Context, ver version.Version) error {
	cfg := b.Config

	// #nosec G204 — the command comes from the repo's own release config
	cmd := exec.CommandContext(ctx, cfg.DocsCommand[0], cfg.DocsCommand[1:]...)
	cmd.Dir = b.RepoRoot

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("docs command %q failed: %w: %s",
			strings.Join(cfg.DocsCommand, " "), err, strings.TrimSpace(string(output)))
	}

	src := filepath.Join(b.RepoRoot, cfg.DocsOutput)
	dstDir := filepath.Join(b.RepoRoot, cfg.OutputDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	dst := filepath.Join(dstDir, "docs-"+ver.String())

	// A previous attempt's output would block the rename; a resumed docs
	// step legitimately reproduces it.
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("clear previous docs output: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("move docs output: %w", err)
	}
	return nil
}

// printUploadInstructions writes the manual registry upload block that ends
// a release. Upload mechanics stay outside the tool.
func (b *Builder) printUploadInstructions(ver version.Version) {
	cfg := b.Config
	w := b.out()

	fmt.Fprintf(w, "\nRelease %s %s is packaged.\n", cfg.Name, ver)
	fmt.Fprintf(w, "Upload %s/%s-%s.tar.gz to the package registry", cfg.OutputDir, cfg.Name, ver)
	if cfg.RegistryURL != "" {
		fmt.Fprintf(w, " at %s", cfg.RegistryURL)
	}
	fmt.Fprintf(w, ",\ndeclaring version %s and file type \"source distribution\".\n", ver)
	fmt.Fprintf(w, "The manifest beside the archive carries the SHA-256 to verify after upload.\n")
}

// out returns the configured output writer, defaulting to os.Stdout.
func (b *Builder) out() io.Writer {
	if b.Out != nil {
		return b.Out
	}
	return os.Stdout
}
