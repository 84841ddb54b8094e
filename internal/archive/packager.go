package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/model"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/vcs"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/version"
)

// Packager builds release artifacts from git refs.
type Packager struct {
	git *vcs.Client

	// now is the manifest timestamp source, overridable in tests.
	now func() time.Time
}

// NewPackager creates a Packager using the given git client.
func NewPackager(git *vcs.Client) *Packager {
	return &Packager{git: git, now: time.Now}
}

// Options controls a single packaging operation.
type Options struct {
	// OutputDir is where the archive and manifest are written.
	// Created if missing.
	OutputDir string

	// Force overwrites an existing archive for the same version.
	// Without it, packaging an already-packaged version fails,
	// enforcing artifact immutability.
	Force bool
}

// Package archives the tree at ref into <outputDir>/<name>-<version>.tar.gz
// and writes a <name>-<version>.manifest.yml beside it.
//
// The ref is resolved first; an unresolvable ref fails with
// model.ErrPackagingFailed before anything is written. The same commit
// packaged twice produces byte-identical archives.
func (p *Packager) Package(repoPath, ref string, ver version.Version, name string, opts Options) (*model.Artifact, error) {
	// Resolve the ref up front so a bad ref fails cleanly rather than
	// surfacing as a half-written archive.
	commit, err := p.git.RevParse(repoPath, ref)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitPackagingError,
			fmt.Sprintf("cannot package %q", ref),
			fmt.Errorf("%w: ref %q does not resolve: %v", model.ErrPackagingFailed, ref, err))
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, model.WrapCLIError(model.ExitPackagingError,
			"cannot create artifact output directory",
			fmt.Errorf("%w: %v", model.ErrPackagingFailed, err))
	}

	prefix := fmt.Sprintf("%s-%s", name, ver)
	archivePath := filepath.Join(opts.OutputDir, prefix+".tar.gz")

	if !opts.Force {
		if _, statErr := os.Stat(archivePath); statErr == nil {
			return nil, model.WrapCLIError(model.ExitPackagingError,
				fmt.Sprintf("artifact for version %s already exists", ver),
				fmt.Errorf("%w: %s exists and artifacts are immutable (use --force to overwrite)",
					model.ErrPackagingFailed, archivePath))
		}
	}

	if err := p.git.Archive(repoPath, ref, prefix, archivePath); err != nil {
		return nil, model.WrapCLIError(model.ExitPackagingError,
			fmt.Sprintf("git archive of %q failed", ref),
			fmt.Errorf("%w: %v", model.ErrPackagingFailed, err))
	}

	sum, size, err := fileDigest(archivePath)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitPackagingError,
			"cannot checksum artifact",
			fmt.Errorf("%w: %v", model.ErrPackagingFailed, err))
	}

	absPath, err := filepath.Abs(archivePath)
	if err != nil {
		absPath = archivePath
	}

	artifact := &model.Artifact{
		Name:      name,
		Version:   ver.String(),
		Ref:       ref,
		Commit:    commit,
		Path:      absPath,
		SHA256:    sum,
		SizeBytes: size,
		CreatedAt: p.now().UTC(),
	}

	manifestPath := filepath.Join(opts.OutputDir, prefix+".manifest.yml")
	if err := writeManifest(manifestPath, artifact); err != nil {
		return nil, model.WrapCLIError(model.ExitPackagingError,
			"cannot write artifact manifest",
			fmt.Errorf("%w: %v", model.ErrPackagingFailed, err))
	}

	return artifact, nil
}

// fileDigest returns the hex SHA-256 digest and size of a file.
func fileDigest(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// writeManifest serializes the artifact metadata as YAML with a generated
// header comment. The manifest sits beside the archive and travels with it
// to whoever performs the registry upload.
func writeManifest(path string, artifact *model.Artifact) error {
	data, err := yaml.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	var out strings.Builder
	out.WriteString("# Generated by swiftly-release — artifact manifest.\n")
	out.WriteString("# Verify the archive with: sha256sum " + filepath.Base(artifact.Path) + "\n")
	out.Write(data)

	if err := os.WriteFile(path, []byte(out.String()), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads an artifact manifest written by writeManifest.
// Used by `package --verify` style workflows and tests.
func ReadManifest(path string) (*model.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var artifact model.Artifact
	if err := yaml.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &artifact, nil
}
