// Package archive produces distributable release artifacts.
//
// An artifact is a tar.gz archive of a git ref's tree, produced with
// `git archive` so the bytes are deterministic for a given commit: entry
// order follows the tree and entry mtimes come from the commit timestamp.
// Each archive is written together with a YAML manifest recording the
// version, resolved commit, SHA-256 digest and size, so a registry upload
// (manual, per the release process) can be verified end to end.
//
// Artifacts are immutable: packaging refuses to overwrite an existing
// archive for the same version unless forced.
package archive
