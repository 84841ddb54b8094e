// Package version implements the parity-based version scheme used by the
// release process.
//
// A version is a dotted sequence of decimal components ("1.12", "2.0.3").
// The parity of the final component determines the version's kind: an even
// final component marks a published release, an odd one marks ongoing
// development work. Exactly one kind applies to any valid version, and the
// only legal transition after a release completes is release → development.
//
// NextRelease and NextDevelopment are pure functions; rewriting the version
// string inside a source file is delegated to the Rewriter collaborator in
// this package.
package version
