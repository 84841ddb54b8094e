// Package changelog edits the project changelog around a release.
//
// The changelog is plain text with one heading per version line:
//
//	## 1.13 (in development)
//
//	- ongoing work notes
//
//	## 1.12 — 2013-06-03
//
// Cutting a release "rolls" the development heading: the in-development
// marker is replaced by the release version and date. Opening the next
// development cycle prepends a fresh in-development heading above it.
// The body text under each heading is never interpreted or rewritten.
package changelog
