// Package config loads the per-repository release configuration.
//
// The configuration lives in a release.jsonc file at the repository root.
// The file is JSONC (JSON with Comments), so this package uses
// github.com/tidwall/jsonc to strip comments before parsing with the
// standard encoding/json library — release configs are hand-edited and
// benefit from inline commentary the same way devcontainer.json files do.
//
// Key responsibilities:
//   - Locate release.jsonc in its standard paths
//   - Parse it with JSONC support
//   - Apply defaults and validate the result
package config
