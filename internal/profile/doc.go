// Package profile loads named transcoding profiles from a TOML definitions
// file and serves them through a registry with atomic refresh semantics.
package profile
