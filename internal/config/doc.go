// Package config loads, normalizes, and validates tapedeck configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the daemon and CLI need: card counts, queue bounds, the recording database
// location, worker-pool sizing, and the profile registry source.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
