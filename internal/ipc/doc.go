// Package ipc provides JSON-RPC daemon control over a Unix domain socket,
// with a typed client used by the CLI.
package ipc
