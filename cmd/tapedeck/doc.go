// Package main hosts the tapedeck CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC
// calls against the daemon: scheduling single and recurring recordings,
// queue inspection and removal, profile and transcode-job reporting, and
// daemon lifecycle control. It centralizes configuration resolution and
// socket discovery so subcommands can focus on presentation.
package main
