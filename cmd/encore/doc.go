// Package main hosts the encore CLI entrypoint and command graph.
//
// The Cobra-based command tree starts playback sessions, inspects and
// clears stored resume points, and scaffolds configuration. It
// centralizes configuration resolution so subcommands can focus on
// user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the
// internal packages first, then surface it through dedicated commands
// or flags here.
package main
