// Package main hosts the clipwatch CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into IPC calls against
// the daemon, runs the daemon itself in the foreground, and offers an
// in-process `record` mode for one-off sessions without a daemon. Session
// listing and status fall back to the sqlite catalog when the daemon is not
// running.
//
// Keep this package thin: behavior belongs in the internal packages and is
// surfaced here through commands and flags.
package main
