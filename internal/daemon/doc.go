// Package daemon coordinates the long-running clipwatch process.
//
// It wires configuration, the session catalog, the recording orchestrator, and
// notifications into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon is the orchestrator's observer: it inserts a
// catalog row when a recording starts, stores the highlight outcome when the
// stop-time worker finishes, and publishes the matching ntfy notification.
//
// An optional read-only HTTP API serves status, catalogued sessions, and the
// status stream. Recording control stays on the IPC socket.
package daemon
