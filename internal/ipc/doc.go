// Package ipc exposes the daemon over JSON-RPC on a Unix socket and ships the
// matching client used by the CLI.
//
// Request and response types reuse the internal/api DTOs so the socket and
// the HTTP API describe sessions and status events the same way.
package ipc
