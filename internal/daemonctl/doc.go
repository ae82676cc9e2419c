// Package daemonctl starts, stops and inspects the background daemon on
// behalf of CLI commands. It talks to the daemon over IPC and falls back to
// the pid file when a daemon stops answering.
package daemonctl
